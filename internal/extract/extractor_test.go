package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectKind(t *testing.T) {
	assert.Equal(t, KindPDF, DetectKind("uploads/notes.PDF"))
	assert.Equal(t, KindHTML, DetectKind("page.html"))
	assert.Equal(t, KindHTML, DetectKind("page.htm"))
	assert.Equal(t, KindText, DetectKind("readme.txt"))
	assert.Equal(t, KindText, DetectKind("readme.md"))
	assert.Equal(t, KindUnknown, DetectKind("image.png"))
	assert.Equal(t, KindUnknown, DetectKind("noextension"))
}

func TestExtractPlainText(t *testing.T) {
	text, err := Extract([]byte("hello world"), KindText)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtractHTML(t *testing.T) {
	html := `<html><head><title>t</title><script>var x = 1;</script></head>
	<body><nav>menu</nav><p>Cell   biology</p><p>notes</p><footer>foot</footer></body></html>`

	text, err := Extract([]byte(html), KindHTML)
	require.NoError(t, err)
	assert.Contains(t, text, "Cell biology")
	assert.Contains(t, text, "notes")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "menu")
	assert.NotContains(t, text, "foot")
}

func TestExtractEmptyPayload(t *testing.T) {
	_, err := Extract([]byte("   \n  "), KindText)
	assert.ErrorIs(t, err, ErrNoText)

	_, err = Extract([]byte("<html><body><script>x</script></body></html>"), KindHTML)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractUnsupportedKind(t *testing.T) {
	_, err := Extract([]byte("data"), KindUnknown)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestExtractMalformedPDF(t *testing.T) {
	_, err := Extract([]byte("definitely not a pdf"), KindPDF)
	assert.Error(t, err)
}
