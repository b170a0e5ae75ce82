package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupported means the document ref has an extension no
	// extractor handles.
	ErrUnsupported = errors.New("unsupported document format")

	// ErrNoText means the payload parsed but yielded no extractable
	// text. Ingestion treats this the same as a parse failure.
	ErrNoText = errors.New("no extractable text in document")
)

type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindHTML
	KindText
)

// DetectKind infers the payload format from the document ref extension.
func DetectKind(ref string) Kind {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".pdf":
		return KindPDF
	case ".html", ".htm":
		return KindHTML
	case ".txt", ".md":
		return KindText
	default:
		return KindUnknown
	}
}

// Extract converts a raw document payload into plain text. It is a pure
// transform; any failure aborts the whole ingestion request.
func Extract(data []byte, kind Kind) (string, error) {
	var (
		text string
		err  error
	)

	switch kind {
	case KindPDF:
		text, err = extractPDF(data)
	case KindHTML:
		text, err = extractHTML(data)
	case KindText:
		text = string(data)
	default:
		return "", ErrUnsupported
	}

	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	return text, nil
}

// extractPDF concatenates the plain text of every page into one string.
func extractPDF(data []byte) (text string, err error) {
	// The pdf library panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}

		sb.WriteString(pageText)
		sb.WriteString(" ")
	}

	return sb.String(), nil
}

var chromeSelector = "script, style, nav, footer, header, aside"

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find(chromeSelector).Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	text = regexp.MustCompile(`\s+`).ReplaceAllString(text, " ")

	return strings.TrimSpace(text), nil
}
