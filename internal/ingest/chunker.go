package ingest

import (
	"iter"
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize collapses every whitespace run to a single space and trims
// the ends. Chunk boundaries are computed on the normalized text only.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Chunker splits normalized text into fixed-size windows. Windows are at
// most Size runes long with no overlap; boundaries fall on arbitrary rune
// positions. Windows shorter than MinSize carry no retrievable signal and
// are dropped rather than embedded.
type Chunker struct {
	size    int
	minSize int
}

func NewChunker(size, minSize int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if minSize < 0 {
		minSize = 0
	}
	return &Chunker{size: size, minSize: minSize}
}

// Split returns the chunk sequence for text. The sequence is lazy,
// finite, and restartable: ranging over it twice yields identical chunks
// in identical order.
func (c *Chunker) Split(text string) iter.Seq[string] {
	normalized := Normalize(text)
	return func(yield func(string) bool) {
		runes := []rune(normalized)
		for start := 0; start < len(runes); start += c.size {
			end := min(start+c.size, len(runes))
			if end-start < c.minSize {
				continue
			}
			if !yield(string(runes[start:end])) {
				return
			}
		}
	}
}

// Chunks collects the full chunk sequence into a slice.
func (c *Chunker) Chunks(text string) []string {
	var chunks []string
	for chunk := range c.Split(text) {
		chunks = append(chunks, chunk)
	}
	return chunks
}
