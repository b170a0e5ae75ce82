package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a \t\n b \r\n  c  "))
	assert.Equal(t, "", Normalize("   \n\t  "))
	assert.Equal(t, "word", Normalize("word"))
}

func TestChunkerWindowSizes(t *testing.T) {
	c := NewChunker(1000, 10)

	chunks := c.Chunks(strings.Repeat("ab", 1250)) // 2500 chars
	require.Len(t, chunks, 3)
	assert.Len(t, []rune(chunks[0]), 1000)
	assert.Len(t, []rune(chunks[1]), 1000)
	assert.Len(t, []rune(chunks[2]), 500)
}

func TestChunkerWindowCountIsCeil(t *testing.T) {
	c := NewChunker(100, 0)

	for _, length := range []int{1, 99, 100, 101, 250, 1000} {
		chunks := c.Chunks(strings.Repeat("x", length))
		want := (length + 99) / 100
		assert.Len(t, chunks, want, "length %d", length)
		for i, chunk := range chunks[:len(chunks)-1] {
			assert.Len(t, chunk, 100, "length %d chunk %d", length, i)
		}
	}
}

func TestChunkerDropsShortTail(t *testing.T) {
	c := NewChunker(1000, 10)

	chunks := c.Chunks(strings.Repeat("x", 1005))
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 1000)
}

func TestChunkerMinLength(t *testing.T) {
	c := NewChunker(1000, 10)

	assert.Empty(t, c.Chunks("hello")) // 5 chars, below minimum
	assert.Empty(t, c.Chunks(""))
	assert.Empty(t, c.Chunks("   \n  "))

	for _, chunk := range c.Chunks(strings.Repeat("y", 3007)) {
		assert.GreaterOrEqual(t, len(chunk), 10)
	}
}

func TestChunkerNormalizesBeforeWindowing(t *testing.T) {
	c := NewChunker(10, 1)

	chunks := c.Chunks("aaa   bbb\n\nccc\tddd")
	require.NotEmpty(t, chunks)
	assert.Equal(t, "aaa bbb cc", chunks[0])
}

func TestChunkerCountsRunes(t *testing.T) {
	c := NewChunker(100, 1)

	chunks := c.Chunks(strings.Repeat("é", 150))
	require.Len(t, chunks, 2)
	assert.Len(t, []rune(chunks[0]), 100)
	assert.Len(t, []rune(chunks[1]), 50)
}

func TestChunkerSequenceIsRestartable(t *testing.T) {
	c := NewChunker(50, 10)
	seq := c.Split(strings.Repeat("z", 180))

	var first, second []string
	for chunk := range seq {
		first = append(first, chunk)
	}
	for chunk := range seq {
		second = append(second, chunk)
	}

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestChunkerSequenceStopsEarly(t *testing.T) {
	c := NewChunker(10, 1)

	var got []string
	for chunk := range c.Split(strings.Repeat("q", 100)) {
		got = append(got, chunk)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
}
