package vector

import (
	"context"
	"errors"
	"math"
	"time"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Record is one stored chunk: its text, its embedding, and the notebook
// that owns it. The notebook id is the only scoping key at query time.
type Record struct {
	NotebookID string
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}

// Match is one retrieval result. Matches are ephemeral; they are never
// persisted.
type Match struct {
	Content string
	Score   float32
}

// Store is an append-only index of chunk embeddings with
// notebook-scoped similarity search.
//
// Search returns at most topK matches whose cosine similarity to vec is
// at least threshold, ordered by descending score with ties broken by
// insertion order (earliest first). It never returns a record from a
// different notebook, and an empty result is a valid outcome.
type Store interface {
	Insert(ctx context.Context, records []Record) error
	Search(ctx context.Context, notebookID string, vec []float32, threshold float32, topK int) ([]Match, error)
	Close() error
}

// Cosine computes the cosine similarity of two vectors. Vectors of
// different lengths or zero magnitude score 0.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
