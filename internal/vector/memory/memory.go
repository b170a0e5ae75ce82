package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/studybuddy/backend/internal/vector"
)

type entry struct {
	record vector.Record
	seq    int
}

// Store is an in-process vector store using brute-force cosine
// similarity. It backs local runs and tests; the Milvus store serves the
// same interface for real deployments.
type Store struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
	nextSeq   int
}

// NewStore creates a store that accepts vectors of the given dimension.
func NewStore(dimension int) *Store {
	return &Store{dimension: dimension}
}

func (s *Store) Insert(ctx context.Context, records []vector.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if len(r.Embedding) != s.dimension {
			return vector.ErrDimensionMismatch
		}
	}

	for _, r := range records {
		s.entries = append(s.entries, entry{record: r, seq: s.nextSeq})
		s.nextSeq++
	}
	return nil
}

func (s *Store) Search(ctx context.Context, notebookID string, vec []float32, threshold float32, topK int) ([]vector.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(vec) != s.dimension {
		return nil, vector.ErrDimensionMismatch
	}
	if topK <= 0 {
		topK = 5
	}

	type scored struct {
		entry entry
		score float32
	}

	var candidates []scored
	for _, e := range s.entries {
		if e.record.NotebookID != notebookID {
			continue
		}
		score := vector.Cosine(e.record.Embedding, vec)
		if score >= threshold {
			candidates = append(candidates, scored{entry: e, score: score})
		}
	}

	// Descending score; equal scores keep insertion order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.seq < candidates[j].entry.seq
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	matches := make([]vector.Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, vector.Match{Content: c.entry.record.Content, Score: c.score})
	}
	return matches, nil
}

func (s *Store) Close() error {
	return nil
}

// Len reports the number of stored records across all notebooks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
