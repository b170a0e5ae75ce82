package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/backend/internal/vector"
)

func record(notebookID, content string, embedding []float32) vector.Record {
	return vector.Record{
		NotebookID: notebookID,
		Content:    content,
		Embedding:  embedding,
		CreatedAt:  time.Now(),
	}
}

func TestSearchIsScopedToNotebook(t *testing.T) {
	ctx := context.Background()
	s := NewStore(3)

	require.NoError(t, s.Insert(ctx, []vector.Record{
		record("nb-1", "chunk in one", []float32{1, 0, 0}),
		record("nb-2", "chunk in two", []float32{1, 0, 0}),
	}))

	matches, err := s.Search(ctx, "nb-1", []float32{1, 0, 0}, 0.3, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "chunk in one", matches[0].Content)

	matches, err = s.Search(ctx, "nb-3", []float32{1, 0, 0}, 0.3, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchAppliesThreshold(t *testing.T) {
	ctx := context.Background()
	s := NewStore(2)

	require.NoError(t, s.Insert(ctx, []vector.Record{
		record("nb", "aligned", []float32{1, 0}),
		record("nb", "orthogonal", []float32{0, 1}),
	}))

	matches, err := s.Search(ctx, "nb", []float32{1, 0}, 0.3, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "aligned", matches[0].Content)
	assert.GreaterOrEqual(t, matches[0].Score, float32(0.3))
}

func TestSearchEmptyResultIsValid(t *testing.T) {
	ctx := context.Background()
	s := NewStore(2)

	require.NoError(t, s.Insert(ctx, []vector.Record{
		record("nb", "only chunk", []float32{0, 1}),
	}))

	matches, err := s.Search(ctx, "nb", []float32{1, 0}, 0.3, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchLimitsToTopK(t *testing.T) {
	ctx := context.Background()
	s := NewStore(2)

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Insert(ctx, []vector.Record{
			record("nb", "chunk", []float32{1, 0}),
		}))
	}

	matches, err := s.Search(ctx, "nb", []float32{1, 0}, 0.3, 5)
	require.NoError(t, err)
	assert.Len(t, matches, 5)
}

func TestSearchOrdersByScoreThenInsertion(t *testing.T) {
	ctx := context.Background()
	s := NewStore(2)

	require.NoError(t, s.Insert(ctx, []vector.Record{
		record("nb", "weaker", []float32{1, 1}),
		record("nb", "tie first", []float32{1, 0}),
		record("nb", "tie second", []float32{1, 0}),
	}))

	matches, err := s.Search(ctx, "nb", []float32{1, 0}, 0.3, 5)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "tie first", matches[0].Content)
	assert.Equal(t, "tie second", matches[1].Content)
	assert.Equal(t, "weaker", matches[2].Content)
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewStore(3)

	err := s.Insert(ctx, []vector.Record{record("nb", "bad", []float32{1, 0})})
	assert.ErrorIs(t, err, vector.ErrDimensionMismatch)

	_, err = s.Search(ctx, "nb", []float32{1, 0}, 0.3, 5)
	assert.ErrorIs(t, err, vector.ErrDimensionMismatch)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, vector.Cosine([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, vector.Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, vector.Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(0), vector.Cosine([]float32{1, 0}, []float32{1}))
	assert.Equal(t, float32(0), vector.Cosine([]float32{0, 0}, []float32{1, 0}))
}
