package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studybuddy/backend/internal/metrics"
	"github.com/studybuddy/backend/pkg/logger"
	"github.com/studybuddy/backend/pkg/utils"
)

// Embedder is the single-text embedding contract the pipelines consume.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingCache stores embedding vectors under opaque keys.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, key string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, key string, embedding []float32, ttl time.Duration) error
}

// CachedEmbedder decorates an Embedder with a cache keyed by the hash of
// model and text. The same text embedded twice against the same model is
// expected to yield the same vector, so caching is safe best-effort;
// cache failures fall through to the inner embedder.
type CachedEmbedder struct {
	inner Embedder
	cache EmbeddingCache
	model string
	ttl   time.Duration
}

func NewCachedEmbedder(inner Embedder, cache EmbeddingCache, model string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: cache,
		model: model,
		ttl:   ttl,
	}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := utils.HashText(e.model + "\x00" + text)

	embedding, ok, err := e.cache.GetEmbedding(ctx, key)
	if err != nil {
		logger.Warn("Embedding cache read failed", zap.Error(err))
	} else if ok {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return embedding, nil
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	embedding, err = e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.cache.SetEmbedding(ctx, key, embedding, e.ttl); err != nil {
		logger.Warn("Embedding cache write failed", zap.Error(err))
	}

	return embedding, nil
}
