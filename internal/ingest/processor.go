package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/studybuddy/backend/internal/extract"
	"github.com/studybuddy/backend/internal/llm"
	"github.com/studybuddy/backend/internal/metrics"
	"github.com/studybuddy/backend/internal/storage/models"
	"github.com/studybuddy/backend/internal/vector"
	"github.com/studybuddy/backend/pkg/logger"
)

// DocumentStore persists document metadata rows.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *models.Document) error
}

// Processor runs the ingestion pipeline: read payload, extract text,
// chunk, embed, and index, then record the document.
type Processor struct {
	docs     DocumentStore
	index    vector.Store
	embedder llm.Embedder
	chunker  *Chunker
	docsDir  string
	workers  int
}

// Result is the per-request ingestion outcome. Processed counts only
// chunks that passed the minimum-length filter and were embedded and
// stored; Failed chunks were dropped after an embedding or index error.
type Result struct {
	Submitted int
	Processed int
	Failed    int
}

func NewProcessor(docs DocumentStore, index vector.Store, embedder llm.Embedder, chunker *Chunker, docsDir string, workers int) *Processor {
	if workers <= 0 {
		workers = 4
	}
	return &Processor{
		docs:     docs,
		index:    index,
		embedder: embedder,
		chunker:  chunker,
		docsDir:  docsDir,
		workers:  workers,
	}
}

// Ingest processes one uploaded document into the notebook's index.
// Extraction failures abort the request with zero chunks processed.
// Per-chunk embedding or index failures are isolated: the remaining
// chunks still process and the result reports the best-effort count.
func (p *Processor) Ingest(ctx context.Context, notebookID, documentRef string) (*Result, error) {
	logger.Info("Processing document",
		zap.String("notebook_id", notebookID),
		zap.String("document_ref", documentRef),
	)

	path, err := p.resolveRef(documentRef)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document payload: %w", err)
	}

	text, err := extract.Extract(data, extract.DetectKind(documentRef))
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	chunks := p.chunker.Chunks(text)
	logger.Info("Document chunked", zap.Int("chunks", len(chunks)))

	result := &Result{Submitted: len(chunks)}

	if len(chunks) > 0 {
		result.Processed, err = p.indexChunks(ctx, notebookID, chunks)
		if err != nil {
			return nil, err
		}
		result.Failed = result.Submitted - result.Processed
	}

	doc := &models.Document{
		ID:         uuid.New().String(),
		NotebookID: notebookID,
		SourceRef:  documentRef,
		Title:      filepath.Base(documentRef),
		ChunkCount: result.Processed,
		CreatedAt:  time.Now(),
	}
	if err := p.docs.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}

	metrics.DocumentsProcessed.Inc()

	logger.Info("Document processed",
		zap.String("doc_id", doc.ID),
		zap.Int("submitted", result.Submitted),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

// indexChunks embeds and stores chunks with a bounded worker pool. At
// most p.workers embedding calls are in flight; each chunk's outcome is
// captured independently so one failure cannot abort the batch.
func (p *Processor) indexChunks(ctx context.Context, notebookID string, chunks []string) (int, error) {
	ok := make([]bool, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			embedding, err := p.embedder.Embed(gctx, chunk)
			if err != nil {
				logger.Warn("Chunk embedding failed",
					zap.Int("chunk_index", i),
					zap.Error(err),
				)
				metrics.ChunksProcessed.WithLabelValues("failed").Inc()
				return nil
			}

			record := vector.Record{
				NotebookID: notebookID,
				Content:    chunk,
				Embedding:  embedding,
				CreatedAt:  time.Now(),
			}
			if err := p.index.Insert(gctx, []vector.Record{record}); err != nil {
				logger.Warn("Chunk index write failed",
					zap.Int("chunk_index", i),
					zap.Error(err),
				)
				metrics.ChunksProcessed.WithLabelValues("failed").Inc()
				return nil
			}

			ok[i] = true
			metrics.ChunksProcessed.WithLabelValues("ok").Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	processed := 0
	for _, stored := range ok {
		if stored {
			processed++
		}
	}
	return processed, nil
}

// resolveRef maps a document ref onto the documents directory. Refs are
// rooted before cleaning so ".." segments cannot escape the directory.
func (p *Processor) resolveRef(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty document ref")
	}
	clean := filepath.Clean("/" + filepath.FromSlash(ref))
	return filepath.Join(p.docsDir, clean), nil
}
