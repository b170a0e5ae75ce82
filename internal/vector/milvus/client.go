package milvus

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/studybuddy/backend/internal/vector"
	"github.com/studybuddy/backend/pkg/logger"
)

// Store implements vector.Store on a Milvus/Zilliz deployment. Records
// carry the owning notebook id as a scalar field; every search filters on
// it server-side, so a query can never see another notebook's chunks.
type Store struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

// NewStore connects to the deployment at endpoint and ensures the
// collection exists. apiKey may be empty for unauthenticated deployments;
// Zilliz Cloud requires it.
func NewStore(ctx context.Context, endpoint, apiKey, collectionName string, vectorDim int) (*Store, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address: endpoint,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	s := &Store{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}

	if err := s.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) ensureCollection(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", s.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: s.collectionName,
		Description:    "Notebook chunk embeddings",
		Fields: []*entity.Field{
			{
				Name:       "chunk_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", s.vectorDim),
				},
			},
			{
				Name:     "notebook_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "4096",
				},
			},
			{
				Name:     "created_at",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	err = s.client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index definition: %w", err)
	}
	err = s.client.CreateIndex(ctx, s.collectionName, "embedding", idx, false)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = s.client.LoadCollection(ctx, s.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", s.collectionName))

	return nil
}

func (s *Store) Insert(ctx context.Context, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}

	chunkIDs := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	notebookIDs := make([]string, len(records))
	contents := make([]string, len(records))
	createdAts := make([]int64, len(records))

	for i, r := range records {
		if len(r.Embedding) != s.vectorDim {
			return vector.ErrDimensionMismatch
		}
		chunkIDs[i] = uuid.New().String()
		embeddings[i] = r.Embedding
		notebookIDs[i] = r.NotebookID
		contents[i] = r.Content
		createdAts[i] = r.CreatedAt.UnixNano()
	}

	_, err := s.client.Insert(
		ctx,
		s.collectionName,
		"",
		entity.NewColumnVarChar("chunk_id", chunkIDs),
		entity.NewColumnFloatVector("embedding", s.vectorDim, embeddings),
		entity.NewColumnVarChar("notebook_id", notebookIDs),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnInt64("created_at", createdAts),
	)

	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	if err := s.client.Flush(ctx, s.collectionName, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Debug("Chunks inserted into vector store", zap.Int("count", len(records)))

	return nil
}

// searchExpr builds the boolean filter that scopes a search to one
// notebook. The id is embedded in a quoted string literal, so any id that
// could terminate the literal and widen the filter is rejected outright.
func searchExpr(notebookID string) (string, error) {
	if notebookID == "" || strings.ContainsAny(notebookID, "\"'\\") {
		return "", fmt.Errorf("invalid notebook id %q", notebookID)
	}
	return fmt.Sprintf(`notebook_id == "%s"`, notebookID), nil
}

func (s *Store) Search(ctx context.Context, notebookID string, vec []float32, threshold float32, topK int) ([]vector.Match, error) {
	if len(vec) != s.vectorDim {
		return nil, vector.ErrDimensionMismatch
	}
	if topK <= 0 {
		topK = 5
	}

	expr, err := searchExpr(notebookID)
	if err != nil {
		return nil, err
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(16)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	searchResult, err := s.client.Search(
		ctx,
		s.collectionName,
		[]string{},
		expr,
		[]string{"content"},
		[]entity.Vector{entity.FloatVector(vec)},
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	matches := make([]vector.Match, 0)
	for _, sr := range searchResult {
		contentCol := sr.Fields.GetColumn("content")
		if contentCol == nil {
			continue
		}
		for i := 0; i < sr.ResultCount; i++ {
			// Milvus has no server-side score floor for COSINE here;
			// the threshold contract is enforced on the client.
			if sr.Scores[i] < threshold {
				continue
			}
			value, err := contentCol.Get(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read search result: %w", err)
			}
			content, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected content column type %T", value)
			}
			matches = append(matches, vector.Match{Content: content, Score: sr.Scores[i]})
		}
	}

	logger.Debug("Vector search completed",
		zap.String("notebook_id", notebookID),
		zap.Int("topK", topK),
		zap.Int("results", len(matches)),
	)

	return matches, nil
}
