package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studybuddy/backend/internal/llm"
	"github.com/studybuddy/backend/internal/metrics"
	"github.com/studybuddy/backend/internal/storage/models"
	"github.com/studybuddy/backend/internal/vector"
	"github.com/studybuddy/backend/pkg/logger"
)

// Generator produces answer text from an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt llm.Prompt) (string, error)
}

// MessageStore is the append-only conversation log.
type MessageStore interface {
	AppendTurn(ctx context.Context, turn *models.ConversationTurn) error
	ListTurns(ctx context.Context, notebookID string) ([]models.ConversationTurn, error)
}

// Engine runs the query pipeline: persist the user turn, embed the
// question, retrieve notebook context, generate a grounded answer, and
// persist the assistant turn.
type Engine struct {
	messages  MessageStore
	index     vector.Store
	embedder  llm.Embedder
	generator Generator
	topK      int
	threshold float32
}

func NewEngine(messages MessageStore, index vector.Store, embedder llm.Embedder, generator Generator, topK int, threshold float32) *Engine {
	if topK <= 0 {
		topK = 5
	}
	return &Engine{
		messages:  messages,
		index:     index,
		embedder:  embedder,
		generator: generator,
		topK:      topK,
		threshold: threshold,
	}
}

// Answer handles one chat request for a notebook. The user turn is
// persisted before any model call; if a later step fails, that turn
// remains in the log with no matching assistant turn, and history
// replays must tolerate the orphan.
func (e *Engine) Answer(ctx context.Context, notebookID, message string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	userTurn := &models.ConversationTurn{
		ID:         uuid.New().String(),
		NotebookID: notebookID,
		Role:       models.RoleUser,
		Content:    message,
		CreatedAt:  time.Now(),
	}
	if err := e.messages.AppendTurn(ctx, userTurn); err != nil {
		return "", fmt.Errorf("failed to record user message: %w", err)
	}

	embedding, err := e.embedder.Embed(ctx, message)
	if err != nil {
		return "", err
	}

	matches, err := e.index.Search(ctx, notebookID, embedding, e.threshold, e.topK)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}

	metrics.RetrievalResults.Observe(float64(len(matches)))
	logger.Debug("Context retrieved",
		zap.String("notebook_id", notebookID),
		zap.Int("matches", len(matches)),
	)

	contexts := make([]string, 0, len(matches))
	for _, m := range matches {
		contexts = append(contexts, m.Content)
	}

	answer, err := e.generator.Generate(ctx, llm.BuildPrompt(contexts, message))
	if err != nil {
		return "", err
	}

	assistantTurn := &models.ConversationTurn{
		ID:         uuid.New().String(),
		NotebookID: notebookID,
		Role:       models.RoleAssistant,
		Content:    answer,
		CreatedAt:  time.Now(),
	}
	if err := e.messages.AppendTurn(ctx, assistantTurn); err != nil {
		return "", fmt.Errorf("failed to record assistant message: %w", err)
	}

	logger.Info("Query answered",
		zap.String("notebook_id", notebookID),
		zap.Int("context_chunks", len(matches)),
		zap.Duration("latency", time.Since(start)),
	)

	return answer, nil
}

// History returns the notebook's full conversation in creation order,
// used to seed the chat view on session start.
func (e *Engine) History(ctx context.Context, notebookID string) ([]models.ConversationTurn, error) {
	return e.messages.ListTurns(ctx, notebookID)
}
