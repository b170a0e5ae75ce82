package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/backend/internal/llm"
	"github.com/studybuddy/backend/internal/storage/models"
	"github.com/studybuddy/backend/internal/vector"
	"github.com/studybuddy/backend/internal/vector/memory"
)

type fakeMessageStore struct {
	turns     []models.ConversationTurn
	appendErr error
}

func (f *fakeMessageStore) AppendTurn(ctx context.Context, turn *models.ConversationTurn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	turn.Seq = int64(len(f.turns) + 1)
	f.turns = append(f.turns, *turn)
	return nil
}

func (f *fakeMessageStore) ListTurns(ctx context.Context, notebookID string) ([]models.ConversationTurn, error) {
	var out []models.ConversationTurn
	for _, t := range f.turns {
		if t.NotebookID == notebookID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

type fakeGenerator struct {
	answer string
	err    error
	prompt llm.Prompt
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func seedStore(t *testing.T, notebookID, content string, embedding []float32) *memory.Store {
	t.Helper()
	store := memory.NewStore(len(embedding))
	require.NoError(t, store.Insert(context.Background(), []vector.Record{{
		NotebookID: notebookID,
		Content:    content,
		Embedding:  embedding,
		CreatedAt:  time.Now(),
	}}))
	return store
}

func TestAnswerGroundedInNotebookContext(t *testing.T) {
	messages := &fakeMessageStore{}
	store := seedStore(t, "nb-1", "mitochondria are the powerhouse", []float32{1, 0, 0})
	generator := &fakeGenerator{answer: "**The powerhouse.**"}

	engine := NewEngine(messages, store, &fakeEmbedder{vec: []float32{1, 0, 0}}, generator, 5, 0.3)

	answer, err := engine.Answer(context.Background(), "nb-1", "what are mitochondria?")
	require.NoError(t, err)
	assert.Equal(t, "**The powerhouse.**", answer)
	assert.Contains(t, generator.prompt.User, "mitochondria are the powerhouse")

	require.Len(t, messages.turns, 2)
	assert.Equal(t, models.RoleUser, messages.turns[0].Role)
	assert.Equal(t, "what are mitochondria?", messages.turns[0].Content)
	assert.Equal(t, models.RoleAssistant, messages.turns[1].Role)
	assert.Equal(t, "**The powerhouse.**", messages.turns[1].Content)
}

func TestAnswerWithNoRelevantContext(t *testing.T) {
	messages := &fakeMessageStore{}
	// The stored chunk is orthogonal to the query embedding, so nothing
	// clears the similarity threshold.
	store := seedStore(t, "nb-1", "unrelated notes", []float32{0, 1, 0})
	generator := &fakeGenerator{answer: "General knowledge answer."}

	engine := NewEngine(messages, store, &fakeEmbedder{vec: []float32{1, 0, 0}}, generator, 5, 0.3)

	answer, err := engine.Answer(context.Background(), "nb-1", "who was Napoleon?")
	require.NoError(t, err)
	assert.Equal(t, "General knowledge answer.", answer)

	// An empty retrieval still produces a valid prompt and an answer.
	assert.Equal(t, 1, generator.calls)
	assert.Contains(t, generator.prompt.User, "(no relevant notes found)")
	assert.NotContains(t, generator.prompt.User, "unrelated notes")
	require.Len(t, messages.turns, 2)
}

func TestAnswerNeverReadsOtherNotebooks(t *testing.T) {
	messages := &fakeMessageStore{}
	store := seedStore(t, "nb-other", "someone else's notes", []float32{1, 0, 0})
	generator := &fakeGenerator{answer: "answer"}

	engine := NewEngine(messages, store, &fakeEmbedder{vec: []float32{1, 0, 0}}, generator, 5, 0.3)

	_, err := engine.Answer(context.Background(), "nb-1", "question")
	require.NoError(t, err)
	assert.NotContains(t, generator.prompt.User, "someone else's notes")
}

func TestGenerationFailureLeavesOrphanUserTurn(t *testing.T) {
	messages := &fakeMessageStore{}
	store := seedStore(t, "nb-1", "notes", []float32{1, 0, 0})
	generator := &fakeGenerator{err: llm.ErrGeneration}

	engine := NewEngine(messages, store, &fakeEmbedder{vec: []float32{1, 0, 0}}, generator, 5, 0.3)

	_, err := engine.Answer(context.Background(), "nb-1", "doomed question")
	require.ErrorIs(t, err, llm.ErrGeneration)

	// The user turn persists with no matching assistant turn, and a
	// subsequent history read returns it unchanged.
	history, err := engine.History(context.Background(), "nb-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "doomed question", history[0].Content)
}

func TestUserTurnPersistFailureAbortsBeforeModelCalls(t *testing.T) {
	messages := &fakeMessageStore{appendErr: errors.New("disk full")}
	store := memory.NewStore(3)
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	generator := &fakeGenerator{answer: "never"}

	engine := NewEngine(messages, store, embedder, generator, 5, 0.3)

	_, err := engine.Answer(context.Background(), "nb-1", "question")
	require.Error(t, err)
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, 0, generator.calls)
}

func TestEmbeddingFailureSurfacesAfterUserTurn(t *testing.T) {
	messages := &fakeMessageStore{}
	store := memory.NewStore(3)
	embedder := &fakeEmbedder{err: llm.ErrEmbedding}
	generator := &fakeGenerator{answer: "never"}

	engine := NewEngine(messages, store, embedder, generator, 5, 0.3)

	_, err := engine.Answer(context.Background(), "nb-1", "question")
	require.ErrorIs(t, err, llm.ErrEmbedding)
	assert.Equal(t, 0, generator.calls)
	require.Len(t, messages.turns, 1)
	assert.Equal(t, models.RoleUser, messages.turns[0].Role)
}
