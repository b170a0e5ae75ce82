package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/studybuddy/backend/pkg/logger"
)

var (
	// ErrEmbedding wraps any upstream failure while embedding a text.
	// Callers account for it per call; one failing chunk never hides
	// the fate of the rest of a batch.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration wraps any upstream failure while generating an
	// answer. It is surfaced to the caller as-is; the pipeline does
	// not retry beyond the transport-level backoff below.
	ErrGeneration = errors.New("generation failed")
)

type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	EmbeddingDim   int
	Temperature    float32
	MaxTokens      int
	Timeout        time.Duration
}

// Client talks to the OpenAI API for both embeddings and chat
// completions. All calls run behind a shared circuit breaker and an
// exponential backoff, and honor the caller's context.
type Client struct {
	api            *openai.Client
	model          string
	embeddingModel string
	embeddingDim   int
	temperature    float32
	maxTokens      int
	timeout        time.Duration
	breaker        *gobreaker.CircuitBreaker
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	logger.Info("LLM client initialized",
		zap.String("model", cfg.Model),
		zap.String("embedding_model", cfg.EmbeddingModel),
		zap.Int("embedding_dim", cfg.EmbeddingDim),
	)

	return &Client{
		api:            openai.NewClient(cfg.APIKey),
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		embeddingDim:   cfg.EmbeddingDim,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		timeout:        cfg.Timeout,
		breaker:        breaker,
	}
}

// Dimension returns the embedding dimension every vector must have.
func (c *Client) Dimension() int {
	return c.embeddingDim
}

// Embed maps a single text (chunk or question) to a fixed-dimension
// vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var embedding []float32

	err := c.execute(ctx, func() error {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.embeddingModel),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return errors.New("empty embedding response")
		}
		embedding = resp.Data[0].Embedding
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	if c.embeddingDim > 0 && len(embedding) != c.embeddingDim {
		return nil, fmt.Errorf("%w: model returned %d dimensions, expected %d",
			ErrEmbedding, len(embedding), c.embeddingDim)
	}

	return embedding, nil
}

// Generate produces the answer text for an assembled prompt.
func (c *Client) Generate(ctx context.Context, prompt Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var answer string

	err := c.execute(ctx, func() error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
				{Role: openai.ChatMessageRoleUser, Content: prompt.User},
			},
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty completion response")
		}

		logger.Debug("Completion generated",
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		)

		answer = resp.Choices[0].Message.Content
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return answer, nil
}

func (c *Client) execute(ctx context.Context, operation func() error) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		policy := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3),
			ctx,
		)
		return nil, backoff.RetryNotify(operation, policy, func(err error, delay time.Duration) {
			logger.Warn("LLM call failed, retrying",
				zap.Error(err),
				zap.Duration("delay", delay),
			)
		})
	})
	return err
}
