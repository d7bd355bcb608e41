package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/xhad/blogsearch/internal/models"
	"github.com/xhad/blogsearch/internal/types"
)

// EmbedderConfig represents the configuration for an embedding generator.
type EmbedderConfig struct {
	Provider   string // "openai" or "ollama"
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
	MaxTokens  int     // hard input limit of the embedding model
	RateLimit  float64 // requests per second against the provider
}

// EmbeddingClient is the transport that actually talks to a provider.
// Implementations must return one vector per input, positionally aligned.
type EmbeddingClient interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder validates inputs and produces embeddings through a provider
// client, rate limiting outbound calls.
type Embedder struct {
	config  EmbedderConfig
	client  EmbeddingClient
	codec   types.Codec
	limiter *rate.Limiter
}

// NewWithConfig creates an Embedder with the given configuration.
func NewWithConfig(config EmbedderConfig, codec types.Codec) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "text-embedding-3-small"
	}
	if config.Dimensions == 0 {
		config.Dimensions = 1536
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 8191
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	var client EmbeddingClient
	var err error
	switch config.Provider {
	case "", "openai":
		client, err = newOpenAIClient(config)
	case "ollama":
		client, err = newOllamaClient(config)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", config.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding client: %v", err)
	}

	return newWithClient(config, codec, client), nil
}

func newWithClient(config EmbedderConfig, codec types.Codec, client EmbeddingClient) *Embedder {
	return &Embedder{
		config:  config,
		client:  client,
		codec:   codec,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// GenerateEmbedding embeds a single text. Empty and oversized texts are
// rejected before any network call.
func (e *Embedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := e.validateText(text); err != nil {
		return nil, err
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := e.client.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, &UpstreamError{Message: fmt.Sprintf("expected 1 embedding, got %d", len(vectors))}
	}

	return vectors[0], nil
}

// BatchGenerateEmbeddings embeds texts in one provider call. Every text is
// validated up front so an oversized element fails the batch before any
// network traffic. An empty batch is a no-op.
func (e *Embedder) BatchGenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	for i, text := range texts {
		if err := e.validateText(text); err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := e.client.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, &UpstreamError{Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(vectors))}
	}

	return vectors, nil
}

func (e *Embedder) validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return models.NewValidationError("text", "text must not be empty")
	}
	if count := e.codec.CountTokens(text); count > e.config.MaxTokens {
		return models.NewValidationError("text",
			fmt.Sprintf("text is %d tokens, model limit is %d", count, e.config.MaxTokens))
	}
	return nil
}
