package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

// ollamaClient embeds through a local Ollama server, handy for running
// the pipeline without an OpenAI key.
type ollamaClient struct {
	llm *ollama.LLM
}

func newOllamaClient(config EmbedderConfig) (*ollamaClient, error) {
	model := config.Model
	if model == "" {
		model = "nomic-embed-text:latest"
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	emb, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ollamaClient{llm: emb}, nil
}

func (c *ollamaClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := c.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}
	return vectors, nil
}
