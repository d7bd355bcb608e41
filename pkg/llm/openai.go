package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// openAIClient talks to an OpenAI-compatible /embeddings endpoint.
type openAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
}

func newOpenAIClient(config EmbedderConfig) (*openAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires an API key")
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &openAIClient{
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		model:      config.Model,
		dimensions: config.Dimensions,
		client:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateEmbeddings submits the whole batch in one request. The API does
// not guarantee response order, so results are placed by declared index.
func (c *openAIClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingsRequest{
		Model:      c.model,
		Input:      texts,
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var decoded embeddingsResponse
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if json.Unmarshal(payload, &decoded) == nil && decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if len(decoded.Data) != len(texts) {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(decoded.Data)),
		}
	}

	vectors := make([][]float32, len(texts))
	for _, item := range decoded.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, &UpstreamError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("embedding index %d out of range", item.Index),
			}
		}
		vectors[item.Index] = item.Embedding
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, &UpstreamError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("missing embedding for input %d", i),
			}
		}
	}

	return vectors, nil
}
