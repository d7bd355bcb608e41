package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/blogsearch/internal/models"
)

type fakeCodec struct{}

func (fakeCodec) CountTokens(text string) int { return len(strings.Fields(text)) }
func (fakeCodec) Encode(text string) []int    { return make([]int, len(strings.Fields(text))) }
func (fakeCodec) Decode(ids []int) string     { return "" }

type recordingClient struct {
	calls   int
	batches [][]string
	vectors [][]float32
	err     error
}

func (c *recordingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.batches = append(c.batches, texts)
	if c.err != nil {
		return nil, c.err
	}
	if c.vectors != nil {
		return c.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func testEmbedder(client EmbeddingClient) *Embedder {
	return newWithClient(EmbedderConfig{
		Model:      "text-embedding-3-small",
		Dimensions: 2,
		MaxTokens:  8,
		RateLimit:  1000,
	}, fakeCodec{}, client)
}

func TestGenerateEmbedding_RejectsEmptyText(t *testing.T) {
	client := &recordingClient{}
	e := testEmbedder(client)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := e.GenerateEmbedding(context.Background(), text)
		assert.True(t, models.IsValidationError(err))
	}
	assert.Zero(t, client.calls, "validation must happen before any network call")
}

func TestGenerateEmbedding_RejectsOversizedText(t *testing.T) {
	client := &recordingClient{}
	e := testEmbedder(client)

	_, err := e.GenerateEmbedding(context.Background(), strings.Repeat("word ", 9))
	assert.True(t, models.IsValidationError(err))
	assert.Zero(t, client.calls)
}

func TestGenerateEmbedding_ReturnsVector(t *testing.T) {
	client := &recordingClient{vectors: [][]float32{{0.1, 0.2}}}
	e := testEmbedder(client)

	vec, err := e.GenerateEmbedding(context.Background(), "short text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Equal(t, 1, client.calls)
}

func TestBatchGenerateEmbeddings_EmptyInput(t *testing.T) {
	client := &recordingClient{}
	e := testEmbedder(client)

	vecs, err := e.BatchGenerateEmbeddings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Zero(t, client.calls, "empty batch must not hit the provider")
}

func TestBatchGenerateEmbeddings_FailFastOnOversizedElement(t *testing.T) {
	client := &recordingClient{}
	e := testEmbedder(client)

	_, err := e.BatchGenerateEmbeddings(context.Background(), []string{
		"fine",
		strings.Repeat("word ", 20),
		"also fine",
	})
	assert.True(t, models.IsValidationError(err))
	assert.Zero(t, client.calls, "no partial batch may be submitted")
}

func TestBatchGenerateEmbeddings_SingleCallPositionalAlignment(t *testing.T) {
	client := &recordingClient{vectors: [][]float32{{1, 0}, {2, 0}, {3, 0}}}
	e := testEmbedder(client)

	vecs, err := e.BatchGenerateEmbeddings(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, [][]string{{"A", "B", "C"}}, client.batches, "whole batch in one call")
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{3, 0}, vecs[2])
}

func TestBatchGenerateEmbeddings_CountMismatch(t *testing.T) {
	client := &recordingClient{vectors: [][]float32{{1, 0}}}
	e := testEmbedder(client)

	_, err := e.BatchGenerateEmbeddings(context.Background(), []string{"A", "B"})
	require.Error(t, err)
	assert.False(t, models.IsValidationError(err))
}
