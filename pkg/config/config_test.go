package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
embedding:
  provider: "openai"
  model: "text-embedding-3-small"
  dimensions: 1536
  max_tokens: 8191
  rate_limit: 4.0

database:
  url: "postgres://localhost:5432/blog"
  table_name: "test_embeddings"
  posts_table: "test_posts"
  vector_dim: 1536

chunker:
  max_tokens: 400
  overlap_tokens: 40

search:
  default_limit: 20
  min_similarity: 0.6

jobs:
  concurrency: 3
  max_attempts: 5
  channel: "test_events"

server:
  addr: ":9090"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "openai", config.Embedding.Provider)
	assert.Equal(t, 4.0, config.Embedding.RateLimit)
	assert.Equal(t, "test_embeddings", config.Database.TableName)
	assert.Equal(t, "test_posts", config.Database.PostsTable)
	assert.Equal(t, 400, config.Chunker.MaxTokens)
	assert.Equal(t, 40, config.Chunker.OverlapTokens)
	assert.Equal(t, 20, config.Search.DefaultLimit)
	assert.Equal(t, float32(0.6), config.Search.MinSimilarity)
	assert.Equal(t, 3, config.Jobs.Concurrency)
	assert.Equal(t, "test_events", config.Jobs.Channel)
	assert.Equal(t, ":9090", config.Server.Addr)
}

func TestLoadConfig_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("database:\n  url: postgres://x/y\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "openai", config.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", config.Embedding.Model)
	assert.Equal(t, "OPENAI_API_KEY", config.Embedding.APIKeyEnv)
	assert.Equal(t, 1536, config.Embedding.Dimensions)
	assert.Equal(t, 8191, config.Embedding.MaxTokens)
	assert.Equal(t, "post_embeddings", config.Database.TableName)
	assert.Equal(t, 500, config.Chunker.MaxTokens)
	assert.Equal(t, 50, config.Chunker.OverlapTokens)
	assert.Equal(t, 10, config.Search.DefaultLimit)
	assert.Equal(t, float32(0.5), config.Search.MinSimilarity)
	assert.Equal(t, 5, config.Jobs.Concurrency)
	assert.Equal(t, 3, config.Jobs.MaxAttempts)
	assert.Equal(t, ":8080", config.Server.Addr)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-host:5432/envdb")

	config, err := getDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-host:5432/envdb", config.Database.URL)
}

func TestAPIKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "sk-test")

	config, err := getDefaultConfig()
	require.NoError(t, err)
	config.Embedding.APIKeyEnv = "TEST_EMBED_KEY"
	assert.Equal(t, "sk-test", config.APIKey())
}

func TestValidate(t *testing.T) {
	config, err := getDefaultConfig()
	require.NoError(t, err)
	config.Database.URL = "postgres://localhost:5432/blog"

	assert.Empty(t, config.Validate())

	config.Embedding.Provider = "anthropic"
	config.Chunker.OverlapTokens = 600
	config.Search.MinSimilarity = 1.5
	config.Database.VectorDim = 768

	errs := config.Validate()
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	assert.True(t, fields["embedding.provider"])
	assert.True(t, fields["chunker.overlap_tokens"])
	assert.True(t, fields["search.min_similarity"])
	assert.True(t, fields["database.vector_dim"])
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	config, err := getDefaultConfig()
	require.NoError(t, err)
	config.Database.URL = ""

	errs := config.Validate()
	require.NotEmpty(t, errs)
	assert.Equal(t, "database.url", errs[0].Field)
}
