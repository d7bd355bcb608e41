package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Embedding struct {
		Provider   string  `yaml:"provider"`
		Model      string  `yaml:"model"`
		BaseURL    string  `yaml:"base_url"`
		APIKeyEnv  string  `yaml:"api_key_env"`
		Dimensions int     `yaml:"dimensions"`
		MaxTokens  int     `yaml:"max_tokens"`
		RateLimit  float64 `yaml:"rate_limit"`
	} `yaml:"embedding"`

	Database struct {
		URL        string `yaml:"url"`
		TableName  string `yaml:"table_name"`
		PostsTable string `yaml:"posts_table"`
		VectorDim  int    `yaml:"vector_dim"`
	} `yaml:"database"`

	Chunker struct {
		MaxTokens     int `yaml:"max_tokens"`
		OverlapTokens int `yaml:"overlap_tokens"`
	} `yaml:"chunker"`

	Search struct {
		DefaultLimit  int     `yaml:"default_limit"`
		MinSimilarity float32 `yaml:"min_similarity"`
	} `yaml:"search"`

	Jobs struct {
		Concurrency int    `yaml:"concurrency"`
		MaxAttempts int    `yaml:"max_attempts"`
		Channel     string `yaml:"channel"`
	} `yaml:"jobs"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/blogsearch/config.yaml"),
			"/etc/blogsearch/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Embedding.Provider == "" {
		config.Embedding.Provider = "openai"
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "text-embedding-3-small"
	}
	if config.Embedding.APIKeyEnv == "" {
		config.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if config.Embedding.Dimensions == 0 {
		config.Embedding.Dimensions = 1536
	}
	if config.Embedding.MaxTokens == 0 {
		config.Embedding.MaxTokens = 8191
	}
	if config.Embedding.RateLimit == 0 {
		config.Embedding.RateLimit = 2.0
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "post_embeddings"
	}
	if config.Database.PostsTable == "" {
		config.Database.PostsTable = "posts"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 1536
	}

	if config.Chunker.MaxTokens == 0 {
		config.Chunker.MaxTokens = 500
	}
	if config.Chunker.OverlapTokens == 0 {
		config.Chunker.OverlapTokens = 50
	}

	if config.Search.DefaultLimit == 0 {
		config.Search.DefaultLimit = 10
	}
	if config.Search.MinSimilarity == 0 {
		config.Search.MinSimilarity = 0.5
	}

	if config.Jobs.Concurrency == 0 {
		config.Jobs.Concurrency = 5
	}
	if config.Jobs.MaxAttempts == 0 {
		config.Jobs.MaxAttempts = 3
	}
	if config.Jobs.Channel == "" {
		config.Jobs.Channel = "post_embedding_events"
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
}

func mergeWithEnv(config *Config) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && config.Embedding.Provider == "ollama" {
		config.Embedding.BaseURL = baseURL
	}
}

// APIKey resolves the provider key from the configured environment
// variable, so the key itself never lives in a config file.
func (c *Config) APIKey() string {
	if c.Embedding.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Embedding.APIKeyEnv)
}
