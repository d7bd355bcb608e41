package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	switch c.Embedding.Provider {
	case "openai", "ollama":
	default:
		errors = append(errors, ValidationError{
			Field:   "embedding.provider",
			Message: fmt.Sprintf("unknown provider: %s", c.Embedding.Provider),
		})
	}

	if c.Embedding.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "embedding.model",
			Message: "model is required",
		})
	}

	if c.Embedding.Dimensions < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.dimensions",
			Message: "dimensions must be positive",
		})
	}

	if c.Embedding.MaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.max_tokens",
			Message: "max_tokens must be positive",
		})
	}

	if c.Embedding.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "embedding.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Embedding.BaseURL != "" {
		if _, err := url.Parse(c.Embedding.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "embedding.base_url",
				Message: "invalid base URL",
			})
		}
	}

	if c.Database.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "database URL is required",
		})
	} else if _, err := url.Parse(c.Database.URL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "invalid database URL",
		})
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.VectorDim != c.Embedding.Dimensions {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must match embedding.dimensions",
		})
	}

	if c.Chunker.MaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.max_tokens",
			Message: "max_tokens must be positive",
		})
	}

	if c.Chunker.OverlapTokens < 0 || c.Chunker.OverlapTokens >= c.Chunker.MaxTokens {
		errors = append(errors, ValidationError{
			Field:   "chunker.overlap_tokens",
			Message: "overlap_tokens must be non-negative and less than max_tokens",
		})
	}

	if c.Chunker.MaxTokens > c.Embedding.MaxTokens {
		errors = append(errors, ValidationError{
			Field:   "chunker.max_tokens",
			Message: "chunk size cannot exceed the embedding model token limit",
		})
	}

	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > 100 {
		errors = append(errors, ValidationError{
			Field:   "search.default_limit",
			Message: "default_limit must be between 1 and 100",
		})
	}

	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		errors = append(errors, ValidationError{
			Field:   "search.min_similarity",
			Message: "min_similarity must be between 0 and 1",
		})
	}

	if c.Jobs.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "jobs.concurrency",
			Message: "concurrency must be positive",
		})
	}

	if c.Jobs.MaxAttempts < 1 {
		errors = append(errors, ValidationError{
			Field:   "jobs.max_attempts",
			Message: "max_attempts must be positive",
		})
	}

	return errors
}
