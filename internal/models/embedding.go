package models

import "time"

// ContentType tags what part of a post an embedding row represents.
type ContentType string

const (
	// ContentTypeTitle is the embedding of the post title.
	ContentTypeTitle ContentType = "title"
	// ContentTypeContent is the embedding of a whole body that fits the
	// model's token budget.
	ContentTypeContent ContentType = "content"
	// ContentTypeChunk is one numbered piece of a body that had to be split.
	ContentTypeChunk ContentType = "chunk"
)

// Valid reports whether c is one of the known content types.
func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeTitle, ContentTypeContent, ContentTypeChunk:
		return true
	}
	return false
}

// EmbeddingRecord is one stored vector for a post. A post owns exactly one
// title record plus either one content record or N chunk records, never both.
type EmbeddingRecord struct {
	ID             string
	DocumentID     string
	ContentType    ContentType
	TextChunk      string
	Embedding      []float32
	ChunkIndex     *int // nil for title and whole-content rows
	TokenCount     int
	EmbeddingModel string
	Dimensions     int
	CreatedAt      time.Time
}

// Chunk is one token-bounded slice of a longer text.
type Chunk struct {
	Text       string
	TokenCount int
	Index      int
}

// SimilarChunk is an embedding row returned by a similarity search,
// scored against the query vector.
type SimilarChunk struct {
	ID          string
	DocumentID  string
	ContentType ContentType
	TextChunk   string
	ChunkIndex  *int
	Similarity  float32
}

// SearchOptions bound a similarity search against the vector store.
type SearchOptions struct {
	Limit         int
	MinSimilarity float32
	ContentType   *ContentType
}
