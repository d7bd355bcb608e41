package types

import (
	"context"

	"github.com/xhad/blogsearch/internal/models"
)

// Core interfaces

// Codec counts and converts tokens for a specific embedding model.
type Codec interface {
	CountTokens(text string) int
	Encode(text string) []int
	Decode(ids []int) string
}

// Chunker splits long text into overlapping token-bounded pieces.
type Chunker interface {
	ChunkText(text string) []models.Chunk
}

// Embedder maps text to fixed-length dense vectors via a remote model.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	BatchGenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingStore persists and queries per-chunk vectors.
type EmbeddingStore interface {
	InsertEmbedding(ctx context.Context, rec models.EmbeddingRecord) error
	BatchInsertEmbeddings(ctx context.Context, recs []models.EmbeddingRecord) error
	ReplaceDocumentEmbeddings(ctx context.Context, documentID string, recs []models.EmbeddingRecord) error
	DeleteEmbeddingsByDocumentID(ctx context.Context, documentID string) error
	SearchSimilar(ctx context.Context, query []float32, opts models.SearchOptions) ([]models.SimilarChunk, error)
	Close()
}

// PostStore reads posts owned by the surrounding blog application.
type PostStore interface {
	FetchPost(ctx context.Context, id string) (models.Post, error)
	FindPostsByIDs(ctx context.Context, ids []string, onlyPublished bool) ([]models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
}

// Indexer keeps a post's embedding rows consistent with its content.
type Indexer interface {
	GenerateDocumentEmbeddings(ctx context.Context, post models.Post) error
	UpdateDocumentEmbeddings(ctx context.Context, post models.Post) error
	DeleteDocumentEmbeddings(ctx context.Context, documentID string) error
}

// Searcher answers ranked semantic queries over posts.
type Searcher interface {
	SearchDocuments(ctx context.Context, query string, params models.SearchParams) models.SearchResponse
}
