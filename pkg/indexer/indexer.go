package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/xhad/blogsearch/internal/models"
	"github.com/xhad/blogsearch/internal/types"
)

type IndexerConfig struct {
	MaxTokens      int  // embedding model input limit
	PreserveMarkup bool // skip HTML flattening of post bodies
}

// Indexer turns a post into embedding rows: one title row plus either a
// single whole-body row or a run of chunk rows.
type Indexer struct {
	config   IndexerConfig
	codec    types.Codec
	chunker  types.Chunker
	embedder types.Embedder
	store    types.EmbeddingStore
}

func NewWithConfig(config IndexerConfig, codec types.Codec, chunker types.Chunker, embedder types.Embedder, store types.EmbeddingStore) *Indexer {
	if config.MaxTokens == 0 {
		config.MaxTokens = 8191
	}

	return &Indexer{
		config:   config,
		codec:    codec,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
	}
}

// GenerateDocumentEmbeddings builds the full embedding set for a post and
// swaps it into the store in one transaction. Because the write is a full
// replace, re-running after a partial failure converges to the same state.
func (ix *Indexer) GenerateDocumentEmbeddings(ctx context.Context, post models.Post) error {
	records, err := ix.buildRecords(ctx, post)
	if err != nil {
		return err
	}

	if err := ix.store.ReplaceDocumentEmbeddings(ctx, post.ID, records); err != nil {
		return fmt.Errorf("failed to store embeddings for post %s: %w", post.ID, err)
	}

	return nil
}

// UpdateDocumentEmbeddings regenerates every row for the post. Embeddings
// are never patched incrementally, so no stale chunk from a longer
// previous body can survive an edit.
func (ix *Indexer) UpdateDocumentEmbeddings(ctx context.Context, post models.Post) error {
	return ix.GenerateDocumentEmbeddings(ctx, post)
}

// DeleteDocumentEmbeddings removes every row for the post.
func (ix *Indexer) DeleteDocumentEmbeddings(ctx context.Context, documentID string) error {
	return ix.store.DeleteEmbeddingsByDocumentID(ctx, documentID)
}

func (ix *Indexer) buildRecords(ctx context.Context, post models.Post) ([]models.EmbeddingRecord, error) {
	if post.ID == "" {
		return nil, models.NewValidationError("id", "post id must not be empty")
	}
	title := strings.TrimSpace(post.Title)
	if title == "" {
		return nil, models.NewValidationError("title", "post title must not be empty")
	}

	titleVec, err := ix.embedder.GenerateEmbedding(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to embed title: %w", err)
	}

	records := []models.EmbeddingRecord{{
		DocumentID:  post.ID,
		ContentType: models.ContentTypeTitle,
		TextChunk:   title,
		Embedding:   titleVec,
		TokenCount:  ix.codec.CountTokens(title),
	}}

	content := post.Content
	if !ix.config.PreserveMarkup {
		content = normalizeContent(content)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return records, nil
	}

	if tokens := ix.codec.CountTokens(content); tokens <= ix.config.MaxTokens {
		contentVec, err := ix.embedder.GenerateEmbedding(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("failed to embed content: %w", err)
		}
		records = append(records, models.EmbeddingRecord{
			DocumentID:  post.ID,
			ContentType: models.ContentTypeContent,
			TextChunk:   content,
			Embedding:   contentVec,
			TokenCount:  tokens,
		})
		return records, nil
	}

	chunks := ix.chunker.ChunkText(content)
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := ix.embedder.BatchGenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}

	for i, chunk := range chunks {
		index := chunk.Index
		records = append(records, models.EmbeddingRecord{
			DocumentID:  post.ID,
			ContentType: models.ContentTypeChunk,
			TextChunk:   chunk.Text,
			Embedding:   vectors[i],
			ChunkIndex:  &index,
			TokenCount:  chunk.TokenCount,
		})
	}

	return records, nil
}
