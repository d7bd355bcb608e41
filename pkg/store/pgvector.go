package store

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/xhad/blogsearch/internal/models"
)

const maxSearchLimit = 100

type EmbeddingStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	Model      string
}

// EmbeddingStore persists post embeddings in Postgres with pgvector.
type EmbeddingStore struct {
	config EmbeddingStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(config EmbeddingStoreConfig) (*EmbeddingStore, error) {
	if config.TableName == "" {
		config.TableName = "post_embeddings"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536 // Default for OpenAI embeddings
	}
	if config.Model == "" {
		config.Model = "text-embedding-3-small"
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	es := &EmbeddingStore{
		config: config,
		pool:   pool,
	}

	if err := es.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return es, nil
}

func (es *EmbeddingStore) initialize() error {
	ctx := context.Background()

	// Enable pgvector extension
	_, err := es.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			document_id TEXT NOT NULL,
			content_type TEXT NOT NULL,
			text_chunk TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			chunk_index INTEGER,
			token_count INTEGER NOT NULL DEFAULT 0,
			embedding_model TEXT NOT NULL,
			dimensions INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, es.config.TableName, es.config.VectorDim)

	_, err = es.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		es.config.TableName, es.config.TableName)

	_, err = es.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	createDocIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_document_id_idx
		ON %s (document_id)`,
		es.config.TableName, es.config.TableName)

	_, err = es.pool.Exec(ctx, createDocIndex)
	if err != nil {
		return fmt.Errorf("failed to create document index: %v", err)
	}

	return nil
}

// InsertEmbedding validates and writes one embedding row. A missing ID is
// generated, model metadata defaults come from the store config.
func (es *EmbeddingStore) InsertEmbedding(ctx context.Context, rec models.EmbeddingRecord) error {
	if err := es.validateRecord(rec); err != nil {
		return err
	}
	rec = es.fillDefaults(rec)

	_, err := es.pool.Exec(ctx, es.insertStmt(), es.insertArgs(rec)...)
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %v", err)
	}

	return nil
}

// BatchInsertEmbeddings writes all rows inside one transaction. Every
// record is validated before anything touches the database, so an invalid
// record fails the whole batch with nothing written.
func (es *EmbeddingStore) BatchInsertEmbeddings(ctx context.Context, recs []models.EmbeddingRecord) error {
	if len(recs) == 0 {
		return nil
	}
	for i, rec := range recs {
		if err := es.validateRecord(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	tx, err := es.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if err := es.insertAll(ctx, tx, recs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// ReplaceDocumentEmbeddings swaps all rows for a document in a single
// transaction, so a crash can never leave the document half-indexed.
func (es *EmbeddingStore) ReplaceDocumentEmbeddings(ctx context.Context, documentID string, recs []models.EmbeddingRecord) error {
	if documentID == "" {
		return models.NewValidationError("documentId", "document id must not be empty")
	}
	for i, rec := range recs {
		if err := es.validateRecord(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if rec.DocumentID != documentID {
			return models.NewValidationError("documentId",
				fmt.Sprintf("record %d belongs to document %s", i, rec.DocumentID))
		}
	}

	tx, err := es.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	deleteStmt := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", es.config.TableName)
	if _, err := tx.Exec(ctx, deleteStmt, documentID); err != nil {
		return fmt.Errorf("failed to delete old embeddings: %v", err)
	}

	if err := es.insertAll(ctx, tx, recs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// DeleteEmbeddingsByDocumentID removes every row for the document. Deleting
// a document with no rows is a no-op.
func (es *EmbeddingStore) DeleteEmbeddingsByDocumentID(ctx context.Context, documentID string) error {
	if documentID == "" {
		return models.NewValidationError("documentId", "document id must not be empty")
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", es.config.TableName)
	_, err := es.pool.Exec(ctx, stmt, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete embeddings: %v", err)
	}

	return nil
}

// SearchSimilar returns the stored chunks closest to the query vector,
// scored as 1 - cosine distance and filtered to opts.MinSimilarity.
func (es *EmbeddingStore) SearchSimilar(ctx context.Context, query []float32, opts models.SearchOptions) ([]models.SimilarChunk, error) {
	if err := validateVector(query); err != nil {
		return nil, err
	}
	if err := validateSearchOptions(opts); err != nil {
		return nil, err
	}

	queryVec := pgvector.NewVector(query)
	args := []interface{}{queryVec, opts.MinSimilarity, opts.Limit}

	filter := ""
	if opts.ContentType != nil {
		filter = "AND content_type = $4"
		args = append(args, string(*opts.ContentType))
	}

	stmt := fmt.Sprintf(`
		SELECT id, document_id, content_type, text_chunk, chunk_index,
			1 - (embedding <=> $1) AS similarity
		FROM %s
		WHERE 1 - (embedding <=> $1) >= $2 %s
		ORDER BY embedding <=> $1
		LIMIT $3`,
		es.config.TableName, filter)

	rows, err := es.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %v", err)
	}
	defer rows.Close()

	var matches []models.SimilarChunk
	for rows.Next() {
		var m models.SimilarChunk
		err := rows.Scan(
			&m.ID,
			&m.DocumentID,
			&m.ContentType,
			&m.TextChunk,
			&m.ChunkIndex,
			&m.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %v", err)
	}

	return matches, nil
}

func (es *EmbeddingStore) Close() {
	if es.pool != nil {
		es.pool.Close()
	}
}

func (es *EmbeddingStore) insertStmt() string {
	return fmt.Sprintf(`
		INSERT INTO %s (id, document_id, content_type, text_chunk, embedding,
			chunk_index, token_count, embedding_model, dimensions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		es.config.TableName)
}

func (es *EmbeddingStore) insertArgs(rec models.EmbeddingRecord) []interface{} {
	return []interface{}{
		rec.ID,
		rec.DocumentID,
		string(rec.ContentType),
		sanitizeUTF8(rec.TextChunk),
		pgvector.NewVector(rec.Embedding),
		rec.ChunkIndex,
		rec.TokenCount,
		rec.EmbeddingModel,
		rec.Dimensions,
	}
}

func (es *EmbeddingStore) insertAll(ctx context.Context, tx pgx.Tx, recs []models.EmbeddingRecord) error {
	stmt := es.insertStmt()
	for _, rec := range recs {
		rec = es.fillDefaults(rec)
		if _, err := tx.Exec(ctx, stmt, es.insertArgs(rec)...); err != nil {
			return fmt.Errorf("failed to insert embedding: %v", err)
		}
	}
	return nil
}

func (es *EmbeddingStore) fillDefaults(rec models.EmbeddingRecord) models.EmbeddingRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.EmbeddingModel == "" {
		rec.EmbeddingModel = es.config.Model
	}
	if rec.Dimensions == 0 {
		rec.Dimensions = len(rec.Embedding)
	}
	return rec
}

func (es *EmbeddingStore) validateRecord(rec models.EmbeddingRecord) error {
	if rec.DocumentID == "" {
		return models.NewValidationError("documentId", "document id must not be empty")
	}
	if rec.TextChunk == "" {
		return models.NewValidationError("textChunk", "text chunk must not be empty")
	}
	if !rec.ContentType.Valid() {
		return models.NewValidationError("contentType",
			fmt.Sprintf("unknown content type: %s", rec.ContentType))
	}
	return validateVector(rec.Embedding)
}

func validateVector(vec []float32) error {
	if len(vec) == 0 {
		return models.NewValidationError("embedding", "embedding must not be empty")
	}
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return models.NewValidationError("embedding",
				fmt.Sprintf("embedding contains non-finite value at index %d", i))
		}
	}
	return nil
}

func validateSearchOptions(opts models.SearchOptions) error {
	if opts.Limit < 1 || opts.Limit > maxSearchLimit {
		return models.NewValidationError("limit",
			fmt.Sprintf("limit must be between 1 and %d", maxSearchLimit))
	}
	if opts.MinSimilarity < 0 || opts.MinSimilarity > 1 {
		return models.NewValidationError("minSimilarity", "minSimilarity must be between 0 and 1")
	}
	if opts.ContentType != nil && !opts.ContentType.Valid() {
		return models.NewValidationError("contentType",
			fmt.Sprintf("unknown content type: %s", *opts.ContentType))
	}
	return nil
}

// sanitizeUTF8 drops invalid byte sequences so Postgres never rejects a
// chunk over encoding.
func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
