package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xhad/blogsearch/internal/models"
)

// ErrPostNotFound is returned when a post id has no row, typically because
// the post was deleted after an embedding job was queued.
var ErrPostNotFound = errors.New("post not found")

type PostStoreConfig struct {
	ConnString string
	TableName  string
}

// PostStore reads the posts table owned by the blog's CRUD layer. The
// search core never writes to it.
type PostStore struct {
	config PostStoreConfig
	pool   *pgxpool.Pool
}

func NewPostStore(config PostStoreConfig) (*PostStore, error) {
	if config.TableName == "" {
		config.TableName = "posts"
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	return &PostStore{
		config: config,
		pool:   pool,
	}, nil
}

func (ps *PostStore) FetchPost(ctx context.Context, id string) (models.Post, error) {
	stmt := fmt.Sprintf(`
		SELECT id, slug, title, content, published, created_at
		FROM %s
		WHERE id = $1`,
		ps.config.TableName)

	var post models.Post
	err := ps.pool.QueryRow(ctx, stmt, id).Scan(
		&post.ID,
		&post.Slug,
		&post.Title,
		&post.Content,
		&post.Published,
		&post.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Post{}, ErrPostNotFound
	}
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to fetch post: %v", err)
	}

	return post, nil
}

// FindPostsByIDs returns the posts that still exist for the given ids.
// Missing ids are silently skipped; callers treat that as eventual
// consistency between the vector index and the posts table.
func (ps *PostStore) FindPostsByIDs(ctx context.Context, ids []string, onlyPublished bool) ([]models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	filter := ""
	if onlyPublished {
		filter = "AND published"
	}

	stmt := fmt.Sprintf(`
		SELECT id, slug, title, content, published, created_at
		FROM %s
		WHERE id = ANY($1) %s`,
		ps.config.TableName, filter)

	rows, err := ps.pool.Query(ctx, stmt, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %v", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ListPosts returns every post, used by the full-reindex path.
func (ps *PostStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	stmt := fmt.Sprintf(`
		SELECT id, slug, title, content, published, created_at
		FROM %s
		ORDER BY created_at`,
		ps.config.TableName)

	rows, err := ps.pool.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %v", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (ps *PostStore) Close() {
	if ps.pool != nil {
		ps.pool.Close()
	}
}

func scanPosts(rows pgx.Rows) ([]models.Post, error) {
	var posts []models.Post
	for rows.Next() {
		var post models.Post
		err := rows.Scan(
			&post.ID,
			&post.Slug,
			&post.Title,
			&post.Content,
			&post.Published,
			&post.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %v", err)
	}

	return posts, nil
}
