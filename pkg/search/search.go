package search

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/xhad/blogsearch/internal/models"
	"github.com/xhad/blogsearch/internal/types"
)

const (
	maxCandidates = 100
	snippetRunes  = 200
)

type SearchConfig struct {
	DefaultLimit  int
	MinSimilarity float32
}

// Service answers ranked semantic queries over posts. It is the one
// boundary that converts failures into a structured result instead of
// propagating them: search is a user-facing read path where a degraded
// empty answer beats an error page.
type Service struct {
	config   SearchConfig
	embedder types.Embedder
	vectors  types.EmbeddingStore
	posts    types.PostStore
}

func NewWithConfig(config SearchConfig, embedder types.Embedder, vectors types.EmbeddingStore, posts types.PostStore) *Service {
	if config.DefaultLimit == 0 {
		config.DefaultLimit = 10
	}
	if config.MinSimilarity == 0 {
		config.MinSimilarity = 0.5
	}

	return &Service{
		config:   config,
		embedder: embedder,
		vectors:  vectors,
		posts:    posts,
	}
}

// SearchDocuments embeds the query, finds the nearest stored chunks,
// keeps the strongest chunk per post, joins the survivors against the
// posts table, and returns one ranked page.
func (s *Service) SearchDocuments(ctx context.Context, query string, params models.SearchParams) models.SearchResponse {
	params = s.applyDefaults(params)

	if strings.TrimSpace(query) == "" {
		return failed(params.Page, "query must not be empty")
	}

	queryVec, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		log.Printf("search: failed to embed query: %v", err)
		return failed(params.Page, "search unavailable")
	}

	// Over-fetch so deduplication and the publication filter still leave
	// enough posts to fill the requested page.
	candidates := 2 * params.Limit * params.Page
	if candidates > maxCandidates {
		candidates = maxCandidates
	}

	matches, err := s.vectors.SearchSimilar(ctx, queryVec, models.SearchOptions{
		Limit:         candidates,
		MinSimilarity: params.MinSimilarity,
	})
	if err != nil {
		log.Printf("search: similarity query failed: %v", err)
		return failed(params.Page, "search unavailable")
	}

	best := dedupeByDocument(matches)
	if len(best) == 0 {
		return models.SearchResponse{
			Success:     true,
			Posts:       []models.SearchResult{},
			CurrentPage: params.Page,
		}
	}

	ids := make([]string, 0, len(best))
	for id := range best {
		ids = append(ids, id)
	}

	posts, err := s.posts.FindPostsByIDs(ctx, ids, !params.IncludeUnpublished)
	if err != nil {
		log.Printf("search: post join failed: %v", err)
		return failed(params.Page, "search unavailable")
	}

	results := make([]models.SearchResult, 0, len(posts))
	for _, post := range posts {
		match := best[post.ID]
		results = append(results, models.SearchResult{
			Post:       post,
			Similarity: match.Similarity,
			Snippet:    snippet(match.TextChunk),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	totalCount := len(results)
	totalPages := (totalCount + params.Limit - 1) / params.Limit

	start := (params.Page - 1) * params.Limit
	if start > totalCount {
		start = totalCount
	}
	end := start + params.Limit
	if end > totalCount {
		end = totalCount
	}

	return models.SearchResponse{
		Success:     true,
		Posts:       results[start:end],
		TotalCount:  totalCount,
		CurrentPage: params.Page,
		TotalPages:  totalPages,
	}
}

func (s *Service) applyDefaults(params models.SearchParams) models.SearchParams {
	if params.Limit <= 0 {
		params.Limit = s.config.DefaultLimit
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.MinSimilarity <= 0 {
		params.MinSimilarity = s.config.MinSimilarity
	}
	return params
}

// dedupeByDocument keeps the highest-similarity chunk per document. A
// post may match on its title, whole body, or several chunks; the
// strongest signal wins.
func dedupeByDocument(matches []models.SimilarChunk) map[string]models.SimilarChunk {
	best := make(map[string]models.SimilarChunk, len(matches))
	for _, m := range matches {
		if existing, ok := best[m.DocumentID]; !ok || m.Similarity > existing.Similarity {
			best[m.DocumentID] = m
		}
	}
	return best
}

func snippet(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= snippetRunes {
		return string(runes)
	}
	return fmt.Sprintf("%s...", strings.TrimSpace(string(runes[:snippetRunes])))
}

// failed reports a degraded search: empty result set, zero counts, and
// the reason in-band.
func failed(page int, message string) models.SearchResponse {
	return models.SearchResponse{
		Success:     false,
		Error:       message,
		Posts:       []models.SearchResult{},
		CurrentPage: page,
	}
}
