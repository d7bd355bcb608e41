package models

// SearchParams bound a user-facing search request. Zero values are
// filled with the service defaults.
type SearchParams struct {
	Limit              int
	Page               int
	MinSimilarity      float32
	IncludeUnpublished bool
}

// SearchResult is one post surfaced by a search, carrying the strongest
// chunk similarity and a snippet drawn from the matched chunk.
type SearchResult struct {
	Post       Post    `json:"post"`
	Similarity float32 `json:"similarity"`
	Snippet    string  `json:"snippet"`
}

// SearchResponse is the structured result of a search request. Failures
// are reported in-band so callers can degrade gracefully.
type SearchResponse struct {
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	Posts       []SearchResult `json:"posts"`
	TotalCount  int            `json:"totalCount"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
}
