package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/xhad/blogsearch/internal/models"
	"github.com/xhad/blogsearch/internal/types"
)

type Config struct {
	Addr string
}

// Server exposes the search service over HTTP for the rest of the blog
// application.
type Server struct {
	config Config
	search types.Searcher
}

func NewServer(config Config, search types.Searcher) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}

	return &Server{
		config: config,
		search: search,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("search API listening on %s", s.config.Addr)
	return srv.ListenAndServe()
}

// handleSearch serves GET /search?q=...&limit=...&page=...&min_similarity=...
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, models.SearchResponse{
			Success: false,
			Error:   "missing query parameter q",
			Posts:   []models.SearchResult{},
		})
		return
	}

	params, err := parseParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.SearchResponse{
			Success: false,
			Error:   err.Error(),
			Posts:   []models.SearchResult{},
		})
		return
	}

	resp := s.search.SearchDocuments(r.Context(), query, params)

	// Degraded searches still answer 200; the success flag carries the
	// state so callers can render a fallback instead of an error page.
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func parseParams(r *http.Request) (models.SearchParams, error) {
	var params models.SearchParams
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, fmt.Errorf("invalid limit: %s", v)
		}
		params.Limit = limit
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, fmt.Errorf("invalid page: %s", v)
		}
		params.Page = page
	}

	if v := q.Get("min_similarity"); v != "" {
		min, err := strconv.ParseFloat(v, 32)
		if err != nil || min < 0 || min > 1 {
			return params, fmt.Errorf("invalid min_similarity: %s", v)
		}
		params.MinSimilarity = float32(min)
	}

	return params, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
