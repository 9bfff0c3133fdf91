package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/veltra/corpusd/internal/log"
	"github.com/veltra/corpusd/internal/retrieval"
	"github.com/veltra/corpusd/internal/store"
)

// Search validation constants.
const (
	MaxQueryLength = 10000
	MaxTopK        = 50
)

// SearchHandler handles the retrieval endpoint.
type SearchHandler struct {
	retriever *retrieval.Service
	logger    log.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(retriever *retrieval.Service, logger log.Logger) *SearchHandler {
	return &SearchHandler{retriever: retriever, logger: logger}
}

// RegisterRoutes registers search routes on the given mux.
func (h *SearchHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/search", h.search)
}

// SearchRequest is the request body for a similarity search.
type SearchRequest struct {
	CorpusID  string   `json:"corpus_id"`
	Query     string   `json:"query"`
	TopK      int      `json:"top_k"`
	Threshold *float64 `json:"threshold"`
}

// SearchResponse is the response body for a similarity search.
type SearchResponse struct {
	Results []store.SearchResult `json:"results"`
	Total   int                  `json:"total"`
}

// search embeds the query and returns the most similar chunks of the corpus.
func (h *SearchHandler) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	corpusID, err := uuid.Parse(req.CorpusID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid corpus_id")
		return
	}
	if req.Query == "" || len(req.Query) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required (max 10000 characters)")
		return
	}
	if req.TopK > MaxTopK {
		req.TopK = MaxTopK
	}

	var opts []retrieval.SearchOption
	if req.TopK > 0 {
		opts = append(opts, retrieval.WithTopK(req.TopK))
	}
	if req.Threshold != nil {
		opts = append(opts, retrieval.WithThreshold(*req.Threshold))
	}

	results, err := h.retriever.Search(r.Context(), corpusID, req.Query, opts...)
	if err != nil {
		h.logger.Error("search failed", "corpus_id", corpusID, "error", err)
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}
