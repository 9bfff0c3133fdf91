package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/veltra/corpusd/internal/log"
	"github.com/veltra/corpusd/internal/store"
)

// Corpus validation constants.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 1000
	MaxFolderIDLength    = 128
)

// CorpusHandler handles corpus CRUD endpoints.
type CorpusHandler struct {
	store  *store.Store
	logger log.Logger
}

// NewCorpusHandler creates a new corpus handler.
func NewCorpusHandler(st *store.Store, logger log.Logger) *CorpusHandler {
	return &CorpusHandler{store: st, logger: logger}
}

// RegisterRoutes registers corpus routes on the given mux.
func (h *CorpusHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/corpora", h.list)
	mux.HandleFunc("POST /api/corpora", h.create)
	mux.HandleFunc("GET /api/corpora/{id}", h.get)
	mux.HandleFunc("DELETE /api/corpora/{id}", h.delete)
}

// list returns all corpora.
func (h *CorpusHandler) list(w http.ResponseWriter, r *http.Request) {
	corpora, err := h.store.ListCorpora(r.Context())
	if err != nil {
		h.logger.Error("failed to list corpora", "error", err)
		writeServiceError(w, err)
		return
	}
	if corpora == nil {
		corpora = []store.Corpus{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"corpora": corpora,
		"total":   len(corpora),
	})
}

// CreateCorpusRequest is the request body for creating a corpus.
type CreateCorpusRequest struct {
	DriveSourceID string `json:"drive_source_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	FolderID      string `json:"folder_id"`
	Recursive     *bool  `json:"recursive"`
}

// create creates a new corpus bound to a Drive folder.
func (h *CorpusHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateCorpusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	driveSourceID, err := uuid.Parse(req.DriveSourceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid drive_source_id")
		return
	}
	if req.Name == "" || len(req.Name) > MaxNameLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required (max 100 characters)")
		return
	}
	if len(req.Description) > MaxDescriptionLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "description too long (max 1000 characters)")
		return
	}
	if req.FolderID == "" || len(req.FolderID) > MaxFolderIDLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "folder_id is required")
		return
	}

	recursive := true
	if req.Recursive != nil {
		recursive = *req.Recursive
	}

	corpus, err := h.store.CreateCorpus(r.Context(), driveSourceID, req.Name, req.Description, req.FolderID, recursive)
	if err != nil {
		h.logger.Error("failed to create corpus", "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, corpus)
}

// get returns one corpus by ID.
func (h *CorpusHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid corpus id")
		return
	}

	corpus, err := h.store.GetCorpus(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, corpus)
}

// delete removes a corpus and all its documents and chunks.
func (h *CorpusHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid corpus id")
		return
	}

	if err := h.store.DeleteCorpus(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
