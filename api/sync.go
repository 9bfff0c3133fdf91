package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/veltra/corpusd/internal/ingest"
	"github.com/veltra/corpusd/internal/log"
	"github.com/veltra/corpusd/internal/store"
)

// SyncHandler handles ingestion job endpoints.
type SyncHandler struct {
	store    *store.Store
	pipeline *ingest.Pipeline
	logger   log.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(st *store.Store, pipeline *ingest.Pipeline, logger log.Logger) *SyncHandler {
	return &SyncHandler{store: st, pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers sync routes on the given mux.
func (h *SyncHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/corpora/{id}/sync", h.startSync)
	mux.HandleFunc("GET /api/jobs/{id}", h.getJob)
	mux.HandleFunc("POST /api/jobs/{id}/run", h.runJob)
}

// startSync creates an ingestion job for a corpus and starts processing it
// in the background. Returns 202 with the pending job, or 409 when a
// pending or running job already exists for the corpus.
func (h *SyncHandler) startSync(w http.ResponseWriter, r *http.Request) {
	corpusID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid corpus id")
		return
	}

	job, err := h.pipeline.Start(r.Context(), corpusID)
	if err != nil {
		h.logger.Error("failed to start sync", "corpus_id", corpusID, "error", err)
		writeServiceError(w, err)
		return
	}

	// The job outlives the request. Run batches until the job reaches a
	// terminal state; each batch persists its cursor, so a crash here is
	// resumable via POST /api/jobs/{id}/run.
	go h.runToCompletion(context.WithoutCancel(r.Context()), job.ID)

	writeJSON(w, http.StatusAccepted, job)
}

func (h *SyncHandler) runToCompletion(ctx context.Context, jobID uuid.UUID) {
	for {
		job, err := h.pipeline.Run(ctx, jobID)
		if err != nil {
			h.logger.Error("ingestion run failed", "job_id", jobID, "error", err)
			return
		}
		if job.Status != store.JobStatusRunning {
			return
		}
	}
}

// getJob returns the state of an ingestion job.
func (h *SyncHandler) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid job id")
		return
	}

	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// runJob executes one batch of an existing non-terminal job inline and
// returns the job state afterwards. Used to resume a job whose background
// runner died.
func (h *SyncHandler) runJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid job id")
		return
	}

	job, err := h.pipeline.Run(r.Context(), id)
	if err != nil {
		h.logger.Error("ingestion run failed", "job_id", id, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
