// Package api exposes the corpus service over HTTP REST.
//
// Endpoints:
//
//	GET    /health                   liveness probe
//	GET    /ready                    readiness probe (pings the database)
//	GET    /api/corpora              list corpora
//	POST   /api/corpora              create a corpus
//	GET    /api/corpora/{id}         get a corpus
//	DELETE /api/corpora/{id}         delete a corpus
//	POST   /api/corpora/{id}/sync    start an ingestion job (202, 409 on conflict)
//	GET    /api/jobs/{id}            inspect an ingestion job
//	POST   /api/jobs/{id}/run        run one batch of a non-terminal job
//	POST   /api/search               similarity search over a corpus
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: health check endpoints
//   - corpus.go: corpus CRUD endpoints
//   - sync.go: ingestion job endpoints
//   - search.go: retrieval endpoint
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veltra/corpusd/internal/ingest"
	"github.com/veltra/corpusd/internal/log"
	"github.com/veltra/corpusd/internal/retrieval"
	"github.com/veltra/corpusd/internal/store"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3500"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Must cover one inline ingestion batch via POST /api/jobs/{id}/run.
	WriteTimeout = 300 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the corpus REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health *HealthHandler
	corpus *CorpusHandler
	sync   *SyncHandler
	search *SearchHandler
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(pool *pgxpool.Pool, st *store.Store, pipeline *ingest.Pipeline, retriever *retrieval.Service, logger log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		logger: logger,
		health: NewHealthHandler(pool, logger),
		corpus: NewCorpusHandler(st, logger),
		sync:   NewSyncHandler(st, pipeline, logger),
		search: NewSearchHandler(retriever, logger),
	}

	s.health.RegisterRoutes(mux)
	s.corpus.RegisterRoutes(mux)
	s.sync.RegisterRoutes(mux)
	s.search.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
