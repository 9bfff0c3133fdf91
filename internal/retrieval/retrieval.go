// Package retrieval answers semantic queries against an ingested corpus:
// embed the query text, run a cosine similarity search over stored chunk
// vectors, and record an audit trail of what was asked and returned.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veltra/corpusd/internal/store"
)

// Default search parameters, used when no option overrides them.
const (
	DefaultTopK      = 5
	DefaultThreshold = 0.65
)

// Embedder is the query-embedding contract the service consumes.
// *embed.Service satisfies it.
type Embedder interface {
	GenerateOne(ctx context.Context, text string) ([]float32, error)
}

// Store is the persistence contract the service consumes.
// *store.Store satisfies it.
type Store interface {
	GetCorpus(ctx context.Context, id uuid.UUID) (*store.Corpus, error)
	SearchChunks(ctx context.Context, corpusID uuid.UUID, embedding []float32, topK int, threshold float64) ([]store.SearchResult, error)
	InsertAudit(ctx context.Context, rec store.AuditRecord) error
}

// SearchOption customizes a single Search call.
type SearchOption func(*searchParams)

type searchParams struct {
	topK      int
	threshold float64
}

// WithTopK caps the number of results returned. Values below 1 are ignored.
func WithTopK(k int) SearchOption {
	return func(p *searchParams) {
		if k >= 1 {
			p.topK = k
		}
	}
}

// WithThreshold sets the minimum cosine similarity a result must reach.
// Values outside [0, 1] are ignored.
func WithThreshold(t float64) SearchOption {
	return func(p *searchParams) {
		if t >= 0 && t <= 1 {
			p.threshold = t
		}
	}
}

// Service performs similarity search over corpus chunks.
type Service struct {
	store    Store
	embedder Embedder
	defaults searchParams
	logger   *slog.Logger
}

// New creates a retrieval Service. Non-positive topK and out-of-range
// threshold fall back to the package defaults; a nil logger falls back to
// slog.Default().
func New(st Store, embedder Embedder, topK int, threshold float64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := searchParams{topK: DefaultTopK, threshold: DefaultThreshold}
	WithTopK(topK)(&defaults)
	WithThreshold(threshold)(&defaults)
	return &Service{
		store:    st,
		embedder: embedder,
		defaults: defaults,
		logger:   logger,
	}
}

// Search embeds the query and returns the most similar chunks of the corpus
// in descending similarity order. An empty result is a valid answer, not an
// error.
//
// Every search is recorded in the audit table. Audit failures are logged and
// swallowed: retrieval availability is not coupled to audit availability.
func (s *Service) Search(ctx context.Context, corpusID uuid.UUID, query string, opts ...SearchOption) ([]store.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	if _, err := s.store.GetCorpus(ctx, corpusID); err != nil {
		return nil, err
	}

	params := s.defaults
	for _, opt := range opts {
		opt(&params)
	}

	started := time.Now()

	embedding, err := s.embedder.GenerateOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.store.SearchChunks(ctx, corpusID, embedding, params.topK, params.threshold)
	if err != nil {
		return nil, fmt.Errorf("searching corpus %s: %w", corpusID, err)
	}

	s.audit(ctx, store.AuditRecord{
		CorpusID:    corpusID,
		Query:       query,
		TopK:        params.topK,
		Threshold:   params.threshold,
		ResultCount: len(results),
		Results:     results,
		Latency:     time.Since(started),
	})

	s.logger.Debug("search complete",
		"corpus_id", corpusID, "top_k", params.topK,
		"threshold", params.threshold, "results", len(results))

	return results, nil
}

func (s *Service) audit(ctx context.Context, rec store.AuditRecord) {
	if err := s.store.InsertAudit(ctx, rec); err != nil {
		s.logger.Warn("failed to record retrieval audit",
			"corpus_id", rec.CorpusID, "error", err)
	}
}
