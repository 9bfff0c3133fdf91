// Package store persists corpora, documents, chunks, ingestion jobs and
// retrieval audit records in PostgreSQL with pgvector.
//
// Store is a thin typed layer over a pgxpool.Pool: every method issues
// parameterized SQL and maps rows into the business types in types.go.
// Row absence maps to ErrNotFound, uniqueness violations to ErrConflict,
// so callers can route errors with errors.Is without touching pgconn.
//
// Store is safe for concurrent use by multiple goroutines.
package store

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

// Store provides typed database access for all corpusd tables.
type Store struct {
	pool   Pool
	logger *slog.Logger
}

// New creates a Store on top of an established connection pool.
// A nil logger falls back to slog.Default().
func New(pool Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, e.g. from the partial index backing the single-active-job rule.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
