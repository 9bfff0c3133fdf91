package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateJob creates a new pending ingestion job for a corpus.
//
// The single-active-job invariant is enforced atomically: the insert only
// succeeds when no pending or running job exists for the corpus, and a
// partial unique index backs the same rule at the schema level. Either path
// surfaces as ErrConflict.
func (s *Store) CreateJob(ctx context.Context, corpusID uuid.UUID) (*IngestionJob, error) {
	job := &IngestionJob{
		CorpusID: corpusID,
		Status:   JobStatusPending,
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO ingestion_jobs (corpus_id)
		SELECT $1
		WHERE NOT EXISTS (
			SELECT 1 FROM ingestion_jobs
			WHERE corpus_id = $1 AND status IN ('pending', 'running')
		)
		RETURNING id, created_at`,
		corpusID,
	).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return nil, fmt.Errorf("active job exists for corpus %s: %w", corpusID, ErrConflict)
		}
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.logger.Debug("created ingestion job", "job_id", job.ID, "corpus_id", corpusID)
	return job, nil
}

// GetJob returns an ingestion job by ID, or ErrNotFound.
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*IngestionJob, error) {
	var (
		j          IngestionJob
		statsJSON  []byte
		errorsJSON []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, corpus_id, status, progress_stage, progress_current, progress_total,
		       file_cursor, stats, error, file_errors, created_at, started_at, finished_at
		FROM ingestion_jobs
		WHERE id = $1`, id,
	).Scan(&j.ID, &j.CorpusID, &j.Status, &j.Progress.Stage, &j.Progress.Current,
		&j.Progress.Total, &j.Cursor, &statsJSON, &j.Error, &errorsJSON,
		&j.CreatedAt, &j.StartedAt, &j.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}

	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &j.Stats); err != nil {
			return nil, fmt.Errorf("parsing job stats: %w", err)
		}
	}
	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &j.FileErrors); err != nil {
			return nil, fmt.Errorf("parsing file errors: %w", err)
		}
	}
	return &j, nil
}

// StartJob transitions a job from pending or running to running and stamps
// started_at on the first transition. Re-running an already running job is
// allowed: that is exactly what a resumed invocation does.
func (s *Store) StartJob(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE ingestion_jobs
		SET status = 'running', started_at = COALESCE(started_at, now())
		WHERE id = $1 AND status IN ('pending', 'running')`, id)
	if err != nil {
		return fmt.Errorf("starting job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s is not pending or running: %w", id, ErrConflict)
	}
	return nil
}

// UpdateJobProgress persists the progress descriptor, resume cursor,
// accumulated stats and per-file errors. Everything a resumed invocation
// needs to continue lives on the job row, so all of it is written together.
func (s *Store) UpdateJobProgress(ctx context.Context, id uuid.UUID, p Progress, cursor int, stats SyncStats, fileErrors []FileError) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling job stats: %w", err)
	}
	if fileErrors == nil {
		fileErrors = []FileError{}
	}
	errorsJSON, err := json.Marshal(fileErrors)
	if err != nil {
		return fmt.Errorf("marshaling file errors: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE ingestion_jobs
		SET progress_stage = $2, progress_current = $3, progress_total = $4,
		    file_cursor = $5, stats = $6, file_errors = $7
		WHERE id = $1`,
		id, p.Stage, p.Current, p.Total, cursor, statsJSON, errorsJSON)
	if err != nil {
		return fmt.Errorf("updating job progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}

// FinishJob moves a job to a terminal status (completed or failed), recording
// the pipeline error (if any) and the accumulated per-file errors.
func (s *Store) FinishJob(ctx context.Context, id uuid.UUID, status, errMsg string, fileErrors []FileError) error {
	if status != JobStatusCompleted && status != JobStatusFailed {
		return fmt.Errorf("invalid terminal status %q", status)
	}

	if fileErrors == nil {
		fileErrors = []FileError{}
	}
	errorsJSON, err := json.Marshal(fileErrors)
	if err != nil {
		return fmt.Errorf("marshaling file errors: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE ingestion_jobs
		SET status = $2, error = $3, file_errors = $4, finished_at = now()
		WHERE id = $1`,
		id, status, errMsg, errorsJSON)
	if err != nil {
		return fmt.Errorf("finishing job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}

	s.logger.Debug("finished ingestion job", "job_id", id, "status", status)
	return nil
}

// ActiveJob returns the pending or running job for a corpus, or ErrNotFound.
func (s *Store) ActiveJob(ctx context.Context, corpusID uuid.UUID) (*IngestionJob, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM ingestion_jobs
		WHERE corpus_id = $1 AND status IN ('pending', 'running')
		ORDER BY created_at DESC
		LIMIT 1`, corpusID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no active job for corpus %s: %w", corpusID, ErrNotFound)
		}
		return nil, fmt.Errorf("finding active job: %w", err)
	}
	return s.GetJob(ctx, id)
}
