package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateCorpus inserts a new corpus bound to a Drive folder.
func (s *Store) CreateCorpus(ctx context.Context, driveSourceID uuid.UUID, name, description, folderID string, recursive bool) (*Corpus, error) {
	c := &Corpus{
		DriveSourceID: driveSourceID,
		Name:          name,
		Description:   description,
		FolderID:      folderID,
		Recursive:     recursive,
		SyncStatus:    SyncStatusIdle,
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO corpora (drive_source_id, name, description, folder_id, recursive)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		driveSourceID, name, description, folderID, recursive,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating corpus: %w", err)
	}

	s.logger.Debug("created corpus", "id", c.ID, "name", name, "folder_id", folderID)
	return c, nil
}

// GetCorpus returns a corpus by ID, or ErrNotFound.
func (s *Store) GetCorpus(ctx context.Context, id uuid.UUID) (*Corpus, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, drive_source_id, name, description, folder_id, recursive,
		       sync_status, last_synced_at, last_sync_stats, created_at
		FROM corpora
		WHERE id = $1`, id)

	c, err := scanCorpus(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("corpus %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting corpus: %w", err)
	}
	return c, nil
}

// ListCorpora returns all corpora ordered by creation time, newest first.
func (s *Store) ListCorpora(ctx context.Context) ([]Corpus, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, drive_source_id, name, description, folder_id, recursive,
		       sync_status, last_synced_at, last_sync_stats, created_at
		FROM corpora
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing corpora: %w", err)
	}
	defer rows.Close()

	var corpora []Corpus
	for rows.Next() {
		c, err := scanCorpus(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning corpus: %w", err)
		}
		corpora = append(corpora, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing corpora: %w", err)
	}
	return corpora, nil
}

// DeleteCorpus removes a corpus. Documents, chunks, jobs and audit rows
// cascade at the database level.
func (s *Store) DeleteCorpus(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM corpora WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting corpus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("corpus %s: %w", id, ErrNotFound)
	}
	s.logger.Debug("deleted corpus", "id", id)
	return nil
}

// SetCorpusSyncStatus updates the sync status of a corpus. stats and syncedAt
// are optional; both are written only on a completed run.
func (s *Store) SetCorpusSyncStatus(ctx context.Context, id uuid.UUID, status string, stats *SyncStats, syncedAt *time.Time) error {
	var statsJSON []byte
	if stats != nil {
		var err error
		statsJSON, err = json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("marshaling sync stats: %w", err)
		}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE corpora
		SET sync_status = $2,
		    last_sync_stats = COALESCE($3, last_sync_stats),
		    last_synced_at = COALESCE($4, last_synced_at)
		WHERE id = $1`,
		id, status, statsJSON, syncedAt)
	if err != nil {
		return fmt.Errorf("updating corpus sync status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("corpus %s: %w", id, ErrNotFound)
	}
	return nil
}

// scanCorpus maps one corpora row. Works for both QueryRow and Query since
// pgx.Rows satisfies pgx.Row.
func scanCorpus(row pgx.Row) (*Corpus, error) {
	var (
		c         Corpus
		statsJSON []byte
	)
	err := row.Scan(&c.ID, &c.DriveSourceID, &c.Name, &c.Description, &c.FolderID,
		&c.Recursive, &c.SyncStatus, &c.LastSyncedAt, &statsJSON, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(statsJSON) > 0 {
		var stats SyncStats
		if err := json.Unmarshal(statsJSON, &stats); err != nil {
			return nil, fmt.Errorf("parsing sync stats: %w", err)
		}
		c.LastSyncStats = &stats
	}
	return &c, nil
}
