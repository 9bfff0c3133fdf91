package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateDriveSource registers a new Drive account binding.
func (s *Store) CreateDriveSource(ctx context.Context, name string) (*DriveSource, error) {
	d := &DriveSource{Name: name}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO drive_sources (name)
		VALUES ($1)
		RETURNING id, created_at`, name,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating drive source: %w", err)
	}
	return d, nil
}

// ListDriveSources returns all Drive account bindings.
func (s *Store) ListDriveSources(ctx context.Context) ([]DriveSource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at FROM drive_sources ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing drive sources: %w", err)
	}
	defer rows.Close()

	var sources []DriveSource
	for rows.Next() {
		var d DriveSource
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning drive source: %w", err)
		}
		sources = append(sources, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing drive sources: %w", err)
	}
	return sources, nil
}

// GetCredential returns the OAuth credential for a drive source, or
// ErrNotFound when the source has never been authorized.
func (s *Store) GetCredential(ctx context.Context, driveSourceID uuid.UUID) (*Credential, error) {
	var c Credential
	err := s.pool.QueryRow(ctx, `
		SELECT id, drive_source_id, access_token, refresh_token, expires_at, updated_at
		FROM oauth_credentials
		WHERE drive_source_id = $1`, driveSourceID,
	).Scan(&c.ID, &c.DriveSourceID, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("credential for source %s: %w", driveSourceID, ErrNotFound)
		}
		return nil, fmt.Errorf("getting credential: %w", err)
	}
	return &c, nil
}

// SetCredential stores or replaces the OAuth credential for a drive source.
// Called after the initial authorization exchange and whenever the identity
// provider rotates the token pair.
func (s *Store) SetCredential(ctx context.Context, driveSourceID uuid.UUID, accessToken, refreshToken string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO oauth_credentials (drive_source_id, access_token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (drive_source_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN oauth_credentials.refresh_token
		                         ELSE EXCLUDED.refresh_token END,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = now()`,
		driveSourceID, accessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}
