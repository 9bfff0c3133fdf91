package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetDocumentByFileID returns the document for a source file within a corpus,
// or ErrNotFound. Used by the ingestion pipeline for change detection.
func (s *Store) GetDocumentByFileID(ctx context.Context, corpusID uuid.UUID, fileID string) (*Document, error) {
	var d Document
	err := s.pool.QueryRow(ctx, `
		SELECT id, corpus_id, file_id, path, mime_type, content_hash, updated_at
		FROM documents
		WHERE corpus_id = $1 AND file_id = $2`,
		corpusID, fileID,
	).Scan(&d.ID, &d.CorpusID, &d.FileID, &d.Path, &d.MIMEType, &d.ContentHash, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %s/%s: %w", corpusID, fileID, ErrNotFound)
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return &d, nil
}

// UpsertDocument inserts or updates the document row for a source file and
// returns its ID. The (corpus_id, file_id) pair is the natural key.
func (s *Store) UpsertDocument(ctx context.Context, doc Document) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO documents (corpus_id, file_id, path, mime_type, content_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (corpus_id, file_id) DO UPDATE
		SET path = EXCLUDED.path,
		    mime_type = EXCLUDED.mime_type,
		    content_hash = EXCLUDED.content_hash,
		    updated_at = now()
		RETURNING id`,
		doc.CorpusID, doc.FileID, doc.Path, doc.MIMEType, doc.ContentHash,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upserting document %q: %w", doc.FileID, err)
	}
	return id, nil
}

// CountDocuments returns the number of documents in a corpus.
func (s *Store) CountDocuments(ctx context.Context, corpusID uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM documents WHERE corpus_id = $1`, corpusID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}
