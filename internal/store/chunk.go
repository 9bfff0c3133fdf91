package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ReplaceChunks atomically replaces all chunks of a document with a new set.
// Prior chunks are deleted and the new ones inserted in one transaction, so a
// reader never observes a document with a mixed chunk generation.
func (s *Store) ReplaceChunks(ctx context.Context, documentID, corpusID uuid.UUID, chunks []Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting prior chunks: %w", err)
	}

	for _, c := range chunks {
		embedding := pgvector.NewVector(c.Embedding)
		_, err := tx.Exec(ctx, `
			INSERT INTO chunks (document_id, corpus_id, seq, content, token_count, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			documentID, corpusID, c.Seq, c.Content, c.TokenCount, embedding)
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Seq, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}

	s.logger.Debug("replaced chunks", "document_id", documentID, "count", len(chunks))
	return nil
}

// SearchChunks performs a cosine similarity search over a corpus's chunks.
// Results are ordered by descending similarity, capped at topK, and filtered
// to similarities of at least threshold. Source file metadata is joined in so
// callers need no second lookup.
func (s *Store) SearchChunks(ctx context.Context, corpusID uuid.UUID, embedding []float32, topK int, threshold float64) ([]SearchResult, error) {
	query := pgvector.NewVector(embedding)

	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.document_id, d.file_id, d.path, c.seq, c.content, c.token_count,
		       1 - (c.embedding <=> $2) AS similarity
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.corpus_id = $1
		  AND 1 - (c.embedding <=> $2) >= $3
		ORDER BY c.embedding <=> $2
		LIMIT $4`,
		corpusID, query, threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.FileID, &r.Path,
			&r.Seq, &r.Content, &r.TokenCount, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	return results, nil
}

// CountChunks returns the number of chunks in a corpus.
func (s *Store) CountChunks(ctx context.Context, corpusID uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM chunks WHERE corpus_id = $1`, corpusID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}
