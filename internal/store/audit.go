package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// InsertAudit appends one retrieval audit record. The retrieval service
// treats failures here as non-fatal; this method only reports them.
func (s *Store) InsertAudit(ctx context.Context, rec AuditRecord) error {
	if rec.Results == nil {
		rec.Results = []SearchResult{}
	}
	resultsJSON, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("marshaling audit results: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO retrieval_audit (corpus_id, query, top_k, threshold, result_count, results, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.CorpusID, rec.Query, rec.TopK, rec.Threshold, rec.ResultCount,
		resultsJSON, rec.Latency.Milliseconds())
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}
