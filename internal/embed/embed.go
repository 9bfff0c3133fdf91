// Package embed generates embedding vectors for text via a Genkit
// ai.Embedder, batching inputs to respect upstream request-size limits.
package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
)

// VectorDimension is the dimensionality of stored embeddings. It must match
// the vector(N) column width in the chunks table.
const VectorDimension = 768

// DefaultBatchSize is the maximum number of texts sent per embedding call.
const DefaultBatchSize = 100

// Service batches text-to-vector calls against an ai.Embedder.
//
// A Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	embedder  ai.Embedder
	batchSize int
	logger    *slog.Logger
}

// New creates an embedding Service. batchSize values below 1 fall back to
// DefaultBatchSize; a nil logger falls back to slog.Default().
func New(embedder ai.Embedder, batchSize int, logger *slog.Logger) *Service {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder:  embedder,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Generate embeds all texts, one vector per input in the same order.
//
// Inputs are grouped into batches of at most batchSize per upstream call and
// the batch results concatenated in order. Empty input returns an empty
// result without any network call. A failure in any batch aborts the whole
// request; there is no partial-success return, so callers retry the entire
// step.
func (s *Service) Generate(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch := texts[start:end]

		docs := make([]*ai.Document, len(batch))
		for i, text := range batch {
			docs[i] = ai.DocumentFromText(text, nil)
		}

		resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
		if err != nil {
			return nil, fmt.Errorf("embedding batch [%d:%d]: %w", start, end, err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embedding batch [%d:%d]: got %d vectors for %d inputs",
				start, end, len(resp.Embeddings), len(batch))
		}

		for i, e := range resp.Embeddings {
			if len(e.Embedding) == 0 {
				return nil, fmt.Errorf("empty embedding for input %d", start+i)
			}
			vectors = append(vectors, e.Embedding)
		}

		s.logger.Debug("embedded batch", "start", start, "size", len(batch))
	}

	return vectors, nil
}

// GenerateOne is the single-text convenience form of Generate.
func (s *Service) GenerateOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.Generate(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
