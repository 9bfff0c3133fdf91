// Package chunk splits normalized text into overlapping token-bounded
// segments for embedding.
//
// Tokens are whitespace-delimited words. The text is tokenized once, then a
// window of Size tokens slides forward by Size-Overlap tokens per iteration;
// each window is re-joined with single spaces into a chunk. The final window
// is the first one that reaches the end of the token stream, so no trailing
// partial-step chunk is emitted beyond it.
package chunk

import (
	"errors"
	"fmt"
	"strings"
)

// Default window configuration, in tokens.
const (
	DefaultSize    = 800
	DefaultOverlap = 200
)

// ErrInvalidConfig indicates a size/overlap combination that cannot advance
// the window.
var ErrInvalidConfig = errors.New("invalid chunking configuration")

// Config controls the sliding window.
type Config struct {
	Size    int // tokens per chunk
	Overlap int // tokens shared between consecutive chunks
}

// DefaultConfig returns the standard 800/200 window.
func DefaultConfig() Config {
	return Config{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Chunk is one emitted window with its zero-based sequence index and exact
// token count.
type Chunk struct {
	Seq        int
	Content    string
	TokenCount int
}

// Split chunks text under cfg. Texts of at most cfg.Size tokens yield exactly
// one chunk; empty text yields none. Returns ErrInvalidConfig when the window
// step (Size - Overlap) would be non-positive, which would otherwise loop
// forever.
func Split(text string, cfg Config) ([]Chunk, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", ErrInvalidConfig, cfg.Size)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidConfig, cfg.Overlap, cfg.Size)
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	step := cfg.Size - cfg.Overlap
	chunks := make([]Chunk, 0, (len(tokens)+step-1)/step)

	for start := 0; ; start += step {
		end := start + cfg.Size
		if end > len(tokens) {
			end = len(tokens)
		}

		window := tokens[start:end]
		chunks = append(chunks, Chunk{
			Seq:        len(chunks),
			Content:    strings.Join(window, " "),
			TokenCount: len(window),
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}

// CountTokens returns the number of whitespace-delimited tokens in text,
// using the same tokenization as Split.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}
