package chunk

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// words builds a text of n distinct tokens.
func words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "w%d", i)
	}
	return b.String()
}

func TestSplitEmptyText(t *testing.T) {
	chunks, err := Split("", DefaultConfig())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}

	chunks, err = Split("   \n\t  ", DefaultConfig())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for whitespace-only text, got %d", len(chunks))
	}
}

func TestSplitSingleChunk(t *testing.T) {
	// Texts of at most Size tokens produce exactly one chunk.
	for _, n := range []int{1, 100, 799, 800} {
		chunks, err := Split(words(n), DefaultConfig())
		if err != nil {
			t.Fatalf("Split(%d words) error = %v", n, err)
		}
		if len(chunks) != 1 {
			t.Fatalf("Split(%d words) = %d chunks, want 1", n, len(chunks))
		}
		if chunks[0].TokenCount != n {
			t.Errorf("TokenCount = %d, want %d", chunks[0].TokenCount, n)
		}
		if chunks[0].Seq != 0 {
			t.Errorf("Seq = %d, want 0", chunks[0].Seq)
		}
	}
}

func TestSplitChunkCount(t *testing.T) {
	// With size S and overlap O, N tokens yield ceil(max(0, N-S)/(S-O)) + 1
	// chunks.
	tests := []struct {
		tokens int
		want   int
	}{
		{800, 1},
		{801, 2},
		{900, 2},
		{1400, 2},
		{1401, 3},
		{2000, 3},
		{2001, 4},
	}
	for _, tt := range tests {
		chunks, err := Split(words(tt.tokens), DefaultConfig())
		if err != nil {
			t.Fatalf("Split(%d words) error = %v", tt.tokens, err)
		}
		if len(chunks) != tt.want {
			t.Errorf("Split(%d words) = %d chunks, want %d", tt.tokens, len(chunks), tt.want)
		}
	}
}

func TestSplitCoverageAndOverlap(t *testing.T) {
	cfg := Config{Size: 10, Overlap: 3}
	n := 25
	chunks, err := Split(words(n), cfg)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	// Sequence numbers are contiguous from zero.
	for i, c := range chunks {
		if c.Seq != i {
			t.Errorf("chunk %d: Seq = %d", i, c.Seq)
		}
	}

	// Every token appears in at least one chunk.
	seen := make(map[string]bool)
	for _, c := range chunks {
		for _, tok := range strings.Fields(c.Content) {
			seen[tok] = true
		}
	}
	for i := 0; i < n; i++ {
		if !seen[fmt.Sprintf("w%d", i)] {
			t.Errorf("token w%d not covered by any chunk", i)
		}
	}

	// Consecutive chunks share exactly Overlap tokens.
	first := strings.Fields(chunks[0].Content)
	second := strings.Fields(chunks[1].Content)
	tail := first[len(first)-cfg.Overlap:]
	head := second[:cfg.Overlap]
	for i := range tail {
		if tail[i] != head[i] {
			t.Errorf("overlap mismatch at %d: %q != %q", i, tail[i], head[i])
		}
	}
}

func TestSplitFinalChunkShort(t *testing.T) {
	// 15 tokens with a 10/0 window: chunks of 10 and 5.
	chunks, err := Split(words(15), Config{Size: 10, Overlap: 0})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].TokenCount != 10 || chunks[1].TokenCount != 5 {
		t.Errorf("token counts = %d, %d; want 10, 5",
			chunks[0].TokenCount, chunks[1].TokenCount)
	}
}

func TestSplitInvalidConfig(t *testing.T) {
	tests := []Config{
		{Size: 0, Overlap: 0},
		{Size: -1, Overlap: 0},
		{Size: 100, Overlap: 100}, // step would be zero
		{Size: 100, Overlap: 150}, // step would be negative
		{Size: 100, Overlap: -1},
	}
	for _, cfg := range tests {
		if _, err := Split("some text", cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Split(size=%d overlap=%d) error = %v, want ErrInvalidConfig",
				cfg.Size, cfg.Overlap, err)
		}
	}
}

func TestSplitRejoinsWithSingleSpaces(t *testing.T) {
	chunks, err := Split("a\tb\n\nc   d", Config{Size: 10, Overlap: 0})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "a b c d" {
		t.Errorf("Content = %q, want %q", chunks[0].Content, "a b c d")
	}
}

func TestCountTokens(t *testing.T) {
	if got := CountTokens("one two  three\nfour"); got != 4 {
		t.Errorf("CountTokens = %d, want 4", got)
	}
	if got := CountTokens(""); got != 0 {
		t.Errorf("CountTokens(empty) = %d, want 0", got)
	}
}
