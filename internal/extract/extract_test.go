package extract

import (
	"strings"
	"testing"
)

func TestNormalizeLineEndings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb", "a\nb"},
		{"bare cr", "a\rb", "a\nb"},
		{"mixed", "a\r\nb\rc\nd", "a\nb\nc\nd"},
		{"collapse blank runs", "a\n\n\n\nb", "a\n\nb"},
		{"keep double newline", "a\n\nb", "a\n\nb"},
		{"trim", "  \n a b \n\n", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"a\r\nb\r\n\r\n\r\nc",
		"  leading and trailing  ",
		"already\nnormal\n\ntext",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash("hello world")
	h2 := ContentHash("hello world")
	if h1 != h2 {
		t.Errorf("hash not stable: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
	if ContentHash("hello world") == ContentHash("hello world!") {
		t.Error("different inputs produced the same hash")
	}
}

func TestContentHashAfterNormalize(t *testing.T) {
	// Line-ending variants of the same document hash identically once
	// normalized. This is what lets re-syncs skip unchanged files even when
	// the export pipeline flips line endings.
	a := Normalize("line one\r\nline two\r\n")
	b := Normalize("line one\nline two")
	if ContentHash(a) != ContentHash(b) {
		t.Error("normalized variants hash differently")
	}
}

func TestFromText(t *testing.T) {
	if got := FromText([]byte("plain text")); got != "plain text" {
		t.Errorf("FromText = %q", got)
	}

	// Invalid UTF-8 is replaced, not rejected.
	got := FromText([]byte{'a', 0xff, 'b'})
	if !strings.Contains(got, "a") || !strings.Contains(got, "b") {
		t.Errorf("FromText dropped valid bytes: %q", got)
	}
	if strings.Contains(got, "\xff") {
		t.Errorf("FromText kept invalid byte: %q", got)
	}
}
