// Package extract converts raw file bytes into normalized text and computes
// content hashes for change detection.
//
// Normalization is deterministic and idempotent: applying Normalize twice
// yields the same output as applying it once. That property is what makes
// the content hash stable across repeated syncs of unchanged files.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// excessNewlines matches runs of three or more newlines, collapsed to two
// during normalization.
var excessNewlines = regexp.MustCompile(`\n{3,}`)

// FromText decodes plain-text bytes. Invalid UTF-8 sequences are replaced
// with the Unicode replacement character rather than rejected; a stray byte
// in a text file should not fail the whole document.
func FromText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

// Normalize unifies line endings to LF, collapses runs of three or more
// newlines to two, and trims surrounding whitespace.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ContentHash returns the hex-encoded SHA-256 digest of text. Identical
// extracted text always produces the same hash, which is what lets re-syncs
// skip unchanged documents.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
