package config

import (
	"fmt"
	"os"
)

// validSSLModes are the PostgreSQL SSL modes accepted by pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the configuration for correctness (fail-fast).
// Returns a wrapped sentinel error for each kind of failure so callers can
// use errors.Is.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: port %d out of range [1, 65535]", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}
	if c.EmbedBatchSize < 1 || c.EmbedBatchSize > 250 {
		return fmt.Errorf("%w: %d out of range [1, 250]", ErrInvalidBatchSize, c.EmbedBatchSize)
	}

	// A non-positive window step would make the chunking loop spin forever;
	// reject it here rather than guarding at every call site.
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}
	if c.MaxFilesPerRun < 1 {
		return fmt.Errorf("%w: max files per run %d must be positive", ErrInvalidChunking, c.MaxFilesPerRun)
	}

	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("%w: %d out of range [1, 100]", ErrInvalidTopK, c.TopK)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: %v out of range [0, 1]", ErrInvalidSimilarityThreshold, c.SimilarityThreshold)
	}

	return nil
}

// ValidateEmbedding checks the requirements for commands that call the
// embedding model (sync, search, serve). GEMINI_API_KEY is read directly by
// Genkit; its presence is checked here so failures surface before any work
// starts.
func (c *Config) ValidateEmbedding() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrMissingAPIKey)
	}
	return nil
}

// ValidateDrive checks the requirements for commands that talk to Google
// Drive. The OAuth client identifies this application to Google; per-source
// credentials live in the database.
func (c *Config) ValidateDrive() error {
	if c.DriveClientID == "" || c.DriveClientSecret == "" {
		return fmt.Errorf("%w: DRIVE_CLIENT_ID and DRIVE_CLIENT_SECRET must be set", ErrMissingDriveClient)
	}
	return nil
}
