package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness or single-active-job violation.
	ErrConflict = errors.New("conflict")
)

// Corpus sync status values.
const (
	SyncStatusIdle    = "idle"
	SyncStatusRunning = "running"
	SyncStatusError   = "error"
)

// Ingestion job status values.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// DriveSource binds the application to one external Drive account.
// It owns zero or more corpora and exactly one OAuth credential.
type DriveSource struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Credential is the stored OAuth token pair for a drive source.
// Tokens are rotated by the identity provider; UpdatedAt tracks the last
// rotation persisted here.
type Credential struct {
	ID            uuid.UUID `json:"id"`
	DriveSourceID uuid.UUID `json:"drive_source_id"`
	AccessToken   string    `json:"-"`
	RefreshToken  string    `json:"-"`
	ExpiresAt     time.Time `json:"expires_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SyncStats summarizes one completed sync run, persisted on the corpus.
type SyncStats struct {
	FilesSeen     int   `json:"files_seen"`
	FilesIngested int   `json:"files_ingested"`
	FilesSkipped  int   `json:"files_skipped"`
	FilesFailed   int   `json:"files_failed"`
	DurationMS    int64 `json:"duration_ms"`
}

// Corpus is a named collection of documents tied to one Drive folder.
type Corpus struct {
	ID            uuid.UUID  `json:"id"`
	DriveSourceID uuid.UUID  `json:"drive_source_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	FolderID      string     `json:"folder_id"`
	Recursive     bool       `json:"recursive"`
	SyncStatus    string     `json:"sync_status"`
	LastSyncedAt  *time.Time `json:"last_synced_at,omitempty"`
	LastSyncStats *SyncStats `json:"last_sync_stats,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Document is one ingested Drive file. ContentHash is the SHA-256 of the
// normalized extracted text and drives skip-if-unchanged on re-sync.
type Document struct {
	ID          uuid.UUID `json:"id"`
	CorpusID    uuid.UUID `json:"corpus_id"`
	FileID      string    `json:"file_id"`
	Path        string    `json:"path"`
	MIMEType    string    `json:"mime_type"`
	ContentHash string    `json:"content_hash"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chunk is one token-bounded segment of a document with its embedding.
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	CorpusID   uuid.UUID `json:"corpus_id"`
	Seq        int       `json:"seq"`
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"`
	Embedding  []float32 `json:"-"`
}

// Progress describes how far a job has advanced through its file list.
type Progress struct {
	Stage   string `json:"stage"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// FileError records one per-file ingestion failure in skip-and-continue mode.
type FileError struct {
	FileID string `json:"file_id"`
	Path   string `json:"path"`
	Error  string `json:"error"`
}

// IngestionJob is one sync run for a corpus.
//
// Cursor is the index into the enumerated file list where the next invocation
// resumes; it is persisted explicitly rather than inferred from batch-size
// constants so resumption is externally observable.
type IngestionJob struct {
	ID         uuid.UUID   `json:"id"`
	CorpusID   uuid.UUID   `json:"corpus_id"`
	Status     string      `json:"status"`
	Progress   Progress    `json:"progress"`
	Cursor     int         `json:"cursor"`
	Stats      SyncStats   `json:"stats"`
	Error      string      `json:"error,omitempty"`
	FileErrors []FileError `json:"file_errors,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// SearchResult is one ranked row from a similarity search, joined with its
// source document metadata.
type SearchResult struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	FileID     string    `json:"file_id"`
	Path       string    `json:"path"`
	Seq        int       `json:"seq"`
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"`
	Similarity float64   `json:"similarity"`
}

// AuditRecord is one append-only retrieval audit row.
type AuditRecord struct {
	CorpusID    uuid.UUID      `json:"corpus_id"`
	Query       string         `json:"query"`
	TopK        int            `json:"top_k"`
	Threshold   float64        `json:"threshold"`
	ResultCount int            `json:"result_count"`
	Results     []SearchResult `json:"results"`
	Latency     time.Duration  `json:"-"`
}
