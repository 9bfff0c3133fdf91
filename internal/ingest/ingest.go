// Package ingest orchestrates corpus sync jobs: enumerate Drive files,
// extract and normalize text, chunk, embed, and persist documents and chunks.
//
// Job state machine: pending → running → {completed, failed}. One invocation
// of Run processes at most MaxFilesPerRun files so it fits inside a
// request-duration budget; a job whose corpus holds more files stays running
// with its cursor advanced, and the caller re-invokes Run to continue. The
// cursor is persisted on the job record, never inferred.
//
// Individual file failures do not abort the batch: they are accumulated on
// the job as per-file error records and reported in the final summary
// (skip-and-continue). Only the initial folder enumeration is fatal for the
// run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/veltra/corpusd/internal/chunk"
	"github.com/veltra/corpusd/internal/drive"
	"github.com/veltra/corpusd/internal/extract"
	"github.com/veltra/corpusd/internal/store"
)

// Progress stage names, persisted on the job record.
const (
	StageListing    = "listing"
	StageProcessing = "processing"
)

// Source is the content-source contract the pipeline consumes.
// *drive.Client satisfies it.
type Source interface {
	ListFolder(ctx context.Context, folderID, basePath string, recursive bool) ([]drive.FileDescriptor, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	Export(ctx context.Context, fileID string) (string, error)
}

// SourceFactory opens a Source for a drive source, typically by loading its
// stored credential and building an authenticated client.
type SourceFactory func(ctx context.Context, driveSourceID uuid.UUID) (Source, error)

// Embedder is the embedding contract the pipeline consumes.
// *embed.Service satisfies it.
type Embedder interface {
	Generate(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the persistence contract the pipeline consumes.
// *store.Store satisfies it.
type Store interface {
	GetCorpus(ctx context.Context, id uuid.UUID) (*store.Corpus, error)
	SetCorpusSyncStatus(ctx context.Context, id uuid.UUID, status string, stats *store.SyncStats, syncedAt *time.Time) error
	CreateJob(ctx context.Context, corpusID uuid.UUID) (*store.IngestionJob, error)
	GetJob(ctx context.Context, id uuid.UUID) (*store.IngestionJob, error)
	StartJob(ctx context.Context, id uuid.UUID) error
	UpdateJobProgress(ctx context.Context, id uuid.UUID, p store.Progress, cursor int, stats store.SyncStats, fileErrors []store.FileError) error
	FinishJob(ctx context.Context, id uuid.UUID, status, errMsg string, fileErrors []store.FileError) error
	GetDocumentByFileID(ctx context.Context, corpusID uuid.UUID, fileID string) (*store.Document, error)
	UpsertDocument(ctx context.Context, doc store.Document) (uuid.UUID, error)
	ReplaceChunks(ctx context.Context, documentID, corpusID uuid.UUID, chunks []store.Chunk) error
}

// Config tunes one pipeline instance.
type Config struct {
	Chunking       chunk.Config
	MaxFilesPerRun int
}

// Pipeline drives corpus sync jobs end to end.
type Pipeline struct {
	store    Store
	sources  SourceFactory
	embedder Embedder
	cfg      Config
	logger   *slog.Logger
}

// New creates a Pipeline. A nil logger falls back to slog.Default().
func New(st Store, sources SourceFactory, embedder Embedder, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxFilesPerRun < 1 {
		cfg.MaxFilesPerRun = 25
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking = chunk.DefaultConfig()
	}
	return &Pipeline{
		store:    st,
		sources:  sources,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start creates a new pending job for a corpus. Returns store.ErrNotFound
// when the corpus does not exist and store.ErrConflict when a pending or
// running job already exists for it.
func (p *Pipeline) Start(ctx context.Context, corpusID uuid.UUID) (*store.IngestionJob, error) {
	if _, err := p.store.GetCorpus(ctx, corpusID); err != nil {
		return nil, err
	}
	return p.store.CreateJob(ctx, corpusID)
}

// Run executes one bounded invocation of a job and returns its state
// afterwards. Callers re-invoke Run until the returned job's status is
// terminal; a non-terminal status with an advanced cursor means more files
// remain.
func (p *Pipeline) Run(ctx context.Context, jobID uuid.UUID) (*store.IngestionJob, error) {
	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == store.JobStatusCompleted || job.Status == store.JobStatusFailed {
		return nil, fmt.Errorf("job %s already %s: %w", jobID, job.Status, store.ErrConflict)
	}

	corpus, err := p.store.GetCorpus(ctx, job.CorpusID)
	if err != nil {
		return nil, err
	}

	if err := p.store.StartJob(ctx, jobID); err != nil {
		return nil, err
	}
	if err := p.store.SetCorpusSyncStatus(ctx, corpus.ID, store.SyncStatusRunning, nil, nil); err != nil {
		return nil, err
	}

	if err := p.store.UpdateJobProgress(ctx, jobID,
		store.Progress{Stage: StageListing}, job.Cursor, job.Stats, job.FileErrors); err != nil {
		return nil, err
	}

	src, err := p.sources(ctx, corpus.DriveSourceID)
	if err != nil {
		return nil, p.fail(ctx, job, corpus, job.FileErrors, err)
	}

	files, err := enumerate(ctx, src, corpus)
	if err != nil {
		// Enumeration failure is fatal for the run: nothing to resume into.
		return nil, p.fail(ctx, job, corpus, job.FileErrors, fmt.Errorf("listing corpus folder: %w", err))
	}

	return p.processBatch(ctx, src, job, corpus, files)
}

// enumerate lists the corpus folder and sorts descriptors into a stable
// order. Drive does not guarantee listing order, and the resume cursor
// indexes into this slice, so the order must be deterministic across
// invocations.
func enumerate(ctx context.Context, src Source, corpus *store.Corpus) ([]drive.FileDescriptor, error) {
	files, err := src.ListFolder(ctx, corpus.FolderID, "", corpus.Recursive)
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Path != files[j].Path {
			return files[i].Path < files[j].Path
		}
		return files[i].ID < files[j].ID
	})
	return files, nil
}

// processBatch works through up to MaxFilesPerRun files starting at the
// job's cursor, then either completes the job or leaves it running for the
// next invocation.
func (p *Pipeline) processBatch(ctx context.Context, src Source, job *store.IngestionJob, corpus *store.Corpus, files []drive.FileDescriptor) (*store.IngestionJob, error) {
	total := len(files)
	stats := job.Stats
	stats.FilesSeen = total
	fileErrors := job.FileErrors

	cursor := job.Cursor
	if cursor > total {
		cursor = total
	}
	batchEnd := min(cursor+p.cfg.MaxFilesPerRun, total)

	for i := cursor; i < batchEnd; i++ {
		f := files[i]

		switch outcome, err := p.processFile(ctx, src, corpus, f); {
		case err != nil:
			stats.FilesFailed++
			fileErrors = append(fileErrors, store.FileError{
				FileID: f.ID,
				Path:   f.Path,
				Error:  err.Error(),
			})
			p.logger.Warn("file ingestion failed",
				"corpus_id", corpus.ID, "file_id", f.ID, "path", f.Path, "error", err)
		case outcome == outcomeIngested:
			stats.FilesIngested++
		default:
			stats.FilesSkipped++
		}

		cursor = i + 1
		progress := store.Progress{Stage: StageProcessing, Current: cursor, Total: total}
		if err := p.store.UpdateJobProgress(ctx, job.ID, progress, cursor, stats, fileErrors); err != nil {
			return nil, p.fail(ctx, job, corpus, fileErrors, err)
		}
	}

	if cursor < total {
		// Budget exhausted; the job stays running and the next invocation
		// resumes from the persisted cursor.
		p.logger.Info("ingestion batch complete, more files remain",
			"job_id", job.ID, "cursor", cursor, "total", total)
		return p.store.GetJob(ctx, job.ID)
	}

	if job.StartedAt != nil {
		stats.DurationMS = time.Since(*job.StartedAt).Milliseconds()
	}
	if err := p.store.FinishJob(ctx, job.ID, store.JobStatusCompleted, "", fileErrors); err != nil {
		return nil, err
	}
	now := time.Now()
	if err := p.store.SetCorpusSyncStatus(ctx, corpus.ID, store.SyncStatusIdle, &stats, &now); err != nil {
		return nil, err
	}

	p.logger.Info("ingestion job completed",
		"job_id", job.ID, "corpus_id", corpus.ID,
		"ingested", stats.FilesIngested, "skipped", stats.FilesSkipped,
		"failed", stats.FilesFailed)

	return p.store.GetJob(ctx, job.ID)
}

type fileOutcome int

const (
	outcomeSkipped fileOutcome = iota
	outcomeIngested
)

// processFile ingests one file: fetch, extract, normalize, hash, chunk,
// embed, persist. Unsupported MIME types and unchanged content hashes are
// clean skips, not errors.
func (p *Pipeline) processFile(ctx context.Context, src Source, corpus *store.Corpus, f drive.FileDescriptor) (fileOutcome, error) {
	if !drive.IsSupported(f.MIMEType) {
		p.logger.Debug("skipping unsupported file",
			"file_id", f.ID, "path", f.Path, "mime_type", f.MIMEType)
		return outcomeSkipped, nil
	}

	text, err := p.extractText(ctx, src, f)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("extracting %q: %w", f.Path, err)
	}

	text = extract.Normalize(text)
	hash := extract.ContentHash(text)

	existing, err := p.store.GetDocumentByFileID(ctx, corpus.ID, f.ID)
	switch {
	case err == nil:
		if existing.ContentHash == hash {
			p.logger.Debug("content unchanged, skipping", "file_id", f.ID, "path", f.Path)
			return outcomeSkipped, nil
		}
	case errors.Is(err, store.ErrNotFound):
		// First sight of this file; ingest it.
	default:
		return outcomeSkipped, fmt.Errorf("looking up document for %q: %w", f.Path, err)
	}

	chunks, err := chunk.Split(text, p.cfg.Chunking)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("chunking %q: %w", f.Path, err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := p.embedder.Generate(ctx, texts)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("embedding %q: %w", f.Path, err)
	}

	docID, err := p.store.UpsertDocument(ctx, store.Document{
		CorpusID:    corpus.ID,
		FileID:      f.ID,
		Path:        f.Path,
		MIMEType:    f.MIMEType,
		ContentHash: hash,
	})
	if err != nil {
		return outcomeSkipped, err
	}

	stored := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		stored[i] = store.Chunk{
			DocumentID: docID,
			CorpusID:   corpus.ID,
			Seq:        c.Seq,
			Content:    c.Content,
			TokenCount: c.TokenCount,
			Embedding:  vectors[i],
		}
	}
	if err := p.store.ReplaceChunks(ctx, docID, corpus.ID, stored); err != nil {
		return outcomeSkipped, err
	}

	return outcomeIngested, nil
}

// extractText fetches and decodes a file's content according to its type.
func (p *Pipeline) extractText(ctx context.Context, src Source, f drive.FileDescriptor) (string, error) {
	if drive.NeedsExport(f.MIMEType) {
		return src.Export(ctx, f.ID)
	}

	data, err := src.Download(ctx, f.ID)
	if err != nil {
		return "", err
	}

	switch f.MIMEType {
	case drive.MIMETypePDF:
		return extract.FromPDF(data)
	case drive.MIMETypeDocx:
		return extract.FromDocx(data)
	default:
		return extract.FromText(data), nil
	}
}

// fail moves the job to failed, resets the corpus sync status to error, and
// returns the original error wrapped for the caller.
func (p *Pipeline) fail(ctx context.Context, job *store.IngestionJob, corpus *store.Corpus, fileErrors []store.FileError, cause error) error {
	if err := p.store.FinishJob(ctx, job.ID, store.JobStatusFailed, cause.Error(), fileErrors); err != nil {
		p.logger.Error("failed to mark job failed", "job_id", job.ID, "error", err)
	}
	if err := p.store.SetCorpusSyncStatus(ctx, corpus.ID, store.SyncStatusError, nil, nil); err != nil {
		p.logger.Error("failed to reset corpus sync status", "corpus_id", corpus.ID, "error", err)
	}
	return cause
}
