package store_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/veltra/corpusd/internal/store"
	"github.com/veltra/corpusd/internal/testutil"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	tdb, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)
	return store.New(tdb.Pool, nil)
}

func createCorpus(t *testing.T, st *store.Store) *store.Corpus {
	t.Helper()
	ctx := context.Background()

	src, err := st.CreateDriveSource(ctx, "test-account")
	if err != nil {
		t.Fatalf("CreateDriveSource() error = %v", err)
	}
	corpus, err := st.CreateCorpus(ctx, src.ID, "docs", "", "folder-1", true)
	if err != nil {
		t.Fatalf("CreateCorpus() error = %v", err)
	}
	return corpus
}

// vec768 builds a 768-dimension embedding with the given components set and
// all other dimensions zero.
func vec768(components map[int]float32) []float32 {
	v := make([]float32, 768)
	for dim, val := range components {
		v[dim] = val
	}
	return v
}

func TestCreateJobSingleActivePerCorpus(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	corpus := createCorpus(t, st)

	job, err := st.CreateJob(ctx, corpus.ID)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	// The conditional insert refuses a second job while one is pending.
	if _, err := st.CreateJob(ctx, corpus.ID); !errors.Is(err, store.ErrConflict) {
		t.Errorf("second CreateJob() error = %v, want ErrConflict", err)
	}

	// Still refused once the job is running.
	if err := st.StartJob(ctx, job.ID); err != nil {
		t.Fatalf("StartJob() error = %v", err)
	}
	if _, err := st.CreateJob(ctx, corpus.ID); !errors.Is(err, store.ErrConflict) {
		t.Errorf("CreateJob() with running job error = %v, want ErrConflict", err)
	}

	// A terminal job releases the slot.
	if err := st.FinishJob(ctx, job.ID, store.JobStatusCompleted, "", nil); err != nil {
		t.Fatalf("FinishJob() error = %v", err)
	}
	if _, err := st.CreateJob(ctx, corpus.ID); err != nil {
		t.Errorf("CreateJob() after completion error = %v", err)
	}

	// Another corpus is unaffected by this one's active job.
	other := createCorpus(t, st)
	if _, err := st.CreateJob(ctx, other.ID); err != nil {
		t.Errorf("CreateJob() on other corpus error = %v", err)
	}
}

func TestJobProgressRoundTrip(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	corpus := createCorpus(t, st)

	job, err := st.CreateJob(ctx, corpus.ID)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	progress := store.Progress{Stage: "processing", Current: 7, Total: 12}
	stats := store.SyncStats{FilesSeen: 12, FilesIngested: 5, FilesSkipped: 1, FilesFailed: 1}
	fileErrors := []store.FileError{{FileID: "f9", Path: "/bad.pdf", Error: "extract failed"}}
	if err := st.UpdateJobProgress(ctx, job.ID, progress, 7, stats, fileErrors); err != nil {
		t.Fatalf("UpdateJobProgress() error = %v", err)
	}

	got, err := st.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Progress != progress {
		t.Errorf("progress = %+v, want %+v", got.Progress, progress)
	}
	if got.Cursor != 7 {
		t.Errorf("cursor = %d, want 7", got.Cursor)
	}
	if got.Stats != stats {
		t.Errorf("stats = %+v, want %+v", got.Stats, stats)
	}
	if len(got.FileErrors) != 1 || got.FileErrors[0].FileID != "f9" {
		t.Errorf("file errors = %+v", got.FileErrors)
	}
}

func TestReplaceChunksReplacesGeneration(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	corpus := createCorpus(t, st)

	docID, err := st.UpsertDocument(ctx, store.Document{
		CorpusID:    corpus.ID,
		FileID:      "file-1",
		Path:        "/a.txt",
		MIMEType:    "text/plain",
		ContentHash: "hash-v1",
	})
	if err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}

	first := []store.Chunk{
		{DocumentID: docID, CorpusID: corpus.ID, Seq: 0, Content: "old one", TokenCount: 2, Embedding: vec768(map[int]float32{0: 1})},
		{DocumentID: docID, CorpusID: corpus.ID, Seq: 1, Content: "old two", TokenCount: 2, Embedding: vec768(map[int]float32{1: 1})},
		{DocumentID: docID, CorpusID: corpus.ID, Seq: 2, Content: "old three", TokenCount: 2, Embedding: vec768(map[int]float32{2: 1})},
	}
	if err := st.ReplaceChunks(ctx, docID, corpus.ID, first); err != nil {
		t.Fatalf("ReplaceChunks() error = %v", err)
	}

	count, err := st.CountChunks(ctx, corpus.ID)
	if err != nil {
		t.Fatalf("CountChunks() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("chunk count = %d, want 3", count)
	}

	second := []store.Chunk{
		{DocumentID: docID, CorpusID: corpus.ID, Seq: 0, Content: "new one", TokenCount: 2, Embedding: vec768(map[int]float32{0: 1})},
		{DocumentID: docID, CorpusID: corpus.ID, Seq: 1, Content: "new two", TokenCount: 2, Embedding: vec768(map[int]float32{1: 1})},
	}
	if err := st.ReplaceChunks(ctx, docID, corpus.ID, second); err != nil {
		t.Fatalf("second ReplaceChunks() error = %v", err)
	}

	count, err = st.CountChunks(ctx, corpus.ID)
	if err != nil {
		t.Fatalf("CountChunks() error = %v", err)
	}
	if count != 2 {
		t.Errorf("chunk count after replace = %d, want 2", count)
	}

	// No chunk of the prior generation survives.
	results, err := st.SearchChunks(ctx, corpus.ID, vec768(map[int]float32{0: 1}), 10, 0)
	if err != nil {
		t.Fatalf("SearchChunks() error = %v", err)
	}
	for _, r := range results {
		if r.Content == "old one" || r.Content == "old two" || r.Content == "old three" {
			t.Errorf("stale chunk survived replace: %q", r.Content)
		}
	}
}

func TestSearchChunksOrderingThresholdAndTopK(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	corpus := createCorpus(t, st)

	docID, err := st.UpsertDocument(ctx, store.Document{
		CorpusID:    corpus.ID,
		FileID:      "file-1",
		Path:        "/a.txt",
		MIMEType:    "text/plain",
		ContentHash: "hash",
	})
	if err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}

	// Cosine similarity against the query e0: exact match 1.0, diagonal
	// ~0.707, orthogonal 0.0.
	inv := float32(1 / math.Sqrt2)
	chunks := []store.Chunk{
		{DocumentID: docID, CorpusID: corpus.ID, Seq: 0, Content: "exact", TokenCount: 1, Embedding: vec768(map[int]float32{0: 1})},
		{DocumentID: docID, CorpusID: corpus.ID, Seq: 1, Content: "diagonal", TokenCount: 1, Embedding: vec768(map[int]float32{0: inv, 1: inv})},
		{DocumentID: docID, CorpusID: corpus.ID, Seq: 2, Content: "orthogonal", TokenCount: 1, Embedding: vec768(map[int]float32{1: 1})},
	}
	if err := st.ReplaceChunks(ctx, docID, corpus.ID, chunks); err != nil {
		t.Fatalf("ReplaceChunks() error = %v", err)
	}

	query := vec768(map[int]float32{0: 1})

	results, err := st.SearchChunks(ctx, corpus.ID, query, 10, 0.5)
	if err != nil {
		t.Fatalf("SearchChunks() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (orthogonal chunk below threshold): %+v", len(results), results)
	}
	if results[0].Content != "exact" || results[1].Content != "diagonal" {
		t.Errorf("order = [%s, %s], want [exact, diagonal]", results[0].Content, results[1].Content)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Errorf("similarities not descending: %f < %f", results[0].Similarity, results[1].Similarity)
	}
	if math.Abs(results[0].Similarity-1.0) > 0.001 {
		t.Errorf("exact-match similarity = %f, want ~1.0", results[0].Similarity)
	}
	if math.Abs(results[1].Similarity-1/math.Sqrt2) > 0.001 {
		t.Errorf("diagonal similarity = %f, want ~0.707", results[1].Similarity)
	}
	if results[0].Path != "/a.txt" || results[0].FileID != "file-1" {
		t.Errorf("document metadata not joined: %+v", results[0])
	}

	// topK caps the result set at the best matches.
	results, err = st.SearchChunks(ctx, corpus.ID, query, 1, 0)
	if err != nil {
		t.Fatalf("SearchChunks() with topK=1 error = %v", err)
	}
	if len(results) != 1 || results[0].Content != "exact" {
		t.Errorf("topK=1 results = %+v, want only the exact match", results)
	}

	// Chunks of another corpus never leak into the results.
	other := createCorpus(t, st)
	results, err = st.SearchChunks(ctx, other.ID, query, 10, 0)
	if err != nil {
		t.Fatalf("SearchChunks() on empty corpus error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty corpus returned %d results", len(results))
	}
}

func TestGetDocumentByFileID(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	corpus := createCorpus(t, st)

	if _, err := st.GetDocumentByFileID(ctx, corpus.ID, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetDocumentByFileID() error = %v, want ErrNotFound", err)
	}

	docID, err := st.UpsertDocument(ctx, store.Document{
		CorpusID:    corpus.ID,
		FileID:      "file-1",
		Path:        "/a.txt",
		MIMEType:    "text/plain",
		ContentHash: "hash-v1",
	})
	if err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}

	// Upserting the same file again keeps the row and updates the hash.
	sameID, err := st.UpsertDocument(ctx, store.Document{
		CorpusID:    corpus.ID,
		FileID:      "file-1",
		Path:        "/a.txt",
		MIMEType:    "text/plain",
		ContentHash: "hash-v2",
	})
	if err != nil {
		t.Fatalf("second UpsertDocument() error = %v", err)
	}
	if sameID != docID {
		t.Errorf("upsert created a new row: %s != %s", sameID, docID)
	}

	got, err := st.GetDocumentByFileID(ctx, corpus.ID, "file-1")
	if err != nil {
		t.Fatalf("GetDocumentByFileID() error = %v", err)
	}
	if got.ContentHash != "hash-v2" {
		t.Errorf("content hash = %s, want hash-v2", got.ContentHash)
	}
}
