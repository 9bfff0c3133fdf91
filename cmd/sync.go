package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veltra/corpusd/internal/store"
)

var syncResume bool

var syncCmd = &cobra.Command{
	Use:   "sync <corpus-id>",
	Short: "Ingest a corpus's Drive folder",
	Long: `Sync creates an ingestion job for the corpus and runs it to completion,
printing a summary when done. Files are processed in bounded batches; the
job's cursor is persisted after every file, so an interrupted sync resumes
where it left off.

With --resume, sync continues the corpus's existing active job instead of
creating a new one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), args[0])
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncResume, "resume", false, "continue the existing active job")
	rootCmd.AddCommand(syncCmd)
}

func runSync(parent context.Context, corpusArg string) error {
	corpusID, err := uuid.Parse(corpusArg)
	if err != nil {
		return fmt.Errorf("invalid corpus id %q: %w", corpusArg, err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, logger, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	var job *store.IngestionJob
	if syncResume {
		job, err = a.Store.ActiveJob(ctx, corpusID)
		if err != nil {
			return fmt.Errorf("no active job to resume: %w", err)
		}
	} else {
		job, err = a.Ingest.Start(ctx, corpusID)
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("%w (use --resume to continue it)", err)
		}
		if err != nil {
			return err
		}
	}

	fmt.Printf("Job %s\n", job.ID)

	for job.Status == store.JobStatusPending || job.Status == store.JobStatusRunning {
		job, err = a.Ingest.Run(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		if job.Status == store.JobStatusRunning {
			fmt.Printf("  %d/%d files processed\n", job.Progress.Current, job.Progress.Total)
		}
	}

	if job.Status == store.JobStatusFailed {
		return fmt.Errorf("sync failed: %s", job.Error)
	}

	fmt.Printf("Completed: %d seen, %d ingested, %d skipped, %d failed (%dms)\n",
		job.Stats.FilesSeen, job.Stats.FilesIngested, job.Stats.FilesSkipped,
		job.Stats.FilesFailed, job.Stats.DurationMS)
	for _, fe := range job.FileErrors {
		fmt.Printf("  failed: %s: %s\n", fe.Path, fe.Error)
	}
	return nil
}
