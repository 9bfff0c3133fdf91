package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	corporaDescription string
	corporaFlat        bool
)

var corporaCmd = &cobra.Command{
	Use:   "corpora",
	Short: "Manage corpora",
}

var corporaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all corpora",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCorporaList(cmd.Context())
	},
}

var corporaCreateCmd = &cobra.Command{
	Use:   "create <drive-source-id> <name> <folder-id>",
	Short: "Create a corpus bound to a Drive folder",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCorporaCreate(cmd.Context(), args[0], args[1], args[2])
	},
}

var corporaDeleteCmd = &cobra.Command{
	Use:   "delete <corpus-id>",
	Short: "Delete a corpus and all its documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCorporaDelete(cmd.Context(), args[0])
	},
}

func init() {
	corporaCreateCmd.Flags().StringVar(&corporaDescription, "description", "", "corpus description")
	corporaCreateCmd.Flags().BoolVar(&corporaFlat, "flat", false, "do not descend into subfolders")
	corporaCmd.AddCommand(corporaListCmd, corporaCreateCmd, corporaDeleteCmd)
	rootCmd.AddCommand(corporaCmd)
}

func runCorporaList(ctx context.Context) error {
	a, logger, err := setupStore(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	corpora, err := a.Store.ListCorpora(ctx)
	if err != nil {
		return err
	}
	if len(corpora) == 0 {
		fmt.Println("No corpora.")
		return nil
	}
	for _, c := range corpora {
		fmt.Printf("%s  %-20s  folder=%s  status=%s\n", c.ID, c.Name, c.FolderID, c.SyncStatus)
		if c.LastSyncedAt != nil && c.LastSyncStats != nil {
			fmt.Printf("    last sync %s: %d ingested, %d skipped, %d failed\n",
				c.LastSyncedAt.Format("2006-01-02 15:04"),
				c.LastSyncStats.FilesIngested, c.LastSyncStats.FilesSkipped,
				c.LastSyncStats.FilesFailed)
		}
	}
	return nil
}

func runCorporaCreate(ctx context.Context, sourceArg, name, folderID string) error {
	driveSourceID, err := uuid.Parse(sourceArg)
	if err != nil {
		return fmt.Errorf("invalid drive source id %q: %w", sourceArg, err)
	}

	a, logger, err := setupStore(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	corpus, err := a.Store.CreateCorpus(ctx, driveSourceID, name, corporaDescription, folderID, !corporaFlat)
	if err != nil {
		return err
	}
	fmt.Printf("Created corpus %s\n", corpus.ID)
	return nil
}

func runCorporaDelete(ctx context.Context, corpusArg string) error {
	corpusID, err := uuid.Parse(corpusArg)
	if err != nil {
		return fmt.Errorf("invalid corpus id %q: %w", corpusArg, err)
	}

	a, logger, err := setupStore(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	if err := a.Store.DeleteCorpus(ctx, corpusID); err != nil {
		return err
	}
	fmt.Printf("Deleted corpus %s\n", corpusID)
	return nil
}
