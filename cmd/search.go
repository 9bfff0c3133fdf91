package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veltra/corpusd/internal/retrieval"
)

var (
	searchTopK      int
	searchThreshold float64
)

var searchCmd = &cobra.Command{
	Use:   "search <corpus-id> <query>",
	Short: "Search a corpus",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd.Context(), args[0], args[1])
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "maximum number of results (default from config)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", -1, "minimum cosine similarity (default from config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(ctx context.Context, corpusArg, query string) error {
	corpusID, err := uuid.Parse(corpusArg)
	if err != nil {
		return fmt.Errorf("invalid corpus id %q: %w", corpusArg, err)
	}

	a, logger, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	var opts []retrieval.SearchOption
	if searchTopK > 0 {
		opts = append(opts, retrieval.WithTopK(searchTopK))
	}
	if searchThreshold >= 0 {
		opts = append(opts, retrieval.WithThreshold(searchThreshold))
	}

	results, err := a.Retrieval.Search(ctx, corpusID, query, opts...)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. %s #%d (similarity %.3f)\n", i+1, r.Path, r.Seq, r.Similarity)
		fmt.Printf("   %s\n", truncate(r.Content, 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
