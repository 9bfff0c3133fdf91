// Package cmd implements the corpusd command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "corpusd",
	Short: "corpusd - Google Drive corpus ingestion and semantic search",
	Long: `corpusd ingests documents from Google Drive folders into a
pgvector-backed corpus and answers semantic queries over it.

Typical flow:

  corpusd sources add "team-drive"       register a Drive account
  corpusd auth <source-id>               authorize read-only Drive access
  corpusd corpora create ...             bind a corpus to a Drive folder
  corpusd sync <corpus-id>               ingest the folder
  corpusd search <corpus-id> "query"     search the corpus
  corpusd serve                          run the HTTP API`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
