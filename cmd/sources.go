package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage Drive account bindings",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered Drive sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSourcesList(cmd.Context())
	},
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a Drive source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSourcesAdd(cmd.Context(), args[0])
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd, sourcesAddCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(ctx context.Context) error {
	a, logger, err := setupStore(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	sources, err := a.Store.ListDriveSources(ctx)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("No drive sources.")
		return nil
	}
	for _, s := range sources {
		fmt.Printf("%s  %s\n", s.ID, s.Name)
	}
	return nil
}

func runSourcesAdd(ctx context.Context, name string) error {
	a, logger, err := setupStore(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	source, err := a.Store.CreateDriveSource(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("Created drive source %s\n", source.ID)
	fmt.Printf("Run `corpusd auth %s` to authorize Drive access.\n", source.ID)
	return nil
}
