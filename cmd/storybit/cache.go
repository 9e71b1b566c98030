package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// createCacheCommand creates the cache command and its subcommands.
func createCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage locally cached ideas and scripts",
	}
	cmd.AddCommand(createCacheClearCommand(), createCachePruneCommand())
	return cmd
}

func createCacheClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached ideas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openApp(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			removed, err := a.Ideas.Clear(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear ideas: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached topics.\n", removed)

			if withScripts, _ := cmd.Flags().GetBool("scripts"); withScripts {
				removed, err := a.Scripts.Clear(ctx)
				if err != nil {
					return fmt.Errorf("failed to clear scripts: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached scripts.\n", removed)
			}
			return nil
		},
	}
	cmd.Flags().Bool("scripts", false, "Also remove cached scripts")
	return cmd
}

func createCachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and malformed cached ideas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openApp(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			removed, err := a.Ideas.Prune(ctx)
			if err != nil {
				return fmt.Errorf("failed to prune ideas: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d cached topics.\n", removed)
			return nil
		},
	}
}
