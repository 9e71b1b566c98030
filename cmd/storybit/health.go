package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Prathap331/SB-Next/internal/backend"
)

// createHealthCommand creates the health command.
func createHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Wait for the AI backend to come up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := interruptible(cmd)
			defer stop()

			ctx, a, err := openApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			opts := backend.DefaultReadyOptions()
			if attempts, _ := cmd.Flags().GetInt("attempts"); attempts > 0 {
				opts.Attempts = attempts
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Checking %s...\n", a.Backend.BaseURL())
			if err := a.Backend.WaitReady(ctx, opts); err != nil {
				return err //nolint:wrapcheck // readiness errors are user-facing as-is
			}
			_, _ = color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "Backend is ready.")
			return nil
		},
	}
	cmd.Flags().Int("attempts", 0, "Number of probes before giving up (default from readiness policy)")
	return cmd
}
