package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Prathap331/SB-Next/internal/app"
	"github.com/Prathap331/SB-Next/internal/logging"
	"github.com/Prathap331/SB-Next/internal/storage"
)

// createNewRootCommand creates the main root command that shows help by default.
func createNewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "storybit",
		Short:         "StoryBit script ideas and generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", storage.New(afero.NewOsFs()).GetConfigPath(),
		"Path to config file")

	rootCmd.AddCommand(
		createServeCommand(),
		createIdeasCommand(),
		createScriptCommand(),
		createAuthCommand(),
		createCacheCommand(),
		createHealthCommand(),
		createPricingCommand(),
	)

	return rootCmd
}

// openApp reads the config flag and wires the app. The returned context
// carries the logger.
func openApp(ctx context.Context, cmd *cobra.Command, console bool) (context.Context, *app.App, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	ctx, a, err := app.New(ctx, app.Options{ConfigPath: configPath, Console: console})
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to start storybit: %w", err)
	}
	return ctx, a, nil
}

func closeApp(ctx context.Context, a *app.App) {
	if err := a.Close(); err != nil {
		logging.Get(ctx).Warn().Err(err).Msg("failed to close app")
	}
}

// interruptible returns the command context cancelled on SIGINT or SIGTERM.
func interruptible(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
