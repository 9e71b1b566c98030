package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Prathap331/SB-Next/internal/app"
	"github.com/Prathap331/SB-Next/internal/logging"
	"github.com/Prathap331/SB-Next/internal/proxy"
)

// createServeCommand creates the serve command.
func createServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storybit API server",
		Long:  "Serve the /api routes, forwarding to the AI backend, until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openApp(cmd.Context(), cmd, true)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				a.Config.Server.Listen = listen
			}
			return serve(ctx, a)
		},
	}

	cmd.Flags().String("listen", "", "Override the configured listen address")
	return cmd
}

// serve runs the server and a signal watcher until either stops.
func serve(ctx context.Context, a *app.App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watchSignals(gctx, cancel)
	})
	g.Go(func() error {
		return proxy.New(gctx, a.Config, a.Backend).Run(gctx)
	})
	return g.Wait() //nolint:wrapcheck // listen errors are already wrapped
}

func watchSignals(ctx context.Context, cancel context.CancelFunc) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		logging.Get(ctx).Info().Str("signal", sig.String()).Msg("received signal")
		cancel()
	case <-ctx.Done():
	}
	return nil
}
