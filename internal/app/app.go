// Package app wires the storybit components from a config file.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/Prathap331/SB-Next/internal/backend"
	"github.com/Prathap331/SB-Next/internal/client"
	"github.com/Prathap331/SB-Next/internal/clock"
	"github.com/Prathap331/SB-Next/internal/config"
	"github.com/Prathap331/SB-Next/internal/constants"
	"github.com/Prathap331/SB-Next/internal/credentials"
	"github.com/Prathap331/SB-Next/internal/database"
	"github.com/Prathap331/SB-Next/internal/ideas"
	"github.com/Prathap331/SB-Next/internal/identity"
	"github.com/Prathap331/SB-Next/internal/kv"
	"github.com/Prathap331/SB-Next/internal/logging"
	"github.com/Prathap331/SB-Next/internal/payments"
	"github.com/Prathap331/SB-Next/internal/scripts"
	"github.com/Prathap331/SB-Next/internal/storage"
)

// Options contains configuration options for creating an App
type Options struct {
	Fs         afero.Fs
	Clock      clock.Clock
	LogWriter  io.Writer
	ConfigPath string
	// DatabaseDSN overrides both the configured and the XDG database path.
	DatabaseDSN string
	// Console tees logs to stderr regardless of config.
	Console bool
}

// App holds everything a command needs.
type App struct {
	Config      *config.Config
	Clock       clock.Clock
	Store       kv.Store
	Credentials *credentials.Store
	Client      *client.Client
	Backend     *backend.Client
	Identity    *identity.Client
	Checkout    *payments.Checkout
	Ideas       *ideas.Cache
	Scripts     *scripts.Cache
	Stash       *scripts.Stash
	Generator   *scripts.Generator
	db          *database.Manager
}

// New loads the config, attaches the logger to the returned context and opens
// the local database. Callers must Close the App.
func New(ctx context.Context, opts Options) (context.Context, *App, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	cfg, err := config.Load(opts.Fs, opts.ConfigPath)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to load config %s: %w", opts.ConfigPath, err)
	}

	ctx, err = logging.New(ctx, opts.Fs, logging.Config{
		Writer:  opts.LogWriter,
		Path:    cfg.Logging.Path,
		Service: constants.AppName,
		Level:   logging.ParseLevel(cfg.Logging.Level),
		Console: opts.Console || cfg.Logging.Console,
	})
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	dsn, err := databaseDSN(opts, cfg)
	if err != nil {
		return ctx, nil, err
	}
	db, err := database.NewManager(ctx, dsn)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := kv.NewSQLStore(db.DB(), cfg.Cache.MaxEntries)
	creds := credentials.NewStore(db.DB(), cfg.ProjectRef())
	apiClient := client.New(cfg.Client.ServerURL, creds, cfg.Client.RequestTimeout, backend.WithClock(opts.Clock))
	backendClient := backend.NewClient(cfg.Backend.URL, backend.WithClock(opts.Clock))

	stash := scripts.NewStash(opts.Clock, scripts.DefaultStashTTL)
	scriptCache := scripts.NewCache(store, opts.Clock, cfg.Cache.TTL)

	a := &App{
		Config:      cfg,
		Clock:       opts.Clock,
		Store:       store,
		Credentials: creds,
		Client:      apiClient,
		Backend:     backendClient,
		Identity:    identity.New(cfg.Identity.URL, cfg.Identity.AnonKey),
		Checkout:    payments.NewCheckout(backendClient, creds, backend.DefaultReadyOptions()),
		Ideas:       ideas.NewCache(store, opts.Clock, cfg.Cache.TTL),
		Scripts:     scriptCache,
		Stash:       stash,
		Generator:   scripts.NewGenerator(apiClient, stash, scriptCache),
		db:          db,
	}

	logging.Get(ctx).Debug().
		Str("config", opts.ConfigPath).
		Str("database", dsn).
		Str("server_url", cfg.Client.ServerURL).
		Msg("app initialized")

	return ctx, a, nil
}

func databaseDSN(opts Options, cfg *config.Config) (string, error) {
	switch {
	case opts.DatabaseDSN != "":
		return opts.DatabaseDSN, nil
	case cfg.Cache.DatabasePath != "":
		return cfg.Cache.DatabasePath, nil
	}
	path, err := storage.New(opts.Fs).GetDatabasePath()
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	return path, nil
}

// Resolver returns an ideas resolver using the configured retry policy.
// observer may be nil.
func (a *App) Resolver(observer func(ideas.Progress)) *ideas.Resolver {
	return ideas.NewResolver(a.Client, a.Ideas, ideas.Options{
		Clock:    a.Clock,
		Observer: observer,
		Budget:   a.Config.Client.RetryBudget,
		Interval: a.Config.Client.RetryInterval,
	})
}

// Close releases the database.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return errors.New("app not initialized")
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
