package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/bankerscore/internal/config"
	"github.com/mcoot/bankerscore/internal/dependencies/clock"
	"github.com/mcoot/bankerscore/internal/dependencies/random"
	"github.com/mcoot/bankerscore/internal/remote"
	"github.com/mcoot/bankerscore/internal/remote/httpstore"
	"github.com/mcoot/bankerscore/internal/services/cloudsync"
	"github.com/mcoot/bankerscore/internal/services/identity"
	"github.com/mcoot/bankerscore/internal/services/lease"
	"github.com/mcoot/bankerscore/internal/services/registry"
	"github.com/mcoot/bankerscore/internal/services/settlement"
	"github.com/mcoot/bankerscore/internal/storage"
	"github.com/mcoot/bankerscore/internal/storage/file"
	"github.com/mcoot/bankerscore/internal/storage/memory"
	redisstorage "github.com/mcoot/bankerscore/internal/storage/redis"
)

// ErrSyncDisabled is returned by sync operations when no remote is configured
var ErrSyncDisabled = errors.New("cloud sync is not configured (set client.remote_url)")

// App contains all wired client components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Settlement *settlement.Service
	Lease      *lease.Service
	Registry   *registry.Controller

	// Sync; nil when no remote is configured
	Identity *identity.Service
	Sync     *cloudsync.Engine

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Client holds the local storage, user and remote settings
	Client config.ClientConfig
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// Remote bundles the collaborators the sync engine talks to
type Remote struct {
	Store    remote.Store
	Provider identity.Provider
}

// New creates a new application with all dependencies wired. Call Start
// before use and Close when done.
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var closers []io.Closer
	var store storage.Storage

	switch cfg.Client.Storage {
	case "", config.StorageFile:
		fileStore, err := file.New(cfg.Client.DataDir)
		if err != nil {
			return nil, err
		}
		store = fileStore
	case config.StorageMemory:
		store = memory.New()
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Client.RedisURL
		if cfg.Client.Namespace != "" {
			redisCfg.Namespace = cfg.Client.Namespace
		}
		redisStore, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, fmt.Errorf("invalid storage %q: must be file, memory or redis", cfg.Client.Storage)
	}

	var rem *Remote
	if cfg.Client.RemoteURL != "" {
		client := httpstore.NewClient(cfg.Client.RemoteURL, cfg.Client.RemoteTimeout)
		rem = &Remote{Store: client, Provider: client}
	}

	syncCfg := cloudsync.DefaultConfig()
	syncCfg.Interval = cfg.Client.SyncInterval

	app := newWithDependencies(store, rem, clock.New(), random.New(), syncCfg, logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	rem *Remote,
	clk clock.Clock,
	rnd random.Random,
	syncCfg cloudsync.Config,
	logger *slog.Logger,
) *App {
	settlementService := settlement.New(clk, logger)
	leaseService := lease.New(clk, lease.DefaultConfig(), logger)
	registryController := registry.NewController(store, leaseService, clk, rnd, logger)

	app := &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Settlement: settlementService,
		Lease:      leaseService,
		Registry:   registryController,
	}

	if rem != nil {
		app.Identity = identity.New(rem.Provider, store, clk, logger)
		app.Sync = cloudsync.New(registryController, app.Identity, rem.Store, store, clk, rnd, syncCfg, logger)
	}

	return app
}

// Start loads persisted state and, when sync is configured, restores the
// signed-in session and resumes auto-sync.
func (a *App) Start(ctx context.Context) error {
	if err := a.Registry.Load(ctx); err != nil {
		return err
	}
	if a.Sync != nil {
		if err := a.Sync.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SyncEngine returns the sync engine or ErrSyncDisabled
func (a *App) SyncEngine() (*cloudsync.Engine, error) {
	if a.Sync == nil {
		return nil, ErrSyncDisabled
	}
	return a.Sync, nil
}

// Close stops background work, persists the registry and releases resources
func (a *App) Close(ctx context.Context) error {
	if a.Sync != nil {
		a.Sync.Stop()
	}
	errs := []error{a.Registry.Teardown(ctx)}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
