// Package engine wires configuration, the profile store, the style
// registry, and the data grid into one session shared by the CLI commands
// and the HTTP service.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gridstack-labs/gridstyle/internal/config"
	"github.com/gridstack-labs/gridstyle/internal/grid"
	"github.com/gridstack-labs/gridstyle/internal/store"
	"github.com/gridstack-labs/gridstyle/pkg/compiler"
	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/runtime"
	"github.com/gridstack-labs/gridstyle/pkg/transform"
)

// Engine is one live session: a profile store, a style registry with a
// single grid instance, and the data feed behind it.
type Engine struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      core.Store
	registry   *runtime.Registry
	transforms *transform.Engine
	grid       *grid.Grid

	mu         sync.Mutex
	profile    string
	feedLoaded bool
}

// New opens the configured store and builds the registry and grid. The
// feed is loaded lazily; commands that render data call EnsureFeed. A nil
// logger means discard.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine",
		"instance", cfg.InstanceID,
		"store_backend", cfg.Store.Backend)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}

	registry := runtime.NewRegistry(runtime.NewMemorySink(), logger)
	transforms := transform.New(logger)
	g := grid.New(grid.Config{
		InstanceID: cfg.InstanceID,
		Registry:   registry,
		Transforms: transforms,
		Logger:     logger,
	})

	return &Engine{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		registry:   registry,
		transforms: transforms,
		grid:       g,
	}, nil
}

// openStore builds the configured store backend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.Store, error) {
	switch cfg.Store.Backend {
	case "file", "":
		return store.NewFileStore(cfg.Store.Path, logger)
	case "sqlite":
		s := store.NewSQLiteStore(logger)
		if err := s.Open(cfg.Store.Path); err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		s := store.NewPostgresStore(logger)
		if err := s.Connect(ctx, cfg.Store.DSN); err != nil {
			return nil, err
		}
		if err := s.InitSchema(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// ActivateProfile loads a profile and swaps it into the registry. An empty
// key means the configured profile. Missing or damaged profiles activate
// as empty rule sets; compile problems ride back on the compilation.
func (e *Engine) ActivateProfile(ctx context.Context, key string) (*compiler.Compilation, []core.Rule, error) {
	if key == "" {
		key = e.cfg.Profile
	}

	ruleList, err := e.store.Load(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile %q: %w", key, err)
	}

	comp := e.registry.Update(e.grid.InstanceID(), ruleList)

	e.mu.Lock()
	e.profile = key
	e.mu.Unlock()

	e.logger.Debug("profile activated",
		"profile", key,
		"rules", len(ruleList),
		"compile_errors", len(comp.Errors))
	return comp, ruleList, nil
}

// ActiveProfile returns the last activated profile key, or the configured
// default before any activation.
func (e *Engine) ActiveProfile() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.profile == "" {
		return e.cfg.Profile
	}
	return e.profile
}

// EnsureFeed loads the configured feed once. Commands that only manage
// rules never pay for it.
func (e *Engine) EnsureFeed() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.feedLoaded {
		return nil
	}
	if e.cfg.FeedPath == "" {
		return fmt.Errorf("no data feed configured (set feed in gridstyle.yaml or pass --feed)")
	}
	if err := e.grid.Load(e.cfg.FeedPath); err != nil {
		return err
	}
	e.feedLoaded = true
	return nil
}

// LoadFeed loads a specific feed file, replacing the grid's data.
func (e *Engine) LoadFeed(path string) error {
	if err := e.grid.Load(path); err != nil {
		return err
	}
	e.mu.Lock()
	e.feedLoaded = true
	e.mu.Unlock()
	return nil
}

// Close releases the store.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")
	if err := e.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}

// Config returns the session configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Store returns the profile store.
func (e *Engine) Store() core.Store {
	return e.store
}

// Registry returns the style registry.
func (e *Engine) Registry() *runtime.Registry {
	return e.registry
}

// Grid returns the data grid.
func (e *Engine) Grid() *grid.Grid {
	return e.grid
}

// Transforms returns the shared value-transform engine.
func (e *Engine) Transforms() *transform.Engine {
	return e.transforms
}

// Logger returns the session logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}
