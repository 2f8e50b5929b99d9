// Package commands implements the gridstyle subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/cli/output"
	"github.com/gridstack-labs/gridstyle/internal/config"
	"github.com/gridstack-labs/gridstyle/internal/engine"
)

// CommandContext holds common dependencies for commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a command context with common setup.
// Returns the context and a cleanup function that should be deferred.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := engine.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	renderer := output.NewRendererWithColor(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output), cfg.Color)

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: renderer,
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a command context without an
// engine, for commands that only need config and rendering.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	renderer := output.NewRendererWithColor(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output), cfg.Color)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: renderer,
	}
}

// getConfig returns the loaded config, or builds one from environment
// variables when no config has been loaded (e.g. in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	cfg := &config.Config{
		Profile:      getEnvOrDefault("GRIDSTYLE_PROFILE", ""),
		InstanceID:   getEnvOrDefault("GRIDSTYLE_INSTANCE_ID", ""),
		FeedPath:     getEnvOrDefault("GRIDSTYLE_FEED", ""),
		TemplatesDir: getEnvOrDefault("GRIDSTYLE_TEMPLATES_DIR", ""),
		HTTPAddr:     getEnvOrDefault("GRIDSTYLE_HTTP_ADDR", ""),
		Output:       getEnvOrDefault("GRIDSTYLE_OUTPUT", ""),
		Color:        getEnvOrDefault("GRIDSTYLE_COLOR", ""),
		Verbose:      os.Getenv("GRIDSTYLE_VERBOSE") == "true",
		Store: config.StoreConfig{
			Backend: getEnvOrDefault("GRIDSTYLE_STORE_BACKEND", ""),
			Path:    getEnvOrDefault("GRIDSTYLE_STORE_PATH", ""),
			DSN:     getEnvOrDefault("GRIDSTYLE_STORE_DSN", ""),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
