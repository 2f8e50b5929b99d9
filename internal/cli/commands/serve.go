package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/httpapi"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr string // Listen address override
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the rule exchange HTTP service",
		Long: `Serve the rule-set exchange API: read, replace, and validate profiles,
preview formatting against sample rows, and fetch the active stylesheet.

Endpoints:
  GET    /healthz
  GET    /api/v1/profiles
  GET    /api/v1/profiles/{key}
  PUT    /api/v1/profiles/{key}
  DELETE /api/v1/profiles/{key}
  POST   /api/v1/rules/validate
  POST   /api/v1/preview
  GET    /api/v1/css`,
		Example: `  # Serve on the configured address
  gridstyle serve

  # Serve on a specific port
  gridstyle serve --addr :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer
	eng := cmdCtx.Engine

	// Activate the profile so the stylesheet endpoint serves it
	comp, ruleList, err := eng.ActivateProfile(cmd.Context(), "")
	if err != nil {
		return err
	}
	if len(comp.Errors) > 0 {
		r.Warning(fmt.Sprintf("%d of %d rules failed to compile", len(comp.Errors), len(ruleList)))
	}

	addr := opts.Addr
	if addr == "" {
		addr = cmdCtx.Cfg.HTTPAddr
	}

	server := httpapi.NewServer(httpapi.Config{
		Engine: eng,
		Addr:   addr,
		Logger: cmdCtx.Logger,
	})

	r.Printf("Serving rule exchange API on %s (profile %q, %d rules)\n", addr, eng.ActiveProfile(), len(ruleList))
	r.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}
