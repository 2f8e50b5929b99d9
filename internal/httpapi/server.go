// Package httpapi is the rule-set exchange service: a JSON API over the
// engine for editors and sibling desks to read, replace, and validate
// profiles, preview formatting against sample rows, and fetch the active
// stylesheet. It widens no engine contract — every handler is a thin
// adapter over the store, the rules codec, and the compiler.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/gridstack-labs/gridstyle/internal/engine"
)

// Server is the exchange service.
type Server struct {
	eng    *engine.Engine
	addr   string
	logger *slog.Logger
}

// Config holds configuration for the exchange service.
type Config struct {
	Engine *engine.Engine
	Addr   string
	Logger *slog.Logger
}

// NewServer creates a server. The address falls back to the engine's
// configured http_addr.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	addr := cfg.Addr
	if addr == "" {
		addr = cfg.Engine.Config().HTTPAddr
	}
	return &Server{eng: cfg.Engine, addr: addr, logger: logger}
}

// Handler builds the full route tree. Exposed so tests can drive the API
// without a listening socket.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	s.routes(r)
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting exchange service", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down exchange service...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
