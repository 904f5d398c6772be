// Package server assembles the dashboard API process from configuration and
// runs it until its context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/kamilpajak/reliability/internal/api"
	"github.com/kamilpajak/reliability/internal/backend"
	"github.com/kamilpajak/reliability/internal/config"
	"github.com/kamilpajak/reliability/internal/database"
	"github.com/kamilpajak/reliability/internal/metrics"
	"github.com/kamilpajak/reliability/internal/runner"
	"github.com/kamilpajak/reliability/internal/snapshot"
	"github.com/kamilpajak/reliability/internal/suites"
	"github.com/kamilpajak/reliability/internal/threshold"
)

const shutdownTimeout = 30 * time.Second

// Server is a running API process.
type Server struct {
	listener net.Listener
	server   *http.Server
	logger   *slog.Logger
	closers  []func()
}

// Start wires every component from cfg and begins serving on addr. An empty
// addr listens on cfg.Port on all interfaces.
func Start(ctx context.Context, cfg *config.Config, addr string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Port)
	}
	srv := &Server{logger: logger}

	handler, err := srv.build(ctx, cfg)
	if err != nil {
		srv.close()
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		srv.close()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv.listener = listener
	srv.server = &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", listener.Addr().String())
		if err := srv.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	return srv, nil
}

func (s *Server) build(ctx context.Context, cfg *config.Config) (http.Handler, error) {
	catalog := suites.Default()
	if cfg.SuitesFile != "" {
		c, err := suites.Load(cfg.SuitesFile)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	thresholds, closeKV := threshold.Open(threshold.BadgerConfig{
		Path:     cfg.ThresholdPath,
		InMemory: cfg.ThresholdPath == "",
		Logger:   s.logger,
	}, s.logger)
	s.closers = append(s.closers, func() { _ = closeKV() })

	m := metrics.New()
	client := backend.NewClient(backend.Config{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.BackendTimeout,
		RPS:     cfg.BackendRPS,
		Burst:   cfg.BackendBurst,
	})
	snapshots := snapshot.NewStore(snapshot.WithDiscardHook(m.StaleDiscard))

	apiCfg := api.Config{
		Backend:      client,
		Thresholds:   thresholds,
		Catalog:      catalog,
		Metrics:      m,
		Logger:       s.logger,
		CORSOrigin:   cfg.CORSOrigin,
		RunRateLimit: cfg.RunRateLimit,
		RunBurst:     cfg.RunBurst,
	}
	runOpts := runner.Options{
		Catalog:   catalog,
		Snapshots: snapshots,
		Metrics:   m,
		Logger:    s.logger,
	}

	if cfg.DatabaseURL != "" {
		s.logger.Info("running database migrations")
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		runOpts.Runs = db
		apiCfg.Runs = db
		apiCfg.Evaluations = db
		apiCfg.Database = db
	} else {
		s.logger.Warn("no database configured, run history is read from the backend and evaluations are disabled")
	}

	apiCfg.Runner = runner.New(client, runOpts)
	return api.NewServer(apiCfg), nil
}

// URL returns the base URL the server is reachable on.
func (s *Server) URL() string {
	return "http://" + s.listener.Addr().String()
}

// Stop shuts down the HTTP server and releases every opened resource.
func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	srv, err := Start(ctx, cfg, "", logger)
	if err != nil {
		return err
	}

	<-ctx.Done()
	srv.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	srv.logger.Info("server stopped")
	return nil
}
