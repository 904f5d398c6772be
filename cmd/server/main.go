// Package main provides the reliability dashboard API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kamilpajak/reliability/internal/config"
	"github.com/kamilpajak/reliability/internal/database"
	"github.com/kamilpajak/reliability/internal/server"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to a YAML config file")
		migrateOnly = flag.Bool("migrate", false, "Run migrations and exit")
		migrateDown = flag.Bool("migrate-down", false, "Roll back all migrations and exit")
	)
	flag.Parse()

	v, err := config.New(*configFile)
	if err != nil {
		fatal(err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		fatal(err)
	}

	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	if *migrateOnly || *migrateDown {
		if cfg.DatabaseURL == "" {
			fatal(errors.New("DATABASE_URL is required for --migrate and --migrate-down"))
		}
		if *migrateDown {
			logger.Warn("rolling back all database migrations")
			if err := database.MigrateDown(cfg.DatabaseURL); err != nil {
				fatal(err)
			}
			logger.Info("rollback complete")
			return
		}
		logger.Info("running database migrations")
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			fatal(err)
		}
		logger.Info("migrations complete")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
