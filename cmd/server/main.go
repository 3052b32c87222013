/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the amortization and depreciation engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (viper: env AMORT_*, optional -config file)
  2. Configure zerolog
  3. Initialize SQLite store
  4. Create ledger service and API handler
  5. Start depreciation snapshot scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Optional config file (yaml/json/toml/env); env vars win

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the snapshot scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  AMORT_DB_PATH=./data/amortization.db ./server

  # Run with in-memory database and human-readable logs
  AMORT_DB_PATH=":memory:" AMORT_LOG_FORMAT=console ./server

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/amortization-engine/api"
	"github.com/warp/amortization-engine/config"
	"github.com/warp/amortization-engine/service"
	"github.com/warp/amortization-engine/store/sqlite"
)

func main() {
	configFile := flag.String("config", "", "Optional config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("failed to initialize database")
	}
	defer store.Close()

	ledger := service.NewLedger(store, logger)
	handler := api.NewHandler(ledger, logger)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	scheduler := api.NewSnapshotScheduler(ledger, logger)
	scheduler.CheckInterval = cfg.SnapshotInterval
	scheduler.Enabled = cfg.SnapshotEnabled
	scheduler.Start()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", cfg.Addr()).Str("db_path", cfg.DBPath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	logger.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(cfg.LogLevel).With().Timestamp().Logger()
}
