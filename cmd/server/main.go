// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

// Package main is the entry point for the Audiolog server.
//
// Audiolog is a self-hosted listening analytics platform for scrobble
// histories. It ingests CSV exports from scrobbling services, stores
// them in an embedded DuckDB database, and serves rankings, charts,
// and listening summaries over a JSON API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB and the scrobble schema
//  3. Statistics service: Query engine with a TTL result cache
//  4. Importer: CSV scrobble history ingestion
//  5. HTTP Server: REST API plus a Prometheus /metrics endpoint
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (AUDIOLOG_ prefix)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Checkpoints and closes the database
//
// # Example Usage
//
// Development with console logs:
//
//	export AUDIOLOG_LOGGING_FORMAT=console
//	export AUDIOLOG_LOGGING_LEVEL=debug
//	./audiolog
//
// Production with a persistent database:
//
//	export AUDIOLOG_DATABASE_PATH=/var/lib/audiolog/audiolog.db
//	export AUDIOLOG_STATS_TIMEZONE=Europe/Berlin
//	./audiolog
//
// Docker:
//
//	docker run -d \
//	  -v audiolog-data:/data \
//	  -e AUDIOLOG_DATABASE_PATH=/data/audiolog.db \
//	  -p 3866:3866 \
//	  ghcr.io/tomtom215/audiolog
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/audiolog/internal/api"
	"github.com/tomtom215/audiolog/internal/cache"
	"github.com/tomtom215/audiolog/internal/config"
	"github.com/tomtom215/audiolog/internal/database"
	"github.com/tomtom215/audiolog/internal/importer"
	"github.com/tomtom215/audiolog/internal/logging"
	"github.com/tomtom215/audiolog/internal/stats"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("timezone", cfg.Stats.Timezone).
		Dur("cache_ttl", cfg.Stats.CacheTTL).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	resultCache := cache.New(cfg.Stats.CacheTTL)
	defer resultCache.Close()

	statsService := stats.New(db, resultCache, &cfg.Stats)
	// Bulk imports rewrite the catalog; every cached result is stale
	// the moment one lands.
	db.OnBulkMutation(statsService.Invalidate)

	imp := importer.New(&cfg.Import, db)

	handler := api.NewHandler(statsService, imp, db, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErr:
		logging.Error().Err(err).Msg("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := db.Checkpoint(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("Database checkpoint failed during shutdown")
	}

	logging.Info().Msg("Shutdown complete")
}
