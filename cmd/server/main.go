// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package main is the entry point for the Viewlens server.
//
// Viewlens loads a static dataset of streaming viewing events and serves
// engagement, completion, cohort, and show analytics over a JSON API, with
// WebSocket notifications when the dataset is reloaded.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 with environment variables and config files
//  2. Logging: zerolog with JSON or console output
//  3. Database: in-memory DuckDB holding the viewing_events table
//  4. Dataset loader: local file or remote snapshot, loaded at startup
//  5. Response cache: in-memory BadgerDB with TTL entries
//  6. WebSocket hub: reload and stats notifications
//  7. HTTP server: Chi router with the REST API and Prometheus metrics
//  8. Supervisor tree: Suture v4 process supervision
//
// Long-running components are managed by a two-layer supervision tree:
//
//	RootSupervisor ("viewlens")
//	├── MessagingSupervisor ("messaging-layer")
//	│   ├── WebSocket Hub (reload notifications)
//	│   └── Cache GC (BadgerDB value log cleanup)
//	└── APISupervisor ("api-layer")
//	    └── HTTP Server (REST API + metrics)
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins):
//   - Environment variables (see .env.example)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// A dataset source is required. Local file:
//
//	export DATASET_PATH=/data/viewing_events.jsonl
//	./viewlens
//
// or a remote snapshot, fetched once per (re)load behind a circuit breaker:
//
//	export DATASET_URL=https://example.com/viewing_events.json
//	./viewlens
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Stops the WebSocket hub and the cache GC loop
//   - Closes the response cache and the database
//
// # Port 8439
//
// The default port 8439 spells VIEW on a phone keypad.
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

	"github.com/viewlens/viewlens/internal/api"
	"github.com/viewlens/viewlens/internal/cache"
	"github.com/viewlens/viewlens/internal/config"
	"github.com/viewlens/viewlens/internal/database"
	"github.com/viewlens/viewlens/internal/ingest"
	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/supervisor"
	"github.com/viewlens/viewlens/internal/supervisor/services"
	ws "github.com/viewlens/viewlens/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Viewlens with supervisor tree")

	dbMode := cfg.Database.Path
	if dbMode == "" {
		dbMode = ":memory:"
	}
	logging.Info().
		Str("database", dbMode).
		Int("port", cfg.Server.Port).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	// Initialize DuckDB; the viewing_events table is created here
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

	// Create context for graceful shutdown. Signal handling is installed
	// before the initial load so a SIGINT during a slow remote fetch still
	// aborts cleanly.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Resolve the dataset source (DATASET_PATH or DATASET_URL) and load it.
	// A failed initial load is not fatal: the server comes up degraded,
	// health/ready reports 503, and an admin reload can recover it once the
	// source is fixed.
	source, err := ingest.NewSource(&cfg.Dataset)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to resolve dataset source")
	}
	loader := ingest.NewLoader(db, source, &cfg.Dataset, &cfg.Analytics)

	logging.Info().Str("source", source.Describe()).Msg("Loading dataset")
	if stats, err := loader.Load(ctx); err != nil {
		logging.Error().Err(err).Msg("Initial dataset load failed - serving degraded until a reload succeeds")
	} else {
		logging.Info().
			Int64("loaded", stats.RecordsLoaded).
			Int64("skipped", stats.RecordsSkipped).
			Dur("duration", stats.Duration()).
			Msg("Dataset loaded")
	}

	// In-memory response cache for analytics endpoints. When disabled the
	// handler runs without one and every request hits DuckDB directly.
	var respCache *cache.Cache
	if cfg.Cache.Enabled {
		respCache, err = cache.New(&cfg.Cache)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize response cache")
		}
		defer func() {
			if err := respCache.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing response cache")
			}
		}()
	} else {
		logging.Info().Msg("Response cache disabled (CACHE_ENABLED=false)")
	}

	// WebSocket hub for reload/stats notifications (started by the supervisor)
	wsHub := ws.NewHub()

	handler := api.NewHandler(db, loader, cfg, wsHub, respCache)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create structured logger for supervisor using our slog adapter.
	// This bridges zerolog to slog for sutureslog compatibility.
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Messaging layer services
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	if respCache != nil {
		tree.AddMessagingService(services.NewCacheGCService(respCache, cfg.Cache.GCInterval))
	}
	logging.Info().Msg("Messaging services added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Viewlens stopped gracefully")
}
