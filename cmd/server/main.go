// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

// Package main is the entry point for the Reelpick server.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading via Koanf v2 (defaults, file, env)
//  2. Catalog: movie snapshot (DuckDB) plus the similarity matrix
//  3. Poster cache: file, badger, or in-memory backing
//  4. TMDB client: circuit-breaker wrapped metadata and image fetches
//  5. HTTP server: REST API under /api/v1 plus Prometheus /metrics
//
// All long-running services run under a suture supervisor tree and shut
// down gracefully on SIGINT or SIGTERM.
//
// Configuration sources (highest priority wins):
//   - Environment variables (TMDB_API_KEY, HTTP_PORT, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Example usage:
//
//	export TMDB_API_KEY=your-api-key
//	export CATALOG_MOVIES_PATH=/data/movies.duckdb
//	export CATALOG_SIMILARITY_PATH=/data/similarity.rpsm
//	./reelpick
//
// Without TMDB_API_KEY the server still serves recommendations, just
// without poster images.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/reelpick/reelpick/internal/api"
	"github.com/reelpick/reelpick/internal/assetstore"
	"github.com/reelpick/reelpick/internal/catalog"
	"github.com/reelpick/reelpick/internal/config"
	"github.com/reelpick/reelpick/internal/logging"
	"github.com/reelpick/reelpick/internal/poster"
	"github.com/reelpick/reelpick/internal/recommend"
	"github.com/reelpick/reelpick/internal/supervisor"
	"github.com/reelpick/reelpick/internal/tmdb"
)

func main() {
	// Load configuration first to get logging settings.
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
		Str("catalog", cfg.Catalog.MoviesPath).
		Str("cache_backend", cfg.PosterCache.Backend).
		Bool("tmdb_credentials", cfg.TMDB.APIKey != "").
		Msg("Starting Reelpick")

	// catalog.Open logs its own summary line on success.
	index, err := catalog.Open(cfg.Catalog)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load catalog snapshots")
	}

	store, err := assetstore.Open(cfg.PosterCache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open poster cache")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing poster cache")
		}
	}()

	// The breaker stops hammering the metadata provider while it is
	// down; transient fetch failures then degrade to posterless results.
	provider := tmdb.NewBreakerClient(tmdb.NewClient(cfg.TMDB))
	fetcher := poster.NewFetcher(store, provider,
		poster.WithRetries(cfg.TMDB.Retries),
		poster.WithRetryDelay(cfg.TMDB.RetryDelay),
	)

	recommender := recommend.New(index, fetcher)
	handler := api.NewHandler(index, recommender, store, cfg.Recommend)
	router := api.NewRouter(handler, cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)

	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	if bs, ok := store.(*assetstore.BadgerStore); ok {
		tree.AddMaintenanceService(supervisor.NewGCService(bs, cfg.PosterCache.GCInterval))
		logging.Info().Dur("interval", cfg.PosterCache.GCInterval).Msg("Poster cache GC service added")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain remaining shutdown errors until the supervisor finishes.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Dur("timeout", treeCfg.ShutdownTimeout).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
