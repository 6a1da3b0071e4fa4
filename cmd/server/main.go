// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

// Package main is the entry point for the Linkdeck server.
//
// Linkdeck serves a personal bookmarks dashboard backed by a Notion
// workspace. Bookmark and category records live in two Notion databases;
// the server exposes them over a small REST API with an in-memory TTL
// cache, and runs an image mirroring pipeline that copies external
// bookmark images into S3-compatible object storage and writes the
// resulting canonical URLs back to Notion through a rate-limited
// background queue.
//
// # Application Architecture
//
// Components initialize in the following order:
//
//  1. Configuration: layered from defaults, YAML file and environment (Koanf v2)
//  2. Notion client: database queries and page updates behind a circuit breaker
//  3. Object storage: S3 store for mirrored images (when mirroring is enabled)
//  4. Write-back queue: coalescing, rate-limited Notion updates
//  5. HTTP server: REST API, metrics, and static frontend in production
//
// The write-back queue and the HTTP server run under a suture
// supervision tree with separate layers, so a failure in one never
// interrupts the other.
//
// # Configuration
//
// The well-known variables from the Notion and AWS ecosystems are
// recognized directly:
//
//	export NOTION_API_KEY=secret_...
//	export NOTION_BOOKMARKS_DB_ID=...
//	export NOTION_CATEGORIES_DB_ID=...
//	export AWS_REGION=eu-west-1
//	export AWS_S3_BUCKET=my-bookmark-images
//	export AWS_S3_BASE_URL=https://cdn.example.com
//	./linkdeck
//
// Anything else is reachable as LINKDECK_<SECTION>_<KEY>, e.g.
// LINKDECK_SERVER_PORT=3003, or through a linkdeck.yaml file.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the server stops
// accepting connections, in-flight requests get 10 seconds to finish,
// and the write-back queue drains its current cycle.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrobles/linkdeck/internal/api"
	"github.com/mrobles/linkdeck/internal/cache"
	"github.com/mrobles/linkdeck/internal/config"
	"github.com/mrobles/linkdeck/internal/logging"
	"github.com/mrobles/linkdeck/internal/mirror"
	"github.com/mrobles/linkdeck/internal/notion"
	"github.com/mrobles/linkdeck/internal/storage"
	"github.com/mrobles/linkdeck/internal/supervisor"
	"github.com/mrobles/linkdeck/internal/supervisor/services"
	"github.com/mrobles/linkdeck/internal/writeback"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Bool("mirroring", cfg.Mirror.Enabled).
		Msg("Starting Linkdeck")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}

	logging.Info().Msg("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config) error {
	notionClient := notion.NewCircuitBreakerClient(&cfg.Notion)
	queryCache := cache.New(cfg.Cache.TTL)
	queue := writeback.NewQueue(notionClient, &cfg.WriteBack)

	var syncer *mirror.Syncer
	if cfg.Mirror.Enabled {
		store, err := storage.NewS3Store(ctx, &cfg.Storage)
		if err != nil {
			return fmt.Errorf("initializing object storage: %w", err)
		}
		canonical := storage.NewCanonicalBase(cfg.Storage.BaseURL)
		engine := mirror.NewEngine(store, canonical, &cfg.Mirror)
		syncer = mirror.NewSyncer(engine, queue, cfg.Mirror.Concurrency)
	} else {
		logging.Info().Msg("Image mirroring disabled, serving original URLs")
	}

	handler := api.NewHandler(cfg, notionClient, queryCache, syncer)
	router := api.NewRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddSyncService(queue)
	tree.AddAPIService(services.NewHTTPServerService(srv, treeCfg.ShutdownTimeout))

	logging.Info().Str("addr", srv.Addr).Msg("HTTP server listening")

	err := tree.Serve(ctx)

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
