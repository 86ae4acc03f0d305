// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

// Package main is the entry point for the bioteamd daemon.
//
// bioteamd maintains a single live connection to the BioTeam AI control
// plane's event stream, keeps a bounded in-memory activity log of agent
// workflow events, and serves a local ops API that viewers
// (cmd/bioteam-watch) and monitoring poll.
//
// # Application Architecture
//
// The daemon initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Control-plane client: Authenticated HTTP client for token exchange and REST fetches
//  3. Activity store: Bounded ring of recent stream events plus viewer state
//  4. Dispatcher: Routes decoded stream events to the store and the refresher
//  5. Stream manager: Credential exchange, SSE or WebSocket transport, reconnect loop
//  6. Refresher: Event-driven workflow collection fetches behind a circuit breaker
//  7. Ops server: Local REST API with health, status, activity, and Prometheus metrics
//
// All long-running components run under a suture supervisor tree and are
// restarted with backoff if they fail.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (BIOTEAM_ prefix, e.g. BIOTEAM_API_BASE_URL)
//   - Config file (config.yaml, or the path in BIOTEAM_CONFIG)
//   - Built-in defaults
//
// # Signal Handling
//
// The daemon handles graceful shutdown on SIGINT and SIGTERM:
//   - Closes the stream connection
//   - Stops the ops server after draining in-flight requests (10s timeout)
//   - Reports any services that failed to stop in time
//
// # Example Usage
//
// Anonymous stream against a local control plane:
//
//	export BIOTEAM_API_BASE_URL=http://localhost:8080
//	./bioteamd
//
// Authenticated, with the WebSocket transport:
//
//	export BIOTEAM_API_BASE_URL=https://api.bioteam.example
//	export BIOTEAM_API_CREDENTIAL=your-credential
//	export BIOTEAM_STREAM_TRANSPORT=websocket
//	./bioteamd
//
// Watch the daemon from another terminal:
//
//	./bioteam-watch -addr http://127.0.0.1:8591
//
// # Port 8591
//
// The ops server binds 127.0.0.1:8591 by default; it is a local
// operational surface, not a public API. Set BIOTEAM_OPS_HOST to expose
// it beyond loopback deliberately.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jang1563/bioteam-ai-sub001/internal/activity"
	"github.com/jang1563/bioteam-ai-sub001/internal/api"
	"github.com/jang1563/bioteam-ai-sub001/internal/config"
	"github.com/jang1563/bioteam-ai-sub001/internal/logging"
	"github.com/jang1563/bioteam-ai-sub001/internal/ops"
	"github.com/jang1563/bioteam-ai-sub001/internal/refresh"
	"github.com/jang1563/bioteam-ai-sub001/internal/stream"
	"github.com/jang1563/bioteam-ai-sub001/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting bioteamd")
	logging.Info().
		Str("base_url", cfg.API.BaseURL).
		Str("transport", cfg.Stream.Transport).
		Str("stream_path", cfg.Stream.Path).
		Bool("authenticated", cfg.API.Credential != "").
		Int("activity_capacity", cfg.Activity.Capacity).
		Msg("Configuration loaded")

	client := api.NewClient(cfg.API)
	store := activity.NewStore(cfg.Activity.Capacity)

	dispatcher := stream.NewDispatcher()
	dispatcher.Subscribe(store.Consume)

	var refresher *refresh.Refresher
	if cfg.Refresh.Enabled {
		refresher = refresh.NewRefresher(cfg.Refresh, client, store)
		dispatcher.Subscribe(refresher.Consume)
		logging.Info().
			Str("workflows_path", cfg.Refresh.WorkflowsPath).
			Dur("min_interval", cfg.Refresh.MinInterval).
			Msg("Workflow refresher enabled")
	} else {
		logging.Info().Msg("Workflow refresher disabled (BIOTEAM_REFRESH_ENABLED=false)")
	}

	transport, err := stream.NewTransport(cfg.Stream.Transport)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create stream transport")
	}

	manager := stream.NewManager(stream.ManagerConfig{
		Transport:  transport,
		Tokens:     stream.NewTokenSource(client, cfg.Stream.TokenPath),
		Dispatcher: dispatcher,
		Backoff:    stream.NewBackoff(cfg.Stream.BackoffBase, cfg.Stream.BackoffCap),
		StreamPath: cfg.Stream.Path,
	})

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.Add(supervisor.NewStreamService(manager))
	logging.Info().Msg("Stream session added to supervisor tree")

	if refresher != nil {
		tree.Add(refresher)
		logging.Info().Msg("Workflow refresher added to supervisor tree")
	}

	if cfg.Ops.Enabled {
		opsServer := ops.NewServer(cfg.Ops, manager, store)
		tree.Add(opsServer)
		logging.Info().Str("addr", opsServer.Addr()).Msg("Ops server added to supervisor tree")
	} else {
		logging.Info().Msg("Ops server disabled (BIOTEAM_OPS_ENABLED=false)")
	}

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

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

	logging.Info().Msg("bioteamd stopped gracefully")
}
