// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package config

import (
	"fmt"
	"time"

	"github.com/jang1563/bioteam-ai-sub001/internal/validation"
)

// Config holds all daemon configuration loaded from defaults, an optional
// YAML file, and BIOTEAM_* environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file for persistent settings
//  3. Environment Variables: Override any setting via BIOTEAM_* variables
//
// Configuration Categories:
//
//  1. Control Plane:
//     - API: Base URL, long-lived credential, request timeout
//     - Stream: Stream path, token exchange path, transport, backoff shape
//
//  2. Local State:
//     - Activity: Bounded activity log capacity
//     - Refresh: Workflow collection refresh behavior
//
//  3. Operations:
//     - Ops: Local HTTP server for health, status, and metrics
//     - Logging: Log level and output format
//
// Example - Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("failed to load config:", err)
//	}
//	// cfg.API.BaseURL, cfg.Stream.Transport, etc. are now populated
//
// Validation:
// Load() validates the assembled configuration and returns an error if
// required fields are missing (BIOTEAM_API_BASE_URL) or malformed (unknown
// transport, out-of-range capacity). Invalid backoff durations are not
// errors; the backoff policy falls back to its defaults for those.
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	API      APIConfig      `koanf:"api"`
	Stream   StreamConfig   `koanf:"stream"`
	Activity ActivityConfig `koanf:"activity"`
	Refresh  RefreshConfig  `koanf:"refresh"`
	Ops      OpsConfig      `koanf:"ops"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// APIConfig holds control-plane connection settings.
//
// Environment Variables:
//   - BIOTEAM_API_BASE_URL: Control-plane base URL (e.g. https://api.bioteam.example)
//   - BIOTEAM_API_CREDENTIAL: Long-lived credential; empty means anonymous
//   - BIOTEAM_API_TIMEOUT: Per-request timeout (default: 15s)
type APIConfig struct {
	BaseURL    string        `koanf:"base_url" validate:"required,url"`
	Credential string        `koanf:"credential"` // Optional; anonymous streams omit it
	Timeout    time.Duration `koanf:"timeout" validate:"gte=1s,lte=5m"`
}

// StreamConfig holds streaming connection settings.
//
// Transport selects the wire protocol: "sse" (default) reads the stream
// endpoint as text/event-stream; "websocket" dials the same path upgraded
// to a WebSocket carrying JSON envelopes.
//
// BackoffBase and BackoffCap shape the reconnect schedule
// (base, 2*base, 4*base, ... capped). Non-positive values fall back to the
// policy defaults of 1s and 30s rather than failing validation.
type StreamConfig struct {
	Path        string        `koanf:"path" validate:"required,startswith=/"`
	TokenPath   string        `koanf:"token_path" validate:"required,startswith=/"`
	Transport   string        `koanf:"transport" validate:"oneof=sse websocket"`
	BackoffBase time.Duration `koanf:"backoff_base"`
	BackoffCap  time.Duration `koanf:"backoff_cap"`
}

// ActivityConfig bounds the in-memory activity log.
type ActivityConfig struct {
	Capacity int `koanf:"capacity" validate:"gte=1,lte=10000"`
}

// RefreshConfig controls the workflow collection refresher.
//
// MinInterval is the coalescing window: bursts of workflow events within
// one window trigger a single fetch.
type RefreshConfig struct {
	Enabled       bool          `koanf:"enabled"`
	WorkflowsPath string        `koanf:"workflows_path" validate:"required,startswith=/"`
	MinInterval   time.Duration `koanf:"min_interval" validate:"gte=100ms,lte=10m"`
	Timeout       time.Duration `koanf:"timeout" validate:"gte=1s,lte=5m"`
}

// OpsConfig configures the local operations HTTP server.
//
// The server binds to loopback by default and is the only inbound surface
// of the daemon: health probes, status, the activity snapshot, and
// Prometheus metrics. The terminal viewer polls it.
type OpsConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Host              string        `koanf:"host" validate:"required"`
	Port              int           `koanf:"port" validate:"gte=1,lte=65535"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gte=1s,lte=5m"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gte=1s"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Addr returns the host:port the ops server binds to.
func (o OpsConfig) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "",
			Credential: "",
			Timeout:    15 * time.Second,
		},
		Stream: StreamConfig{
			Path:        "/api/v1/events/stream",
			TokenPath:   "/api/v1/stream/token",
			Transport:   "sse",
			BackoffBase: time.Second,
			BackoffCap:  30 * time.Second,
		},
		Activity: ActivityConfig{
			Capacity: 100,
		},
		Refresh: RefreshConfig{
			Enabled:       true,
			WorkflowsPath: "/api/v1/workflows",
			MinInterval:   2 * time.Second,
			Timeout:       10 * time.Second,
		},
		Ops: OpsConfig{
			Enabled:           true,
			Host:              "127.0.0.1",
			Port:              8591,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks that the assembled configuration is usable. Struct tags
// carry the individual field rules; this method adds the cross-field checks
// tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// An explicit cap below the base would invert the retry schedule. Both
	// values non-positive is fine (the backoff policy substitutes defaults);
	// an inverted pair is an operator mistake worth failing loudly on.
	if c.Stream.BackoffBase > 0 && c.Stream.BackoffCap > 0 &&
		c.Stream.BackoffCap < c.Stream.BackoffBase {
		return fmt.Errorf("invalid configuration: stream.backoff_cap (%s) must not be below stream.backoff_base (%s)",
			c.Stream.BackoffCap, c.Stream.BackoffBase)
	}

	return nil
}
