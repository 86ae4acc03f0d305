// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search entirely.
const ConfigPathEnvVar = "BIOTEAM_CONFIG"

// envPrefix selects which environment variables participate in loading.
const envPrefix = "BIOTEAM_"

// DefaultConfigPaths lists where a config file is looked for. The first
// existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bioteam/config.yaml",
	"/etc/bioteam/config.yml",
}

// envKeyPaths maps lowercased BIOTEAM_* variable names onto config paths.
// Variables missing from this table are dropped, so stray environment
// variables never leak into the configuration.
var envKeyPaths = map[string]string{
	// Control-plane API
	"bioteam_api_base_url":   "api.base_url",
	"bioteam_api_credential": "api.credential",
	"bioteam_api_timeout":    "api.timeout",

	// Stream
	"bioteam_stream_path":         "stream.path",
	"bioteam_stream_token_path":   "stream.token_path",
	"bioteam_stream_transport":    "stream.transport",
	"bioteam_stream_backoff_base": "stream.backoff_base",
	"bioteam_stream_backoff_cap":  "stream.backoff_cap",

	// Activity log
	"bioteam_activity_capacity": "activity.capacity",

	// Workflow refresh
	"bioteam_refresh_enabled":        "refresh.enabled",
	"bioteam_refresh_workflows_path": "refresh.workflows_path",
	"bioteam_refresh_min_interval":   "refresh.min_interval",
	"bioteam_refresh_timeout":        "refresh.timeout",

	// Ops server
	"bioteam_ops_enabled":             "ops.enabled",
	"bioteam_ops_host":                "ops.host",
	"bioteam_ops_port":                "ops.port",
	"bioteam_ops_shutdown_timeout":    "ops.shutdown_timeout",
	"bioteam_ops_rate_limit_requests": "ops.rate_limit_requests",
	"bioteam_ops_rate_limit_window":   "ops.rate_limit_window",
	"bioteam_ops_cors_origins":        "ops.cors_origins",

	// Logging
	"bioteam_log_level":  "logging.level",
	"bioteam_log_format": "logging.format",
	"bioteam_log_caller": "logging.caller",
}

// commaListPaths are config paths holding string slices. Their environment
// values arrive as single comma-separated strings and need splitting.
var commaListPaths = []string{
	"ops.cors_origins",
}

// Load assembles the daemon configuration from three layers, later layers
// winning: struct defaults, an optional YAML file, then BIOTEAM_*
// environment variables. The result is validated before it is returned; an
// invalid configuration aborts startup.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// BIOTEAM_API_BASE_URL -> api.base_url and so on; see envKeyPaths.
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	for _, path := range commaListPaths {
		if err := splitCommaList(k, path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first existing candidate: the ConfigPathEnvVar
// override, then DefaultConfigPaths in order. Empty when nothing exists.
func findConfigFile() string {
	candidates := DefaultConfigPaths
	if override := os.Getenv(ConfigPathEnvVar); override != "" {
		candidates = append([]string{override}, candidates...)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// splitCommaList rewrites a string value at path into a []string. Values
// that are already slices, from YAML or defaults, pass through untouched.
func splitCommaList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok || raw == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return nil
	}

	if err := k.Set(path, items); err != nil {
		return fmt.Errorf("setting %s: %w", path, err)
	}
	return nil
}

// envTransformFunc lowercases an environment variable name and resolves it
// through envKeyPaths; unknown names map to "" and are dropped.
// BIOTEAM_CONFIG is absent from the table on purpose, it steers the file
// search instead.
func envTransformFunc(key string) string {
	return envKeyPaths[strings.ToLower(key)]
}
