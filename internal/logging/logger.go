// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

// Package logging is the daemon's single logging surface: one zerolog root
// logger shared by every component, context helpers carrying request and
// correlation IDs, credential redaction for stream URLs, and an slog bridge
// so the supervisor's event hook writes to the same sink.
//
// Long-lived components take a tagged logger once at construction:
//
//	logger := logging.WithComponent("stream")
//	logger.Info().Str("transport", "sse").Msg("connecting")
//
// One-off records go through the package helpers:
//
//	logging.Warn().Err(err).Msg("workflow refresh failed")
//
// Credentials must never reach the sink: pass URLs through RedactURL and
// tokens through SanitizeToken before logging them.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the root logger's behavior. The zero value is usable:
// info-level JSON on stderr.
type Config struct {
	// Level is the minimum emitted level: trace, debug, info, warn, error,
	// fatal, or disabled. Unknown values fall back to info.
	Level string

	// Format is "json" (default) or "console" for human-readable
	// development output.
	Format string

	// Caller adds the file:line of the call site to every record.
	Caller bool

	// Output overrides the destination; tests point it at a buffer.
	// Defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the production defaults: info-level JSON on stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

var (
	rootMu sync.RWMutex
	root   zerolog.Logger
)

func init() {
	Init(DefaultConfig())
}

// Init builds the root logger from cfg. main calls it once before any
// component starts; calling it again reconfigures the sink, which tests use
// to capture output. Records are always timestamped.
func Init(cfg Config) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	logCtx := zerolog.New(out).With().Timestamp()
	if cfg.Caller {
		logCtx = logCtx.Caller()
	}

	rootMu.Lock()
	root = logCtx.Logger()
	rootMu.Unlock()
}

// parseLevel maps a config string onto a zerolog level, defaulting to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns the current root logger.
func Logger() zerolog.Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// With opens a field builder on the root logger for deriving child loggers.
func With() zerolog.Context {
	return Logger().With()
}

// Debug starts a debug-level record.
func Debug() *zerolog.Event { l := Logger(); return l.Debug() }

// Info starts an info-level record.
func Info() *zerolog.Event { l := Logger(); return l.Info() }

// Warn starts a warn-level record.
func Warn() *zerolog.Event { l := Logger(); return l.Warn() }

// Error starts an error-level record.
func Error() *zerolog.Event { l := Logger(); return l.Error() }

// Fatal starts a fatal-level record; the process exits after Msg.
func Fatal() *zerolog.Event { l := Logger(); return l.Fatal() }

// NewTestLogger returns an independent JSON logger writing to w, for tests
// that assert on a component's output without touching the root logger.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
