// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitDefaults(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("key", "value").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("expected JSON info level in output, got: %s", out)
	}
	if !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected structured field in output, got: %s", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("expected message in output, got: %s", out)
	}
}

func TestInitLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("suppressed")
	Warn().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("warn message should pass at warn level")
	}
}

func TestInitConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Format: "console", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("console line")

	// Console output is human-formatted, not JSON.
	out := buf.String()
	if strings.Contains(out, `"message"`) {
		t.Errorf("console format should not emit JSON field names, got: %s", out)
	}
	if !strings.Contains(out, "console line") {
		t.Errorf("expected message text in console output, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"WARN", zerolog.WarnLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Output: &buf})
	defer Init(DefaultConfig())

	streamLogger := WithComponent("stream")
	streamLogger.Info().Msg("component test")

	if !strings.Contains(buf.String(), `"component":"stream"`) {
		t.Errorf("expected component field, got: %s", buf.String())
	}
}

func TestCtxCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Output: &buf})
	defer Init(DefaultConfig())

	ctx := ContextWithCorrelationID(context.Background(), "abc12345")
	Ctx(ctx).Info().Msg("with correlation")

	if !strings.Contains(buf.String(), `"correlation_id":"abc12345"`) {
		t.Errorf("expected correlation_id field, got: %s", buf.String())
	}
}

func TestCtxWithoutValues(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Output: &buf})
	defer Init(DefaultConfig())

	Ctx(context.Background()).Info().Msg("plain")

	out := buf.String()
	if strings.Contains(out, "correlation_id") || strings.Contains(out, "request_id") {
		t.Errorf("no context fields expected for an empty context, got: %s", out)
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	a := GenerateCorrelationID()
	b := GenerateCorrelationID()

	if len(a) != 8 {
		t.Errorf("correlation ID length = %d, want 8", len(a))
	}
	if a == b {
		t.Error("consecutive correlation IDs should differ")
	}
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	var buf bytes.Buffer
	custom := NewTestLogger(&buf)

	ctx := ContextWithLogger(context.Background(), custom)
	got := LoggerFromContext(ctx)
	got.Info().Msg("stored logger")

	if !strings.Contains(buf.String(), "stored logger") {
		t.Error("expected the stored logger to be returned from context")
	}

	// Without a stored logger the global instance is returned; it must not panic.
	fallback := LoggerFromContext(context.Background())
	fallback.Debug().Msg("global fallback")
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Str("test", "yes").Msg("captured")

	if !strings.Contains(buf.String(), `"test":"yes"`) {
		t.Errorf("test logger should write JSON to the buffer, got: %s", buf.String())
	}
}
