// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Unexported key types keep context values collision-free.
type (
	correlationIDKey struct{}
	requestIDKey     struct{}
	loggerKey        struct{}
)

// GenerateCorrelationID returns a short random ID. The stream manager
// assigns one per connection session so all log lines of a session group
// together; eight characters keep grep output readable.
func GenerateCorrelationID() string {
	return uuid.NewString()[:8]
}

// GenerateRequestID returns a full UUID for ops-server HTTP requests.
func GenerateRequestID() string {
	return uuid.NewString()
}

// ContextWithCorrelationID attaches a correlation ID to ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// ContextWithNewCorrelationID attaches a freshly generated correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation ID, or "" if none is set.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// ContextWithRequestID attaches an HTTP request ID to ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID, or "" if none is set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithLogger stores a specific logger in ctx, overriding the root
// logger for everything downstream that logs via Ctx.
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext returns the logger stored in ctx, falling back to the
// root logger.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns a logger carrying whatever IDs ctx holds. Session goroutines
// and ops handlers log through this so their records are attributable.
//
//	logging.Ctx(ctx).Info().Msg("stream connected")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := CtxWith(ctx).Logger()
	return &logger
}

// CtxWith is Ctx as a field builder, for callers adding fields of their own.
//
//	logger := logging.CtxWith(ctx).Str("transport", name).Logger()
func CtxWith(ctx context.Context) zerolog.Context {
	builder := LoggerFromContext(ctx).With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		builder = builder.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		builder = builder.Str("request_id", id)
	}
	return builder
}

// WithComponent derives a child of the root logger tagged with a component
// field. Every long-lived component takes one at construction.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
