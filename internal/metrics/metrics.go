// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Stream connection lifecycle (state machine, retries, token exchange)
// - Event dispatch and discard rates
// - Activity log occupancy
// - Workflow collection refresh and its circuit breaker
// - Platform API client and local ops server latency

// Stream state gauge values.
const (
	StateValueDisconnected = 0
	StateValueConnecting   = 1
	StateValueConnected    = 2
	StateValueRetrying     = 3
)

var (
	// Stream Metrics
	StreamConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_connection_state",
			Help: "Current stream connection state (0=disconnected, 1=connecting, 2=connected, 3=retrying)",
		},
	)

	StreamStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_state_transitions_total",
			Help: "Total number of stream state machine transitions",
		},
		[]string{"from_state", "to_state"},
	)

	StreamConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_connect_attempts_total",
			Help: "Total number of physical stream connection attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	StreamRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_retries_total",
			Help: "Total number of retry waits scheduled after connection loss",
		},
	)

	StreamTokenExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_token_exchanges_total",
			Help: "Total number of per-attempt credential exchanges",
		},
		[]string{"result"}, // "exchanged", "fallback", "anonymous"
	)

	// Event Metrics
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dispatched_total",
			Help: "Total number of events delivered to registered consumers",
		},
		[]string{"event_type"},
	)

	EventsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_discarded_total",
			Help: "Total number of stream frames dropped before dispatch",
		},
		[]string{"reason"}, // "malformed", "unrecognized"
	)

	EventConsumerPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_consumer_panics_total",
			Help: "Total number of consumer callbacks that panicked and were recovered",
		},
	)

	// Activity Metrics
	ActivityLogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "activity_log_entries",
			Help: "Current number of entries in the bounded activity log",
		},
	)

	ActivityLogEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_log_evictions_total",
			Help: "Total number of oldest-entry evictions at activity log capacity",
		},
	)

	// Refresh Metrics
	WorkflowRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_refresh_total",
			Help: "Total number of workflow collection refresh outcomes",
		},
		[]string{"result"}, // "success", "failure", "throttled", "rejected"
	)

	WorkflowRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "workflow_refresh_duration_seconds",
			Help:    "Duration of workflow collection refresh fetches",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Client Metrics
	APIClientRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_client_requests_total",
			Help: "Total number of outbound platform API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_client_request_duration_seconds",
			Help:    "Duration of outbound platform API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIClientAuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_client_auth_failures_total",
			Help: "Total number of 401/403 responses from the platform API",
		},
	)

	// Ops Server Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of ops server HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of ops server HTTP requests",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of active ops server requests",
		},
	)
)

// RecordStateTransition records a stream state machine transition and updates
// the connection state gauge to the destination state.
func RecordStateTransition(from, to string) {
	StreamStateTransitions.WithLabelValues(from, to).Inc()
	StreamConnectionState.Set(streamStateValue(to))
}

// RecordConnectAttempt records the outcome of a physical connection attempt
func RecordConnectAttempt(err error) {
	if err != nil {
		StreamConnectAttempts.WithLabelValues("failure").Inc()
		return
	}
	StreamConnectAttempts.WithLabelValues("success").Inc()
}

// RecordRetry records a scheduled retry wait
func RecordRetry() {
	StreamRetries.Inc()
}

// RecordTokenExchange records a credential exchange outcome.
// Result is one of "exchanged", "fallback", "anonymous".
func RecordTokenExchange(result string) {
	StreamTokenExchanges.WithLabelValues(result).Inc()
}

// RecordEventDispatched records an event delivered to consumers
func RecordEventDispatched(eventType string) {
	EventsDispatched.WithLabelValues(eventType).Inc()
}

// RecordEventDiscarded records a frame dropped before dispatch.
// Reason is one of "malformed", "unrecognized".
func RecordEventDiscarded(reason string) {
	EventsDiscarded.WithLabelValues(reason).Inc()
}

// RecordConsumerPanic records a recovered consumer callback panic
func RecordConsumerPanic() {
	EventConsumerPanics.Inc()
}

// SetActivityLogSize updates the activity log occupancy gauge
func SetActivityLogSize(n int) {
	ActivityLogEntries.Set(float64(n))
}

// RecordActivityEviction records an oldest-entry eviction at capacity
func RecordActivityEviction() {
	ActivityLogEvictions.Inc()
}

// RecordRefresh records a workflow collection refresh outcome. Duration is
// observed only when a fetch actually ran; pass zero for throttled or
// rejected outcomes.
func RecordRefresh(duration time.Duration, result string) {
	WorkflowRefreshTotal.WithLabelValues(result).Inc()
	if duration > 0 {
		WorkflowRefreshDuration.Observe(duration.Seconds())
	}
}

// RecordBreakerTransition records a circuit breaker state transition and
// updates the state gauge for the named breaker.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

// RecordAPIClientRequest records an outbound platform API request metric
func RecordAPIClientRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIClientRequests.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIClientRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthFailure records a 401/403 response from the platform API
func RecordAuthFailure() {
	APIClientAuthFailures.Inc()
}

// RecordHTTPRequest records an ops server request metric
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active ops server requests
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

func streamStateValue(state string) float64 {
	switch state {
	case "connecting":
		return StateValueConnecting
	case "connected":
		return StateValueConnected
	case "retrying":
		return StateValueRetrying
	default:
		return StateValueDisconnected
	}
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default: // "closed"
		return 0
	}
}
