// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package instruments the streaming client using the Prometheus client
library, exposing metrics for connection health, event throughput, workflow
refresh behavior, and the local ops HTTP surface.

# Overview

The package provides metrics for:
  - Stream connection state and state transitions
  - Connect attempts, retries, and token exchange outcomes
  - Event dispatch and discard rates
  - Activity log size and evictions
  - Workflow collection refresh statistics
  - Circuit breaker state transitions
  - Platform API client latency
  - Ops server request latency and throughput

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://127.0.0.1:8591/metrics

# Available Metrics

Stream Metrics:
  - stream_connection_state: Current connection state (gauge)
    Values: 0=disconnected, 1=connecting, 2=connected, 3=retrying
  - stream_state_transitions_total: State machine transitions (counter)
    Labels: from_state, to_state
  - stream_connect_attempts_total: Physical connection attempts (counter)
    Labels: result (success, failure)
  - stream_retries_total: Retry waits scheduled (counter)
  - stream_token_exchanges_total: Per-attempt credential exchanges (counter)
    Labels: result (exchanged, fallback, anonymous)

Event Metrics:
  - events_dispatched_total: Events delivered to consumers (counter)
    Labels: event_type
  - events_discarded_total: Frames dropped before dispatch (counter)
    Labels: reason (malformed, unrecognized)
  - event_consumer_panics_total: Consumer callbacks recovered from panic (counter)

Activity Metrics:
  - activity_log_entries: Current entries in the bounded activity log (gauge)
  - activity_log_evictions_total: Oldest-entry evictions at capacity (counter)

Refresh Metrics:
  - workflow_refresh_total: Workflow collection refresh outcomes (counter)
    Labels: result (success, failure, throttled, rejected)
  - workflow_refresh_duration_seconds: Refresh fetch latency (histogram)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_state_transitions_total: State transitions (counter)
    Labels: name, from_state, to_state

API Client Metrics:
  - api_client_requests_total: Outbound platform API requests (counter)
    Labels: method, endpoint, status
  - api_client_request_duration_seconds: Outbound request latency (histogram)
    Labels: method, endpoint
  - api_client_auth_failures_total: 401/403 responses observed (counter)

Ops Server Metrics:
  - http_requests_total: Ops server requests (counter)
    Labels: method, endpoint, status
  - http_request_duration_seconds: Ops server latency (histogram)
    Labels: method, endpoint
  - http_requests_in_flight: Active ops server requests (gauge)

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/jang1563/bioteam-ai-sub001/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    http.Handle("/metrics", promhttp.Handler())

	    metrics.RecordStateTransition("disconnected", "connecting")
	    metrics.RecordEventDispatched("workflow.completed")
	    metrics.RecordRefresh(120*time.Millisecond, "success")
	}

# Example PromQL Queries

	# Event throughput by type
	rate(events_dispatched_total[5m])

	# Reconnect churn
	rate(stream_connect_attempts_total{result="failure"}[15m])

	# Refresh p95 latency
	histogram_quantile(0.95, rate(workflow_refresh_duration_seconds_bucket[5m]))

	# Share of discarded frames
	sum(rate(events_discarded_total[5m])) / sum(rate(events_dispatched_total[5m]))

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

To prevent high cardinality issues:

  - Event type labels are restricted to the recognized allow-list
  - Endpoint labels use route patterns, never raw paths with IDs
  - Discard reasons and refresh results are fixed constants
  - No per-workflow or per-agent labels are emitted

# See Also

  - internal/stream: Connection state and dispatch metrics recording
  - internal/refresh: Refresh and circuit breaker metrics recording
  - internal/ops: HTTP metrics middleware and the /metrics endpoint
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
