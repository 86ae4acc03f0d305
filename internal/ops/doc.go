// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

// Package ops implements the local operations HTTP server.
//
// The daemon's only inbound surface: liveness and readiness probes,
// a JSON status snapshot of the stream connection, the activity log
// (read and clear), and Prometheus metrics. The terminal viewer polls
// the status and activity endpoints.
//
// Routes:
//
//	GET  /healthz                 liveness, 200 while the process runs
//	GET  /readyz                  200 when the stream is connected, 503 otherwise
//	GET  /api/v1/status           connection state, retry count, transport, liveness
//	GET  /api/v1/activity         activity snapshot, most recent first (?limit=)
//	POST /api/v1/activity/clear   empty the activity log
//	GET  /metrics                 Prometheus exposition
//
// The server binds to loopback by default and is not an authentication
// boundary; exposing it beyond localhost is an operator decision.
package ops
