// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

// Package refresh keeps the locally cached workflow collection in sync
// with the control plane.
//
// The Refresher subscribes to the event stream and re-fetches the
// workflow list whenever a workflow-lifecycle event arrives. Two guards
// keep this cheap and safe:
//
//   - A rate limiter coalesces event bursts: at most one fetch per
//     configured minimum interval, extra triggers are dropped.
//   - A circuit breaker (sony/gobreaker) stops fetch attempts after
//     repeated failures and probes the API again after a cool-down.
//
// Refreshes are fire-and-forget. A failed, throttled, or
// breaker-rejected fetch leaves the previously stored collection in
// place and never disturbs the stream connection or the activity log.
package refresh
