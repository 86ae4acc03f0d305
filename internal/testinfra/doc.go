// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

// Package testinfra provides an in-process fake of the BioTeam AI control
// plane for end-to-end tests.
//
// The fake serves the three surfaces the daemon talks to: the
// stream-token exchange, the SSE event stream, and the workflow
// collection endpoint. Tests drive it directly: Emit pushes events to
// every live stream, DropStreams severs them to exercise the reconnect
// path, FailTokenExchange exercises the raw-credential fallback, and the
// counters report what the daemon actually did on the wire.
//
// The package's own tests wire the real component graph (api client,
// dispatcher, activity store, refresher, stream manager, ops server)
// against the fake, covering the paths unit tests stub out: token
// exchange into connect, reconnect after a server-side drop, and events
// flowing through to the ops API.
package testinfra
