// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

/*
Package stream maintains the long-lived event stream from the BioTeam AI
platform: credential exchange, transport, dispatch, and reconnection.

Key Components:

  - Manager: owns the connection lifecycle. One session goroutine per
    Connect call, epoch-guarded so a superseded session can never mutate
    state or dispatch frames after its replacement starts.
  - Transport/Conn: one interface, two implementations (SSE and
    WebSocket), selected by config. Transports only open and read;
    retry policy lives in the Manager.
  - TokenSource: exchanges the long-lived credential for a short-lived
    stream token before every attempt, falling back to the raw
    credential when the exchange fails.
  - Dispatcher: decodes frames for the recognized event allow-list and
    fans them out to registered consumers synchronously, in
    registration order, with per-consumer panic recovery.
  - Backoff: deterministic base*2^attempt delay, capped.

Connection lifecycle:

	Disconnected --Connect()--> Connecting --open ok--> Connected
	Connected --read error--> Retrying --delay--> Connecting
	any state --Disconnect()--> Disconnected

Frames flow through one goroutine per connection: the session reads,
updates liveness, and dispatches in arrival order. Across a reconnect
there is no ordering or completeness guarantee; consumers treat each
connection independently and re-fetch authoritative state (see
internal/refresh).

No failure in this package is fatal: transport errors feed the retry
loop, credential exchange failures fall back, malformed frames are
dropped, and panicking consumers are recovered. The worst outcome is a
disconnected indicator while backoff continues.
*/
package stream
