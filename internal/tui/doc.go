// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

// Package tui implements the terminal activity viewer behind
// cmd/bioteam-watch.
//
// The viewer is a thin poll-and-render client of a running daemon's ops
// server: every poll interval it fetches /api/v1/status and
// /api/v1/activity and redraws. It holds no stream connection and no
// event storage of its own, so any number of viewers can watch one
// daemon, attach late, and disconnect freely.
//
// Cursor position, pause state, and the detail panel are local to the
// viewer. The one piece of daemon-side UI state honored here is the
// panel flag raised by intervention and alert events: a rising edge
// opens the detail panel and jumps the cursor to the triggering entry,
// after which the operator can dismiss it again.
//
// A failed poll keeps the last rendered snapshot and shows the error in
// the header; polling continues so the viewer recovers as soon as the
// daemon is reachable again.
package tui
