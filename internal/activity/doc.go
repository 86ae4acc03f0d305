// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

// Package activity holds the bounded in-memory activity log and the
// shared viewer state derived from the event stream.
//
// The Store is created once in main and passed by reference to the
// stream consumers, the ops server, and (indirectly, over HTTP) the
// terminal viewer. It retains the most recent N events in a fixed-size
// ring buffer, exposes most-recent-first snapshots, and carries the
// selection and panel state that intervention and alert events drive.
//
// Nothing here performs I/O; the package is pure state with a narrow,
// concurrency-safe mutation surface.
package activity
