// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package stream

import "time"

// Backoff defaults, used when configured values are non-positive.
const (
	DefaultBackoffBase = 1 * time.Second
	DefaultBackoffCap  = 30 * time.Second
)

// Backoff computes reconnect delays as base * 2^attempt capped at a
// maximum, giving the ladder 1s, 2s, 4s, 8s, 16s, 30s, 30s, ... with the
// defaults. No jitter: a single client reconnecting to one endpoint gains
// nothing from desynchronization, and deterministic delays keep the retry
// schedule testable.
//
// The zero value is not usable; construct with NewBackoff.
type Backoff struct {
	base time.Duration
	cap  time.Duration
}

// NewBackoff creates a backoff policy. Non-positive base or cap values
// fall back to the defaults; a cap below the base is raised to the base so
// Delay stays monotonic.
func NewBackoff(base, cap time.Duration) Backoff {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if cap <= 0 {
		cap = DefaultBackoffCap
	}
	if cap < base {
		cap = base
	}
	return Backoff{base: base, cap: cap}
}

// Base returns the first-retry delay.
func (b Backoff) Base() time.Duration {
	return b.base
}

// Cap returns the maximum delay.
func (b Backoff) Cap() time.Duration {
	return b.cap
}

// Delay returns the wait before retry number attempt (zero-based). Pure
// and deterministic: Delay(a) = min(base * 2^a, cap). Negative attempts
// are treated as zero. Large attempts return the cap, never a wrapped or
// negative duration.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	d := b.base
	for i := 0; i < attempt; i++ {
		d *= 2
		// Doubling past the cap (or wrapping negative) pins to the cap,
		// so the loop runs at most log2(cap/base)+1 times.
		if d >= b.cap || d <= 0 {
			return b.cap
		}
	}
	if d > b.cap {
		return b.cap
	}
	return d
}
