// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes the restart behavior of the supervisor root.
type TreeConfig struct {
	// FailureThreshold is how many failures within the decay window put
	// the supervisor into backoff.
	FailureThreshold float64

	// FailureDecay is the half-life, in seconds, of the failure count.
	FailureDecay float64

	// FailureBackoff is how long the supervisor pauses once the threshold
	// is crossed.
	FailureBackoff time.Duration

	// ShutdownTimeout bounds the wait for services to stop on shutdown.
	ShutdownTimeout time.Duration
}

// withDefaults fills zero fields with suture's stock values: threshold 5,
// decay 30s, backoff 15s, shutdown timeout 10s.
func (c TreeConfig) withDefaults() TreeConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5.0
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = 30.0
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = 15 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// DefaultTreeConfig returns suture's stock restart parameters.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{}.withDefaults()
}

// Tree is the daemon's supervisor: a single suture root holding the stream
// session, the workflow refresher, and the ops server. A crash in any of
// them is logged through the sutureslog hook and the service is restarted
// with suture's failure backoff; the other services keep running.
type Tree struct {
	root   *suture.Supervisor
	logger *slog.Logger
	config TreeConfig
}

// NewTree builds the supervisor root. The slog logger is bridged into the
// sutureslog event hook so supervisor events land in the same sink as the
// rest of the daemon's logs.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	config = config.withDefaults()

	// sutureslog's MustHook has a pointer receiver.
	root := suture.New("bioteamd", suture.Spec{
		EventHook:        (&sutureslog.Handler{Logger: logger}).MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	})

	return &Tree{root: root, logger: logger, config: config}
}

// Add registers a service with the root.
func (t *Tree) Add(svc suture.Service) suture.ServiceToken {
	return t.root.Add(svc)
}

// Serve runs the tree until ctx is cancelled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine and returns the channel
// delivering its terminal error.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists the services that missed the shutdown
// timeout. Useful when a shutdown hangs.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// Root exposes the underlying supervisor.
func (t *Tree) Root() *suture.Supervisor {
	return t.root
}
