// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeConnector records Connect/Disconnect calls.
type fakeConnector struct {
	connects    atomic.Int32
	disconnects atomic.Int32
}

func (f *fakeConnector) Connect()    { f.connects.Add(1) }
func (f *fakeConnector) Disconnect() { f.disconnects.Add(1) }

func TestStreamServiceLifecycle(t *testing.T) {
	connector := &fakeConnector{}
	svc := NewStreamService(connector)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	// Connect happens on startup, Disconnect must wait for shutdown.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && connector.connects.Load() == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	if got := connector.connects.Load(); got != 1 {
		t.Fatalf("connects = %d, want 1", got)
	}
	if got := connector.disconnects.Load(); got != 0 {
		t.Fatalf("disconnects before shutdown = %d, want 0", got)
	}

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after context cancellation")
	}

	if got := connector.disconnects.Load(); got != 1 {
		t.Errorf("disconnects after shutdown = %d, want 1", got)
	}
}

func TestStreamServiceString(t *testing.T) {
	svc := NewStreamService(&fakeConnector{})
	if got := svc.String(); got != "stream-session" {
		t.Errorf("String() = %q, want %q", got, "stream-session")
	}
}

func TestStreamServiceUnderTree(t *testing.T) {
	connector := &fakeConnector{}
	tree := NewTree(testSlogger(), TreeConfig{ShutdownTimeout: time.Second})
	tree.Add(NewStreamService(connector))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && connector.connects.Load() == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	if connector.connects.Load() != 1 {
		t.Fatalf("connects = %d, want 1", connector.connects.Load())
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}

	if connector.disconnects.Load() != 1 {
		t.Errorf("disconnects = %d, want 1", connector.disconnects.Load())
	}
}
