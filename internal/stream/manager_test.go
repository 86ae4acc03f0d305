// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package stream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jang1563/bioteam-ai-sub001/internal/api"
	"github.com/jang1563/bioteam-ai-sub001/internal/config"
	"github.com/jang1563/bioteam-ai-sub001/internal/models"
)

// fakeConn is a scripted stream connection. Frames and errors are pushed
// by the test; Close unblocks a pending Read.
type fakeConn struct {
	frames    chan Frame
	errs      chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan Frame, 16),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Read() (Frame, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case err := <-c.errs:
		return Frame{}, err
	case <-c.closed:
		return Frame{}, errors.New("connection closed")
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeTransport records every attempt URL and fails the first `failures`
// opens. Successful opens are exposed on the opened channel.
type fakeTransport struct {
	mu       sync.Mutex
	urls     []string
	attempts []time.Time
	failures int
	opened   chan *fakeConn
}

func newFakeTransport(failures int) *fakeTransport {
	return &fakeTransport{
		failures: failures,
		opened:   make(chan *fakeConn, 16),
	}
}

func (t *fakeTransport) Open(_ context.Context, url string) (Conn, error) {
	t.mu.Lock()
	t.urls = append(t.urls, url)
	t.attempts = append(t.attempts, time.Now())
	shouldFail := t.failures > 0
	if shouldFail {
		t.failures--
	}
	t.mu.Unlock()

	if shouldFail {
		return nil, errors.New("dial refused")
	}
	conn := newFakeConn()
	t.opened <- conn
	return conn, nil
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) attemptURLs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.urls))
	copy(out, t.urls)
	return out
}

func (t *fakeTransport) attemptTimes() []time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]time.Time, len(t.attempts))
	copy(out, t.attempts)
	return out
}

// anonymousTokens returns a token source that never performs an exchange.
func anonymousTokens() *TokenSource {
	client := api.NewClient(config.APIConfig{BaseURL: "http://stream.test", Timeout: time.Second})
	return NewTokenSource(client, "/api/v1/stream/token")
}

func newTestManager(transport Transport, backoff Backoff) (*Manager, *Dispatcher) {
	d := NewDispatcher()
	m := NewManager(ManagerConfig{
		Transport:  transport,
		Tokens:     anonymousTokens(),
		Dispatcher: d,
		Backoff:    backoff,
		StreamPath: "/api/v1/events/stream",
	})
	return m, d
}

func waitForState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("State() = %v, want %v after wait", m.State(), want)
}

func awaitConn(t *testing.T, tr *fakeTransport) *fakeConn {
	t.Helper()
	select {
	case conn := <-tr.opened:
		return conn
	case <-time.After(3 * time.Second):
		t.Fatal("no connection opened")
		return nil
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateRetrying, "retrying"},
		{State(99), "disconnected"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestManagerInitialState(t *testing.T) {
	m, _ := newTestManager(newFakeTransport(0), NewBackoff(time.Millisecond, time.Second))

	if got := m.State(); got != StateDisconnected {
		t.Errorf("State() = %v, want Disconnected", got)
	}
	if got := m.RetryCount(); got != 0 {
		t.Errorf("RetryCount() = %d, want 0", got)
	}
	if !m.LastEventAt().IsZero() {
		t.Errorf("LastEventAt() = %v, want zero time", m.LastEventAt())
	}
}

func TestManagerConnectSuccess(t *testing.T) {
	tr := newFakeTransport(0)
	m, _ := newTestManager(tr, NewBackoff(time.Millisecond, time.Second))
	defer m.Disconnect()

	m.Connect()
	waitForState(t, m, StateConnected)

	if got := m.RetryCount(); got != 0 {
		t.Errorf("RetryCount() = %d, want 0 after successful open", got)
	}
	urls := tr.attemptURLs()
	if len(urls) != 1 {
		t.Fatalf("attempts = %d, want 1", len(urls))
	}
	if urls[0] != "http://stream.test/api/v1/events/stream" {
		t.Errorf("attempt URL = %q, want bare stream URL", urls[0])
	}
}

func TestManagerDispatchesFrames(t *testing.T) {
	tr := newFakeTransport(0)
	m, d := newTestManager(tr, NewBackoff(time.Millisecond, time.Second))
	defer m.Disconnect()

	events := make(chan models.StreamEvent, 4)
	d.Subscribe(func(e models.StreamEvent) { events <- e })

	m.Connect()
	conn := awaitConn(t, tr)
	waitForState(t, m, StateConnected)

	conn.frames <- dataFrame("workflow.created", `{"workflow_id":"wf-1"}`)

	select {
	case e := <-events:
		if e.WorkflowID != "wf-1" {
			t.Errorf("WorkflowID = %q, want %q", e.WorkflowID, "wf-1")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never received the frame")
	}

	if m.LastEventAt().IsZero() {
		t.Error("LastEventAt() still zero after a frame arrived")
	}
}

func TestManagerKeepaliveUpdatesLivenessOnly(t *testing.T) {
	tr := newFakeTransport(0)
	m, d := newTestManager(tr, NewBackoff(time.Millisecond, time.Second))
	defer m.Disconnect()

	var calls atomic.Int32
	d.Subscribe(func(models.StreamEvent) { calls.Add(1) })

	m.Connect()
	conn := awaitConn(t, tr)
	waitForState(t, m, StateConnected)

	conn.frames <- Frame{} // keepalive

	deadline := time.Now().Add(2 * time.Second)
	for m.LastEventAt().IsZero() && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if m.LastEventAt().IsZero() {
		t.Fatal("LastEventAt() still zero after keepalive")
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("consumer calls = %d, want 0 for keepalive", got)
	}
}

func TestManagerRetriesAfterFailedOpens(t *testing.T) {
	tr := newFakeTransport(2)
	m, _ := newTestManager(tr, NewBackoff(5*time.Millisecond, 100*time.Millisecond))
	defer m.Disconnect()

	m.Connect()
	waitForState(t, m, StateConnected)

	if got := m.RetryCount(); got != 0 {
		t.Errorf("RetryCount() = %d, want 0 after eventual success", got)
	}
	if got := len(tr.attemptURLs()); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestManagerBackoffDelaysGrow(t *testing.T) {
	base := 30 * time.Millisecond
	tr := newFakeTransport(2)
	m, _ := newTestManager(tr, NewBackoff(base, time.Second))
	defer m.Disconnect()

	m.Connect()
	waitForState(t, m, StateConnected)

	times := tr.attemptTimes()
	if len(times) != 3 {
		t.Fatalf("attempts = %d, want 3", len(times))
	}

	// Timers never fire early: first gap >= base, second >= 2*base.
	if gap := times[1].Sub(times[0]); gap < base {
		t.Errorf("first retry gap = %v, want >= %v", gap, base)
	}
	if gap := times[2].Sub(times[1]); gap < 2*base {
		t.Errorf("second retry gap = %v, want >= %v", gap, 2*base)
	}
}

func TestManagerAnonymousAttemptsCarryNoToken(t *testing.T) {
	tr := newFakeTransport(2)
	m, _ := newTestManager(tr, NewBackoff(5*time.Millisecond, 100*time.Millisecond))
	defer m.Disconnect()

	m.Connect()
	waitForState(t, m, StateConnected)

	for i, u := range tr.attemptURLs() {
		if strings.Contains(u, "token=") {
			t.Errorf("attempt %d URL = %q, want no token parameter", i, u)
		}
	}
}

func TestManagerCredentialFallbackURL(t *testing.T) {
	// Exchange endpoint is down: every attempt falls back to the raw
	// credential.
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	down.Close()

	client := api.NewClient(config.APIConfig{
		BaseURL:    down.URL,
		Credential: "raw-credential-value",
		Timeout:    time.Second,
	})
	tr := newFakeTransport(0)
	m := NewManager(ManagerConfig{
		Transport:  tr,
		Tokens:     NewTokenSource(client, "/api/v1/stream/token"),
		Dispatcher: NewDispatcher(),
		Backoff:    NewBackoff(time.Millisecond, time.Second),
		StreamPath: "/api/v1/events/stream",
	})
	defer m.Disconnect()

	m.Connect()
	waitForState(t, m, StateConnected)

	urls := tr.attemptURLs()
	if len(urls) != 1 {
		t.Fatalf("attempts = %d, want 1", len(urls))
	}
	if !strings.Contains(urls[0], "token=raw-credential-value") {
		t.Errorf("attempt URL = %q, want raw credential token parameter", urls[0])
	}
}

func TestManagerReconnectsAfterConnectionLoss(t *testing.T) {
	tr := newFakeTransport(0)
	m, _ := newTestManager(tr, NewBackoff(5*time.Millisecond, 100*time.Millisecond))
	defer m.Disconnect()

	m.Connect()
	first := awaitConn(t, tr)
	waitForState(t, m, StateConnected)

	first.errs <- errors.New("stream broke")

	second := awaitConn(t, tr)
	waitForState(t, m, StateConnected)

	if !first.isClosed() {
		t.Error("first connection not closed after read error")
	}
	if second.isClosed() {
		t.Error("second connection unexpectedly closed")
	}
	if got := m.RetryCount(); got != 0 {
		t.Errorf("RetryCount() = %d, want 0 after reconnect", got)
	}
}

func TestManagerConnectSupersedes(t *testing.T) {
	tr := newFakeTransport(0)
	m, d := newTestManager(tr, NewBackoff(time.Millisecond, time.Second))
	defer m.Disconnect()

	var mu sync.Mutex
	received := 0
	d.Subscribe(func(models.StreamEvent) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	m.Connect()
	first := awaitConn(t, tr)
	waitForState(t, m, StateConnected)

	m.Connect()
	second := awaitConn(t, tr)
	waitForState(t, m, StateConnected)

	if !first.isClosed() {
		t.Error("first connection still open after superseding Connect()")
	}
	if second.isClosed() {
		t.Error("second connection unexpectedly closed")
	}

	// A frame on the live connection is dispatched exactly once.
	second.frames <- dataFrame("workflow.created", `{}`)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := received
		mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if received != 1 {
		t.Errorf("received = %d, want exactly 1", received)
	}
}

func TestManagerDisconnect(t *testing.T) {
	tr := newFakeTransport(0)
	m, _ := newTestManager(tr, NewBackoff(time.Millisecond, time.Second))

	m.Connect()
	conn := awaitConn(t, tr)
	waitForState(t, m, StateConnected)

	m.Disconnect()

	if got := m.State(); got != StateDisconnected {
		t.Errorf("State() = %v, want Disconnected", got)
	}
	if !conn.isClosed() {
		t.Error("connection still open after Disconnect()")
	}
}

func TestManagerDisconnectDuringRetryCancelsAttempt(t *testing.T) {
	tr := newFakeTransport(100)
	m, _ := newTestManager(tr, NewBackoff(10*time.Second, time.Minute))

	m.Connect()
	waitForState(t, m, StateRetrying)
	attemptsBefore := len(tr.attemptURLs())

	m.Disconnect()

	if got := m.State(); got != StateDisconnected {
		t.Errorf("State() = %v, want Disconnected", got)
	}

	// No stale attempt may fire later.
	time.Sleep(50 * time.Millisecond)
	if got := len(tr.attemptURLs()); got != attemptsBefore {
		t.Errorf("attempts = %d after Disconnect, want %d", got, attemptsBefore)
	}
	if got := m.State(); got != StateDisconnected {
		t.Errorf("State() = %v after wait, want Disconnected", got)
	}
}

func TestManagerDisconnectIdempotent(t *testing.T) {
	m, _ := newTestManager(newFakeTransport(0), NewBackoff(time.Millisecond, time.Second))

	m.Disconnect()
	m.Disconnect()

	if got := m.State(); got != StateDisconnected {
		t.Errorf("State() = %v, want Disconnected", got)
	}
}

func TestManagerStateListener(t *testing.T) {
	tr := newFakeTransport(0)
	m, _ := newTestManager(tr, NewBackoff(time.Millisecond, time.Second))

	var mu sync.Mutex
	var transitions []string
	m.SetStateListener(func(from, to State) {
		mu.Lock()
		transitions = append(transitions, from.String()+">"+to.String())
		mu.Unlock()
	})

	m.Connect()
	waitForState(t, m, StateConnected)
	m.Disconnect()

	mu.Lock()
	defer mu.Unlock()
	want := []string{
		"disconnected>connecting",
		"connecting>connected",
		"connected>disconnected",
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions[%d] = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestManagerConcurrentConnectDisconnect(t *testing.T) {
	tr := newFakeTransport(0)
	m, _ := newTestManager(tr, NewBackoff(time.Millisecond, time.Second))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				m.Connect()
			} else {
				m.Disconnect()
			}
		}(i)
	}
	wg.Wait()

	m.Disconnect()
	if got := m.State(); got != StateDisconnected {
		t.Errorf("State() = %v, want Disconnected after final Disconnect", got)
	}

	// At most one connection may remain open, and after the final
	// Disconnect all of them must be closed.
	for {
		select {
		case conn := <-tr.opened:
			if !conn.isClosed() {
				t.Error("connection left open after final Disconnect")
			}
			continue
		default:
		}
		break
	}
}
