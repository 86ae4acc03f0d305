// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jang1563/bioteam-ai-sub001/internal/logging"
	"github.com/jang1563/bioteam-ai-sub001/internal/metrics"
)

// State is the connection state of a stream manager.
type State int

// Connection states. Transitions are the only way observers learn
// connectivity; the manager never exposes transport internals.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateRetrying
)

// String returns the lowercase state name used in logs and metric labels.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRetrying:
		return "retrying"
	default:
		return "disconnected"
	}
}

// errSuperseded stops a session whose epoch is no longer current.
var errSuperseded = errors.New("stream session superseded")

// StateListener observes manager state transitions. Invoked synchronously
// after each transition, never with from == to.
type StateListener func(from, to State)

// ManagerConfig carries the collaborators of a stream manager.
type ManagerConfig struct {
	Transport  Transport
	Tokens     *TokenSource
	Dispatcher *Dispatcher
	Backoff    Backoff
	StreamPath string
}

// Manager owns the lifecycle of the stream connection: credential
// exchange, transport opening, frame reading, and the retry loop with
// exponential backoff. Exactly one physical connection is live at any
// time.
//
// Each Connect starts a session goroutine carrying an epoch number; all
// state mutation is epoch-guarded, so completions from a superseded
// session are no-ops. Connect and Disconnect serialize against each other
// and wait for the superseded session to fully stop, which means they
// must not be called from inside a consumer callback (the callback runs
// on the session goroutine being waited for).
type Manager struct {
	transport  Transport
	tokens     *TokenSource
	dispatcher *Dispatcher
	backoff    Backoff
	streamPath string
	logger     zerolog.Logger

	ctl sync.Mutex // serializes Connect/Disconnect

	mu          sync.Mutex
	state       State
	retryCount  int
	lastEventAt time.Time
	epoch       uint64
	conn        Conn
	cancel      context.CancelFunc
	done        chan struct{}
	listener    StateListener
}

// NewManager creates a disconnected manager. Call Connect to start.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		transport:  cfg.Transport,
		tokens:     cfg.Tokens,
		dispatcher: cfg.Dispatcher,
		backoff:    cfg.Backoff,
		streamPath: cfg.StreamPath,
		logger:     logging.WithComponent("stream"),
		state:      StateDisconnected,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RetryCount returns the current retry counter: zero after every
// successful open, incremented on every scheduled retry.
func (m *Manager) RetryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retryCount
}

// LastEventAt returns the arrival time of the most recent frame or
// keepalive, or the zero time if nothing has arrived yet.
func (m *Manager) LastEventAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastEventAt
}

// TransportName returns the configured transport kind.
func (m *Manager) TransportName() string {
	return m.transport.Name()
}

// SetStateListener registers the optional transition observer, replacing
// any previous one. Pass nil to remove. The listener runs synchronously
// on the transitioning goroutine and must return quickly.
func (m *Manager) SetStateListener(fn StateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = fn
}

// Connect starts (or restarts) the stream. Any pending retry is
// cancelled and any live connection is closed; the superseded session
// fully stops before the new one begins, so no two physical connections
// are ever open at once. Safe to call in any state.
func (m *Manager) Connect() {
	m.ctl.Lock()
	defer m.ctl.Unlock()

	// Supersede first: the stopping session's completions become no-ops
	// even before it notices cancellation.
	m.mu.Lock()
	m.epoch++
	epoch := m.epoch
	m.mu.Unlock()

	m.stopSession()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	notify := m.transitionLocked(StateConnecting)
	m.mu.Unlock()
	notify()

	go m.run(ctx, epoch, done)
}

// Disconnect stops the stream: cancels a pending retry, closes the live
// connection, and settles in Disconnected. Idempotent.
func (m *Manager) Disconnect() {
	m.ctl.Lock()
	defer m.ctl.Unlock()

	m.mu.Lock()
	m.epoch++
	m.mu.Unlock()

	m.stopSession()

	m.mu.Lock()
	notify := m.transitionLocked(StateDisconnected)
	m.mu.Unlock()
	notify()
}

// stopSession cancels the current session, closes its connection to
// unblock a pending Read, and waits for the session goroutine to exit.
// No-op when nothing is running.
func (m *Manager) stopSession() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	conn := m.conn
	m.cancel = nil
	m.done = nil
	m.conn = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if done != nil {
		<-done
	}
}

// run is the session loop: exchange credentials, open the transport, read
// frames until the connection dies, back off, repeat. Exits when the
// session context is cancelled or the epoch is superseded.
func (m *Manager) run(ctx context.Context, epoch uint64, done chan struct{}) {
	defer close(done)

	for {
		if !m.setState(epoch, StateConnecting) {
			return
		}

		url, err := m.tokens.ConnectURL(ctx, m.streamPath)
		var conn Conn
		if err == nil {
			conn, err = m.transport.Open(ctx, url)
		}
		metrics.RecordConnectAttempt(err)

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn().
				Str("url", logging.RedactURL(url)).
				Str("error", logging.SanitizeError(err.Error())).
				Msg("stream connection attempt failed")
			if !m.waitRetry(ctx, epoch) {
				return
			}
			continue
		}

		if !m.adopt(epoch, conn) {
			_ = conn.Close()
			return
		}
		m.logger.Info().
			Str("transport", m.transport.Name()).
			Str("url", logging.RedactURL(url)).
			Msg("stream connected")

		err = m.readLoop(epoch, conn)

		// The manager, not the transport, owns teardown of a failed
		// connection.
		_ = conn.Close()
		m.release(epoch, conn)

		if ctx.Err() != nil || errors.Is(err, errSuperseded) {
			return
		}
		m.logger.Warn().
			Str("error", logging.SanitizeError(err.Error())).
			Msg("stream connection lost")
		if !m.waitRetry(ctx, epoch) {
			return
		}
	}
}

// readLoop reads frames until the connection errors. Keepalives refresh
// liveness without dispatching; every other frame goes to the dispatcher
// in arrival order.
func (m *Manager) readLoop(epoch uint64, conn Conn) error {
	for {
		frame, err := conn.Read()
		if err != nil {
			return err
		}
		if !m.touch(epoch) {
			return errSuperseded
		}
		if frame.Keepalive() {
			continue
		}
		m.dispatcher.Dispatch(frame)
	}
}

// waitRetry schedules and waits out one backoff delay. Returns false when
// the session should stop instead of retrying.
func (m *Manager) waitRetry(ctx context.Context, epoch uint64) bool {
	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		return false
	}
	delay := m.backoff.Delay(m.retryCount)
	m.retryCount++
	attempt := m.retryCount
	notify := m.transitionLocked(StateRetrying)
	m.mu.Unlock()
	notify()
	metrics.RecordRetry()

	m.logger.Info().
		Dur("delay", delay).
		Int("attempt", attempt).
		Msg("stream reconnect scheduled")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// adopt installs a freshly opened connection for the given epoch,
// resetting the retry counter. Returns false when the epoch is stale, in
// which case the caller closes the connection and exits.
func (m *Manager) adopt(epoch uint64, conn Conn) bool {
	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		return false
	}
	m.conn = conn
	m.retryCount = 0
	notify := m.transitionLocked(StateConnected)
	m.mu.Unlock()
	notify()
	return true
}

// release clears the stored connection if it is still the one installed
// for this epoch.
func (m *Manager) release(epoch uint64, conn Conn) {
	m.mu.Lock()
	if epoch == m.epoch && m.conn == conn {
		m.conn = nil
	}
	m.mu.Unlock()
}

// touch refreshes the liveness timestamp. Returns false when the epoch is
// stale, signalling the session to stop without dispatching.
func (m *Manager) touch(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return false
	}
	m.lastEventAt = time.Now()
	return true
}

// setState transitions the state machine if the epoch is current.
func (m *Manager) setState(epoch uint64, to State) bool {
	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		return false
	}
	notify := m.transitionLocked(to)
	m.mu.Unlock()
	notify()
	return true
}

// transitionLocked updates the state and returns the notification to run
// after the mutex is released (metrics, log, listener). Self-transitions
// return a no-op. Callers must hold mu.
func (m *Manager) transitionLocked(to State) func() {
	from := m.state
	if from == to {
		return func() {}
	}
	m.state = to
	listener := m.listener
	return func() {
		metrics.RecordStateTransition(from.String(), to.String())
		m.logger.Debug().
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("stream state changed")
		if listener != nil {
			listener(from, to)
		}
	}
}
