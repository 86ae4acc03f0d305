// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package testinfra

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/jang1563/bioteam-ai-sub001/internal/models"
)

const (
	// DefaultStreamPath is where the fake serves the SSE event stream.
	DefaultStreamPath = "/api/v1/events/stream"

	// DefaultTokenPath is where the fake mints stream tokens.
	DefaultTokenPath = "/api/v1/stream/token"

	// DefaultWorkflowsPath is where the fake serves the workflow collection.
	DefaultWorkflowsPath = "/api/v1/workflows"
)

// ControlPlane is an in-process fake of the BioTeam AI control plane:
// a stream-token endpoint, an SSE event stream, and a workflow collection
// endpoint, enough to drive the full daemon pipeline in tests.
//
// Example:
//
//	cp := testinfra.NewControlPlane()
//	defer cp.Close()
//
//	// Point an api.Client at cp.URL(), connect a stream.Manager, then:
//	cp.Emit(models.StreamEvent{EventType: models.EventWorkflowCompleted, WorkflowID: "wf-1"})
//	cp.DropStreams() // force a reconnect
type ControlPlane struct {
	server *httptest.Server

	streamPath    string
	tokenPath     string
	workflowsPath string

	tokenExchanges  atomic.Int64
	streamConnects  atomic.Int64
	workflowFetches atomic.Int64
	failTokens      atomic.Bool

	mu              sync.Mutex
	clients         map[*streamClient]struct{}
	workflows       []models.Workflow
	lastStreamToken string
}

// streamClient is one live SSE subscriber inside the fake.
type streamClient struct {
	ch       chan string
	done     chan struct{}
	dropOnce sync.Once
}

func (c *streamClient) drop() {
	c.dropOnce.Do(func() { close(c.done) })
}

// ControlPlaneOption configures the fake control plane.
type ControlPlaneOption func(*ControlPlane)

// WithStreamPath overrides the SSE stream path.
func WithStreamPath(path string) ControlPlaneOption {
	return func(cp *ControlPlane) { cp.streamPath = path }
}

// WithTokenPath overrides the token exchange path.
func WithTokenPath(path string) ControlPlaneOption {
	return func(cp *ControlPlane) { cp.tokenPath = path }
}

// WithWorkflowsPath overrides the workflow collection path.
func WithWorkflowsPath(path string) ControlPlaneOption {
	return func(cp *ControlPlane) { cp.workflowsPath = path }
}

// NewControlPlane starts the fake. Call Close when done.
func NewControlPlane(opts ...ControlPlaneOption) *ControlPlane {
	cp := &ControlPlane{
		streamPath:    DefaultStreamPath,
		tokenPath:     DefaultTokenPath,
		workflowsPath: DefaultWorkflowsPath,
		clients:       make(map[*streamClient]struct{}),
	}
	for _, opt := range opts {
		opt(cp)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cp.tokenPath, cp.handleToken)
	mux.HandleFunc(cp.streamPath, cp.handleStream)
	mux.HandleFunc(cp.workflowsPath, cp.handleWorkflows)
	cp.server = httptest.NewServer(mux)
	return cp
}

// URL returns the fake's base URL.
func (cp *ControlPlane) URL() string {
	return cp.server.URL
}

// Close drops live streams and shuts the server down.
func (cp *ControlPlane) Close() {
	cp.DropStreams()
	cp.server.Close()
}

// Emit broadcasts one event to every live stream connection. Events for
// clients with a full buffer are dropped rather than blocking the caller.
func (cp *ControlPlane) Emit(event models.StreamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		panic(fmt.Sprintf("testinfra: cannot marshal event: %v", err))
	}
	cp.broadcast(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, data))
}

// EmitKeepalive broadcasts an SSE comment line, the server-side liveness
// signal.
func (cp *ControlPlane) EmitKeepalive() {
	cp.broadcast(": keepalive\n\n")
}

func (cp *ControlPlane) broadcast(msg string) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	for c := range cp.clients {
		select {
		case c.ch <- msg:
		default:
		}
	}
}

// DropStreams severs every live stream connection server-side, as a
// restarting or crashing control plane would.
func (cp *ControlPlane) DropStreams() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	for c := range cp.clients {
		c.drop()
	}
}

// SetWorkflows replaces the collection served by the workflows endpoint.
func (cp *ControlPlane) SetWorkflows(ws ...models.Workflow) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.workflows = ws
}

// FailTokenExchange makes the token endpoint return 500 (true) or behave
// normally (false), for exercising the raw-credential fallback.
func (cp *ControlPlane) FailTokenExchange(fail bool) {
	cp.failTokens.Store(fail)
}

// TokenExchanges returns how many exchange calls arrived.
func (cp *ControlPlane) TokenExchanges() int {
	return int(cp.tokenExchanges.Load())
}

// StreamConnects returns how many stream connections were accepted.
func (cp *ControlPlane) StreamConnects() int {
	return int(cp.streamConnects.Load())
}

// WorkflowFetches returns how many collection fetches arrived.
func (cp *ControlPlane) WorkflowFetches() int {
	return int(cp.workflowFetches.Load())
}

// LastStreamToken returns the token query parameter of the most recent
// stream connection, or "" for anonymous connections.
func (cp *ControlPlane) LastStreamToken() string {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.lastStreamToken
}

func (cp *ControlPlane) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if cp.failTokens.Load() {
		http.Error(w, "token service unavailable", http.StatusInternalServerError)
		return
	}
	n := cp.tokenExchanges.Add(1)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.TokenResponse{Token: fmt.Sprintf("st-%d", n)})
}

func (cp *ControlPlane) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := &streamClient{
		ch:   make(chan string, 64),
		done: make(chan struct{}),
	}
	cp.mu.Lock()
	cp.clients[client] = struct{}{}
	cp.lastStreamToken = r.URL.Query().Get("token")
	cp.mu.Unlock()
	defer func() {
		cp.mu.Lock()
		delete(cp.clients, client)
		cp.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	cp.streamConnects.Add(1)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case msg := <-client.ch:
			if _, err := io.WriteString(w, msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (cp *ControlPlane) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	cp.workflowFetches.Add(1)
	cp.mu.Lock()
	list := models.WorkflowList{Workflows: append([]models.Workflow(nil), cp.workflows...)}
	cp.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}
