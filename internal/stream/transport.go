// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package stream

import (
	"context"
	"fmt"
)

// Transport kind names accepted by stream.transport config.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// Frame is one named event read off the wire, before any decoding.
// A frame with an empty Name is a transport keepalive: it proves the
// connection is alive but carries nothing to dispatch. Real frames always
// have a name; unnamed wire events default to "message".
type Frame struct {
	Name string
	Data []byte
}

// Keepalive reports whether the frame is a liveness tick rather than an
// event to dispatch.
func (f Frame) Keepalive() bool {
	return f.Name == ""
}

// Conn is one physical connection to the stream endpoint.
//
// Read blocks until the next frame arrives or the connection dies; Close
// tears the connection down, which unblocks a pending Read with an error.
// Conns never reconnect on their own: retry policy belongs to the
// connection manager.
type Conn interface {
	Read() (Frame, error)
	Close() error
}

// Transport opens physical connections to a stream URL. Implementations
// are stateless and reusable across attempts; each Open returns an
// independent Conn.
type Transport interface {
	// Open dials the stream endpoint. The context covers the dial and
	// handshake only; cancelling it after Open returns does not close
	// the Conn.
	Open(ctx context.Context, url string) (Conn, error)

	// Name returns the transport kind for logs and the status endpoint.
	Name() string
}

// NewTransport returns the transport for the configured kind, one of
// TransportSSE or TransportWebSocket.
func NewTransport(kind string) (Transport, error) {
	switch kind {
	case TransportSSE:
		return NewSSETransport(), nil
	case TransportWebSocket:
		return NewWebSocketTransport(), nil
	default:
		return nil, fmt.Errorf("unknown stream transport %q", kind)
	}
}
