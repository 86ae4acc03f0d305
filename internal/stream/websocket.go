// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package stream

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/jang1563/bioteam-ai-sub001/internal/logging"
	"github.com/jang1563/bioteam-ai-sub001/internal/metrics"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsCloseGraceWait   = 1 * time.Second
	wsMaxMessageSize   = 512 * 1024 // 512 KB
)

// wsEnvelope is the wire shape of one WebSocket text message: the logical
// frame name plus its JSON payload.
type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WebSocketTransport opens WebSocket connections carrying the same logical
// frames as the SSE stream, one JSON envelope per text message.
type WebSocketTransport struct {
	dialer *websocket.Dialer
}

// NewWebSocketTransport creates the WebSocket transport.
func NewWebSocketTransport() *WebSocketTransport {
	return &WebSocketTransport{
		dialer: &websocket.Dialer{
			HandshakeTimeout: wsHandshakeTimeout,
		},
	}
}

// Name returns "websocket".
func (t *WebSocketTransport) Name() string {
	return TransportWebSocket
}

// Open dials the stream URL with its scheme mapped to ws/wss. Pings from
// the server are answered automatically by the connection's default ping
// handler.
func (t *WebSocketTransport) Open(ctx context.Context, rawURL string) (Conn, error) {
	wsURL, err := toWebSocketURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, resp, err := t.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("websocket dial returned status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	conn.SetReadLimit(wsMaxMessageSize)
	return &wsConn{conn: conn, logger: logging.WithComponent("stream")}, nil
}

// toWebSocketURL converts an http(s) URL to its ws(s) equivalent, leaving
// path and query untouched.
func toWebSocketURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid stream URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// Already a websocket URL.
	default:
		u.Scheme = "ws"
	}

	return u.String(), nil
}

// wsConn reads one WebSocket stream. Not safe for concurrent Read calls.
type wsConn struct {
	conn   *websocket.Conn
	logger zerolog.Logger
}

// Read returns the next decoded frame. Non-text messages are skipped;
// text messages that are not valid envelopes are counted as malformed and
// skipped, never surfaced as connection errors.
func (c *wsConn) Read() (Frame, error) {
	for {
		msgType, payload, err := c.conn.ReadMessage()
		if err != nil {
			return Frame{}, fmt.Errorf("reading websocket message: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var env wsEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			metrics.RecordEventDiscarded("malformed")
			c.logger.Debug().Msg("discarding undecodable websocket envelope")
			continue
		}

		name := env.Event
		if name == "" {
			name = defaultFrameName
		}
		return Frame{Name: name, Data: env.Data}, nil
	}
}

// Close sends a best-effort close frame and tears the connection down,
// unblocking a pending Read.
func (c *wsConn) Close() error {
	deadline := time.Now().Add(wsCloseGraceWait)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.conn.Close()
}
