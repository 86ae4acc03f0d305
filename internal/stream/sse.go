// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"time"
)

const (
	sseContentType = "text/event-stream"

	// Open-phase timeouts. The established stream body deliberately has no
	// read deadline: server keepalive comments are the liveness signal, and
	// a dead TCP connection surfaces as a read error.
	sseDialTimeout   = 10 * time.Second
	sseHeaderTimeout = 15 * time.Second

	// defaultFrameName is assigned to frames whose event field is absent.
	defaultFrameName = "message"
)

// SSETransport opens Server-Sent Events connections: a long-lived HTTP GET
// whose body is a stream of event/data blocks separated by blank lines.
type SSETransport struct {
	client *http.Client
}

// NewSSETransport creates the SSE transport. The underlying HTTP client
// bounds the dial and response-header phases but never the body read.
func NewSSETransport() *SSETransport {
	return &SSETransport{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: sseDialTimeout,
				}).DialContext,
				TLSHandshakeTimeout:   sseDialTimeout,
				ResponseHeaderTimeout: sseHeaderTimeout,
			},
		},
	}
}

// Name returns "sse".
func (t *SSETransport) Name() string {
	return TransportSSE
}

// Open issues the streaming GET and validates the response. The context
// covers the request; the returned Conn owns the response body.
func (t *SSETransport) Open(ctx context.Context, url string) (Conn, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building stream request: %w", err)
	}
	req.Header.Set("Accept", sseContentType)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("stream endpoint returned status %d", resp.StatusCode)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != sseContentType {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("stream endpoint returned content type %q, want %q",
			resp.Header.Get("Content-Type"), sseContentType)
	}

	return &sseConn{
		body:   resp.Body,
		reader: bufio.NewReader(resp.Body),
	}, nil
}

// sseConn reads one SSE stream. Not safe for concurrent Read calls; the
// manager's session goroutine is the only reader.
type sseConn struct {
	body   io.ReadCloser
	reader *bufio.Reader
}

// Read parses the next block from the stream.
//
// Field handling follows the SSE wire format: "event:" names the frame,
// "data:" lines accumulate (joined with newlines), a blank line emits the
// pending frame, and unknown fields (id, retry) are ignored. A comment
// line (leading ':') is a server keepalive and is returned immediately as
// a keepalive Frame so the caller can track liveness. Blocks with no data
// are dropped. Line endings may be LF or CRLF.
func (c *sseConn) Read() (Frame, error) {
	var (
		name string
		data [][]byte
	)

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			// A final unterminated block is discarded with the stream;
			// re-delivery after reconnect is the server's concern.
			return Frame{}, fmt.Errorf("reading stream: %w", err)
		}

		line = bytes.TrimRight(line, "\r\n")

		switch {
		case len(line) == 0:
			if len(data) > 0 {
				if name == "" {
					name = defaultFrameName
				}
				return Frame{Name: name, Data: bytes.Join(data, []byte("\n"))}, nil
			}
			// Block had no data (bare event name or dangling separator).
			name = ""
			data = nil

		case line[0] == ':':
			return Frame{}, nil // keepalive comment

		default:
			field, value := splitSSEField(line)
			switch field {
			case "event":
				name = string(value)
			case "data":
				data = append(data, value)
			}
		}
	}
}

// Close tears the connection down, unblocking a pending Read.
func (c *sseConn) Close() error {
	return c.body.Close()
}

// splitSSEField splits "field: value" at the first colon, trimming the
// single optional space after it.
func splitSSEField(line []byte) (string, []byte) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return string(line), nil
	}
	value := line[idx+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return string(line[:idx]), value
}
