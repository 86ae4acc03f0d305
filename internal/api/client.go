// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

// Package api provides the control-plane HTTP client shared by the stream
// credential exchange and the workflow refresher.
//
// The client speaks JSON both ways, sends the long-lived credential as a
// Bearer token when one is configured, and converts non-2xx responses into
// typed *StatusError values carrying the control plane's error envelope.
// 401/403 responses additionally fire a registered authentication-failure
// handler; callers treat those like any other request failure.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/jang1563/bioteam-ai-sub001/internal/config"
	"github.com/jang1563/bioteam-ai-sub001/internal/logging"
	"github.com/jang1563/bioteam-ai-sub001/internal/metrics"
	"github.com/jang1563/bioteam-ai-sub001/internal/models"
)

// maxErrorBodyBytes bounds how much of an error response body is read when
// decoding the error envelope.
const maxErrorBodyBytes = 64 << 10 // 64KB

// Client is the control-plane HTTP client.
//
// Thread Safety: all methods are safe for concurrent use. The auth-failure
// handler is read under a mutex; Do never holds it while the handler runs.
type Client struct {
	baseURL    string
	credential string
	httpClient *http.Client
	logger     zerolog.Logger

	mu          sync.RWMutex
	authFailure func()
}

// NewClient creates a control-plane client from API configuration.
// The base URL is normalized (trailing slash removed).
func NewClient(cfg config.APIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		credential: cfg.Credential,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.WithComponent("api"),
	}
}

// BaseURL returns the normalized control-plane base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Credential returns the configured long-lived credential. Empty means the
// client operates anonymously. The stream credential exchange uses this for
// its raw-credential fallback.
func (c *Client) Credential() string {
	return c.credential
}

// HasCredential reports whether a long-lived credential is configured.
func (c *Client) HasCredential() bool {
	return c.credential != ""
}

// OnAuthFailure registers a handler invoked whenever the control plane
// responds 401 or 403. The handler runs synchronously after the response is
// classified, so it must return quickly. Passing nil removes the handler.
func (c *Client) OnAuthFailure(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authFailure = fn
}

// Do performs one JSON request against the control plane.
//
// Parameters:
//   - method: HTTP method (http.MethodGet, http.MethodPost, ...)
//   - path: request path joined to the base URL, e.g. "/api/v1/workflows"
//   - body: optional request payload, JSON-encoded when non-nil
//   - out: optional response target, JSON-decoded from 2xx bodies when non-nil
//
// Returns nil on 2xx. Non-2xx responses return a *StatusError; transport
// failures return the wrapped underlying error. On 401/403 the registered
// auth-failure handler fires once per failing call before Do returns.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.credential != "" {
		req.Header.Set("Authorization", "Bearer "+c.credential)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIClientRequest(method, path, 0, time.Since(start))
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordAPIClientRequest(method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// statusError converts a non-2xx response into a *StatusError, decoding the
// error envelope when present and firing the auth-failure handler on 401/403.
func (c *Client) statusError(method, path string, resp *http.Response) error {
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	statusErr := &StatusError{StatusCode: resp.StatusCode}

	var envelope models.ErrorEnvelope
	if readErr == nil && len(raw) > 0 && json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil {
		statusErr.Code = envelope.Error.Code
		statusErr.Message = envelope.Error.Message
	} else {
		statusErr.Message = strings.TrimSpace(string(raw))
		if len(statusErr.Message) > 200 {
			statusErr.Message = statusErr.Message[:200]
		}
	}
	if statusErr.Message == "" {
		statusErr.Message = http.StatusText(resp.StatusCode)
	}

	if statusErr.IsAuthFailure() {
		metrics.RecordAuthFailure()
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("control plane rejected credentials")
		c.fireAuthFailure()
	} else {
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("code", statusErr.Code).
			Msg("control plane request failed")
	}

	return statusErr
}

// fireAuthFailure invokes the registered handler, if any, without holding
// the client mutex.
func (c *Client) fireAuthFailure() {
	c.mu.RLock()
	handler := c.authFailure
	c.mu.RUnlock()

	if handler != nil {
		handler()
	}
}
