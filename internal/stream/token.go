// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/jang1563/bioteam-ai-sub001/internal/api"
	"github.com/jang1563/bioteam-ai-sub001/internal/logging"
	"github.com/jang1563/bioteam-ai-sub001/internal/metrics"
	"github.com/jang1563/bioteam-ai-sub001/internal/models"
)

// TokenSource builds the connection URL for one stream attempt, exchanging
// the long-lived credential for a short-lived stream token when possible.
//
// The exchange runs on every attempt and is never cached: stream tokens
// carry an implicit expiry, and a token minted for a connection that later
// died may already be stale by the time the retry fires.
type TokenSource struct {
	client    *api.Client
	tokenPath string
	logger    zerolog.Logger
}

// NewTokenSource creates a token source exchanging credentials at the
// given token path (e.g. "/api/v1/stream/token").
func NewTokenSource(client *api.Client, tokenPath string) *TokenSource {
	return &TokenSource{
		client:    client,
		tokenPath: tokenPath,
		logger:    logging.WithComponent("stream"),
	}
}

// ConnectURL returns the absolute URL for a new connection to streamPath.
//
// Three outcomes, in order of preference:
//   - no credential configured: the bare URL (anonymous stream)
//   - exchange succeeds: URL with the scoped token as the token query
//     parameter
//   - exchange fails: URL with the raw long-lived credential as the token
//     query parameter (backward-compatibility fallback, not an error)
//
// The only error case is an unbuildable URL, which the caller treats as a
// failed connection attempt.
func (ts *TokenSource) ConnectURL(ctx context.Context, streamPath string) (string, error) {
	base := ts.client.BaseURL() + streamPath

	if !ts.client.HasCredential() {
		metrics.RecordTokenExchange("anonymous")
		return base, nil
	}

	var resp models.TokenResponse
	err := ts.client.Do(ctx, http.MethodPost, ts.tokenPath, models.TokenRequest{Path: streamPath}, &resp)
	if err == nil && resp.Token != "" {
		metrics.RecordTokenExchange("exchanged")
		return appendToken(base, resp.Token)
	}

	if err != nil {
		ts.logger.Warn().
			Str("error", logging.SanitizeError(err.Error())).
			Str("token_path", ts.tokenPath).
			Msg("stream token exchange failed, falling back to raw credential")
	} else {
		ts.logger.Warn().
			Str("token_path", ts.tokenPath).
			Msg("stream token exchange returned empty token, falling back to raw credential")
	}
	metrics.RecordTokenExchange("fallback")
	return appendToken(base, ts.client.Credential())
}

// appendToken adds token as the token query parameter of rawURL.
func appendToken(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid stream URL: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
