// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package models

// APIError is the error detail carried by control-plane error responses.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorEnvelope is the body shape of non-2xx control-plane responses.
type ErrorEnvelope struct {
	Error *APIError `json:"error,omitempty"`
}

// TokenRequest is the body of the stream-token exchange call. Path names the
// stream resource the requested token is scoped to.
type TokenRequest struct {
	Path string `json:"path"`
}

// TokenResponse carries the short-lived stream token returned by the
// exchange endpoint. Tokens are opaque to this client and never persisted.
type TokenResponse struct {
	Token string `json:"token"`
}
