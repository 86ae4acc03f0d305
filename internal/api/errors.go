// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package api

import (
	"fmt"
	"net/http"
)

// StatusError is returned by Client.Do for any non-2xx response. Code and
// Message come from the control plane's error envelope when one is present;
// otherwise Message falls back to the response body or status text.
//
// Match with errors.As:
//
//	var statusErr *api.StatusError
//	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
//	    ...
//	}
type StatusError struct {
	StatusCode int    // HTTP status code
	Code       string // Machine-readable error code from the envelope, if any
	Message    string // Human-readable message
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// IsAuthFailure reports whether the response was 401 or 403.
func (e *StatusError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
