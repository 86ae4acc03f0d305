// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package logging

import (
	"net/url"
	"strings"
)

// Credential-bearing query parameters masked by RedactURL.
var sensitiveQueryParams = []string{"token", "credential", "api_key"}

// SanitizeToken masks a token or credential, showing only the first and last
// four characters. Values of twelve characters or fewer are fully masked.
// Example: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9" -> "eyJh...VCJ9"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// RedactURL masks credential-bearing query parameters in a URL so connection
// targets can be logged safely. Stream URLs carry the stream token (or the
// raw credential fallback) in the token parameter; that value must never
// reach a log sink in full.
//
// Example:
//
//	RedactURL("https://api.example/stream?token=secret0123456789")
//	// "https://api.example/stream?token=secr...6789"
//
// Unparseable URLs are fully masked rather than passed through.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}

	q := u.Query()
	changed := false
	for _, param := range sensitiveQueryParams {
		if vals, ok := q[param]; ok {
			for i := range vals {
				vals[i] = SanitizeToken(vals[i])
			}
			q[param] = vals
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}

	return u.String()
}

// SanitizeError strips likely-sensitive error text before it reaches a log
// sink, truncating anything overlong. Errors mentioning credentials are
// replaced wholesale; transport errors pass through.
func SanitizeError(msg string) string {
	lower := strings.ToLower(msg)
	for _, pattern := range []string{"password", "secret", "bearer", "authorization"} {
		if strings.Contains(lower, pattern) {
			return "credential error (details redacted)"
		}
	}
	return truncateString(msg, 200)
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
