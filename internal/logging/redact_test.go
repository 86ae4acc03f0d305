// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package logging

import (
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"empty", "", ""},
		{"short fully masked", "abc123", "***"},
		{"boundary fully masked", "123456789012", "***"},
		{"long keeps edges", "secret-token-0123456789", "secr...6789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.want {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestRedactURL(t *testing.T) {
	raw := "https://api.bioteam.example/api/v1/events/stream?token=stream-token-abcdef123456"

	got := RedactURL(raw)

	if strings.Contains(got, "stream-token-abcdef123456") {
		t.Errorf("RedactURL leaked the full token: %s", got)
	}
	if !strings.Contains(got, "stre...3456") {
		t.Errorf("RedactURL should keep masked token edges, got: %s", got)
	}
	if !strings.Contains(got, "/api/v1/events/stream") {
		t.Errorf("RedactURL should preserve the path, got: %s", got)
	}
}

func TestRedactURLNoToken(t *testing.T) {
	raw := "https://api.bioteam.example/api/v1/events/stream"

	if got := RedactURL(raw); got != raw {
		t.Errorf("RedactURL without credentials should be a no-op, got: %s", got)
	}
}

func TestRedactURLUnparseable(t *testing.T) {
	if got := RedactURL("http://bad url\x7f?token=secret-value-123"); got != "***" {
		t.Errorf("unparseable URL should be fully masked, got: %s", got)
	}
}

func TestRedactURLEmpty(t *testing.T) {
	if got := RedactURL(""); got != "" {
		t.Errorf("RedactURL(\"\") = %q, want empty", got)
	}
}

func TestSanitizeError(t *testing.T) {
	if got := SanitizeError("invalid bearer header"); got != "credential error (details redacted)" {
		t.Errorf("credential-bearing error should be replaced, got: %q", got)
	}

	plain := "dial tcp 127.0.0.1:9999: connection refused"
	if got := SanitizeError(plain); got != plain {
		t.Errorf("transport error should pass through, got: %q", got)
	}

	long := strings.Repeat("x", 300)
	if got := SanitizeError(long); len(got) != 203 {
		t.Errorf("overlong error should be truncated to 200+ellipsis, got len %d", len(got))
	}
}
