// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/jang1563/bioteam-ai-sub001/internal/config"
	"github.com/jang1563/bioteam-ai-sub001/internal/models"
)

func newTestClient(serverURL, credential string) *Client {
	return NewClient(config.APIConfig{
		BaseURL:    serverURL,
		Credential: credential,
		Timeout:    5 * time.Second,
	})
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantURL string
	}{
		{
			name:    "basic URL",
			baseURL: "https://api.bioteam.example",
			wantURL: "https://api.bioteam.example",
		},
		{
			name:    "URL with trailing slash",
			baseURL: "https://api.bioteam.example/",
			wantURL: "https://api.bioteam.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(tt.baseURL, "cred")
			if client.BaseURL() != tt.wantURL {
				t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), tt.wantURL)
			}
			if !client.HasCredential() {
				t.Error("HasCredential() = false, want true")
			}
		})
	}
}

func TestClientDoGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/workflows" {
			t.Errorf("path = %q, want /api/v1/workflows", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want application/json", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"workflows": [
			{"id": "wf-1", "name": "genome-assembly", "status": "running"},
			{"id": "wf-2", "name": "variant-calling", "status": "completed"}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")

	var list models.WorkflowList
	if err := client.Do(context.Background(), http.MethodGet, "/api/v1/workflows", nil, &list); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if len(list.Workflows) != 2 {
		t.Fatalf("len(Workflows) = %d, want 2", len(list.Workflows))
	}
	if list.Workflows[0].ID != "wf-1" {
		t.Errorf("Workflows[0].ID = %q, want wf-1", list.Workflows[0].ID)
	}
	if list.Workflows[1].Status != "completed" {
		t.Errorf("Workflows[1].Status = %q, want completed", list.Workflows[1].Status)
	}
}

func TestClientDoPostBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}

		var req models.TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if req.Path != "/api/v1/events/stream" {
			t.Errorf("request path field = %q, want /api/v1/events/stream", req.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token": "scoped-token-abc"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "long-lived")

	var resp models.TokenResponse
	body := models.TokenRequest{Path: "/api/v1/events/stream"}
	if err := client.Do(context.Background(), http.MethodPost, "/api/v1/stream/token", body, &resp); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.Token != "scoped-token-abc" {
		t.Errorf("Token = %q, want scoped-token-abc", resp.Token)
	}
}

func TestClientDoBearerAuth(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		wantHeader string
	}{
		{
			name:       "credential configured",
			credential: "my-credential",
			wantHeader: "Bearer my-credential",
		},
		{
			name:       "anonymous",
			credential: "",
			wantHeader: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			client := newTestClient(server.URL, tt.credential)
			if err := client.Do(context.Background(), http.MethodGet, "/ping", nil, nil); err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if gotAuth != tt.wantHeader {
				t.Errorf("Authorization = %q, want %q", gotAuth, tt.wantHeader)
			}
		})
	}
}

func TestClientDoErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"code": "workflow_not_found", "message": "no such workflow"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")

	err := client.Do(context.Background(), http.MethodGet, "/api/v1/workflows/missing", nil, nil)
	if err == nil {
		t.Fatal("Do() error = nil, want *StatusError")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error type = %T, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
	if statusErr.Code != "workflow_not_found" {
		t.Errorf("Code = %q, want workflow_not_found", statusErr.Code)
	}
	if statusErr.Message != "no such workflow" {
		t.Errorf("Message = %q, want %q", statusErr.Message, "no such workflow")
	}
	if statusErr.IsAuthFailure() {
		t.Error("IsAuthFailure() = true for 404, want false")
	}
}

func TestClientDoErrorWithoutEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		body        string
		wantMessage string
	}{
		{
			name:        "plain text body",
			statusCode:  http.StatusInternalServerError,
			body:        "something broke",
			wantMessage: "something broke",
		},
		{
			name:        "empty body falls back to status text",
			statusCode:  http.StatusBadGateway,
			body:        "",
			wantMessage: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL, "")

			err := client.Do(context.Background(), http.MethodGet, "/boom", nil, nil)
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("error type = %T, want *StatusError", err)
			}
			if statusErr.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, tt.statusCode)
			}
			if statusErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", statusErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestClientDoAuthFailureHandler(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "stale-credential")

	var fired atomic.Int32
	client.OnAuthFailure(func() { fired.Add(1) })

	// Each failing call fires the handler exactly once
	_ = client.Do(context.Background(), http.MethodGet, "/a", nil, nil)
	if got := fired.Load(); got != 1 {
		t.Errorf("handler fired %d times after one 401, want 1", got)
	}

	_ = client.Do(context.Background(), http.MethodGet, "/b", nil, nil)
	if got := fired.Load(); got != 2 {
		t.Errorf("handler fired %d times after two 401s, want 2", got)
	}

	// 403 also fires
	status.Store(http.StatusForbidden)
	_ = client.Do(context.Background(), http.MethodGet, "/c", nil, nil)
	if got := fired.Load(); got != 3 {
		t.Errorf("handler fired %d times after 403, want 3", got)
	}

	// Non-auth failures do not fire
	status.Store(http.StatusInternalServerError)
	_ = client.Do(context.Background(), http.MethodGet, "/d", nil, nil)
	if got := fired.Load(); got != 3 {
		t.Errorf("handler fired %d times after 500, want 3", got)
	}

	// Auth failures still return a StatusError to the caller
	status.Store(http.StatusUnauthorized)
	err := client.Do(context.Background(), http.MethodGet, "/e", nil, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || !statusErr.IsAuthFailure() {
		t.Errorf("auth failure error = %v, want auth *StatusError", err)
	}
}

func TestClientDoNoHandlerRegistered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "cred")

	// Must not panic without a registered handler
	if err := client.Do(context.Background(), http.MethodGet, "/x", nil, nil); err == nil {
		t.Error("Do() error = nil, want *StatusError")
	}
}

func TestClientDoContextCancelled(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := newTestClient(server.URL, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Do(ctx, http.MethodGet, "/slow", nil, nil)
	if err == nil {
		t.Fatal("Do() with cancelled context should fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
}

func TestClientDoNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")

	// Decoding must be skipped for 204 even with a non-nil target
	var out models.WorkflowList
	if err := client.Do(context.Background(), http.MethodPost, "/api/v1/activity/clear", nil, &out); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(out.Workflows) != 0 {
		t.Errorf("out mutated on 204: %+v", out)
	}
}

func TestClientDoMalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"workflows": [`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")

	var out models.WorkflowList
	if err := client.Do(context.Background(), http.MethodGet, "/api/v1/workflows", nil, &out); err == nil {
		t.Error("Do() with truncated JSON body should fail")
	}
}

func TestStatusErrorFormat(t *testing.T) {
	withCode := &StatusError{StatusCode: 404, Code: "not_found", Message: "gone"}
	if got := withCode.Error(); got != "api: status 404 (not_found): gone" {
		t.Errorf("Error() = %q", got)
	}

	withoutCode := &StatusError{StatusCode: 500, Message: "oops"}
	if got := withoutCode.Error(); got != "api: status 500: oops" {
		t.Errorf("Error() = %q", got)
	}
}
