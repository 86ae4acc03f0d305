// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package tui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jang1563/bioteam-ai-sub001/internal/api"
	"github.com/jang1563/bioteam-ai-sub001/internal/config"
	"github.com/jang1563/bioteam-ai-sub001/internal/models"
	"github.com/jang1563/bioteam-ai-sub001/internal/ops"
)

// Poller is the ops server surface the viewer polls. Satisfied by *Client;
// tests substitute fakes.
type Poller interface {
	Status(ctx context.Context) (ops.StatusResponse, error)
	Activity(ctx context.Context, limit int) ([]models.StreamEvent, error)
	ClearActivity(ctx context.Context) error
}

// Client polls the daemon's ops server.
type Client struct {
	api *api.Client
}

// NewClient creates a poll client for the ops server at baseURL, e.g.
// "http://127.0.0.1:8591".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		api: api.NewClient(config.APIConfig{BaseURL: baseURL, Timeout: timeout}),
	}
}

// Status fetches the daemon's connection and viewer-state snapshot.
func (c *Client) Status(ctx context.Context) (ops.StatusResponse, error) {
	var status ops.StatusResponse
	err := c.api.Do(ctx, http.MethodGet, "/api/v1/status", nil, &status)
	return status, err
}

// Activity fetches the activity snapshot, most recent first. A positive
// limit truncates server-side.
func (c *Client) Activity(ctx context.Context, limit int) ([]models.StreamEvent, error) {
	path := "/api/v1/activity"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var events []models.StreamEvent
	err := c.api.Do(ctx, http.MethodGet, path, nil, &events)
	return events, err
}

// ClearActivity empties the daemon's activity log.
func (c *Client) ClearActivity(ctx context.Context) error {
	return c.api.Do(ctx, http.MethodPost, "/api/v1/activity/clear", nil, nil)
}
