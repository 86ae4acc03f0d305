// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package ops

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jang1563/bioteam-ai-sub001/internal/activity"
	"github.com/jang1563/bioteam-ai-sub001/internal/logging"
	"github.com/jang1563/bioteam-ai-sub001/internal/stream"
)

// StatusResponse is the body of GET /api/v1/status.
//
// The selection fields mirror the activity store's viewer state: intervention
// events select their workflow and agent and raise the panel flag, and the
// terminal viewer picks that up from here.
type StatusResponse struct {
	State            string     `json:"state"`
	RetryCount       int        `json:"retry_count"`
	Transport        string     `json:"transport"`
	LastEventAt      *time.Time `json:"last_event_at"` // null until the first frame arrives
	ActivityLen      int        `json:"activity_len"`
	SelectedWorkflow string     `json:"selected_workflow,omitempty"`
	SelectedAgent    string     `json:"selected_agent,omitempty"`
	PanelVisible     bool       `json:"panel_visible"`
	InstanceID       string     `json:"instance_id"`
	UptimeSeconds    float64    `json:"uptime_seconds"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Alive         bool    `json:"alive"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyResponse is the body of GET /readyz.
type ReadyResponse struct {
	Ready bool   `json:"ready"`
	State string `json:"state"`
}

type handlers struct {
	status     StreamStatus
	store      *activity.Store
	startTime  time.Time
	instanceID string
}

func newHandlers(status StreamStatus, store *activity.Store) *handlers {
	return &handlers{
		status:     status,
		store:      store,
		startTime:  time.Now(),
		instanceID: uuid.NewString(),
	}
}

// handleHealthz reports liveness: 200 whenever the process runs.
func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Alive:         true,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// handleReadyz reports readiness: 200 only while the stream is connected.
func (h *handlers) handleReadyz(w http.ResponseWriter, r *http.Request) {
	state := h.status.State()
	code := http.StatusOK
	if state != stream.StateConnected {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, ReadyResponse{
		Ready: state == stream.StateConnected,
		State: state.String(),
	})
}

// handleStatus returns a point-in-time snapshot of the connection and the
// activity log.
func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	var lastEventPtr *time.Time
	if lastEvent := h.status.LastEventAt(); !lastEvent.IsZero() {
		lastEventPtr = &lastEvent
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		State:            h.status.State().String(),
		RetryCount:       h.status.RetryCount(),
		Transport:        h.status.TransportName(),
		LastEventAt:      lastEventPtr,
		ActivityLen:      h.store.Len(),
		SelectedWorkflow: h.store.SelectedWorkflow(),
		SelectedAgent:    h.store.SelectedAgent(),
		PanelVisible:     h.store.PanelVisible(),
		InstanceID:       h.instanceID,
		UptimeSeconds:    time.Since(h.startTime).Seconds(),
	})
}

// handleActivity returns the activity snapshot most-recent-first, optionally
// truncated by ?limit=.
func (h *handlers) handleActivity(w http.ResponseWriter, r *http.Request) {
	events := h.store.Events()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit < len(events) {
			events = events[:limit]
		}
	}

	writeJSON(w, http.StatusOK, events)
}

// handleActivityClear empties the activity log.
func (h *handlers) handleActivityClear(w http.ResponseWriter, r *http.Request) {
	h.store.ClearEvents()
	logging.Ctx(r.Context()).Info().Msg("activity log cleared via ops endpoint")
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode ops response")
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}
