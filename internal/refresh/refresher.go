// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package refresh

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/jang1563/bioteam-ai-sub001/internal/activity"
	"github.com/jang1563/bioteam-ai-sub001/internal/api"
	"github.com/jang1563/bioteam-ai-sub001/internal/config"
	"github.com/jang1563/bioteam-ai-sub001/internal/logging"
	"github.com/jang1563/bioteam-ai-sub001/internal/metrics"
	"github.com/jang1563/bioteam-ai-sub001/internal/models"
)

const breakerName = "workflows-api"

// Refresher keeps the workflow collection in the activity store current.
// Its Consume consumer watches for workflow.* events and triggers an
// asynchronous re-fetch of the collection, coalesced by a rate limiter so
// an event burst causes one fetch, and guarded by a circuit breaker so a
// down API is not hammered.
//
// Every failure mode is logged and ignored: the refresher is strictly
// best-effort and must never affect stream health or the activity log.
type Refresher struct {
	client        *api.Client
	store         *activity.Store
	workflowsPath string
	timeout       time.Duration
	limiter       *rate.Limiter
	breaker       *gobreaker.CircuitBreaker[models.WorkflowList]
	logger        zerolog.Logger
}

// NewRefresher creates a refresher fetching cfg.WorkflowsPath through
// client and storing results in store.
//
// Circuit breaker configuration:
//   - opens after 3 consecutive fetch failures
//   - half-opens after 30 seconds, allowing a single probe
//   - counters reset after 1 minute in the closed state
func NewRefresher(cfg config.RefreshConfig, client *api.Client, store *activity.Store) *Refresher {
	logger := logging.WithComponent("refresh")

	// Start the breaker gauge at closed.
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[models.WorkflowList](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info().
				Str("breaker", name).
				Str("from", breakerStateString(from)).
				Str("to", breakerStateString(to)).
				Msg("workflow fetch circuit breaker state changed")
			metrics.RecordBreakerTransition(name, breakerStateString(from), breakerStateString(to))
		},
	})

	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Refresher{
		client:        client,
		store:         store,
		workflowsPath: cfg.WorkflowsPath,
		timeout:       timeout,
		limiter:       rate.NewLimiter(rate.Every(minInterval), 1),
		breaker:       breaker,
		logger:        logger,
	}
}

// Consume is the stream consumer: workflow-lifecycle events trigger a
// refresh, everything else is ignored. The fetch runs on its own
// goroutine so the dispatcher is never blocked; excess events inside the
// minimum interval are dropped (counted as throttled).
func (r *Refresher) Consume(e models.StreamEvent) {
	if !e.EventType.IsWorkflow() {
		return
	}
	if !r.limiter.Allow() {
		metrics.RecordRefresh(0, "throttled")
		return
	}
	go r.refresh()
}

// Refresh performs one immediate fetch, bypassing the rate limiter but
// not the breaker. Used for the initial load at startup.
func (r *Refresher) Refresh() {
	r.refresh()
}

// Serve runs the refresher as a supervised service: one initial fetch so
// the viewer has data before the first workflow event, then idle until
// shutdown. The event-driven path needs no goroutine of its own.
func (r *Refresher) Serve(ctx context.Context) error {
	r.refresh()
	<-ctx.Done()
	return ctx.Err()
}

// String names the service in supervisor logs.
func (r *Refresher) String() string {
	return "workflow-refresher"
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	list, err := r.breaker.Execute(func() (models.WorkflowList, error) {
		var list models.WorkflowList
		err := r.client.Do(ctx, http.MethodGet, r.workflowsPath, nil, &list)
		return list, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordRefresh(0, "rejected")
			r.logger.Debug().Msg("workflow refresh rejected by open circuit breaker")
			return
		}
		metrics.RecordRefresh(time.Since(start), "failure")
		r.logger.Warn().
			Str("error", logging.SanitizeError(err.Error())).
			Str("path", r.workflowsPath).
			Msg("workflow refresh failed")
		return
	}

	r.store.SetWorkflows(list.Workflows)
	metrics.RecordRefresh(time.Since(start), "success")
	r.logger.Debug().Int("workflows", len(list.Workflows)).Msg("workflow collection refreshed")
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
