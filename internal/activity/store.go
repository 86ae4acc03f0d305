// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package activity

import (
	"sync"

	"github.com/jang1563/bioteam-ai-sub001/internal/metrics"
	"github.com/jang1563/bioteam-ai-sub001/internal/models"
)

// DefaultCapacity is the activity log bound used when a non-positive
// capacity is requested.
const DefaultCapacity = 100

// Store is the process-wide activity state: a bounded, most-recent-first
// event log plus the viewer selection state and the last known workflow
// collection. One Store is created in main and shared by reference; all
// mutation goes through its methods.
//
// The event log is a fixed-size ring buffer. When full, adding an event
// overwrites the oldest entry, so the log always holds the most recent
// events up to its capacity.
type Store struct {
	mu    sync.RWMutex
	buf   []models.StreamEvent // ring buffer, len(buf) == capacity
	head  int                  // index of most recent event
	count int                  // live entries, <= len(buf)

	selectedWorkflow string
	selectedAgent    string
	panelVisible     bool
	workflows        []models.Workflow
}

// NewStore creates an activity store bounded at the given capacity.
//
// Parameters:
//   - capacity: maximum number of events retained; values <= 0 fall back
//     to DefaultCapacity
//
// Returns:
//   - Pointer to an empty Store ready for concurrent use
//
// Thread Safety:
//   - All Store methods are safe for concurrent access
//   - Uses sync.RWMutex so snapshot reads do not block each other
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		buf:  make([]models.StreamEvent, capacity),
		head: capacity - 1, // first add lands at index 0
	}
}

// Capacity returns the fixed bound of the event log.
func (s *Store) Capacity() int {
	return len(s.buf)
}

// AddEvent records an event as the most recent entry. When the log is at
// capacity the oldest entry is evicted. O(1).
func (s *Store) AddEvent(e models.StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.head = (s.head + 1) % len(s.buf)
	s.buf[s.head] = e
	if s.count < len(s.buf) {
		s.count++
	} else {
		metrics.RecordActivityEviction()
	}
	metrics.SetActivityLogSize(s.count)
}

// ClearEvents empties the event log. Selection state and the workflow
// collection are untouched.
func (s *Store) ClearEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Zero retained entries so payload buffers become collectable.
	for i := range s.buf {
		s.buf[i] = models.StreamEvent{}
	}
	s.head = len(s.buf) - 1
	s.count = 0
	metrics.SetActivityLogSize(0)
}

// Events returns a snapshot copy of the log, most recent first. The
// returned slice is owned by the caller; later store mutation does not
// affect it.
func (s *Store) Events() []models.StreamEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.StreamEvent, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.head-i+len(s.buf))%len(s.buf)]
	}
	return out
}

// Len returns the number of events currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// SelectWorkflow records the workflow the viewer should focus.
func (s *Store) SelectWorkflow(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedWorkflow = id
}

// SelectedWorkflow returns the focused workflow ID, or "" when none.
func (s *Store) SelectedWorkflow() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedWorkflow
}

// SelectAgent records the agent the viewer should focus.
func (s *Store) SelectAgent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedAgent = id
}

// SelectedAgent returns the focused agent ID, or "" when none.
func (s *Store) SelectedAgent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedAgent
}

// SetPanelVisible shows or hides the viewer detail panel.
func (s *Store) SetPanelVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelVisible = visible
}

// PanelVisible reports whether the detail panel should be shown.
func (s *Store) PanelVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panelVisible
}

// SetWorkflows replaces the stored workflow collection with a copy of ws.
func (s *Store) SetWorkflows(ws []models.Workflow) {
	cp := make([]models.Workflow, len(ws))
	copy(cp, ws)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows = cp
}

// Workflows returns a snapshot copy of the last stored workflow collection.
func (s *Store) Workflows() []models.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Workflow, len(s.workflows))
	copy(out, s.workflows)
	return out
}

// Consume is the stream consumer feeding the store. Every event is
// appended to the log; intervention and alert events additionally drive
// the viewer state so the operator's attention lands on the affected
// entity:
//
//   - workflow.intervention selects the event's workflow (and agent, when
//     set) and surfaces the detail panel
//   - system.alert surfaces the detail panel
//
// Consume never blocks beyond the store's own mutex and never fails;
// it is safe to register directly with the event dispatcher.
func (s *Store) Consume(e models.StreamEvent) {
	s.AddEvent(e)

	switch e.EventType {
	case models.EventWorkflowIntervention:
		if e.WorkflowID != "" {
			s.SelectWorkflow(e.WorkflowID)
		}
		if e.EntityID != "" {
			s.SelectAgent(e.EntityID)
		}
		s.SetPanelVisible(true)
	case models.EventSystemAlert:
		s.SetPanelVisible(true)
	}
}
