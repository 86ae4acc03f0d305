// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// EventType is the dot-namespaced name of a stream event, e.g.
// "workflow.completed". The stream carries a closed allow-list of names;
// anything else is ignored by the dispatcher.
type EventType string

// Recognized stream event types.
const (
	EventWorkflowCreated       EventType = "workflow.created"
	EventWorkflowStepStarted   EventType = "workflow.step_started"
	EventWorkflowStepCompleted EventType = "workflow.step_completed"
	EventWorkflowCompleted     EventType = "workflow.completed"
	EventWorkflowFailed        EventType = "workflow.failed"
	EventWorkflowPaused        EventType = "workflow.paused"
	EventWorkflowResumed       EventType = "workflow.resumed"
	EventWorkflowCancelled     EventType = "workflow.cancelled"
	EventWorkflowNoteInjected  EventType = "workflow.note_injected"
	EventWorkflowIntervention  EventType = "workflow.intervention"
	EventAgentStatusChanged    EventType = "agent.status_changed"
	EventSystemAlert           EventType = "system.alert"
)

// WorkflowEventPrefix is the namespace shared by all workflow lifecycle
// events. Consumers that react to workflow changes (e.g. the collection
// refresher) match on this prefix.
const WorkflowEventPrefix = "workflow."

// recognizedEventTypes is the allow-list in declaration order, kept stable
// so status surfaces and tests see a deterministic set.
var recognizedEventTypes = []EventType{
	EventWorkflowCreated,
	EventWorkflowStepStarted,
	EventWorkflowStepCompleted,
	EventWorkflowCompleted,
	EventWorkflowFailed,
	EventWorkflowPaused,
	EventWorkflowResumed,
	EventWorkflowCancelled,
	EventWorkflowNoteInjected,
	EventWorkflowIntervention,
	EventAgentStatusChanged,
	EventSystemAlert,
}

var recognizedEventTypeSet = func() map[EventType]struct{} {
	set := make(map[EventType]struct{}, len(recognizedEventTypes))
	for _, t := range recognizedEventTypes {
		set[t] = struct{}{}
	}
	return set
}()

// RecognizedEventTypes returns the allow-list of stream event names in
// declaration order. The returned slice is a copy.
func RecognizedEventTypes() []EventType {
	out := make([]EventType, len(recognizedEventTypes))
	copy(out, recognizedEventTypes)
	return out
}

// Recognized reports whether t is part of the stream's allow-list.
func (t EventType) Recognized() bool {
	_, ok := recognizedEventTypeSet[t]
	return ok
}

// IsWorkflow reports whether t belongs to the workflow lifecycle namespace.
func (t EventType) IsWorkflow() bool {
	return strings.HasPrefix(string(t), WorkflowEventPrefix)
}

// String implements fmt.Stringer.
func (t EventType) String() string {
	return string(t)
}

// StreamEvent is one decoded event from the control-plane stream.
//
// Ordering is arrival order on the current physical connection only; no
// global sequence number exists across reconnects, so gaps are possible.
// Events are immutable once constructed.
type StreamEvent struct {
	EventType  EventType       `json:"event_type"`
	Timestamp  time.Time       `json:"timestamp"`
	EntityID   string          `json:"entity_id,omitempty"`
	WorkflowID string          `json:"workflow_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// DecodePayload unmarshals the opaque payload into v. Returns an error if
// the event carries no payload or the payload does not match v's shape.
func (e StreamEvent) DecodePayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// AlertPayload is the payload shape of system.alert events.
type AlertPayload struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// AgentStatusPayload is the payload shape of agent.status_changed events.
type AgentStatusPayload struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
}
