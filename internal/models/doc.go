// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

/*
Package models defines the data structures shared across the stream client.

This package contains the stream event model, the closed set of recognized
event-type names, the workflow and agent collection models, and the API
request/response envelopes used by the control-plane client. It is the single
source of truth for wire-facing structure definitions.

Key Components:

  - StreamEvent: one decoded event from the control-plane stream
  - EventType: dot-namespaced event name with a fixed allow-list
  - Workflow / Agent: collection models re-fetched by the refresher
  - TokenRequest / TokenResponse: stream-token exchange payloads
  - APIError: error envelope returned by control-plane endpoints

Event Types:

The stream carries a closed allow-list of names. Workflow lifecycle events
(workflow.created through workflow.intervention) describe one workflow's
progress; agent.status_changed reports agent availability; system.alert
carries operator-facing notices. Frames with any other name are ignored.

Usage Example - Decoding a frame:

	var ev models.StreamEvent
	if err := json.Unmarshal(frame.Data, &ev); err != nil {
	    return // malformed frames are discarded
	}
	if !ev.EventType.Recognized() {
	    return
	}

Thread Safety:

All models are plain data structures, immutable after creation and safe for
concurrent read access. No internal mutexes.

JSON Marshaling:

Struct tags use snake_case field names matching the control-plane wire
format. Optional fields carry omitempty. Timestamps use RFC3339 via
time.Time. Payloads stay opaque (json.RawMessage) until a consumer decodes
them.
*/
package models
