// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package activity

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/jang1563/bioteam-ai-sub001/internal/models"
)

// TestStorePropertyBounded checks that the log never exceeds its capacity
// and that after k > capacity insertions it holds exactly the most recent
// capacity events, most recent first.
func TestStorePropertyBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 50).Draw(t, "capacity")
		numEvents := rapid.IntRange(0, 200).Draw(t, "numEvents")

		s := NewStore(capacity)
		for i := 0; i < numEvents; i++ {
			s.AddEvent(models.StreamEvent{
				EventType:  models.EventWorkflowCreated,
				WorkflowID: fmt.Sprintf("wf-%d", i),
			})
		}

		wantLen := numEvents
		if wantLen > capacity {
			wantLen = capacity
		}

		if got := s.Len(); got != wantLen {
			t.Fatalf("Len() = %d, want %d", got, wantLen)
		}

		events := s.Events()
		if len(events) != wantLen {
			t.Fatalf("len(Events()) = %d, want %d", len(events), wantLen)
		}
		for i, e := range events {
			want := fmt.Sprintf("wf-%d", numEvents-1-i)
			if e.WorkflowID != want {
				t.Fatalf("Events()[%d].WorkflowID = %q, want %q", i, e.WorkflowID, want)
			}
		}
	})
}

// TestStorePropertyOperations runs a random operation sequence against the
// store and a plain-slice model, checking that snapshots always agree.
func TestStorePropertyOperations(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 20).Draw(t, "capacity")
		numOps := rapid.IntRange(1, 100).Draw(t, "numOps")

		s := NewStore(capacity)
		var model []string // workflow IDs, most recent first
		next := 0

		for op := 0; op < numOps; op++ {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0: // add
				id := fmt.Sprintf("wf-%d", next)
				next++
				s.AddEvent(models.StreamEvent{
					EventType:  models.EventWorkflowStepStarted,
					WorkflowID: id,
				})
				model = append([]string{id}, model...)
				if len(model) > capacity {
					model = model[:capacity]
				}
			case 1: // clear
				s.ClearEvents()
				model = nil
			case 2: // read-only snapshot
				_ = s.Events()
			case 3: // unrelated state must not disturb the log
				s.SelectWorkflow(fmt.Sprintf("sel-%d", op))
				s.SetPanelVisible(op%2 == 0)
			}

			events := s.Events()
			if len(events) != len(model) {
				t.Fatalf("op %d: len(Events()) = %d, want %d", op, len(events), len(model))
			}
			for i, e := range events {
				if e.WorkflowID != model[i] {
					t.Fatalf("op %d: Events()[%d].WorkflowID = %q, want %q", op, i, e.WorkflowID, model[i])
				}
			}
		}
	})
}
