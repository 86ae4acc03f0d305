// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jang1563/bioteam-ai-sub001/internal/models"
	"github.com/jang1563/bioteam-ai-sub001/internal/ops"
)

// Options configures the viewer.
type Options struct {
	// PollInterval is the delay between polls of the ops server.
	// Default: 1s.
	PollInterval time.Duration

	// MaxEvents caps how many activity rows are fetched per poll.
	// Default: 100.
	MaxEvents int
}

// Model is the bubbletea model of the activity viewer. All stream and
// storage logic lives in the daemon; the model only polls, renders, and
// tracks local cursor state.
type Model struct {
	poller Poller
	opts   Options

	status     ops.StatusResponse
	events     []models.StreamEvent
	lastUpdate time.Time
	pollErr    error
	connected  bool // at least one successful poll

	selectedRow  int
	panelVisible bool
	paused       bool

	// daemonPanel tracks the daemon-side panel flag so a rising edge
	// (intervention or alert) can reveal the panel exactly once instead of
	// pinning it open against the operator.
	daemonPanel bool

	windowWidth  int
	windowHeight int
}

// NewModel creates a viewer model polling the given ops server client.
func NewModel(poller Poller, opts Options) Model {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = 100
	}
	return Model{
		poller: poller,
		opts:   opts,
	}
}

// tickMsg drives the poll loop.
type tickMsg time.Time

// pollMsg carries one successful status + activity fetch.
type pollMsg struct {
	status ops.StatusResponse
	events []models.StreamEvent
}

// pollErrMsg reports a failed poll; the viewer keeps polling.
type pollErrMsg struct {
	err error
}

// clearedMsg confirms the clear request; a fresh poll follows.
type clearedMsg struct{}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.poll())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if m.paused {
			return m, m.tick()
		}
		return m, tea.Batch(m.tick(), m.poll())

	case pollMsg:
		return m.applyPoll(msg), nil

	case pollErrMsg:
		m.pollErr = msg.err
		return m, nil

	case clearedMsg:
		m.selectedRow = 0
		return m, m.poll()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ":
		m.paused = !m.paused
		return m, nil

	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
		return m, nil

	case "down", "j":
		if m.selectedRow < len(m.events)-1 {
			m.selectedRow++
		}
		return m, nil

	case "enter":
		m.panelVisible = !m.panelVisible
		return m, nil

	case "c":
		return m, m.clear()

	case "r":
		return m, m.poll()
	}

	return m, nil
}

// applyPoll folds a successful poll into the model: new snapshot, clamped
// cursor, and the daemon-side panel edge.
func (m Model) applyPoll(msg pollMsg) Model {
	m.status = msg.status
	m.events = msg.events
	m.lastUpdate = time.Now()
	m.pollErr = nil
	m.connected = true

	if m.selectedRow >= len(m.events) {
		m.selectedRow = len(m.events) - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}

	// An intervention or alert raised the daemon's panel flag since the
	// last poll: reveal the panel and jump to the event that caused it.
	if msg.status.PanelVisible && !m.daemonPanel {
		m.panelVisible = true
		if row, ok := m.findSelectedEvent(); ok {
			m.selectedRow = row
		}
	}
	m.daemonPanel = msg.status.PanelVisible

	return m
}

// findSelectedEvent locates the newest event matching the daemon-side
// selection, preferring the workflow over the agent.
func (m Model) findSelectedEvent() (int, bool) {
	if m.status.SelectedWorkflow != "" {
		for i, e := range m.events {
			if e.WorkflowID == m.status.SelectedWorkflow {
				return i, true
			}
		}
	}
	if m.status.SelectedAgent != "" {
		for i, e := range m.events {
			if e.EntityID == m.status.SelectedAgent {
				return i, true
			}
		}
	}
	return 0, false
}

// selectedEvent returns the event under the cursor.
func (m Model) selectedEvent() (models.StreamEvent, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.events) {
		return models.StreamEvent{}, false
	}
	return m.events[m.selectedRow], true
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// poll fetches status and activity in one command.
func (m Model) poll() tea.Cmd {
	poller := m.poller
	limit := m.opts.MaxEvents
	return func() tea.Msg {
		ctx := context.Background()

		status, err := poller.Status(ctx)
		if err != nil {
			return pollErrMsg{err: err}
		}
		events, err := poller.Activity(ctx, limit)
		if err != nil {
			return pollErrMsg{err: err}
		}
		return pollMsg{status: status, events: events}
	}
}

func (m Model) clear() tea.Cmd {
	poller := m.poller
	return func() tea.Msg {
		if err := poller.ClearActivity(context.Background()); err != nil {
			return pollErrMsg{err: err}
		}
		return clearedMsg{}
	}
}
