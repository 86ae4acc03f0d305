// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"

	"github.com/jang1563/bioteam-ai-sub001/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245"))

	connectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46"))

	degradedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	downStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("240"))

	markerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

const (
	timeColWidth     = 8
	eventColWidth    = 24
	workflowColWidth = 16
	agentColWidth    = 14
	panelWidth       = 44
)

// View implements tea.Model.
func (m Model) View() string {
	sections := []string{
		m.renderHeader(),
		"",
	}

	table := m.renderTable()
	if m.panelVisible {
		if e, ok := m.selectedEvent(); ok {
			table = lipgloss.JoinHorizontal(lipgloss.Top, table, "  ", m.renderPanel(e))
		}
	}
	sections = append(sections, table, "", m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("BioTeam Activity")

	var badge string
	if m.paused {
		badge = degradedStyle.Render("PAUSED")
	} else {
		badge = connectedStyle.Render("LIVE")
	}

	lines := []string{
		fmt.Sprintf("%s  %s", title, badge),
		fmt.Sprintf("stream: %s  transport: %s  retries: %d  events: %d",
			renderState(m.status.State),
			orDash(m.status.Transport),
			m.status.RetryCount,
			m.status.ActivityLen),
	}

	if !m.lastUpdate.IsZero() {
		lines = append(lines, dimStyle.Render("updated "+m.lastUpdate.Format("15:04:05")))
	}
	if m.pollErr != nil {
		lines = append(lines, errStyle.Render("daemon unreachable: "+m.pollErr.Error()))
	} else if !m.connected {
		lines = append(lines, dimStyle.Render("connecting to daemon..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderState colors the daemon's stream connection state.
func renderState(state string) string {
	switch state {
	case "connected":
		return connectedStyle.Render(state)
	case "connecting", "retrying":
		return degradedStyle.Render(state)
	case "disconnected":
		return downStyle.Render(state)
	case "":
		return dimStyle.Render("unknown")
	}
	return state
}

func (m Model) renderTable() string {
	header := headerStyle.Render(fmt.Sprintf("  %-*s %-*s %-*s %-*s",
		timeColWidth, "TIME",
		eventColWidth, "EVENT",
		workflowColWidth, "WORKFLOW",
		agentColWidth, "AGENT"))

	if len(m.events) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, dimStyle.Render("  no activity yet"))
	}

	rows := make([]string, 0, len(m.events)+1)
	rows = append(rows, header)
	for i, e := range m.events {
		rows = append(rows, m.renderRow(i, e))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderRow(i int, e models.StreamEvent) string {
	marker := "  "
	if m.isDaemonSelected(e) {
		marker = markerStyle.Render("⚑ ")
	}

	row := fmt.Sprintf("%-*s %-*s %-*s %-*s",
		timeColWidth, e.Timestamp.Local().Format("15:04:05"),
		eventColWidth, truncateString(string(e.EventType), eventColWidth),
		workflowColWidth, truncateString(orDash(e.WorkflowID), workflowColWidth),
		agentColWidth, truncateString(orDash(e.EntityID), agentColWidth))

	if i == m.selectedRow {
		return marker + selectedStyle.Render(row)
	}
	return marker + row
}

// isDaemonSelected reports whether the row matches the daemon-side
// selection set by an intervention event.
func (m Model) isDaemonSelected(e models.StreamEvent) bool {
	if m.status.SelectedWorkflow != "" && e.WorkflowID == m.status.SelectedWorkflow {
		return true
	}
	if m.status.SelectedAgent != "" && e.EntityID == m.status.SelectedAgent {
		return true
	}
	return false
}

func (m Model) renderPanel(e models.StreamEvent) string {
	lines := []string{
		panelTitleStyle.Render("Event Detail"),
		"",
		fmt.Sprintf("type:      %s", e.EventType),
		fmt.Sprintf("time:      %s", e.Timestamp.Local().Format(time.RFC3339)),
		fmt.Sprintf("workflow:  %s", orDash(e.WorkflowID)),
		fmt.Sprintf("entity:    %s", orDash(e.EntityID)),
	}

	if payload := renderPayload(e.Payload); payload != "" {
		lines = append(lines, "", headerStyle.Render("payload"), payload)
	}

	return panelStyle.Width(panelWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderPayload pretty-prints the raw payload, or returns "" when there is
// nothing useful to show.
func renderPayload(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return truncateString(string(raw), panelWidth*4)
	}
	if v == nil {
		return ""
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return truncateString(string(raw), panelWidth*4)
	}
	return string(pretty)
}

func (m Model) renderFooter() string {
	controls := []string{
		"q quit",
		"space pause",
		"↑/k ↓/j move",
		"enter detail",
		"c clear",
		"r refresh",
	}
	return dimStyle.Render("  " + strings.Join(controls, "  ·  "))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString shortens s to maxLen bytes, ellipsizing the tail.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
