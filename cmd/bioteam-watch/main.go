// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

// Package main is the entry point for bioteam-watch, the terminal
// activity viewer.
//
// bioteam-watch renders a live table of agent workflow events by polling
// a running bioteamd daemon's ops API. It keeps no state of its own:
// start it, stop it, or run several against one daemon freely.
//
// Usage:
//
//	bioteam-watch [-addr http://127.0.0.1:8591] [-refresh 1s] [-limit 100]
//
// Keys: q quits, space pauses polling, arrow keys or j/k move the
// cursor, enter toggles the detail panel, c clears the daemon's activity
// log, r forces an immediate poll.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jang1563/bioteam-ai-sub001/internal/tui"
)

// requestTimeout bounds each poll request. The ops server is local, so
// anything slower than this reads as "daemon unreachable" in the header.
const requestTimeout = 5 * time.Second

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8591", "base URL of the bioteamd ops server")
	refresh := flag.Duration("refresh", time.Second, "poll interval")
	limit := flag.Int("limit", 100, "maximum activity rows to fetch per poll")
	flag.Parse()

	if *refresh <= 0 {
		fmt.Fprintln(os.Stderr, "bioteam-watch: -refresh must be positive")
		os.Exit(2)
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "bioteam-watch: -limit must be positive")
		os.Exit(2)
	}

	client := tui.NewClient(*addr, requestTimeout)
	model := tui.NewModel(client, tui.Options{
		PollInterval: *refresh,
		MaxEvents:    *limit,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "bioteam-watch: %v\n", err)
		os.Exit(1)
	}
}
