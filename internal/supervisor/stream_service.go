// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package supervisor

import (
	"context"
)

// StreamConnector is the manager lifecycle the stream service drives.
// Satisfied by *stream.Manager.
type StreamConnector interface {
	Connect()
	Disconnect()
}

// StreamService adapts the stream manager's Connect/Disconnect lifecycle to
// suture's Serve model. Connect starts the manager's own session goroutine
// and returns; the service then idles until shutdown, when Disconnect tears
// the connection down and stops retrying.
//
// The manager handles connection failures internally with bounded backoff,
// so this service never returns an error of its own: from the supervisor's
// point of view a flapping stream is a healthy service.
type StreamService struct {
	manager StreamConnector
}

// NewStreamService wraps a stream manager as a supervised service.
func NewStreamService(manager StreamConnector) *StreamService {
	return &StreamService{manager: manager}
}

// Serve implements suture.Service.
func (s *StreamService) Serve(ctx context.Context) error {
	s.manager.Connect()
	defer s.manager.Disconnect()

	<-ctx.Done()
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *StreamService) String() string {
	return "stream-session"
}
