// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

/*
Package supervisor runs the daemon's long-lived components under a suture v4
supervisor tree.

Three services live under one root:

	Tree ("bioteamd")
	├── StreamService ("stream-session")
	├── Refresher ("workflow-refresher")
	└── Server ("ops-server")

If a service's Serve returns an error, suture restarts it with failure-rate
backoff; the other services keep running. Supervisor events are logged
through a sutureslog hook bridged into the daemon's zerolog sink, so
restarts and backoff transitions appear in the same structured log as
everything else.

The stream session deserves a note: the manager retries failed connections
internally with bounded backoff, so StreamService.Serve never returns an
error of its own. From the supervisor's point of view a flapping stream is
a healthy service; supervision matters for the refresher and the ops
server, whose Serve methods can genuinely fail.

# Usage

	tree := supervisor.NewTree(slogger, supervisor.DefaultTreeConfig())
	tree.Add(supervisor.NewStreamService(manager))
	tree.Add(refresher)
	tree.Add(opsServer)
	err := tree.Serve(ctx)

Serve blocks until the context is cancelled and then stops every service
within the configured shutdown timeout.
*/
package supervisor
