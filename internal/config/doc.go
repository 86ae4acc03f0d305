// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

/*
Package config provides centralized configuration management using Koanf v2
with layered sources and validation.

Configuration is assembled from three layers, later layers overriding
earlier ones:

 1. Struct defaults (always present)
 2. Optional YAML config file (first match of BIOTEAM_CONFIG, ./config.yaml,
    ./config.yml, /etc/bioteam/config.yaml, /etc/bioteam/config.yml)
 3. BIOTEAM_* environment variables

Sections:

  - api: control-plane base URL, long-lived credential, request timeout
  - stream: stream path, token exchange path, transport (sse/websocket),
    backoff base and cap
  - activity: bounded activity log capacity
  - refresh: workflow collection refresh toggle, path, coalescing interval
  - ops: local operations HTTP server (host, port, rate limit, CORS)
  - logging: level, format, caller

Example YAML:

	api:
	  base_url: "https://api.bioteam.example"
	  credential: "long-lived-credential"

	stream:
	  transport: sse
	  backoff_cap: 30s

	ops:
	  port: 8591

Equivalent environment variables:

	BIOTEAM_API_BASE_URL=https://api.bioteam.example
	BIOTEAM_API_CREDENTIAL=long-lived-credential
	BIOTEAM_STREAM_TRANSPORT=sse
	BIOTEAM_STREAM_BACKOFF_CAP=30s
	BIOTEAM_OPS_PORT=8591

The assembled configuration is validated with go-playground/validator
before Load returns; validation failures abort startup with a message
naming every failing field.
*/
package config
