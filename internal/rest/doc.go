// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyrecover.
//
// go-keyrecover is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package rest exposes share recovery over HTTP.
//
// A client opens a session, posts share strings to it one at a time and
// polls the session until the threshold is reached, at which point the
// status carries the recovered WIF and its address.
//
// # API Endpoints
//
// Health and metrics:
//   - GET /health - liveness
//   - GET /health/ready - readiness checks, including a known-answer self test
//   - GET /metrics - Prometheus metrics, when enabled
//
// Sessions:
//   - POST   /api/v1/sessions              - open a session
//   - GET    /api/v1/sessions/{id}         - session status
//   - DELETE /api/v1/sessions/{id}         - discard a session and its key
//   - POST   /api/v1/sessions/{id}/shares  - add {"share": "SSS-..."}
//   - POST   /api/v1/sessions/{id}/reset   - clear collected shares
//
// Stateless helpers:
//   - POST /api/v1/shares/inspect - decode a share header
//   - POST /api/v1/address        - derive the address of {"wif": "..."}
//
// # Errors
//
// Errors are returned as {"error": "...", "reason": "...", "code": N}.
// Malformed shares and keys map to 400, shares from another set to 409,
// unknown sessions to 404 and degenerate interpolation to 422.
package rest
