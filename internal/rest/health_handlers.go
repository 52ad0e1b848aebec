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

package rest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/jeremyhahn/go-keyrecover/internal/session"
	"github.com/jeremyhahn/go-keyrecover/pkg/health"
	"github.com/jeremyhahn/go-keyrecover/pkg/keys"
	"github.com/jeremyhahn/go-keyrecover/pkg/shamir"
)

// knownAnswerAddress is the compressed address of private key 1.
const knownAnswerAddress = "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"

// SelfTestCheck recombines a fixed 2-of-2 split of private key 1 and
// checks the derived address. It catches a broken field table or curve
// library before any real share is accepted.
func SelfTestCheck(context.Context) health.CheckResult {
	secret := make([]byte, keys.CompressedSize)
	secret[0], secret[32], secret[33] = 0x80, 0x01, 0x01

	// f(x) = secret + 0x5A*x in every byte.
	coeffs := bytes.NewReader(bytes.Repeat([]byte{0x5A}, len(secret)))
	points, err := shamir.Split(secret, 2, 2, coeffs)
	if err != nil {
		return health.CheckResult{Status: health.StatusUnhealthy, Message: err.Error()}
	}
	recovered, err := shamir.Combine(points)
	if err != nil {
		return health.CheckResult{Status: health.StatusUnhealthy, Message: err.Error()}
	}
	addr, err := keys.DeriveAddress(recovered)
	if err != nil {
		return health.CheckResult{Status: health.StatusUnhealthy, Message: err.Error()}
	}
	if addr != knownAnswerAddress {
		return health.CheckResult{
			Status:  health.StatusUnhealthy,
			Message: fmt.Sprintf("derived %s, want %s", addr, knownAnswerAddress),
		}
	}
	return health.CheckResult{Status: health.StatusHealthy, Message: "known answer ok"}
}

// SessionCapacityCheck reports degraded once 90% of max sessions are open.
func SessionCapacityCheck(m *session.Manager, max int) health.CheckFunc {
	return func(context.Context) health.CheckResult {
		n := m.Len()
		msg := fmt.Sprintf("%d open sessions", n)
		if max > 0 && n*10 >= max*9 {
			return health.CheckResult{Status: health.StatusDegraded, Message: msg}
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: msg}
	}
}

// LivenessHandler handles GET /health.
func (s *Server) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	result := s.health.Live(r.Context())
	writeJSON(w, HealthResponse{Status: string(result.Status), Version: s.version}, http.StatusOK)
}

// ReadinessHandler handles GET /health/ready.
func (s *Server) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	results := s.health.Ready(r.Context())
	status := health.AggregateStatus(results)

	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, HealthResponse{Status: string(status), Version: s.version, Checks: results}, code)
}
