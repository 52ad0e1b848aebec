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

// Package correlation carries a per-request id through context so log lines
// from the REST layer and the share-set accumulator can be tied together.
package correlation

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey struct{}

// RequestIDHeader is the HTTP header read from and echoed to clients.
const RequestIDHeader = "X-Request-ID"

// maxInboundLength bounds ids accepted from clients.
const maxInboundLength = 128

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// GetRequestID returns the id stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// NewID generates a new UUID v4 request id.
func NewID() string {
	return uuid.New().String()
}

// FromRequest returns the client supplied request id when it is sane,
// otherwise a fresh one.
func FromRequest(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if id == "" || len(id) > maxInboundLength || strings.ContainsAny(id, "\r\n") {
		return NewID()
	}
	return id
}
