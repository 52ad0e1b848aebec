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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jeremyhahn/go-keyrecover/internal/session"
	"github.com/jeremyhahn/go-keyrecover/pkg/base58check"
	"github.com/jeremyhahn/go-keyrecover/pkg/gf256"
	"github.com/jeremyhahn/go-keyrecover/pkg/keys"
	"github.com/jeremyhahn/go-keyrecover/pkg/share"
	"github.com/jeremyhahn/go-keyrecover/pkg/validation"
)

// Common errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal server error")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// errorReason returns a short machine-readable name for err, also used as
// the error_type metric label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, share.ErrBadPrefix):
		return "bad_prefix"
	case errors.Is(err, share.ErrBadChecksum),
		errors.Is(err, base58check.ErrInvalidChecksum):
		return "bad_checksum"
	case errors.Is(err, base58check.ErrInvalidCharacter):
		return "invalid_character"
	case errors.Is(err, share.ErrIncompatible):
		return "incompatible"
	case errors.Is(err, gf256.ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, keys.ErrInvalidScalar):
		return "invalid_scalar"
	case errors.Is(err, keys.ErrInvalidLength),
		errors.Is(err, keys.ErrInvalidVersion):
		return "invalid_key"
	case errors.Is(err, session.ErrNotFound):
		return "not_found"
	case errors.Is(err, session.ErrLimitReached):
		return "session_limit"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, validation.ErrInvalidInput):
		return "invalid_request"
	default:
		return "internal"
	}
}

// mapErrorToStatusCode maps errors to HTTP status codes.
func mapErrorToStatusCode(err error) int {
	switch errorReason(err) {
	case "bad_prefix", "bad_checksum", "invalid_character",
		"invalid_scalar", "invalid_key", "invalid_request":
		return http.StatusBadRequest
	case "incompatible":
		return http.StatusConflict
	case "division_by_zero":
		return http.StatusUnprocessableEntity
	case "not_found":
		return http.StatusNotFound
	case "session_limit":
		return http.StatusServiceUnavailable
	case "rate_limited":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes an error response to the client. Internal errors are
// not echoed.
func writeError(w http.ResponseWriter, err error, statusCode int) {
	msg := err.Error()
	if statusCode == http.StatusInternalServerError {
		msg = ErrInternalError.Error()
	}
	writeJSON(w, ErrorResponse{
		Error:  msg,
		Reason: errorReason(err),
		Code:   statusCode,
	}, statusCode)
}

// handleError maps the error to a status code and writes it.
func handleError(w http.ResponseWriter, err error) {
	writeError(w, err, mapErrorToStatusCode(err))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
