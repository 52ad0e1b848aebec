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

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status  string      `json:"status"`
	Version string      `json:"version,omitempty"`
	Checks  interface{} `json:"checks,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
	Code   int    `json:"code"`
}

// KeyResponse describes a recovered or submitted private key.
type KeyResponse struct {
	WIF        string `json:"wif,omitempty"`
	Address    string `json:"address"`
	PublicKey  string `json:"public_key"`
	Compressed bool   `json:"compressed"`
	Network    string `json:"network"`
}

// SessionResponse is the status of a recovery session.
type SessionResponse struct {
	ID        string       `json:"id"`
	SetID     string       `json:"set_id,omitempty"`
	Threshold int          `json:"threshold,omitempty"`
	Count     int          `json:"count"`
	Indices   []int        `json:"indices"`
	Complete  bool         `json:"complete"`
	Key       *KeyResponse `json:"key,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// AddShareRequest is the body of POST /api/v1/sessions/{id}/shares.
type AddShareRequest struct {
	Share string `json:"share"`
}

// AddShareResponse reports the effect of one share on its session.
type AddShareResponse struct {
	SessionResponse
	Duplicate bool `json:"duplicate"`
	Recovered bool `json:"recovered"`
}

// InspectShareRequest is the body of POST /api/v1/shares/inspect.
type InspectShareRequest struct {
	Share string `json:"share"`
}

// ShareInfo is the decoded header of a share.
type ShareInfo struct {
	Version       int    `json:"version"`
	SetID         string `json:"set_id"`
	Threshold     int    `json:"threshold"`
	Index         int    `json:"index"`
	PayloadLength int    `json:"payload_length"`
}

// AddressRequest is the body of POST /api/v1/address.
type AddressRequest struct {
	WIF string `json:"wif"`
}
