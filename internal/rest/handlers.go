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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jeremyhahn/go-keyrecover/internal/session"
	"github.com/jeremyhahn/go-keyrecover/pkg/keys"
	"github.com/jeremyhahn/go-keyrecover/pkg/logging"
	"github.com/jeremyhahn/go-keyrecover/pkg/metrics"
	"github.com/jeremyhahn/go-keyrecover/pkg/share"
	"github.com/jeremyhahn/go-keyrecover/pkg/validation"
)

// HandlerContext holds the dependencies of the API handlers.
type HandlerContext struct {
	sessions     *session.Manager
	logger       logging.Logger
	maxBodyBytes int64
}

// NewHandlerContext creates the handler set.
func NewHandlerContext(sessions *session.Manager, logger logging.Logger, maxBodyBytes int64) *HandlerContext {
	if logger == nil {
		logger = logging.Nop()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 64 << 10
	}
	return &HandlerContext{
		sessions:     sessions,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// decodeJSON reads a bounded JSON body into v.
func (h *HandlerContext) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (h *HandlerContext) fail(w http.ResponseWriter, op string, err error) {
	metrics.RecordError(op, errorReason(err))
	handleError(w, err)
}

// CreateSessionHandler handles POST /api/v1/sessions.
func (h *HandlerContext) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, sessionStatus(s), http.StatusCreated)
}

// GetSessionHandler handles GET /api/v1/sessions/{id}.
func (h *HandlerContext) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, sessionStatus(s), http.StatusOK)
}

// DeleteSessionHandler handles DELETE /api/v1/sessions/{id}.
func (h *HandlerContext) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetSessionHandler handles POST /api/v1/sessions/{id}/reset.
func (h *HandlerContext) ResetSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	s.Set.Reset()
	writeJSON(w, sessionStatus(s), http.StatusOK)
}

// AddShareHandler handles POST /api/v1/sessions/{id}/shares.
func (h *HandlerContext) AddShareHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	var req AddShareRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	text := strings.TrimSpace(req.Share)
	if err := validation.ValidateShareText(text); err != nil {
		handleError(w, err)
		return
	}

	res, err := s.Set.AddText(text)
	if err != nil {
		op := metrics.OpAddShare
		if res.Recovered {
			op = metrics.OpReconstruct
		}
		h.fail(w, op, err)
		return
	}

	if res.Recovered {
		metrics.RecordAddressDerivation(metrics.StatusSuccess)
		h.logger.Info("key recovered",
			logging.String("session_id", s.ID),
			logging.Int("threshold", res.Threshold))
	}

	writeJSON(w, AddShareResponse{
		SessionResponse: sessionStatus(s),
		Duplicate:       res.Duplicate,
		Recovered:       res.Recovered,
	}, http.StatusOK)
}

// InspectShareHandler handles POST /api/v1/shares/inspect.
func (h *HandlerContext) InspectShareHandler(w http.ResponseWriter, r *http.Request) {
	var req InspectShareRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	text := strings.TrimSpace(req.Share)
	if err := validation.ValidateShareText(text); err != nil {
		handleError(w, err)
		return
	}

	sh, err := share.Parse(text)
	if err != nil {
		h.fail(w, metrics.OpParseShare, err)
		return
	}
	writeJSON(w, shareInfo(sh), http.StatusOK)
}

// AddressHandler handles POST /api/v1/address.
func (h *HandlerContext) AddressHandler(w http.ResponseWriter, r *http.Request) {
	var req AddressRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	text := strings.TrimSpace(req.WIF)
	if err := validation.ValidateWIF(text); err != nil {
		handleError(w, err)
		return
	}

	k, err := keys.ParseWIF(text)
	if err != nil {
		metrics.RecordAddressDerivation(metrics.StatusError)
		h.fail(w, metrics.OpDeriveAddress, err)
		return
	}
	defer k.Zero()

	resp, err := keyResponse(k)
	if err != nil {
		metrics.RecordAddressDerivation(metrics.StatusError)
		h.fail(w, metrics.OpDeriveAddress, err)
		return
	}
	metrics.RecordAddressDerivation(metrics.StatusSuccess)
	resp.WIF = ""
	writeJSON(w, resp, http.StatusOK)
}

func shareInfo(sh *share.Share) ShareInfo {
	return ShareInfo{
		Version:       int(sh.Version()),
		SetID:         sh.SetIDHex(),
		Threshold:     sh.Threshold(),
		Index:         sh.Index(),
		PayloadLength: len(sh.Payload()),
	}
}

// sessionStatus renders one consistent snapshot of the session's set.
func sessionStatus(s *session.Session) SessionResponse {
	st := s.Set.Snapshot()
	resp := SessionResponse{
		ID:        s.ID,
		Threshold: st.Threshold,
		Indices:   st.Indices,
		Count:     len(st.Indices),
		Complete:  st.Complete,
	}
	if st.Threshold > 0 {
		resp.SetID = fmt.Sprintf("%04x", st.SetID)
	}

	if st.Key != nil {
		defer st.Key.Zero()
		kr, err := keyResponse(st.Key)
		if err != nil {
			st.Err = err
		} else {
			resp.Key = &kr
		}
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	return resp
}

func keyResponse(k *keys.PrivateKey) (KeyResponse, error) {
	if err := k.Err(); err != nil {
		return KeyResponse{}, err
	}
	network := "unknown"
	if n, ok := k.Network(); ok {
		network = n.Name
	}
	return KeyResponse{
		WIF:        k.WIF(),
		Address:    k.Address(),
		PublicKey:  hex.EncodeToString(k.PublicKey()),
		Compressed: k.Compressed(),
		Network:    network,
	}, nil
}
