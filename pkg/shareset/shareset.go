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

// Package shareset accumulates shares of one secret until enough distinct
// indices are present to reconstruct it.
//
// A Set adopts the identity (set id, threshold) of the first share it
// accepts. Later shares must match it, duplicate indices are ignored and
// reconstruction runs exactly once, on the share that brings the number of
// distinct indices up to the threshold.
package shareset

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jeremyhahn/go-keyrecover/pkg/keys"
	"github.com/jeremyhahn/go-keyrecover/pkg/logging"
	"github.com/jeremyhahn/go-keyrecover/pkg/metrics"
	"github.com/jeremyhahn/go-keyrecover/pkg/shamir"
	"github.com/jeremyhahn/go-keyrecover/pkg/share"
)

var (
	// ErrIncompatible is returned for shares that do not belong to the set
	// being collected. It is share.ErrIncompatible.
	ErrIncompatible = share.ErrIncompatible

	// ErrNotComplete is returned by Key before the threshold is reached.
	ErrNotComplete = errors.New("shareset: not enough shares to recover the key")

	// ErrNilShare is returned by Add for a nil share.
	ErrNilShare = errors.New("shareset: nil share")
)

// Result describes the effect of one Add call.
type Result struct {
	// Duplicate is set when the index was already present; nothing changed.
	Duplicate bool

	// Recovered is set on the one call that performed reconstruction.
	Recovered bool

	// Count is the number of distinct indices held after the call.
	Count int

	// Threshold is the set's threshold.
	Threshold int
}

// Status is a consistent view of a Set taken under one lock.
type Status struct {
	// SetID and Threshold are zero for an empty set.
	SetID     uint16
	Threshold int

	// Indices holds the accepted indices in ascending order.
	Indices []int

	// Complete is set once reconstruction has been attempted.
	Complete bool

	// Key is a private copy of the recovered key, owned by the caller,
	// who should Zero it when done. Nil unless reconstruction succeeded.
	Key *keys.PrivateKey

	// Err holds the reconstruction error, if any.
	Err error
}

// Option configures a Set.
type Option func(*Set)

// WithLogger sets the logger. Key material is never logged.
func WithLogger(logger logging.Logger) Option {
	return func(s *Set) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Set collects shares of a single secret. It is safe for concurrent use.
type Set struct {
	mu     sync.Mutex
	logger logging.Logger

	first  *share.Share
	shares map[int]*share.Share

	recovered bool
	key       *keys.PrivateKey
	keyErr    error
}

// New returns an empty set.
func New(opts ...Option) *Set {
	s := &Set{
		logger: logging.Nop(),
		shares: make(map[int]*share.Share),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddText parses a share string and adds it.
func (s *Set) AddText(text string) (Result, error) {
	sh, err := share.Parse(text)
	if err != nil {
		metrics.RecordShare(metrics.StatusRejected)
		return s.result(), err
	}
	return s.Add(sh)
}

// Add offers a share to the set.
//
// The share that brings the number of distinct indices to the threshold
// triggers reconstruction; its error, if any, is returned and also kept for
// Key. Shares added after that are recorded but never reconstruct again.
func (s *Set) Add(sh *share.Share) (Result, error) {
	if sh == nil {
		return s.result(), ErrNilShare
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.first != nil {
		if err := sh.CompatibleWith(s.first); err != nil {
			metrics.RecordShare(metrics.StatusRejected)
			s.logger.Warn("rejected share from another set",
				logging.SetID(sh.SetID()),
				logging.Int("index", sh.Index()),
				logging.Int("threshold", sh.Threshold()))
			return s.resultLocked(), fmt.Errorf("shareset: %w", err)
		}
	}

	if _, ok := s.shares[sh.Index()]; ok {
		metrics.RecordShare(metrics.StatusDuplicate)
		res := s.resultLocked()
		res.Duplicate = true
		return res, nil
	}

	if s.first == nil {
		s.first = sh
	}
	s.shares[sh.Index()] = sh
	metrics.RecordShare(metrics.StatusAccepted)
	s.logger.Debug("accepted share",
		logging.SetID(sh.SetID()),
		logging.Int("index", sh.Index()),
		logging.Int("count", len(s.shares)),
		logging.Int("threshold", sh.Threshold()))

	res := s.resultLocked()
	if s.recovered || len(s.shares) < s.first.Threshold() {
		return res, nil
	}

	res.Recovered = true
	return res, s.reconstructLocked()
}

// reconstructLocked interpolates the shares present and validates the
// result as a private key. Called with s.mu held, at most once per fill.
func (s *Set) reconstructLocked() error {
	start := time.Now()
	s.recovered = true

	indices := s.indicesLocked()
	points := make([]shamir.Point, len(indices))
	for i, idx := range indices {
		points[i] = s.shares[idx].Point()
	}

	secret, err := shamir.Combine(points)
	if err == nil {
		s.key, err = keys.ParsePrivateKey(secret)
		for i := range secret {
			secret[i] = 0
		}
	}
	elapsed := time.Since(start)

	if err != nil {
		s.keyErr = fmt.Errorf("shareset: reconstruction failed: %w", err)
		metrics.RecordReconstruction(metrics.StatusError, elapsed.Seconds())
		s.logger.Error("reconstruction failed",
			logging.SetID(s.first.SetID()),
			logging.Ints("indices", indices),
			logging.Error(err))
		return s.keyErr
	}

	metrics.RecordReconstruction(metrics.StatusSuccess, elapsed.Seconds())
	s.logger.Info("secret reconstructed",
		logging.SetID(s.first.SetID()),
		logging.Ints("indices", indices),
		logging.Duration("elapsed_ms", float64(elapsed.Microseconds())/1000))
	return nil
}

// Reset clears all state and zeroes the recovered key. Copies already
// handed out by Key or Snapshot belong to their callers and are not
// touched. It is safe to call on an empty set.
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		s.key.Zero()
	}
	s.first = nil
	s.shares = make(map[int]*share.Share)
	s.recovered = false
	s.key = nil
	s.keyErr = nil
}

// Len returns the number of distinct indices held.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shares)
}

// Threshold returns the adopted threshold, or 0 for an empty set.
func (s *Set) Threshold() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.first == nil {
		return 0
	}
	return s.first.Threshold()
}

// SetID returns the adopted set id. ok is false for an empty set.
func (s *Set) SetID() (id uint16, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.first == nil {
		return 0, false
	}
	return s.first.SetID(), true
}

// Indices returns the held indices in ascending order.
func (s *Set) Indices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indicesLocked()
}

// Complete reports whether reconstruction has been attempted.
func (s *Set) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovered
}

// Key returns a copy of the recovered private key, ErrNotComplete before
// the threshold is reached, or the reconstruction error. The caller owns
// the copy and should Zero it when done.
func (s *Set) Key() (*keys.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.recovered:
		return nil, ErrNotComplete
	case s.keyErr != nil:
		return nil, s.keyErr
	}
	return s.keyCopyLocked()
}

// Snapshot returns the set's identity, indices and outcome as one
// consistent view.
func (s *Set) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Indices:  s.indicesLocked(),
		Complete: s.recovered,
		Err:      s.keyErr,
	}
	if s.first != nil {
		st.SetID = s.first.SetID()
		st.Threshold = s.first.Threshold()
	}
	if s.recovered && s.keyErr == nil {
		st.Key, st.Err = s.keyCopyLocked()
	}
	return st
}

func (s *Set) keyCopyLocked() (*keys.PrivateKey, error) {
	raw := s.key.Bytes()
	defer func() {
		for i := range raw {
			raw[i] = 0
		}
	}()
	k, err := keys.ParsePrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("shareset: recovered key unusable: %w", err)
	}
	return k, nil
}

func (s *Set) indicesLocked() []int {
	out := make([]int, 0, len(s.shares))
	for idx := range s.shares {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (s *Set) result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked()
}

func (s *Set) resultLocked() Result {
	res := Result{Count: len(s.shares)}
	if s.first != nil {
		res.Threshold = s.first.Threshold()
	}
	return res
}
