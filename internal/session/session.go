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

// Package session keeps the share sets of in-progress recoveries for the
// REST server. Each session owns one shareset.Set; idle sessions are
// expired and their recovered keys zeroed.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-keyrecover/pkg/logging"
	"github.com/jeremyhahn/go-keyrecover/pkg/metrics"
	"github.com/jeremyhahn/go-keyrecover/pkg/shareset"
)

var (
	// ErrNotFound is returned for unknown, expired or malformed session ids.
	ErrNotFound = errors.New("session: not found")

	// ErrLimitReached is returned by Create when MaxSessions are open.
	ErrLimitReached = errors.New("session: too many open sessions")
)

// Session is one recovery attempt.
type Session struct {
	ID      string
	Created time.Time
	Set     *shareset.Set

	mu       sync.Mutex
	lastUsed time.Time
}

// LastUsed returns when the session was last created or fetched.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

// Config configures a Manager.
type Config struct {
	// TTL is the idle time after which a session is discarded.
	TTL time.Duration

	// MaxSessions caps open sessions; zero means unlimited.
	MaxSessions int

	Logger logging.Logger
}

// Manager is a concurrency-safe registry of sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	logger   logging.Logger
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a manager and starts its expiry loop. Call Close to
// stop it.
func NewManager(cfg Config) *Manager {
	return newManager(cfg, time.Now)
}

func newManager(cfg Config, now func() time.Time) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      cfg.TTL,
		max:      cfg.MaxSessions,
		logger:   cfg.Logger,
		now:      now,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go m.expireLoop(ctx, sweepInterval(cfg.TTL))
	return m
}

func sweepInterval(ttl time.Duration) time.Duration {
	every := ttl / 4
	if every < time.Second {
		every = time.Second
	}
	return every
}

// Create opens a new session with an empty share set.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.max > 0 && len(m.sessions) >= m.max {
		return nil, ErrLimitReached
	}

	now := m.now()
	s := &Session{
		ID:       uuid.NewString(),
		Created:  now,
		lastUsed: now,
	}
	s.Set = shareset.New(shareset.WithLogger(m.logger.With(logging.String("session_id", s.ID))))
	m.sessions[s.ID] = s
	metrics.SetActiveSessions(len(m.sessions))

	m.logger.Debug("session created", logging.String("session_id", s.ID))
	return s, nil
}

// Get returns a live session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	now := m.now()
	if !ok || now.Sub(s.LastUsed()) > m.ttl {
		return nil, ErrNotFound
	}
	s.touch(now)
	return s, nil
}

// Delete discards a session and zeroes any key it recovered.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		metrics.SetActiveSessions(len(m.sessions))
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Set.Reset()
	m.logger.Debug("session deleted", logging.String("session_id", id))
	return nil
}

// Len returns the number of sessions held, including idle ones not yet
// swept.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep discards sessions idle for longer than the TTL and returns how
// many were removed.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed()) > m.ttl {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	if len(expired) > 0 {
		metrics.SetActiveSessions(len(m.sessions))
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Set.Reset()
	}
	if len(expired) > 0 {
		m.logger.Info("expired idle sessions", logging.Int("count", len(expired)))
	}
	return len(expired)
}

func (m *Manager) expireLoop(ctx context.Context, every time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close stops the expiry loop and discards every session.
func (m *Manager) Close() {
	m.cancel()
	<-m.done

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	metrics.SetActiveSessions(0)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Set.Reset()
	}
}
