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

package session

import (
	"sync"
	"testing"
	"time"

	"github.com/jeremyhahn/go-keyrecover/pkg/metrics"
	"github.com/jeremyhahn/go-keyrecover/pkg/share"
	"github.com/jeremyhahn/go-keyrecover/pkg/shareset"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newManager(cfg, clock.Now)
	t.Cleanup(m.Close)
	return m, clock
}

func TestCreateGetDelete(t *testing.T) {
	m, _ := newTestManager(t, Config{TTL: time.Minute})

	s, err := m.Create()
	require.NoError(t, err)
	assert.Len(t, s.ID, 36)
	assert.NotNil(t, s.Set)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Delete(s.ID))
	assert.Equal(t, 0, m.Len())

	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(s.ID), ErrNotFound)
}

func TestGet_Malformed(t *testing.T) {
	m, _ := newTestManager(t, Config{})
	_, err := m.Get("../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaxSessions(t *testing.T) {
	m, _ := newTestManager(t, Config{MaxSessions: 2})

	a, err := m.Create()
	require.NoError(t, err)
	_, err = m.Create()
	require.NoError(t, err)

	_, err = m.Create()
	assert.ErrorIs(t, err, ErrLimitReached)

	require.NoError(t, m.Delete(a.ID))
	_, err = m.Create()
	assert.NoError(t, err)
}

func TestExpiry(t *testing.T) {
	m, clock := newTestManager(t, Config{TTL: time.Minute})

	idle, err := m.Create()
	require.NoError(t, err)
	active, err := m.Create()
	require.NoError(t, err)

	clock.Advance(45 * time.Second)
	_, err = m.Get(active.ID)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)

	// An idle session is unreachable even before the sweep runs.
	_, err = m.Get(idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(active.ID)
	assert.NoError(t, err)
}

func TestExpiry_ZeroesKey(t *testing.T) {
	m, clock := newTestManager(t, Config{TTL: time.Minute})

	s, err := m.Create()
	require.NoError(t, err)

	secret := make([]byte, 34)
	secret[0], secret[32], secret[33] = 0x80, 0x01, 0x01
	shares, err := share.Deal(secret, 1, 1, nil)
	require.NoError(t, err)
	_, err = s.Set.Add(shares[0])
	require.NoError(t, err)

	k, err := s.Set.Key()
	require.NoError(t, err)
	defer k.Zero()

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 0, s.Set.Len())
	_, err = s.Set.Key()
	assert.ErrorIs(t, err, shareset.ErrNotComplete)
}

func TestActiveSessionsGauge(t *testing.T) {
	metrics.Enable()
	m, _ := newTestManager(t, Config{})

	_, err := m.Create()
	require.NoError(t, err)
	b, err := m.Create()
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ActiveSessions))

	require.NoError(t, m.Delete(b.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ActiveSessions))
}

func TestClose(t *testing.T) {
	m := NewManager(Config{TTL: time.Minute})
	_, err := m.Create()
	require.NoError(t, err)

	m.Close()
	assert.Equal(t, 0, m.Len())
	assert.NotPanics(t, m.Close)
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, time.Second, sweepInterval(time.Second))
	assert.Equal(t, 15*time.Second, sweepInterval(time.Minute))
}
