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

package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_Burst(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 3})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("a"), "request %d", i+1)
	}
	assert.False(t, l.Allow("a"))

	// Other clients have their own bucket.
	assert.True(t, l.Allow("b"))
	assert.Equal(t, 2, l.Clients())
}

func TestDisabled(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, RequestsPerMinute: 1}},
		{"zero rate", &Config{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.config)
			defer l.Stop()

			assert.False(t, l.IsEnabled())
			for i := 0; i < 100; i++ {
				require.True(t, l.Allow("c"))
			}
			ok, wait := l.Reserve("c")
			assert.True(t, ok)
			assert.Zero(t, wait)
			assert.NoError(t, l.Wait(context.Background(), "c"))
		})
	}
}

func TestReserve_ReportsDelay(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	ok, _ := l.Reserve("a")
	require.True(t, ok)

	ok, wait := l.Reserve("a")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Second)

	// A rejected reservation does not consume the next token.
	ok, again := l.Reserve("a")
	assert.False(t, ok)
	assert.LessOrEqual(t, again, wait)
}

func TestWait_ContextCancelled(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 1, Burst: 1})
	defer l.Stop()

	require.True(t, l.Allow("a"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "a"))
}

func TestForgetIdle(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, MaxIdle: time.Minute})
	defer l.Stop()

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 0, l.forgetIdle(time.Now()))
	assert.Equal(t, 2, l.forgetIdle(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, l.Clients())
}

func TestStop_Idempotent(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60})
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestClientID(t *testing.T) {
	tests := []struct {
		name    string
		proxy   bool
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", false, "10.0.0.1:5555", nil, "10.0.0.1"},
		{"remote without port", false, "10.0.0.1", nil, "10.0.0.1"},
		{"forwarded ignored", false, "10.0.0.1:5555", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "10.0.0.1"},
		{"forwarded first hop", true, "10.0.0.1:5555", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.9"}, "1.2.3.4"},
		{"real ip", true, "10.0.0.1:5555", map[string]string{"X-Real-IP": "5.6.7.8"}, "5.6.7.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(&Config{TrustProxy: tt.proxy})
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, l.ClientID(r))
		})
	}
}

func TestMiddleware(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 2})
	defer l.Stop()

	h := Middleware(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestMiddleware_CustomReject(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	called := false
	reject := func(w http.ResponseWriter, r *http.Request, retry time.Duration) {
		called = true
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	h := Middleware(l, reject)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, "1", RetryAfter(200*time.Millisecond))
	assert.Equal(t, "2", RetryAfter(1500*time.Millisecond))
	assert.Equal(t, "0", RetryAfter(0))
}
