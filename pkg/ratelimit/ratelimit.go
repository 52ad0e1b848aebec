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

// Package ratelimit throttles HTTP clients with a token bucket per client
// address. Share submission endpoints are the main consumer: a recovery
// service should not let one client try share strings at full speed.
package ratelimit

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	// Enabled controls whether rate limiting is active.
	Enabled bool `yaml:"enabled"`

	// RequestsPerMinute sets the sustained rate per client.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// Burst allows short bursts above the sustained rate.
	// Defaults to RequestsPerMinute.
	Burst int `yaml:"burst"`

	// TrustProxy honors X-Forwarded-For and X-Real-IP. Only enable it
	// behind a proxy that overwrites those headers.
	TrustProxy bool `yaml:"trust_proxy"`

	// MaxIdle is how long a client may be idle before it is forgotten.
	// Defaults to 30 minutes; idle clients are swept every MaxIdle/3.
	MaxIdle time.Duration `yaml:"max_idle"`
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter tracks one token bucket per client.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	enabled bool
	proxy   bool
	maxIdle time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter. When enabled, a background sweeper runs until
// Stop is called.
func New(config *Config) *Limiter {
	if config == nil {
		config = &Config{}
	}

	burst := config.Burst
	if burst <= 0 {
		burst = config.RequestsPerMinute
	}
	maxIdle := config.MaxIdle
	if maxIdle <= 0 {
		maxIdle = 30 * time.Minute
	}

	l := &Limiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(float64(config.RequestsPerMinute) / 60.0),
		burst:   burst,
		enabled: config.Enabled && config.RequestsPerMinute > 0,
		proxy:   config.TrustProxy,
		maxIdle: maxIdle,
		stop:    make(chan struct{}),
	}

	if l.enabled {
		go l.sweep(maxIdle / 3)
	}
	return l
}

func (l *Limiter) get(id string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[id]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[id] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

// Allow reports whether a request from id may proceed now.
func (l *Limiter) Allow(id string) bool {
	if !l.enabled {
		return true
	}
	return l.get(id).Allow()
}

// Reserve reports whether a request from id may proceed now and, if not,
// how long the client should wait before retrying.
func (l *Limiter) Reserve(id string) (bool, time.Duration) {
	if !l.enabled {
		return true, 0
	}
	r := l.get(id).Reserve()
	if !r.OK() {
		return false, time.Minute
	}
	delay := r.Delay()
	if delay == 0 {
		return true, 0
	}
	r.Cancel()
	return false, delay
}

// Wait blocks until a request from id is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, id string) error {
	if !l.enabled {
		return nil
	}
	return l.get(id).Wait(ctx)
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.forgetIdle(time.Now())
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) forgetIdle(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for id, c := range l.clients {
		if now.Sub(c.lastSeen) > l.maxIdle {
			delete(l.clients, id)
			n++
		}
	}
	return n
}

// Stop stops the sweeper. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// IsEnabled returns whether rate limiting is enabled.
func (l *Limiter) IsEnabled() bool {
	return l.enabled
}

// RejectFunc writes the response for a throttled request.
type RejectFunc func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)

// DefaultReject writes a plain 429 with a Retry-After header.
func DefaultReject(w http.ResponseWriter, _ *http.Request, retryAfter time.Duration) {
	w.Header().Set("Retry-After", RetryAfter(retryAfter))
	http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
}

// Middleware enforces the limit per client address. reject may be nil.
func Middleware(l *Limiter, reject RejectFunc) func(http.Handler) http.Handler {
	if reject == nil {
		reject = DefaultReject
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := l.Reserve(l.ClientID(r))
			if !ok {
				reject(w, r, retry)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientID returns the address a request is accounted to.
func (l *Limiter) ClientID(r *http.Request) string {
	if l.proxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RetryAfter formats d for a Retry-After header, rounding up to whole
// seconds.
func RetryAfter(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
