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

package metrics

import (
	"context"
	"runtime"
	"time"
)

// RuntimeCollector samples process gauges on a fixed interval.
type RuntimeCollector struct {
	interval time.Duration
	started  time.Time
}

// NewRuntimeCollector returns a collector sampling every interval.
// A non-positive interval defaults to 15 seconds.
func NewRuntimeCollector(interval time.Duration) *RuntimeCollector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &RuntimeCollector{interval: interval, started: time.Now()}
}

// Run samples immediately and then on every tick until ctx is done.
func (c *RuntimeCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Collect()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Collect()
		}
	}
}

// Collect takes a single sample.
func (c *RuntimeCollector) Collect() {
	if !IsEnabled() {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	Goroutines.Set(float64(runtime.NumGoroutine()))
	MemoryAllocBytes.Set(float64(ms.Alloc))
	ServerUptime.Set(time.Since(c.started).Seconds())
}
