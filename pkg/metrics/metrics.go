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

// Package metrics provides Prometheus instrumentation for go-keyrecover.
// It counts shares accepted by the accumulator, secret reconstructions,
// address derivations and HTTP traffic, and tracks the number of open
// recovery sessions.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all keyrecover metrics
	Namespace = "keyrecover"

	// Label names
	LabelOperation  = "operation"
	LabelStatus     = "status"
	LabelErrorType  = "error_type"
	LabelMethod     = "method"
	LabelRoute      = "route"
	LabelStatusCode = "status_code"

	// Status values
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
	StatusRejected  = "rejected"

	// Operation names
	OpParseShare    = "parse_share"
	OpAddShare      = "add_share"
	OpReconstruct   = "reconstruct"
	OpDeriveAddress = "derive_address"
	OpSplit         = "split"
)

var (
	// SharesTotal counts shares offered to an accumulator by outcome
	// (accepted, duplicate, rejected).
	SharesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "shares_total",
			Help:      "Total number of shares offered to a share set by outcome",
		},
		[]string{LabelStatus},
	)

	// ReconstructionsTotal counts secret reconstructions by status.
	ReconstructionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reconstructions_total",
			Help:      "Total number of secret reconstructions by status",
		},
		[]string{LabelStatus},
	)

	// ReconstructionDuration tracks interpolation plus key validation time.
	ReconstructionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "reconstruction_duration_seconds",
			Help:      "Duration of secret reconstruction in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
	)

	// AddressDerivationsTotal counts public key and address derivations.
	AddressDerivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "address_derivations_total",
			Help:      "Total number of address derivations by status",
		},
		[]string{LabelStatus},
	)

	// ErrorsTotal counts failures by operation and a short error type such
	// as "bad_checksum" or "incompatible".
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	// ActiveSessions is the number of open recovery sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_sessions",
			Help:      "Number of open recovery sessions",
		},
	)

	// HTTPRequestsTotal counts HTTP requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status code",
		},
		[]string{LabelMethod, LabelRoute, LabelStatusCode},
	)

	// HTTPRequestDuration tracks HTTP request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelRoute},
	)

	// HTTPInFlight is the number of requests currently being served.
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Goroutines is sampled by the runtime collector.
	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// MemoryAllocBytes is sampled by the runtime collector.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// ServerUptime is the time since the collector was created.
	ServerUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_uptime_seconds",
			Help:      "Server uptime in seconds since startup",
		},
	)

	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// RecordShare records the outcome of offering a share to a share set.
// Use StatusAccepted, StatusDuplicate or StatusRejected.
func RecordShare(status string) {
	if !enabled.Load() {
		return
	}
	SharesTotal.WithLabelValues(status).Inc()
}

// RecordReconstruction records a reconstruction attempt and its duration.
func RecordReconstruction(status string, duration float64) {
	if !enabled.Load() {
		return
	}
	ReconstructionsTotal.WithLabelValues(status).Inc()
	ReconstructionDuration.Observe(duration)
}

// RecordAddressDerivation records an address derivation.
func RecordAddressDerivation(status string) {
	if !enabled.Load() {
		return
	}
	AddressDerivationsTotal.WithLabelValues(status).Inc()
}

// RecordError records a failure of an operation.
//
// Example:
//
//	if errors.Is(err, share.ErrBadChecksum) {
//	    metrics.RecordError(metrics.OpParseShare, "bad_checksum")
//	}
func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordHTTPRequest records a served HTTP request. route is the chi route
// pattern, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route, statusCode string, duration float64) {
	if !enabled.Load() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// SetActiveSessions sets the open session gauge.
func SetActiveSessions(n int) {
	if !enabled.Load() {
		return
	}
	ActiveSessions.Set(float64(n))
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
