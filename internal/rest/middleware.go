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
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/jeremyhahn/go-keyrecover/pkg/correlation"
	"github.com/jeremyhahn/go-keyrecover/pkg/logging"
	"github.com/jeremyhahn/go-keyrecover/pkg/ratelimit"
)

// contextLogger is implemented by loggers that can attach the request id.
type contextLogger interface {
	InfoContext(ctx context.Context, msg string, fields ...logging.Field)
	WarnContext(ctx context.Context, msg string, fields ...logging.Field)
	ErrorContext(ctx context.Context, msg string, fields ...logging.Field)
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// RequestIDMiddleware adopts a sane client X-Request-ID or generates one,
// stores it in the request context and echoes it in the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := correlation.FromRequest(r)
		w.Header().Set(correlation.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(correlation.WithRequestID(r.Context(), id)))
	})
}

// LoggingMiddleware logs one line per completed request. Bodies are never
// logged; they carry shares and keys.
func (s *Server) LoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", wrapped.statusCode),
				logging.Duration("duration_ms", float64(time.Since(start).Microseconds())/1000),
			}
			if cl, ok := s.logger.(contextLogger); ok {
				switch {
				case wrapped.statusCode >= http.StatusInternalServerError:
					cl.ErrorContext(r.Context(), "request completed", fields...)
				case wrapped.statusCode >= http.StatusBadRequest:
					cl.WarnContext(r.Context(), "request completed", fields...)
				default:
					cl.InfoContext(r.Context(), "request completed", fields...)
				}
				return
			}
			s.logger.Info("request completed", fields...)
		})
	}
}

// RecoveryMiddleware recovers from panics and returns a 500 error.
func (s *Server) RecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					s.logger.Error("panic recovered",
						logging.String("method", r.Method),
						logging.String("path", r.URL.Path),
						logging.String("panic", stringify(rec)),
						logging.String("stack", string(debug.Stack())))
					writeError(w, ErrInternalError, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case error:
		return x.Error()
	case string:
		return x
	default:
		return "non-error panic value"
	}
}

// rateLimitRejected writes a JSON 429 for throttled requests.
func rateLimitRejected(w http.ResponseWriter, _ *http.Request, retryAfter time.Duration) {
	w.Header().Set("Retry-After", ratelimit.RetryAfter(retryAfter))
	writeError(w, ErrRateLimited, http.StatusTooManyRequests)
}
