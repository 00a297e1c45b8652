// Package middleware provides HTTP middleware for the API layer.
package middleware

import (
	"net/http"
	"time"

	"habitquest/internal/logging"
)

// LoggingMiddleware logs every request with its trace ID, status and latency
type LoggingMiddleware struct {
	logger logging.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger logging.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger.WithComponent("http")}
}

// Handler returns the logging middleware handler
func (lm *LoggingMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Reuse the caller's trace ID when it sends one
			traceID := r.Header.Get("X-Request-ID")
			if traceID == "" {
				traceID = logging.NewTraceID()
			}

			ctx := logging.WithTrace(r.Context(), traceID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Request-ID", traceID)

			wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapper, r)

			lm.logger.InfoContext(ctx, "request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapper.statusCode,
				"duration_ms", time.Since(start).Milliseconds())
		})
	}
}

// responseWriter captures the status code written by the handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
