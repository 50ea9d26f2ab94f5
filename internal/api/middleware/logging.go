// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// slowRequestThreshold marks requests worth logging even outside verbose
// mode. Vital ingestion and history queries should stay well under this.
const slowRequestThreshold = time.Second

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// routeArea buckets a request path into the service's route groups so log
// lines can be filtered per concern without parsing full paths.
func routeArea(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/patients"):
		switch {
		case strings.Contains(path, "/vitals"):
			return "vitals"
		case strings.Contains(path, "/alerts"):
			return "alerts"
		case strings.Contains(path, "/insights"):
			return "insights"
		}
		return "patients"
	case strings.HasPrefix(path, "/api/v1/alerts"):
		return "alerts"
	case strings.HasPrefix(path, "/api/v1/thresholds"):
		return "thresholds"
	case strings.HasPrefix(path, "/health"):
		return "health"
	}
	return "other"
}

// outcome maps a status code onto the vocabulary used in log lines.
func outcome(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status == http.StatusTooManyRequests:
		return "throttled"
	case status >= 400:
		return "rejected"
	}
	return "ok"
}

// RequestLogger returns middleware that tags every request with an
// X-Request-ID header and logs it. Rejected, throttled, failed, and slow
// requests are always logged; successful ones only in verbose mode.
func RequestLogger(verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.New().String()[:8]
			w.Header().Set("X-Request-ID", requestID)

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			if !verbose && wrapped.status < 400 && duration < slowRequestThreshold {
				return
			}
			log.Printf("[%s] %s %s %s area=%s status=%d bytes=%d dur=%v",
				requestID,
				outcome(wrapped.status),
				r.Method,
				r.URL.Path,
				routeArea(r.URL.Path),
				wrapped.status,
				wrapped.size,
				duration,
			)
		})
	}
}
