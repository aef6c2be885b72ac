package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diogo/msgcoach/internal/metrics"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// Chain wraps h with the middleware stack.
// Order: RequestID → Logging → Metrics → MaxBytes → Timeout → mux
func Chain(h http.Handler, logger *zap.Logger, maxBody int64, timeout time.Duration) http.Handler {
	h = Timeout(timeout)(h)
	h = MaxBytes(maxBody)(h)
	h = Metrics(h)
	h = Logging(logger)(h)
	h = RequestID(h)
	return h
}

// RequestID injects a random ID into the response header and context.
// An incoming X-Request-ID is kept.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the ID stored by RequestID, or ""
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Logging records method, route, status, and duration per request.
// Request bodies are never logged.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			id := RequestIDFromContext(r.Context())
			if id == "" {
				id = "-"
			}
			logger.Info("request",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

// Metrics records request count by method, route, and status code.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		metrics.RequestsTotal.WithLabelValues(r.Method, routeLabel(r.URL.Path), strconv.Itoa(sw.status)).Inc()
	})
}

// MaxBytes limits request bodies to n bytes.
func MaxBytes(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && n > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout bounds handler run time; the request context is canceled on expiry.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.TimeoutHandler(next, d, `{"error":"request timeout"}`)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// routes known to the mux; anything else is labeled "other" so scanners
// cannot blow up metric cardinality.
var knownRoutes = map[string]bool{
	"/":                   true,
	"/api/rewrite":        true,
	"/api/history":        true,
	"/api/history/export": true,
	"/api/models":         true,
	"/api/tones":          true,
	"/api/presets":        true,
	"/api/settings":       true,
	"/api/health":         true,
	"/metrics":            true,
}

func routeLabel(path string) string {
	if knownRoutes[path] {
		return path
	}
	if ref, ok := strings.CutPrefix(path, "/api/history/"); ok && ref != "" && !strings.Contains(ref, "/") {
		return "/api/history/{ref}"
	}
	return "other"
}
