package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// HTTPMiddleware records HTTP request metrics
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := Global()
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		path := normalizePath(r)

		m.APIRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(code)).Inc()
		m.APIRequestDurationSeconds.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())

		if code >= 400 {
			m.APIErrorsTotal.WithLabelValues(categorizeStatus(code)).Inc()
		}
	})
}

// normalizePath extracts the route pattern from chi to avoid high cardinality
func normalizePath(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}

	parts := strings.Split(r.URL.Path, "/")
	for i, part := range parts {
		if len(part) == 36 {
			if _, err := uuid.Parse(part); err == nil {
				parts[i] = "{id}"
			}
		}
	}
	return strings.Join(parts, "/")
}

// categorizeStatus categorizes HTTP status codes into error types
func categorizeStatus(status int) string {
	switch {
	case status >= 500:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "auth_error"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusBadRequest:
		return "bad_request"
	case status >= 400:
		return "client_error"
	default:
		return "unknown"
	}
}
