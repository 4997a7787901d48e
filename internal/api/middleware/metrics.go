package middleware

import (
	"net/http"
	"time"

	"github.com/darmiel/toki/internal/metrics"
)

// MetricsMiddleware records request count and latency per route pattern.
// It must wrap the ServeMux directly, so the matched pattern is visible after serving.
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.RecordHTTPRequest(r.Method, route, ww.statusCode, time.Since(start))
		})
	}
}
