package middleware

import (
	"net/http"
	"strconv"
	"time"

	"z2api-hq/z2api/pkg/telemetry/metrics"
)

// MetricsMiddleware records request counts and durations per route. A nil
// RequestMetrics disables recording.
func MetricsMiddleware(rm *metrics.RequestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rm == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			rm.RecordRequest(r.URL.Path, strconv.Itoa(rw.statusCode), time.Since(start))
		})
	}
}
