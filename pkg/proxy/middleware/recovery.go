package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"z2api-hq/z2api/pkg/proxy/types"
)

// RecoveryMiddleware converts handler panics into a 500 response in the
// OpenAI error format. The panic and stack trace are logged; internal
// details are never exposed to clients.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				types.NewServerError(
					"An internal error occurred. Please try again later.",
				).Write(w)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
