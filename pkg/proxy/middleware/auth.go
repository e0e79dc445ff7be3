package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"z2api-hq/z2api/pkg/proxy/types"
)

// AuthMiddleware enforces a static bearer API key on protected routes. An
// empty apiKey disables inbound authentication entirely. Paths listed in
// exempt bypass the check (health and metrics endpoints).
func AuthMiddleware(apiKey string, exempt ...string) func(http.Handler) http.Handler {
	exemptSet := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		exemptSet[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptSet[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
				types.NewAuthenticationError("Invalid or missing API key").Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
