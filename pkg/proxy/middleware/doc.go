// Package middleware provides the HTTP middleware chain for the proxy:
// request IDs, structured request logging, panic recovery, inbound API key
// authentication, and Prometheus request metrics. Middleware is composed
// outermost-first in the server's route setup.
package middleware
