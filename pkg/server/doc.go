// Package server ties the proxy together: it builds the route table over the
// chat relay, the credential admin surface, and the health and metrics
// endpoints, wraps everything in the middleware chain, and manages the HTTP
// server lifecycle.
//
// # Basic Usage
//
//	srv := server.NewServer(cfg, pool, client, collector, logger)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the context is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
//
// # Routes
//
//   - POST /v1/chat/completions - chat relay (streaming and non-streaming)
//   - GET/POST/DELETE /api/credentials - list, replace, clear the pool
//   - POST /api/credentials/test - probe a single credential
//   - POST /api/credentials/refresh - refresh a single credential in place
//   - POST /api/credentials/refresh-all - batch token refresh
//   - GET /health - liveness probe (always 200)
//   - GET /ready - readiness probe (503 while the pool is empty)
//   - GET /metrics - Prometheus metrics (when enabled)
//
// # Middleware Chain
//
// Requests pass through, outermost first: panic recovery, request logging,
// request ID assignment, request metrics, and bearer-token authentication.
// Health, readiness, and metrics endpoints are exempt from authentication.
package server
