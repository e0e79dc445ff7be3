// Package handlers implements the proxy's HTTP endpoints: the chat
// completion relay, the credential admin surface, and health/readiness
// probes. Handlers consume the credential pool through a narrow interface
// so tests can substitute fakes.
package handlers
