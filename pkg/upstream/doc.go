// Package upstream implements the HTTP client for the Z.AI chat service.
//
// The client exposes three operations: forwarding chat-completion requests
// (streaming or buffered), a minimal synthetic probe used for credential
// health checks, and the sign-in call used for token refresh. All failures
// surface as typed errors; the credential pool normalizes them to booleans
// at its own boundary.
package upstream
