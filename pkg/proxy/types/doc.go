// Package types defines the OpenAI-compatible error envelope returned by
// every proxy endpoint. Request and response bodies are relayed verbatim to
// and from the upstream; only errors are shaped locally.
package types
