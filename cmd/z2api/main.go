// Z2API is an OpenAI-compatible chat proxy backed by a pool of Z.AI
// credentials.
//
// It accepts chat-completion requests, forwards them upstream using a
// rotating credential from the pool, and manages the pool's lifecycle:
// failure detection, background recovery, token refresh, and optional
// persistence of the credential list.
//
// Usage:
//
//	# Start the proxy with default configuration
//	z2api run
//
//	# Start with a custom configuration file
//	z2api run --config /path/to/config.yaml
//
//	# Validate a configuration file without starting
//	z2api validate --config /path/to/config.yaml
//
//	# Show version information
//	z2api version
package main

func main() {
	Execute()
}
