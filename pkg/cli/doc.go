// Package cli provides shared helpers for the z2api command line:
// typed errors surfaced to the user and process signal handling.
package cli
