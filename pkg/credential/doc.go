// Package credential implements the credential pool at the heart of the
// proxy: round-robin rotation over a pool of upstream credentials, failure
// tracking fed back from request handling, autonomous recovery through
// re-authentication, and permanent eviction of credentials that cannot be
// recovered.
//
// A credential entry is either a bare token or a composite record joining
// email, password, and token with a fixed separator. Composite records can
// be refreshed by signing in again; bare tokens have no recovery path and
// are evicted once they stop working.
//
// The pool is an explicitly constructed object: callers build it at startup,
// hand it to the HTTP layer, start the recovery loop, and stop everything on
// shutdown. All pool state is guarded by a single mutex; network calls
// (probes, sign-ins) always run outside it.
package credential
