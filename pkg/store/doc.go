// Package store persists the credential list outside process memory.
//
// A store is a best-effort mirror: the in-memory pool remains the source of
// truth and every store failure is logged and swallowed at the call site, so
// a broken disk or locked file never takes down rotation. Two backends are
// provided: a dotenv-style file that keeps unrelated keys intact (optionally
// watched for external edits) and a SQLite key/value table for deployments
// that already ship a database file.
package store
