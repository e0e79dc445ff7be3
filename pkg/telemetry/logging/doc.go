// Package logging provides structured logging for Z2API built on log/slog.
//
// The package configures the process-wide default logger and supplies a
// redactor that keeps credential material out of log output. Credentials
// flow through almost every component of the proxy, so all logging of
// tokens, emails, and passwords must go through the redaction helpers:
// tokens are truncated to a short prefix, emails are masked, and password
// values are suppressed entirely.
package logging
