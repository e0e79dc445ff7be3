package logging

import (
	"context"
	"log/slog"
	"strings"
)

// tokenPrefixLen is how much of a credential is kept when logging.
// Long enough to correlate log lines with a pool entry, short enough
// that the value is useless to an attacker.
const tokenPrefixLen = 8

// Redactor masks credential material in log attribute values.
//
// Redaction is keyed on attribute names: any attribute whose key looks
// sensitive (token, password, credential, authorization, ...) has its
// value truncated or suppressed. This is deliberately simpler than
// content-sniffing every string value; the pool manager always logs
// credentials under well-known keys.
type Redactor struct {
	sensitiveKeys []string
}

// NewRedactor creates a Redactor with the built-in sensitive key list.
func NewRedactor() *Redactor {
	return &Redactor{
		sensitiveKeys: []string{
			"token", "password", "passwd", "pwd",
			"credential", "cookie", "secret",
			"auth", "authorization", "api_key", "apikey",
		},
	}
}

// isSensitiveKey reports whether a key name indicates sensitive data.
func (r *Redactor) isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range r.sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactAttr returns the attribute with its value masked when the key is
// sensitive. Non-string values under sensitive keys are replaced wholesale.
func (r *Redactor) RedactAttr(attr slog.Attr) slog.Attr {
	if !r.isSensitiveKey(attr.Key) {
		return attr
	}

	lower := strings.ToLower(attr.Key)
	if strings.Contains(lower, "password") || strings.Contains(lower, "pwd") || strings.Contains(lower, "passwd") {
		// Passwords keep no prefix at all.
		return slog.String(attr.Key, "***")
	}

	if attr.Value.Kind() == slog.KindString {
		return slog.String(attr.Key, Token(attr.Value.String()))
	}
	return slog.String(attr.Key, "***")
}

// Token truncates a credential to a short identifying prefix.
func Token(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= tokenPrefixLen {
		return "***"
	}
	return token[:tokenPrefixLen] + "..."
}

// Email masks an email address, keeping the first character and the domain.
func Email(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***@" + email[at+1:]
}

// redactingHandler applies a Redactor to every record before delegating
// to the wrapped handler.
type redactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

func newRedactingHandler(inner slog.Handler, redactor *Redactor) *redactingHandler {
	return &redactingHandler{inner: inner, redactor: redactor}
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(h.redactor.RedactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = h.redactor.RedactAttr(attr)
	}
	return &redactingHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}
