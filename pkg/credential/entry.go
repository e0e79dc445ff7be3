package credential

import (
	"fmt"
	"strings"
)

// Separator joins the fields of a composite credential record.
// A stored string of the form "email----password----token" is a composite
// with a derived token; "email----password" is a composite that still needs
// a sign-in to obtain one. Anything else is a bare token.
const Separator = "----"

// Entry is one element of the credential pool, decoded once at insertion
// time. The zero Entry is invalid; construct entries with ParseEntry or
// NewComposite.
type Entry struct {
	raw       string
	email     string
	password  string
	token     string
	composite bool
}

// ParseEntry decodes a stored credential string into its tagged form.
func ParseEntry(raw string) (Entry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Entry{}, fmt.Errorf("credential string is empty")
	}

	parts := strings.Split(raw, Separator)
	switch len(parts) {
	case 2:
		return Entry{
			raw:       raw,
			email:     parts[0],
			password:  parts[1],
			composite: true,
		}, nil
	case 3:
		return Entry{
			raw:       raw,
			email:     parts[0],
			password:  parts[1],
			token:     parts[2],
			composite: true,
		}, nil
	default:
		// One part, or a token that happens to contain the separator
		// more than twice: treat as an opaque bare token.
		return Entry{raw: raw, token: raw}, nil
	}
}

// NewComposite builds a composite entry from its parts.
func NewComposite(email, password, token string) Entry {
	return Entry{
		raw:       email + Separator + password + Separator + token,
		email:     email,
		password:  password,
		token:     token,
		composite: true,
	}
}

// Raw returns the stored pool form of the entry.
func (e Entry) Raw() string { return e.raw }

// EffectiveToken returns the bare authorization string sent upstream: the
// raw string for a bare entry, the token segment for a composite. Empty for
// a composite that has not been signed in yet.
func (e Entry) EffectiveToken() string { return e.token }

// IsComposite reports whether the entry carries email and password fields.
func (e Entry) IsComposite() bool { return e.composite }

// HasCredentials reports whether the entry can be refreshed autonomously.
func (e Entry) HasCredentials() bool {
	return e.composite && e.email != "" && e.password != ""
}

// Email returns the account email of a composite entry, "" otherwise.
func (e Entry) Email() string { return e.email }

// Password returns the account password of a composite entry, "" otherwise.
func (e Entry) Password() string { return e.password }
