/*
Package randx provides generators for server-assigned identifiers.

Connection identities are random UUID v4 strings: opaque, unique for the lifetime
of a process, and never reused after the connection closes.
*/
package randx

import (
	"strings"

	"github.com/google/uuid"
)

// ConnectionID returns a fresh opaque identity for one transport connection.
func ConnectionID() string {
	return uuid.NewString()
}

// IsConnectionID reports whether s has the canonical shape of a ConnectionID.
func IsConnectionID(s string) bool {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return parsed.String() == strings.ToLower(s)
}
