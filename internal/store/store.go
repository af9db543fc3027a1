// Package store persists the set of registered usernames. Two backends
// implement the same contract: an append-only flat file (the default) and
// PostgreSQL.
package store

import (
	"context"
	"strings"
	"unicode"
)

// Store is the username registry consulted during login. Registration is
// append-only; names are never removed. Implementations are safe for
// concurrent use.
type Store interface {
	// Exists reports whether name has been registered.
	Exists(ctx context.Context, name string) (bool, error)
	// Register records name as registered. Callers check Exists first; a
	// duplicate Register is harmless.
	Register(ctx context.Context, name string) error
	// Close releases the backing resources.
	Close() error
}

// ValidName reports whether name is usable as a username: non-empty,
// printable, no embedded newline.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	if strings.ContainsAny(name, "\r\n") {
		return false
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
