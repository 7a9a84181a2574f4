// Package identity normalizes player identities so that equivalent inputs
// map to a single cache key.
//
// The canonical identity of a player is the resolved UUID in undashed,
// lower-case form. Names are only used to look the UUID up.
package identity

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)

// Kind classifies a raw identity string.
type Kind int

const (
	KindInvalid Kind = iota
	KindName
	KindUUID
)

// Classify reports whether raw is a UUID, a player name, or neither.
func Classify(raw string) Kind {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return KindInvalid
	}
	if _, ok := ParseUUID(raw); ok {
		return KindUUID
	}
	if namePattern.MatchString(raw) {
		return KindName
	}
	return KindInvalid
}

// ParseUUID parses a dashed or undashed UUID and returns its canonical form.
func ParseUUID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 32 && len(raw) != 36 {
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return Undashed(id), true
}

// Undashed formats id as 32 lower-case hex characters.
func Undashed(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

// Dashed converts a canonical UUID to the 8-4-4-4-12 form. Invalid input is
// returned unchanged.
func Dashed(canonical string) string {
	id, err := uuid.Parse(canonical)
	if err != nil {
		return canonical
	}
	return id.String()
}

// Key normalizes a raw identity for use as a cache key: UUIDs are
// canonicalized, names are case-folded.
func Key(raw string) string {
	if id, ok := ParseUUID(raw); ok {
		return id
	}
	return strings.ToLower(strings.TrimSpace(raw))
}
