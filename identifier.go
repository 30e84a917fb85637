package params

import "math/rand/v2"

// UniqueIDKey is the reserved key holding the store's random identifier.
const UniqueIDKey = "uniqueID"

// IDLength is the number of characters in a generated identifier.
const IDLength = 15

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// IDGenerator produces identifiers for UniqueIDKey.
type IDGenerator func() string

// NewID returns IDLength characters drawn uniformly from [a-zA-Z0-9]. It is
// meant for telemetry correlation and is not suitable as a secret.
func NewID() string {
	buf := make([]byte, IDLength)
	for i := range buf {
		buf[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(buf)
}

// EnsureIdentifier assigns a fresh identifier when UniqueIDKey is missing,
// null or an empty string. An existing identifier is never replaced. It
// reports whether an identifier was assigned.
func EnsureIdentifier(set Set, gen IDGenerator) bool {
	if set == nil {
		return false
	}
	if current, ok := set[UniqueIDKey]; ok && !needsIdentifier(current) {
		return false
	}
	if gen == nil {
		gen = NewID
	}
	set[UniqueIDKey] = String(gen())
	return true
}

func needsIdentifier(v Value) bool {
	if v.IsNull() {
		return true
	}
	s, ok := v.AsString()
	return ok && s == ""
}
