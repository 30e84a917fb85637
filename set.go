package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Set is a parameter mapping from key to Value. Persisted sets are written
// with sorted keys; ordering carries no meaning otherwise.
type Set map[string]Value

// SetFromMap converts a plain map (for example a literal defaults table).
func SetFromMap(in map[string]any) (Set, error) {
	out := make(Set, len(in))
	for key, item := range in {
		value, err := FromAny(item)
		if err != nil {
			return nil, fmt.Errorf("params: key %q: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

// MustSet is SetFromMap for static tables.
func MustSet(in map[string]any) Set {
	out, err := SetFromMap(in)
	if err != nil {
		panic(err)
	}
	return out
}

// Clone returns a deep copy. A nil set clones to nil.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for key, value := range s {
		out[key] = value.Clone()
	}
	return out
}

// Equal reports whether both sets hold the same keys with equal values.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for key, value := range s {
		otherValue, ok := other[key]
		if !ok || !value.Equal(otherValue) {
			return false
		}
	}
	return true
}

// Has reports whether key is present, even when it holds null.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the keys sorted.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Map converts the set into plain Go values.
func (s Set) Map() map[string]any {
	out := make(map[string]any, len(s))
	for key, value := range s {
		out[key] = value.Any()
	}
	return out
}

// UnmarshalJSON accepts only JSON objects; null, arrays and scalars are
// rejected so a damaged file is never mistaken for an empty one.
func (s *Set) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("params: expected a JSON object")
	}
	var raw map[string]Value
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*s = Set(raw)
	return nil
}
