package params

import (
	"encoding/json"
)

// Trace captures provenance for one key: the live value and the default
// that backs it.
type Trace struct {
	Key    string       `json:"key"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how one layer contributes to a traced key.
type Provenance struct {
	Layer  string `json:"layer"`
	Source Source `json:"source,omitempty"`
	ETag   string `json:"etag,omitempty"`
	Value  any    `json:"value,omitempty"`
	Found  bool   `json:"found"`
}

// Trace reports where the in-memory value of key came from, strongest layer
// first. It does not touch disk.
func (s *Store) Trace(key string) (Value, Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trace := Trace{Key: key}
	current, found := s.params[key]
	live := Provenance{Layer: "current", Found: found}
	if found {
		live.Source = s.sources[key]
		live.Value = current.Any()
		if live.Source == SourcePrimary || live.Source == SourcePut {
			live.ETag = s.etag
		}
	}
	trace.Layers = append(trace.Layers, live)

	def, hasDefault := s.defaults[key]
	fallback := Provenance{Layer: "defaults", Source: SourceDefault, Found: hasDefault}
	if hasDefault {
		fallback.Value = def.Any()
	}
	trace.Layers = append(trace.Layers, fallback)

	if !found {
		return Value{}, trace
	}
	return current.Clone(), trace
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
