package params

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors is a flat list of FieldDescriptor values.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI is an OpenAPI 3 document.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument wraps a generated schema with its format. Document must be
// JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat `json:"format"`
	Document any          `json:"document"`
}

// SchemaInput is what a SchemaGenerator describes: the current parameters,
// the DefaultSpecification, and per-key provenance.
type SchemaInput struct {
	Params   Set
	Defaults Set
	Sources  map[string]Source
}

// SchemaGenerator turns a parameter set into a schema document.
// Implementations must be safe for concurrent use.
type SchemaGenerator interface {
	Generate(input SchemaInput) (SchemaDocument, error)
}

// FieldDescriptor describes one leaf of the parameter tree. Nested maps are
// flattened into dotted paths.
type FieldDescriptor struct {
	Path       string `json:"path"`
	Type       string `json:"type"`
	Source     Source `json:"source,omitempty"`
	Default    any    `json:"default,omitempty"`
	HasDefault bool   `json:"has_default"`
}

// DefaultSchemaGenerator returns the descriptor generator used by Schema when
// no other generator is configured.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(input SchemaInput) (SchemaDocument, error) {
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: describeSet(input),
	}, nil
}

// Describe returns descriptors for every current parameter and every default
// key, sorted by path.
func (s *Store) Describe() []FieldDescriptor {
	return describeSet(s.schemaInput())
}

// Schema renders the current parameters with the configured generator.
func (s *Store) Schema() (SchemaDocument, error) {
	generator := s.opts.schemaGenerator
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	doc, err := generator.Generate(s.schemaInput())
	if err != nil {
		return SchemaDocument{}, fmt.Errorf("params: schema: %w", err)
	}
	return doc, nil
}

func (s *Store) schemaInput() SchemaInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	sources := make(map[string]Source, len(s.sources))
	for key, source := range s.sources {
		sources[key] = source
	}
	return SchemaInput{
		Params:   s.params.Clone(),
		Defaults: s.defaults.Clone(),
		Sources:  sources,
	}
}

func describeSet(input SchemaInput) []FieldDescriptor {
	keys := make(map[string]struct{}, len(input.Params)+len(input.Defaults))
	for key := range input.Params {
		keys[key] = struct{}{}
	}
	for key := range input.Defaults {
		keys[key] = struct{}{}
	}
	names := make([]string, 0, len(keys))
	for key := range keys {
		names = append(names, key)
	}
	sort.Strings(names)

	fields := []FieldDescriptor{}
	for _, key := range names {
		value, ok := input.Params[key]
		if !ok {
			value = input.Defaults[key]
		}
		def, hasDefault := input.Defaults[key]
		var defaultAt func(path []string) (Value, bool)
		if hasDefault {
			defaultAt = func(path []string) (Value, bool) { return lookupPath(def, path) }
		}
		fields = append(fields, describeValue(value, []string{key}, input.Sources[key], defaultAt)...)
	}
	return fields
}

func describeValue(value Value, path []string, source Source, defaultAt func([]string) (Value, bool)) []FieldDescriptor {
	if value.Kind() == KindMap {
		nested, _ := value.AsMap()
		if len(nested) > 0 {
			var fields []FieldDescriptor
			for _, key := range nested.Keys() {
				child := append(append([]string{}, path...), key)
				fields = append(fields, describeValue(nested[key], child, source, defaultAt)...)
			}
			return fields
		}
	}
	field := FieldDescriptor{
		Path:   strings.Join(path, "."),
		Type:   typeName(value),
		Source: source,
	}
	if defaultAt != nil {
		if def, ok := defaultAt(path[1:]); ok {
			field.Default = def.Any()
			field.HasDefault = true
		}
	}
	return []FieldDescriptor{field}
}

func lookupPath(value Value, path []string) (Value, bool) {
	for _, segment := range path {
		nested, ok := value.AsMap()
		if !ok {
			return Value{}, false
		}
		value, ok = nested[segment]
		if !ok {
			return Value{}, false
		}
	}
	return value, true
}

func typeName(value Value) string {
	switch value.Kind() {
	case KindList:
		items, _ := value.AsList()
		if len(items) == 0 {
			return "list"
		}
		return "list<" + items[0].Kind().String() + ">"
	case KindNumber:
		if _, ok := value.AsInt(); ok {
			return "integer"
		}
		return "number"
	default:
		return value.Kind().String()
	}
}
