package openapi

import (
	"fmt"

	params "github.com/goliatone/go-params"
)

type generator struct {
	config generatorConfig
}

// NewGenerator builds an OpenAPI 3 generator describing the parameter set and
// the routes that read and edit it.
func NewGenerator(opts ...GeneratorOption) params.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

// Option wires the OpenAPI generator into a params.Store.
func Option(opts ...GeneratorOption) params.Option {
	return params.WithSchemaGenerator(NewGenerator(opts...))
}

func (g generator) Generate(input params.SchemaInput) (params.SchemaDocument, error) {
	root := objectSchema(input.Params, input.Defaults, g.config.strict)
	document, err := buildDocument(g.config, root, knownKeys(input))
	if err != nil {
		return params.SchemaDocument{}, err
	}
	return params.SchemaDocument{
		Format:   params.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}

// objectSchema describes current, falling back to defaults for keys only the
// defaults carry. Default keys are required; the store restores them on
// every start.
func objectSchema(current, defaults params.Set, strict bool) map[string]any {
	keys := map[string]struct{}{}
	for key := range current {
		keys[key] = struct{}{}
	}
	for key := range defaults {
		keys[key] = struct{}{}
	}

	properties := make(map[string]any, len(keys))
	for key := range keys {
		value, ok := current[key]
		if !ok {
			value = defaults[key]
		}
		var nestedDefaults params.Set
		def, hasDefault := defaults[key]
		if hasDefault {
			nestedDefaults, _ = def.AsMap()
		}
		schema := valueSchema(value, nestedDefaults, strict)
		if hasDefault {
			schema["default"] = def.Any()
		}
		properties[key] = schema
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if required := defaults.Keys(); len(required) > 0 {
		schema["required"] = required
	}
	if strict {
		schema["additionalProperties"] = false
	}
	return schema
}

func valueSchema(value params.Value, defaults params.Set, strict bool) map[string]any {
	switch value.Kind() {
	case params.KindNull:
		return map[string]any{"nullable": true}
	case params.KindBool:
		return map[string]any{"type": "boolean"}
	case params.KindString:
		return map[string]any{"type": "string"}
	case params.KindNumber:
		if _, ok := value.AsInt(); ok {
			return map[string]any{"type": "integer", "format": "int64"}
		}
		return map[string]any{"type": "number", "format": "double"}
	case params.KindMap:
		nested, _ := value.AsMap()
		return objectSchema(nested, defaults, strict)
	case params.KindList:
		items, _ := value.AsList()
		itemSchema := map[string]any{}
		if len(items) > 0 {
			itemSchema = valueSchema(items[0], nil, strict)
		}
		return map[string]any{"type": "array", "items": itemSchema}
	default:
		return map[string]any{"description": fmt.Sprintf("unsupported kind %s", value.Kind())}
	}
}

// knownKeys lists every key in the current set or the defaults, sorted.
func knownKeys(input params.SchemaInput) []string {
	merged := input.Defaults.Clone()
	if merged == nil {
		merged = params.Set{}
	}
	for key, value := range input.Params {
		merged[key] = value
	}
	return merged.Keys()
}
