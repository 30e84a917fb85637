package openapi

import (
	"encoding/json"
	"sync"
	"testing"

	params "github.com/goliatone/go-params"
)

func TestNewGeneratorOptions(t *testing.T) {
	custom := NewGenerator(
		WithOpenAPIVersion("3.1.0"),
		WithInfo("Device Settings", "2.0.0"),
		WithDescription("custom schema"),
		WithBasePath("settings/"),
		WithContentType("application/merge-patch+json"),
		WithKeyRoutes(false),
		WithStrict(true),
	)

	internal, ok := custom.(generator)
	if !ok {
		t.Fatalf("expected generator implementation, got %T", custom)
	}
	cfg := internal.config
	if cfg.version != "3.1.0" || cfg.info.Title != "Device Settings" || cfg.info.Version != "2.0.0" {
		t.Fatalf("unexpected header config: %+v", cfg)
	}
	if cfg.info.Description != "custom schema" {
		t.Fatalf("expected info description, got %q", cfg.info.Description)
	}
	if cfg.basePath != "/settings" {
		t.Fatalf("expected normalized base path, got %q", cfg.basePath)
	}
	if cfg.contentType != "application/merge-patch+json" {
		t.Fatalf("unexpected content type %q", cfg.contentType)
	}
	if cfg.keyRoutes || !cfg.strict {
		t.Fatalf("unexpected flags: %+v", cfg)
	}

	doc, err := custom.Generate(params.SchemaInput{Params: params.MustSet(map[string]any{"a": 1})})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	paths := doc.Document.(map[string]any)["paths"].(map[string]any)
	if len(paths) != 1 || paths["/settings"] == nil {
		t.Fatalf("expected only the collection route, got %v", paths)
	}
}

func TestGenerateDescribesParametersAndDefaults(t *testing.T) {
	input := params.SchemaInput{
		Params: params.MustSet(map[string]any{
			"uniqueID": "abcdefghijklmno",
			"volume":   7,
			"ratio":    0.5,
			"display":  map[string]any{"theme": "dark"},
			"tags":     []any{"a"},
		}),
		Defaults: params.MustSet(map[string]any{
			"volume":  3,
			"muted":   false,
			"display": map[string]any{"theme": "light"},
		}),
	}

	doc, err := NewGenerator().Generate(input)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.Format != params.SchemaFormatOpenAPI {
		t.Fatalf("expected openapi format, got %q", doc.Format)
	}
	root := doc.Document.(map[string]any)
	if root["openapi"] != "3.0.3" {
		t.Fatalf("expected default version, got %v", root["openapi"])
	}
	schema := root["components"].(map[string]any)["schemas"].(map[string]any)["Parameters"].(map[string]any)
	props := schema["properties"].(map[string]any)

	expectType := func(key, want string) {
		t.Helper()
		prop, ok := props[key].(map[string]any)
		if !ok {
			t.Fatalf("missing property %q in %v", key, props)
		}
		if prop["type"] != want {
			t.Fatalf("property %q: expected type %s, got %v", key, want, prop["type"])
		}
	}
	expectType("uniqueID", "string")
	expectType("volume", "integer")
	expectType("ratio", "number")
	expectType("display", "object")
	expectType("tags", "array")
	expectType("muted", "boolean")

	if props["volume"].(map[string]any)["default"] != int64(3) {
		t.Fatalf("expected volume default 3, got %v", props["volume"])
	}
	nested := props["display"].(map[string]any)["properties"].(map[string]any)["theme"].(map[string]any)
	if nested["default"] != "light" {
		t.Fatalf("expected nested default, got %v", nested)
	}
	required, _ := schema["required"].([]string)
	if len(required) != 3 || required[0] != "display" || required[1] != "muted" || required[2] != "volume" {
		t.Fatalf("expected default keys required, got %v", schema["required"])
	}
	if _, ok := schema["additionalProperties"]; ok {
		t.Fatalf("expected open schema by default")
	}

	paths := root["paths"].(map[string]any)
	item := paths["/params"].(map[string]any)
	for _, method := range []string{"get", "put"} {
		if _, ok := item[method]; !ok {
			t.Fatalf("expected %s on collection route, got %v", method, item)
		}
	}
	keyItem := paths["/params/{key}"].(map[string]any)
	for _, method := range []string{"get", "put", "delete"} {
		if _, ok := keyItem[method]; !ok {
			t.Fatalf("expected %s on key route, got %v", method, keyItem)
		}
	}
	keyParam := keyItem["parameters"].([]any)[0].(map[string]any)["schema"].(map[string]any)
	if _, ok := keyParam["enum"]; ok {
		t.Fatalf("expected open key parameter, got %v", keyParam)
	}

	if _, err := json.Marshal(doc.Document); err != nil {
		t.Fatalf("document must be JSON-serialisable: %v", err)
	}
}

func TestGenerateEmptyInput(t *testing.T) {
	doc, err := NewGenerator(WithStrict(true)).Generate(params.SchemaInput{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	root := doc.Document.(map[string]any)
	schema := root["components"].(map[string]any)["schemas"].(map[string]any)["Parameters"].(map[string]any)
	if props := schema["properties"].(map[string]any); len(props) != 0 {
		t.Fatalf("expected no properties, got %v", props)
	}
	if schema["additionalProperties"] != false {
		t.Fatalf("expected strict schema, got %v", schema["additionalProperties"])
	}
}

func TestStrictKeyRouteListsKnownKeys(t *testing.T) {
	doc, err := NewGenerator(WithStrict(true)).Generate(params.SchemaInput{
		Params:   params.MustSet(map[string]any{"b": 1}),
		Defaults: params.MustSet(map[string]any{"a": true}),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	paths := doc.Document.(map[string]any)["paths"].(map[string]any)
	keyItem := paths["/params/{key}"].(map[string]any)
	schema := keyItem["parameters"].([]any)[0].(map[string]any)["schema"].(map[string]any)
	enum, _ := schema["enum"].([]string)
	if len(enum) != 2 || enum[0] != "a" || enum[1] != "b" {
		t.Fatalf("expected known keys, got %v", schema["enum"])
	}
}

func TestValidateDocumentRejectsMissingInfo(t *testing.T) {
	if err := validateDocument(map[string]any{"openapi": "3.0.3"}); err == nil {
		t.Fatalf("expected error for missing info")
	}
	if err := validateDocument(nil); err == nil {
		t.Fatalf("expected error for nil document")
	}
	noOps := map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": "t", "version": "1"},
		"paths":   map[string]any{"/p": map[string]any{"parameters": []any{}}},
	}
	if err := validateDocument(noOps); err == nil {
		t.Fatalf("expected error for path without operations")
	}
}

func TestGeneratorConcurrentAccess(t *testing.T) {
	gen := NewGenerator()
	input := params.SchemaInput{Params: params.MustSet(map[string]any{"a": 1})}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := gen.Generate(input); err != nil {
				t.Errorf("generate: %v", err)
			}
		}()
	}
	wg.Wait()
}
