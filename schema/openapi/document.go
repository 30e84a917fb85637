package openapi

import (
	"fmt"
)

const (
	parametersRef = "#/components/schemas/Parameters"
	valueRef      = "#/components/schemas/ParameterValue"
)

// buildDocument lays out the routes a parameter editor needs: the whole set
// at the base path and, unless disabled, one key at {base}/{key}. The
// operations mirror Store.All, Put and Delete.
func buildDocument(cfg generatorConfig, root map[string]any, keys []string) (map[string]any, error) {
	if root == nil {
		return nil, fmt.Errorf("openapi: root schema cannot be nil")
	}
	info := map[string]any{
		"title":   cfg.info.Title,
		"version": cfg.info.Version,
	}
	if cfg.info.Description != "" {
		info["description"] = cfg.info.Description
	}

	paths := map[string]any{
		cfg.basePath: map[string]any{
			"get": map[string]any{
				"operationId": "listParams",
				"responses": map[string]any{
					"200": cfg.bodyResponse("Current parameters", parametersRef),
				},
			},
			"put": map[string]any{
				"operationId": "replaceParams",
				"requestBody": cfg.requestBody(parametersRef),
				"responses":   noContent("Parameters stored"),
			},
		},
	}
	if cfg.keyRoutes {
		keyParam := map[string]any{"type": "string"}
		if cfg.strict && len(keys) > 0 {
			keyParam["enum"] = keys
		}
		paths[cfg.basePath+"/{key}"] = map[string]any{
			"parameters": []any{map[string]any{
				"name":     "key",
				"in":       "path",
				"required": true,
				"schema":   keyParam,
			}},
			"get": map[string]any{
				"operationId": "getParam",
				"responses": map[string]any{
					"200": cfg.bodyResponse("Current value", valueRef),
					"404": map[string]any{"description": "Key not set"},
				},
			},
			"put": map[string]any{
				"operationId": "putParam",
				"requestBody": cfg.requestBody(valueRef),
				"responses":   noContent("Value stored"),
			},
			"delete": map[string]any{
				"operationId": "deleteParam",
				"responses":   noContent("Key removed or already absent"),
			},
		}
	}

	document := map[string]any{
		"openapi": cfg.version,
		"info":    info,
		"paths":   paths,
		"components": map[string]any{
			"schemas": map[string]any{
				"Parameters": root,
				// Any JSON value, null included.
				"ParameterValue": map[string]any{"nullable": true},
			},
		},
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

func (cfg generatorConfig) requestBody(ref string) map[string]any {
	return map[string]any{
		"required": true,
		"content": map[string]any{
			cfg.contentType: map[string]any{"schema": map[string]any{"$ref": ref}},
		},
	}
}

func (cfg generatorConfig) bodyResponse(description, ref string) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			cfg.contentType: map[string]any{"schema": map[string]any{"$ref": ref}},
		},
	}
}

func noContent(description string) map[string]any {
	return map[string]any{"204": map[string]any{"description": description}}
}

func validateDocument(document map[string]any) error {
	if document == nil {
		return fmt.Errorf("openapi: document cannot be nil")
	}
	if version, _ := document["openapi"].(string); version == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	for _, field := range []string{"title", "version"} {
		if value, _ := info[field].(string); value == "" {
			return fmt.Errorf("openapi: info.%s must be set", field)
		}
	}
	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	for path, raw := range paths {
		item, _ := raw.(map[string]any)
		operations := 0
		for method, value := range item {
			if method == "parameters" {
				continue
			}
			operation, _ := value.(map[string]any)
			if _, ok := operation["operationId"].(string); !ok {
				return fmt.Errorf("openapi: operation %s %s missing operationId", method, path)
			}
			if _, ok := operation["responses"].(map[string]any); !ok {
				return fmt.Errorf("openapi: operation %s %s missing responses", method, path)
			}
			operations++
		}
		if operations == 0 {
			return fmt.Errorf("openapi: path %q missing operations", path)
		}
	}
	return nil
}
