package openapi

import "strings"

type generatorConfig struct {
	version     string
	info        Info
	basePath    string
	contentType string
	strict      bool
	keyRoutes   bool
}

// Info is the OpenAPI info section.
type Info struct {
	Title       string
	Version     string
	Description string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		version:     "3.0.3",
		info:        Info{Title: "Parameters", Version: "1.0.0"},
		basePath:    "/params",
		contentType: "application/json",
		keyRoutes:   true,
	}
}

// GeneratorOption configures the OpenAPI generator.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the OpenAPI version string (default 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version != "" {
			cfg.version = version
		}
	}
}

// WithInfo sets the info title and version. Empty strings keep the defaults.
func WithInfo(title, version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.info.Title = title
		}
		if version != "" {
			cfg.info.Version = version
		}
	}
}

func WithDescription(description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.info.Description = description
	}
}

// WithBasePath moves the collection route (default /params). Key routes live
// below it as {base}/{key}.
func WithBasePath(path string) GeneratorOption {
	return func(cfg *generatorConfig) {
		path = strings.TrimRight(strings.TrimSpace(path), "/")
		if path == "" {
			return
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		cfg.basePath = path
	}
}

// WithContentType sets the media type of request and response bodies.
func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if contentType != "" {
			cfg.contentType = contentType
		}
	}
}

// WithStrict closes the parameter object: keys outside the current set and
// the defaults are rejected through additionalProperties=false, and the key
// route only accepts known keys.
func WithStrict(strict bool) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.strict = strict
	}
}

// WithKeyRoutes toggles the per-key get, put and delete operations.
func WithKeyRoutes(enabled bool) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.keyRoutes = enabled
	}
}
