package params

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-params/internal/hydrate"
)

// BindOption configures Bind.
type BindOption[T any] func(*bindConfig[T])

type bindConfig[T any] struct {
	strict    bool
	postHooks []func(*T) error
}

// BindStrict rejects parameters that T has no field for.
func BindStrict[T any]() BindOption[T] {
	return func(cfg *bindConfig[T]) {
		cfg.strict = true
	}
}

// BindWithHook runs hook on the bound value before validation.
func BindWithHook[T any](hook func(*T) error) BindOption[T] {
	return func(cfg *bindConfig[T]) {
		if hook != nil {
			cfg.postHooks = append(cfg.postHooks, hook)
		}
	}
}

// Bind decodes the current parameters onto T through their JSON encoding.
// It polls the primary file like All. When T (or *T) has a Validate() error
// method it is called last.
func Bind[T any](ctx context.Context, s *Store, opts ...BindOption[T]) (T, error) {
	var zero T
	if s == nil {
		return zero, fmt.Errorf("params: bind: store is nil")
	}
	cfg := bindConfig[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	raw, err := json.Marshal(s.All(ctx))
	if err != nil {
		return zero, fmt.Errorf("params: bind: %w", err)
	}

	var decoderOpts []hydrate.DecoderOption[T]
	if cfg.strict {
		decoderOpts = append(decoderOpts, hydrate.WithDisallowUnknownFields[T]())
	}
	for _, hook := range cfg.postHooks {
		hook := hook
		decoderOpts = append(decoderOpts, hydrate.WithPostHook[T](func(_ hydrate.Context, value *T) error {
			return hook(value)
		}))
	}

	decoded, err := hydrate.NewDecoder[T](decoderOpts...).Decode(hydrate.Context{
		Path:   s.cfg.Path,
		Origin: string(s.Origin()),
	}, raw)
	if err != nil {
		return zero, fmt.Errorf("params: bind: %w", err)
	}
	return decoded, nil
}
