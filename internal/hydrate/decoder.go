package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Context identifies the parameter file a payload was read from.
type Context struct {
	Path   string
	Origin string
}

func (c Context) label() string {
	if c.Path == "" {
		return "<memory>"
	}
	return c.Path
}

// PreHook rewrites the decoded JSON object before it is bound to T.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the bound value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder binds a parameter set, as JSON, onto a typed struct. Values that
// implement Validate() error are validated after the post hooks run.
type Decoder[T any] struct {
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDisallowUnknownFields rejects keys that T has no field for.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.DisallowUnknownFields()
		})
	}
}

// WithUseNumber decodes numbers into interface fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.UseNumber()
		})
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode binds raw, a JSON object, to T.
func (d *Decoder[T]) Decode(ctx Context, raw []byte) (T, error) {
	var zero T
	if len(bytes.TrimSpace(raw)) == 0 {
		return zero, fmt.Errorf("hydrate: empty payload for %s", ctx.label())
	}

	if len(d.preHooks) > 0 {
		rewritten, err := d.applyPreHooks(ctx, raw)
		if err != nil {
			return zero, err
		}
		raw = rewritten
	}

	var result T
	decoder := json.NewDecoder(bytes.NewReader(raw))
	for _, configure := range d.configureDec {
		if configure != nil {
			configure(decoder)
		}
	}
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx.label(), err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx.label(), err)
		}
	}
	if err := validate(&result); err != nil {
		return zero, fmt.Errorf("hydrate: validate %s: %w", ctx.label(), err)
	}
	return result, nil
}

func (d *Decoder[T]) applyPreHooks(ctx Context, raw []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("hydrate: decode %s: %w", ctx.label(), err)
	}
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx.label(), err)
		}
		if next != nil {
			payload = next
		}
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("hydrate: encode %s: %w", ctx.label(), err)
	}
	return out, nil
}

type validator interface {
	Validate() error
}

func validate[T any](value *T) error {
	if rv := reflect.ValueOf(*value); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	if v, ok := any(*value).(validator); ok {
		return v.Validate()
	}
	if v, ok := any(value).(validator); ok {
		return v.Validate()
	}
	return nil
}
