package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event is one parameter store occurrence: a key written or removed, or the
// whole file created, migrated, reconciled or re-read. IDs are plain strings
// so callers are not tied to a UUID type.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Valid reports whether the event carries the fields every hook relies on.
func (e Event) Valid() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// Key returns the single key an event is about, if any.
func (e Event) Key() string {
	key, _ := e.Metadata[MetaKey].(string)
	return key
}

// Keys returns the keys touched by a file level event. Key events report
// their own key.
func (e Event) Keys() []string {
	if keys, ok := e.Metadata[MetaKeys].([]string); ok {
		return append([]string(nil), keys...)
	}
	if key := e.Key(); key != "" {
		return []string{key}
	}
	return nil
}

// NormalizeEvent trims identifiers, copies metadata and recipients, and
// stamps OccurredAt with the current time when it is zero.
func NormalizeEvent(event Event) Event {
	return normalize(event, time.Now)
}

func normalize(event Event, now func() time.Time) Event {
	out := event
	for _, field := range []*string{
		&out.Verb, &out.ActorID, &out.UserID, &out.TenantID,
		&out.ObjectType, &out.ObjectID, &out.Channel, &out.DefinitionCode,
	} {
		*field = strings.TrimSpace(*field)
	}
	out.Metadata = cloneMap(event.Metadata)
	out.Recipients = nil
	if len(event.Recipients) > 0 {
		out.Recipients = append([]string{}, event.Recipients...)
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = now()
	}
	return out
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// OnlyVerbs forwards to hook only the events whose verb is listed.
func OnlyVerbs(hook ActivityHook, verbs ...string) ActivityHook {
	allowed := make(map[string]struct{}, len(verbs))
	for _, verb := range verbs {
		allowed[strings.TrimSpace(verb)] = struct{}{}
	}
	return HookFunc(func(ctx context.Context, event Event) error {
		if hook == nil {
			return nil
		}
		if _, ok := allowed[event.Verb]; !ok {
			return nil
		}
		return hook.Notify(ctx, event)
	})
}

// Hooks fans an event out to every hook.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and hands it to every hook. Invalid events are
// dropped silently. Hook failures are joined; one failing hook does not stop
// the others.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	return h.notify(ctx, normalize(event, time.Now))
}

func (h Hooks) notify(ctx context.Context, event Event) error {
	if len(h) == 0 || !event.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
