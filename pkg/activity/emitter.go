package activity

import (
	"context"
	"strings"
	"time"
)

// DefaultChannel is applied to events that do not name a channel.
const DefaultChannel = "params"

// Config controls how a Store emits events.
type Config struct {
	Enabled bool
	Channel string
	// Now stamps events that carry no OccurredAt. Nil means time.Now.
	Now func() time.Time
}

// Emitter delivers store events to hooks with the configured defaults.
type Emitter struct {
	hooks   Hooks
	channel string
	now     func() time.Time
}

func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	e := &Emitter{
		channel: strings.TrimSpace(cfg.Channel),
		now:     cfg.Now,
	}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	if e.now == nil {
		e.now = time.Now
	}
	if cfg.Enabled {
		for _, hook := range hooks {
			if hook != nil {
				e.hooks = append(e.hooks, hook)
			}
		}
	}
	return e
}

// Enabled reports whether Emit would reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit fills the channel and timestamp, then notifies every hook.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.notify(ctx, normalize(event, e.now))
}
