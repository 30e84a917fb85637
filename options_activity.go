package params

import "github.com/goliatone/go-params/pkg/activity"

// WithActivityHooks sends parameter lifecycle events to hooks. Nil entries
// are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *optionsConfig) {
		cfg.activityHooks = append(cfg.activityHooks, normalized...)
	}
}

// WithActivityChannel sets the channel stamped on events that carry none.
// The default is "params".
func WithActivityChannel(channel string) Option {
	return func(cfg *optionsConfig) {
		cfg.activityChannel = channel
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return cloneActivityHooks(s.opts.activityHooks)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
