package params

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/state"
)

// Get returns the value stored under key, or def when the key is absent. It
// polls the primary file first (see Store).
func (s *Store) Get(ctx context.Context, key string, def Value) Value {
	s.mu.Lock()
	events := s.pollLocked(ctx)
	value, ok := s.params[key]
	if ok {
		value = value.Clone()
	}
	s.mu.Unlock()

	s.emit(ctx, events...)
	if !ok {
		return def
	}
	return value
}

// All returns a copy of every parameter, polling the primary file first.
func (s *Store) All(ctx context.Context) Set {
	s.mu.Lock()
	events := s.pollLocked(ctx)
	out := s.params.Clone()
	s.mu.Unlock()

	s.emit(ctx, events...)
	return out
}

// Lookup returns the in-memory value for key without touching disk.
func (s *Store) Lookup(key string) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.params[key]
	if !ok {
		return Value{}, false
	}
	return value.Clone(), true
}

// Snapshot returns a copy of the in-memory parameters without touching disk.
func (s *Store) Snapshot() Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// Defaults returns a copy of the DefaultSpecification.
func (s *Store) Defaults() Set {
	return s.defaults.Clone()
}

// Refresh re-reads the primary file now and resets the throttle clock. It
// returns the read error, if any; the in-memory values are kept on failure.
func (s *Store) Refresh(ctx context.Context) error {
	if s.cfg.Disabled {
		return nil
	}
	s.mu.Lock()
	s.lastRead = s.now()
	events, err := s.reloadLocked(ctx)
	s.mu.Unlock()

	s.emit(ctx, events...)
	return err
}

// Put stores value under key and persists the full set. The in-memory value
// is kept even when the write fails; the returned error is a *state.WriteError.
func (s *Store) Put(ctx context.Context, key string, value Value) error {
	s.mu.Lock()
	old, had := s.params[key]
	s.params[key] = value.Clone()
	s.sources[key] = SourcePut
	err := s.persistLocked(ctx)
	source := s.sourceContext(s.primaryRef)
	s.mu.Unlock()

	input := activity.ParamEventInput{
		Key:      key,
		NewValue: valueOrNil(value),
		Source:   source,
	}
	if had {
		input.OldValue = valueOrNil(old)
		s.emit(ctx, activity.BuildParamUpdatedEvent(input))
	} else {
		s.emit(ctx, activity.BuildParamCreatedEvent(input))
	}
	return err
}

// Delete removes key and persists the full set. Deleting an absent key is a
// no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	old, had := s.params[key]
	if !had {
		s.mu.Unlock()
		return nil
	}
	delete(s.params, key)
	delete(s.sources, key)
	err := s.persistLocked(ctx)
	source := s.sourceContext(s.primaryRef)
	s.mu.Unlock()

	s.emit(ctx, activity.BuildParamDeletedEvent(activity.ParamEventInput{
		Key:      key,
		OldValue: valueOrNil(old),
		Source:   source,
	}))
	return err
}

// State reports where initialization ended.
func (s *Store) State() InitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Origin reports where the initial parameters came from.
func (s *Store) Origin() Origin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}

// InitErr returns the write-back failure recorded during initialization.
func (s *Store) InitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initErr
}

// Disabled reports whether disk I/O is suppressed.
func (s *Store) Disabled() bool {
	return s.cfg.Disabled
}

// Path returns the primary file path.
func (s *Store) Path() string {
	return s.cfg.Path
}

func (s *Store) pollLocked(ctx context.Context) []activity.Event {
	if s.cfg.Disabled {
		return nil
	}
	now := s.now()
	if now.Sub(s.lastRead) < s.cfg.readInterval() {
		recordThrottled(ctx)
		return nil
	}
	s.lastRead = now
	events, _ := s.reloadLocked(ctx)
	return events
}

func (s *Store) reloadLocked(ctx context.Context) ([]activity.Event, error) {
	loaded, meta, ok, err := s.primary.Load(ctx, s.primaryRef)
	recordRefresh(ctx, err)
	if err != nil {
		s.logger.Warn("cannot re-read parameter file, keeping last values",
			slog.String("path", s.cfg.Path),
			slog.Any("error", err),
		)
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if meta.ETag != "" && meta.ETag == s.etag {
		return nil, nil
	}

	changed := diffKeys(s.params, loaded)
	s.adoptLocked(loaded, SourcePrimary)
	s.etag = meta.ETag
	if len(changed) == 0 {
		return nil, nil
	}
	s.logger.Debug("parameter file changed on disk",
		slog.String("path", s.cfg.Path),
		slog.Any("keys", changed),
	)
	return []activity.Event{activity.BuildParamsRefreshedEvent(activity.ParamEventInput{
		Source: s.sourceContext(s.primaryRef),
		Keys:   changed,
	})}, nil
}

func (s *Store) reconcileLocked() ReconcileResult {
	result := reconcile(s.params, s.defaults, s.cfg.ForceUpdate, s.idGen)
	if result.IdentifierAssigned {
		s.sources[UniqueIDKey] = SourceGenerated
	}
	s.markSources(result.Changed, SourceDefault)
	if len(result.Filled) > 0 {
		s.logger.Debug("filled missing parameters from defaults",
			slog.String("origin", string(s.origin)),
			slog.Any("keys", result.Filled),
		)
	}
	return result
}

// adoptLocked replaces the parameters with loaded, keeping provenance for
// keys whose value did not change.
func (s *Store) adoptLocked(loaded Set, source Source) {
	if loaded == nil {
		loaded = Set{}
	}
	sources := make(map[string]Source, len(loaded))
	for key, value := range loaded {
		if previous, ok := s.params[key]; ok && previous.Equal(value) {
			if existing, ok := s.sources[key]; ok {
				sources[key] = existing
				continue
			}
		}
		sources[key] = source
	}
	s.params = loaded
	s.sources = sources
}

func (s *Store) markSources(keys []string, source Source) {
	for _, key := range keys {
		s.sources[key] = source
	}
}

func (s *Store) persistLocked(ctx context.Context) error {
	if s.cfg.Disabled {
		return nil
	}
	meta, err := s.primary.Save(ctx, s.primaryRef, s.params.Clone(), state.Meta{})
	if err != nil {
		s.logger.Error("cannot write parameter file",
			slog.String("path", s.cfg.Path),
			slog.Bool("retryable", state.IsRetryable(err)),
			slog.Any("error", err),
		)
		return err
	}
	s.etag = meta.ETag
	return nil
}

func (s *Store) sourceContext(ref state.Ref) activity.SourceContext {
	return activity.SourceContext{Name: ref.Name, Path: ref.Path, ETag: s.etag}
}

func (s *Store) emit(ctx context.Context, events ...activity.Event) {
	if len(events) == 0 || !s.emitter.Enabled() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, event := range events {
		if err := s.emitter.Emit(ctx, event); err != nil {
			s.logger.Warn("activity hook failed",
				slog.String("verb", event.Verb),
				slog.Any("error", err),
			)
		}
	}
}

func diffKeys(before, after Set) []string {
	var changed []string
	for _, key := range after.Keys() {
		if previous, ok := before[key]; !ok || !previous.Equal(after[key]) {
			changed = append(changed, key)
		}
	}
	for _, key := range before.Keys() {
		if _, ok := after[key]; !ok {
			changed = append(changed, key)
		}
	}
	return changed
}

func valueOrNil(v Value) any {
	if v.IsNull() {
		return nil
	}
	return v.Any()
}
