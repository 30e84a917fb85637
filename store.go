package params

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/state"
)

// Store is a persistent parameter set backed by a JSON file.
//
// Get and All poll the primary file: once ReadInterval has elapsed since the
// last read they re-read it, so edits made by another process become visible.
// A failed re-read keeps the last good values. Lookup and Snapshot never touch
// disk; Refresh re-reads immediately.
//
// Every mutation is written through to the primary file unless the store is
// disabled. A Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	cfg        Config
	defaults   Set
	params     Set
	sources    map[string]Source
	lastRead   time.Time
	etag       string
	state      InitState
	origin     Origin
	initErr    error
	primaryRef state.Ref
	legacyRef  state.Ref

	primary state.Store[Set]
	legacy  state.Store[Set]
	logger  *slog.Logger
	now     func() time.Time
	idGen   IDGenerator
	emitter *activity.Emitter
	opts    optionsConfig
}

// New builds a Store and runs initialization: load the primary file, fall
// back to the legacy file when the primary is absent, reconcile defaults and
// write back when anything changed. Only configuration errors are returned;
// unreadable files are logged and the store continues on defaults.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if !cfg.Disabled && cfg.Path == "" {
		return nil, ErrPathRequired
	}
	if ctx == nil {
		ctx = context.Background()
	}

	o := applyOptions(opts)
	s := &Store{
		cfg:        cfg,
		defaults:   cfg.Defaults.Clone(),
		primaryRef: state.Ref{Name: "primary", Path: cfg.Path},
		legacyRef:  state.Ref{Name: "legacy", Path: cfg.LegacyPath},
		primary:    o.primary,
		legacy:     o.legacy,
		logger:     o.logger,
		now:        o.now,
		idGen:      o.idGen,
		opts:       o,
	}
	if s.defaults == nil {
		s.defaults = Set{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.idGen == nil {
		s.idGen = NewID
	}
	if s.primary == nil {
		s.primary = state.NewFileStore[Set](cfg.FileMode, cfg.Disabled)
	}
	if s.legacy == nil && cfg.LegacyPath != "" {
		s.legacy = state.ReadOnly[Set](state.NewFileStore[Set](cfg.FileMode, true))
	}
	s.emitter = activity.NewEmitter(o.activityHooks, activity.Config{
		Enabled: len(o.activityHooks) > 0,
		Channel: o.activityChannel,
		Now:     s.now,
	})

	s.mu.Lock()
	events := s.initLocked(ctx)
	s.mu.Unlock()
	s.emit(ctx, events...)
	return s, nil
}

func (s *Store) initLocked(ctx context.Context) []activity.Event {
	s.state = StateUninitialized
	s.params = s.defaults.Clone()
	s.sources = make(map[string]Source, len(s.params))
	s.markSources(s.params.Keys(), SourceDefault)
	s.lastRead = s.now()

	if s.cfg.Disabled {
		s.logger.Debug("parameter store disabled, using defaults in memory")
		s.origin = OriginDisabled
		s.state = StateLoaded
		s.reconcileLocked()
		s.state = StateNoOpNeeded
		return nil
	}

	var events []activity.Event
	writeBack := false
	firstRun := false

	loaded, meta, ok, err := s.primary.Load(ctx, s.primaryRef)
	switch {
	case err != nil:
		// Leave the damaged file alone; only explicit writes may replace it.
		s.logger.Error("cannot read parameter file, using defaults",
			slog.String("path", s.cfg.Path),
			slog.Any("error", err),
		)
		s.origin = OriginDefaults
		s.state = StateLoaded
		s.reconcileLocked()
	case ok:
		s.adoptLocked(loaded, SourcePrimary)
		s.etag = meta.ETag
		s.origin = OriginPrimary
		s.state = StateLoaded
		result := s.reconcileLocked()
		writeBack = !result.Unchanged
		if writeBack {
			events = append(events, activity.BuildParamsReconciledEvent(activity.ParamEventInput{
				Source: s.sourceContext(s.primaryRef),
				Keys:   result.Changed,
			}))
		}
	default:
		found, migrated := s.migrateLocked(ctx)
		events = append(events, migrated...)
		// A legacy file, even an unreadable one, always leads to a write.
		writeBack = found
		firstRun = !found
	}

	if firstRun {
		s.origin = OriginDefaults
		s.state = StateLoaded
		s.reconcileLocked()
	}
	s.state = StateReconciled

	if !writeBack && !firstRun {
		s.state = StateNoOpNeeded
		return events
	}
	if err := s.persistLocked(ctx); err != nil {
		s.initErr = err
		s.logger.Error("cannot write parameter file",
			slog.String("path", s.cfg.Path),
			slog.Bool("retryable", state.IsRetryable(err)),
			slog.Any("error", err),
		)
		return events
	}
	s.state = StateWrittenBack
	if firstRun {
		events = append(events, activity.BuildParamsInitializedEvent(activity.ParamEventInput{
			Source: s.sourceContext(s.primaryRef),
			Keys:   s.params.Keys(),
		}))
	}
	return events
}

// migrateLocked consults the legacy file and reports whether it exists.
func (s *Store) migrateLocked(ctx context.Context) (bool, []activity.Event) {
	if s.legacy == nil || s.cfg.LegacyPath == "" {
		return false, nil
	}
	loaded, _, ok, err := s.legacy.Load(ctx, s.legacyRef)
	switch {
	case err != nil:
		s.logger.Error("cannot read legacy parameter file, using defaults",
			slog.String("path", s.cfg.LegacyPath),
			slog.Any("error", err),
		)
		s.origin = OriginDefaults
		s.state = StateLoaded
		s.reconcileLocked()
		return true, nil
	case ok:
		migrated := loaded.Keys()
		s.adoptLocked(loaded, SourceLegacy)
		s.origin = OriginLegacy
		s.state = StateLoaded
		s.reconcileLocked()
		s.logger.Info("migrated legacy parameter file",
			slog.String("from", s.cfg.LegacyPath),
			slog.String("to", s.cfg.Path),
			slog.Int("keys", len(migrated)),
		)
		return true, []activity.Event{activity.BuildParamsMigratedEvent(activity.ParamEventInput{
			Source: s.sourceContext(s.legacyRef),
			Keys:   migrated,
		})}
	default:
		return false, nil
	}
}
