package params

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/state"
)

// DefaultReadInterval is the minimum time between disk re-reads triggered by
// Get and All.
const DefaultReadInterval = time.Second

// ErrPathRequired is returned by New when disk I/O is enabled without a path.
var ErrPathRequired = errors.New("params: config path is required unless disabled")

// Config is the injected configuration of a Store.
type Config struct {
	// Path is the primary JSON file.
	Path string
	// LegacyPath is read once, only when Path does not exist.
	LegacyPath string
	// FileMode is applied to the primary file on write. Zero means
	// state.DefaultFileMode.
	FileMode fs.FileMode
	// Disabled suppresses all disk I/O; the store lives in memory only.
	Disabled bool
	// ReadInterval throttles re-reads; zero or negative means
	// DefaultReadInterval.
	ReadInterval time.Duration
	// ForceUpdate overwrites every default key on startup instead of only
	// filling absent ones.
	ForceUpdate bool
	// Defaults is the DefaultSpecification. It is copied on construction.
	Defaults Set
}

func (c Config) readInterval() time.Duration {
	if c.ReadInterval <= 0 {
		return DefaultReadInterval
	}
	return c.ReadInterval
}

// InitState is a step of the initialization state machine.
type InitState int

const (
	StateUninitialized InitState = iota
	StateLoaded
	StateReconciled
	StateWrittenBack
	StateNoOpNeeded
)

func (s InitState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoaded:
		return "loaded"
	case StateReconciled:
		return "reconciled"
	case StateWrittenBack:
		return "written_back"
	case StateNoOpNeeded:
		return "noop"
	default:
		return "unknown"
	}
}

// Origin names where the initial parameters came from.
type Origin string

const (
	OriginDisabled Origin = "disabled"
	OriginPrimary  Origin = "primary"
	OriginLegacy   Origin = "legacy"
	OriginDefaults Origin = "defaults"
)

// Source names where the current value of one key came from.
type Source string

const (
	SourceDefault   Source = "default"
	SourcePrimary   Source = "primary"
	SourceLegacy    Source = "legacy"
	SourceGenerated Source = "generated"
	SourcePut       Source = "put"
)

// Option configures optional collaborators of a Store.
type Option func(*optionsConfig)

type optionsConfig struct {
	logger          *slog.Logger
	now             func() time.Time
	idGen           IDGenerator
	primary         state.Store[Set]
	legacy          state.Store[Set]
	activityHooks   activity.Hooks
	activityChannel string
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evalLogger      EvaluatorLogger
	schemaGenerator SchemaGenerator
}

func applyOptions(opts []Option) optionsConfig {
	cfg := optionsConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger sets the structured logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *optionsConfig) {
		cfg.logger = logger
	}
}

// WithClock replaces time.Now, mainly for throttle tests.
func WithClock(now func() time.Time) Option {
	return func(cfg *optionsConfig) {
		cfg.now = now
	}
}

// WithIDGenerator replaces NewID.
func WithIDGenerator(gen IDGenerator) Option {
	return func(cfg *optionsConfig) {
		cfg.idGen = gen
	}
}

// WithPrimaryStore replaces the file adapter for the primary file.
func WithPrimaryStore(store state.Store[Set]) Option {
	return func(cfg *optionsConfig) {
		cfg.primary = store
	}
}

// WithLegacyStore replaces the adapter used for migration. It is wrapped with
// state.ReadOnly.
func WithLegacyStore(store state.Store[Set]) Option {
	return func(cfg *optionsConfig) {
		cfg.legacy = state.ReadOnly(store)
	}
}

// WithEvaluator configures the evaluator used by Store.Evaluate.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *optionsConfig) {
		cfg.evaluator = e
	}
}

// WithSchemaGenerator configures a custom schema generator implementation.
func WithSchemaGenerator(generator SchemaGenerator) Option {
	return func(cfg *optionsConfig) {
		cfg.schemaGenerator = generator
	}
}
