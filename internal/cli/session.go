package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/internal/config"
	"github.com/goliatone/go-params/pkg/activity"
)

// session is an opened store plus the resources a command must release.
type session struct {
	cfg     *config.Config
	store   *params.Store
	logger  *slog.Logger
	cache   *params.TTLProgramCache
	closers []io.Closer
}

// sessionOptions tunes openSession for one command.
type sessionOptions struct {
	engine string
	extra  []params.Option
}

func openSession(ctx context.Context, opts *RootOptions, so sessionOptions) (*session, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.Path != "" {
		cfg.Path = opts.Path
	}
	if so.engine != "" {
		cfg.Eval.Engine = so.engine
	}

	s := &session{cfg: cfg}
	logger, closer, err := newLogger(cfg.Log, opts.Verbose, stderrOf(opts))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open log file", err)
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	s.logger = logger

	storeCfg, err := cfg.StoreConfig()
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "store config", err)
	}

	s.cache = params.NewTTLProgramCache(cfg.Eval.CacheTTL, cfg.Eval.CacheSize)
	registry := params.BuiltinFunctions()
	evaluator, err := params.NewEvaluator(cfg.Eval.Engine, s.cache, registry)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "evaluator", err)
	}

	options := []params.Option{
		params.WithLogger(logger),
		params.WithProgramCache(s.cache),
		params.WithFunctionRegistry(registry),
		params.WithEvaluator(evaluator),
		params.WithEvaluatorLogger(params.SlogEvaluatorLogger{Logger: logger}),
		params.WithActivityHooks(activity.Hooks{logActivity(logger)}),
	}
	options = append(options, so.extra...)

	store, err := params.New(ctx, storeCfg, options...)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	s.store = store
	return s, nil
}

func (s *session) Close() {
	if s == nil {
		return
	}
	if s.cache != nil {
		s.cache.Close()
	}
	for _, closer := range s.closers {
		_ = closer.Close()
	}
}

// newLogger writes text records to stderr and, when cfg.File is set, a JSON
// copy of every record to that file.
func newLogger(cfg config.LogConfig, verbose bool, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if raw := strings.TrimSpace(cfg.Level); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, nil, fmt.Errorf("log level %q: %w", raw, err)
		}
	}
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{slog.NewTextHandler(stderr, handlerOpts)}
	var closer io.Closer
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(file, handlerOpts))
		closer = file
	}
	logger := slog.New(slogmulti.Fanout(handlers...)).With(slog.String("component", "paramctl"))
	return logger, closer, nil
}

// logActivity reports store events at info level.
func logActivity(logger *slog.Logger) activity.ActivityHook {
	return activity.HookFunc(func(ctx context.Context, event activity.Event) error {
		attrs := []any{
			slog.String("verb", event.Verb),
			slog.String("object", event.ObjectID),
		}
		if keys, ok := event.Metadata["keys"]; ok {
			attrs = append(attrs, slog.Any("keys", keys))
		}
		logger.InfoContext(ctx, "parameter activity", attrs...)
		return nil
	})
}
