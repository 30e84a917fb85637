package params

import (
	"log/slog"
	"time"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Source   string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// SlogEvaluatorLogger writes evaluations to a slog.Logger: failures at warn,
// successes at debug.
type SlogEvaluatorLogger struct {
	Logger *slog.Logger
}

func (l SlogEvaluatorLogger) LogEvaluation(event EvaluatorLogEvent) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		slog.String("engine", event.Engine),
		slog.String("expr", event.Expr),
		slog.String("source", event.Source),
		slog.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		logger.Warn("rule evaluation failed", append(attrs, slog.Any("error", event.Err))...)
		return
	}
	logger.Debug("rule evaluated", attrs...)
}

// WithEvaluatorLogger reports every evaluation to logger. Nil disables
// reporting.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *optionsConfig) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}
