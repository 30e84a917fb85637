package params

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNoEvaluator is returned when no evaluator could be resolved.
	ErrNoEvaluator = errors.New("params: evaluator not configured")
	// ErrUnknownEngine is returned by NewEvaluator for unsupported engine names.
	ErrUnknownEngine = errors.New("params: unknown evaluator engine")
)

// Engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// RuleContext carries the inputs of one evaluation. Every parameter is bound
// as a top-level variable when its key is a valid identifier, and the full
// set is always reachable as params["key"].
type RuleContext struct {
	Params   map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	// Source labels where Params came from, usually the primary file path.
	Source string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Params == nil {
		ctx.Params = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

func (ctx RuleContext) sourceLabel() string {
	if ctx.Source == "" {
		return "memory"
	}
	return ctx.Source
}

// bindings returns the variables shared by every engine.
func (ctx RuleContext) bindings() map[string]any {
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"params":   ctx.Params,
	}
	for key, value := range ctx.Params {
		if bindable(key) {
			env[key] = value
		}
	}
	return env
}

// param looks key up like Store.Get: a missing key yields def, a key holding
// null yields nil.
func (ctx RuleContext) param(key string, def any) any {
	if value, ok := ctx.Params[key]; ok {
		return value
	}
	return def
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var reservedBindings = map[string]struct{}{
	"now": {}, "args": {}, "metadata": {}, "params": {}, "call": {}, "param": {},
}

// bindable reports whether a parameter key can be exposed as a variable.
func bindable(key string) bool {
	if _, reserved := reservedBindings[key]; reserved {
		return false
	}
	return identifierPattern.MatchString(key)
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	keys []string
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// CompileWithKeys declares the parameter keys a compiled rule will see. CEL
// needs them at compile time; the other engines ignore the option.
func CompileWithKeys(keys ...string) CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.keys = append(cfg.keys, keys...)
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}

// NewEvaluator builds the evaluator for engine with the shared cache and
// function registry. The js engine needs the js_eval build tag.
func NewEvaluator(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js (build with -tags js_eval)", ErrNoEvaluator)
		}
		return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// Evaluate runs expr against the current parameters. Like All, it polls the
// primary file first.
func (s *Store) Evaluate(ctx context.Context, expr string) (Response[any], error) {
	return s.EvaluateWith(ctx, RuleContext{}, expr)
}

// EvaluateWith runs expr using rule. When rule.Params is nil the current
// parameters are used.
func (s *Store) EvaluateWith(ctx context.Context, rule RuleContext, expr string) (Response[any], error) {
	if strings.TrimSpace(expr) == "" {
		return Response[any]{}, fmt.Errorf("params: expression must not be empty")
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return Response[any]{}, err
	}
	if rule.Params == nil {
		rule.Params = s.All(ctx).Map()
	}
	if rule.Now == nil {
		now := s.now()
		rule.Now = &now
	}
	if rule.Source == "" {
		rule.Source = s.cfg.Path
	}
	rule = rule.withDefaults()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(rule, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, expr, rule.sourceLabel(), evalErr)
	s.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Source:   rule.sourceLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return Response[any]{}, evalErr
	}
	return Response[any]{Value: value}, nil
}

func (s *Store) resolveEvaluator() (Evaluator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.evaluator != nil {
		return s.opts.evaluator, nil
	}
	evaluator, err := NewEvaluator(EngineExpr, s.opts.programCache, s.opts.functions)
	if err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	s.opts.evaluator = evaluator
	return evaluator, nil
}

func (s *Store) evaluatorLogger() EvaluatorLogger {
	if s.opts.evalLogger != nil {
		return s.opts.evalLogger
	}
	return noopEvaluatorLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	}
	if named, ok := e.(interface{ Engine() string }); ok {
		return named.Engine()
	}
	return "custom"
}
