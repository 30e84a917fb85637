package params

import (
	"fmt"
	"reflect"
	"sort"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

var anySliceType = reflect.TypeOf([]any{})

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Parameters are
// declared as dynamic variables, so a program is compiled per expression and
// key set.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression, bindableKeys(ctx.Params))
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

// Compile checks expression against the keys given with CompileWithKeys.
// Evaluating with a different key set recompiles.
func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, fmt.Errorf("expression must not be empty"))
	}
	cfg := applyCompileOptions(opts)
	keys := filterBindable(cfg.keys)
	program, err := e.loadOrCompile(expression, keys)
	if err != nil {
		return nil, err
	}
	return &celCompiledRule{evaluator: e, expression: expression, keys: keys, program: program}, nil
}

func (e *celEvaluator) run(ctx RuleContext, expression string, program celgo.Program) (any, error) {
	out, _, err := program.Eval(e.activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, ctx.sourceLabel(), err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) loadOrCompile(expression string, keys []string) (celgo.Program, error) {
	return cachedProgram(e.cache, programKey(EngineCEL, expression, keys...), func() (celgo.Program, error) {
		env, err := e.buildEnv(keys)
		if err != nil {
			return nil, wrapEvaluatorError(EngineCEL, err)
		}
		checked, issues := env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, wrapEvaluationError(EngineCEL, expression, "", issues.Err())
		}
		program, err := env.Program(checked)
		if err != nil {
			return nil, wrapEvaluationError(EngineCEL, expression, "", err)
		}
		return program, nil
	})
}

func (e *celEvaluator) buildEnv(keys []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("metadata", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("params", celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.callBinding()),
			),
		))
	}
	for _, key := range keys {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) activation(ctx RuleContext) map[string]any {
	return ctx.bindings()
}

// callBinding exposes the registry as call("name", [args...]).
func (e *celEvaluator) callBinding() functions.BinaryOp {
	return func(nameVal, argsVal ref.Val) ref.Val {
		name, ok := nameVal.Value().(string)
		if !ok {
			return types.NewErr("params: call name must be string")
		}
		var args []any
		if list, ok := argsVal.Value().([]ref.Val); ok {
			for _, item := range list {
				args = append(args, item.Value())
			}
		} else if native, err := argsVal.ConvertToNative(anySliceType); err == nil {
			args, _ = native.([]any)
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	keys       []string
	program    celgo.Program
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError(EngineCEL, fmt.Errorf("compiled rule missing evaluator"))
	}
	ctx = ctx.withDefaults()
	keys := bindableKeys(ctx.Params)
	if r.program != nil && sameKeys(keys, r.keys) {
		return r.evaluator.run(ctx, r.expression, r.program)
	}
	return r.evaluator.Evaluate(ctx, r.expression)
}

// celReserved lists identifiers the CEL parser rejects as variable names.
var celReserved = map[string]struct{}{
	"as": {}, "break": {}, "const": {}, "continue": {}, "else": {}, "false": {},
	"for": {}, "function": {}, "if": {}, "import": {}, "in": {}, "let": {},
	"loop": {}, "package": {}, "namespace": {}, "null": {}, "return": {},
	"true": {}, "var": {}, "void": {}, "while": {},
}

func bindableKeys(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	return filterBindable(keys)
}

func filterBindable(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup || !bindable(key) {
			continue
		}
		if _, reserved := celReserved[key]; reserved {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
