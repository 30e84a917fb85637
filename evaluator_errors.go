package params

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError carries the engine, expression and parameter source of a
// failed evaluation.
type EvaluationError struct {
	Engine string
	Expr   string
	Source string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	expr := "expr=<empty>"
	if e.Expr != "" {
		expr = fmt.Sprintf("expr=%q", e.Expr)
	}
	if e.Source == "" {
		return fmt.Sprintf("params: %s evaluator %s: %v", e.Engine, expr, e.Err)
	}
	return fmt.Sprintf("params: %s evaluator %s source=%s: %v", e.Engine, expr, e.Source, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "params:") {
		return err
	}
	return fmt.Errorf("params: %s evaluator: %w", engine, err)
}

// wrapEvaluationError fills in missing fields on an existing EvaluationError
// or wraps err in a new one.
func wrapEvaluationError(engine, expr, source string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Source == "" {
			evalErr.Source = source
		}
		return err
	}
	return &EvaluationError{Engine: engine, Expr: expr, Source: source, Err: err}
}
