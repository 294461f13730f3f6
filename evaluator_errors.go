package directives

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyRule is returned when an evaluator is asked to compile a blank rule.
var ErrEmptyRule = errors.New("directives: display rule is empty")

// EvaluationError reports a display rule that failed to compile, failed to
// run or returned a non-bool value.
type EvaluationError struct {
	Engine    string
	Expr      string
	Component string
	Err       error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	component := e.Component
	if component == "" {
		component = "unknown"
	}
	return fmt.Sprintf("directives: %s rule %q on component %s: %v", e.Engine, e.Expr, component, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func checkRule(engine, rule string) error {
	if strings.TrimSpace(rule) == "" {
		return &EvaluationError{Engine: engine, Err: ErrEmptyRule}
	}
	return nil
}

// wrapEvaluationError attaches rule metadata to err. Fields already set on an
// existing EvaluationError are kept.
func wrapEvaluationError(engine, expr, component string, err error) error {
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
		if evalErr.Component == "" {
			evalErr.Component = component
		}
		return evalErr
	}

	return &EvaluationError{
		Engine:    engine,
		Expr:      expr,
		Component: component,
		Err:       err,
	}
}
