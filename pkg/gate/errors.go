package gate

import (
	"errors"
	"fmt"
)

var (
	ErrNoEvaluator     = errors.New("gate: evaluator not configured")
	ErrUnknownRule     = errors.New("gate: unknown rule")
	ErrEmptyExpression = errors.New("gate: expression must not be empty")
	ErrNotBoolean      = errors.New("gate: rule did not return a bool")
)

// EvaluationError reports a compile or run failure together with the engine,
// expression and rule it came from.
type EvaluationError struct {
	Engine string
	Expr   string
	Rule   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	expr := "<empty>"
	if e.Expr != "" {
		expr = fmt.Sprintf("%q", e.Expr)
	}
	rule := e.Rule
	if rule == "" {
		rule = "inline"
	}
	return fmt.Sprintf("gate: %s rule %s expr=%s: %v", e.Engine, rule, expr, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// annotate attaches engine, expression and rule to err. An EvaluationError
// already in the chain only has its empty fields filled.
func annotate(err error, engine, expr, rule string) error {
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
		if evalErr.Rule == "" {
			evalErr.Rule = rule
		}
		return err
	}
	return &EvaluationError{Engine: engine, Expr: expr, Rule: rule, Err: err}
}
