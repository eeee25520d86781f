package seqtree

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	// Step is the index of the step being evaluated, or -1 when the failure
	// happened before any step was bound (compilation).
	Step int
	Err  error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("seqtree: %s evaluator %s step=%d: %v", e.Engine, describeExpression(e.Expr), e.Step, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "seqtree:") {
		return err
	}
	return errors.Wrapf(err, "seqtree: %s evaluator", engine)
}

func wrapEvaluationError(engine, expr string, index int, err error) error {
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
		if evalErr.Step < 0 {
			evalErr.Step = index
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Step:   index,
		Err:    err,
	}
}
