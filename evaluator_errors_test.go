package seqtree

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "filter == 'r' && missing", 3, base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", evalErr.Engine)
	}
	if evalErr.Expr != "filter == 'r' && missing" {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if evalErr.Step != 3 {
		t.Fatalf("expected step metadata, got %d", evalErr.Step)
	}
	if !errors.Is(evalErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	if !strings.Contains(err.Error(), "step=3") {
		t.Fatalf("expected step in message, got %q", err.Error())
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Step:   -1,
		Err:    base,
	}

	err := wrapEvaluationError("cel", "rule", 9, existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
	if existing.Step != 9 {
		t.Fatalf("step should be filled, got %d", existing.Step)
	}
}

func TestWrapEvaluatorErrorKeepsPrefixedErrors(t *testing.T) {
	prefixed := errors.New("seqtree: already described")
	if got := wrapEvaluatorError("cel", prefixed); got != prefixed {
		t.Fatalf("expected prefixed error returned as-is, got %v", got)
	}
	wrapped := wrapEvaluatorError("cel", errors.New("raw"))
	if !strings.HasPrefix(wrapped.Error(), "seqtree: cel evaluator") {
		t.Fatalf("expected engine prefix, got %q", wrapped.Error())
	}
}
