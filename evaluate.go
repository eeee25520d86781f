package seqtree

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goliatone/go-seqtree/step"
)

// ErrNoEvaluator indicates no evaluator could be resolved for an expression.
var ErrNoEvaluator = errors.New("seqtree: evaluator not configured")

// ErrFilterResult indicates a step filter produced a non-boolean value.
var ErrFilterResult = errors.New("seqtree: step filter must evaluate to a boolean")

// stepFilter is a compiled WithStepFilter expression.
type stepFilter struct {
	engine string
	expr   string
	rule   CompiledRule
	args   map[string]any
	// keys is the union of keys across the filtered sequence.
	keys []string
}

func newStepFilter(cfg *config) (*stepFilter, error) {
	if cfg.filter == "" {
		return nil, nil
	}
	evaluator, err := cfg.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	rule, err := evaluator.Compile(cfg.filter)
	if err != nil {
		return nil, wrapEvaluationError(engine, cfg.filter, -1, err)
	}
	return &stepFilter{
		engine: engine,
		expr:   cfg.filter,
		rule:   rule,
		args:   cfg.filterArgs,
	}, nil
}

// Keep evaluates the filter for the step at index.
func (f *stepFilter) Keep(index int, s step.Configuration, now time.Time) (bool, error) {
	ctx := RuleContext{
		Step:  s,
		Index: index,
		Now:   &now,
		Args:  copyMetadata(f.args),
		Keys:  f.keys,
	}
	value, err := f.rule.Evaluate(ctx)
	if err != nil {
		return false, wrapEvaluationError(f.engine, f.expr, index, err)
	}
	keep, ok := value.(bool)
	if !ok {
		return false, wrapEvaluationError(f.engine, f.expr, index,
			errors.Wrapf(ErrFilterResult, "seqtree: got %T", value))
	}
	return keep, nil
}

// Evaluate runs expr once against s using the evaluator configured by opts,
// the same way WithStepFilter does for every step.
func Evaluate(s step.Configuration, expr string, opts ...Option) (any, error) {
	if expr == "" {
		return nil, errors.New("seqtree: expression must not be empty")
	}
	cfg := applyOptions(opts)
	evaluator, err := cfg.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	now := cfg.now()
	ctx := RuleContext{Step: s, Now: &now, Args: copyMetadata(cfg.filterArgs)}
	value, err := evaluator.Evaluate(ctx, expr)
	if err != nil {
		return nil, wrapEvaluationError(evaluatorEngineName(evaluator), expr, 0, err)
	}
	return value, nil
}

func (cfg *config) resolveEvaluator() (Evaluator, error) {
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	cfg.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*seqtree.exprEvaluator":
		return "expr"
	case "*seqtree.celEvaluator":
		return "cel"
	case "*seqtree.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
