package seqtree

import (
	"time"

	"github.com/goliatone/go-seqtree/step"
)

// RuleContext carries inputs needed when evaluating an expression against one
// step.
type RuleContext struct {
	Step     step.Configuration
	Index    int
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	// Keys names variables bound on every step of a sequence. Keys the step
	// lacks are bound to null, so a filter sees the same variables on every
	// step whichever engine runs it.
	Keys []string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

// stepBinding returns the step as a map, exposed to expressions as the "step"
// variable.
func (ctx RuleContext) stepBinding() map[string]any {
	return ctx.Step.Map()
}

// variables returns the top-level bindings: every step pair plus a nil entry
// for each of Keys the step lacks.
func (ctx RuleContext) variables() map[string]any {
	vars := ctx.Step.Map()
	for _, key := range ctx.Keys {
		if _, ok := vars[key]; !ok {
			vars[key] = nil
		}
	}
	return vars
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

type compileConfig struct{}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
