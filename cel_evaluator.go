package seqtree

import (
	"reflect"
	"sort"

	"github.com/cockroachdb/errors"
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

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
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
		return nil, wrapEvaluatorError("cel", errors.New("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	vars := ctx.variables()
	program, err := e.loadOrCompile(expression, vars)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.Index, err)
	}
	out, _, err := program.program.Eval(e.activation(ctx, vars))
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.Index, err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", errors.New("expression must not be empty"))
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
	}, nil
}

// loadOrCompile declares one variable per bound key, so the cache key includes
// the key set alongside the expression. With RuleContext.Keys set every step
// of a sequence shares one program.
func (e *celEvaluator) loadOrCompile(expression string, vars map[string]any) (*celProgram, error) {
	cacheKey := celCacheKey(expression, vars)
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(vars)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(cacheKey, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) buildEnv(vars map[string]any) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("index", celgo.IntType),
		celgo.Variable("step", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.FunctionBinding(e.callBinding()),
		)))
	}
	for key := range vars {
		if celReserved(key) || !celIdentifier(key) {
			continue
		}
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

// activation binds absent keys to null, matching expr's treatment of unknown
// variables.
func (e *celEvaluator) activation(ctx RuleContext, vars map[string]any) map[string]any {
	activation := make(map[string]any, len(vars)+5)
	for key, value := range vars {
		if !celIdentifier(key) {
			continue
		}
		if value == nil {
			activation[key] = types.NullValue
			continue
		}
		activation[key] = value
	}
	activation["step"] = ctx.stepBinding()
	activation["index"] = int64(ctx.Index)
	activation["now"] = ctx.timestamp()
	activation["args"] = ctx.Args
	activation["metadata"] = ctx.Metadata
	return activation
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("cel", errors.New("compiled rule missing evaluator"))
	}
	return r.evaluator.Evaluate(ctx, r.expression)
}

// callBinding dispatches call(name, [args...]) to the function registry.
func (e *celEvaluator) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("seqtree: function registry not configured")
		}
		if len(values) != 2 {
			return types.NewErr("seqtree: call requires a name and an argument list")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("seqtree: call name must be string")
		}
		native, err := values[1].ConvertToNative(anySliceType)
		if err != nil {
			return types.NewErr("seqtree: call arguments: %s", err.Error())
		}
		args, _ := native.([]any)
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

func celCacheKey(expression string, vars map[string]any) string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	cacheKey := "cel:" + expression
	for _, key := range keys {
		cacheKey += "|" + key
	}
	return cacheKey
}

var anySliceType = reflect.TypeOf([]any{})

// celIdentifier reports whether key can be declared as a CEL variable. Other
// keys stay reachable through step["key"].
func celIdentifier(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func celReserved(key string) bool {
	switch key {
	case "now", "index", "step", "args", "metadata", "call", "true", "false", "null", "in":
		return true
	}
	return false
}
