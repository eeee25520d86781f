//go:build !js_eval

package seqtree

// NewJSEvaluator returns nil without the js_eval build tag. Check
// JSEvaluatorAvailable before wiring it into WithEvaluator.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
