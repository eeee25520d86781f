// Package seqtree reconstructs the hierarchy hidden in a flat sequence of
// configurations and compresses it for display.
//
// Each step of a sequence is a step.Configuration, an ordered set of key/value
// pairs. Build inserts the steps in order into a Tree whose root-to-node paths
// concatenate back into the original steps: keys shared by consecutive steps
// rise towards the root while the keys that vary sit in the leaves. Compress
// then folds runs of adjacent sibling subtrees that differ only in their
// values into IteratorTree nodes carrying one value list per key.
//
// Reconstruct wraps both stages with an optional step filter written in
// expr-lang (default), CEL, or JavaScript when built with the js_eval tag,
// plus structured stage logging and activity hooks.
//
//	steps, _ := step.ParseSequence(data)
//	res, err := seqtree.Reconstruct(ctx, steps, seqtree.WithStepFilter(`filter != "b"`))
//	fmt.Print(res.Compressed)
package seqtree
