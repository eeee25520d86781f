// Package invariants gates expensive self-checks behind the "invariants" build
// tag. Checks that guard against illegal states callers can trigger stay on
// unconditionally; only whole-structure re-verification is gated here.
package invariants

import "github.com/cockroachdb/errors"

// Check panics with an assertion failure when cond is false and invariant
// checking is enabled.
func Check(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(errors.AssertionFailedf(format, args...))
	}
}
