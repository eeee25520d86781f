package seqtree

import (
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Function is a helper callable from step filter expressions.
type Function func(args ...any) (any, error)

// ErrFunctionNotRegistered is returned by Call for unknown names.
var ErrFunctionNotRegistered = errors.New("seqtree: function not registered")

// ErrFunctionName is returned by Register for names that cannot be bound in a
// filter expression.
var ErrFunctionName = errors.New("seqtree: invalid function name")

// FunctionRegistry stores filter helpers. Every engine binds a helper under the
// name it was registered with; lookups through Call ignore case, so two names
// differing only in case cannot both be registered. It is safe for concurrent
// use.
type FunctionRegistry struct {
	mu      sync.RWMutex
	entries map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{entries: map[string]registeredFunction{}}
}

// Register stores fn under name. Names must be identifiers and must not shadow
// the variables every filter sees (step, index, now, args, metadata, call).
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return errors.Newf("seqtree: function %q is nil", name)
	}
	if !celIdentifier(name) || celReserved(name) {
		return errors.Wrapf(ErrFunctionName, "seqtree: %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = map[string]registeredFunction{}
	}
	key := strings.ToLower(name)
	if existing, ok := r.entries[key]; ok {
		return errors.Newf("seqtree: function %q already registered as %q", name, existing.name)
	}
	r.entries[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Clone returns a copy that can be extended without affecting r.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{entries: make(map[string]registeredFunction, len(r.entries))}
	for key, entry := range r.entries {
		clone.entries[key] = entry
	}
	return clone
}

// Call runs the function registered under name, matched case-insensitively.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, errors.Wrapf(ErrFunctionNotRegistered, "seqtree: %q (nil registry)", name)
	}
	r.mu.RLock()
	entry, ok := r.entries[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrFunctionNotRegistered, "seqtree: %q", name)
	}
	return entry.fn(args...)
}

// Names returns the registered names, as given to Register, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry makes registry's helpers available to the step filter.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the step filter. Invalid or
// duplicate names are ignored, keeping the first registration.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
