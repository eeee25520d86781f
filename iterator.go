package seqtree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/goliatone/go-seqtree/internal/invariants"
	"github.com/goliatone/go-seqtree/step"
)

// ConfigIterator maps each key to the values it takes across a run of merged
// steps. Every value list has one entry per merged step. Keys are kept sorted.
type ConfigIterator struct {
	keys   []string
	values map[string][]any
	steps  int
}

// NewIterator converts c into an iterator over a single step.
func NewIterator(c step.Configuration) *ConfigIterator {
	it := &ConfigIterator{
		keys:   c.Keys(),
		values: make(map[string][]any, c.Size()),
		steps:  1,
	}
	for _, pair := range c.Pairs() {
		it.values[pair.Key] = []any{pair.Value}
	}
	slices.Sort(it.keys)
	return it
}

// Keys returns the sorted keys.
func (it *ConfigIterator) Keys() []string {
	return slices.Clone(it.keys)
}

// Values returns a copy of the value list for key.
func (it *ConfigIterator) Values(key string) []any {
	return slices.Clone(it.values[key])
}

// Len returns the number of steps merged into the iterator.
func (it *ConfigIterator) Len() int {
	return it.steps
}

// Size returns the number of keys.
func (it *ConfigIterator) Size() int {
	return len(it.keys)
}

// Step returns the configuration of the i-th merged step, keys in sorted order.
func (it *ConfigIterator) Step(i int) (step.Configuration, bool) {
	if i < 0 || i >= it.steps {
		return step.Configuration{}, false
	}
	pairs := make([]step.Pair, len(it.keys))
	for k, key := range it.keys {
		pairs[k] = step.P(key, it.values[key][i])
	}
	return step.Must(pairs...), true
}

// IsKeyCompatible reports whether it and other index the same key set. Values
// and list lengths are not compared.
func (it *ConfigIterator) IsKeyCompatible(other *ConfigIterator) bool {
	return slices.Equal(it.keys, other.keys)
}

// MergeWith appends other's value lists to it. Only key-compatible iterators
// can be merged; anything else is a caller bug and is reported as an assertion
// failure without modifying it.
func (it *ConfigIterator) MergeWith(other *ConfigIterator) error {
	if !it.IsKeyCompatible(other) {
		return errors.AssertionFailedf("seqtree: merging iterators over keys %v and %v",
			errors.Safe(it.keys), errors.Safe(other.keys))
	}
	for _, key := range other.keys {
		it.values[key] = append(it.values[key], other.values[key]...)
	}
	it.steps += other.steps
	if invariants.Enabled {
		for _, key := range it.keys {
			invariants.Check(len(it.values[key]) == it.steps,
				"seqtree: %q holds %d values for %d steps", key, len(it.values[key]), it.steps)
		}
	}
	return nil
}

// Equal reports whether it and other hold the same keys, step count and
// value lists.
func (it *ConfigIterator) Equal(other *ConfigIterator) bool {
	if it.steps != other.steps || !it.IsKeyCompatible(other) {
		return false
	}
	for _, key := range it.keys {
		if !slices.EqualFunc(it.values[key], other.values[key], step.ValuesEqual) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the key and list structure. Values are shared.
func (it *ConfigIterator) Clone() *ConfigIterator {
	out := &ConfigIterator{
		keys:   slices.Clone(it.keys),
		values: make(map[string][]any, len(it.values)),
		steps:  it.steps,
	}
	for key, list := range it.values {
		out.values[key] = slices.Clone(list)
	}
	return out
}

// String renders "key=[v1 v2]" pairs separated by spaces, or "{}" when the
// iterator has no keys.
func (it *ConfigIterator) String() string {
	if len(it.keys) == 0 {
		if it.steps > 1 {
			return fmt.Sprintf("{} x%d", it.steps)
		}
		return "{}"
	}
	var b strings.Builder
	for i, key := range it.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", key, it.values[key])
	}
	return b.String()
}

// MarshalJSON encodes the iterator as an object of key to value list, keys in
// sorted order.
func (it *ConfigIterator) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range it.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		encodedValues, err := json.Marshal(it.values[key])
		if err != nil {
			return nil, errors.Wrapf(err, "seqtree: marshal values for %q", key)
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValues)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
