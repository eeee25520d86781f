// Package step defines Configuration, the ordered attribute dictionary that
// describes one step of an observation sequence.
//
// A Configuration is immutable: every operation returns a new value and never
// aliases the receiver's storage. Pair order is the insertion order supplied by
// the caller and is preserved by every operation, which keeps tree
// reconstruction deterministic.
package step

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrDuplicateKey indicates a Configuration was constructed with a repeated key.
var ErrDuplicateKey = errors.New("step: duplicate key")

// Pair is one attribute of a step.
type Pair struct {
	Key   string
	Value any
}

// P is shorthand for Pair{Key: key, Value: value}.
func P(key string, value any) Pair {
	return Pair{Key: key, Value: value}
}

// Configuration is an ordered set of key/value pairs with unique keys.
type Configuration struct {
	pairs []Pair
	index map[string]int
}

// Empty returns a Configuration without pairs.
func Empty() Configuration {
	return Configuration{}
}

// New builds a Configuration from pairs, rejecting repeated keys.
func New(pairs ...Pair) (Configuration, error) {
	if len(pairs) == 0 {
		return Configuration{}, nil
	}
	out := Configuration{
		pairs: make([]Pair, 0, len(pairs)),
		index: make(map[string]int, len(pairs)),
	}
	for _, pair := range pairs {
		if _, ok := out.index[pair.Key]; ok {
			return Configuration{}, errors.Wrapf(ErrDuplicateKey, "step: key %q", pair.Key)
		}
		out.index[pair.Key] = len(out.pairs)
		out.pairs = append(out.pairs, pair)
	}
	return out, nil
}

// Must is like New but panics on error. Intended for literals in tests and
// examples.
func Must(pairs ...Pair) Configuration {
	c, err := New(pairs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Of builds a Configuration from alternating key/value arguments:
//
//	step.Of("fpu", "fpu1", "filter", "r")
func Of(kv ...any) Configuration {
	if len(kv)%2 != 0 {
		panic(errors.AssertionFailedf("step: Of requires an even number of arguments, got %d", len(kv)))
	}
	pairs := make([]Pair, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(errors.AssertionFailedf("step: Of key at %d is %T, not string", i, kv[i]))
		}
		pairs = append(pairs, Pair{Key: key, Value: kv[i+1]})
	}
	return Must(pairs...)
}

// FromMap builds a Configuration from m using keys in the supplied order. Keys
// missing from m are skipped; keys of m not listed in order are ignored.
func FromMap(m map[string]any, order []string) (Configuration, error) {
	pairs := make([]Pair, 0, len(order))
	for _, key := range order {
		value, ok := m[key]
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return New(pairs...)
}

// fromTrusted wraps pairs already known to have unique keys.
func fromTrusted(pairs []Pair) Configuration {
	if len(pairs) == 0 {
		return Configuration{}
	}
	index := make(map[string]int, len(pairs))
	for i, pair := range pairs {
		index[pair.Key] = i
	}
	return Configuration{pairs: pairs, index: index}
}

// Size returns the number of pairs.
func (c Configuration) Size() int {
	return len(c.pairs)
}

// IsEmpty reports whether c has no pairs.
func (c Configuration) IsEmpty() bool {
	return len(c.pairs) == 0
}

// Pairs returns the pairs in insertion order. The slice is a copy.
func (c Configuration) Pairs() []Pair {
	if len(c.pairs) == 0 {
		return nil
	}
	out := make([]Pair, len(c.pairs))
	copy(out, c.pairs)
	return out
}

// Keys returns the keys in insertion order.
func (c Configuration) Keys() []string {
	if len(c.pairs) == 0 {
		return nil
	}
	keys := make([]string, len(c.pairs))
	for i, pair := range c.pairs {
		keys[i] = pair.Key
	}
	return keys
}

// Get returns the value stored under key.
func (c Configuration) Get(key string) (any, bool) {
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	return c.pairs[i].Value, true
}

// Has reports whether key is present.
func (c Configuration) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

// contains reports whether pair appears in c with an equal value.
func (c Configuration) contains(pair Pair) bool {
	value, ok := c.Get(pair.Key)
	return ok && ValuesEqual(value, pair.Value)
}

// Matches reports whether every pair of other also appears in c with an equal
// value. An empty other always matches.
func (c Configuration) Matches(other Configuration) bool {
	if len(other.pairs) > len(c.pairs) {
		return false
	}
	for _, pair := range other.pairs {
		if !c.contains(pair) {
			return false
		}
	}
	return true
}

// Intersect returns the pairs of c that appear with an equal value in other,
// in c's order.
func (c Configuration) Intersect(other Configuration) Configuration {
	var shared []Pair
	for _, pair := range c.pairs {
		if other.contains(pair) {
			shared = append(shared, pair)
		}
	}
	return fromTrusted(shared)
}

// Difference returns c without the pairs whose key appears in other.
//
// Removal is by key only. Every caller in this module subtracts a
// Configuration whose overlapping keys already agree in value with c, so key
// based and pair based removal coincide there.
func (c Configuration) Difference(other Configuration) Configuration {
	if len(other.pairs) == 0 {
		return c
	}
	var rest []Pair
	for _, pair := range c.pairs {
		if !other.Has(pair.Key) {
			rest = append(rest, pair)
		}
	}
	return fromTrusted(rest)
}

// Concat appends the pairs of other whose keys c does not already hold. Keys
// present in both keep c's value.
func (c Configuration) Concat(other Configuration) Configuration {
	if len(other.pairs) == 0 {
		return c
	}
	out := make([]Pair, len(c.pairs), len(c.pairs)+len(other.pairs))
	copy(out, c.pairs)
	for _, pair := range other.pairs {
		if c.Has(pair.Key) {
			continue
		}
		out = append(out, pair)
	}
	return fromTrusted(out)
}

// Equal reports whether c and other hold the same pairs, ignoring order.
func (c Configuration) Equal(other Configuration) bool {
	return len(c.pairs) == len(other.pairs) && c.Matches(other)
}

// Map returns the pairs as a plain map.
func (c Configuration) Map() map[string]any {
	out := make(map[string]any, len(c.pairs))
	for _, pair := range c.pairs {
		out[pair.Key] = pair.Value
	}
	return out
}

// String renders c as {k1:v1, k2:v2} in insertion order.
func (c Configuration) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, pair := range c.pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%v", pair.Key, pair.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// ValuesEqual is the value equality used by every Configuration operation.
func ValuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
