package seqtree

import (
	"github.com/cockroachdb/errors"
	"github.com/goliatone/go-seqtree/internal/invariants"
	"github.com/goliatone/go-seqtree/step"
)

// Build reconstructs the nesting of steps, inserting them in order. An empty
// sequence yields a tree holding only the root.
func Build(steps []step.Configuration) *Tree {
	b := NewBuilder()
	for _, s := range steps {
		b.Insert(s)
	}
	return b.Tree()
}

// Builder grows a Tree one step at a time. The tree is valid after every
// Insert: each inserted step is reproduced by concatenating the configurations
// on the path from the root to the node recorded for it.
//
// A Builder is not safe for concurrent use; insertion order is significant.
type Builder struct {
	tree  *Tree
	steps []step.Configuration
	// ends[i] is the node where step i's path ends.
	ends []NodeID
	// endsAt is the inverse of ends, used to relocate steps when a split
	// pushes a node's content one level down.
	endsAt map[NodeID][]int
}

// NewBuilder returns a builder over a root-only tree.
func NewBuilder() *Builder {
	return &Builder{
		tree:   NewTree(),
		endsAt: map[NodeID][]int{},
	}
}

// Tree returns the tree built so far. It shares storage with the builder and
// changes with further inserts.
func (b *Builder) Tree() *Tree {
	return b.tree
}

// Len returns the number of steps inserted.
func (b *Builder) Len() int {
	return len(b.steps)
}

// Insert adds one step and returns the node where its path now ends.
//
// Insertion always starts at the root and only ever descends through last
// children: steps arrive in time order, so only the most recently opened
// branch can still be continuing. A step that diverges from that branch
// grafts a new branch at, or above, the point of divergence.
//
// When the step contains every pair of a childless node it reaches, the new
// leaf holds only the pairs not already on the path, never the whole step. A
// step that repeats its predecessor therefore ends at an empty node below the
// predecessor's end.
func (b *Builder) Insert(s step.Configuration) NodeID {
	t := b.tree
	cur := RootID
	remaining := s
	var end NodeID
	for {
		curConfig := t.Configuration(cur)

		if remaining.Matches(curConfig) {
			rest := remaining.Difference(curConfig)
			last, ok := t.LastChild(cur)
			if !ok {
				end = t.addChild(cur, rest)
				break
			}
			cur, remaining = last, rest
			continue
		}

		shared := curConfig.Intersect(remaining)
		if shared.IsEmpty() {
			// The root matches everything, so cur has a parent here.
			parent, _ := t.Parent(cur)
			end = t.addChild(parent, remaining)
			break
		}
		end = b.split(cur, shared, curConfig.Difference(shared), remaining.Difference(shared))
		break
	}

	b.record(s, end)
	if invariants.Enabled {
		if err := b.Verify(); err != nil {
			panic(errors.NewAssertionErrorWithWrappedErrf(err, "seqtree: insert of step %d", len(b.steps)-1))
		}
	}
	return end
}

// split factors cur into shared, keeping shared in place. cur's previous
// remainder moves into a new first child that inherits all of cur's children;
// the diverging remainder becomes a new second child, which is returned.
func (b *Builder) split(cur NodeID, shared, oldRest, newRest step.Configuration) NodeID {
	t := b.tree
	t.setConfiguration(cur, shared)

	splitOld := t.newNode(oldRest)
	t.adoptChildren(cur, splitOld)
	t.attach(cur, splitOld)
	b.relocate(cur, splitOld)

	return t.addChild(cur, newRest)
}

func (b *Builder) record(s step.Configuration, end NodeID) {
	i := len(b.steps)
	b.steps = append(b.steps, s)
	b.ends = append(b.ends, end)
	b.endsAt[end] = append(b.endsAt[end], i)
}

func (b *Builder) relocate(from, to NodeID) {
	moved, ok := b.endsAt[from]
	if !ok {
		return
	}
	delete(b.endsAt, from)
	for _, i := range moved {
		b.ends[i] = to
	}
	b.endsAt[to] = append(b.endsAt[to], moved...)
}

// End returns the node where step i's path ends.
func (b *Builder) End(i int) (NodeID, bool) {
	if i < 0 || i >= len(b.ends) {
		return noNode, false
	}
	return b.ends[i], true
}

// Trace returns the provenance of step i.
func (b *Builder) Trace(i int) (Trace, bool) {
	end, ok := b.End(i)
	if !ok {
		return Trace{}, false
	}
	return Trace{
		Step:          i,
		Nodes:         b.tree.Path(end),
		Configuration: b.tree.PathConfiguration(end),
	}, true
}

// Traces returns the provenance of every inserted step, in insertion order.
func (b *Builder) Traces() []Trace {
	if len(b.steps) == 0 {
		return nil
	}
	out := make([]Trace, len(b.steps))
	for i := range b.steps {
		out[i], _ = b.Trace(i)
	}
	return out
}

// Verify checks that every inserted step is reproduced exactly by its path.
func (b *Builder) Verify() error {
	for i, want := range b.steps {
		got := b.tree.PathConfiguration(b.ends[i])
		if !got.Equal(want) {
			return errors.Newf("seqtree: step %d reconstructs as %s, want %s", i, got, want)
		}
	}
	return nil
}
