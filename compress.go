package seqtree

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// IteratorTree is the compressed form of a Tree: each node carries a
// ConfigIterator, and runs of structurally identical sibling subtrees have been
// folded into a single node whose value lists hold one entry per run member.
type IteratorTree struct {
	Iterator *ConfigIterator
	Children []*IteratorTree
}

// Compress converts t bottom-up into an IteratorTree, merging adjacent
// compatible siblings at every level.
func Compress(t *Tree) *IteratorTree {
	return compressNode(t, RootID)
}

func compressNode(t *Tree, id NodeID) *IteratorTree {
	children := t.nodes[id].children
	compressed := make([]*IteratorTree, len(children))
	for i, child := range children {
		compressed[i] = compressNode(t, child)
	}
	return &IteratorTree{
		Iterator: NewIterator(t.nodes[id].config),
		Children: mergeSiblings(compressed),
	}
}

// mergeSiblings folds runs of adjacent mergeable siblings left to right. Only
// neighbours are compared, so a sibling that does not merge ends the run even
// when a later one would have matched an earlier one.
func mergeSiblings(siblings []*IteratorTree) []*IteratorTree {
	if len(siblings) == 0 {
		return nil
	}
	merged := make([]*IteratorTree, 0, len(siblings))
	acc := &IteratorTree{
		Iterator: siblings[0].Iterator.Clone(),
		Children: siblings[0].Children,
	}
	for _, next := range siblings[1:] {
		if !acc.mergeable(next) {
			merged = append(merged, acc)
			acc = &IteratorTree{
				Iterator: next.Iterator.Clone(),
				Children: next.Children,
			}
			continue
		}
		if err := acc.Iterator.MergeWith(next.Iterator); err != nil {
			panic(err)
		}
		// next.Children equals acc.Children and is dropped.
	}
	return append(merged, acc)
}

// mergeable reports whether next can fold into n: the iterators must index the
// same keys, while the child subtrees must be identical in every respect.
func (n *IteratorTree) mergeable(next *IteratorTree) bool {
	return n.Iterator.IsKeyCompatible(next.Iterator) && childrenEqual(n.Children, next.Children)
}

// Recompress runs the sibling merge pass again over an existing IteratorTree
// and returns the result; n is not modified. Compress output is already fully
// merged, so recompressing it yields an equal tree.
func (n *IteratorTree) Recompress() *IteratorTree {
	children := make([]*IteratorTree, len(n.Children))
	for i, child := range n.Children {
		children[i] = child.Recompress()
	}
	return &IteratorTree{
		Iterator: n.Iterator.Clone(),
		Children: mergeSiblings(children),
	}
}

// Equal reports deep structural equality: equal iterators and equal children
// in the same order, recursively.
func (n *IteratorTree) Equal(other *IteratorTree) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.Iterator.Equal(other.Iterator) && childrenEqual(n.Children, other.Children)
}

func childrenEqual(a, b []*IteratorTree) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Len returns the number of nodes in the tree, n included.
func (n *IteratorTree) Len() int {
	count := 0
	n.Walk(func(*IteratorTree, int) bool {
		count++
		return true
	})
	return count
}

// Walk visits nodes depth first in child order. Returning false from fn skips
// the node's subtree.
func (n *IteratorTree) Walk(fn func(node *IteratorTree, depth int) bool) {
	n.walk(0, fn)
}

func (n *IteratorTree) walk(depth int, fn func(*IteratorTree, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(depth+1, fn)
	}
}

// String renders one node per line, indented two spaces per depth, each line
// listing the iterator's keys and value lists. The top node renders as "root"
// when its iterator has no keys.
func (n *IteratorTree) String() string {
	var b strings.Builder
	n.Walk(func(node *IteratorTree, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		if depth == 0 && node.Iterator.Size() == 0 {
			b.WriteString("root")
		} else {
			b.WriteString(node.Iterator.String())
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

type iteratorTreeJSON struct {
	Iterator *ConfigIterator `json:"iterator"`
	Steps    int             `json:"steps"`
	Children []*IteratorTree `json:"children,omitempty"`
}

// MarshalJSON encodes the tree for external renderers.
func (n *IteratorTree) MarshalJSON() ([]byte, error) {
	if n == nil || n.Iterator == nil {
		return nil, errors.AssertionFailedf("seqtree: marshal of incomplete iterator tree")
	}
	return json.Marshal(iteratorTreeJSON{
		Iterator: n.Iterator,
		Steps:    n.Iterator.Len(),
		Children: n.Children,
	})
}
