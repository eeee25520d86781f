package seqtree

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/goliatone/go-seqtree/layering"
	"github.com/goliatone/go-seqtree/step"
)

// NodeID addresses a node inside a Tree.
type NodeID int

// RootID is the id of every tree's root node.
const RootID NodeID = 0

const noNode NodeID = -1

// Tree is the reconstructed nesting of a step sequence. Nodes live in an arena
// and refer to each other by NodeID, so restructuring a branch is a matter of
// rewriting indices.
//
// The root always holds an empty Configuration and has no parent. Every other
// node has exactly one parent, assigned when it is attached.
type Tree struct {
	nodes []treeNode
}

type treeNode struct {
	config   step.Configuration
	parent   NodeID
	children []NodeID
}

// NewTree returns a tree holding only the root.
func NewTree() *Tree {
	return &Tree{nodes: []treeNode{{config: step.Empty(), parent: noNode}}}
}

// Root returns RootID.
func (t *Tree) Root() NodeID {
	return RootID
}

// Len returns the number of nodes, root included.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Configuration returns the configuration held by id.
func (t *Tree) Configuration(id NodeID) step.Configuration {
	return t.node(id).config
}

// Children returns a copy of id's children in attachment order.
func (t *Tree) Children(id NodeID) []NodeID {
	children := t.node(id).children
	if len(children) == 0 {
		return nil
	}
	out := make([]NodeID, len(children))
	copy(out, children)
	return out
}

// NumChildren returns the number of children of id.
func (t *Tree) NumChildren(id NodeID) int {
	return len(t.node(id).children)
}

// Parent returns id's parent. The root reports false.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	parent := t.node(id).parent
	return parent, parent != noNode
}

// LastChild returns the most recently attached child of id.
func (t *Tree) LastChild(id NodeID) (NodeID, bool) {
	children := t.node(id).children
	if len(children) == 0 {
		return noNode, false
	}
	return children[len(children)-1], true
}

// Depth returns the number of edges between the root and id.
func (t *Tree) Depth(id NodeID) int {
	depth := 0
	for cur := t.node(id).parent; cur != noNode; cur = t.nodes[cur].parent {
		depth++
	}
	return depth
}

// Path returns the nodes from the root's child down to id. The root itself is
// excluded, so Path(RootID) is empty.
func (t *Tree) Path(id NodeID) []NodeID {
	var path []NodeID
	for cur := id; cur != RootID; cur = t.node(cur).parent {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathConfiguration concatenates the configurations along Path(id).
func (t *Tree) PathConfiguration(id NodeID) step.Configuration {
	path := t.Path(id)
	configs := make([]step.Configuration, len(path))
	for i, node := range path {
		configs[i] = t.nodes[node].config
	}
	return layering.Concat(configs...)
}

// RightmostSpine returns the chain reached from the root by repeatedly
// following the last child, root included.
func (t *Tree) RightmostSpine() []NodeID {
	spine := []NodeID{RootID}
	for cur := RootID; ; {
		last, ok := t.LastChild(cur)
		if !ok {
			return spine
		}
		spine = append(spine, last)
		cur = last
	}
}

// Walk visits nodes depth first in child order, starting at the root. Returning
// false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(id NodeID, depth int) bool) {
	t.walk(RootID, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, int) bool) {
	if !fn(id, depth) {
		return
	}
	for _, child := range t.nodes[id].children {
		t.walk(child, depth+1, fn)
	}
}

// String renders one node per line, indented two spaces per level below the
// root. The root renders as "root".
func (t *Tree) String() string {
	var b strings.Builder
	t.Walk(func(id NodeID, depth int) bool {
		if id == RootID {
			b.WriteString("root\n")
			return true
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(t.nodes[id].config.String())
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

func (t *Tree) node(id NodeID) *treeNode {
	if id < 0 || int(id) >= len(t.nodes) {
		panic(errors.AssertionFailedf("seqtree: node %d out of range [0,%d)", id, len(t.nodes)))
	}
	return &t.nodes[id]
}

// newNode allocates a detached node.
func (t *Tree) newNode(config step.Configuration) NodeID {
	t.nodes = append(t.nodes, treeNode{config: config, parent: noNode})
	return NodeID(len(t.nodes) - 1)
}

// attach appends child to parent's children. A node can be attached once; the
// root can never be attached.
func (t *Tree) attach(parent, child NodeID) {
	c := t.node(child)
	if child == RootID || c.parent != noNode {
		panic(errors.AssertionFailedf("seqtree: node %d already attached to %d", child, c.parent))
	}
	p := t.node(parent)
	c.parent = parent
	p.children = append(p.children, child)
}

// addChild allocates a node holding config and attaches it under parent.
func (t *Tree) addChild(parent NodeID, config step.Configuration) NodeID {
	child := t.newNode(config)
	t.attach(parent, child)
	return child
}

// adoptChildren moves every child of from to the end of to's children,
// preserving order.
func (t *Tree) adoptChildren(from, to NodeID) {
	src := t.node(from)
	moved := src.children
	src.children = nil
	for _, child := range moved {
		t.nodes[child].parent = to
	}
	dst := t.node(to)
	dst.children = append(dst.children, moved...)
}

func (t *Tree) setConfiguration(id NodeID, config step.Configuration) {
	t.node(id).config = config
}
