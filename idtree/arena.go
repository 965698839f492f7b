// Package idtree provides an id-based node arena for hierarchies.
//
// Nodes are identified by integer ids instead of pointers, so a whole
// tree lives in one contiguous slice with no lifetime entanglement.
// Nodes are stored in depth-first preorder, which makes the first
// child of any node computable (it is id+1 when the node has children)
// and keeps per-node storage at four links.
package idtree

import (
	"errors"
	"fmt"
	"iter"
)

// NodeId identifies a node within a Hierarchy. The zero value means
// "no node": ids store index+1 internally so an optional NodeId needs
// no separate sentinel and packs into compact storage.
type NodeId uint32

// None is the absent NodeId.
const None NodeId = 0

// Root is the id of the root node of any non-empty hierarchy.
const Root NodeId = 1

// FromIndex returns the NodeId for a slice index.
func FromIndex(i int) NodeId {
	return NodeId(i + 1) //nolint:gosec // tree sizes are bounded by memory long before uint32
}

// Index returns the slice index for the id. Calling Index on None is
// a bug; it returns -1 so misuse fails loudly in slice accesses.
func (id NodeId) Index() int { return int(id) - 1 }

// IsNone reports whether the id refers to no node.
func (id NodeId) IsNone() bool { return id == None }

// String implements fmt.Stringer.
func (id NodeId) String() string {
	if id.IsNone() {
		return "NodeId(none)"
	}
	return fmt.Sprintf("NodeId(%d)", id.Index())
}

// Node holds the hierarchical links of a single node.
//
// FirstChild is not stored: when LastChild is set, the first child of
// node id is id+1 because nodes are stored in depth-first preorder.
type Node struct {
	Parent      NodeId
	PrevSibling NodeId
	NextSibling NodeId
	LastChild   NodeId
}

// HasChildren reports whether the node has at least one child.
func (n Node) HasChildren() bool { return !n.LastChild.IsNone() }

// Hierarchy is a flat array of nodes in depth-first preorder.
// The zero value is an empty hierarchy.
type Hierarchy struct {
	nodes []Node
}

// NewHierarchy wraps a preorder node slice. The caller is responsible
// for link consistency; use CheckConsistency to validate.
func NewHierarchy(nodes []Node) *Hierarchy {
	return &Hierarchy{nodes: nodes}
}

// Len returns the number of nodes.
func (h *Hierarchy) Len() int { return len(h.nodes) }

// Node returns the links of the given node.
func (h *Hierarchy) Node(id NodeId) Node { return h.nodes[id.Index()] }

// Nodes returns the underlying node slice. The slice is shared, not
// copied; mutating it mutates the hierarchy.
func (h *Hierarchy) Nodes() []Node { return h.nodes }

// Parent returns the parent of id, or None for the root.
func (h *Hierarchy) Parent(id NodeId) NodeId { return h.nodes[id.Index()].Parent }

// FirstChild returns the first child of id, or None if id is a leaf.
func (h *Hierarchy) FirstChild(id NodeId) NodeId {
	if h.nodes[id.Index()].LastChild.IsNone() {
		return None
	}
	return id + 1
}

// LastChild returns the last child of id, or None if id is a leaf.
func (h *Hierarchy) LastChild(id NodeId) NodeId { return h.nodes[id.Index()].LastChild }

// NextSibling returns the next sibling of id, or None.
func (h *Hierarchy) NextSibling(id NodeId) NodeId { return h.nodes[id.Index()].NextSibling }

// PrevSibling returns the previous sibling of id, or None.
func (h *Hierarchy) PrevSibling(id NodeId) NodeId { return h.nodes[id.Index()].PrevSibling }

// Children iterates over the direct children of id in document order.
func (h *Hierarchy) Children(id NodeId) iter.Seq[NodeId] {
	return func(yield func(NodeId) bool) {
		for c := h.FirstChild(id); !c.IsNone(); c = h.NextSibling(c) {
			if !yield(c) {
				return
			}
		}
	}
}

// ChildCount returns the number of direct children of id.
func (h *Hierarchy) ChildCount(id NodeId) int {
	n := 0
	for c := h.FirstChild(id); !c.IsNone(); c = h.NextSibling(c) {
		n++
	}
	return n
}

// SubtreeLen returns the number of nodes in the subtree rooted at id,
// including id itself. Because storage is preorder, the subtree is the
// contiguous index range [id, id+SubtreeLen).
func (h *Hierarchy) SubtreeLen(id NodeId) int {
	last := id
	for !h.nodes[last.Index()].LastChild.IsNone() {
		last = h.nodes[last.Index()].LastChild
	}
	return last.Index() - id.Index() + 1
}

// Descendants iterates over the subtree rooted at id in preorder,
// including id itself.
func (h *Hierarchy) Descendants(id NodeId) iter.Seq[NodeId] {
	return func(yield func(NodeId) bool) {
		end := id.Index() + h.SubtreeLen(id)
		for i := id.Index(); i < end; i++ {
			if !yield(FromIndex(i)) {
				return
			}
		}
	}
}

// Depth returns the number of ancestors of id.
func (h *Hierarchy) Depth(id NodeId) int {
	d := 0
	for p := h.Parent(id); !p.IsNone(); p = h.Parent(p) {
		d++
	}
	return d
}

// DepthParent pairs a parent node with its depth in the tree.
type DepthParent struct {
	Depth  int
	Parent NodeId
}

// ParentsInDepthOrder returns every node that has children, sorted by
// increasing depth (ties in document order). Tree-rewriting passes
// visit parents in this order so that a parent is processed before any
// of its descendant parents.
func (h *Hierarchy) ParentsInDepthOrder() []DepthParent {
	var out []DepthParent
	for i := range h.nodes {
		if h.nodes[i].HasChildren() {
			id := FromIndex(i)
			out = append(out, DepthParent{Depth: h.Depth(id), Parent: id})
		}
	}
	// Insertion sort on depth keeps document order within one depth.
	// Parent lists are small relative to node counts.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Depth > out[j].Depth; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Consistency errors reported by CheckConsistency.
var (
	ErrEmptyHierarchy = errors.New("idtree: empty hierarchy")
	ErrBadLink        = errors.New("idtree: inconsistent link")
	ErrCycle          = errors.New("idtree: cycle detected")
)

// CheckConsistency validates the structural invariants:
//
//   - the first node is the only node without a parent
//   - every parent's child list contains each child exactly once
//   - sibling chains are doubly linked
//   - children follow their parent in storage order (acyclicity)
//
// It returns nil when the hierarchy is well formed, or a wrapped
// ErrBadLink / ErrCycle describing the first violation found.
func (h *Hierarchy) CheckConsistency() error {
	if len(h.nodes) == 0 {
		return ErrEmptyHierarchy
	}
	if !h.nodes[0].Parent.IsNone() {
		return fmt.Errorf("%w: root has parent %v", ErrBadLink, h.nodes[0].Parent)
	}
	for i := 1; i < len(h.nodes); i++ {
		id := FromIndex(i)
		p := h.nodes[i].Parent
		if p.IsNone() {
			return fmt.Errorf("%w: %v has no parent", ErrBadLink, id)
		}
		if p.Index() >= i {
			return fmt.Errorf("%w: %v precedes its parent %v", ErrCycle, id, p)
		}
	}
	for i := range h.nodes {
		id := FromIndex(i)
		seen := 0
		prev := None
		for c := h.FirstChild(id); !c.IsNone(); c = h.NextSibling(c) {
			seen++
			if seen > h.Len() {
				return fmt.Errorf("%w: sibling chain of %v does not terminate", ErrCycle, id)
			}
			if h.Parent(c) != id {
				return fmt.Errorf("%w: %v in child list of %v but has parent %v",
					ErrBadLink, c, id, h.Parent(c))
			}
			if h.PrevSibling(c) != prev {
				return fmt.Errorf("%w: %v.prevSibling = %v, want %v",
					ErrBadLink, c, h.PrevSibling(c), prev)
			}
			prev = c
		}
		if h.LastChild(id) != prev {
			return fmt.Errorf("%w: %v.lastChild = %v, want %v",
				ErrBadLink, id, h.LastChild(id), prev)
		}
	}
	return nil
}

// Builder constructs a Hierarchy in depth-first preorder.
//
// Open appends a node as a child of the currently open node and makes
// it the open node; Close returns to its parent. The usage mirrors the
// document structure:
//
//	b := idtree.NewBuilder()
//	root := b.Open()
//	child := b.Open()
//	b.Close() // child
//	b.Close() // root
//	h := b.Build()
type Builder struct {
	nodes []Node
	stack []NodeId
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Open appends a new node under the currently open node (or as the
// root when nothing is open) and returns its id.
func (b *Builder) Open() NodeId {
	id := FromIndex(len(b.nodes))
	n := Node{}
	if len(b.stack) > 0 {
		parent := b.stack[len(b.stack)-1]
		n.Parent = parent
		prev := b.nodes[parent.Index()].LastChild
		n.PrevSibling = prev
		if !prev.IsNone() {
			b.nodes[prev.Index()].NextSibling = id
		}
		b.nodes[parent.Index()].LastChild = id
	}
	b.nodes = append(b.nodes, n)
	b.stack = append(b.stack, id)
	return id
}

// Close finishes the currently open node. It panics when no node is
// open; that is a programming error, not an input error.
func (b *Builder) Close() {
	if len(b.stack) == 0 {
		panic("idtree: Close without Open")
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// Leaf appends a childless node under the currently open node.
func (b *Builder) Leaf() NodeId {
	id := b.Open()
	b.Close()
	return id
}

// Build returns the constructed hierarchy. All opened nodes must have
// been closed.
func (b *Builder) Build() *Hierarchy {
	if len(b.stack) != 0 {
		panic(fmt.Sprintf("idtree: Build with %d unclosed nodes", len(b.stack)))
	}
	return &Hierarchy{nodes: b.nodes}
}
