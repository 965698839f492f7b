// Package boxtree normalizes a styled DOM into a box tree that
// satisfies the CSS2 content-model invariant: every non-leaf box
// contains either only block-level or only inline-level children.
//
// Parents with mixed content are rewritten by wrapping each maximal
// run of consecutive inline children in an anonymous block box. The
// anonymous box is not associated with any source node and inherits
// no author style: it behaves as display:block with everything else
// at defaults. Runs of inline content adjacent to block children are
// always the wrapped side, never the blocks.
//
// display:none subtrees are dropped here; they do not generate boxes.
package boxtree

import (
	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/style"
)

// Kind discriminates real boxes from inserted anonymous ones.
type Kind uint8

const (
	// KindStyled is a box generated by a source DOM node.
	KindStyled Kind = iota
	// KindAnonBlock is an anonymous block wrapper around a run of
	// inline children.
	KindAnonBlock
)

// Box is one node of the normalized tree.
type Box struct {
	Kind Kind

	// Source is the generating DOM node for KindStyled boxes, and the
	// *parent* DOM node for KindAnonBlock wrappers (the node whose
	// mixed children forced the wrapper).
	Source idtree.NodeId

	// Inline records the box's level in its parent's formatting
	// context: true for inline-level, false for block-level.
	// Anonymous wrappers are always block-level.
	Inline bool

	// WhitespaceOnly marks anonymous wrappers whose entire content is
	// whitespace text. Layout may drop these between blocks when
	// configured to collapse them.
	WhitespaceOnly bool
}

// Tree is the output of Build: a hierarchy parallel to a Box slice,
// plus the id mapping back to the source DOM.
type Tree struct {
	Hierarchy *idtree.Hierarchy
	Boxes     []Box
	Dom       *dom.StyledDom

	// ToBox maps a source node to its styled box. Nodes under
	// display:none have no entry.
	ToBox map[idtree.NodeId]idtree.NodeId
}

// Box returns the payload of a box id.
func (t *Tree) Box(id idtree.NodeId) *Box { return &t.Boxes[id.Index()] }

// anonStyle is the style of anonymous wrappers: display block, no
// author properties.
var anonStyle = style.Style{Display: style.DisplayBlock}

// StyleOf returns the used style of a box under the interaction state.
// Anonymous boxes always resolve to the default anonymous style.
func (t *Tree) StyleOf(id idtree.NodeId, state style.InteractionState) style.Style {
	b := t.Box(id)
	if b.Kind == KindAnonBlock {
		return anonStyle
	}
	return t.Dom.StyleOf(b.Source, state)
}

// Node returns the source styled node for a box, or nil for anonymous
// wrappers.
func (t *Tree) Node(id idtree.NodeId) *dom.StyledNode {
	b := t.Box(id)
	if b.Kind == KindAnonBlock {
		return nil
	}
	return t.Dom.Node(b.Source)
}

// Build constructs the normalized box tree for a styled DOM.
//
// The walk is a single depth-first pass. For every parent the children
// are classified as inline-level (display inline/inline-block, or text
// content, whose display is ignored) or block-level. Uniform parents
// copy through unchanged; mixed parents have each maximal inline run
// wrapped in a KindAnonBlock box. Emission goes through idtree.Builder,
// which assigns preorder ids as it appends, so no id shifting
// arithmetic is needed and each node is emitted exactly once.
func Build(d *dom.StyledDom) *Tree {
	t := &Tree{
		Dom:   d,
		ToBox: make(map[idtree.NodeId]idtree.NodeId, d.Len()),
	}
	b := idtree.NewBuilder()
	if d.Len() > 0 {
		root := idtree.Root
		if !isNone(d, root) {
			emitNode(t, b, d, root, false)
		}
	}
	t.Hierarchy = b.Build()
	return t
}

func isNone(d *dom.StyledDom, id idtree.NodeId) bool {
	n := d.Node(id)
	return n.Type != dom.NodeText && n.Style.Display == style.DisplayNone
}

// isInlineNode classifies a source node. Text nodes are always
// inline-level regardless of their display property.
func isInlineNode(d *dom.StyledDom, id idtree.NodeId) bool {
	n := d.Node(id)
	if n.HasInlineContent() {
		return true
	}
	return n.Style.IsInlineLevel()
}

// emitNode appends the box for a source node and recurses into its
// children, wrapping mixed content.
func emitNode(t *Tree, b *idtree.Builder, d *dom.StyledDom, id idtree.NodeId, inline bool) {
	boxID := b.Open()
	t.ToBox[id] = boxID
	t.Boxes = append(t.Boxes, Box{Kind: KindStyled, Source: id, Inline: inline})

	children := visibleChildren(d, id)
	if len(children) == 0 {
		b.Close()
		return
	}

	numInline := 0
	for _, c := range children {
		if isInlineNode(d, c) {
			numInline++
		}
	}

	switch {
	case numInline == len(children):
		for _, c := range children {
			emitNode(t, b, d, c, true)
		}
	case numInline == 0:
		for _, c := range children {
			emitNode(t, b, d, c, false)
		}
	default:
		emitMixed(t, b, d, id, children)
	}
	b.Close()
}

// emitMixed wraps each maximal run of inline children in an anonymous
// block box and emits block children unchanged.
func emitMixed(t *Tree, b *idtree.Builder, d *dom.StyledDom, parent idtree.NodeId, children []idtree.NodeId) {
	i := 0
	for i < len(children) {
		c := children[i]
		if !isInlineNode(d, c) {
			emitNode(t, b, d, c, false)
			i++
			continue
		}
		// Collect the maximal inline run starting at i.
		j := i
		for j < len(children) && isInlineNode(d, children[j]) {
			j++
		}
		b.Open()
		t.Boxes = append(t.Boxes, Box{
			Kind:           KindAnonBlock,
			Source:         parent,
			WhitespaceOnly: runIsWhitespace(d, children[i:j]),
		})
		for _, rc := range children[i:j] {
			emitNode(t, b, d, rc, true)
		}
		b.Close()
		i = j
	}
}

func visibleChildren(d *dom.StyledDom, id idtree.NodeId) []idtree.NodeId {
	var out []idtree.NodeId
	for c := range d.Hierarchy.Children(id) {
		if !isNone(d, c) {
			out = append(out, c)
		}
	}
	return out
}

// runIsWhitespace reports whether every node in the run is a text node
// containing only whitespace.
func runIsWhitespace(d *dom.StyledDom, run []idtree.NodeId) bool {
	for _, id := range run {
		n := d.Node(id)
		if n.Type != dom.NodeText {
			return false
		}
		for _, r := range n.Text {
			if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
				return false
			}
		}
	}
	return true
}
