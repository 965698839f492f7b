// Package dom models the styled input tree the layout core consumes.
//
// A StyledDom is the contract with the host application: a node
// hierarchy (package idtree) plus, per node, a node type, a resolved
// style with optional interaction-state overrides, identity tokens and
// hit-test metadata. uicore never parses markup or CSS; the host hands
// over an already-styled tree and a viewport, and submits a new tree
// whenever structure changes.
package dom

import (
	"fmt"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/style"
)

// NodeType is the kind of content a node renders.
type NodeType uint8

const (
	// NodeDiv is a plain container box.
	NodeDiv NodeType = iota
	// NodeText renders an inline text run.
	NodeText
	// NodeImage renders a raster image.
	NodeImage
	// NodeGlTexture composites an externally rendered GPU texture.
	NodeGlTexture
	// NodeIFrame embeds a nested document with its own pipeline.
	NodeIFrame
)

var nodeTypeNames = [...]string{
	NodeDiv:       "div",
	NodeText:      "text",
	NodeImage:     "image",
	NodeGlTexture: "gl-texture",
	NodeIFrame:    "iframe",
}

// String returns the node type name.
func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "unknown"
}

// ImageHandle references an image resource registered with the host.
type ImageHandle uint64

// TextureHandle references an external GPU texture owned by the host.
type TextureHandle uint64

// PipelineID identifies a nested document pipeline (iframes).
type PipelineID uint32

// HitTag is the 64-bit opaque tag carried by hit-test areas:
// the document id in the high 32 bits, the node id in the low 32.
type HitTag uint64

// MakeHitTag packs a document id and node id into a tag.
func MakeHitTag(docID uint32, node idtree.NodeId) HitTag {
	return HitTag(uint64(docID)<<32 | uint64(node))
}

// DocID returns the document id encoded in the tag.
func (t HitTag) DocID() uint32 { return uint32(t >> 32) } //nolint:gosec // intentional truncation

// Node returns the node id encoded in the tag.
func (t HitTag) Node() idtree.NodeId { return idtree.NodeId(t) } //nolint:gosec // intentional truncation

// String formats the tag for diagnostics.
func (t HitTag) String() string {
	return fmt.Sprintf("HitTag(doc=%d, %v)", t.DocID(), t.Node())
}

// ClipMask clips a node's subtree to an arbitrary image mask.
type ClipMask struct {
	Image ImageHandle
	Rect  uicore.Rect
}

// StyledNode is the per-node payload of a StyledDom.
type StyledNode struct {
	Type  NodeType
	Style style.Style

	// StateOverrides are interaction-state-conditional property
	// vectors; style.ApplyState selects among them.
	StateOverrides []style.StateOverride

	// Identity tokens, kept for diagnostics and host callbacks.
	ID      string
	Classes []string

	// Inline rect content. Text is set for NodeText; Image for
	// NodeImage; Texture for NodeGlTexture; Pipeline for NodeIFrame.
	Text     string
	Image    ImageHandle
	Texture  TextureHandle
	Pipeline PipelineID

	// Hit testing and focus.
	HitTag   HitTag
	TabIndex int // 0 means not focusable
	ClipMask *ClipMask
}

// HasInlineContent reports whether the node carries rect content that
// forces inline layout (text always lays out inline).
func (n *StyledNode) HasInlineContent() bool {
	return n.Type == NodeText
}

// StyledDom couples a node hierarchy with per-node styled data.
// Nodes and hierarchy are index-aligned: the payload of node id is
// Nodes[id.Index()].
type StyledDom struct {
	Hierarchy *idtree.Hierarchy
	Nodes     []StyledNode
}

// Len returns the node count.
func (d *StyledDom) Len() int { return len(d.Nodes) }

// Node returns the payload of id.
func (d *StyledDom) Node(id idtree.NodeId) *StyledNode {
	return &d.Nodes[id.Index()]
}

// StyleOf returns the style of id with the given interaction state
// applied.
func (d *StyledDom) StyleOf(id idtree.NodeId, state style.InteractionState) style.Style {
	n := d.Node(id)
	return style.ApplyState(n.Style, n.StateOverrides, state)
}

// Validate checks structural integrity of the tree and index
// alignment of the payload slice.
func (d *StyledDom) Validate() error {
	if d.Hierarchy.Len() != len(d.Nodes) {
		return fmt.Errorf("dom: hierarchy has %d nodes, payload has %d",
			d.Hierarchy.Len(), len(d.Nodes))
	}
	return d.Hierarchy.CheckConsistency()
}

// Builder assembles a StyledDom in document order. It wraps
// idtree.Builder so hosts construct trees without manual link
// management:
//
//	b := dom.NewBuilder()
//	b.Open(dom.StyledNode{Type: dom.NodeDiv})
//	b.Text("hello", style.Style{})
//	b.Close()
//	d := b.Build()
type Builder struct {
	tree  *idtree.Builder
	nodes []StyledNode
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{tree: idtree.NewBuilder()}
}

// Open appends a node under the currently open node and keeps it open
// for children.
func (b *Builder) Open(n StyledNode) idtree.NodeId {
	id := b.tree.Open()
	b.nodes = append(b.nodes, n)
	return id
}

// Close finishes the currently open node.
func (b *Builder) Close() { b.tree.Close() }

// Leaf appends a childless node.
func (b *Builder) Leaf(n StyledNode) idtree.NodeId {
	id := b.Open(n)
	b.Close()
	return id
}

// Text appends a text leaf with the given style.
func (b *Builder) Text(text string, s style.Style) idtree.NodeId {
	return b.Leaf(StyledNode{Type: NodeText, Style: s, Text: text})
}

// Build returns the finished StyledDom.
func (b *Builder) Build() *StyledDom {
	return &StyledDom{Hierarchy: b.tree.Build(), Nodes: b.nodes}
}
