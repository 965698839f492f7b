// Package layout solves the box tree into absolute positions: block
// stacking with margin collapsing, inline paragraphs delegated to the
// text engine, flex distribution, table grids with collapsed borders,
// absolutely positioned boxes and float band narrowing.
//
// The result is a flat per-box table addressed by node id; no tree
// traversal is needed to read a position.
package layout

import (
	"errors"
	"math"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/boxtree"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/style"
	"github.com/gogpu/uicore/text"
)

// ErrNoProvider is returned when the tree contains text but no font
// provider was configured.
var ErrNoProvider = errors.New("layout: text content requires a font provider")

// PositionedRect is the solved geometry of one box, in absolute
// coordinates. Bounds is the border box.
type PositionedRect struct {
	Bounds       uicore.Rect
	Margin       uicore.Insets
	Padding      uicore.Insets
	BorderWidths uicore.Insets

	// ContentSize is the content box size (scrollable extent for
	// overflow containers may exceed it; see Text).
	ContentSize uicore.Size

	// Text is the inline layout of this box when it establishes an
	// inline formatting context.
	Text *text.Result

	Overflow style.Overflow
}

// PaddingBox returns the bounds inset by the borders.
func (p *PositionedRect) PaddingBox() uicore.Rect {
	return p.Bounds.Shrink(p.BorderWidths)
}

// ContentBox returns the bounds inset by borders and padding.
func (p *PositionedRect) ContentBox() uicore.Rect {
	return p.PaddingBox().Shrink(p.Padding)
}

// Options configures a solve.
type Options struct {
	// Provider resolves and shapes fonts for inline content.
	Provider text.Provider
	// TextCache, when set, memoizes paragraph layouts across solves.
	TextCache *text.LayoutCache
	// Hyphenator enables automatic hyphenation.
	Hyphenator text.Hyphenator
	// States carries per-node interaction states (hover, active,
	// focus); absent nodes use the normal state.
	States map[idtree.NodeId]style.InteractionState
}

// Result is a finished layout.
type Result struct {
	Rects    []PositionedRect
	Viewport uicore.Size
}

// Rect returns the solved geometry of a box id.
func (r *Result) Rect(id idtree.NodeId) *PositionedRect {
	return &r.Rects[id.Index()]
}

// Solve lays out a box tree against a viewport.
func Solve(tree *boxtree.Tree, viewport uicore.Size, opts Options) (*Result, error) {
	s := &solver{
		tree: tree,
		opts: &opts,
		res: &Result{
			Rects:    make([]PositionedRect, tree.Hierarchy.Len()),
			Viewport: viewport,
		},
	}
	if tree.Hierarchy.Len() == 0 {
		return s.res, nil
	}

	cb := containingBlock{
		rect:     uicore.Rect{W: viewport.Width, H: viewport.Height},
		wDef:     true,
		hDef:     true,
		absolute: uicore.Rect{W: viewport.Width, H: viewport.Height},
	}
	if _, err := s.layoutBlockLevel(idtree.Root, 0, 0, cb); err != nil {
		return nil, err
	}
	if err := s.layoutDeferred(); err != nil {
		return nil, err
	}
	return s.res, nil
}

// containingBlock carries the geometry children resolve against.
type containingBlock struct {
	rect uicore.Rect // content box of the container, absolute
	wDef bool
	hDef bool

	// absolute is the containing block for absolutely positioned
	// descendants: the padding box of the nearest positioned ancestor.
	absolute uicore.Rect
}

func (cb containingBlock) styleCB() style.ContainingBlock {
	return style.ContainingBlock{
		Width:          cb.rect.W,
		Height:         cb.rect.H,
		WidthDefinite:  cb.wDef,
		HeightDefinite: cb.hDef,
	}
}

// deferred is an out-of-flow box remembered until normal flow is done.
type deferred struct {
	id     idtree.NodeId
	static uicore.Point // static position fallback
	cb     containingBlock
	fixed  bool
}

type solver struct {
	tree     *boxtree.Tree
	opts     *Options
	res      *Result
	deferred []deferred
	floats   []activeFloat

	// override forces used border-box sizes on specific boxes; flex
	// items receive their resolved main size this way.
	override map[idtree.NodeId]sizeOverride
}

// sizeOverride is a forced border-box size for one layout call.
type sizeOverride struct {
	w, h       float64
	hasW, hasH bool
}

func (s *solver) setOverride(id idtree.NodeId, ov sizeOverride) {
	if s.override == nil {
		s.override = make(map[idtree.NodeId]sizeOverride)
	}
	s.override[id] = ov
}

func (s *solver) styleOf(id idtree.NodeId) style.Style {
	st := style.InteractionState(style.StateNormal)
	b := s.tree.Box(id)
	if b.Kind == boxtree.KindStyled {
		if v, ok := s.opts.States[b.Source]; ok {
			st = v
		}
	}
	return s.tree.StyleOf(id, st)
}

// boxMetrics are the used margin/padding/border widths of a box.
type boxMetrics struct {
	margin  uicore.Insets
	padding uicore.Insets
	border  uicore.Insets
}

func (s *solver) metrics(st *style.Style, cb containingBlock) boxMetrics {
	scb := cb.styleCB()
	return boxMetrics{
		margin:  style.ResolveMargins(st, scb),
		padding: style.ResolvePadding(st, scb),
		border:  style.BorderWidths(st),
	}
}

// laid reports a block-level box's outcome to its parent.
type laid struct {
	// height of the border box
	height float64
	// margins participating in sibling collapsing
	marginTop    float64
	marginBottom float64
}

// collapseMargin combines two adjoining vertical margins per CSS:
// the larger of two positives, the more negative of two negatives,
// the sum of a positive and a negative.
func collapseMargin(a, b float64) float64 {
	switch {
	case a >= 0 && b >= 0:
		return math.Max(a, b)
	case a < 0 && b < 0:
		return math.Min(a, b)
	default:
		return a + b
	}
}

// resolveWidth returns the used border-box width of a block-level box.
func resolveWidth(st *style.Style, m boxMetrics, cb containingBlock) float64 {
	edges := m.padding.Left + m.padding.Right + m.border.Left + m.border.Right
	w, ok := st.Width.Resolve(cb.rect.W, cb.wDef)
	if !ok {
		// auto fills the containing block
		w = cb.rect.W - m.margin.Left - m.margin.Right - edges
		if w < 0 {
			w = 0
		}
	}
	w = style.ClampSize(w, st.MinWidth, st.MaxWidth, cb.rect.W, cb.wDef)
	return w + edges
}

// layoutBlockLevel lays out one block-level box with its margin-box
// top-left pinned at (x, y) inside cb, and dispatches on its inner
// formatting context.
func (s *solver) layoutBlockLevel(id idtree.NodeId, x, y float64, cb containingBlock) (laid, error) {
	st := s.styleOf(id)
	m := s.metrics(&st, cb)

	if ov, ok := s.override[id]; ok {
		delete(s.override, id)
		if ov.hasW {
			w := ov.w - m.padding.Horizontal() - m.border.Horizontal()
			st.Width = style.Px(math.Max(0, w))
			st.MinWidth, st.MaxWidth = style.Auto(), style.Auto()
		}
		if ov.hasH {
			h := ov.h - m.padding.Vertical() - m.border.Vertical()
			st.Height = style.Px(math.Max(0, h))
			st.MinHeight, st.MaxHeight = style.Auto(), style.Auto()
		}
	}

	borderW := resolveWidth(&st, m, cb)
	bx := x + m.margin.Left
	by := y + m.margin.Top

	rect := &s.res.Rects[id.Index()]
	rect.Margin = m.margin
	rect.Padding = m.padding
	rect.BorderWidths = m.border
	rect.Overflow = st.Overflow
	rect.Bounds = uicore.Rect{X: bx, Y: by, W: borderW}

	contentW := borderW - m.padding.Left - m.padding.Right - m.border.Left - m.border.Right
	if contentW < 0 {
		contentW = 0
	}

	inner := containingBlock{
		rect: uicore.Rect{
			X: bx + m.border.Left + m.padding.Left,
			Y: by + m.border.Top + m.padding.Top,
			W: contentW,
		},
		wDef:     true,
		absolute: cb.absolute,
	}
	if h, ok := st.Height.Resolve(cb.rect.H, cb.hDef); ok {
		inner.rect.H = h - m.padding.Top - m.padding.Bottom - m.border.Top - m.border.Bottom
		inner.hDef = true
	}
	if st.Position.IsPositioned() {
		// This box is the containing block for absolute descendants.
		inner.absolute = uicore.Rect{
			X: bx + m.border.Left,
			Y: by + m.border.Top,
			W: borderW - m.border.Left - m.border.Right,
		}
	}

	heightAuto := false
	if _, ok := st.Height.Resolve(cb.rect.H, cb.hDef); !ok {
		heightAuto = true
	}
	collapseTop := m.border.Top == 0 && m.padding.Top == 0
	collapseBottom := m.border.Bottom == 0 && m.padding.Bottom == 0 && heightAuto

	flow, err := s.layoutInner(id, &st, inner, collapseTop, collapseBottom)
	if err != nil {
		return laid{}, err
	}

	usedH, ok := st.Height.Resolve(cb.rect.H, cb.hDef)
	if !ok {
		usedH = flow.contentH
	}
	usedH = style.ClampSize(usedH, st.MinHeight, st.MaxHeight, cb.rect.H, cb.hDef)

	rect.ContentSize = uicore.Size{Width: contentW, Height: usedH}
	rect.Bounds.H = usedH + m.padding.Top + m.padding.Bottom + m.border.Top + m.border.Bottom
	if st.Position.IsPositioned() {
		inner.absolute.H = rect.Bounds.H - m.border.Top - m.border.Bottom
		s.patchAbsoluteCB(id, inner.absolute)
	}

	// Relative positioning shifts after layout without affecting flow.
	if st.Position == style.PositionRelative {
		dx, dy := relativeShift(&st, cb)
		s.translateSubtree(id, dx, dy)
	}

	lres := laid{
		height:       rect.Bounds.H,
		marginTop:    m.margin.Top,
		marginBottom: m.margin.Bottom,
	}
	if collapseTop {
		lres.marginTop = collapseMargin(m.margin.Top, flow.leakTop)
	}
	if collapseBottom {
		lres.marginBottom = collapseMargin(m.margin.Bottom, flow.leakBottom)
	}
	return lres, nil
}

// relativeShift resolves the offset of a relatively positioned box.
func relativeShift(st *style.Style, cb containingBlock) (dx, dy float64) {
	if v, ok := st.Offset[style.EdgeLeft].Resolve(cb.rect.W, cb.wDef); ok {
		dx = v
	} else if v, ok := st.Offset[style.EdgeRight].Resolve(cb.rect.W, cb.wDef); ok {
		dx = -v
	}
	if v, ok := st.Offset[style.EdgeTop].Resolve(cb.rect.H, cb.hDef); ok {
		dy = v
	} else if v, ok := st.Offset[style.EdgeBottom].Resolve(cb.rect.H, cb.hDef); ok {
		dy = -v
	}
	return dx, dy
}

// layoutInner dispatches on the box's inner formatting context.
func (s *solver) layoutInner(id idtree.NodeId, st *style.Style, inner containingBlock,
	collapseTop, collapseBottom bool) (flowResult, error) {

	switch st.Display {
	case style.DisplayFlex:
		h, err := s.layoutFlex(id, st, inner)
		return flowResult{contentH: h}, err
	case style.DisplayTable:
		h, err := s.layoutTable(id, st, inner)
		return flowResult{contentH: h}, err
	}
	if s.isInlineContainer(id) {
		h, err := s.layoutInlineContent(id, st, inner)
		return flowResult{contentH: h}, err
	}
	return s.layoutBlockFlow(id, inner, collapseTop, collapseBottom)
}

// isInlineContainer reports whether the box's children are inline
// level (the box tree guarantees uniformity) or the box itself is a
// text leaf.
func (s *solver) isInlineContainer(id idtree.NodeId) bool {
	h := s.tree.Hierarchy
	first := h.FirstChild(id)
	if first.IsNone() {
		b := s.tree.Box(id)
		return b.Kind == boxtree.KindStyled && b.Inline
	}
	return s.tree.Box(first).Inline ||
		(s.tree.Box(first).Kind == boxtree.KindStyled &&
			s.tree.Node(first) != nil && s.tree.Node(first).HasInlineContent())
}

// translateSubtree shifts a laid-out subtree by (dx, dy).
func (s *solver) translateSubtree(id idtree.NodeId, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	// Descendants includes id itself.
	for d := range s.tree.Hierarchy.Descendants(id) {
		s.translateRect(d, dx, dy)
	}
}

func (s *solver) translateRect(id idtree.NodeId, dx, dy float64) {
	r := &s.res.Rects[id.Index()]
	// Glyph positions inside r.Text are relative to the content box and
	// move with it.
	r.Bounds = r.Bounds.Translate(uicore.Pt(dx, dy))
}

// patchAbsoluteCB fixes the height of the absolute containing block
// recorded for descendants deferred before the height was known.
func (s *solver) patchAbsoluteCB(id idtree.NodeId, abs uicore.Rect) {
	for i := range s.deferred {
		d := &s.deferred[i]
		if d.fixed {
			continue
		}
		if s.isAncestor(id, d.id) && d.cb.absolute.X == abs.X && d.cb.absolute.Y == abs.Y {
			d.cb.absolute = abs
		}
	}
}

func (s *solver) isAncestor(anc, id idtree.NodeId) bool {
	for p := s.tree.Hierarchy.Parent(id); !p.IsNone(); p = s.tree.Hierarchy.Parent(p) {
		if p == anc {
			return true
		}
	}
	return false
}

// layoutDeferred positions absolute and fixed boxes after normal flow.
func (s *solver) layoutDeferred() error {
	// The slice can grow while iterating: positioned subtrees may
	// contain further out-of-flow boxes.
	for i := 0; i < len(s.deferred); i++ {
		d := s.deferred[i]
		if err := s.layoutAbsolute(d); err != nil {
			return err
		}
	}
	return nil
}

// layoutAbsolute resolves one out-of-flow box against its containing
// block; auto offsets keep the static position.
func (s *solver) layoutAbsolute(d deferred) error {
	st := s.styleOf(d.id)
	cbRect := d.cb.absolute
	if d.fixed {
		cbRect = uicore.Rect{W: s.res.Viewport.Width, H: s.res.Viewport.Height}
	}
	cb := containingBlock{rect: cbRect, wDef: true, hDef: true, absolute: cbRect}
	m := s.metrics(&st, cb)

	left, hasLeft := st.Offset[style.EdgeLeft].Resolve(cbRect.W, true)
	right, hasRight := st.Offset[style.EdgeRight].Resolve(cbRect.W, true)
	top, hasTop := st.Offset[style.EdgeTop].Resolve(cbRect.H, true)
	bottom, hasBottom := st.Offset[style.EdgeBottom].Resolve(cbRect.H, true)

	if _, ok := st.Width.Resolve(cbRect.W, true); !ok && hasLeft && hasRight {
		// Both offsets with auto width: stretch between them. Auto
		// resolution against the reduced block yields exactly that.
		cb.rect.W = cbRect.W - left - right
		if cb.rect.W < 0 {
			cb.rect.W = 0
		}
	}
	borderW := resolveWidth(&st, m, cb)

	var x float64
	switch {
	case hasLeft:
		x = cbRect.X + left
	case hasRight:
		x = cbRect.MaxX() - right - borderW - m.margin.Left - m.margin.Right
	default:
		x = d.static.X
	}
	var y float64
	switch {
	case hasTop:
		y = cbRect.Y + top
	case hasBottom:
		// Height is not known yet; lay out at the static position
		// first, then shift up by the measured height.
		y = d.static.Y
	default:
		y = d.static.Y
	}

	l, err := s.layoutBlockLevel(d.id, x, y, cb)
	if err != nil {
		return err
	}
	if !hasTop && hasBottom {
		targetY := cbRect.MaxY() - bottom - l.height - m.margin.Top - m.margin.Bottom
		s.translateSubtree(d.id, 0, targetY-y)
	}
	return nil
}
