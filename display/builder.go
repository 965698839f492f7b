package display

import (
	"errors"
	"fmt"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/boxtree"
	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/layout"
	"github.com/gogpu/uicore/style"
)

// ErrUnbalanced is returned when a built list has mismatched push/pop
// items. It indicates a builder bug, not bad input.
var ErrUnbalanced = errors.New("display: unbalanced push/pop")

// List is a flat display list in paint order.
type List struct {
	Items []Item
}

// Options configures a build.
type Options struct {
	// States carries per-node interaction states, matching what the
	// layout solve used.
	States map[idtree.NodeId]style.InteractionState

	// ScrollOffsets are the current offsets of scrollable boxes, keyed
	// by source DOM node.
	ScrollOffsets map[idtree.NodeId]uicore.Point

	// Selections and Cursor overlay text editing chrome on top of the
	// content.
	Selections     []uicore.Rect
	Cursor         *uicore.Rect
	SelectionColor uicore.Color
	CursorColor    uicore.Color
}

// Build walks the solved layout in document order and emits the
// display list, reordering stacking contexts by z-index. The returned
// list is validated for push/pop balance.
func Build(tree *boxtree.Tree, lay *layout.Result, opts Options) (*List, error) {
	if opts.SelectionColor.IsTransparent() {
		opts.SelectionColor = uicore.RGBA(0x33, 0x66, 0xcc, 0x66)
	}
	if opts.CursorColor.IsTransparent() {
		opts.CursorColor = uicore.RGB(0, 0, 0)
	}
	b := &builder{tree: tree, lay: lay, opts: &opts}
	if tree.Hierarchy.Len() > 0 {
		b.buildBox(idtree.Root, nil)
	}
	b.overlay()

	list := &List{Items: b.items}
	if err := list.Validate(); err != nil {
		return nil, err
	}
	return list, nil
}

// Validate checks that every push has a matching pop of the same
// kind, properly nested.
func (l *List) Validate() error {
	var stack []ItemType
	for i, it := range l.Items {
		switch t := it.Type(); t {
		case ItemPushStackingContext, ItemPushClip, ItemPushScrollFrame:
			stack = append(stack, t)
		case ItemPopStackingContext, ItemPopClip, ItemPopScrollFrame:
			if len(stack) == 0 {
				return fmt.Errorf("%w: %v at index %d with empty stack", ErrUnbalanced, t, i)
			}
			want := pushFor(t)
			if top := stack[len(stack)-1]; top != want {
				return fmt.Errorf("%w: %v at index %d closes %v", ErrUnbalanced, t, i, top)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 0 {
		return fmt.Errorf("%w: %d unclosed", ErrUnbalanced, len(stack))
	}
	return nil
}

func pushFor(pop ItemType) ItemType {
	switch pop {
	case ItemPopStackingContext:
		return ItemPushStackingContext
	case ItemPopClip:
		return ItemPushClip
	default:
		return ItemPushScrollFrame
	}
}

type builder struct {
	tree *boxtree.Tree
	lay  *layout.Result
	opts *Options

	items      []Item
	nextClip   ClipID
	nextScroll ScrollID
}

func (b *builder) emit(it Item) { b.items = append(b.items, it) }

func (b *builder) styleOf(id idtree.NodeId) style.Style {
	st := style.InteractionState(style.StateNormal)
	box := b.tree.Box(id)
	if box.Kind == boxtree.KindStyled {
		if v, ok := b.opts.States[box.Source]; ok {
			st = v
		}
	}
	return b.tree.StyleOf(id, st)
}

// buildBox emits one box and its subtree. cellBorders carries
// resolved collapsed borders when the box is a cell of a collapsing
// table.
func (b *builder) buildBox(id idtree.NodeId, cellBorders map[idtree.NodeId][4]style.Border) {
	st := b.styleOf(id)
	if st.Display == style.DisplayNone {
		return
	}
	rect := b.lay.Rect(id)

	stacking := st.Position.IsPositioned() && !st.ZIndexAuto || st.EffectiveOpacity() < 1
	if stacking {
		b.emit(PushStackingContext{
			Origin:  rect.Bounds.Origin(),
			ZIndex:  st.ZIndex,
			Opacity: st.EffectiveOpacity(),
		})
	}

	if !st.Background.IsTransparent() {
		b.emit(Rect{Bounds: rect.Bounds, Color: st.Background, Radii: st.BorderRadii})
	}

	// Under border-collapse the resolved winners paint on the cell
	// edges; the table and row boxes do not paint their own borders
	// again.
	suppressOwn := st.Display == style.DisplayTable && st.BorderCollapse ||
		cellBorders != nil && st.Display == style.DisplayTableRow
	edges := st.Border
	if cellBorders != nil {
		if e, ok := cellBorders[id]; ok {
			edges = e
			suppressOwn = false
		}
	}
	if !suppressOwn && anyVisible(edges) {
		b.emit(Border{Bounds: rect.Bounds, Edges: edges, Radii: st.BorderRadii})
	}

	if n := b.tree.Node(id); n != nil {
		if n.HitTag != 0 || n.TabIndex != 0 {
			b.emit(HitTestArea{Bounds: rect.Bounds, Tag: n.HitTag, TabIndex: n.TabIndex})
		}
		switch n.Type {
		case dom.NodeImage:
			b.emit(Image{Bounds: rect.ContentBox(), Handle: n.Image})
		case dom.NodeGlTexture:
			b.emit(ExternalTexture{Bounds: rect.ContentBox(), Handle: n.Texture})
		case dom.NodeIFrame:
			b.emit(IFrame{Bounds: rect.ContentBox(), Pipeline: n.Pipeline})
		}
	}

	clipped := st.Overflow == style.OverflowHidden
	scrolled := st.Overflow == style.OverflowScroll || st.Overflow == style.OverflowAuto
	var scrollID ScrollID
	switch {
	case scrolled:
		scrollID = b.nextScroll
		b.nextScroll++
		b.emit(PushScrollFrame{
			ID:          scrollID,
			Bounds:      rect.PaddingBox(),
			ContentSize: rect.ContentSize,
			Offset:      b.scrollOffset(id),
		})
	case clipped:
		b.emit(PushClip{ID: b.nextClip, Bounds: rect.PaddingBox(), Radii: st.BorderRadii})
		b.nextClip++
	}

	if rect.Text != nil {
		b.emit(Text{
			Origin: rect.ContentBox().Origin(),
			Glyphs: rect.Text.Glyphs,
			Color:  st.Color,
		})
	}

	collapsed := b.collapsedCellBorders(&st, id)
	if collapsed != nil && !st.BorderRadii.IsZero() {
		b.emit(CombinedBorderRadius{Bounds: rect.Bounds, Radii: st.BorderRadii})
	}
	if collapsed == nil {
		collapsed = cellBorders
	}

	for _, c := range b.paintOrder(id) {
		b.buildBox(c, collapsed)
	}

	switch {
	case scrolled:
		b.emit(PopScrollFrame{})
		if st.Overflow == style.OverflowScroll ||
			rect.ContentSize.Height > rect.PaddingBox().H {
			b.emit(b.scrollBar(rect, scrollID))
		}
	case clipped:
		b.emit(PopClip{})
	}
	if stacking {
		b.emit(PopStackingContext{})
	}
}

func (b *builder) scrollOffset(id idtree.NodeId) uicore.Point {
	box := b.tree.Box(id)
	if box.Kind != boxtree.KindStyled {
		return uicore.Point{}
	}
	return b.opts.ScrollOffsets[box.Source]
}

func (b *builder) scrollBar(rect *layout.PositionedRect, target ScrollID) ScrollBar {
	const thickness = 8
	pad := rect.PaddingBox()
	return ScrollBar{
		Bounds: uicore.Rect{
			X: pad.MaxX() - thickness,
			Y: pad.Y,
			W: thickness,
			H: pad.H,
		},
		Target:      target,
		Orientation: ScrollBarVertical,
		Opacity:     1,
	}
}

// paintOrder returns the children of id in CSS painting order:
// negative z-index stacking contexts, then boxes that do not
// establish contexts in document order, then the remaining contexts
// by ascending z-index. Ties keep document order.
func (b *builder) paintOrder(id idtree.NodeId) []idtree.NodeId {
	var neg, flow, pos []idtree.NodeId
	zOf := map[idtree.NodeId]int{}
	for c := range b.tree.Hierarchy.Children(id) {
		st := b.styleOf(c)
		if st.Position.IsPositioned() && !st.ZIndexAuto {
			zOf[c] = st.ZIndex
			if st.ZIndex < 0 {
				neg = append(neg, c)
			} else {
				pos = append(pos, c)
			}
			continue
		}
		flow = append(flow, c)
	}
	sortByZ(neg, zOf)
	sortByZ(pos, zOf)

	out := make([]idtree.NodeId, 0, len(neg)+len(flow)+len(pos))
	out = append(out, neg...)
	out = append(out, flow...)
	out = append(out, pos...)
	return out
}

// sortByZ is a stable insertion sort on z-index; child lists are
// small and mostly sorted already.
func sortByZ(ids []idtree.NodeId, z map[idtree.NodeId]int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && z[ids[j-1]] > z[ids[j]]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// collapsedCellBorders resolves the winning border of every shared
// cell edge of a collapsing table, per the border-conflict rules.
// Returns nil unless st is a collapsing table.
func (b *builder) collapsedCellBorders(st *style.Style, id idtree.NodeId) map[idtree.NodeId][4]style.Border {
	if st.Display != style.DisplayTable || !st.BorderCollapse {
		return nil
	}

	type cell struct {
		id       idtree.NodeId
		st       style.Style
		row, col int
		rowSpan  int
		colSpan  int
	}
	var cells []cell
	var rowBorders [][4]style.Border
	occupied := map[[2]int]bool{}
	numRows, numCols := 0, 0

	for rowID := range b.tree.Hierarchy.Children(id) {
		rst := b.styleOf(rowID)
		if rst.Display != style.DisplayTableRow {
			continue
		}
		r := numRows
		numRows++
		rowBorders = append(rowBorders, rst.Border)
		col := 0
		for cellID := range b.tree.Hierarchy.Children(rowID) {
			cst := b.styleOf(cellID)
			if cst.Display != style.DisplayTableCell {
				continue
			}
			for occupied[[2]int{r, col}] {
				col++
			}
			c := cell{
				id: cellID, st: cst, row: r, col: col,
				rowSpan: cst.EffectiveRowSpan(), colSpan: cst.EffectiveColSpan(),
			}
			for rr := r; rr < r+c.rowSpan; rr++ {
				for cc := col; cc < col+c.colSpan; cc++ {
					occupied[[2]int{rr, cc}] = true
				}
			}
			if col+c.colSpan > numCols {
				numCols = col + c.colSpan
			}
			cells = append(cells, c)
			col += c.colSpan
		}
	}

	// Fold candidates at each grid line, then read winners back per
	// cell edge. The table's own border competes at the outer edges.
	vLine := make(map[[2]int][]style.EdgeBorder) // key: (row, line x)
	hLine := make(map[[2]int][]style.EdgeBorder) // key: (line y, col)
	for i := range cells {
		c := &cells[i]
		for r := c.row; r < c.row+c.rowSpan; r++ {
			vLine[[2]int{r, c.col}] = append(vLine[[2]int{r, c.col}],
				style.EdgeBorder{Border: c.st.Border[style.EdgeLeft], Source: style.SourceCell})
			vLine[[2]int{r, c.col + c.colSpan}] = append(vLine[[2]int{r, c.col + c.colSpan}],
				style.EdgeBorder{Border: c.st.Border[style.EdgeRight], Source: style.SourceCell})
		}
		for cc := c.col; cc < c.col+c.colSpan; cc++ {
			hLine[[2]int{c.row, cc}] = append(hLine[[2]int{c.row, cc}],
				style.EdgeBorder{Border: c.st.Border[style.EdgeTop], Source: style.SourceCell})
			hLine[[2]int{c.row + c.rowSpan, cc}] = append(hLine[[2]int{c.row + c.rowSpan, cc}],
				style.EdgeBorder{Border: c.st.Border[style.EdgeBottom], Source: style.SourceCell})
		}
	}
	// Row borders compete on the row's grid lines with row priority.
	for r, rb := range rowBorders {
		for cc := 0; cc < numCols; cc++ {
			hLine[[2]int{r, cc}] = append(hLine[[2]int{r, cc}],
				style.EdgeBorder{Border: rb[style.EdgeTop], Source: style.SourceRow})
			hLine[[2]int{r + 1, cc}] = append(hLine[[2]int{r + 1, cc}],
				style.EdgeBorder{Border: rb[style.EdgeBottom], Source: style.SourceRow})
		}
		vLine[[2]int{r, 0}] = append(vLine[[2]int{r, 0}],
			style.EdgeBorder{Border: rb[style.EdgeLeft], Source: style.SourceRow})
		vLine[[2]int{r, numCols}] = append(vLine[[2]int{r, numCols}],
			style.EdgeBorder{Border: rb[style.EdgeRight], Source: style.SourceRow})
	}
	tableEdge := func(e style.Edge) style.EdgeBorder {
		return style.EdgeBorder{Border: st.Border[e], Source: style.SourceTable}
	}
	for r := 0; r < numRows; r++ {
		vLine[[2]int{r, 0}] = append(vLine[[2]int{r, 0}], tableEdge(style.EdgeLeft))
		vLine[[2]int{r, numCols}] = append(vLine[[2]int{r, numCols}], tableEdge(style.EdgeRight))
	}
	for c := 0; c < numCols; c++ {
		hLine[[2]int{0, c}] = append(hLine[[2]int{0, c}], tableEdge(style.EdgeTop))
		hLine[[2]int{numRows, c}] = append(hLine[[2]int{numRows, c}], tableEdge(style.EdgeBottom))
	}

	out := make(map[idtree.NodeId][4]style.Border, len(cells))
	for i := range cells {
		c := &cells[i]
		var e [4]style.Border
		e[style.EdgeLeft] = style.CollapseAll(vLine[[2]int{c.row, c.col}]...).Border
		e[style.EdgeRight] = style.CollapseAll(vLine[[2]int{c.row, c.col + c.colSpan}]...).Border
		e[style.EdgeTop] = style.CollapseAll(hLine[[2]int{c.row, c.col}]...).Border
		e[style.EdgeBottom] = style.CollapseAll(hLine[[2]int{c.row + c.rowSpan, c.col}]...).Border
		out[c.id] = e
	}
	return out
}

// overlay appends selection highlights and the caret above all
// content.
func (b *builder) overlay() {
	for _, r := range b.opts.Selections {
		b.emit(SelectionRect{Bounds: r, Color: b.opts.SelectionColor})
	}
	if b.opts.Cursor != nil {
		b.emit(CursorRect{Bounds: *b.opts.Cursor, Color: b.opts.CursorColor})
	}
}

func anyVisible(edges [4]style.Border) bool {
	for _, e := range edges {
		if e.IsVisible() {
			return true
		}
	}
	return false
}
