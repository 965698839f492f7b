package display

import (
	"errors"
	"testing"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/boxtree"
	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/layout"
	"github.com/gogpu/uicore/style"
	"github.com/gogpu/uicore/text"
)

type tFont struct{ size float64 }

func (f *tFont) Size() float64                       { return f.size }
func (f *tFont) Ascent() float64                     { return f.size * 0.75 }
func (f *tFont) Descent() float64                    { return -f.size * 0.25 }
func (f *tFont) LineGap() float64                    { return 0 }
func (f *tFont) GlyphID(r rune) (text.GlyphID, bool) { return text.GlyphID(r), true }
func (f *tFont) AdvanceH(text.GlyphID) float64       { return 10 }
func (f *tFont) AdvanceV(text.GlyphID) float64       { return f.size }
func (f *tFont) HyphenGlyph() (text.GlyphID, bool)   { return text.GlyphID('-'), true }
func (f *tFont) KashidaGlyph() (text.GlyphID, bool)  { return 0, false }

type tProvider struct{}

func (tProvider) ResolveFont(rs text.RunStyle) (text.Font, error) {
	size := rs.Size
	if size == 0 {
		size = 16
	}
	return &tFont{size: size}, nil
}

func (tProvider) Shape(req text.ShapeRequest) []text.RawGlyph {
	out := make([]text.RawGlyph, 0, req.End-req.Start)
	for i := req.Start; i < req.End; i++ {
		out = append(out, text.RawGlyph{GID: text.GlyphID(req.Text[i]), Cluster: i, XAdvance: 10})
	}
	return out
}

func build(t *testing.T, d *dom.StyledDom, opts Options) *List {
	t.Helper()
	tree := boxtree.Build(d)
	lay, err := layout.Solve(tree, uicore.Size{Width: 400, Height: 300}, layout.Options{Provider: tProvider{}})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	list, err := Build(tree, lay, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return list
}

func types(l *List) []ItemType {
	out := make([]ItemType, len(l.Items))
	for i, it := range l.Items {
		out[i] = it.Type()
	}
	return out
}

func div(s style.Style) dom.StyledNode {
	return dom.StyledNode{Type: dom.NodeDiv, Style: s}
}

func solid(w float64) style.Border {
	return style.Border{Width: w, Style: style.BorderStyleSolid, Color: uicore.RGB(0, 0, 0)}
}

func TestBackgroundAndBorderEmission(t *testing.T) {
	b := dom.NewBuilder()
	b.Open(div(style.Style{}))
	b.Leaf(div(style.Style{
		Height:     style.Px(20),
		Background: uicore.RGB(200, 0, 0),
		Border:     [4]style.Border{style.EdgeTop: solid(1)},
	}))
	b.Close()

	list := build(t, b.Build(), Options{})

	got := types(list)
	want := []ItemType{ItemRect, ItemBorder}
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}
	// Height fixes the content box; the painted bounds add the 1px
	// top border on top of the 20px content.
	r := list.Items[0].(Rect)
	if r.Color != uicore.RGB(200, 0, 0) || r.Bounds.H != 21 {
		t.Errorf("background rect = %+v", r)
	}
}

func TestZIndexPaintOrder(t *testing.T) {
	pos := func(z int, c uicore.Color) style.Style {
		return style.Style{
			Position:   style.PositionRelative,
			ZIndex:     z,
			Height:     style.Px(10),
			Background: c,
		}
	}
	b := dom.NewBuilder()
	b.Open(div(style.Style{}))
	b.Leaf(div(pos(2, uicore.RGB(1, 0, 0))))
	b.Leaf(div(pos(-1, uicore.RGB(2, 0, 0))))
	b.Leaf(div(style.Style{Height: style.Px(10), Background: uicore.RGB(3, 0, 0)}))
	b.Close()

	list := build(t, b.Build(), Options{})

	// Paint order: z=-1 context, in-flow box, z=2 context.
	var colors []uint8
	for _, it := range list.Items {
		if r, ok := it.(Rect); ok {
			colors = append(colors, r.Color.R)
		}
	}
	want := []uint8{2, 3, 1}
	if len(colors) != 3 {
		t.Fatalf("backgrounds = %v", colors)
	}
	for i := range want {
		if colors[i] != want[i] {
			t.Fatalf("paint order = %v, want %v", colors, want)
		}
	}
}

func TestOverflowHiddenClipsChildren(t *testing.T) {
	b := dom.NewBuilder()
	b.Open(div(style.Style{Overflow: style.OverflowHidden, Height: style.Px(50)}))
	b.Leaf(div(style.Style{Height: style.Px(100), Background: uicore.RGB(1, 1, 1)}))
	b.Close()

	list := build(t, b.Build(), Options{})

	got := types(list)
	want := []ItemType{ItemPushClip, ItemRect, ItemPopClip}
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}
}

func TestScrollFrameCarriesOffset(t *testing.T) {
	b := dom.NewBuilder()
	b.Open(div(style.Style{Overflow: style.OverflowScroll, Height: style.Px(50)}))
	b.Leaf(div(style.Style{Height: style.Px(200)}))
	b.Close()
	d := b.Build()

	list := build(t, d, Options{
		ScrollOffsets: map[idtree.NodeId]uicore.Point{
			idtree.Root: {X: 0, Y: 30},
		},
	})

	var frame *PushScrollFrame
	var bar *ScrollBar
	for _, it := range list.Items {
		switch v := it.(type) {
		case PushScrollFrame:
			frame = &v
		case ScrollBar:
			bar = &v
		}
	}
	if frame == nil {
		t.Fatal("no scroll frame")
	}
	if frame.Offset.Y != 30 {
		t.Errorf("offset = %+v, want Y=30", frame.Offset)
	}
	if bar == nil {
		t.Error("overflow:scroll should emit a scroll bar")
	} else if bar.Target != frame.ID {
		t.Errorf("scroll bar targets %d, frame is %d", bar.Target, frame.ID)
	}
}

func TestTextItemUsesContentOrigin(t *testing.T) {
	b := dom.NewBuilder()
	b.Open(div(style.Style{
		Padding: [4]style.Value{
			style.EdgeTop: style.Px(5), style.EdgeLeft: style.Px(7),
		},
		Color: uicore.RGB(10, 20, 30),
	}))
	b.Text("hi", style.Style{})
	b.Close()

	list := build(t, b.Build(), Options{})

	var txt *Text
	for _, it := range list.Items {
		if v, ok := it.(Text); ok {
			txt = &v
		}
	}
	if txt == nil {
		t.Fatal("no text item")
	}
	if txt.Origin != (uicore.Point{X: 7, Y: 5}) {
		t.Errorf("origin = %+v, want (7, 5)", txt.Origin)
	}
	if len(txt.Glyphs) != 2 {
		t.Errorf("glyphs = %d, want 2", len(txt.Glyphs))
	}
	if txt.Color != uicore.RGB(10, 20, 30) {
		t.Errorf("color = %+v", txt.Color)
	}
}

func TestCollapsedCellBordersPickWinner(t *testing.T) {
	cell := func(s style.Style) style.Style {
		s.Display = style.DisplayTableCell
		return s
	}
	dbl := style.Border{Width: 2, Style: style.BorderStyleDouble, Color: uicore.RGB(0, 0, 0)}

	b := dom.NewBuilder()
	b.Open(div(style.Style{
		Display:        style.DisplayTable,
		Width:          style.Px(200),
		BorderCollapse: true,
	}))
	b.Open(div(style.Style{Display: style.DisplayTableRow}))
	b.Leaf(div(cell(style.Style{
		Height: style.Px(20),
		Border: [4]style.Border{style.EdgeRight: solid(2)},
	})))
	b.Leaf(div(cell(style.Style{
		Height: style.Px(20),
		Border: [4]style.Border{style.EdgeLeft: dbl},
	})))
	b.Close()
	b.Close()

	list := build(t, b.Build(), Options{})

	var borders []Border
	for _, it := range list.Items {
		if v, ok := it.(Border); ok {
			borders = append(borders, v)
		}
	}
	if len(borders) != 2 {
		t.Fatalf("border items = %d, want 2", len(borders))
	}
	// Equal widths: double outranks solid on both sides of the shared
	// edge.
	if got := borders[0].Edges[style.EdgeRight].Style; got != style.BorderStyleDouble {
		t.Errorf("left cell right edge = %v, want double", got)
	}
	if got := borders[1].Edges[style.EdgeLeft].Style; got != style.BorderStyleDouble {
		t.Errorf("right cell left edge = %v, want double", got)
	}
}

func TestRowBorderWinsCollapsedEdge(t *testing.T) {
	cell := func(s style.Style) style.Style {
		s.Display = style.DisplayTableCell
		return s
	}
	dashedRed := style.Border{Width: 1, Style: style.BorderStyleDashed, Color: uicore.RGB(255, 0, 0)}
	solidGreen := style.Border{Width: 3, Style: style.BorderStyleSolid, Color: uicore.RGB(0, 128, 0)}

	b := dom.NewBuilder()
	b.Open(div(style.Style{
		Display:        style.DisplayTable,
		Width:          style.Px(200),
		BorderCollapse: true,
	}))
	b.Open(div(style.Style{
		Display: style.DisplayTableRow,
		Border:  [4]style.Border{style.EdgeTop: solidGreen},
	}))
	b.Leaf(div(cell(style.Style{
		Height: style.Px(20),
		Border: [4]style.Border{style.EdgeTop: dashedRed},
	})))
	b.Close()
	b.Close()

	list := build(t, b.Build(), Options{})

	var borders []Border
	for _, it := range list.Items {
		if v, ok := it.(Border); ok {
			borders = append(borders, v)
		}
	}
	// The row's border is painted on the cell edge only, not as a
	// separate row border item.
	if len(borders) != 1 {
		t.Fatalf("border items = %d, want 1", len(borders))
	}
	got := borders[0].Edges[style.EdgeTop]
	if got.Width != 3 || got.Style != style.BorderStyleSolid || got.Color != solidGreen.Color {
		t.Errorf("cell top edge = %+v, want 3px solid green", got)
	}
}

func TestHitTestAreaEmission(t *testing.T) {
	tag := dom.MakeHitTag(7, idtree.NodeId(3))
	b := dom.NewBuilder()
	b.Open(div(style.Style{}))
	b.Leaf(dom.StyledNode{
		Type:   dom.NodeDiv,
		Style:  style.Style{Height: style.Px(10)},
		HitTag: tag,
	})
	b.Close()

	list := build(t, b.Build(), Options{})

	var area *HitTestArea
	for _, it := range list.Items {
		if v, ok := it.(HitTestArea); ok {
			area = &v
		}
	}
	if area == nil {
		t.Fatal("no hit-test area")
	}
	if area.Tag != tag {
		t.Errorf("tag = %v, want %v", area.Tag, tag)
	}
}

func TestSelectionAndCursorOverlayLast(t *testing.T) {
	b := dom.NewBuilder()
	b.Open(div(style.Style{Background: uicore.RGB(9, 9, 9), Height: style.Px(10)}))
	b.Close()

	caret := uicore.Rect{X: 10, Y: 0, W: 1, H: 16}
	list := build(t, b.Build(), Options{
		Selections: []uicore.Rect{{X: 0, Y: 0, W: 40, H: 16}},
		Cursor:     &caret,
	})

	n := len(list.Items)
	if n < 2 {
		t.Fatalf("items = %v", types(list))
	}
	if _, ok := list.Items[n-2].(SelectionRect); !ok {
		t.Errorf("second to last = %v, want SelectionRect", list.Items[n-2].Type())
	}
	if _, ok := list.Items[n-1].(CursorRect); !ok {
		t.Errorf("last = %v, want CursorRect", list.Items[n-1].Type())
	}
}

func TestValidateDetectsImbalance(t *testing.T) {
	l := &List{Items: []Item{PushClip{}, PushStackingContext{}, PopClip{}}}
	if err := l.Validate(); !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("err = %v, want ErrUnbalanced", err)
	}
	l = &List{Items: []Item{PopStackingContext{}}}
	if err := l.Validate(); !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("err = %v, want ErrUnbalanced", err)
	}
}
