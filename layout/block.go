package layout

import (
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/style"
)

// flowResult is the outcome of a block formatting context: the content
// height plus the margins that collapse through the container's edges
// when it has no border or padding there.
type flowResult struct {
	contentH   float64
	leakTop    float64
	leakBottom float64
}

// activeFloat is a float whose band still narrows line boxes.
type activeFloat struct {
	bounds uicore.Rect // margin box, absolute
	side   style.Float
}

// layoutBlockFlow stacks the in-flow block children of id along the
// block axis with sibling margin collapsing, positions floats and
// defers out-of-flow boxes. collapseTop and collapseBottom say whether
// the container's edges let the first/last child margins collapse
// through; y coordinates are relative to the content box top.
func (s *solver) layoutBlockFlow(id idtree.NodeId, inner containingBlock,
	collapseTop, collapseBottom bool) (flowResult, error) {

	saved := len(s.floats)
	defer func() { s.floats = s.floats[:saved] }()

	var out flowResult
	y := 0.0
	prevBottom := 0.0
	first := true

	for c := range s.tree.Hierarchy.Children(id) {
		st := s.styleOf(c)

		switch st.Position {
		case style.PositionAbsolute, style.PositionFixed:
			s.deferred = append(s.deferred, deferred{
				id:     c,
				static: uicore.Pt(inner.rect.X, inner.rect.Y+y),
				cb:     inner,
				fixed:  st.Position == style.PositionFixed,
			})
			continue
		}

		if st.Clear != style.ClearNone {
			y = s.clearY(inner, y, st.Clear)
		}
		if st.Float != style.FloatNone {
			if err := s.layoutFloat(c, &st, inner, y); err != nil {
				return out, err
			}
			continue
		}

		m := s.metrics(&st, inner)
		// The child's effective top margin includes margins leaking up
		// from its own first descendants.
		childTop := s.peekTopMargin(c, &st, m, inner)
		var gap float64
		switch {
		case first && collapseTop:
			// The margin escapes through the container's top edge.
			gap = 0
		case first:
			gap = childTop
		default:
			gap = collapseMargin(prevBottom, childTop)
		}

		// layoutBlockLevel pins the margin box; subtract the child's
		// own top margin so its border box lands at y+gap.
		l, err := s.layoutBlockLevel(c, inner.rect.X, inner.rect.Y+y+gap-m.margin.Top, inner)
		if err != nil {
			return out, err
		}
		if first && collapseTop {
			out.leakTop = l.marginTop
		}
		y += gap + l.height
		prevBottom = l.marginBottom
		first = false
	}

	if first {
		// No in-flow children: nothing stacks, nothing leaks.
		return out, nil
	}
	if collapseBottom {
		out.contentH = y
		out.leakBottom = prevBottom
	} else {
		out.contentH = y + prevBottom
	}
	return out, nil
}

// peekTopMargin computes the collapsed top margin of a box before it
// is laid out: margins of first in-flow children collapse through
// edges without border or padding.
func (s *solver) peekTopMargin(id idtree.NodeId, st *style.Style, m boxMetrics, cb containingBlock) float64 {
	top := m.margin.Top
	if m.border.Top != 0 || m.padding.Top != 0 {
		return top
	}
	if st.Display == style.DisplayFlex || st.Display == style.DisplayTable || s.isInlineContainer(id) {
		return top
	}
	for c := range s.tree.Hierarchy.Children(id) {
		cst := s.styleOf(c)
		if cst.Display == style.DisplayNone ||
			cst.Position == style.PositionAbsolute || cst.Position == style.PositionFixed ||
			cst.Float != style.FloatNone {
			continue
		}
		cm := s.metrics(&cst, cb)
		return collapseMargin(top, s.peekTopMargin(c, &cst, cm, cb))
	}
	return top
}

// layoutFloat places a floated child at the flow position y, pushed to
// its side, and registers its band.
func (s *solver) layoutFloat(id idtree.NodeId, st *style.Style, inner containingBlock, y float64) error {
	m := s.metrics(st, inner)
	w := resolveWidth(st, m, inner)

	x := inner.rect.X
	if st.Float == style.FloatRight {
		x = inner.rect.X + inner.rect.W - w - m.margin.Left - m.margin.Right
	}
	// Stack beside earlier same-side floats still open at this y.
	for _, f := range s.floats {
		if f.side != st.Float {
			continue
		}
		if f.bounds.Y >= inner.rect.Y+y+f.bounds.H || f.bounds.MaxY() <= inner.rect.Y+y {
			continue
		}
		if st.Float == style.FloatLeft && f.bounds.MaxX() > x {
			x = f.bounds.MaxX()
		}
		if st.Float == style.FloatRight && f.bounds.X < x+w+m.margin.Left+m.margin.Right {
			x = f.bounds.X - w - m.margin.Left - m.margin.Right
		}
	}

	l, err := s.layoutBlockLevel(id, x, inner.rect.Y+y, inner)
	if err != nil {
		return err
	}
	s.floats = append(s.floats, activeFloat{
		bounds: uicore.Rect{
			X: x,
			Y: inner.rect.Y + y,
			W: w + m.margin.Left + m.margin.Right,
			H: l.height + m.margin.Top + m.margin.Bottom,
		},
		side: st.Float,
	})
	return nil
}

// clearY moves the flow position below the floats the clear applies to.
func (s *solver) clearY(inner containingBlock, y float64, c style.Clear) float64 {
	for _, f := range s.floats {
		if c == style.ClearLeft && f.side != style.FloatLeft {
			continue
		}
		if c == style.ClearRight && f.side != style.FloatRight {
			continue
		}
		if rel := f.bounds.MaxY() - inner.rect.Y; rel > y {
			y = rel
		}
	}
	return y
}

// floatExclusions converts the active float bands overlapping a
// content box into exclusion rectangles relative to that box.
func (s *solver) floatExclusions(content uicore.Rect) []uicore.Rect {
	var out []uicore.Rect
	for _, f := range s.floats {
		if !f.bounds.Intersects(content) {
			continue
		}
		r := f.bounds.Intersect(content)
		out = append(out, r.Translate(uicore.Pt(-content.X, -content.Y)))
	}
	return out
}
