package layout

import (
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/style"
)

// flexItem is one in-flow child of a flex container during resolution.
type flexItem struct {
	id idtree.NodeId
	st style.Style
	m  boxMetrics

	base float64 // border-box flex basis along the main axis
	main float64 // resolved border-box main size

	// measured after layout, margin box
	cross float64
	laid  laid
}

func (f *flexItem) mainMargins(row bool) float64 {
	if row {
		return f.m.margin.Horizontal()
	}
	return f.m.margin.Vertical()
}

func (f *flexItem) crossMargins(row bool) float64 {
	if row {
		return f.m.margin.Vertical()
	}
	return f.m.margin.Horizontal()
}

// layoutFlex resolves a flex container: basis sizing, one round of
// grow/shrink distribution, main-axis justification and cross-axis
// alignment. Single line; wrapping is not modeled.
func (s *solver) layoutFlex(id idtree.NodeId, st *style.Style, inner containingBlock) (float64, error) {
	row := st.FlexDirection == style.FlexRow

	var items []flexItem
	for c := range s.tree.Hierarchy.Children(id) {
		cst := s.styleOf(c)
		if cst.Display == style.DisplayNone {
			continue
		}
		switch cst.Position {
		case style.PositionAbsolute, style.PositionFixed:
			s.deferred = append(s.deferred, deferred{
				id:     c,
				static: uicore.Pt(inner.rect.X, inner.rect.Y),
				cb:     inner,
				fixed:  cst.Position == style.PositionFixed,
			})
			continue
		}
		m := s.metrics(&cst, inner)
		items = append(items, flexItem{id: c, st: cst, m: m})
	}
	if len(items) == 0 {
		return 0, nil
	}

	containerMain := inner.rect.W
	mainDef := true
	if !row {
		containerMain = inner.rect.H
		mainDef = inner.hDef
	}

	for i := range items {
		items[i].base = s.flexBasis(&items[i], row, containerMain, mainDef)
		items[i].main = items[i].base
	}

	if mainDef {
		distributeFlex(items, row, containerMain)
	}

	// Main sizes are final before layout, so justification offsets are
	// known up front.
	outer := 0.0
	for i := range items {
		outer += items[i].main + items[i].mainMargins(row)
	}
	lead, between := justifyOffsets(st.JustifyContent, containerMain-outer, len(items), mainDef)

	crossDef := inner.hDef
	containerCross := inner.rect.H
	if !row {
		crossDef = true
		containerCross = inner.rect.W
	}

	pen := lead
	crossMax := 0.0
	for i := range items {
		it := &items[i]

		ov := sizeOverride{}
		if row {
			ov.w, ov.hasW = it.main, true
		} else {
			ov.h, ov.hasH = it.main, true
		}
		if crossDef && s.crossAlign(st, it) == style.AlignStretch && crossAuto(it, row) {
			c := containerCross - it.crossMargins(row)
			if c < 0 {
				c = 0
			}
			if row {
				ov.h, ov.hasH = c, true
			} else {
				ov.w, ov.hasW = c, true
			}
		}
		s.setOverride(it.id, ov)

		var x, y float64
		if row {
			x, y = inner.rect.X+pen, inner.rect.Y
		} else {
			x, y = inner.rect.X, inner.rect.Y+pen
		}
		l, err := s.layoutBlockLevel(it.id, x, y, inner)
		if err != nil {
			return 0, err
		}
		it.laid = l

		b := &s.res.Rects[it.id.Index()]
		if row {
			it.cross = b.Bounds.H + it.m.margin.Vertical()
		} else {
			it.cross = b.Bounds.W + it.m.margin.Horizontal()
		}
		if it.cross > crossMax {
			crossMax = it.cross
		}
		pen += it.main + it.mainMargins(row) + between
	}

	cross := crossMax
	if crossDef {
		cross = containerCross
	}
	s.alignCross(st, items, row, cross)

	if row {
		return cross, nil
	}
	// Column: the main extent, minus the trailing inter-item gap.
	return pen - between, nil
}

// flexBasis resolves the border-box basis of an item: flex-basis, then
// the main-axis size property, then zero.
func (s *solver) flexBasis(it *flexItem, row bool, containerMain float64, mainDef bool) float64 {
	edges := it.m.padding.Vertical() + it.m.border.Vertical()
	sizeProp := it.st.Height
	if row {
		edges = it.m.padding.Horizontal() + it.m.border.Horizontal()
		sizeProp = it.st.Width
	}
	if v, ok := it.st.FlexBasis.Resolve(containerMain, mainDef); ok {
		return v + edges
	}
	if v, ok := sizeProp.Resolve(containerMain, mainDef); ok {
		return v + edges
	}
	return edges
}

// distributeFlex runs one round of grow or shrink over the free space.
func distributeFlex(items []flexItem, row bool, containerMain float64) {
	free := containerMain
	for i := range items {
		free -= items[i].base + items[i].mainMargins(row)
	}

	switch {
	case free > 0:
		total := 0.0
		for i := range items {
			total += items[i].st.FlexGrow
		}
		if total <= 0 {
			return
		}
		for i := range items {
			items[i].main = items[i].base + free*items[i].st.FlexGrow/total
		}
	case free < 0:
		total := 0.0
		for i := range items {
			total += items[i].st.EffectiveFlexShrink() * items[i].base
		}
		if total <= 0 {
			return
		}
		for i := range items {
			it := &items[i]
			it.main = it.base + free*(it.st.EffectiveFlexShrink()*it.base)/total
			if it.main < 0 {
				it.main = 0
			}
		}
	}
}

// justifyOffsets maps justify-content onto a leading offset and an
// inter-item gap.
func justifyOffsets(j style.Align, free float64, n int, mainDef bool) (lead, between float64) {
	if !mainDef || free <= 0 {
		return 0, 0
	}
	switch j {
	case style.AlignEnd:
		return free, 0
	case style.AlignCenter:
		return free / 2, 0
	case style.AlignSpaceBetween:
		if n > 1 {
			return 0, free / float64(n-1)
		}
		return 0, 0
	case style.AlignSpaceAround:
		gap := free / float64(n)
		return gap / 2, gap
	default: // start, stretch
		return 0, 0
	}
}

// crossAlign returns the effective cross alignment of an item.
func (s *solver) crossAlign(container *style.Style, it *flexItem) style.Align {
	a := it.st.AlignSelf
	if a == style.AlignAuto {
		a = container.AlignItems
	}
	if a == style.AlignAuto {
		a = style.AlignStretch
	}
	return a
}

// crossAuto reports whether the item's cross-axis size is auto.
func crossAuto(it *flexItem, row bool) bool {
	if row {
		return it.st.Height.IsAuto()
	}
	return it.st.Width.IsAuto()
}

// alignCross shifts each item along the cross axis per its alignment.
func (s *solver) alignCross(container *style.Style, items []flexItem, row bool, cross float64) {
	for i := range items {
		it := &items[i]
		var off float64
		switch s.crossAlign(container, it) {
		case style.AlignEnd:
			off = cross - it.cross
		case style.AlignCenter:
			off = (cross - it.cross) / 2
		default: // start, stretch (already sized)
			continue
		}
		if off == 0 {
			continue
		}
		if row {
			s.translateSubtree(it.id, 0, off)
		} else {
			s.translateSubtree(it.id, off, 0)
		}
	}
}
