package text

import (
	"github.com/gogpu/uicore/style"
)

// lineMetrics are the resolved vertical extents of one line box.
type lineMetrics struct {
	ascent  float64 // above baseline, positive
	descent float64 // below baseline, negative
	height  float64 // line box extent along the block axis
}

// measureLine derives line metrics from the glyphs' fonts and any
// replaced items, honoring the line-height multiplier.
func measureLine(d *lineDraft, items []InlineItem, mult float64) lineMetrics {
	var m lineMetrics
	for i := range d.glyphs {
		g := &d.glyphs[i]
		if g.Font != nil {
			if a := g.Font.Ascent(); a > m.ascent {
				m.ascent = a
			}
			if de := g.Font.Descent(); de < m.descent {
				m.descent = de
			}
			if h := g.Font.Size() * mult; h > m.height {
				m.height = h
			}
			continue
		}
		it := &items[g.Item]
		switch it.Type {
		case ItemImage, ItemShape:
			asc, desc := it.Size.Height, 0.0
			if it.Baseline > 0 {
				asc = it.Baseline
				desc = -(it.Size.Height - it.Baseline)
			}
			if asc > m.ascent {
				m.ascent = asc
			}
			if desc < m.descent {
				m.descent = desc
			}
		}
	}
	if natural := m.ascent - m.descent; natural > m.height {
		m.height = natural
	}
	if m.height == 0 {
		m.height = 1 // empty hard-break line still advances
	}
	return m
}

// bidiRun is a maximal same-level glyph range within a line.
type bidiRun struct {
	start, end int
	rtl        bool
}

// visualOrder returns the order in which a line's glyph indices are
// placed along the inline axis. Runs follow the base direction; RTL
// runs reverse internally, so RTL glyphs land at descending positions.
func visualOrder(glyphs []ShapedGlyph, baseRTL bool) []int {
	var runs []bidiRun
	i := 0
	for i < len(glyphs) {
		j := i + 1
		for j < len(glyphs) && (glyphs[j].Level%2) == (glyphs[i].Level%2) {
			j++
		}
		runs = append(runs, bidiRun{start: i, end: j, rtl: glyphs[i].Level%2 == 1})
		i = j
	}
	if baseRTL {
		for l, r := 0, len(runs)-1; l < r; l, r = l+1, r-1 {
			runs[l], runs[r] = runs[r], runs[l]
		}
	}
	order := make([]int, 0, len(glyphs))
	for _, run := range runs {
		if run.rtl {
			for k := run.end - 1; k >= run.start; k-- {
				order = append(order, k)
			}
		} else {
			for k := run.start; k < run.end; k++ {
				order = append(order, k)
			}
		}
	}
	return order
}

// alignShift returns the inline offset of a line of the given width in
// a segment of availW.
func alignShift(align style.TextAlign, baseRTL bool, availW, lineW float64) float64 {
	switch align {
	case style.TextAlignLeft:
		return 0
	case style.TextAlignRight:
		return availW - lineW
	case style.TextAlignCenter:
		return (availW - lineW) / 2
	case style.TextAlignEnd:
		if baseRTL {
			return 0
		}
		return availW - lineW
	default: // start, justify (slack already consumed)
		if baseRTL {
			return availW - lineW
		}
		return 0
	}
}

// positionHorizontal lays a draft onto a line box and appends the
// positioned glyphs. segX/segW is the usable segment, y the line top.
func positionHorizontal(out *Result, d *lineDraft, items []InlineItem, opts *Options,
	baseRTL bool, segX, segW, y, startShift float64) {

	m := measureLine(d, items, opts.lineHeightMult())
	// Center the font extent inside the line box (half-leading).
	leading := (m.height - (m.ascent - m.descent)) / 2
	baseline := y + leading + m.ascent

	x := segX + startShift + alignShift(opts.Align, baseRTL, segW-startShift, d.width)

	line := Line{
		Y:          y,
		Baseline:   baseline,
		X:          x,
		GlyphStart: len(out.Glyphs),
		RuneStart:  d.runeStart,
		RuneEnd:    d.runeEnd,
		Width:      d.width,
		Height:     m.height,
		Hyphenated: d.hyphenated,
		Hard:       d.hard,
	}

	pen := x
	for _, k := range visualOrder(d.glyphs, baseRTL) {
		g := d.glyphs[k]
		pg := PositionedGlyph{ShapedGlyph: g}
		pg.X = pen + g.XOffset
		pg.Y = baseline - g.YOffset
		if g.Font == nil {
			// Replaced items sit on the baseline by their box.
			pg.Y = baseline
		}
		pen += g.Advance(false)
		out.Glyphs = append(out.Glyphs, pg)
	}

	line.GlyphEnd = len(out.Glyphs)
	out.Lines = append(out.Lines, line)
}

// positionVertical lays a draft as one column. colX is the column's
// left edge along the accumulated cross axis (mirroring for
// vertical-rl happens after all columns are placed), segY the column
// start, thickness the column extent.
func positionVertical(out *Result, d *lineDraft, items []InlineItem, opts *Options,
	colX, segY, segH, thickness, startShift float64) {

	center := colX + thickness/2

	line := Line{
		Y:          segY,
		Baseline:   center,
		X:          colX,
		GlyphStart: len(out.Glyphs),
		RuneStart:  d.runeStart,
		RuneEnd:    d.runeEnd,
		Width:      d.width,
		Height:     thickness,
		Hyphenated: d.hyphenated,
		Hard:       d.hard,
	}

	pen := segY + startShift + alignShift(opts.Align, false, segH-startShift, d.width)
	for i := range d.glyphs {
		g := d.glyphs[i]
		pg := PositionedGlyph{ShapedGlyph: g}
		pg.Y = pen + g.YOffset
		pg.X = center + g.XOffset
		pen += g.Advance(true)
		out.Glyphs = append(out.Glyphs, pg)
	}

	line.GlyphEnd = len(out.Glyphs)
	out.Lines = append(out.Lines, line)
}

// mirrorColumns flips column x positions for vertical-rl, where the
// first column is the rightmost.
func mirrorColumns(out *Result, total float64) {
	for i := range out.Glyphs {
		out.Glyphs[i].X = total - out.Glyphs[i].X
	}
	for i := range out.Lines {
		out.Lines[i].X = total - out.Lines[i].X - out.Lines[i].Height
		out.Lines[i].Baseline = total - out.Lines[i].Baseline
	}
}
