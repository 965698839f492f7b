package layout

import (
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/style"
	"github.com/gogpu/uicore/text"
)

// tableCell is one placed cell of the grid.
type tableCell struct {
	id       idtree.NodeId
	st       style.Style
	m        boxMetrics
	row, col int
	rowSpan  int
	colSpan  int
}

// tableGrid is the occupancy-resolved cell grid of one table.
type tableGrid struct {
	rows    []idtree.NodeId
	cells   []tableCell
	numCols int
}

// layoutTable resolves a table: grid placement with spans, column
// width distribution, row heights from the tallest cell, and collapsed
// border geometry when border-collapse is set.
func (s *solver) layoutTable(id idtree.NodeId, st *style.Style, inner containingBlock) (float64, error) {
	grid := s.buildGrid(id)
	if grid.numCols == 0 {
		return 0, nil
	}

	colW, err := s.columnWidths(grid, inner)
	if err != nil {
		return 0, err
	}

	// Collapsed borders merge adjacent cell edges so the shared edge
	// measures the resolved winner.
	var colOverlap, rowOverlap []float64
	if st.BorderCollapse {
		colOverlap, rowOverlap = s.collapseOverlaps(grid)
	} else {
		colOverlap = make([]float64, grid.numCols)
		rowOverlap = make([]float64, len(grid.rows))
	}

	colX := make([]float64, grid.numCols+1)
	for i := 0; i < grid.numCols; i++ {
		next := colX[i] + colW[i]
		if i+1 < grid.numCols {
			next -= colOverlap[i+1]
		}
		colX[i+1] = next
	}

	// First pass: lay every cell out at its column with a forced width
	// to measure heights.
	rowH := make([]float64, len(grid.rows))
	for i := range grid.cells {
		c := &grid.cells[i]
		w := spanWidth(colX, colW, c)
		s.setOverride(c.id, sizeOverride{w: w, hasW: true})
		l, err := s.layoutBlockLevel(c.id, inner.rect.X+colX[c.col], inner.rect.Y, inner)
		if err != nil {
			return 0, err
		}
		if c.rowSpan == 1 && l.height > rowH[c.row] {
			rowH[c.row] = l.height
		}
	}
	// Spanning cells can still exceed their rows; give the excess to
	// the last spanned row.
	for i := range grid.cells {
		c := &grid.cells[i]
		if c.rowSpan == 1 {
			continue
		}
		span := 0.0
		for r := c.row; r < c.row+c.rowSpan && r < len(rowH); r++ {
			span += rowH[r]
		}
		h := s.res.Rects[c.id.Index()].Bounds.H
		if h > span {
			last := c.row + c.rowSpan - 1
			if last >= len(rowH) {
				last = len(rowH) - 1
			}
			rowH[last] += h - span
		}
	}

	rowY := make([]float64, len(grid.rows)+1)
	for r := range grid.rows {
		next := rowY[r] + rowH[r]
		if r+1 < len(grid.rows) {
			next -= rowOverlap[r+1]
		}
		rowY[r+1] = next
	}

	// Second pass: final placement with the cell stretched over its
	// spanned rows.
	for i := range grid.cells {
		c := &grid.cells[i]
		w := spanWidth(colX, colW, c)
		endRow := c.row + c.rowSpan
		if endRow > len(grid.rows) {
			endRow = len(grid.rows)
		}
		h := rowY[endRow] - rowY[c.row]
		s.setOverride(c.id, sizeOverride{w: w, hasW: true, h: h, hasH: true})
		if _, err := s.layoutBlockLevel(c.id, inner.rect.X+colX[c.col], inner.rect.Y+rowY[c.row], inner); err != nil {
			return 0, err
		}
	}

	// Row boxes span the full grid width.
	tableW := colX[grid.numCols]
	for r, rid := range grid.rows {
		rect := &s.res.Rects[rid.Index()]
		rect.Bounds = uicore.Rect{
			X: inner.rect.X,
			Y: inner.rect.Y + rowY[r],
			W: tableW,
			H: rowH[r],
		}
		rect.ContentSize = uicore.Size{Width: tableW, Height: rowH[r]}
	}

	return rowY[len(grid.rows)], nil
}

// buildGrid walks the row children and places cells at the first free
// column, honoring col/row spans.
func (s *solver) buildGrid(id idtree.NodeId) *tableGrid {
	g := &tableGrid{}

	// occupied[r] marks columns taken in row r by spans from above.
	occupied := map[int]map[int]bool{}
	take := func(r, c int) {
		if occupied[r] == nil {
			occupied[r] = map[int]bool{}
		}
		occupied[r][c] = true
	}

	for child := range s.tree.Hierarchy.Children(id) {
		cst := s.styleOf(child)
		if cst.Display != style.DisplayTableRow {
			continue
		}
		r := len(g.rows)
		g.rows = append(g.rows, child)

		col := 0
		for cellID := range s.tree.Hierarchy.Children(child) {
			st := s.styleOf(cellID)
			if st.Display != style.DisplayTableCell {
				continue
			}
			for occupied[r][col] {
				col++
			}
			cell := tableCell{
				id:      cellID,
				st:      st,
				m:       s.metrics(&st, containingBlock{}),
				row:     r,
				col:     col,
				rowSpan: st.EffectiveRowSpan(),
				colSpan: st.EffectiveColSpan(),
			}
			for rr := r; rr < r+cell.rowSpan; rr++ {
				for cc := col; cc < col+cell.colSpan; cc++ {
					take(rr, cc)
				}
			}
			if col+cell.colSpan > g.numCols {
				g.numCols = col + cell.colSpan
			}
			g.cells = append(g.cells, cell)
			col += cell.colSpan
		}
	}
	return g
}

// columnWidths aggregates per-column min/max content widths from the
// cells and distributes the table width across them: every column gets
// at least its min, explicit cell widths pin their column, and the
// surplus beyond the preferred widths goes to the unpinned columns.
func (s *solver) columnWidths(g *tableGrid, inner containingBlock) ([]float64, error) {
	minC := make([]float64, g.numCols)
	maxC := make([]float64, g.numCols)
	pinned := make([]bool, g.numCols)

	for i := range g.cells {
		c := &g.cells[i]
		cmin, cmax, err := s.intrinsicWidths(c.id)
		if err != nil {
			return nil, err
		}
		if w, ok := c.st.Width.Resolve(inner.rect.W, inner.wDef); ok {
			w += c.m.padding.Horizontal() + c.m.border.Horizontal()
			if w > cmin {
				cmin = w
			}
			if w > cmax {
				cmax = w
			}
			if c.colSpan == 1 {
				pinned[c.col] = true
			}
		}
		// A spanning cell spreads its demand evenly over its columns.
		per := float64(c.colSpan)
		for cc := c.col; cc < c.col+c.colSpan && cc < g.numCols; cc++ {
			if v := cmin / per; v > minC[cc] {
				minC[cc] = v
			}
			if v := cmax / per; v > maxC[cc] {
				maxC[cc] = v
			}
		}
	}

	var sumMin, sumMax float64
	for i := 0; i < g.numCols; i++ {
		sumMin += minC[i]
		sumMax += maxC[i]
	}

	colW := make([]float64, g.numCols)
	avail := inner.rect.W
	switch {
	case sumMin >= avail:
		// Not even the minima fit; the table overflows at min widths.
		copy(colW, minC)
	case sumMax <= avail:
		// Preferred widths fit; the leftover stretches the unpinned
		// columns evenly.
		copy(colW, maxC)
		free := 0
		for i := 0; i < g.numCols; i++ {
			if !pinned[i] {
				free++
			}
		}
		if free > 0 {
			share := (avail - sumMax) / float64(free)
			for i := 0; i < g.numCols; i++ {
				if !pinned[i] {
					colW[i] += share
				}
			}
		}
	default:
		// Between the bounds: grow each column from its min in
		// proportion to its min-max gap.
		scale := (avail - sumMin) / (sumMax - sumMin)
		for i := 0; i < g.numCols; i++ {
			colW[i] = minC[i] + (maxC[i]-minC[i])*scale
		}
	}
	return colW, nil
}

// intrinsicWidths measures the min- and max-content border-box widths
// of a box: the narrowest width before content overflows and the width
// at which no soft break is taken. An explicit pixel width pins both.
func (s *solver) intrinsicWidths(id idtree.NodeId) (minW, maxW float64, err error) {
	st := s.styleOf(id)
	probe := containingBlock{}
	m := s.metrics(&st, probe)
	edges := m.padding.Horizontal() + m.border.Horizontal()

	if w, ok := st.Width.Resolve(0, false); ok {
		w = style.ClampSize(w, st.MinWidth, st.MaxWidth, 0, false)
		return w + edges, w + edges, nil
	}

	if s.isInlineContainer(id) {
		// collectInline may defer out-of-flow boxes and pre-lay
		// inline-blocks; the real layout pass redoes both.
		mark := len(s.deferred)
		var run inlineRun
		if err := s.collectInline(id, probe, &run); err != nil {
			return 0, 0, err
		}
		s.deferred = s.deferred[:mark]
		if len(run.items) == 0 {
			return edges, edges, nil
		}
		if run.hasText && s.opts.Provider == nil {
			return 0, 0, ErrNoProvider
		}
		minW, maxW, err = s.measureInline(run.items, &st)
		if err != nil {
			return 0, 0, err
		}
		return minW + edges, maxW + edges, nil
	}

	// Block container: the widest child margin box governs both bounds.
	for c := range s.tree.Hierarchy.Children(id) {
		cst := s.styleOf(c)
		if cst.Display == style.DisplayNone ||
			cst.Position == style.PositionAbsolute || cst.Position == style.PositionFixed {
			continue
		}
		cm := s.metrics(&cst, probe)
		cmin, cmax, err := s.intrinsicWidths(c)
		if err != nil {
			return 0, 0, err
		}
		if v := cmin + cm.margin.Horizontal(); v > minW {
			minW = v
		}
		if v := cmax + cm.margin.Horizontal(); v > maxW {
			maxW = v
		}
	}
	return minW + edges, maxW + edges, nil
}

// measureInline runs the text engine at the two extremes: a hair-width
// line forces every soft break for the min; an unconstrained line
// takes none for the max. Alignment and justification are left off so
// the measured extent is the natural one.
func (s *solver) measureInline(items []text.InlineItem, st *style.Style) (minW, maxW float64, err error) {
	opts := text.Options{
		Direction:  st.Direction,
		WhiteSpace: st.WhiteSpace,
		WordBreak:  st.WordBreak,
		LineHeight: st.EffectiveLineHeight(),
	}

	opts.MaxWidth = 1
	res, err := s.measureLayout(items, opts)
	if err != nil {
		return 0, 0, err
	}
	minW = res.Size.Width

	opts.MaxWidth = 0 // unconstrained
	res, err = s.measureLayout(items, opts)
	if err != nil {
		return 0, 0, err
	}
	return minW, res.Size.Width, nil
}

func (s *solver) measureLayout(items []text.InlineItem, opts text.Options) (*text.Result, error) {
	if s.opts.TextCache != nil {
		return s.opts.TextCache.Layout(items, s.opts.Provider, opts)
	}
	return text.Layout(items, s.opts.Provider, opts)
}

// collapseOverlaps computes per-gridline overlaps: adjacent boxes sink
// into each other by the difference between their combined painted
// edge widths and the resolved winner's, so the shared edge renders at
// the winner's width. Cell and row borders compete through the
// conflict resolver; a row border wider than both adjoining cell
// borders yields a negative overlap, spreading the rows to make room.
func (s *solver) collapseOverlaps(g *tableGrid) (col, row []float64) {
	col = make([]float64, g.numCols)
	row = make([]float64, len(g.rows))

	vCand := make([][]style.EdgeBorder, g.numCols+1)
	hCand := make([][]style.EdgeBorder, len(g.rows)+1)
	addV := func(k int, b style.Border, src style.BorderSource) {
		if k >= 0 && k < len(vCand) {
			vCand[k] = append(vCand[k], style.EdgeBorder{Border: b, Source: src})
		}
	}
	addH := func(k int, b style.Border, src style.BorderSource) {
		if k >= 0 && k < len(hCand) {
			hCand[k] = append(hCand[k], style.EdgeBorder{Border: b, Source: src})
		}
	}

	// Painted widths per cell edge, keyed by the grid line they touch.
	rightAt := make([]float64, g.numCols+1)
	leftAt := make([]float64, g.numCols+1)
	bottomAt := make([]float64, len(g.rows)+1)
	topAt := make([]float64, len(g.rows)+1)
	maxTo := func(dst []float64, k int, v float64) {
		if k >= 0 && k < len(dst) && v > dst[k] {
			dst[k] = v
		}
	}

	for i := range g.cells {
		c := &g.cells[i]
		addV(c.col, c.st.Border[style.EdgeLeft], style.SourceCell)
		addV(c.col+c.colSpan, c.st.Border[style.EdgeRight], style.SourceCell)
		addH(c.row, c.st.Border[style.EdgeTop], style.SourceCell)
		addH(c.row+c.rowSpan, c.st.Border[style.EdgeBottom], style.SourceCell)
		maxTo(leftAt, c.col, c.m.border.Left)
		maxTo(rightAt, c.col+c.colSpan, c.m.border.Right)
		maxTo(topAt, c.row, c.m.border.Top)
		maxTo(bottomAt, c.row+c.rowSpan, c.m.border.Bottom)
	}
	for r, rid := range g.rows {
		rst := s.styleOf(rid)
		addH(r, rst.Border[style.EdgeTop], style.SourceRow)
		addH(r+1, rst.Border[style.EdgeBottom], style.SourceRow)
	}

	winner := func(cands []style.EdgeBorder) float64 {
		w := style.CollapseAll(cands...)
		if !w.Style.DrawsLine() {
			return 0
		}
		return w.Width
	}
	for k := 1; k < g.numCols; k++ {
		col[k] = rightAt[k] + leftAt[k] - winner(vCand[k])
	}
	for k := 1; k < len(g.rows); k++ {
		row[k] = bottomAt[k] + topAt[k] - winner(hCand[k])
	}
	return col, row
}

// spanWidth is the border-box width of a cell spanning its columns,
// including the swallowed interior overlaps.
func spanWidth(colX, colW []float64, c *tableCell) float64 {
	end := c.col + c.colSpan
	return colX[end-1] + colW[end-1] - colX[c.col]
}
