package layout

import (
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/style"
	"github.com/gogpu/uicore/text"
)

// inlineRun is the collected inline content of one formatting context:
// the flat item list for the text engine plus, per replaced item, the
// box that produced it so its subtree can be moved to the glyph
// position afterwards.
type inlineRun struct {
	items   []text.InlineItem
	sources []idtree.NodeId // index-aligned with items; None for text
	hasText bool
}

// layoutInlineContent lays out the inline children of id as one
// paragraph, stores the text result on the box and returns the content
// height.
func (s *solver) layoutInlineContent(id idtree.NodeId, st *style.Style, inner containingBlock) (float64, error) {
	var run inlineRun
	if err := s.collectInline(id, inner, &run); err != nil {
		return 0, err
	}
	if len(run.items) == 0 {
		return 0, nil
	}
	if run.hasText && s.opts.Provider == nil {
		return 0, ErrNoProvider
	}

	topts := s.textOptions(st, inner)

	var (
		res *text.Result
		err error
	)
	if s.opts.TextCache != nil {
		res, err = s.opts.TextCache.Layout(run.items, s.opts.Provider, topts)
	} else {
		var r *text.Result
		r, err = text.Layout(run.items, s.opts.Provider, topts)
		res = r
	}
	if err != nil {
		return 0, err
	}

	rect := &s.res.Rects[id.Index()]
	rect.Text = res

	s.placeReplaced(&run, res, inner)
	return res.Size.Height, nil
}

// textOptions maps the container style onto the text engine options,
// with float bands as exclusions.
func (s *solver) textOptions(st *style.Style, inner containingBlock) text.Options {
	// Floats are clipped against the content box; an auto height is
	// still open-ended downwards.
	exRect := inner.rect
	if !inner.hDef {
		exRect.H = 1e9
	}
	opts := text.Options{
		MaxWidth:        inner.rect.W,
		Exclusions:      s.floatExclusions(exRect),
		Direction:       st.Direction,
		WritingMode:     st.WritingMode,
		TextOrientation: st.TextOrientation,
		Align:           st.TextAlign,
		Justify:         st.TextJustify,
		WhiteSpace:      st.WhiteSpace,
		WordBreak:       st.WordBreak,
		Hyphens:         st.Hyphens,
		Hyphenator:      s.opts.Hyphenator,
		LineHeight:      st.EffectiveLineHeight(),
		LineClamp:       st.LineClamp,
	}
	if inner.hDef {
		opts.MaxHeight = inner.rect.H
		opts.Overflow = overflowBehavior(st.Overflow)
	}
	return opts
}

func overflowBehavior(o style.Overflow) text.OverflowBehavior {
	switch o {
	case style.OverflowHidden:
		return text.OverflowHidden
	case style.OverflowScroll:
		return text.OverflowScroll
	case style.OverflowAuto:
		return text.OverflowAuto
	default:
		return text.OverflowVisible
	}
}

// collectInline flattens the inline subtree of id into items. Nested
// inline elements contribute their text leaves; inline-blocks are laid
// out here to measure them and enter the paragraph as opaque boxes.
func (s *solver) collectInline(id idtree.NodeId, inner containingBlock, run *inlineRun) error {
	// A box with no children is itself the content (a lone text leaf).
	if s.tree.Hierarchy.FirstChild(id).IsNone() {
		return s.collectLeaf(id, inner, run)
	}
	for c := range s.tree.Hierarchy.Children(id) {
		st := s.styleOf(c)
		if st.Display == style.DisplayNone {
			continue
		}
		switch st.Position {
		case style.PositionAbsolute, style.PositionFixed:
			s.deferred = append(s.deferred, deferred{
				id:     c,
				static: uicore.Pt(inner.rect.X, inner.rect.Y),
				cb:     inner,
				fixed:  st.Position == style.PositionFixed,
			})
			continue
		}
		if st.Display == style.DisplayInlineBlock {
			if err := s.collectInlineBlock(c, &st, inner, run); err != nil {
				return err
			}
			continue
		}
		if s.tree.Hierarchy.FirstChild(c).IsNone() {
			if err := s.collectLeaf(c, inner, run); err != nil {
				return err
			}
			continue
		}
		// Nested inline element: flatten its children.
		if err := s.collectInline(c, inner, run); err != nil {
			return err
		}
	}
	return nil
}

// collectLeaf appends the item for a childless inline box.
func (s *solver) collectLeaf(id idtree.NodeId, inner containingBlock, run *inlineRun) error {
	n := s.tree.Node(id)
	if n == nil {
		return nil // empty anonymous wrapper
	}
	st := s.styleOf(id)
	switch n.Type {
	case dom.NodeText:
		if n.Text == "" {
			return nil
		}
		run.items = append(run.items, text.TextItem(n.Text, runStyleFrom(&st)))
		run.sources = append(run.sources, idtree.None)
		run.hasText = true
	case dom.NodeImage, dom.NodeGlTexture, dom.NodeIFrame:
		size := replacedSize(&st, inner)
		run.items = append(run.items, text.ImageItem(size))
		run.sources = append(run.sources, id)
		r := &s.res.Rects[id.Index()]
		r.Bounds = uicore.Rect{W: size.Width, H: size.Height}
		r.ContentSize = size
	default:
		// An empty inline element contributes nothing.
	}
	return nil
}

// collectInlineBlock lays out an inline-block child at the content
// origin to measure it; placeReplaced moves the subtree to its final
// glyph position.
func (s *solver) collectInlineBlock(id idtree.NodeId, st *style.Style, inner containingBlock, run *inlineRun) error {
	m := s.metrics(st, inner)
	l, err := s.layoutBlockLevel(id, inner.rect.X, inner.rect.Y, inner)
	if err != nil {
		return err
	}
	b := &s.res.Rects[id.Index()]
	size := uicore.Size{
		Width:  b.Bounds.W + m.margin.Horizontal(),
		Height: l.height + m.margin.Vertical(),
	}
	run.items = append(run.items, text.ShapeItem(size, 0))
	run.sources = append(run.sources, id)
	return nil
}

// replacedSize resolves the used size of an inline replaced box from
// its style; unresolved dimensions stay zero (the host supplies sizes
// through the style).
func replacedSize(st *style.Style, inner containingBlock) uicore.Size {
	w, _ := st.Width.Resolve(inner.rect.W, inner.wDef)
	h, _ := st.Height.Resolve(inner.rect.H, inner.hDef)
	return uicore.Size{Width: w, Height: h}
}

// placeReplaced moves replaced boxes to their positioned glyphs. A
// replaced glyph's position is the pen at the left edge with the box
// bottom on the baseline (or the item baseline when set).
func (s *solver) placeReplaced(run *inlineRun, res *text.Result, inner containingBlock) {
	for i := range res.Glyphs {
		pg := &res.Glyphs[i]
		if pg.Font != nil {
			continue
		}
		src := run.sources[pg.Item]
		if src.IsNone() {
			continue
		}
		it := &run.items[pg.Item]
		ascent := it.Size.Height
		if it.Baseline > 0 {
			ascent = it.Baseline
		}
		targetX := inner.rect.X + pg.X
		targetY := inner.rect.Y + pg.Y - ascent

		b := &s.res.Rects[src.Index()]
		// Glyph position is the margin-box corner for inline-blocks.
		targetX += b.Margin.Left
		targetY += b.Margin.Top
		s.translateSubtree(src, targetX-b.Bounds.X, targetY-b.Bounds.Y)
	}
}

// runStyleFrom maps box style font properties onto a text run style.
func runStyleFrom(st *style.Style) text.RunStyle {
	rs := text.RunStyle{
		Size:          st.FontSizePx,
		Weight:        int(st.EffectiveFontWeight()),
		Style:         st.FontStyle,
		Stretch:       st.FontStretch,
		LetterSpacing: st.LetterSpacing,
		WordSpacing:   st.WordSpacing,
		CombineDigits: int(st.TextCombineDigits),
	}
	if st.FontFamily != "" {
		rs.Families = []string{st.FontFamily}
	}
	if rs.Size == 0 {
		rs.Size = 16
	}
	if rs.Stretch == 0 {
		rs.Stretch = style.FontStretchNormal
	}
	return rs
}
