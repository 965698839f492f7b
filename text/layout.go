package text

import (
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/style"
)

// Options configures one inline layout. Zero value: unconstrained
// width, horizontal LTR-detected flow, start alignment, no
// justification, normal whitespace, no hyphenation.
type Options struct {
	// MaxWidth is the inline-axis constraint; <= 0 is unconstrained.
	MaxWidth float64
	// MaxHeight is the block-axis constraint; 0 is unbounded.
	MaxHeight float64
	// Exclusions are rectangles lines flow around, in logical
	// coordinates (X along the inline axis, Y along the block axis).
	Exclusions []uicore.Rect
	// Overflow applies when MaxHeight is exhausted.
	Overflow OverflowBehavior

	Direction       style.Direction
	WritingMode     style.WritingMode
	TextOrientation style.TextOrientation
	Align           style.TextAlign
	Justify         style.TextJustify
	WhiteSpace      style.WhiteSpace
	WordBreak       style.WordBreak

	Hyphens    style.Hyphens
	Hyphenator Hyphenator

	Lang string

	// LineHeight is a multiplier over the font size; 0 means 1.2.
	LineHeight float64
	// LineClamp truncates after N lines; 0 disables.
	LineClamp int
}

func (o *Options) lineHeightMult() float64 {
	if o.LineHeight <= 0 {
		return 1.2
	}
	return o.LineHeight
}

func (o *Options) area() FlowArea {
	return FlowArea{
		Width:      o.MaxWidth,
		Height:     o.MaxHeight,
		Exclusions: o.Exclusions,
		Overflow:   o.Overflow,
	}
}

// Layout lays out inline content in a single flow area.
func Layout(items []InlineItem, p Provider, opts Options) (*Result, error) {
	glyphs, lt, err := shapeAll(items, p, &opts)
	if err != nil {
		return nil, err
	}
	br := newBreaker(glyphs, lt, items, &opts)
	clamp := newClampCounter(opts.LineClamp)
	res := layoutArea(br, lt, items, &opts, opts.area(), clamp)
	return &res, nil
}

// LayoutFlow lays out inline content across a fragmentation chain.
// Fragment k+1 receives the content fragment k could not fit; content
// is neither lost nor duplicated. Every fragment of the chain gets a
// result, empty once the content is exhausted.
func LayoutFlow(items []InlineItem, p Provider, opts Options, chain []FlowFragment) ([]FragmentResult, error) {
	glyphs, lt, err := shapeAll(items, p, &opts)
	if err != nil {
		return nil, err
	}
	br := newBreaker(glyphs, lt, items, &opts)
	clamp := newClampCounter(opts.LineClamp)

	out := make([]FragmentResult, 0, len(chain))
	for i, frag := range chain {
		area := frag.Area
		if i < len(chain)-1 {
			// Non-final fragments always hand their remainder on.
			area.Overflow = OverflowBreak
		}
		res := layoutArea(br, lt, items, &opts, area, clamp)
		out = append(out, FragmentResult{ID: frag.ID, Result: res})
		if clamp.exhausted() {
			break
		}
	}
	return out, nil
}

// clampCounter tracks the global line budget across fragments.
type clampCounter struct {
	limit int
	used  int
}

func newClampCounter(limit int) *clampCounter { return &clampCounter{limit: limit} }

func (c *clampCounter) exhausted() bool { return c.limit > 0 && c.used >= c.limit }

// layoutArea fills one flow area from the shared breaker.
func layoutArea(br *breaker, lt *logicalText, items []InlineItem, opts *Options,
	area FlowArea, clamp *clampCounter) Result {

	var out Result
	vertical := opts.WritingMode.IsVertical()
	blockOff := 0.0
	crossMax := 0.0

	for !br.done() && !clamp.exhausted() {
		estH := estimateLineHeight(br, opts)

		if area.Height > 0 && blockOff+estH > area.Height && len(out.Lines) > 0 {
			if area.Overflow == OverflowBreak {
				out.Overflowed = true
				break
			}
			// Other behaviors keep laying out; rendering clips or
			// scrolls.
		}

		segX, segW, ok := area.segmentAt(blockOff, estH)
		if !ok {
			// The band is fully excluded: step past it.
			blockOff += estH
			if area.Height > 0 && blockOff > area.Height && area.Overflow == OverflowBreak {
				out.Overflowed = true
				break
			}
			if blockOff > unconstrainedWidth {
				break
			}
			continue
		}

		d := br.nextLine(segW)

		var shift float64
		if justifyThis(opts, &d, br.done()) {
			shift = justifyLine(&d, segW, opts.Justify, vertical)
		}

		if vertical {
			positionVertical(&out, &d, items, opts, blockOff, 0, area.Height, estH, shift)
			blockOff += estH
		} else {
			positionHorizontal(&out, &d, items, opts, lt.baseRTL, segX, segW, blockOff, shift)
			blockOff += out.Lines[len(out.Lines)-1].Height
		}
		if ext := lineExtent(&out.Lines[len(out.Lines)-1], vertical); ext > crossMax {
			crossMax = ext
		}
		clamp.used++
	}

	if clamp.exhausted() && !br.done() {
		out.Clamped = true
	}
	out.RemainderRunes = br.consumedRunes()

	if vertical {
		if opts.WritingMode.LinesAdvanceLeft() {
			mirrorColumns(&out, blockOff)
		}
		out.Size = uicore.Size{Width: blockOff, Height: crossMax}
	} else {
		out.Size = uicore.Size{Width: crossMax, Height: blockOff}
	}
	return out
}

// lineExtent is the inline-axis extent of a line including its start
// offset.
func lineExtent(l *Line, vertical bool) float64 {
	if vertical {
		return l.Y + l.Width
	}
	return l.X + l.Width
}

// justifyThis decides whether a line receives justification: wrapped
// lines under justify, every line under justify-all; hard-broken and
// final lines stay natural except under justify-all.
func justifyThis(opts *Options, d *lineDraft, last bool) bool {
	if opts.Justify == style.TextJustifyNone {
		return false
	}
	switch opts.Align {
	case style.TextAlignJustifyAll:
		return true
	case style.TextAlignJustify:
		return !d.hard && !last
	}
	return false
}

// estimateLineHeight predicts the next line's height from the glyph at
// the cursor, for exclusion band queries before the line is broken.
func estimateLineHeight(br *breaker, opts *Options) float64 {
	if br.pos < len(br.glyphs) {
		if f := br.glyphs[br.pos].Font; f != nil {
			return f.Size() * opts.lineHeightMult()
		}
		it := &br.items[br.glyphs[br.pos].Item]
		if it.Type == ItemImage || it.Type == ItemShape {
			if opts.WritingMode.IsVertical() {
				return it.Size.Width
			}
			return it.Size.Height
		}
	}
	return 16 * opts.lineHeightMult()
}
