package text

import (
	"github.com/gogpu/uicore/style"
)

// lineDraft is a broken, not yet positioned line.
type lineDraft struct {
	glyphs     []ShapedGlyph
	runeStart  int
	runeEnd    int
	width      float64
	hyphenated bool
	hard       bool
}

// fillState is the cursor state while filling a line.
type fillState uint8

const (
	// stateEmpty: nothing consumed yet; the first cluster is always
	// taken, even when it alone overflows.
	stateEmpty fillState = iota
	// stateFilling: content consumed, still fits.
	stateFilling
	// stateOverflowing: the line exceeds the available width and is
	// scanning forward to the next legal break.
	stateOverflowing
)

// breaker cuts the logical glyph stream into lines. It is stateful:
// each nextLine call consumes glyphs and guarantees forward progress
// (at least one rune per line).
type breaker struct {
	glyphs   []ShapedGlyph
	lt       *logicalText
	items    []InlineItem
	opts     *Options
	vertical bool
	pos      int
}

func newBreaker(glyphs []ShapedGlyph, lt *logicalText, items []InlineItem, opts *Options) *breaker {
	return &breaker{
		glyphs:   glyphs,
		lt:       lt,
		items:    items,
		opts:     opts,
		vertical: opts.WritingMode.IsVertical(),
	}
}

func (b *breaker) done() bool { return b.pos >= len(b.glyphs) }

// consumedRunes returns the logical rune offset of the cursor.
func (b *breaker) consumedRunes() int {
	if b.pos >= len(b.glyphs) {
		return len(b.lt.runes)
	}
	return b.glyphs[b.pos].ClusterStart
}

// nextLine fills one line against the available inline width.
func (b *breaker) nextLine(avail float64) lineDraft {
	start := b.pos
	wrap := b.opts.WhiteSpace.Wraps()
	state := stateEmpty
	w := 0.0
	lastSafe := -1 // glyph index one past the latest fitting safe break

	j := start
	for j < len(b.glyphs) {
		g := &b.glyphs[j]

		if b.isHardBreak(g) {
			d := b.makeDraft(start, j, nil, true)
			b.pos = j + 1
			d.runeEnd = g.ClusterEnd
			return d
		}

		adv := g.Advance(b.vertical)
		overflow := wrap && state != stateEmpty && w+adv > avail && g.Class != ClassSpace

		if overflow && state == stateFilling {
			if k, hyph := b.hyphenBreak(start, j, avail, lastSafe); k > start {
				d := b.makeDraft(start, k, hyph, false)
				b.pos = k
				return d
			}
			if lastSafe > start {
				return b.breakAt(start, lastSafe, false)
			}
			// No legal break on the line yet: overflow and scan
			// forward to the next opportunity.
			state = stateOverflowing
		}

		w += adv
		if state == stateEmpty {
			state = stateFilling
		}
		j++
		if g.SafeBreakAfter {
			if state == stateOverflowing {
				return b.breakAt(start, j, false)
			}
			if w <= avail || g.Class == ClassSpace {
				lastSafe = j
			}
		}
	}
	d := b.makeDraft(start, len(b.glyphs), nil, false)
	b.pos = len(b.glyphs)
	return d
}

// isHardBreak reports whether g forces a line end: an explicit break
// item, or a newline under a whitespace mode that preserves them.
func (b *breaker) isHardBreak(g *ShapedGlyph) bool {
	if b.items[g.Item].Type == ItemLineBreak {
		return true
	}
	if b.lt.runeAt(g.ClusterStart) != '\n' {
		return false
	}
	switch b.opts.WhiteSpace {
	case style.WhiteSpacePre, style.WhiteSpacePreWrap, style.WhiteSpacePreLine:
		return true
	}
	return false
}

// breakAt finishes the line at glyph index end, consuming any trailing
// breaking spaces (they hang, contributing no width).
func (b *breaker) breakAt(start, end int, hyphenated bool) lineDraft {
	consume := end
	for consume < len(b.glyphs) &&
		b.glyphs[consume].Class == ClassSpace &&
		b.glyphs[consume].SafeBreakAfter {
		consume++
	}
	d := b.makeDraft(start, end, nil, false)
	d.hyphenated = hyphenated
	if consume > end {
		d.runeEnd = b.glyphs[consume-1].ClusterEnd
	}
	b.pos = consume
	return d
}

// makeDraft copies glyphs[start:end) into a draft, trimming trailing
// spaces from the measured width, and appending an optional hyphen.
func (b *breaker) makeDraft(start, end int, hyphen *ShapedGlyph, hard bool) lineDraft {
	trim := end
	for trim > start && b.glyphs[trim-1].Class == ClassSpace {
		trim--
	}
	d := lineDraft{hard: hard}
	d.glyphs = append(d.glyphs, b.glyphs[start:trim]...)
	if hyphen != nil {
		d.glyphs = append(d.glyphs, *hyphen)
		d.hyphenated = true
	}
	for i := range d.glyphs {
		d.width += d.glyphs[i].Advance(b.vertical)
	}
	if start < len(b.glyphs) {
		d.runeStart = b.glyphs[start].ClusterStart
	} else {
		d.runeStart = len(b.lt.runes)
	}
	if end > start {
		d.runeEnd = b.glyphs[end-1].ClusterEnd
	} else {
		d.runeEnd = d.runeStart
	}
	return d
}

// hyphenBreak looks for the latest hyphenation split of the word
// overflowing at glyph index j that fits avail including the hyphen
// glyph's advance. Returns the glyph index to cut at and the hyphen
// glyph, or (start, nil).
//
// A split is only taken when it consumes more runes than the best
// plain safe break, so hyphenation never loses to a worse break.
func (b *breaker) hyphenBreak(start, j int, avail float64, lastSafe int) (int, *ShapedGlyph) {
	if !b.hyphensEnabled() {
		return start, nil
	}
	g := &b.glyphs[j]
	ws, we, ok := wordAround(b.lt, g.ClusterStart)
	if !ok {
		return start, nil
	}
	candidates := b.splitCandidates(ws, we)
	if len(candidates) == 0 {
		return start, nil
	}

	minRune := 0
	if lastSafe > start {
		minRune = b.glyphs[lastSafe-1].ClusterEnd
	}

	bestK := start
	var bestHyphen *ShapedGlyph
	for _, s := range candidates {
		if s <= minRune {
			continue
		}
		k := b.glyphAtRune(start, s)
		if k <= start {
			continue
		}
		font := b.glyphs[k-1].Font
		if font == nil {
			continue
		}
		gid, ok := font.HyphenGlyph()
		if !ok {
			continue
		}
		hyphAdv := font.AdvanceH(gid)
		w := 0.0
		for i := start; i < k; i++ {
			w += b.glyphs[i].Advance(b.vertical)
		}
		if w+hyphAdv > avail {
			continue
		}
		if k > bestK {
			bestK = k
			h := ShapedGlyph{
				GID:          gid,
				Font:         font,
				XAdvance:     hyphAdv,
				ClusterStart: s,
				ClusterEnd:   s,
				Item:         b.glyphs[k-1].Item,
				Script:       b.glyphs[k-1].Script,
				Level:        b.glyphs[k-1].Level,
			}
			bestHyphen = &h
		}
	}
	return bestK, bestHyphen
}

func (b *breaker) hyphensEnabled() bool {
	switch b.opts.Hyphens {
	case style.HyphensAuto:
		return true
	case style.HyphensManual:
		return true
	}
	return false
}

// splitCandidates returns ascending absolute rune offsets at which the
// word [ws, we) may split: soft hyphens always, Liang pattern
// opportunities under hyphens:auto.
func (b *breaker) splitCandidates(ws, we int) []int {
	var out []int
	for i := ws; i < we; i++ {
		if b.lt.runes[i] == runeSHY {
			out = append(out, i+1)
		}
	}
	if b.opts.Hyphens == style.HyphensAuto && b.opts.Hyphenator != nil {
		for _, p := range b.opts.Hyphenator.Opportunities(b.lt.runes[ws:we]) {
			out = append(out, ws+p)
		}
	}
	return dedupSorted(out)
}

// glyphAtRune returns the glyph index whose cluster starts exactly at
// rune s, or -1 when s falls inside a cluster (ligated splits are
// rejected rather than re-shaped).
func (b *breaker) glyphAtRune(start, s int) int {
	for k := start; k < len(b.glyphs); k++ {
		if b.glyphs[k].ClusterStart == s {
			return k
		}
		if b.glyphs[k].ClusterStart > s {
			break
		}
	}
	return -1
}

func dedupSorted(v []int) []int {
	if len(v) < 2 {
		return v
	}
	// insertion sort: candidate lists are tiny
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
	out := v[:1]
	for _, x := range v[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
