package text

import (
	"fmt"
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"

	"github.com/gogpu/uicore/style"
)

// objectRune stands in for non-text items in the flattened logical
// text (U+FFFC OBJECT REPLACEMENT CHARACTER).
const objectRune = '￼'

// logicalText is the flattened, annotated source the breaker and the
// hyphenator consult. Indices are rune offsets.
type logicalText struct {
	runes   []rune
	item    []int // generating item per rune
	levels  []uint8
	scripts []language.Script
	baseRTL bool
}

func (lt *logicalText) runeAt(i int) rune {
	if i < 0 || i >= len(lt.runes) {
		return 0
	}
	return lt.runes[i]
}

// flatten concatenates item content into one logical rune stream.
func flatten(items []InlineItem) *logicalText {
	lt := &logicalText{}
	for idx := range items {
		it := &items[idx]
		if it.Type == ItemText {
			for _, r := range it.Text {
				lt.runes = append(lt.runes, r)
				lt.item = append(lt.item, idx)
			}
			continue
		}
		lt.runes = append(lt.runes, objectRune)
		lt.item = append(lt.item, idx)
	}
	return lt
}

// annotate fills bidi levels and per-rune scripts.
func (lt *logicalText) annotate(base style.Direction) {
	lt.baseRTL, lt.levels = resolveBidi(lt.runes, base)
	lt.scripts = make([]language.Script, len(lt.runes))
	var prev language.Script
	for i, r := range lt.runes {
		lt.scripts[i] = detectScript(r, prev)
		prev = lt.scripts[i]
	}
}

// shapeAll turns items into an annotated logical-order glyph stream.
func shapeAll(items []InlineItem, p Provider, opts *Options) ([]ShapedGlyph, *logicalText, error) {
	lt := flatten(items)
	lt.annotate(opts.Direction)

	var glyphs []ShapedGlyph
	i := 0
	for i < len(lt.runes) {
		itemIdx := lt.item[i]
		it := &items[itemIdx]

		if it.Type != ItemText {
			glyphs = append(glyphs, objectGlyph(it, itemIdx, i, lt, opts))
			i++
			continue
		}

		// Extend a maximal same-item, same-level, same-script run.
		j := i + 1
		for j < len(lt.runes) &&
			lt.item[j] == itemIdx &&
			lt.levels[j] == lt.levels[i] &&
			lt.scripts[j] == lt.scripts[i] {
			j++
		}

		font, err := p.ResolveFont(it.Style)
		if err != nil {
			return nil, nil, fmt.Errorf("text: item %d: %w", itemIdx, err)
		}
		run, err := shapeRun(p, font, lt, i, j, itemIdx, it.Style.CombineDigits, opts)
		if err != nil {
			return nil, nil, err
		}
		glyphs = append(glyphs, run...)
		i = j
	}

	markSafeBreaks(glyphs, lt, items, opts)
	return glyphs, lt, nil
}

// shapeRun shapes lt.runes[start:end) against font and annotates the
// output. Runs are always shaped with horizontal direction; vertical
// flow substitutes vertical advances for upright glyphs afterwards.
func shapeRun(p Provider, font Font, lt *logicalText, start, end, itemIdx, combine int, opts *Options) ([]ShapedGlyph, error) {
	dir := di.DirectionLTR
	if lt.levels[start]%2 == 1 {
		dir = di.DirectionRTL
	}
	raw := p.Shape(ShapeRequest{
		Text:     lt.runes,
		Start:    start,
		End:      end,
		Font:     font,
		Script:   lt.scripts[start],
		Dir:      dir,
		Language: language.NewLanguage(langOrDefault(opts.Lang)),
	})
	raw = logicalOrder(raw)

	out := make([]ShapedGlyph, 0, len(raw))
	for k, rg := range raw {
		clusterEnd := end
		if k+1 < len(raw) {
			clusterEnd = raw[k+1].Cluster
		}
		r := lt.runeAt(rg.Cluster)
		class := classifyRune(r)
		g := ShapedGlyph{
			GID:          rg.GID,
			Font:         font,
			XAdvance:     rg.XAdvance,
			YAdvance:     rg.YAdvance,
			XOffset:      rg.XOffset,
			YOffset:      rg.YOffset,
			ClusterStart: rg.Cluster,
			ClusterEnd:   clusterEnd,
			Item:         itemIdx,
			Script:       lt.scripts[rg.Cluster],
			Level:        lt.levels[rg.Cluster],
			Orientation:  resolveOrientation(r, opts.WritingMode, opts.TextOrientation),
			Class:        class,
			Priority:     justifyPriorityFor(r, class, lt.scripts[rg.Cluster]),
		}
		if opts.WritingMode.IsVertical() && g.Orientation == OrientUpright && g.YAdvance == 0 {
			g.YAdvance = font.AdvanceV(g.GID)
		}
		out = append(out, g)
	}
	if opts.WritingMode.IsVertical() && combine > 0 {
		combineDigitPacks(out, lt, font, combine)
	}
	return out, nil
}

// combineDigitPacks applies tate-chu-yoko: a run of up to maxDigits
// consecutive digits becomes one upright em cell read horizontally.
// The first glyph of a pack carries the cell advance, the rest none.
func combineDigitPacks(glyphs []ShapedGlyph, lt *logicalText, font Font, maxDigits int) {
	i := 0
	for i < len(glyphs) {
		if !isDigitGlyph(&glyphs[i], lt) {
			i++
			continue
		}
		j := i
		for j < len(glyphs) && isDigitGlyph(&glyphs[j], lt) {
			j++
		}
		if j-i <= maxDigits {
			for k := i; k < j; k++ {
				glyphs[k].Orientation = OrientUpright
				glyphs[k].YAdvance = 0
			}
			glyphs[i].YAdvance = font.Size()
		}
		i = j
	}
}

func isDigitGlyph(g *ShapedGlyph, lt *logicalText) bool {
	r := lt.runeAt(g.ClusterStart)
	return r >= '0' && r <= '9'
}

// objectGlyph renders a non-text item as a single synthetic glyph cell.
func objectGlyph(it *InlineItem, itemIdx, runeIdx int, lt *logicalText, opts *Options) ShapedGlyph {
	g := ShapedGlyph{
		ClusterStart: runeIdx,
		ClusterEnd:   runeIdx + 1,
		Item:         itemIdx,
		Level:        lt.levels[runeIdx],
		Class:        ClassOther,
		Priority:     PriorityNone,
	}
	switch it.Type {
	case ItemImage, ItemShape:
		g.XAdvance = it.Size.Width
		g.YAdvance = it.Size.Height
		if opts.WritingMode.IsVertical() {
			g.Orientation = OrientUpright
		}
	case ItemSpace:
		g.Class = ClassSpace
		g.XAdvance = it.Width
		g.YAdvance = it.Width
		if it.Stretchy {
			g.Priority = PrioritySpace
		}
	case ItemLineBreak:
		// zero advance; the breaker reads the item type
	}
	return g
}

// logicalOrder returns glyphs sorted by ascending cluster. Shapers
// emit RTL runs in visual order; the engine works in logical order
// until positioning.
func logicalOrder(raw []RawGlyph) []RawGlyph {
	if len(raw) < 2 || raw[0].Cluster <= raw[len(raw)-1].Cluster {
		return raw
	}
	rev := make([]RawGlyph, len(raw))
	for i := range raw {
		rev[len(raw)-1-i] = raw[i]
	}
	return rev
}

// markSafeBreaks sets SafeBreakAfter on cluster-final glyphs where a
// soft wrap opportunity exists.
func markSafeBreaks(glyphs []ShapedGlyph, lt *logicalText, items []InlineItem, opts *Options) {
	for i := range glyphs {
		g := &glyphs[i]
		it := &items[g.Item]
		switch it.Type {
		case ItemSpace:
			g.SafeBreakAfter = it.Breaking
			continue
		case ItemImage, ItemShape:
			g.SafeBreakAfter = true
			continue
		case ItemLineBreak:
			continue
		}
		last := g.ClusterEnd - 1
		next := lt.runeAt(g.ClusterEnd)
		if opts.WordBreak == style.WordBreakBreakAll {
			g.SafeBreakAfter = !unicode.In(next, unicode.Mn, unicode.Me)
			continue
		}
		br := breakAfter(lt.runeAt(last), next)
		if opts.WordBreak == style.WordBreakKeepAll && br &&
			isIdeographic(lt.runeAt(last)) && isIdeographic(next) {
			br = false
		}
		g.SafeBreakAfter = br
	}
	if len(glyphs) > 0 {
		glyphs[len(glyphs)-1].SafeBreakAfter = true
	}
}

func langOrDefault(lang string) string {
	if lang == "" {
		return "en"
	}
	return lang
}
