package text

import (
	"math"

	"github.com/gogpu/uicore/style"
)

// justifyLine expands a line draft to fill avail. It returns the shift
// of the line start (nonzero only for distribute's half edge gaps).
// The draft's width is updated to the expanded width.
func justifyLine(d *lineDraft, avail float64, technique style.TextJustify, vertical bool) float64 {
	extra := avail - d.width
	if extra <= 0 || len(d.glyphs) == 0 || technique == style.TextJustifyNone {
		return 0
	}

	var shift float64
	switch technique {
	case style.TextJustifyInterWord:
		interWord(d, extra)
	case style.TextJustifyInterCharacter:
		interCharacter(d, extra)
	case style.TextJustifyKashida:
		kashida(d, extra, vertical)
	case style.TextJustifyDistribute:
		shift = distribute(d, extra)
	}

	d.width = 0
	for i := range d.glyphs {
		d.width += d.glyphs[i].Advance(vertical)
	}
	return shift
}

// interWord splits the slack evenly over stretchable spaces. Lines
// without any keep their natural width.
func interWord(d *lineDraft, extra float64) {
	var spaces []int
	for i := range d.glyphs {
		if d.glyphs[i].Priority == PrioritySpace {
			spaces = append(spaces, i)
		}
	}
	if len(spaces) == 0 {
		return
	}
	per := extra / float64(len(spaces))
	for _, i := range spaces {
		d.glyphs[i].Expanded += per
	}
}

// interCharacter splits the slack over inter-glyph gaps. The gap after
// a glyph is eligible unless the glyph is the line's last or either
// neighbor is a combining mark.
func interCharacter(d *lineDraft, extra float64) {
	gaps := characterGaps(d)
	if len(gaps) == 0 {
		interWord(d, extra)
		return
	}
	per := extra / float64(len(gaps))
	for _, i := range gaps {
		d.glyphs[i].Expanded += per
	}
}

func characterGaps(d *lineDraft) []int {
	var gaps []int
	for i := 0; i < len(d.glyphs)-1; i++ {
		if d.glyphs[i].Class == ClassCombining || d.glyphs[i+1].Class == ClassCombining {
			continue
		}
		gaps = append(gaps, i)
	}
	return gaps
}

// kashida inserts floor(extra/advance) tatweel glyphs at kashida
// positions, round-robin from the line end backwards, and gives the
// sub-tatweel remainder to inter-word expansion. Without kashida
// positions or a tatweel glyph the whole slack degrades to inter-word.
func kashida(d *lineDraft, extra float64, vertical bool) {
	var positions []int
	var font Font
	for i := range d.glyphs {
		if d.glyphs[i].Priority == PriorityKashida && d.glyphs[i].Font != nil {
			positions = append(positions, i)
			font = d.glyphs[i].Font
		}
	}
	if len(positions) == 0 {
		interWord(d, extra)
		return
	}
	gid, ok := font.KashidaGlyph()
	if !ok {
		interWord(d, extra)
		return
	}
	// Tatweels inherit the run's orientation: upright glyphs in
	// vertical flow expand the column by the vertical advance.
	upright := vertical && d.glyphs[positions[0]].Orientation == OrientUpright
	var adv float64
	if upright {
		adv = font.AdvanceV(gid)
	} else {
		adv = font.AdvanceH(gid)
	}
	if adv <= 0 {
		interWord(d, extra)
		return
	}

	count := int(math.Floor(extra / adv))
	remainder := extra - float64(count)*adv

	// counts per insertion point, round-robin
	per := make([]int, len(positions))
	for k := 0; k < count; k++ {
		per[k%len(positions)]++
	}

	// Insert back to front so earlier indices stay valid.
	for p := len(positions) - 1; p >= 0; p-- {
		if per[p] == 0 {
			continue
		}
		i := positions[p]
		src := d.glyphs[i]
		tat := ShapedGlyph{
			GID:          gid,
			Font:         font,
			ClusterStart: src.ClusterEnd,
			ClusterEnd:   src.ClusterEnd,
			Item:         src.Item,
			Script:       src.Script,
			Level:        src.Level,
			Orientation:  src.Orientation,
			Class:        ClassKashida,
		}
		if upright {
			tat.YAdvance = adv
		} else {
			tat.XAdvance = adv
		}
		ins := make([]ShapedGlyph, per[p])
		for k := range ins {
			ins[k] = tat
		}
		d.glyphs = append(d.glyphs[:i+1], append(ins, d.glyphs[i+1:]...)...)
	}

	if remainder > 0 {
		interWord(d, remainder)
	}
}

// distribute expands every inter-glyph gap equally and leaves half a
// gap at each line edge. With n glyphs there are n-1 interior gaps and
// two half gaps: total weight n.
func distribute(d *lineDraft, extra float64) float64 {
	n := len(d.glyphs)
	if n == 0 {
		return 0
	}
	unit := extra / float64(n)
	for i := 0; i < n-1; i++ {
		d.glyphs[i].Expanded += unit
	}
	// The trailing half gap needs no glyph expansion; it is the
	// leftover space after the last glyph.
	d.glyphs[n-1].Expanded += unit / 2
	return unit / 2
}
