package text

import (
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/uicore/style"
)

// resolveBidi computes the paragraph direction and per-rune embedding
// levels. With style.DirectionAuto the base direction comes from the
// first strong character (LTR when none).
func resolveBidi(runes []rune, base style.Direction) (baseRTL bool, levels []uint8) {
	levels = make([]uint8, len(runes))
	if len(runes) == 0 {
		return base == style.DirectionRTL, levels
	}

	var def bidi.Direction
	switch base {
	case style.DirectionRTL:
		def = bidi.RightToLeft
	case style.DirectionLTR:
		def = bidi.LeftToRight
	default:
		def = bidi.Neutral
	}

	var p bidi.Paragraph
	if _, err := p.SetString(string(runes), bidi.DefaultDirection(def)); err != nil {
		return base == style.DirectionRTL, levels
	}

	// Order must run before Direction: the paragraph builds its
	// ordering lazily and Direction reads it.
	ordering, err := p.Order()
	if err != nil {
		baseRTL = base == style.DirectionRTL
		if baseRTL {
			for i := range levels {
				levels[i] = 1
			}
		}
		return baseRTL, levels
	}
	baseRTL = p.Direction() == bidi.RightToLeft

	// run.Pos returns rune indices, end inclusive.
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		start, end := run.Pos()
		var level uint8
		if run.Direction() == bidi.RightToLeft {
			level = 1
		}
		for j := start; j <= end && j < len(levels); j++ {
			levels[j] = level
		}
	}
	return baseRTL, levels
}
