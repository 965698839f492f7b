package text

import (
	"unicode"

	"github.com/go-text/typesetting/language"

	"github.com/gogpu/uicore/style"
)

const (
	runeTatweel = 'ـ'
	runeNBSP    = ' '
	runeZWSP    = '​'
	runeSHY     = '­'
)

// classifyRune assigns the spacing/justification character class.
func classifyRune(r rune) CharClass {
	switch {
	case r == runeTatweel:
		return ClassKashida
	case r == runeNBSP || unicode.IsSpace(r):
		return ClassSpace
	case unicode.In(r, unicode.Mn, unicode.Me):
		return ClassCombining
	case isIdeographic(r):
		return ClassIdeograph
	default:
		return ClassOther
	}
}

// isIdeographic covers the CJK ranges that both break freely and stay
// upright in vertical flow.
func isIdeographic(r rune) bool {
	switch {
	case r >= 0x3040 && r <= 0x30FF: // kana
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK ext A
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // CJK unified
		return true
	case r >= 0xAC00 && r <= 0xD7AF: // hangul syllables
		return true
	case r >= 0xF900 && r <= 0xFAFF: // CJK compat
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK symbols
		return true
	case r >= 0xFF01 && r <= 0xFF60: // fullwidth forms
		return true
	}
	return false
}

// justifyPriorityFor ranks a rune as a justification insertion point.
// Kashida outranks spaces only inside Arabic-script text; spaces come
// next; letters are the last resort.
func justifyPriorityFor(r rune, class CharClass, script language.Script) JustifyPriority {
	switch class {
	case ClassCombining:
		return PriorityNone
	case ClassSpace:
		if r == runeNBSP {
			return PriorityNone
		}
		return PrioritySpace
	case ClassKashida:
		return PriorityKashida
	}
	if script == language.Arabic {
		return PriorityKashida
	}
	return PriorityLetter
}

// breakAfter reports a soft break opportunity after r given the next
// rune. Simplified UAX #14: after spaces and hyphens, and on either
// side of ideographs.
func breakAfter(r, next rune) bool {
	switch r {
	case ' ', '\t', runeZWSP:
		return true
	case '-', '‐', '–':
		// Keep digits glued across hyphens (ranges like 3-4).
		return !unicode.IsDigit(next)
	case runeNBSP:
		return false
	}
	if isIdeographic(r) || isIdeographic(next) {
		// No break before closing punctuation.
		return !isClosePunct(next)
	}
	return false
}

func isClosePunct(r rune) bool {
	switch r {
	case ')', ']', '}', ',', '.', ';', ':', '!', '?',
		'、', '。', '）', '，', '．', '」', '』':
		return true
	}
	return false
}

// verticalUpright reports whether r stays upright in mixed-orientation
// vertical flow (simplified Unicode Vertical_Orientation).
func verticalUpright(r rune) bool {
	return isIdeographic(r) || (r >= 0xFF61 && r <= 0xFF9F)
}

// resolveOrientation combines the writing mode, the text-orientation
// property and the character's own vertical behavior.
func resolveOrientation(r rune, wm style.WritingMode, to style.TextOrientation) Orientation {
	if !wm.IsVertical() {
		return OrientRotated // unused in horizontal flow
	}
	switch to {
	case style.TextOrientationUpright:
		return OrientUpright
	case style.TextOrientationSideways:
		return OrientRotated
	default:
		if verticalUpright(r) {
			return OrientUpright
		}
		return OrientRotated
	}
}

// detectScript returns the script of r, resolving common/inherited
// characters to the previous concrete script.
func detectScript(r rune, prev language.Script) language.Script {
	s := language.LookupScript(r)
	if s == language.Common || s == language.Inherited || s == language.Unknown {
		if prev != 0 {
			return prev
		}
		return language.Latin
	}
	return s
}
