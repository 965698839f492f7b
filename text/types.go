// Package text implements shape-aware inline layout: bidi resolution,
// OpenType shaping, line breaking with hyphenation, justification
// (inter-word, inter-character, kashida, distribute), horizontal and
// vertical glyph positioning, exclusion-aware line flow and
// fragmentation across a chain of flow areas.
//
// Fonts enter through the Provider interface so the engine itself is
// deterministic and testable with fixed-metric fonts; the adapter over
// the real font stack lives in gotext.go.
package text

import (
	"github.com/go-text/typesetting/language"

	"github.com/gogpu/uicore"
)

// GlyphID identifies a glyph inside its font. Zero is .notdef.
type GlyphID uint32

// CharClass classifies the source character of a glyph for spacing and
// justification decisions.
type CharClass uint8

const (
	// ClassOther covers letters, digits and everything unlisted.
	ClassOther CharClass = iota
	// ClassSpace is a breaking or non-breaking space.
	ClassSpace
	// ClassCombining marks combining characters, which never receive
	// inter-character expansion.
	ClassCombining
	// ClassIdeograph covers CJK ideographs and kana.
	ClassIdeograph
	// ClassKashida is the Arabic tatweel itself.
	ClassKashida
)

var charClassNames = [...]string{
	ClassOther:     "other",
	ClassSpace:     "space",
	ClassCombining: "combining",
	ClassIdeograph: "ideograph",
	ClassKashida:   "kashida",
}

func (c CharClass) String() string {
	if int(c) < len(charClassNames) {
		return charClassNames[c]
	}
	return "unknown"
}

// JustifyPriority orders where justification slack is inserted first.
type JustifyPriority uint8

const (
	// PriorityNone marks glyphs that never stretch.
	PriorityNone JustifyPriority = iota
	// PriorityKashida marks positions eligible for tatweel insertion.
	PriorityKashida
	// PrioritySpace marks expandable spaces.
	PrioritySpace
	// PriorityLetter marks inter-letter expansion points.
	PriorityLetter
)

// Orientation is the resolved per-glyph orientation in vertical flow.
type Orientation uint8

const (
	// OrientRotated lays the glyph on its side (rotated 90 degrees
	// clockwise), advancing with its horizontal metrics.
	OrientRotated Orientation = iota
	// OrientUpright keeps the glyph upright, advancing with its
	// vertical metrics.
	OrientUpright
)

// ShapedGlyph is one glyph after shaping, before positioning.
type ShapedGlyph struct {
	GID  GlyphID
	Font Font

	// Advances and offsets in pixels. Horizontal flow consumes
	// XAdvance; vertical flow YAdvance (or XAdvance when rotated).
	XAdvance float64
	YAdvance float64
	XOffset  float64
	YOffset  float64

	// ClusterStart/ClusterEnd delimit the source rune range of the
	// glyph's cluster within the flattened item text.
	ClusterStart int
	ClusterEnd   int

	// Item is the index of the inline item that produced the glyph.
	Item int

	Script      language.Script
	Level       uint8 // bidi embedding level; odd = RTL
	Orientation Orientation
	Class       CharClass
	Priority    JustifyPriority

	// Expanded is extra width added by justification (kashida tatweels
	// carry their own advance instead).
	Expanded float64

	// SafeBreakAfter marks a position line breaking may cut without
	// re-shaping the run.
	SafeBreakAfter bool
}

// RTL reports whether the glyph sits at an odd bidi level.
func (g *ShapedGlyph) RTL() bool { return g.Level%2 == 1 }

// Advance returns the advance along the main axis.
func (g *ShapedGlyph) Advance(vertical bool) float64 {
	if vertical {
		if g.Orientation == OrientUpright {
			return g.YAdvance + g.Expanded
		}
		return g.XAdvance + g.Expanded
	}
	return g.XAdvance + g.Expanded
}

// PositionedGlyph is a glyph with its final pen position, in pixels
// relative to the layout origin.
type PositionedGlyph struct {
	ShapedGlyph
	X float64
	Y float64
}

// Bounds returns a conservative box around the glyph cell.
func (g *PositionedGlyph) Bounds() uicore.Rect {
	if g.Font == nil {
		return uicore.Rect{X: g.X, Y: g.Y}
	}
	asc, desc := g.Font.Ascent(), g.Font.Descent()
	return uicore.Rect{X: g.X, Y: g.Y - asc, W: g.XAdvance + g.Expanded, H: asc - desc}
}

// Line describes one laid-out line.
type Line struct {
	// Y is the top of the line box; Baseline the baseline offset from
	// the layout origin.
	Y        float64
	Baseline float64

	// X is the inline start of the line segment (exclusions shift it).
	X float64

	// GlyphStart/GlyphEnd index into the result's glyph slice.
	GlyphStart int
	GlyphEnd   int

	// RuneStart/RuneEnd delimit the consumed source rune range.
	RuneStart int
	RuneEnd   int

	// Width is the advance sum; Height the line box height.
	Width  float64
	Height float64

	// Hyphenated marks lines ended by an inserted hyphen glyph.
	Hyphenated bool

	// Hard marks lines ended by a forced break.
	Hard bool
}

// Result is a finished inline layout.
type Result struct {
	Glyphs []PositionedGlyph
	Lines  []Line

	// Size is the used content size: widest line extent by total
	// block advance.
	Size uicore.Size

	// Clamped is set when line-clamp truncated the content.
	Clamped bool

	// Overflowed is set when content exceeded the available block
	// size and a remainder exists for the next flow fragment.
	Overflowed bool

	// RemainderRunes is the rune offset where this area stopped
	// consuming content; the total rune count when everything fit.
	RemainderRunes int
}

// LineAt returns the index of the line containing glyph index gi, or -1.
func (r *Result) LineAt(gi int) int {
	for i := range r.Lines {
		if gi >= r.Lines[i].GlyphStart && gi < r.Lines[i].GlyphEnd {
			return i
		}
	}
	return -1
}
