package text

import (
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
)

// Font is a sized font the engine measures with. All lengths are in
// pixels at the font's size. Implementations must be safe for
// concurrent use.
type Font interface {
	// Size returns the pixel size the metrics are scaled to.
	Size() float64
	// Ascent returns the distance from baseline to line top (positive).
	Ascent() float64
	// Descent returns the distance from baseline to line bottom
	// (negative, OpenType convention).
	Descent() float64
	// LineGap returns the extra leading between line boxes.
	LineGap() float64

	// GlyphID maps a rune to its glyph, reporting coverage.
	GlyphID(r rune) (GlyphID, bool)
	// AdvanceH returns the horizontal advance of a glyph.
	AdvanceH(g GlyphID) float64
	// AdvanceV returns the vertical advance of a glyph.
	AdvanceV(g GlyphID) float64

	// HyphenGlyph returns the glyph rendered at hyphenation breaks.
	HyphenGlyph() (GlyphID, bool)
	// KashidaGlyph returns the tatweel glyph for kashida
	// justification; ok=false degrades kashida to inter-word.
	KashidaGlyph() (GlyphID, bool)
}

// ShapeRequest is one same-font, same-direction, same-script piece of
// text handed to the provider's shaper.
type ShapeRequest struct {
	Text       []rune
	Start, End int

	Font     Font
	Script   language.Script
	Dir      di.Direction
	Language language.Language
}

// RawGlyph is a provider-shaped glyph before the engine annotates it.
type RawGlyph struct {
	GID      GlyphID
	Cluster  int // rune index into ShapeRequest.Text
	XAdvance float64
	YAdvance float64
	XOffset  float64
	YOffset  float64
}

// Provider resolves fonts and shapes runs. The engine calls it from
// the goroutine running layout; implementations must tolerate
// concurrent calls from independent layouts.
type Provider interface {
	// ResolveFont returns a sized font for the run style. Falling back
	// to any available face is preferred over failing: layout cannot
	// proceed without a font.
	ResolveFont(rs RunStyle) (Font, error)

	// Shape shapes one run. Cluster values are monotonic (descending
	// for RTL) and cover [Start, End).
	Shape(req ShapeRequest) []RawGlyph
}
