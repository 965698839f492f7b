// Package fonts loads, caches and shapes fonts for the text engine.
//
// A Face is a parsed, size-independent font backed by go-text/typesetting.
// The underlying font.Font is read-only and safe for concurrent use; the
// per-call font.Face wrappers it hands to the shaper are not, so every
// query creates a fresh lightweight wrapper.
//
// The Manager resolves (family, weight, style, stretch) queries through a
// host-provided Loader first and the system font index (fontscan) second,
// caching parsed faces and interning sized instances so equality is
// pointer equality.
package fonts

import (
	"bytes"
	"fmt"

	"github.com/go-text/typesetting/font"
)

// Glyph ids as used by the shaper and the display list. Zero is the
// font's .notdef glyph.
type GID = font.GID

// Runes with dedicated metric roles in line breaking and justification.
const (
	runeHyphen      = '‐' // preferred hyphen
	runeHyphenMinus = '-' // fallback when U+2010 is not mapped
	runeKashida     = 'ـ' // Arabic tatweel
)

// Metrics are font-wide design metrics in font units. Descent follows
// the OpenType convention and is typically negative.
type Metrics struct {
	Ascent  float64
	Descent float64
	LineGap float64
}

// Face is a parsed font. It is safe for concurrent use.
type Face struct {
	fnt  *font.Font
	upem float64

	h Metrics
	v Metrics // vertical extents; falls back to horizontal when absent

	hyphen     GID
	hasHyphen  bool
	kashida    GID
	hasKashida bool
}

// ParseFace parses TTF/OTF (or a TTC member selected by index) font data.
func ParseFace(data []byte, index int) (*Face, error) {
	var parsed *font.Face
	if index > 0 {
		faces, err := font.ParseTTC(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("fonts: parse collection: %w", err)
		}
		if index >= len(faces) {
			return nil, fmt.Errorf("fonts: collection has %d faces, index %d requested", len(faces), index)
		}
		parsed = faces[index]
	} else {
		var err error
		parsed, err = font.ParseTTF(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("fonts: parse: %w", err)
		}
	}
	return newFace(parsed), nil
}

// newFace wraps an already parsed go-text face. The wrapper keeps only
// the thread-safe *font.Font and precomputes the metrics and special
// glyphs every text run needs.
func newFace(parsed *font.Face) *Face {
	f := &Face{fnt: parsed.Font}
	f.upem = float64(parsed.Upem())

	if ext, ok := parsed.FontHExtents(); ok {
		f.h = Metrics{
			Ascent:  float64(ext.Ascender),
			Descent: float64(ext.Descender),
			LineGap: float64(ext.LineGap),
		}
	} else {
		// Degenerate font with no usable hhea/OS2: approximate from upem.
		f.h = Metrics{Ascent: f.upem * 0.8, Descent: -f.upem * 0.2}
	}
	if ext, ok := parsed.FontVExtents(); ok {
		f.v = Metrics{
			Ascent:  float64(ext.Ascender),
			Descent: float64(ext.Descender),
			LineGap: float64(ext.LineGap),
		}
	} else {
		f.v = f.h
	}

	if gid, ok := parsed.NominalGlyph(runeHyphen); ok {
		f.hyphen, f.hasHyphen = gid, true
	} else if gid, ok := parsed.NominalGlyph(runeHyphenMinus); ok {
		f.hyphen, f.hasHyphen = gid, true
	}
	if gid, ok := parsed.NominalGlyph(runeKashida); ok {
		f.kashida, f.hasKashida = gid, true
	}
	return f
}

// wrapper returns a fresh font.Face for a single query or shaping call.
// font.Face is NOT safe for concurrent use; font.NewFace is cheap, it
// wraps the shared *font.Font and initializes per-instance caches.
func (f *Face) wrapper() *font.Face { return font.NewFace(f.fnt) }

// Upem returns units-per-em of the design grid.
func (f *Face) Upem() float64 { return f.upem }

// HMetrics returns horizontal design metrics in font units.
func (f *Face) HMetrics() Metrics { return f.h }

// VMetrics returns vertical design metrics in font units. When the font
// has no vertical header these equal HMetrics.
func (f *Face) VMetrics() Metrics { return f.v }

// HasGlyph reports whether the font maps r to a real glyph.
func (f *Face) HasGlyph(r rune) bool {
	_, ok := f.wrapper().NominalGlyph(r)
	return ok
}

// GlyphID returns the glyph mapped to r.
func (f *Face) GlyphID(r rune) (GID, bool) {
	return f.wrapper().NominalGlyph(r)
}

// AdvanceH returns the horizontal advance of gid in font units.
func (f *Face) AdvanceH(gid GID) float64 {
	return float64(f.wrapper().HorizontalAdvance(gid))
}

// AdvanceV returns the vertical advance of gid in font units. For fonts
// without vertical metrics this synthesizes ascent-descent, the same
// default vmtx-less renderers use.
func (f *Face) AdvanceV(gid GID) float64 {
	if adv := float64(f.wrapper().VerticalAdvance(gid)); adv != 0 {
		return adv
	}
	return f.v.Ascent - f.v.Descent
}

// HyphenGlyph returns the glyph used to materialize hyphenation breaks:
// U+2010 when mapped, else U+002D.
func (f *Face) HyphenGlyph() (GID, bool) { return f.hyphen, f.hasHyphen }

// KashidaGlyph returns the tatweel glyph (U+0640) used for kashida
// justification. Fonts without Arabic coverage report false and kashida
// justification degrades to inter-word.
func (f *Face) KashidaGlyph() (GID, bool) { return f.kashida, f.hasKashida }

// Scale converts a font-unit value to pixels at the given size.
func (f *Face) Scale(v, sizePx float64) float64 {
	if f.upem == 0 {
		return 0
	}
	return v * sizePx / f.upem
}

// Instance is a Face at a concrete pixel size. Instances are interned
// by the Manager, so hosts and caches may compare them by pointer.
type Instance struct {
	Face *Face
	Size float64 // pixels per em
}

// Ascent returns the scaled ascent in pixels.
func (in *Instance) Ascent() float64 { return in.Face.Scale(in.Face.h.Ascent, in.Size) }

// Descent returns the scaled descent in pixels (typically negative).
func (in *Instance) Descent() float64 { return in.Face.Scale(in.Face.h.Descent, in.Size) }

// LineGap returns the scaled line gap in pixels.
func (in *Instance) LineGap() float64 { return in.Face.Scale(in.Face.h.LineGap, in.Size) }

// LineHeight returns the default line height: ascent - descent + gap.
func (in *Instance) LineHeight() float64 {
	return in.Face.Scale(in.Face.h.Ascent-in.Face.h.Descent+in.Face.h.LineGap, in.Size)
}

// AdvanceH returns the scaled horizontal advance of gid in pixels.
func (in *Instance) AdvanceH(gid GID) float64 {
	return in.Face.Scale(in.Face.AdvanceH(gid), in.Size)
}

// AdvanceV returns the scaled vertical advance of gid in pixels.
func (in *Instance) AdvanceV(gid GID) float64 {
	return in.Face.Scale(in.Face.AdvanceV(gid), in.Size)
}
