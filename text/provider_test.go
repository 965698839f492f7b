package text

import (
	"math"
)

// mockFont has fixed per-rune advances so every expectation in the
// tests is exact.
type mockFont struct {
	size     float64
	asc      float64
	desc     float64
	advances map[rune]float64
	defAdv   float64

	hyphenAdv  float64
	kashidaAdv float64
	noKashida  bool
}

func newMockFont() *mockFont {
	return &mockFont{
		size:       16,
		asc:        12,
		desc:       -4,
		defAdv:     10,
		hyphenAdv:  5,
		kashidaAdv: 10,
		advances:   map[rune]float64{},
	}
}

func (f *mockFont) Size() float64    { return f.size }
func (f *mockFont) Ascent() float64  { return f.asc }
func (f *mockFont) Descent() float64 { return f.desc }
func (f *mockFont) LineGap() float64 { return 0 }

func (f *mockFont) GlyphID(r rune) (GlyphID, bool) { return GlyphID(r), true } //nolint:gosec // test font maps gid = rune

func (f *mockFont) advanceOf(r rune) float64 {
	if a, ok := f.advances[r]; ok {
		return a
	}
	return f.defAdv
}

func (f *mockFont) AdvanceH(g GlyphID) float64 {
	switch rune(g) {
	case '-':
		return f.hyphenAdv
	case runeTatweel:
		return f.kashidaAdv
	}
	return f.advanceOf(rune(g))
}

func (f *mockFont) AdvanceV(g GlyphID) float64 { return f.size }

func (f *mockFont) HyphenGlyph() (GlyphID, bool) { return GlyphID('-'), true }

func (f *mockFont) KashidaGlyph() (GlyphID, bool) {
	if f.noKashida {
		return 0, false
	}
	return GlyphID(runeTatweel), true
}

// mockProvider shapes one glyph per rune in logical order.
type mockProvider struct {
	font *mockFont
}

func newMockProvider() *mockProvider { return &mockProvider{font: newMockFont()} }

func (p *mockProvider) ResolveFont(rs RunStyle) (Font, error) {
	if rs.Size != 0 && rs.Size != p.font.size {
		clone := *p.font
		clone.size = rs.Size
		clone.asc = rs.Size * 0.75
		clone.desc = -rs.Size * 0.25
		return &clone, nil
	}
	return p.font, nil
}

func (p *mockProvider) Shape(req ShapeRequest) []RawGlyph {
	f := req.Font.(*mockFont)
	out := make([]RawGlyph, 0, req.End-req.Start)
	for i := req.Start; i < req.End; i++ {
		out = append(out, RawGlyph{
			GID:      GlyphID(req.Text[i]),
			Cluster:  i,
			XAdvance: f.advanceOf(req.Text[i]),
		})
	}
	return out
}

// mockHyphenator returns fixed split offsets per word.
type mockHyphenator struct {
	words map[string][]int
}

func (h *mockHyphenator) Opportunities(word []rune) []int {
	return h.words[string(word)]
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
