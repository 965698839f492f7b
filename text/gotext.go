package text

import (
	"fmt"
	"unicode"

	"github.com/gogpu/uicore/fonts"
)

// FontSystem adapts the real font stack (package fonts) to the
// engine's Provider interface. Safe for concurrent use.
type FontSystem struct {
	mgr    *fonts.Manager
	shaper *fonts.Shaper
}

// NewFontSystem wraps a font manager.
func NewFontSystem(mgr *fonts.Manager) *FontSystem {
	return &FontSystem{mgr: mgr, shaper: fonts.NewShaper()}
}

// ResolveFont implements Provider. The first loadable family wins; the
// fallback chain for shaping is built from the full family list.
func (s *FontSystem) ResolveFont(rs RunStyle) (Font, error) {
	families := rs.Families
	if len(families) == 0 {
		families = []string{"sans-serif"}
	}
	q := fonts.Query{Weight: rs.Weight, Style: rs.Style, Stretch: rs.Stretch}

	var face *fonts.Face
	var lastErr error
	for _, fam := range families {
		fq := q
		fq.Family = fam
		f, err := s.mgr.Load(fq)
		if err != nil {
			lastErr = err
			continue
		}
		face = f
		break
	}
	if face == nil {
		return nil, fmt.Errorf("text: no loadable family in %v: %w", families, lastErr)
	}

	chain := s.mgr.FallbackChain(families, q, ' ')
	if len(chain) == 0 {
		chain = []*fonts.Face{face}
	}
	return &sysFont{
		in:            s.mgr.Instance(face, rs.Size),
		chain:         chain,
		letterSpacing: rs.LetterSpacing,
		wordSpacing:   rs.WordSpacing,
	}, nil
}

// Shape implements Provider.
func (s *FontSystem) Shape(req ShapeRequest) []RawGlyph {
	sf, ok := req.Font.(*sysFont)
	if !ok || req.End <= req.Start {
		return nil
	}
	run := fonts.Run{
		Text:     req.Text,
		Start:    req.Start,
		End:      req.End,
		Size:     sf.in.Size,
		Script:   req.Script,
		Dir:      req.Dir,
		Language: req.Language,
	}
	glyphs := s.shaper.ShapeWithFallback(run, sf.chain)

	out := make([]RawGlyph, len(glyphs))
	for i, g := range glyphs {
		out[i] = RawGlyph{
			GID:      GlyphID(g.GID),
			Cluster:  g.Cluster,
			XAdvance: g.XAdvance,
			YAdvance: g.YAdvance,
			XOffset:  g.XOffset,
			YOffset:  g.YOffset,
		}
		if sf.letterSpacing != 0 {
			out[i].XAdvance += sf.letterSpacing
		}
		if sf.wordSpacing != 0 && unicode.IsSpace(runeAtCluster(req, g.Cluster)) {
			out[i].XAdvance += sf.wordSpacing
		}
	}
	return out
}

func runeAtCluster(req ShapeRequest, cluster int) rune {
	if cluster < 0 || cluster >= len(req.Text) {
		return 0
	}
	return req.Text[cluster]
}

// sysFont is a sized real font plus its fallback chain.
type sysFont struct {
	in            *fonts.Instance
	chain         []*fonts.Face
	letterSpacing float64
	wordSpacing   float64
}

func (f *sysFont) Size() float64    { return f.in.Size }
func (f *sysFont) Ascent() float64  { return f.in.Ascent() }
func (f *sysFont) Descent() float64 { return f.in.Descent() }
func (f *sysFont) LineGap() float64 { return f.in.LineGap() }

func (f *sysFont) GlyphID(r rune) (GlyphID, bool) {
	gid, ok := f.in.Face.GlyphID(r)
	return GlyphID(gid), ok
}

func (f *sysFont) AdvanceH(g GlyphID) float64 { return f.in.AdvanceH(fonts.GID(g)) }
func (f *sysFont) AdvanceV(g GlyphID) float64 { return f.in.AdvanceV(fonts.GID(g)) }

func (f *sysFont) HyphenGlyph() (GlyphID, bool) {
	gid, ok := f.in.Face.HyphenGlyph()
	return GlyphID(gid), ok
}

func (f *sysFont) KashidaGlyph() (GlyphID, bool) {
	gid, ok := f.in.Face.KashidaGlyph()
	return GlyphID(gid), ok
}
