package fonts

import (
	"log/slog"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/uicore"
)

// Glyph is one shaped glyph in run order. Advances and offsets are in
// pixels at the run's size; Cluster is the rune index into the run's
// source text (monotonic within a run, shared by glyphs of a cluster).
type Glyph struct {
	GID     GID
	Cluster int

	XAdvance float64
	YAdvance float64
	XOffset  float64
	YOffset  float64
}

// Run is a maximal same-font, same-direction piece of text to shape.
type Run struct {
	Text       []rune
	Start, End int // rune range of this run within Text

	Face     *Face
	Size     float64 // pixels per em
	Script   language.Script
	Dir      di.Direction
	Language language.Language
}

// Shaper turns runs into positioned glyphs via HarfBuzz-equivalent
// OpenType shaping. Safe for concurrent use: HarfbuzzShaper instances
// carry mutable buffers, so they are pooled rather than shared.
type Shaper struct {
	pool sync.Pool
}

// NewShaper returns a ready Shaper.
func NewShaper() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

// ShapeRun shapes one run against its face.
func (s *Shaper) ShapeRun(run Run) []Glyph {
	if run.End <= run.Start || run.Face == nil {
		return nil
	}

	input := shaping.Input{
		Text:      run.Text,
		RunStart:  run.Start,
		RunEnd:    run.End,
		Direction: run.Dir,
		Face:      run.Face.wrapper(),
		Size:      floatToFixed(run.Size),
		Script:    run.Script,
		Language:  run.Language,
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	return convertGlyphs(output.Glyphs, run.Dir)
}

// ShapeWithFallback shapes the run against a face chain. Clusters the
// primary face cannot cover (.notdef glyphs) are re-shaped, cluster
// aligned, against the next face in the chain; clusters no face covers
// keep the primary face's .notdef and are logged once per run.
func (s *Shaper) ShapeWithFallback(run Run, chain []*Face) []Glyph {
	if len(chain) == 0 {
		return s.ShapeRun(run)
	}
	run.Face = chain[0]
	glyphs := s.ShapeRun(run)
	if len(chain) == 1 {
		return s.warnNotdef(run, glyphs)
	}

	out := glyphs[:0:0]
	i := 0
	for i < len(glyphs) {
		if glyphs[i].GID != 0 {
			out = append(out, glyphs[i])
			i++
			continue
		}
		// Extend to the full cluster range of consecutive .notdef
		// glyphs. Cluster values bound the rune subrange to re-shape.
		j := i
		for j < len(glyphs) && glyphs[j].GID == 0 {
			j++
		}
		start, end := clusterRange(glyphs, i, j, run)
		sub := run
		sub.Start, sub.End = start, end
		out = append(out, s.ShapeWithFallback(sub, chain[1:])...)
		i = j
	}
	return s.warnNotdef(run, out)
}

// clusterRange returns the rune range covered by glyphs[i:j]. For RTL
// runs cluster values decrease, so both orders are handled.
func clusterRange(glyphs []Glyph, i, j int, run Run) (start, end int) {
	start, end = glyphs[i].Cluster, glyphs[i].Cluster
	for _, g := range glyphs[i:j] {
		if g.Cluster < start {
			start = g.Cluster
		}
		if g.Cluster > end {
			end = g.Cluster
		}
	}
	// The last cluster extends to the next cluster boundary or the
	// run end.
	next := run.End
	for _, g := range glyphs {
		if g.Cluster > end && g.Cluster < next {
			next = g.Cluster
		}
	}
	return start, next
}

func (s *Shaper) warnNotdef(run Run, glyphs []Glyph) []Glyph {
	for _, g := range glyphs {
		if g.GID == 0 {
			uicore.Logger().Warn("fonts: glyphs missing from fallback chain",
				slog.String("text", string(run.Text[run.Start:run.End])))
			break
		}
	}
	return glyphs
}

// floatToFixed converts a pixel size to 26.6 fixed point.
func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// fixedToFloat converts a 26.6 fixed point value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

// convertGlyphs lowers go-text output glyphs to run-order Glyphs with
// pixel advances. Vertical runs advance on Y, horizontal on X.
func convertGlyphs(glyphs []shaping.Glyph, dir di.Direction) []Glyph {
	if len(glyphs) == 0 {
		return nil
	}
	result := make([]Glyph, len(glyphs))
	for i, g := range glyphs {
		result[i] = Glyph{
			GID:     g.GlyphID,
			Cluster: g.TextIndex(),
			XOffset: fixedToFloat(g.XOffset),
			YOffset: fixedToFloat(g.YOffset),
		}
		if dir.IsVertical() {
			result[i].YAdvance = fixedToFloat(g.Advance)
		} else {
			result[i].XAdvance = fixedToFloat(g.Advance)
		}
	}
	return result
}
