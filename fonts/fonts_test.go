package fonts

import (
	"testing"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"golang.org/x/image/font/gofont/goregular"
)

func testFace(t *testing.T) *Face {
	t.Helper()
	f, err := ParseFace(goregular.TTF, 0)
	if err != nil {
		t.Fatalf("ParseFace(goregular): %v", err)
	}
	return f
}

func TestFaceMetrics(t *testing.T) {
	f := testFace(t)

	if f.Upem() <= 0 {
		t.Fatalf("Upem = %v, want > 0", f.Upem())
	}
	m := f.HMetrics()
	if m.Ascent <= 0 {
		t.Errorf("Ascent = %v, want > 0", m.Ascent)
	}
	if m.Descent >= 0 {
		t.Errorf("Descent = %v, want < 0", m.Descent)
	}
	if !f.HasGlyph('A') {
		t.Error("goregular must cover 'A'")
	}
	gid, ok := f.GlyphID('A')
	if !ok || gid == 0 {
		t.Fatalf("GlyphID('A') = (%v, %v)", gid, ok)
	}
	if adv := f.AdvanceH(gid); adv <= 0 {
		t.Errorf("AdvanceH('A') = %v, want > 0", adv)
	}
}

func TestHyphenGlyphFallsBackToMinus(t *testing.T) {
	f := testFace(t)
	gid, ok := f.HyphenGlyph()
	if !ok || gid == 0 {
		t.Fatalf("HyphenGlyph = (%v, %v); goregular maps at least U+002D", gid, ok)
	}
}

func TestInstanceScaling(t *testing.T) {
	f := testFace(t)
	in := Instance{Face: f, Size: f.Upem()} // 1 px per font unit

	if got, want := in.Ascent(), f.HMetrics().Ascent; got != want {
		t.Errorf("Ascent at upem size = %v, want %v", got, want)
	}
	half := Instance{Face: f, Size: f.Upem() / 2}
	if got, want := half.Ascent(), f.HMetrics().Ascent/2; got != want {
		t.Errorf("Ascent at half size = %v, want %v", got, want)
	}
	if in.LineHeight() <= in.Ascent() {
		t.Errorf("LineHeight %v must exceed ascent %v", in.LineHeight(), in.Ascent())
	}
}

func TestManagerCachesFaces(t *testing.T) {
	loads := 0
	m := NewManager(func(q Query) ([]byte, int, bool) {
		if q.Family != "Go" {
			return nil, 0, false
		}
		loads++
		return goregular.TTF, 0, true
	})

	q := Query{Family: "Go", Weight: 400}
	f1, err := m.Load(q)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f2, err := m.Load(q)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f1 != f2 {
		t.Error("repeated Load must return the cached face")
	}
	if loads != 1 {
		t.Errorf("loader called %d times, want 1", loads)
	}

	if _, err := m.Load(Query{Family: "NoSuchFamily"}); err == nil {
		t.Error("unknown family without system fonts must fail")
	}
}

func TestManagerInternsInstances(t *testing.T) {
	m := NewManager(func(Query) ([]byte, int, bool) { return goregular.TTF, 0, true })
	f, err := m.Load(Query{Family: "Go"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	a := m.Instance(f, 16)
	b := m.Instance(f, 16)
	c := m.Instance(f, 17)
	if a != b {
		t.Error("same (face, size) must intern to one instance")
	}
	if a == c {
		t.Error("different sizes must not share an instance")
	}
}

func TestShapeRunBasicLatin(t *testing.T) {
	f := testFace(t)
	s := NewShaper()

	text := []rune("Hello")
	glyphs := s.ShapeRun(Run{
		Text: text, Start: 0, End: len(text),
		Face: f, Size: 16,
		Script: language.Latin, Dir: di.DirectionLTR,
		Language: language.NewLanguage("en"),
	})
	if len(glyphs) != 5 {
		t.Fatalf("got %d glyphs, want 5", len(glyphs))
	}
	for i, g := range glyphs {
		if g.GID == 0 {
			t.Errorf("glyph %d: unexpected .notdef", i)
		}
		if g.XAdvance <= 0 {
			t.Errorf("glyph %d: XAdvance = %v, want > 0", i, g.XAdvance)
		}
		if g.Cluster != i {
			t.Errorf("glyph %d: cluster = %d, want %d", i, g.Cluster, i)
		}
	}
}

func TestShapeRunEmpty(t *testing.T) {
	s := NewShaper()
	if got := s.ShapeRun(Run{}); got != nil {
		t.Errorf("empty run shaped to %d glyphs, want none", len(got))
	}
}

func TestShapeWithFallbackKeepsNotdefWhenExhausted(t *testing.T) {
	f := testFace(t)
	s := NewShaper()

	// goregular has no CJK coverage; the single-face chain must keep
	// .notdef rather than dropping the cluster.
	text := []rune("a世b")
	glyphs := s.ShapeWithFallback(Run{
		Text: text, Start: 0, End: len(text),
		Size: 16, Script: language.Latin, Dir: di.DirectionLTR,
		Language: language.NewLanguage("en"),
	}, []*Face{f})
	if len(glyphs) != 3 {
		t.Fatalf("got %d glyphs, want 3", len(glyphs))
	}
	notdef := 0
	for _, g := range glyphs {
		if g.GID == 0 {
			notdef++
		}
	}
	if notdef != 1 {
		t.Errorf("got %d .notdef glyphs, want 1", notdef)
	}
}

func TestShapeWithFallbackUsesSecondFace(t *testing.T) {
	f := testFace(t)
	s := NewShaper()

	// Same face twice: every cluster the first face covers must come
	// from it, and the output must equal plain shaping.
	text := []rune("Hello world")
	run := Run{
		Text: text, Start: 0, End: len(text),
		Size: 16, Script: language.Latin, Dir: di.DirectionLTR,
		Language: language.NewLanguage("en"),
	}
	withChain := s.ShapeWithFallback(run, []*Face{f, f})
	run.Face = f
	plain := s.ShapeRun(run)
	if len(withChain) != len(plain) {
		t.Fatalf("chain shaping produced %d glyphs, plain %d", len(withChain), len(plain))
	}
	for i := range plain {
		if withChain[i] != plain[i] {
			t.Errorf("glyph %d differs: %+v vs %+v", i, withChain[i], plain[i])
		}
	}
}
