package fonts

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/fontscan"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/style"
)

// Query selects a face from a family.
type Query struct {
	Family  string
	Weight  int // CSS scale, 100..900; 0 means 400
	Style   style.FontStyle
	Stretch style.FontStretch
}

// EffectiveWeight returns the weight with the regular default applied.
func (q Query) EffectiveWeight() int {
	if q.Weight == 0 {
		return 400
	}
	return q.Weight
}

// Loader supplies raw font data for a query. Hosts use it to register
// embedded or downloaded fonts; returning ok=false defers to the next
// resolution stage. faceIndex selects a member of a TTC collection.
type Loader func(q Query) (data []byte, faceIndex int, ok bool)

// Manager resolves queries to parsed faces and interns sized instances.
// It is safe for concurrent use; all state is behind one mutex because
// resolution is rare compared to shaping.
type Manager struct {
	mu        sync.Mutex
	loader    Loader
	system    *fontscan.FontMap
	faces     map[Query]*Face
	instances map[instanceKey]*Instance
	wrapped   map[*font.Font]*Face // faces adopted from the system map
}

type instanceKey struct {
	face *Face
	size float64
}

// NewManager returns a Manager resolving through the given loader.
// A nil loader is allowed; resolution then uses system fonts only.
func NewManager(loader Loader) *Manager {
	return &Manager{
		loader:    loader,
		faces:     make(map[Query]*Face),
		instances: make(map[instanceKey]*Instance),
		wrapped:   make(map[*font.Font]*Face),
	}
}

// EnableSystemFonts indexes the platform's installed fonts, caching the
// index under cacheDir. Queries the Loader cannot satisfy fall through
// to this index.
func (m *Manager) EnableSystemFonts(cacheDir string) error {
	fm := fontscan.NewFontMap(nil)
	if err := fm.UseSystemFonts(cacheDir); err != nil {
		return fmt.Errorf("fonts: system index: %w", err)
	}
	m.mu.Lock()
	m.system = fm
	m.mu.Unlock()
	return nil
}

// Load resolves a query to a Face. Results are cached per query, so
// repeated loads return the same pointer.
func (m *Manager) Load(q Query) (*Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.faces[q]; ok {
		return f, nil
	}

	f, err := m.resolveLocked(q)
	if err != nil {
		return nil, err
	}
	m.faces[q] = f
	return f, nil
}

// resolveLocked tries the host loader, then the system index.
func (m *Manager) resolveLocked(q Query) (*Face, error) {
	if m.loader != nil {
		if data, index, ok := m.loader(q); ok {
			f, err := ParseFace(data, index)
			if err != nil {
				return nil, fmt.Errorf("fonts: %q: %w", q.Family, err)
			}
			return f, nil
		}
	}
	if m.system != nil {
		m.system.SetQuery(fontscan.Query{
			Families: []string{q.Family},
			Aspect:   toAspect(q),
		})
		// Resolve against a neutral rune; the fallback chain handles
		// per-cluster coverage later.
		if parsed := m.system.ResolveFace(' '); parsed != nil {
			return m.adoptLocked(parsed), nil
		}
	}
	return nil, fmt.Errorf("fonts: no face for family %q", q.Family)
}

// adoptLocked wraps a face produced by the system map, deduplicating on
// the underlying *font.Font so distinct queries hitting the same file
// share one Face.
func (m *Manager) adoptLocked(parsed *font.Face) *Face {
	if f, ok := m.wrapped[parsed.Font]; ok {
		return f
	}
	f := newFace(parsed)
	m.wrapped[parsed.Font] = f
	return f
}

// Instance returns the interned instance of face at sizePx.
func (m *Manager) Instance(face *Face, sizePx float64) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := instanceKey{face: face, size: sizePx}
	if in, ok := m.instances[key]; ok {
		return in
	}
	in := &Instance{Face: face, Size: sizePx}
	m.instances[key] = in
	return in
}

// FallbackChain builds the face list shaping walks when the primary
// face misses glyphs: each requested family in order, then a
// script-aware pick from the system index for the given sample rune.
// Families that resolve to an already present face are skipped.
func (m *Manager) FallbackChain(families []string, q Query, sample rune) []*Face {
	var chain []*Face
	seen := make(map[*Face]bool)
	add := func(f *Face) {
		if f != nil && !seen[f] {
			seen[f] = true
			chain = append(chain, f)
		}
	}

	for _, fam := range families {
		fq := q
		fq.Family = fam
		f, err := m.Load(fq)
		if err != nil {
			uicore.Logger().Debug("fonts: family unavailable",
				slog.String("family", fam), slog.Any("error", err))
			continue
		}
		add(f)
	}

	m.mu.Lock()
	if m.system != nil {
		m.system.SetQuery(fontscan.Query{Aspect: toAspect(q)})
		if parsed := m.system.ResolveFace(sample); parsed != nil {
			add(m.adoptLocked(parsed))
		}
	}
	m.mu.Unlock()
	return chain
}

// toAspect maps our style enums to fontscan's selection aspect.
func toAspect(q Query) font.Aspect {
	a := font.Aspect{Weight: font.Weight(q.EffectiveWeight())}
	switch q.Style {
	case style.FontStyleItalic, style.FontStyleOblique:
		a.Style = font.StyleItalic
	default:
		a.Style = font.StyleNormal
	}
	a.Stretch = stretchRatios[stretchClass(q.Stretch)]
	return a
}

// stretchRatios maps the usWidthClass 1..9 scale to fontscan's ratio
// representation. Index 0 is unused.
var stretchRatios = [...]font.Stretch{
	0,
	font.StretchUltraCondensed,
	font.StretchExtraCondensed,
	font.StretchCondensed,
	font.StretchSemiCondensed,
	font.StretchNormal,
	font.StretchSemiExpanded,
	font.StretchExpanded,
	font.StretchExtraExpanded,
	font.StretchUltraExpanded,
}

func stretchClass(s style.FontStretch) int {
	if s < 1 || s > 9 {
		return int(style.FontStretchNormal)
	}
	return int(s)
}
