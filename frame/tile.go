package frame

import (
	"hash/fnv"
	"math"
	"sort"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/display"
	"github.com/gogpu/uicore/style"
)

// TileConfig sets the tile grid geometry.
type TileConfig struct {
	// TileWidth and TileHeight are the fixed tile extent in logical
	// pixels.
	TileWidth  float64
	TileHeight float64

	// Margin extends the viewport on every side when deciding which
	// tiles to keep alive, so small scrolls hit already-rasterized
	// tiles.
	Margin float64
}

// DefaultTileConfig returns the production grid geometry.
func DefaultTileConfig() TileConfig {
	return TileConfig{TileWidth: 1024, TileHeight: 512, Margin: 256}
}

// TileKey addresses one tile: the owning slice, the grid cell in the
// slice's spatial frame, and the sub-slice the tile composites into.
type TileKey struct {
	Slice    SliceID
	X, Y     int32
	SubSlice uint8
}

// TileState is the per-frame classification of a tile.
type TileState uint8

const (
	// TileDirty needs (re-)rasterization this frame.
	TileDirty TileState = iota
	// TileValid is unchanged; its cached texture is reused.
	TileValid
	// TileOccluded is fully covered by opaque content in front and is
	// neither rasterized nor composited.
	TileOccluded
)

var tileStateNames = [...]string{
	TileDirty:    "Dirty",
	TileValid:    "Valid",
	TileOccluded: "Occluded",
}

// String returns the state name.
func (s TileState) String() string {
	if int(s) < len(tileStateNames) {
		return tileStateNames[s]
	}
	return "Unknown"
}

// CommandBuffer is the ordered list of primitive records for a single
// tile in a single frame, stored as indices into the display list.
type CommandBuffer []int

// Tile is one cell of a slice's grid. Bounds are in the slice's
// spatial frame (scrolling moves the viewport over the grid, not the
// grid itself, so scroll offsets never invalidate tiles).
type Tile struct {
	Key    TileKey
	Bounds uicore.Rect
	State  TileState

	// DirtyRect is the sub-region to re-rasterize, clipped to Bounds.
	// Zero when the tile is Valid or Occluded.
	DirtyRect uicore.Rect

	// Opaque is set when an opaque rectangle covers the whole tile,
	// making it an occluder for tiles behind it.
	Opaque bool

	// Task is the picture task rasterizing this tile's buffer.
	// CompositeTask is set iff the tile contains at least one
	// sub-graph primitive and composites through a resolve chain.
	Task          TaskID
	CompositeTask TaskID

	// Buffer holds the recorded primitives. Owned by the render
	// thread; the scene side refers to tiles by Key only.
	Buffer CommandBuffer
}

// itemRecord is the cached identity of one display item on one tile:
// a content hash for diffing plus the rect the item occupied.
// Structural items (push/pop pairs) have no rect of their own and
// dirty the whole tile when they change.
type itemRecord struct {
	index      int
	hash       uint64
	bounds     uicore.Rect
	structural bool
}

// TileCache owns the tile grids of all slices and carries per-tile
// item hashes across frames so invalidation needs no observers: the
// dirty rect falls out of diffing this frame's item keys against the
// previous frame's.
type TileCache struct {
	cfg   TileConfig
	tiles map[TileKey]*Tile
	prev  map[TileKey][]itemRecord
}

// NewTileCache returns an empty cache with the given grid geometry.
func NewTileCache(cfg TileConfig) *TileCache {
	if cfg.TileWidth <= 0 || cfg.TileHeight <= 0 {
		cfg = DefaultTileConfig()
	}
	return &TileCache{
		cfg:   cfg,
		tiles: make(map[TileKey]*Tile),
		prev:  make(map[TileKey][]itemRecord),
	}
}

// Update diffs the display list against the previous frame and
// returns the visible tiles in deterministic order (slice, sub-slice,
// row, column), each classified Dirty, Valid or Occluded. Dirty tiles
// carry a freshly recorded command buffer; Valid tiles keep the
// previous one. Tiles outside the viewport plus margin are dropped.
func (c *TileCache) Update(list *display.List, slices []Slice, viewport uicore.Rect) []*Tile {
	next := make(map[TileKey][]itemRecord)

	for si := range slices {
		s := &slices[si]
		if len(s.items) == 0 {
			continue
		}
		// Visibility is tested in the slice's spatial frame: scrolling
		// translates the viewport, not the tiles.
		visible := viewport.Inflate(c.cfg.Margin, c.cfg.Margin).Translate(s.scrollOffset)

		for _, own := range s.items {
			it := list.Items[own.Index]
			sub := own.SubSlice
			if sub > math.MaxUint8 {
				sub = math.MaxUint8
			}
			rec := itemRecord{index: own.Index, hash: hashItem(it)}
			if b, ok := itemBounds(it); ok {
				if !b.Intersects(visible) {
					continue
				}
				rec.bounds = b
				c.spread(next, s.ID, uint8(sub), b, rec) //nolint:gosec // clamped above
			} else {
				rec.structural = true
				c.spread(next, s.ID, uint8(sub), visible, rec) //nolint:gosec // clamped above
			}
		}
	}

	out := make([]*Tile, 0, len(next))
	for key, recs := range next {
		t := c.tiles[key]
		if t == nil {
			t = &Tile{Key: key, Bounds: c.tileBounds(key)}
			c.tiles[key] = t
		}
		t.Task = 0
		t.CompositeTask = 0

		hadBuffer := t.Buffer != nil
		dirty, ok := diffRecords(c.prev[key], recs, t.Bounds)
		switch {
		case !ok || !hadBuffer:
			t.State = TileDirty
			t.DirtyRect = t.Bounds
		case dirty.IsEmpty():
			t.State = TileValid
			t.DirtyRect = uicore.Rect{}
		default:
			t.State = TileDirty
			t.DirtyRect = dirty
		}
		// Indices refer to the current list even when the tile's
		// rasterized pixels are reused.
		t.Buffer = record(recs)
		t.Opaque = false
		for _, r := range recs {
			if v, ok := list.Items[r.index].(display.Rect); ok &&
				v.Color.IsOpaque() && v.Radii == (style.BorderRadii{}) &&
				r.bounds.ContainsRect(t.Bounds) {
				t.Opaque = true
				break
			}
		}
		out = append(out, t)
	}

	// Drop tiles that fell out of the kept region.
	for key := range c.tiles {
		if _, ok := next[key]; !ok {
			delete(c.tiles, key)
		}
	}
	c.prev = next

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Slice != b.Slice {
			return a.Slice < b.Slice
		}
		if a.SubSlice != b.SubSlice {
			return a.SubSlice < b.SubSlice
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	markOccluded(out, slices)
	return out
}

// spread appends rec to every tile the rect covers.
func (c *TileCache) spread(next map[TileKey][]itemRecord, slice SliceID, sub uint8, r uicore.Rect, rec itemRecord) {
	x0 := int32(math.Floor(r.X / c.cfg.TileWidth))
	y0 := int32(math.Floor(r.Y / c.cfg.TileHeight))
	x1 := int32(math.Ceil(r.MaxX() / c.cfg.TileWidth))
	y1 := int32(math.Ceil(r.MaxY() / c.cfg.TileHeight))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			key := TileKey{Slice: slice, X: x, Y: y, SubSlice: sub}
			next[key] = append(next[key], rec)
		}
	}
}

func (c *TileCache) tileBounds(key TileKey) uicore.Rect {
	return uicore.Rect{
		X: float64(key.X) * c.cfg.TileWidth,
		Y: float64(key.Y) * c.cfg.TileHeight,
		W: c.cfg.TileWidth,
		H: c.cfg.TileHeight,
	}
}

// diffRecords computes the dirty rect of a tile from the symmetric
// difference of item hashes. ok is false when there is no previous
// frame to diff against. A changed structural item dirties the whole
// tile.
func diffRecords(prev, cur []itemRecord, tile uicore.Rect) (uicore.Rect, bool) {
	if prev == nil {
		return uicore.Rect{}, false
	}
	counts := make(map[uint64]int, len(prev))
	for _, r := range prev {
		counts[r.hash]++
	}
	for _, r := range cur {
		counts[r.hash]--
	}

	var dirty uicore.Rect
	add := func(r itemRecord) uicore.Rect {
		if r.structural {
			return tile
		}
		return dirty.Union(r.bounds.Intersect(tile))
	}
	for _, r := range cur {
		if counts[r.hash] < 0 {
			counts[r.hash]++
			dirty = add(r)
		}
	}
	for _, r := range prev {
		if counts[r.hash] > 0 {
			counts[r.hash]--
			dirty = add(r)
		}
	}
	return dirty, true
}

// record extracts the command buffer from a tile's records, keeping
// document order.
func record(recs []itemRecord) CommandBuffer {
	buf := make(CommandBuffer, 0, len(recs))
	for _, r := range recs {
		buf = append(buf, r.index)
	}
	return buf
}

// markOccluded marks tiles fully covered by an opaque tile that
// composites in front of them. Front-ness follows composite order:
// later slices and higher sub-slices paint on top. Coverage is tested
// in screen space since slices scroll independently.
func markOccluded(tiles []*Tile, slices []Slice) {
	offset := func(id SliceID) uicore.Point {
		return slices[id].scrollOffset
	}
	for i, t := range tiles {
		if t.State == TileOccluded {
			continue
		}
		screen := t.Bounds.Translate(uicore.Pt(-offset(t.Key.Slice).X, -offset(t.Key.Slice).Y))
		for _, f := range tiles[i+1:] {
			if !f.Opaque {
				continue
			}
			if f.Key.Slice == t.Key.Slice && f.Key.SubSlice == t.Key.SubSlice {
				continue
			}
			fo := offset(f.Key.Slice)
			cover := f.Bounds.Translate(uicore.Pt(-fo.X, -fo.Y))
			if cover.ContainsRect(screen) {
				t.State = TileOccluded
				t.DirtyRect = uicore.Rect{}
				break
			}
		}
	}
}

// itemBounds returns the rect an item occupies, or ok=false for
// structural items that have no geometry of their own.
func itemBounds(it display.Item) (uicore.Rect, bool) {
	switch v := it.(type) {
	case display.Rect:
		return v.Bounds, true
	case display.Border:
		return v.Bounds, true
	case display.Text:
		return textBounds(v), true
	case display.Image:
		return v.Bounds, true
	case display.ExternalTexture:
		return v.Bounds, true
	case display.IFrame:
		return v.Bounds, true
	case display.HitTestArea:
		return v.Bounds, true
	case display.ScrollBar:
		return v.Bounds, true
	case display.SelectionRect:
		return v.Bounds, true
	case display.CursorRect:
		return v.Bounds, true
	case display.CombinedBorderRadius:
		return v.Bounds, true
	default:
		return uicore.Rect{}, false
	}
}

// textBounds computes a conservative box around a glyph run: glyph
// origins padded by the font size on every side. Exact ink extents
// are not needed for tiling.
func textBounds(t display.Text) uicore.Rect {
	if len(t.Glyphs) == 0 {
		return uicore.Rect{X: t.Origin.X, Y: t.Origin.Y}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	pad := 0.0
	for i := range t.Glyphs {
		g := &t.Glyphs[i]
		minX = math.Min(minX, g.X)
		minY = math.Min(minY, g.Y)
		maxX = math.Max(maxX, g.X)
		maxY = math.Max(maxY, g.Y)
		if g.Font != nil {
			pad = math.Max(pad, g.Font.Size())
		}
	}
	if pad == 0 {
		pad = 16
	}
	return uicore.Rect{
		X: t.Origin.X + minX - pad,
		Y: t.Origin.Y + minY - pad,
		W: maxX - minX + 2*pad,
		H: maxY - minY + 2*pad,
	}
}

// hashItem computes the invalidation key of a display item: the item
// type plus every field that affects its pixels. FNV-1a, matching the
// cache package hashers.
func hashItem(it display.Item) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	wu64 := func(v uint64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	wf := func(v float64) { wu64(math.Float64bits(v)) }
	wrect := func(r uicore.Rect) { wf(r.X); wf(r.Y); wf(r.W); wf(r.H) }
	wcolor := func(c uicore.Color) {
		wu64(uint64(c.R) | uint64(c.G)<<8 | uint64(c.B)<<16 | uint64(c.A)<<24)
	}

	wu64(uint64(it.Type()))
	switch v := it.(type) {
	case display.Rect:
		wrect(v.Bounds)
		wcolor(v.Color)
		wf(v.Radii.TopLeft)
		wf(v.Radii.TopRight)
		wf(v.Radii.BottomRight)
		wf(v.Radii.BottomLeft)
	case display.Border:
		wrect(v.Bounds)
		for _, e := range v.Edges {
			wf(e.Width)
			wu64(uint64(e.Style))
			wcolor(e.Color)
		}
	case display.Text:
		wf(v.Origin.X)
		wf(v.Origin.Y)
		wcolor(v.Color)
		for i := range v.Glyphs {
			g := &v.Glyphs[i]
			wu64(uint64(g.GID))
			wf(g.X)
			wf(g.Y)
		}
	case display.Image:
		wrect(v.Bounds)
		wu64(uint64(v.Handle))
	case display.ExternalTexture:
		wrect(v.Bounds)
		wu64(uint64(v.Handle))
	case display.IFrame:
		wrect(v.Bounds)
		wu64(uint64(v.Pipeline))
	case display.PushStackingContext:
		wf(v.Origin.X)
		wf(v.Origin.Y)
		wu64(uint64(int64(v.ZIndex))) //nolint:gosec // bit pattern only
		wf(v.Opacity)
	case display.PushClip:
		wrect(v.Bounds)
		wf(v.Radii.TopLeft)
		wf(v.Radii.TopRight)
		wf(v.Radii.BottomRight)
		wf(v.Radii.BottomLeft)
	case display.PushScrollFrame:
		wrect(v.Bounds)
		wf(v.ContentSize.Width)
		wf(v.ContentSize.Height)
	case display.HitTestArea:
		wrect(v.Bounds)
		wu64(uint64(v.Tag))
	case display.ScrollBar:
		wrect(v.Bounds)
		wu64(uint64(v.Orientation))
		wf(v.Opacity)
	case display.SelectionRect:
		wrect(v.Bounds)
		wcolor(v.Color)
	case display.CursorRect:
		wrect(v.Bounds)
		wcolor(v.Color)
	case display.CombinedBorderRadius:
		wrect(v.Bounds)
		wf(v.Radii.TopLeft)
		wf(v.Radii.TopRight)
		wf(v.Radii.BottomRight)
		wf(v.Radii.BottomLeft)
	}
	return h.Sum64()
}
