package frame

import (
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/display"
)

// SliceID identifies a picture cache slice within one frame.
type SliceID uint32

// SliceFlags carries per-slice compositing hints.
type SliceFlags uint8

const (
	// SliceOpaque marks a slice whose background fully covers its
	// tiles, so tiles behind it can be occlusion-culled.
	SliceOpaque SliceFlags = 1 << iota
	// SliceScrollable marks a slice bound to a scroll frame.
	SliceScrollable
)

// sliceItem is one display item owned by a slice, tagged with the
// sub-slice it composites into. Sub-slice indices advance whenever a
// compositor surface (external texture, nested pipeline) splits the
// slice, so content painted after the surface stays in front of it.
type sliceItem struct {
	Index    int // into display.List.Items
	SubSlice int
}

// Slice is a picture cache slice: a group of display items that share
// a spatial coordinate frame and composite as a unit. Slices are
// numbered in document order; slice 0 holds the root content and each
// scroll frame opens its own slice pinned to that frame's spatial
// node.
type Slice struct {
	ID              SliceID
	SpatialNode     display.ScrollID // 0 for the root spatial node
	BackgroundColor uicore.Color
	SharedClipNode  display.ClipID // innermost clip at slice start, 0 if none
	Flags           SliceFlags

	// Compositor surface bookkeeping, used to size backend resources
	// before rasterization starts.
	ImageSurfaceCount    int
	YUVImageSurfaceCount int

	items        []sliceItem
	subSliceMax  int
	scrollOffset uicore.Point
}

// Items returns the indices of the display items this slice owns, in
// document order.
func (s *Slice) Items() []sliceItem { return s.items }

// SubSlices returns the number of sub-slices (at least 1 when the
// slice owns any items).
func (s *Slice) SubSlices() int {
	if len(s.items) == 0 {
		return 0
	}
	return s.subSliceMax + 1
}

// BuildSlices partitions a display list into picture cache slices.
// Content outside any scroll frame accumulates into slice 0; every
// scroll frame opens a dedicated slice spanning its items. Nested
// scroll frames stay inside their parent's slice: only the outermost
// frame establishes a spatial node worth caching separately.
func BuildSlices(list *display.List, background uicore.Color) []Slice {
	root := Slice{ID: 0, BackgroundColor: background}
	if background.IsOpaque() {
		root.Flags |= SliceOpaque
	}
	slices := []Slice{root}

	cur := 0 // index into slices receiving items
	scrollDepth := 0
	var clipStack []display.ClipID

	for i, it := range list.Items {
		switch v := it.(type) {
		case display.PushScrollFrame:
			scrollDepth++
			if scrollDepth == 1 {
				s := Slice{
					ID:           SliceID(len(slices)), //nolint:gosec // slice count is small
					SpatialNode:  v.ID,
					Flags:        SliceScrollable,
					scrollOffset: v.Offset,
				}
				if len(clipStack) > 0 {
					s.SharedClipNode = clipStack[len(clipStack)-1]
				}
				slices = append(slices, s)
				cur = len(slices) - 1
			}
		case display.PopScrollFrame:
			scrollDepth--
			if scrollDepth == 0 {
				// The pop closes the scroll slice; it still belongs
				// to it.
				s := &slices[cur]
				s.items = append(s.items, sliceItem{Index: i, SubSlice: s.subSliceMax})
				cur = 0
				continue
			}
		case display.PushClip:
			clipStack = append(clipStack, v.ID)
		case display.PopClip:
			if len(clipStack) > 0 {
				clipStack = clipStack[:len(clipStack)-1]
			}
		}

		s := &slices[cur]
		switch it.(type) {
		case display.Image:
			s.ImageSurfaceCount++
		case display.ExternalTexture:
			// External textures composite as their own surface,
			// typically YUV video planes.
			s.YUVImageSurfaceCount++
			s.items = append(s.items, sliceItem{Index: i, SubSlice: s.subSliceMax})
			s.subSliceMax++
			continue
		case display.IFrame:
			s.items = append(s.items, sliceItem{Index: i, SubSlice: s.subSliceMax})
			s.subSliceMax++
			continue
		}
		s.items = append(s.items, sliceItem{Index: i, SubSlice: s.subSliceMax})
	}
	return slices
}
