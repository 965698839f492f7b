// Package frame turns a display list into the artifacts one frame
// needs: picture cache slices, a tile grid with dirty-rect
// invalidation, a render-task graph scheduled into passes, an async
// hit tester and a compositor translation against a pluggable
// backend.
//
// The scene side produces immutable inputs (display list, layout
// result); this package owns the mutable cross-frame state (tile
// command buffers, previous-frame item hashes) and is driven by the
// render thread.
package frame

import "strings"

// RenderReasons is a bit-set of the causes that triggered a frame.
// An empty set means nothing changed and the frame is skipped.
type RenderReasons uint32

const (
	// ReasonSceneChange marks a rebuilt scene (new display list).
	ReasonSceneChange RenderReasons = 1 << iota
	// ReasonAnimatedProperty marks an animated value update.
	ReasonAnimatedProperty
	// ReasonResourceUpdate marks image or font resource changes.
	ReasonResourceUpdate
	// ReasonAsyncImage marks an async image decode completion.
	ReasonAsyncImage
	// ReasonClearResources marks resource eviction.
	ReasonClearResources
	// ReasonScroll marks a scroll offset change.
	ReasonScroll
	// ReasonResize marks a viewport resize.
	ReasonResize
	// ReasonWidget marks a host widget invalidation.
	ReasonWidget
	// ReasonTextureCacheFlush marks a texture cache flush.
	ReasonTextureCacheFlush
	// ReasonSnapshot marks a readback or screenshot request.
	ReasonSnapshot
	// ReasonVSync marks a display-driven refresh.
	ReasonVSync
	// ReasonConfigChange marks a renderer configuration change.
	ReasonConfigChange
)

var reasonNames = [...]string{
	"SceneChange",
	"AnimatedProperty",
	"ResourceUpdate",
	"AsyncImage",
	"ClearResources",
	"Scroll",
	"Resize",
	"Widget",
	"TextureCacheFlush",
	"Snapshot",
	"VSync",
	"ConfigChange",
}

// None reports whether no reason is set.
func (r RenderReasons) None() bool { return r == 0 }

// Has reports whether all bits in q are set.
func (r RenderReasons) Has(q RenderReasons) bool { return r&q == q }

// String returns the set reasons joined by "|", or "None".
func (r RenderReasons) String() string {
	if r == 0 {
		return "None"
	}
	var parts []string
	for i, name := range reasonNames {
		if r&(1<<uint(i)) != 0 {
			parts = append(parts, name)
		}
	}
	if parts == nil {
		return "Unknown"
	}
	return strings.Join(parts, "|")
}
