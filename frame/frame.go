package frame

import (
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/display"
	"github.com/gogpu/uicore/dom"
)

// Frame is the render thread's view of one frame: the display list it
// was built from plus the derived slices, classified tiles, scheduled
// task graph and hit tester.
type Frame struct {
	List      *display.List
	Slices    []Slice
	Tiles     []*Tile
	Graph     *Graph
	Passes    []Pass
	Composite TaskID
	HitTester *HitTester
	Reasons   RenderReasons
	Viewport  uicore.Rect
}

// Builder constructs frames, carrying the tile cache across calls so
// unchanged tiles skip rasterization.
type Builder struct {
	cache    *TileCache
	pipeline dom.PipelineID
}

// NewBuilder returns a frame builder for one document pipeline.
func NewBuilder(cfg TileConfig, pipeline dom.PipelineID) *Builder {
	return &Builder{cache: NewTileCache(cfg), pipeline: pipeline}
}

// Build assembles a frame from a validated display list. A nil frame
// with a nil error means nothing triggered rendering and the frame is
// skipped. An invalid list (unbalanced push/pop) drops the frame with
// the validation error.
func (b *Builder) Build(list *display.List, viewport uicore.Rect, background uicore.Color, reasons RenderReasons, anims map[dom.HitTag]uint64) (*Frame, error) {
	log := uicore.Logger()
	if reasons.None() {
		log.Debug("frame skipped, no render reasons")
		return nil, nil
	}
	if err := list.Validate(); err != nil {
		log.Warn("frame dropped", "err", err)
		return nil, err
	}

	slices := BuildSlices(list, background)
	tiles := b.cache.Update(list, slices, viewport)

	g := NewGraph()
	var compositeDeps []TaskID
	dirty := 0
	for i, t := range tiles {
		switch t.State {
		case TileOccluded:
			continue
		case TileValid:
			// The cached texture composites directly; no task needed.
			continue
		}
		dirty++
		t.Task = g.AddPicture(t.Bounds.Size(), i)

		if hasSubGraph(list, t.Buffer) {
			// Duplicate the tile through a resolve: the pre-effect
			// pixels become a readable input and a fresh task
			// receives the post-effect composition.
			resolve := g.AddResolve(t.Task)
			t.CompositeTask = g.Add(Task{
				Kind:     TaskPicture,
				Size:     t.Bounds.Size(),
				Location: LocationStatic,
				Deps:     []TaskID{resolve},
				Buffer:   i,
			})
			compositeDeps = append(compositeDeps, t.CompositeTask)
			continue
		}
		compositeDeps = append(compositeDeps, t.Task)
	}
	composite := g.AddComposite(viewport.Size(), compositeDeps)

	passes, err := g.AssignPasses()
	if err != nil {
		log.Warn("frame dropped", "err", err)
		return nil, err
	}

	log.Debug("frame built",
		"reasons", reasons.String(),
		"slices", len(slices),
		"tiles", len(tiles),
		"dirty", dirty,
		"passes", len(passes))

	return &Frame{
		List:      list,
		Slices:    slices,
		Tiles:     tiles,
		Graph:     g,
		Passes:    passes,
		Composite: composite,
		HitTester: NewHitTester(list, b.pipeline, anims),
		Reasons:   reasons,
		Viewport:  viewport,
	}, nil
}

// hasSubGraph reports whether a tile's buffer contains a primitive
// that needs an intermediate surface (a non-opaque stacking context).
func hasSubGraph(list *display.List, buf CommandBuffer) bool {
	for _, idx := range buf {
		if sc, ok := list.Items[idx].(display.PushStackingContext); ok && sc.Opacity < 1 {
			return true
		}
	}
	return false
}
