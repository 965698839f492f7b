package frame

import (
	"context"
	"sync/atomic"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/display"
	"github.com/gogpu/uicore/dom"
)

// HitResult is one hit-test match. Results are ordered front to back;
// the framework resolves tags to nodes for event dispatch.
type HitResult struct {
	Pipeline    dom.PipelineID
	Tag         dom.HitTag
	AnimationID uint64
}

// hitArea is a resolved input region: bounds in viewport space with
// every enclosing clip already applied.
type hitArea struct {
	bounds   uicore.Rect
	clip     uicore.Rect
	hasClip  bool
	tag      dom.HitTag
	tabIndex int
}

// HitTester answers point queries against one frame's display list.
// It is immutable after construction and safe for concurrent use.
type HitTester struct {
	pipeline dom.PipelineID
	areas    []hitArea // document order; later entries are in front
	anims    map[dom.HitTag]uint64
}

// NewHitTester extracts the hit-test areas of a display list,
// resolving scroll offsets and clips into viewport space. anims maps
// tags to animation ids carried through to results; nil is allowed.
func NewHitTester(list *display.List, pipeline dom.PipelineID, anims map[dom.HitTag]uint64) *HitTester {
	ht := &HitTester{pipeline: pipeline, anims: anims}

	type frameState struct {
		offset  uicore.Point
		clip    uicore.Rect
		hasClip bool
	}
	cur := frameState{}
	var stack []frameState
	push := func(clip uicore.Rect, scroll uicore.Point) {
		stack = append(stack, cur)
		screen := clip.Translate(uicore.Pt(-cur.offset.X, -cur.offset.Y))
		if cur.hasClip {
			cur.clip = cur.clip.Intersect(screen)
		} else {
			cur.clip = screen
			cur.hasClip = true
		}
		cur.offset = cur.offset.Add(scroll)
	}
	pop := func() {
		if len(stack) > 0 {
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
	}

	for _, it := range list.Items {
		switch v := it.(type) {
		case display.PushClip:
			push(v.Bounds, uicore.Point{})
		case display.PushScrollFrame:
			push(v.Bounds, v.Offset)
		case display.PopClip, display.PopScrollFrame:
			pop()
		case display.HitTestArea:
			ht.areas = append(ht.areas, hitArea{
				bounds:   v.Bounds.Translate(uicore.Pt(-cur.offset.X, -cur.offset.Y)),
				clip:     cur.clip,
				hasClip:  cur.hasClip,
				tag:      v.Tag,
				tabIndex: v.TabIndex,
			})
		}
	}
	return ht
}

// Hit returns the tags whose areas contain p, front to back.
func (ht *HitTester) Hit(p uicore.Point) []HitResult {
	var out []HitResult
	for i := len(ht.areas) - 1; i >= 0; i-- {
		a := &ht.areas[i]
		if !a.bounds.Contains(p) {
			continue
		}
		if a.hasClip && !a.clip.Contains(p) {
			continue
		}
		out = append(out, HitResult{
			Pipeline:    ht.pipeline,
			Tag:         a.tag,
			AnimationID: ht.anims[a.tag],
		})
	}
	return out
}

// Focusable returns the tags of tab-focusable areas in document
// order, for keyboard traversal.
func (ht *HitTester) Focusable() []dom.HitTag {
	var out []dom.HitTag
	for i := range ht.areas {
		if ht.areas[i].tabIndex != 0 {
			out = append(out, ht.areas[i].tag)
		}
	}
	return out
}

// AsyncHitTester serves hit queries against the most recently
// submitted frame. Queries run off the caller's goroutine the way the
// compositor answers them: the result arrives on a channel and the
// caller may wait with a context.
type AsyncHitTester struct {
	cur atomic.Pointer[HitTester]
}

// Update publishes the tester of a newly submitted frame.
func (a *AsyncHitTester) Update(ht *HitTester) { a.cur.Store(ht) }

// Query resolves p against the current frame. The returned channel
// receives exactly one result slice unless ctx is done first, in
// which case it is closed without a value. A query before any frame
// yields an empty result.
func (a *AsyncHitTester) Query(ctx context.Context, p uicore.Point) <-chan []HitResult {
	out := make(chan []HitResult, 1)
	go func() {
		defer close(out)
		ht := a.cur.Load()
		if ht == nil {
			out <- nil
			return
		}
		select {
		case out <- ht.Hit(p):
		case <-ctx.Done():
		}
	}()
	return out
}
