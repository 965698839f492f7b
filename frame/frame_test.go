package frame

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/display"
	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/idtree"
)

func TestRenderReasonsString(t *testing.T) {
	tests := []struct {
		r    RenderReasons
		want string
	}{
		{0, "None"},
		{ReasonSceneChange, "SceneChange"},
		{ReasonSceneChange | ReasonResize, "SceneChange|Resize"},
		{ReasonScroll | ReasonVSync, "Scroll|VSync"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("String(%#x) = %q, want %q", uint32(tt.r), got, tt.want)
		}
	}
	if !(ReasonSceneChange | ReasonResize).Has(ReasonResize) {
		t.Error("Has(Resize) = false")
	}
	if (ReasonSceneChange).Has(ReasonResize) {
		t.Error("Has(Resize) = true for SceneChange only")
	}
}

func testCfg() TileConfig {
	return TileConfig{TileWidth: 100, TileHeight: 100, Margin: 0}
}

func opaqueRect(b uicore.Rect, c uicore.Color) display.Rect {
	return display.Rect{Bounds: b, Color: c}
}

func TestTileValidOnUnchangedFrame(t *testing.T) {
	list := &display.List{Items: []display.Item{
		opaqueRect(uicore.Rect{X: 0, Y: 0, W: 50, H: 50}, uicore.RGB(10, 0, 0)),
	}}
	viewport := uicore.Rect{W: 100, H: 100}
	cache := NewTileCache(testCfg())
	slices := BuildSlices(list, uicore.Color{})

	tiles := cache.Update(list, slices, viewport)
	if len(tiles) != 1 {
		t.Fatalf("tiles = %d, want 1", len(tiles))
	}
	if tiles[0].State != TileDirty {
		t.Fatalf("first frame state = %v, want Dirty", tiles[0].State)
	}
	if tiles[0].DirtyRect != tiles[0].Bounds {
		t.Errorf("first frame dirty = %+v, want full tile", tiles[0].DirtyRect)
	}
	if len(tiles[0].Buffer) != 1 {
		t.Errorf("buffer = %v, want one record", tiles[0].Buffer)
	}

	tiles = cache.Update(list, slices, viewport)
	if tiles[0].State != TileValid {
		t.Errorf("second frame state = %v, want Valid", tiles[0].State)
	}
	if !tiles[0].DirtyRect.IsEmpty() {
		t.Errorf("valid tile dirty = %+v", tiles[0].DirtyRect)
	}
}

func TestTileDirtyRectFromItemDiff(t *testing.T) {
	still := opaqueRect(uicore.Rect{X: 0, Y: 0, W: 5, H: 5}, uicore.RGB(1, 0, 0))
	before := &display.List{Items: []display.Item{
		still,
		opaqueRect(uicore.Rect{X: 10, Y: 10, W: 20, H: 20}, uicore.RGB(2, 0, 0)),
	}}
	after := &display.List{Items: []display.Item{
		still,
		opaqueRect(uicore.Rect{X: 10, Y: 60, W: 20, H: 20}, uicore.RGB(2, 0, 0)),
	}}
	viewport := uicore.Rect{W: 100, H: 100}
	cache := NewTileCache(testCfg())

	cache.Update(before, BuildSlices(before, uicore.Color{}), viewport)
	tiles := cache.Update(after, BuildSlices(after, uicore.Color{}), viewport)

	if tiles[0].State != TileDirty {
		t.Fatalf("state = %v, want Dirty", tiles[0].State)
	}
	want := uicore.Rect{X: 10, Y: 10, W: 20, H: 70}
	if tiles[0].DirtyRect != want {
		t.Errorf("dirty = %+v, want %+v", tiles[0].DirtyRect, want)
	}
}

func TestUntouchedTileStaysValid(t *testing.T) {
	left := opaqueRect(uicore.Rect{X: 0, Y: 0, W: 30, H: 30}, uicore.RGB(1, 0, 0))
	before := &display.List{Items: []display.Item{
		left,
		opaqueRect(uicore.Rect{X: 150, Y: 0, W: 20, H: 20}, uicore.RGB(2, 0, 0)),
	}}
	after := &display.List{Items: []display.Item{
		left,
		opaqueRect(uicore.Rect{X: 150, Y: 40, W: 20, H: 20}, uicore.RGB(2, 0, 0)),
	}}
	viewport := uicore.Rect{W: 200, H: 100}
	cache := NewTileCache(testCfg())

	cache.Update(before, BuildSlices(before, uicore.Color{}), viewport)
	tiles := cache.Update(after, BuildSlices(after, uicore.Color{}), viewport)

	if len(tiles) != 2 {
		t.Fatalf("tiles = %d, want 2", len(tiles))
	}
	if tiles[0].State != TileValid {
		t.Errorf("left tile state = %v, want Valid", tiles[0].State)
	}
	if tiles[1].State != TileDirty {
		t.Errorf("right tile state = %v, want Dirty", tiles[1].State)
	}
	want := uicore.Rect{X: 150, Y: 0, W: 20, H: 60}
	if tiles[1].DirtyRect != want {
		t.Errorf("right dirty = %+v, want %+v", tiles[1].DirtyRect, want)
	}
}

func TestOpaqueFrontTileOccludesBack(t *testing.T) {
	list := &display.List{Items: []display.Item{
		opaqueRect(uicore.Rect{X: 10, Y: 10, W: 20, H: 20}, uicore.RGB(1, 0, 0)),
		display.PushScrollFrame{
			ID:          1,
			Bounds:      uicore.Rect{W: 100, H: 100},
			ContentSize: uicore.Size{Width: 100, Height: 100},
		},
		opaqueRect(uicore.Rect{W: 100, H: 100}, uicore.RGB(0, 0, 0)),
		display.PopScrollFrame{},
	}}
	viewport := uicore.Rect{W: 100, H: 100}
	cache := NewTileCache(testCfg())

	tiles := cache.Update(list, BuildSlices(list, uicore.Color{}), viewport)
	if len(tiles) != 2 {
		t.Fatalf("tiles = %d, want 2", len(tiles))
	}
	back, front := tiles[0], tiles[1]
	if back.Key.Slice != 0 || front.Key.Slice != 1 {
		t.Fatalf("tile order: %+v, %+v", back.Key, front.Key)
	}
	if !front.Opaque {
		t.Error("front tile not marked opaque")
	}
	if back.State != TileOccluded {
		t.Errorf("back tile state = %v, want Occluded", back.State)
	}
	if front.State != TileDirty {
		t.Errorf("front tile state = %v, want Dirty", front.State)
	}
}

func TestBuildSlicesPartition(t *testing.T) {
	list := &display.List{Items: []display.Item{
		opaqueRect(uicore.Rect{W: 10, H: 10}, uicore.RGB(1, 0, 0)),
		display.PushScrollFrame{ID: 7, Bounds: uicore.Rect{W: 100, H: 50}},
		display.Image{Bounds: uicore.Rect{W: 20, H: 20}, Handle: 3},
		display.PopScrollFrame{},
	}}

	slices := BuildSlices(list, uicore.RGB(255, 255, 255))
	if len(slices) != 2 {
		t.Fatalf("slices = %d, want 2", len(slices))
	}
	root, scroll := &slices[0], &slices[1]
	if root.Flags&SliceOpaque == 0 {
		t.Error("opaque background did not set SliceOpaque")
	}
	if len(root.Items()) != 1 {
		t.Errorf("root items = %d, want 1", len(root.Items()))
	}
	if scroll.SpatialNode != 7 {
		t.Errorf("spatial node = %d, want 7", scroll.SpatialNode)
	}
	if scroll.Flags&SliceScrollable == 0 {
		t.Error("scroll slice missing SliceScrollable")
	}
	if scroll.ImageSurfaceCount != 1 {
		t.Errorf("image surfaces = %d, want 1", scroll.ImageSurfaceCount)
	}
	if len(scroll.Items()) != 3 {
		t.Errorf("scroll items = %d, want 3", len(scroll.Items()))
	}
}

func TestPassAssignmentFollowsDependencies(t *testing.T) {
	g := NewGraph()
	p := g.AddPicture(uicore.Size{Width: 100, Height: 100}, 0)
	r := g.AddResolve(p)
	q := g.Add(Task{Kind: TaskPicture, Size: uicore.Size{Width: 100, Height: 100}, Location: LocationStatic, Deps: []TaskID{r}})
	c := g.AddComposite(uicore.Size{Width: 100, Height: 100}, []TaskID{q})

	passes, err := g.AssignPasses()
	if err != nil {
		t.Fatalf("AssignPasses: %v", err)
	}
	if len(passes) != 4 {
		t.Fatalf("passes = %d, want 4", len(passes))
	}
	order := []TaskID{p, r, q, c}
	for i, id := range order {
		if len(passes[i].Tasks) != 1 || passes[i].Tasks[0] != id {
			t.Errorf("pass %d = %v, want [%d]", i, passes[i].Tasks, id)
		}
	}
}

func TestCycleDetection(t *testing.T) {
	g := NewGraph()
	g.Add(Task{Kind: TaskBlur, Deps: []TaskID{2}})
	g.Add(Task{Kind: TaskBlur, Deps: []TaskID{1}})
	if _, err := g.AssignPasses(); !errors.Is(err, ErrCycle) {
		t.Fatalf("err = %v, want ErrCycle", err)
	}
}

func TestTemporariesFreedAfterLastConsumer(t *testing.T) {
	g := NewGraph()
	a := g.Add(Task{Kind: TaskPicture, Size: uicore.Size{Width: 64, Height: 64}})
	b := g.AddBlur(a, 4)
	g.AddComposite(uicore.Size{Width: 100, Height: 100}, []TaskID{b})

	passes, err := g.AssignPasses()
	if err != nil {
		t.Fatalf("AssignPasses: %v", err)
	}
	if len(passes) != 3 {
		t.Fatalf("passes = %d, want 3", len(passes))
	}
	if len(passes[1].Freed) != 1 || passes[1].Freed[0] != a {
		t.Errorf("pass 1 freed = %v, want [%d]", passes[1].Freed, a)
	}
	if len(passes[2].Freed) != 1 || passes[2].Freed[0] != b {
		t.Errorf("pass 2 freed = %v, want [%d]", passes[2].Freed, b)
	}
}

func TestTargetPackingByFormat(t *testing.T) {
	g := NewGraph()
	blurIn := g.Add(Task{Kind: TaskPicture, Size: uicore.Size{Width: 64, Height: 64}})
	g.AddBlur(blurIn, 2)
	g.AddClipMask(uicore.Size{Width: 32, Height: 32})

	passes, err := g.AssignPasses()
	if err != nil {
		t.Fatalf("AssignPasses: %v", err)
	}
	// Pass 0 holds the dynamic picture and the clip mask: two targets,
	// one per format.
	if len(passes[0].Targets) != 2 {
		t.Fatalf("pass 0 targets = %d, want 2", len(passes[0].Targets))
	}
	formats := map[gputypes.TextureFormat]bool{}
	for _, tg := range passes[0].Targets {
		formats[tg.Format] = true
	}
	if !formats[gputypes.TextureFormatRGBA8Unorm] || !formats[gputypes.TextureFormatR8Unorm] {
		t.Errorf("formats = %v, want RGBA8 and R8", formats)
	}
}

func TestSharedTargetPacksSideBySide(t *testing.T) {
	g := NewGraph()
	a := g.Add(Task{Kind: TaskPicture, Size: uicore.Size{Width: 100, Height: 50}})
	b := g.Add(Task{Kind: TaskPicture, Size: uicore.Size{Width: 60, Height: 40}})

	passes, err := g.AssignPasses()
	if err != nil {
		t.Fatalf("AssignPasses: %v", err)
	}
	if len(passes[0].Targets) != 1 {
		t.Fatalf("targets = %d, want 1", len(passes[0].Targets))
	}
	tg := passes[0].Targets[0]
	if len(tg.Allocs) != 2 {
		t.Fatalf("allocs = %d, want 2", len(tg.Allocs))
	}
	if tg.Allocs[0].Task != a || tg.Allocs[1].Task != b {
		t.Errorf("alloc order = %+v", tg.Allocs)
	}
	if tg.Allocs[1].Rect.X != 100 {
		t.Errorf("second alloc at X=%v, want 100", tg.Allocs[1].Rect.X)
	}
	if tg.Size.Width != 160 || tg.Size.Height != 50 {
		t.Errorf("target size = %+v", tg.Size)
	}
}

func TestSubGraphDuplicatesTileThroughResolve(t *testing.T) {
	list := &display.List{Items: []display.Item{
		display.PushStackingContext{Opacity: 0.5},
		opaqueRect(uicore.Rect{W: 50, H: 50}, uicore.RGB(1, 0, 0)),
		display.PopStackingContext{},
	}}
	b := NewBuilder(testCfg(), 1)

	f, err := b.Build(list, uicore.Rect{W: 100, H: 100}, uicore.Color{}, ReasonSceneChange, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(f.Tiles) != 1 {
		t.Fatalf("tiles = %d, want 1", len(f.Tiles))
	}
	tile := f.Tiles[0]
	if tile.CompositeTask == 0 {
		t.Fatal("sub-graph tile has no composite task")
	}
	post := f.Graph.Task(tile.CompositeTask)
	if len(post.Deps) != 1 {
		t.Fatalf("composite deps = %v", post.Deps)
	}
	resolve := f.Graph.Task(post.Deps[0])
	if resolve.Kind != TaskResolve {
		t.Fatalf("intermediate kind = %v, want Resolve", resolve.Kind)
	}
	if resolve.Deps[0] != tile.Task {
		t.Errorf("resolve reads task %d, tile task is %d", resolve.Deps[0], tile.Task)
	}
}

func TestTileWithoutSubGraphHasNoCompositeTask(t *testing.T) {
	list := &display.List{Items: []display.Item{
		opaqueRect(uicore.Rect{W: 50, H: 50}, uicore.RGB(1, 0, 0)),
	}}
	b := NewBuilder(testCfg(), 1)

	f, err := b.Build(list, uicore.Rect{W: 100, H: 100}, uicore.Color{}, ReasonSceneChange, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if f.Tiles[0].CompositeTask != 0 {
		t.Errorf("composite task = %d, want none", f.Tiles[0].CompositeTask)
	}
	if f.Tiles[0].Task == 0 {
		t.Error("dirty tile has no picture task")
	}
}

func TestEmptyReasonsSkipFrame(t *testing.T) {
	list := &display.List{}
	b := NewBuilder(testCfg(), 1)

	f, err := b.Build(list, uicore.Rect{W: 100, H: 100}, uicore.Color{}, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if f != nil {
		t.Errorf("frame = %+v, want skip", f)
	}
}

func TestUnbalancedListDropsFrame(t *testing.T) {
	list := &display.List{Items: []display.Item{display.PushClip{}}}
	b := NewBuilder(testCfg(), 1)

	if _, err := b.Build(list, uicore.Rect{W: 100, H: 100}, uicore.Color{}, ReasonSceneChange, nil); !errors.Is(err, display.ErrUnbalanced) {
		t.Fatalf("err = %v, want ErrUnbalanced", err)
	}
}

func TestHitTestFrontToBack(t *testing.T) {
	tag1 := dom.MakeHitTag(1, idtree.NodeId(2))
	tag2 := dom.MakeHitTag(1, idtree.NodeId(3))
	tag3 := dom.MakeHitTag(1, idtree.NodeId(4))
	list := &display.List{Items: []display.Item{
		display.HitTestArea{Bounds: uicore.Rect{W: 100, H: 100}, Tag: tag1},
		display.PushScrollFrame{
			Bounds: uicore.Rect{W: 100, H: 100},
			Offset: uicore.Pt(0, 30),
		},
		display.HitTestArea{Bounds: uicore.Rect{X: 0, Y: 40, W: 100, H: 20}, Tag: tag2},
		display.PopScrollFrame{},
		display.HitTestArea{Bounds: uicore.Rect{X: 25, Y: 0, W: 50, H: 50}, Tag: tag3},
	}}

	ht := NewHitTester(list, 9, map[dom.HitTag]uint64{tag3: 77})
	got := ht.Hit(uicore.Pt(30, 15))
	if len(got) != 3 {
		t.Fatalf("hits = %+v, want 3", got)
	}
	wantTags := []dom.HitTag{tag3, tag2, tag1}
	for i, w := range wantTags {
		if got[i].Tag != w {
			t.Errorf("hit %d = %v, want %v", i, got[i].Tag, w)
		}
		if got[i].Pipeline != 9 {
			t.Errorf("hit %d pipeline = %d", i, got[i].Pipeline)
		}
	}
	if got[0].AnimationID != 77 {
		t.Errorf("front animation id = %d, want 77", got[0].AnimationID)
	}

	// Outside the scrolled area's screen position.
	got = ht.Hit(uicore.Pt(30, 45))
	for _, h := range got {
		if h.Tag == tag2 {
			t.Error("scrolled area hit at its layout position")
		}
	}
}

func TestOpaqueFrontLayerOnlyPrepends(t *testing.T) {
	tag1 := dom.MakeHitTag(1, idtree.NodeId(2))
	tag2 := dom.MakeHitTag(1, idtree.NodeId(3))
	base := []display.Item{
		display.HitTestArea{Bounds: uicore.Rect{W: 100, H: 100}, Tag: tag1},
	}
	front := display.HitTestArea{Bounds: uicore.Rect{X: 25, Y: 25, W: 50, H: 50}, Tag: tag2}

	p := uicore.Pt(30, 30)
	without := NewHitTester(&display.List{Items: base}, 1, nil).Hit(p)
	with := NewHitTester(&display.List{Items: append(base, front)}, 1, nil).Hit(p)

	if len(with) != len(without)+1 {
		t.Fatalf("with = %+v, without = %+v", with, without)
	}
	if with[0].Tag != tag2 {
		t.Errorf("front tag = %v, want %v", with[0].Tag, tag2)
	}
	for i, h := range without {
		if with[i+1].Tag != h.Tag {
			t.Errorf("prior result %d changed: %v != %v", i, with[i+1].Tag, h.Tag)
		}
	}
}

func TestAsyncHitTesterQuery(t *testing.T) {
	tag := dom.MakeHitTag(1, idtree.NodeId(2))
	list := &display.List{Items: []display.Item{
		display.HitTestArea{Bounds: uicore.Rect{W: 10, H: 10}, Tag: tag},
	}}

	var a AsyncHitTester
	got := <-a.Query(context.Background(), uicore.Pt(5, 5))
	if got != nil {
		t.Errorf("query before any frame = %+v", got)
	}

	a.Update(NewHitTester(list, 1, nil))
	got = <-a.Query(context.Background(), uicore.Pt(5, 5))
	if len(got) != 1 || got[0].Tag != tag {
		t.Errorf("hits = %+v, want [%v]", got, tag)
	}
}

type opBackend struct {
	ops   []string
	rects [][]display.Rect
}

func (b *opBackend) op(s string) error { b.ops = append(b.ops, s); return nil }

func (b *opBackend) BeginFrame(uicore.Size, uicore.Color) error { return b.op("begin") }
func (b *opBackend) EndFrame() error                            { return b.op("end") }
func (b *opBackend) DrawRects(r []display.Rect) error {
	b.rects = append(b.rects, append([]display.Rect(nil), r...))
	return b.op("rects")
}
func (b *opBackend) DrawBorders([]display.Border) error              { return b.op("borders") }
func (b *opBackend) DrawText([]display.Text) error                   { return b.op("text") }
func (b *opBackend) DrawImage(display.Image) error                   { return b.op("image") }
func (b *opBackend) DrawExternalTexture(display.ExternalTexture) error { return b.op("texture") }
func (b *opBackend) DrawIFrame(display.IFrame) error                 { return b.op("iframe") }
func (b *opBackend) PushLayer(display.PushStackingContext) error     { return b.op("pushlayer") }
func (b *opBackend) PopLayer() error                                 { return b.op("poplayer") }
func (b *opBackend) PushClip(display.PushClip) error                 { return b.op("pushclip") }
func (b *opBackend) PopClip() error                                  { return b.op("popclip") }

func TestCompositorBatchesAndOffsets(t *testing.T) {
	list := &display.List{Items: []display.Item{
		opaqueRect(uicore.Rect{W: 10, H: 10}, uicore.RGB(1, 0, 0)),
		opaqueRect(uicore.Rect{X: 10, W: 10, H: 10}, uicore.RGB(2, 0, 0)),
		display.Text{Origin: uicore.Pt(0, 20)},
		display.PushScrollFrame{
			Bounds: uicore.Rect{Y: 20, W: 100, H: 50},
			Offset: uicore.Pt(0, 30),
		},
		opaqueRect(uicore.Rect{Y: 50, W: 10, H: 10}, uicore.RGB(3, 0, 0)),
		display.PopScrollFrame{},
	}}

	var b opBackend
	c := NewCompositor(&b)
	if err := c.Composite(list, uicore.Size{Width: 100, Height: 100}, uicore.Color{}); err != nil {
		t.Fatalf("Composite: %v", err)
	}

	want := []string{"begin", "rects", "text", "pushclip", "rects", "popclip", "end"}
	if len(b.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", b.ops, want)
	}
	for i := range want {
		if b.ops[i] != want[i] {
			t.Fatalf("ops = %v, want %v", b.ops, want)
		}
	}
	if len(b.rects[0]) != 2 {
		t.Errorf("first batch = %d rects, want 2", len(b.rects[0]))
	}
	// The scrolled rect shifts up by the frame offset.
	if got := b.rects[1][0].Bounds.Y; got != 20 {
		t.Errorf("scrolled rect Y = %v, want 20", got)
	}
}

func TestCompositeTileReplaysBuffer(t *testing.T) {
	list := &display.List{Items: []display.Item{
		opaqueRect(uicore.Rect{W: 10, H: 10}, uicore.RGB(1, 0, 0)),
		opaqueRect(uicore.Rect{X: 200, W: 10, H: 10}, uicore.RGB(2, 0, 0)),
	}}
	b := NewBuilder(testCfg(), 1)
	f, err := b.Build(list, uicore.Rect{W: 300, H: 100}, uicore.Color{}, ReasonSceneChange, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var back opBackend
	c := NewCompositor(&back)
	for _, tile := range f.Tiles {
		if tile.State != TileDirty {
			continue
		}
		if err := c.CompositeTile(list, tile.Buffer); err != nil {
			t.Fatalf("CompositeTile: %v", err)
		}
	}
	// Each rect lives in its own tile; two single-rect batches.
	if len(back.rects) != 2 {
		t.Fatalf("batches = %d, want 2", len(back.rects))
	}
	if len(back.rects[0]) != 1 || len(back.rects[1]) != 1 {
		t.Errorf("batch sizes = %d, %d, want 1, 1", len(back.rects[0]), len(back.rects[1]))
	}
}
