package document

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/frame"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/style"
	"github.com/gogpu/uicore/text"
)

type tFont struct{ size float64 }

func (f *tFont) Size() float64                       { return f.size }
func (f *tFont) Ascent() float64                     { return f.size * 0.75 }
func (f *tFont) Descent() float64                    { return -f.size * 0.25 }
func (f *tFont) LineGap() float64                    { return 0 }
func (f *tFont) GlyphID(r rune) (text.GlyphID, bool) { return text.GlyphID(r), true }
func (f *tFont) AdvanceH(text.GlyphID) float64       { return 10 }
func (f *tFont) AdvanceV(text.GlyphID) float64       { return f.size }
func (f *tFont) HyphenGlyph() (text.GlyphID, bool)   { return text.GlyphID('-'), true }
func (f *tFont) KashidaGlyph() (text.GlyphID, bool)  { return 0, false }

type tProvider struct{}

func (tProvider) ResolveFont(rs text.RunStyle) (text.Font, error) {
	size := rs.Size
	if size == 0 {
		size = 16
	}
	return &tFont{size: size}, nil
}

func (tProvider) Shape(req text.ShapeRequest) []text.RawGlyph {
	out := make([]text.RawGlyph, 0, req.End-req.Start)
	for i := req.Start; i < req.End; i++ {
		out = append(out, text.RawGlyph{GID: text.GlyphID(req.Text[i]), Cluster: i, XAdvance: 10})
	}
	return out
}

func testOptions() Options {
	return Options{
		Provider: tProvider{},
		Viewport: uicore.Size{Width: 400, Height: 300},
	}
}

func coloredRoot(c uicore.Color) *dom.StyledDom {
	b := dom.NewBuilder()
	b.Open(dom.StyledNode{Type: dom.NodeDiv, Style: style.Style{
		Height:     style.Px(100),
		Background: c,
	}})
	b.Close()
	return b.Build()
}

// await registers a checkpoint notification on the transaction and
// returns a channel delivering what actually fired.
func await(tx *Transaction, when Checkpoint) <-chan Checkpoint {
	ch := make(chan Checkpoint, 1)
	tx.Notify(NewNotification(when, func(c Checkpoint) { ch <- c }))
	return ch
}

func wait(t *testing.T, ch <-chan Checkpoint) Checkpoint {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("notification never fired")
		return 0
	}
}

func TestTransactionsApplyInSubmissionOrder(t *testing.T) {
	d := Open(testOptions())
	defer d.Close()

	var order []int
	mu := make(chan struct{}, 1)
	mu <- struct{}{}
	note := func(i int) *Notification {
		return NewNotification(SceneBuilt, func(Checkpoint) {
			<-mu
			order = append(order, i)
			mu <- struct{}{}
		})
	}

	tx1 := NewTransaction().SetRoot(coloredRoot(uicore.RGB(10, 0, 0))).GenerateFrame(0).Notify(note(1))
	tx2 := NewTransaction().SetRoot(coloredRoot(uicore.RGB(20, 0, 0))).GenerateFrame(0).Notify(note(2))
	done := await(tx2, FrameRendered)
	if err := d.Submit(tx1); err != nil {
		t.Fatal(err)
	}
	if err := d.Submit(tx2); err != nil {
		t.Fatal(err)
	}

	if c := wait(t, done); c != FrameRendered {
		t.Fatalf("checkpoint = %v", c)
	}
	<-mu
	if diff := cmp.Diff([]int{1, 2}, order); diff != "" {
		t.Errorf("scene order mismatch (-want +got):\n%s", diff)
	}
	mu <- struct{}{}

	if d.Frame() == nil {
		t.Fatal("no frame")
	}
}

func TestNonGenerateTransactionCoalesces(t *testing.T) {
	d := Open(testOptions())
	defer d.Close()

	tx1 := NewTransaction().SetRoot(coloredRoot(uicore.RGB(1, 2, 3)))
	ch1 := await(tx1, FrameRendered)
	if err := d.Submit(tx1); err != nil {
		t.Fatal(err)
	}

	// The state change rides along with the next generating
	// transaction, and so does its notification.
	tx2 := NewTransaction().GenerateFrame(frame.ReasonVSync)
	ch2 := await(tx2, FrameRendered)
	if err := d.Submit(tx2); err != nil {
		t.Fatal(err)
	}

	if c := wait(t, ch1); c != FrameRendered {
		t.Errorf("coalesced checkpoint = %v", c)
	}
	if c := wait(t, ch2); c != FrameRendered {
		t.Errorf("generating checkpoint = %v", c)
	}
	if d.Frame() == nil {
		t.Fatal("no frame")
	}
}

func TestFlushSceneDrainsQueue(t *testing.T) {
	d := Open(testOptions())
	defer d.Close()

	var built atomic.Bool
	tx := NewTransaction().SetRoot(coloredRoot(uicore.RGB(5, 5, 5))).GenerateFrame(0)
	tx.Notify(NewNotification(SceneBuilt, func(Checkpoint) { built.Store(true) }))
	if err := d.Submit(tx); err != nil {
		t.Fatal(err)
	}

	d.FlushScene()
	if !built.Load() {
		t.Error("FlushScene returned before the queued scene was built")
	}
}

func TestResizeUpdatesViewport(t *testing.T) {
	d := Open(testOptions())
	defer d.Close()

	seed := NewTransaction().SetRoot(coloredRoot(uicore.RGB(5, 5, 5))).GenerateFrame(0)
	if err := d.Submit(seed); err != nil {
		t.Fatal(err)
	}
	if err := d.Resize(uicore.Size{Width: 800, Height: 600}); err != nil {
		t.Fatal(err)
	}

	// Ride a notification on a follow-up frame to know the resize
	// frame has landed.
	tick := NewTransaction().GenerateFrame(frame.ReasonVSync)
	done := await(tick, FrameRendered)
	if err := d.Submit(tick); err != nil {
		t.Fatal(err)
	}
	wait(t, done)

	f := d.Frame()
	if f == nil {
		t.Fatal("no frame")
	}
	if f.Viewport.W != 800 || f.Viewport.H != 600 {
		t.Errorf("viewport = %+v, want 800x600", f.Viewport)
	}
}

func TestCloseDropsQueuedNotifications(t *testing.T) {
	d := Open(testOptions())

	// A non-generating transaction parks its notification with the
	// scene state; closing must deliver TransactionDropped exactly
	// once.
	var fired atomic.Int32
	tx := NewTransaction().SetRoot(coloredRoot(uicore.RGB(1, 1, 1)))
	got := make(chan Checkpoint, 2)
	tx.Notify(NewNotification(FrameRendered, func(c Checkpoint) {
		fired.Add(1)
		got <- c
	}))
	if err := d.Submit(tx); err != nil {
		t.Fatal(err)
	}

	d.Close()
	select {
	case c := <-got:
		if c != TransactionDropped {
			t.Errorf("checkpoint = %v, want TransactionDropped", c)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("notification never fired")
	}
	if n := fired.Load(); n != 1 {
		t.Errorf("fired %d times", n)
	}

	// Submitting after Close fails and still drops exactly once.
	late := NewTransaction().GenerateFrame(frame.ReasonVSync)
	lateCh := await(late, SceneBuilt)
	if err := d.Submit(late); err != ErrClosed {
		t.Fatalf("Submit after close = %v, want ErrClosed", err)
	}
	if c := wait(t, lateCh); c != TransactionDropped {
		t.Errorf("late checkpoint = %v", c)
	}
}

func TestGenerateWithoutRootDropsTransaction(t *testing.T) {
	d := Open(testOptions())
	defer d.Close()

	tx := NewTransaction().GenerateFrame(frame.ReasonVSync)
	ch := await(tx, SceneBuilt)
	if err := d.Submit(tx); err != nil {
		t.Fatal(err)
	}
	if c := wait(t, ch); c != TransactionDropped {
		t.Errorf("checkpoint = %v, want TransactionDropped", c)
	}
}

func TestHitTestAgainstLatestFrame(t *testing.T) {
	opts := testOptions()
	opts.Pipeline = 7
	d := Open(opts)
	defer d.Close()

	// Before any frame the tester answers empty.
	if res, err := d.HitTest(context.Background(), uicore.Pt(1, 1)); err != nil || res != nil {
		t.Fatalf("pre-frame hit = %v, %v", res, err)
	}

	tag := dom.MakeHitTag(7, idtree.NodeId(2))
	b := dom.NewBuilder()
	b.Open(dom.StyledNode{Type: dom.NodeDiv})
	b.Leaf(dom.StyledNode{
		Type:   dom.NodeDiv,
		Style:  style.Style{Height: style.Px(50)},
		HitTag: tag,
	})
	b.Close()

	tx := NewTransaction().SetRoot(b.Build()).GenerateFrame(0)
	done := await(tx, FrameRendered)
	if err := d.Submit(tx); err != nil {
		t.Fatal(err)
	}
	wait(t, done)

	res, err := d.HitTest(context.Background(), uicore.Pt(10, 10))
	if err != nil {
		t.Fatalf("HitTest: %v", err)
	}
	if len(res) != 1 || res[0].Tag != tag {
		t.Fatalf("hits = %+v, want tag %v", res, tag)
	}
	if res[0].Pipeline != 7 {
		t.Errorf("pipeline = %d, want 7", res[0].Pipeline)
	}

	// Outside the box: no hit.
	res, err = d.HitTest(context.Background(), uicore.Pt(10, 200))
	if err != nil || len(res) != 0 {
		t.Errorf("miss = %+v, %v", res, err)
	}
}

func TestHitTestHonorsContext(t *testing.T) {
	d := Open(testOptions())
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.HitTest(ctx, uicore.Pt(0, 0)); err != nil && err != context.Canceled {
		t.Errorf("err = %v", err)
	}
}

func TestScrollRendersNewFrame(t *testing.T) {
	d := Open(testOptions())
	defer d.Close()

	b := dom.NewBuilder()
	root := b.Open(dom.StyledNode{Type: dom.NodeDiv, Style: style.Style{
		Height:   style.Px(100),
		Overflow: style.OverflowScroll,
	}})
	b.Leaf(dom.StyledNode{Type: dom.NodeDiv, Style: style.Style{Height: style.Px(1000)}})
	b.Close()

	tx := NewTransaction().SetRoot(b.Build()).GenerateFrame(0)
	done := await(tx, FrameRendered)
	if err := d.Submit(tx); err != nil {
		t.Fatal(err)
	}
	wait(t, done)

	scroll := NewTransaction().Scroll(root, uicore.Pt(0, 40)).GenerateFrame(0)
	done = await(scroll, FrameRendered)
	if err := d.Submit(scroll); err != nil {
		t.Fatal(err)
	}
	if c := wait(t, done); c != FrameRendered {
		t.Fatalf("checkpoint = %v", c)
	}
	if !d.Frame().Reasons.Has(frame.ReasonScroll) {
		t.Error("frame reasons missing scroll")
	}
}
