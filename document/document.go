// Package document owns the pipeline threads of one document: a
// scene goroutine that turns queued transactions into immutable frame
// artifacts (box tree, layout, display list), and a render goroutine
// that consumes artifacts into tile-cached task graphs and submits
// them to a compositor backend.
//
// Callbacks never touch layout state directly; every change enters
// through a Transaction and is applied in submission order. The only
// two blocking entry points are HitTest (awaiting the async hit
// tester) and FlushScene (draining the scene queue, used before a
// resize completes).
package document

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/boxtree"
	"github.com/gogpu/uicore/display"
	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/frame"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/layout"
	"github.com/gogpu/uicore/style"
	"github.com/gogpu/uicore/text"
)

// ErrClosed reports a submission to a closed document.
var ErrClosed = errors.New("document: closed")

// Options configures a Document. The zero value is usable for
// documents without text content; text needs a Provider.
type Options struct {
	// Pipeline identifies this document to hit testing and nested
	// iframes.
	Pipeline dom.PipelineID

	// Provider, TextCache and Hyphenator feed inline layout.
	Provider   text.Provider
	TextCache  *text.LayoutCache
	Hyphenator text.Hyphenator

	// Viewport is the initial viewport size.
	Viewport uicore.Size

	// Background clears the frame and seeds slice opacity.
	Background uicore.Color

	// Tiles sets the tile grid; zero uses DefaultTileConfig.
	Tiles frame.TileConfig

	// Backend, when set, receives composited frames.
	Backend frame.Backend

	// SelectionColor and CursorColor override the overlay defaults.
	SelectionColor uicore.Color
	CursorColor    uicore.Color
}

// artifact is the immutable product of one scene build, handed from
// the scene goroutine to the render goroutine.
type artifact struct {
	list     *display.List
	viewport uicore.Rect
	reasons  frame.RenderReasons
	notes    []*Notification
}

type flushReq chan struct{}

// Document runs the scene and render goroutines for one styled DOM.
type Document struct {
	opts Options

	mu     sync.Mutex
	closed bool
	queue  chan any // *Transaction | flushReq

	scenes chan *artifact
	wg     sync.WaitGroup

	hit   frame.AsyncHitTester
	frame atomic.Pointer[frame.Frame]
}

// Open starts the pipeline goroutines and returns the document.
func Open(opts Options) *Document {
	d := &Document{
		opts:   opts,
		queue:  make(chan any, 64),
		scenes: make(chan *artifact, 4),
	}
	d.wg.Add(2)
	go d.sceneLoop()
	go d.renderLoop()
	return d
}

// Submit queues a transaction. Transactions apply in submission
// order. After Close, the transaction's notifications fire with
// TransactionDropped and ErrClosed is returned.
func (d *Document) Submit(t *Transaction) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		t.drop()
		return ErrClosed
	}
	d.queue <- t
	return nil
}

// FlushScene blocks until every previously submitted transaction has
// been applied by the scene goroutine. Called by hosts before a
// resize completes.
func (d *Document) FlushScene() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	req := make(flushReq)
	d.queue <- req
	d.mu.Unlock()
	<-req
}

// Resize flushes pending scenes, then applies the new viewport and
// generates a frame.
func (d *Document) Resize(s uicore.Size) error {
	d.FlushScene()
	return d.Submit(NewTransaction().SetViewport(s).GenerateFrame(0))
}

// HitTest resolves a viewport-space point against the most recently
// built frame, front to back. It suspends until the hit tester
// answers or ctx is done.
func (d *Document) HitTest(ctx context.Context, p uicore.Point) ([]frame.HitResult, error) {
	res, ok := <-d.hit.Query(ctx, p)
	if !ok {
		return nil, ctx.Err()
	}
	return res, nil
}

// Frame returns the most recently built frame, or nil.
func (d *Document) Frame() *frame.Frame {
	return d.frame.Load()
}

// Close stops the pipeline. Queued transactions that have not been
// applied fire their notifications with TransactionDropped. Close
// blocks until both goroutines exit; it is safe to call once.
func (d *Document) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

// sceneState is the mutable model owned by the scene goroutine.
type sceneState struct {
	root      *dom.StyledDom
	tree      *boxtree.Tree
	viewport  uicore.Size
	scrolls   map[idtree.NodeId]uicore.Point
	states    map[idtree.NodeId]style.InteractionState
	selection []uicore.Rect
	cursor    *uicore.Rect
}

func (d *Document) sceneLoop() {
	defer d.wg.Done()
	defer close(d.scenes)
	log := uicore.Logger()

	st := sceneState{
		viewport: d.opts.Viewport,
		scrolls:  make(map[idtree.NodeId]uicore.Point),
		states:   make(map[idtree.NodeId]style.InteractionState),
	}
	var (
		pendingNotes   []*Notification
		pendingReasons frame.RenderReasons
	)

	for item := range d.queue {
		switch v := item.(type) {
		case flushReq:
			close(v)
			continue
		case *Transaction:
			if v.root != nil {
				st.root = v.root
				st.tree = nil
			}
			if v.viewport != nil {
				st.viewport = *v.viewport
			}
			for k, off := range v.scrolls {
				st.scrolls[k] = off
			}
			for k, s := range v.states {
				st.states[k] = s
			}
			if v.selection != nil || v.cursor != nil {
				st.selection = v.selection
				st.cursor = v.cursor
			}
			pendingReasons |= v.reasons
			pendingNotes = append(pendingNotes, v.notes...)
			if !v.generate {
				continue
			}

			art, err := d.buildScene(&st, pendingReasons, pendingNotes)
			if err != nil {
				log.Warn("scene build failed", "err", err)
				for _, n := range pendingNotes {
					n.notify(TransactionDropped)
				}
			} else {
				for _, n := range art.notes {
					n.notify(SceneBuilt)
				}
				d.scenes <- art
			}
			pendingNotes = nil
			pendingReasons = 0
		}
	}

	// Closing: anything still pending can no longer reach its
	// checkpoint.
	for _, n := range pendingNotes {
		n.notify(TransactionDropped)
	}
}

// buildScene runs box construction, layout and display-list building
// against the current scene state.
func (d *Document) buildScene(st *sceneState, reasons frame.RenderReasons, notes []*Notification) (*artifact, error) {
	if st.root == nil {
		return nil, errors.New("document: no root dom")
	}
	if st.tree == nil {
		if err := st.root.Validate(); err != nil {
			return nil, err
		}
		st.tree = boxtree.Build(st.root)
	}

	lay, err := layout.Solve(st.tree, st.viewport, layout.Options{
		Provider:   d.opts.Provider,
		TextCache:  d.opts.TextCache,
		Hyphenator: d.opts.Hyphenator,
		States:     st.states,
	})
	if err != nil {
		return nil, err
	}

	list, err := display.Build(st.tree, lay, display.Options{
		States:         st.states,
		ScrollOffsets:  st.scrolls,
		Selections:     st.selection,
		Cursor:         st.cursor,
		SelectionColor: d.opts.SelectionColor,
		CursorColor:    d.opts.CursorColor,
	})
	if err != nil {
		return nil, err
	}

	return &artifact{
		list:     list,
		viewport: uicore.Rect{W: st.viewport.Width, H: st.viewport.Height},
		reasons:  reasons,
		notes:    notes,
	}, nil
}

func (d *Document) renderLoop() {
	defer d.wg.Done()
	log := uicore.Logger()

	builder := frame.NewBuilder(d.opts.Tiles, d.opts.Pipeline)
	var comp *frame.Compositor
	if d.opts.Backend != nil {
		comp = frame.NewCompositor(d.opts.Backend)
	}

	for art := range d.scenes {
		f, err := builder.Build(art.list, art.viewport, d.opts.Background, art.reasons, nil)
		if err != nil || f == nil {
			if err != nil {
				log.Warn("frame dropped", "err", err)
			}
			for _, n := range art.notes {
				n.notify(TransactionDropped)
			}
			continue
		}
		d.frame.Store(f)
		d.hit.Update(f.HitTester)
		for _, n := range art.notes {
			n.notify(FrameBuilt)
		}

		if comp == nil {
			// No backend: rendering stops at the frame artifact.
			for _, n := range art.notes {
				n.notify(FrameRendered)
			}
			continue
		}
		if err := comp.Composite(art.list, art.viewport.Size(), d.opts.Background); err != nil {
			log.Warn("composite failed", "err", err)
			for _, n := range art.notes {
				n.notify(TransactionDropped)
			}
			continue
		}
		for _, n := range art.notes {
			n.notify(FrameRendered)
		}
	}
}
