package document

import (
	"sync"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/frame"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/style"
)

// Checkpoint names a point in a transaction's journey through the
// pipeline. Notifications fire when their checkpoint is reached, or
// with TransactionDropped if it never will be.
type Checkpoint uint8

const (
	// SceneBuilt fires once the scene thread has produced the frame
	// artifact (layout + display list).
	SceneBuilt Checkpoint = iota
	// FrameBuilt fires once the render thread has built the task
	// graph.
	FrameBuilt
	// FrameRendered fires after compositor submission.
	FrameRendered
	// TransactionDropped fires when the transaction can no longer
	// reach its checkpoint (document closing, frame dropped).
	TransactionDropped
)

var checkpointNames = [...]string{
	SceneBuilt:         "SceneBuilt",
	FrameBuilt:         "FrameBuilt",
	FrameRendered:      "FrameRendered",
	TransactionDropped: "TransactionDropped",
}

// String returns the checkpoint name.
func (c Checkpoint) String() string {
	if int(c) < len(checkpointNames) {
		return checkpointNames[c]
	}
	return "Unknown"
}

// Notification is a one-shot callback bound to a checkpoint.
// Delivery is exactly once on every path: the callback receives
// either its requested checkpoint or TransactionDropped.
type Notification struct {
	when Checkpoint
	fn   func(Checkpoint)
	once sync.Once
}

// NewNotification requests fn to run when the transaction reaches
// when.
func NewNotification(when Checkpoint, fn func(Checkpoint)) *Notification {
	return &Notification{when: when, fn: fn}
}

// notify fires the callback if reached matches the request (or is
// the drop checkpoint). The once guard makes double delivery
// structurally impossible.
func (n *Notification) notify(reached Checkpoint) {
	if reached != n.when && reached != TransactionDropped {
		return
	}
	n.once.Do(func() {
		if n.fn != nil {
			n.fn(reached)
		}
	})
}

// Transaction batches document changes. Transactions are applied in
// submission order; a transaction that does not generate a frame
// still updates scene state for the next one that does.
type Transaction struct {
	root      *dom.StyledDom
	viewport  *uicore.Size
	scrolls   map[idtree.NodeId]uicore.Point
	states    map[idtree.NodeId]style.InteractionState
	selection []uicore.Rect
	cursor    *uicore.Rect
	reasons   frame.RenderReasons
	generate  bool
	notes     []*Notification
}

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction { return &Transaction{} }

// SetRoot replaces the styled DOM. Implies a scene rebuild.
func (t *Transaction) SetRoot(d *dom.StyledDom) *Transaction {
	t.root = d
	t.reasons |= frame.ReasonSceneChange
	return t
}

// SetViewport resizes the document viewport.
func (t *Transaction) SetViewport(s uicore.Size) *Transaction {
	t.viewport = &s
	t.reasons |= frame.ReasonResize
	return t
}

// Scroll sets the scroll offset of a node's scroll frame.
func (t *Transaction) Scroll(node idtree.NodeId, offset uicore.Point) *Transaction {
	if t.scrolls == nil {
		t.scrolls = make(map[idtree.NodeId]uicore.Point)
	}
	t.scrolls[node] = offset
	t.reasons |= frame.ReasonScroll
	return t
}

// SetState sets a node's interaction state (hover, active, focus).
func (t *Transaction) SetState(node idtree.NodeId, s style.InteractionState) *Transaction {
	if t.states == nil {
		t.states = make(map[idtree.NodeId]style.InteractionState)
	}
	t.states[node] = s
	t.reasons |= frame.ReasonSceneChange
	return t
}

// SetSelection sets the highlighted text regions and optional caret.
func (t *Transaction) SetSelection(rects []uicore.Rect, cursor *uicore.Rect) *Transaction {
	t.selection = rects
	t.cursor = cursor
	t.reasons |= frame.ReasonSceneChange
	return t
}

// GenerateFrame asks for a frame after this transaction applies,
// adding extra render reasons (ReasonVSync for a display-driven
// tick, for example).
func (t *Transaction) GenerateFrame(extra frame.RenderReasons) *Transaction {
	t.generate = true
	t.reasons |= extra
	return t
}

// Notify registers a checkpoint callback for this transaction.
func (t *Transaction) Notify(n *Notification) *Transaction {
	t.notes = append(t.notes, n)
	return t
}

// drop fires every pending notification with TransactionDropped.
func (t *Transaction) drop() {
	for _, n := range t.notes {
		n.notify(TransactionDropped)
	}
}
