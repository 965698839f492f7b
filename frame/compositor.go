package frame

import (
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/display"
)

// Backend consumes one frame's ordered draw ops. Adjacent geometry
// and text items arrive batched; structural ops (layers, clips)
// arrive in list order between batches. Implementations translate
// these into GPU draw calls.
type Backend interface {
	BeginFrame(viewport uicore.Size, background uicore.Color) error
	EndFrame() error

	// Batched primitives.
	DrawRects(rects []display.Rect) error
	DrawBorders(borders []display.Border) error
	DrawText(runs []display.Text) error

	// Surfaces composite one at a time.
	DrawImage(img display.Image) error
	DrawExternalTexture(tex display.ExternalTexture) error
	DrawIFrame(f display.IFrame) error

	// Structure.
	PushLayer(sc display.PushStackingContext) error
	PopLayer() error
	PushClip(c display.PushClip) error
	PopClip() error
}

// Compositor translates display lists into backend draw ops,
// resolving scroll offsets and batching adjacent primitives.
type Compositor struct {
	backend Backend
}

// NewCompositor returns a compositor issuing ops to b.
func NewCompositor(b Backend) *Compositor {
	return &Compositor{backend: b}
}

// Composite draws a whole display list between BeginFrame and
// EndFrame.
func (c *Compositor) Composite(list *display.List, viewport uicore.Size, background uicore.Color) error {
	if err := c.backend.BeginFrame(viewport, background); err != nil {
		return err
	}
	w := walker{b: c.backend}
	for i := range list.Items {
		if err := w.item(list.Items[i]); err != nil {
			return err
		}
	}
	if err := w.flush(); err != nil {
		return err
	}
	return c.backend.EndFrame()
}

// CompositeTile replays one tile's command buffer. Structural items
// are recorded into every tile they span, so the replay is
// self-contained.
func (c *Compositor) CompositeTile(list *display.List, buf CommandBuffer) error {
	w := walker{b: c.backend}
	for _, idx := range buf {
		if err := w.item(list.Items[idx]); err != nil {
			return err
		}
	}
	return w.flush()
}

// walker batches consecutive same-kind primitives and applies
// accumulated scroll offsets to item geometry.
type walker struct {
	b Backend

	rects   []display.Rect
	borders []display.Border
	texts   []display.Text

	offset  uicore.Point
	offsets []uicore.Point

	// Pending corner override for the next border (collapsed table
	// corners).
	radii    *display.CombinedBorderRadius
	barColor uicore.Color
}

func (w *walker) shift(r uicore.Rect) uicore.Rect {
	return r.Translate(uicore.Pt(-w.offset.X, -w.offset.Y))
}

func (w *walker) item(it display.Item) error {
	switch v := it.(type) {
	case display.Rect:
		v.Bounds = w.shift(v.Bounds)
		return w.rect(v)
	case display.SelectionRect:
		return w.rect(display.Rect{Bounds: w.shift(v.Bounds), Color: v.Color})
	case display.CursorRect:
		return w.rect(display.Rect{Bounds: w.shift(v.Bounds), Color: v.Color})
	case display.ScrollBar:
		color := w.barColor
		if color == (uicore.Color{}) {
			color = uicore.Color{A: 128}
		}
		color.A = uint8(float64(color.A) * v.Opacity) //nolint:gosec // 0..255 by construction
		return w.rect(display.Rect{Bounds: w.shift(v.Bounds), Color: color})
	case display.Border:
		if err := w.flushExcept(2); err != nil {
			return err
		}
		v.Bounds = w.shift(v.Bounds)
		if w.radii != nil {
			v.Radii = w.radii.Radii
			w.radii = nil
		}
		w.borders = append(w.borders, v)
		return nil
	case display.CombinedBorderRadius:
		w.radii = &v
		return nil
	case display.Text:
		if err := w.flushExcept(3); err != nil {
			return err
		}
		v.Origin = v.Origin.Sub(w.offset)
		w.texts = append(w.texts, v)
		return nil
	case display.Image:
		if err := w.flush(); err != nil {
			return err
		}
		v.Bounds = w.shift(v.Bounds)
		return w.b.DrawImage(v)
	case display.ExternalTexture:
		if err := w.flush(); err != nil {
			return err
		}
		v.Bounds = w.shift(v.Bounds)
		return w.b.DrawExternalTexture(v)
	case display.IFrame:
		if err := w.flush(); err != nil {
			return err
		}
		v.Bounds = w.shift(v.Bounds)
		return w.b.DrawIFrame(v)
	case display.PushStackingContext:
		if err := w.flush(); err != nil {
			return err
		}
		v.Origin = v.Origin.Sub(w.offset)
		return w.b.PushLayer(v)
	case display.PopStackingContext:
		if err := w.flush(); err != nil {
			return err
		}
		return w.b.PopLayer()
	case display.PushClip:
		if err := w.flush(); err != nil {
			return err
		}
		v.Bounds = w.shift(v.Bounds)
		return w.b.PushClip(v)
	case display.PopClip:
		if err := w.flush(); err != nil {
			return err
		}
		return w.b.PopClip()
	case display.PushScrollFrame:
		if err := w.flush(); err != nil {
			return err
		}
		clip := display.PushClip{Bounds: w.shift(v.Bounds)}
		if err := w.b.PushClip(clip); err != nil {
			return err
		}
		w.offsets = append(w.offsets, w.offset)
		w.offset = w.offset.Add(v.Offset)
		return nil
	case display.PopScrollFrame:
		if err := w.flush(); err != nil {
			return err
		}
		if n := len(w.offsets); n > 0 {
			w.offset = w.offsets[n-1]
			w.offsets = w.offsets[:n-1]
		}
		return w.b.PopClip()
	case display.HitTestArea:
		// Input-only, nothing to draw.
		return nil
	default:
		return nil
	}
}

func (w *walker) rect(r display.Rect) error {
	if err := w.flushExcept(1); err != nil {
		return err
	}
	w.rects = append(w.rects, r)
	return nil
}

// flushExcept drains all pending batches except the numbered one
// (1 rects, 2 borders, 3 texts), preserving draw order across batch
// kind changes.
func (w *walker) flushExcept(keep int) error {
	if keep != 1 && len(w.rects) > 0 {
		if err := w.b.DrawRects(w.rects); err != nil {
			return err
		}
		w.rects = nil
	}
	if keep != 2 && len(w.borders) > 0 {
		if err := w.b.DrawBorders(w.borders); err != nil {
			return err
		}
		w.borders = nil
	}
	if keep != 3 && len(w.texts) > 0 {
		if err := w.b.DrawText(w.texts); err != nil {
			return err
		}
		w.texts = nil
	}
	return nil
}

func (w *walker) flush() error { return w.flushExcept(0) }
