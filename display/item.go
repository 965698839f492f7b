// Package display builds flat display lists from solved layouts.
//
// The list captures everything a frame needs to paint as typed item
// structs in document order, with stacking contexts reordered by
// z-index. Items reference resources (images, external textures,
// nested pipelines) by host-registered handles; no pixel data flows
// through the list. The design mirrors typed command recording: one
// struct per operation, a Type tag for dispatch, and structural
// validation of push/pop pairing.
package display

import (
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/style"
	"github.com/gogpu/uicore/text"
)

// ItemType identifies the type of a display item.
type ItemType uint8

const (
	ItemRect ItemType = iota
	ItemBorder
	ItemText
	ItemImage
	ItemPushStackingContext
	ItemPopStackingContext
	ItemPushClip
	ItemPopClip
	ItemPushScrollFrame
	ItemPopScrollFrame
	ItemHitTestArea
	ItemScrollBar
	ItemIFrame
	ItemExternalTexture
	ItemSelectionRect
	ItemCursorRect
	ItemCombinedBorderRadius
)

var itemTypeNames = [...]string{
	ItemRect:                 "Rect",
	ItemBorder:               "Border",
	ItemText:                 "Text",
	ItemImage:                "Image",
	ItemPushStackingContext:  "PushStackingContext",
	ItemPopStackingContext:   "PopStackingContext",
	ItemPushClip:             "PushClip",
	ItemPopClip:              "PopClip",
	ItemPushScrollFrame:      "PushScrollFrame",
	ItemPopScrollFrame:       "PopScrollFrame",
	ItemHitTestArea:          "HitTestArea",
	ItemScrollBar:            "ScrollBar",
	ItemIFrame:               "IFrame",
	ItemExternalTexture:      "ExternalTexture",
	ItemSelectionRect:        "SelectionRect",
	ItemCursorRect:           "CursorRect",
	ItemCombinedBorderRadius: "CombinedBorderRadius",
}

// String returns the item type name.
func (t ItemType) String() string {
	if int(t) < len(itemTypeNames) {
		return itemTypeNames[t]
	}
	return "Unknown"
}

// Item is implemented by all display item types.
type Item interface {
	Type() ItemType
}

// ClipID identifies a clip node within one display list.
type ClipID uint32

// ScrollID identifies a scroll frame within one display list.
type ScrollID uint32

// Rect fills an axis-aligned rectangle, optionally rounded.
type Rect struct {
	Bounds uicore.Rect
	Color  uicore.Color
	Radii  style.BorderRadii
}

func (Rect) Type() ItemType { return ItemRect }

// Border draws the four edges of a box with per-side width, style and
// color. Widths of zero-width or non-drawing styles are skipped by
// the painter.
type Border struct {
	Bounds uicore.Rect
	Edges  [4]style.Border // indexed by style.Edge
	Radii  style.BorderRadii
}

func (Border) Type() ItemType { return ItemBorder }

// Text draws a positioned glyph run. Glyph coordinates are relative
// to Origin; the slice is shared with the layout result and must not
// be mutated.
type Text struct {
	Origin uicore.Point
	Glyphs []text.PositionedGlyph
	Color  uicore.Color
}

func (Text) Type() ItemType { return ItemText }

// Image draws a host-registered raster image scaled into Bounds.
type Image struct {
	Bounds uicore.Rect
	Handle dom.ImageHandle
}

func (Image) Type() ItemType { return ItemImage }

// PushStackingContext opens a stacking context. Everything until the
// matching pop composites as a unit with the given opacity.
type PushStackingContext struct {
	Origin  uicore.Point
	ZIndex  int
	Opacity float64
}

func (PushStackingContext) Type() ItemType { return ItemPushStackingContext }

// PopStackingContext closes the innermost stacking context.
type PopStackingContext struct{}

func (PopStackingContext) Type() ItemType { return ItemPopStackingContext }

// PushClip clips subsequent items to a rounded rectangle.
type PushClip struct {
	ID     ClipID
	Bounds uicore.Rect
	Radii  style.BorderRadii
}

func (PushClip) Type() ItemType { return ItemPushClip }

// PopClip closes the innermost clip.
type PopClip struct{}

func (PopClip) Type() ItemType { return ItemPopClip }

// PushScrollFrame opens a scrollable region: items inside shift by
// the frame's external scroll offset and clip to Bounds.
type PushScrollFrame struct {
	ID          ScrollID
	Bounds      uicore.Rect
	ContentSize uicore.Size
	Offset      uicore.Point
}

func (PushScrollFrame) Type() ItemType { return ItemPushScrollFrame }

// PopScrollFrame closes the innermost scroll frame.
type PopScrollFrame struct{}

func (PopScrollFrame) Type() ItemType { return ItemPopScrollFrame }

// HitTestArea registers an input region carrying an opaque tag.
type HitTestArea struct {
	Bounds   uicore.Rect
	Tag      dom.HitTag
	TabIndex int
}

func (HitTestArea) Type() ItemType { return ItemHitTestArea }

// ScrollBarOrientation selects the axis a scroll bar controls.
type ScrollBarOrientation uint8

const (
	ScrollBarVertical ScrollBarOrientation = iota
	ScrollBarHorizontal
)

// ScrollBar draws a scroll indicator bound to a scroll frame.
type ScrollBar struct {
	Bounds      uicore.Rect
	Target      ScrollID
	Orientation ScrollBarOrientation
	Opacity     float64
}

func (ScrollBar) Type() ItemType { return ItemScrollBar }

// IFrame composites a nested document pipeline into Bounds.
type IFrame struct {
	Bounds   uicore.Rect
	Pipeline dom.PipelineID
}

func (IFrame) Type() ItemType { return ItemIFrame }

// ExternalTexture composites a host-owned GPU texture into Bounds.
// The texture is sampled directly at composite time; its pixels never
// enter the tile cache.
type ExternalTexture struct {
	Bounds uicore.Rect
	Handle dom.TextureHandle
}

func (ExternalTexture) Type() ItemType { return ItemExternalTexture }

// SelectionRect highlights a selected text region.
type SelectionRect struct {
	Bounds uicore.Rect
	Color  uicore.Color
}

func (SelectionRect) Type() ItemType { return ItemSelectionRect }

// CursorRect draws a text caret.
type CursorRect struct {
	Bounds uicore.Rect
	Color  uicore.Color
}

func (CursorRect) Type() ItemType { return ItemCursorRect }

// CombinedBorderRadius overrides the corner radii where collapsed
// table borders meet, so adjoining cells share one rounded corner.
type CombinedBorderRadius struct {
	Bounds uicore.Rect
	Radii  style.BorderRadii
}

func (CombinedBorderRadius) Type() ItemType { return ItemCombinedBorderRadius }
