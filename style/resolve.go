package style

import "github.com/gogpu/uicore"

// InteractionState selects which state-conditional property overrides
// apply to a node. It is supplied externally (by the event layer) at
// style-resolve time.
type InteractionState uint8

const (
	StateNormal InteractionState = iota
	StateHover
	StateActive
	StateFocus
)

// PropertyID identifies a state-overridable property.
type PropertyID uint8

const (
	PropBackground PropertyID = iota
	PropColor
	PropBorderColor
	PropBorderWidth
	PropOpacity
	PropWidth
	PropHeight
	PropFontSize
)

// Property is one tagged override value. Which field is meaningful
// depends on the ID: colors use Color, dimensions use Value, scalars
// use Number.
type Property struct {
	ID     PropertyID
	Color  uicore.Color
	Value  Value
	Number float64
}

// StateOverride is a vector of property overrides active in one
// interaction state. A node stores one vector per non-normal state it
// styles; the resolver picks the matching vector. No dynamic dispatch
// is involved: overrides are plain data applied over the base style.
type StateOverride struct {
	State InteractionState
	Props []Property
}

// ApplyState returns the style with the overrides for the given
// interaction state applied. The base style is not modified.
func ApplyState(base Style, overrides []StateOverride, state InteractionState) Style {
	if state == StateNormal || len(overrides) == 0 {
		return base
	}
	s := base
	for _, ov := range overrides {
		if ov.State != state {
			continue
		}
		for _, p := range ov.Props {
			switch p.ID {
			case PropBackground:
				s.Background = p.Color
			case PropColor:
				s.Color = p.Color
			case PropBorderColor:
				for e := range s.Border {
					s.Border[e].Color = p.Color
				}
			case PropBorderWidth:
				for e := range s.Border {
					s.Border[e].Width = p.Number
				}
			case PropOpacity:
				s.Opacity = p.Number
			case PropWidth:
				s.Width = p.Value
			case PropHeight:
				s.Height = p.Value
			case PropFontSize:
				s.FontSizePx = p.Number
			}
		}
	}
	return s
}

// ContainingBlock carries the dimensions percentages resolve against.
// A dimension may be indefinite (height during layout of auto-height
// parents); percentages of an indefinite dimension resolve to auto.
type ContainingBlock struct {
	Width          float64
	Height         float64
	WidthDefinite  bool
	HeightDefinite bool
}

// Definite returns a containing block with both dimensions known.
func Definite(w, h float64) ContainingBlock {
	return ContainingBlock{Width: w, Height: h, WidthDefinite: true, HeightDefinite: true}
}

// ResolveMargins resolves the four margins to pixels. Auto margins
// resolve to 0 here; the block-width algorithm redistributes them when
// centering applies. Horizontal percentages resolve against the
// containing block *width* per CSS, as do vertical ones.
func ResolveMargins(s *Style, cb ContainingBlock) uicore.Insets {
	return uicore.Insets{
		Top:    s.Margin[EdgeTop].ResolveOr(cb.Width, cb.WidthDefinite, 0),
		Right:  s.Margin[EdgeRight].ResolveOr(cb.Width, cb.WidthDefinite, 0),
		Bottom: s.Margin[EdgeBottom].ResolveOr(cb.Width, cb.WidthDefinite, 0),
		Left:   s.Margin[EdgeLeft].ResolveOr(cb.Width, cb.WidthDefinite, 0),
	}
}

// ResolvePadding resolves the four paddings to pixels. Percentages
// resolve against the containing block width.
func ResolvePadding(s *Style, cb ContainingBlock) uicore.Insets {
	return uicore.Insets{
		Top:    s.Padding[EdgeTop].ResolveOr(cb.Width, cb.WidthDefinite, 0),
		Right:  s.Padding[EdgeRight].ResolveOr(cb.Width, cb.WidthDefinite, 0),
		Bottom: s.Padding[EdgeBottom].ResolveOr(cb.Width, cb.WidthDefinite, 0),
		Left:   s.Padding[EdgeLeft].ResolveOr(cb.Width, cb.WidthDefinite, 0),
	}
}

// BorderWidths returns the used border widths: a border whose style
// draws nothing contributes zero width regardless of the declared
// width.
func BorderWidths(s *Style) uicore.Insets {
	w := func(e Edge) float64 {
		b := s.Border[e]
		if !b.Style.DrawsLine() {
			return 0
		}
		return b.Width
	}
	return uicore.Insets{
		Top:    w(EdgeTop),
		Right:  w(EdgeRight),
		Bottom: w(EdgeBottom),
		Left:   w(EdgeLeft),
	}
}

// ClampSize applies min/max constraints to a used dimension.
func ClampSize(used float64, minV, maxV Value, base float64, baseDefinite bool) float64 {
	if px, ok := maxV.Resolve(base, baseDefinite); ok && !maxV.IsAuto() && used > px {
		used = px
	}
	if px, ok := minV.Resolve(base, baseDefinite); ok && used < px {
		used = px
	}
	return used
}

// LogicalSize maps a physical size to (inline, block) extents under
// the writing mode.
func LogicalSize(wm WritingMode, sz uicore.Size) (inline, block float64) {
	if wm.IsVertical() {
		return sz.Height, sz.Width
	}
	return sz.Width, sz.Height
}

// PhysicalSize maps (inline, block) extents back to a physical size.
func PhysicalSize(wm WritingMode, inline, block float64) uicore.Size {
	if wm.IsVertical() {
		return uicore.Size{Width: block, Height: inline}
	}
	return uicore.Size{Width: inline, Height: block}
}

// StartEdge returns the physical edge that is the inline-start edge
// under the writing mode and direction. Used to map logical start/end
// offsets (and text-align: start/end) to physical edges.
func StartEdge(wm WritingMode, dir Direction) Edge {
	if wm.IsVertical() {
		// Inline axis is vertical: start is top for LTR, bottom for RTL.
		if dir == DirectionRTL {
			return EdgeBottom
		}
		return EdgeTop
	}
	if dir == DirectionRTL {
		return EdgeRight
	}
	return EdgeLeft
}
