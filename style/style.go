// Package style defines the resolved style model consumed by layout
// and display-list building, the used-value resolver, and the
// border-collapse conflict resolver shared by table layout and the
// display-list builder.
//
// The package deals in *cascaded* values as input (what a CSS cascade
// or the host application produced per node) and *used* values as
// output: percentages resolved against containing blocks, auto
// margins distributed, logical properties mapped to physical edges
// under the writing mode.
package style

import (
	"github.com/gogpu/uicore"
)

// Display selects the formatting context a box establishes or
// participates in.
type Display uint8

const (
	DisplayBlock Display = iota
	DisplayInline
	DisplayInlineBlock
	DisplayFlex
	DisplayTable
	DisplayTableRow
	DisplayTableCell
	DisplayNone
)

var displayNames = [...]string{
	DisplayBlock:       "block",
	DisplayInline:      "inline",
	DisplayInlineBlock: "inline-block",
	DisplayFlex:        "flex",
	DisplayTable:       "table",
	DisplayTableRow:    "table-row",
	DisplayTableCell:   "table-cell",
	DisplayNone:        "none",
}

// String returns the CSS keyword for the display value.
func (d Display) String() string {
	if int(d) < len(displayNames) {
		return displayNames[d]
	}
	return "unknown"
}

// Position selects the positioning scheme.
type Position uint8

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
	PositionSticky
)

// IsPositioned reports whether the box establishes a containing block
// for absolutely positioned descendants.
func (p Position) IsPositioned() bool { return p != PositionStatic }

// Overflow controls clipping and scrolling of overflowing content.
type Overflow uint8

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
	OverflowAuto
)

// WritingMode selects the block-flow direction.
type WritingMode uint8

const (
	WritingModeHorizontalTB WritingMode = iota
	WritingModeVerticalRL
	WritingModeVerticalLR
	WritingModeSidewaysRL
	WritingModeSidewaysLR
)

// IsVertical reports whether the inline axis runs vertically.
func (w WritingMode) IsVertical() bool { return w != WritingModeHorizontalTB }

// LinesAdvanceLeft reports whether successive lines stack towards the
// left (vertical-rl and sideways-rl) rather than towards the right.
func (w WritingMode) LinesAdvanceLeft() bool {
	return w == WritingModeVerticalRL || w == WritingModeSidewaysRL
}

// TextOrientation controls per-glyph orientation in vertical modes.
type TextOrientation uint8

const (
	TextOrientationMixed TextOrientation = iota
	TextOrientationUpright
	TextOrientationSideways
)

// Float pulls a block to an edge of its formatting context, with
// following line boxes flowing along its side.
type Float uint8

const (
	FloatNone Float = iota
	FloatLeft
	FloatRight
)

// Clear forces a box below earlier floats.
type Clear uint8

const (
	ClearNone Clear = iota
	ClearLeft
	ClearRight
	ClearBoth
)

// TextAlign positions line content along the inline axis.
type TextAlign uint8

const (
	TextAlignLeft TextAlign = iota
	TextAlignRight
	TextAlignCenter
	TextAlignJustify
	TextAlignJustifyAll
	TextAlignStart
	TextAlignEnd
)

// TextJustify selects the justification technique.
type TextJustify uint8

const (
	TextJustifyNone TextJustify = iota
	TextJustifyInterWord
	TextJustifyInterCharacter
	TextJustifyKashida
	TextJustifyDistribute
)

// WhiteSpace controls collapsing and wrapping of whitespace.
type WhiteSpace uint8

const (
	WhiteSpaceNormal WhiteSpace = iota
	WhiteSpaceNoWrap
	WhiteSpacePre
	WhiteSpacePreWrap
	WhiteSpacePreLine
)

// Wraps reports whether lines may break at soft wrap opportunities.
func (w WhiteSpace) Wraps() bool {
	return w == WhiteSpaceNormal || w == WhiteSpacePreWrap || w == WhiteSpacePreLine
}

// WordBreak controls breaking inside words.
type WordBreak uint8

const (
	WordBreakNormal WordBreak = iota
	WordBreakBreakAll
	WordBreakKeepAll
)

// Hyphens controls automatic hyphenation.
type Hyphens uint8

const (
	HyphensNone Hyphens = iota
	HyphensManual
	HyphensAuto
)

// Direction is the base inline direction of a box.
type Direction uint8

const (
	// DirectionAuto derives the base direction from the first strong
	// character of the paragraph.
	DirectionAuto Direction = iota
	DirectionLTR
	DirectionRTL
)

// FlexDirection selects the main axis of a flex container.
type FlexDirection uint8

const (
	FlexRow FlexDirection = iota
	FlexColumn
)

// Align distributes items or free space along an axis. Used for both
// justify-content and align-self/align-items.
type Align uint8

const (
	AlignAuto Align = iota
	AlignStart
	AlignEnd
	AlignCenter
	AlignStretch
	AlignSpaceBetween
	AlignSpaceAround
)

// Unit tags a dimension value.
type Unit uint8

const (
	// UnitAuto means the value is resolved by layout.
	UnitAuto Unit = iota
	// UnitPx is a length in logical pixels.
	UnitPx
	// UnitPercent is relative to the containing block dimension.
	UnitPercent
)

// Value is a dimension that is auto, a pixel length, or a percentage.
// The zero value is auto.
type Value struct {
	Unit Unit
	Num  float64
}

// Auto returns the auto value.
func Auto() Value { return Value{} }

// Px returns a pixel length.
func Px(v float64) Value { return Value{Unit: UnitPx, Num: v} }

// Percent returns a percentage (0–100 scale).
func Percent(v float64) Value { return Value{Unit: UnitPercent, Num: v} }

// IsAuto reports whether the value is auto.
func (v Value) IsAuto() bool { return v.Unit == UnitAuto }

// Resolve converts the value to pixels against a containing-block
// dimension. The second result is false when the value stays
// unresolved: auto, or a percentage of an indefinite base.
func (v Value) Resolve(base float64, baseDefinite bool) (float64, bool) {
	switch v.Unit {
	case UnitPx:
		return v.Num, true
	case UnitPercent:
		if !baseDefinite {
			return 0, false
		}
		return base * v.Num / 100, true
	default:
		return 0, false
	}
}

// ResolveOr resolves the value, substituting def when unresolved.
func (v Value) ResolveOr(base float64, baseDefinite bool, def float64) float64 {
	if px, ok := v.Resolve(base, baseDefinite); ok {
		return px
	}
	return def
}

// FontStyle is the slant of a face.
type FontStyle uint8

const (
	FontStyleNormal FontStyle = iota
	FontStyleItalic
	FontStyleOblique
)

// FontStretch is the width class of a face, on the usWidthClass 1–9
// scale with 5 as normal.
type FontStretch uint8

const FontStretchNormal FontStretch = 5

// Shadow describes a box or text shadow.
type Shadow struct {
	OffsetX, OffsetY float64
	BlurRadius       float64
	SpreadRadius     float64
	Color            uicore.Color
	Inset            bool
}

// BorderRadii holds the four corner radii of a box.
type BorderRadii struct {
	TopLeft, TopRight, BottomRight, BottomLeft float64
}

// IsZero reports whether all radii are zero.
func (r BorderRadii) IsZero() bool {
	return r.TopLeft == 0 && r.TopRight == 0 && r.BottomRight == 0 && r.BottomLeft == 0
}

// Edge indexes the four physical sides of a box.
type Edge uint8

const (
	EdgeTop Edge = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

// Style is the cascaded style of a node, before used-value resolution.
// The zero value is the default style: display block, static position,
// everything auto, transparent background.
type Style struct {
	Display  Display
	Position Position
	Overflow Overflow
	Float    Float
	Clear    Clear

	// Box model. Indexed by Edge for margins, padding and borders.
	Width, Height       Value
	MinWidth, MaxWidth  Value
	MinHeight, MaxHeight Value
	Margin              [4]Value
	Padding             [4]Value
	Border              [4]Border
	BorderRadii         BorderRadii

	// Offsets for positioned boxes (top, right, bottom, left).
	Offset [4]Value

	// Paint.
	Color      uicore.Color
	Background uicore.Color
	Opacity    float64 // 0 means unset; treated as 1
	BoxShadows []Shadow

	// Stacking.
	ZIndex     int
	ZIndexAuto bool

	// Fonts.
	FontFamily  string
	FontSizePx  float64
	FontWeight  uint16 // 100–900, 0 means 400
	FontStyle   FontStyle
	FontStretch FontStretch

	// Text.
	LineHeight         float64 // multiplier; 0 means normal (1.2)
	LetterSpacing      float64
	WordSpacing        float64
	TextAlign          TextAlign
	TextJustify        TextJustify
	WhiteSpace         WhiteSpace
	WordBreak          WordBreak
	Hyphens            Hyphens
	Direction          Direction
	WritingMode        WritingMode
	TextOrientation    TextOrientation
	TextCombineDigits  uint8 // tate-chu-yoko: pack up to N digits; 0 disables
	LineClamp          int   // truncate after N lines; 0 disables

	// Flex.
	FlexDirection  FlexDirection
	FlexGrow       float64
	FlexShrink     float64 // 0 means unset; treated as 1
	FlexBasis      Value
	AlignSelf      Align
	AlignItems     Align
	JustifyContent Align

	// Tables.
	BorderCollapse bool
	ColSpan        uint16 // 0 means 1
	RowSpan        uint16 // 0 means 1
}

// EffectiveOpacity returns the opacity with the unset default applied.
func (s *Style) EffectiveOpacity() float64 {
	if s.Opacity == 0 {
		return 1
	}
	return s.Opacity
}

// EffectiveLineHeight returns the line-height multiplier with the
// normal default applied.
func (s *Style) EffectiveLineHeight() float64 {
	if s.LineHeight == 0 {
		return 1.2
	}
	return s.LineHeight
}

// EffectiveFontWeight returns the font weight with the default applied.
func (s *Style) EffectiveFontWeight() uint16 {
	if s.FontWeight == 0 {
		return 400
	}
	return s.FontWeight
}

// EffectiveFlexShrink returns the flex-shrink factor with the default
// of 1 applied.
func (s *Style) EffectiveFlexShrink() float64 {
	if s.FlexShrink == 0 {
		return 1
	}
	return s.FlexShrink
}

// Span returns the effective col/row span (minimum 1).
func span(v uint16) int {
	if v == 0 {
		return 1
	}
	return int(v)
}

// EffectiveColSpan returns the cell's column span.
func (s *Style) EffectiveColSpan() int { return span(s.ColSpan) }

// EffectiveRowSpan returns the cell's row span.
func (s *Style) EffectiveRowSpan() int { return span(s.RowSpan) }

// IsInlineLevel reports whether the box participates in an inline
// formatting context.
func (s *Style) IsInlineLevel() bool {
	return s.Display == DisplayInline || s.Display == DisplayInlineBlock
}
