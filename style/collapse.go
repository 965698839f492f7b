package style

import "github.com/gogpu/uicore"

// BorderStyle is the line style of one border side. The declaration
// order is not the conflict priority; see collapsePriority.
type BorderStyle uint8

const (
	BorderStyleNone BorderStyle = iota
	BorderStyleSolid
	BorderStyleDashed
	BorderStyleDotted
	BorderStyleDouble
	BorderStyleGroove
	BorderStyleRidge
	BorderStyleInset
	BorderStyleOutset
	BorderStyleHidden
)

var borderStyleNames = [...]string{
	BorderStyleNone:   "none",
	BorderStyleSolid:  "solid",
	BorderStyleDashed: "dashed",
	BorderStyleDotted: "dotted",
	BorderStyleDouble: "double",
	BorderStyleGroove: "groove",
	BorderStyleRidge:  "ridge",
	BorderStyleInset:  "inset",
	BorderStyleOutset: "outset",
	BorderStyleHidden: "hidden",
}

// String returns the CSS keyword for the border style.
func (s BorderStyle) String() string {
	if int(s) < len(borderStyleNames) {
		return borderStyleNames[s]
	}
	return "unknown"
}

// DrawsLine reports whether the style paints anything.
func (s BorderStyle) DrawsLine() bool {
	return s != BorderStyleNone && s != BorderStyleHidden
}

// Border is one side of a box border.
type Border struct {
	Width float64
	Style BorderStyle
	Color uicore.Color
}

// IsVisible reports whether the border paints anything.
func (b Border) IsVisible() bool {
	return b.Style.DrawsLine() && b.Width > 0 && !b.Color.IsTransparent()
}

// BorderSource identifies which table part declared a border, for
// conflict resolution under border-collapse. Smaller values win.
type BorderSource uint8

const (
	SourceCell BorderSource = iota
	SourceRow
	SourceRowGroup
	SourceColumn
	SourceColumnGroup
	SourceTable
)

// EdgeBorder is a border candidate at a shared table edge.
type EdgeBorder struct {
	Border
	Source BorderSource
}

// collapsePriority ranks border styles for the collapse conflict
// resolution: double > solid > dashed > dotted > ridge > outset >
// groove > inset > none. Higher is stronger. Hidden is handled before
// this table applies.
var collapsePriority = [...]int{
	BorderStyleDouble: 8,
	BorderStyleSolid:  7,
	BorderStyleDashed: 6,
	BorderStyleDotted: 5,
	BorderStyleRidge:  4,
	BorderStyleOutset: 3,
	BorderStyleGroove: 2,
	BorderStyleInset:  1,
	BorderStyleNone:   0,
}

// CollapseBorders resolves the winning border at a shared edge under
// border-collapse: collapse. The total ordering, applied in sequence:
//
//  1. hidden suppresses the edge entirely (no border is drawn)
//  2. the wider border wins
//  3. stronger style wins (see collapsePriority)
//  4. the source closer to the cell wins (cell > row > rowgroup >
//     column > columngroup > table)
//  5. the borders are identical; either is returned
//
// The resolution is commutative and associative, so it can be folded
// over any number of candidates in any order. A hidden winner keeps
// the Hidden style (it absorbs every later candidate) and renders no
// border; callers must check DrawsLine, not just Width.
func CollapseBorders(a, b EdgeBorder) EdgeBorder {
	if a.Style == BorderStyleHidden || b.Style == BorderStyleHidden {
		return EdgeBorder{Border: Border{Style: BorderStyleHidden}}
	}
	if a.Width != b.Width {
		if a.Width > b.Width {
			return a
		}
		return b
	}
	pa, pb := collapsePriority[a.Style], collapsePriority[b.Style]
	if pa != pb {
		if pa > pb {
			return a
		}
		return b
	}
	if a.Source != b.Source {
		if a.Source < b.Source {
			return a
		}
		return b
	}
	return a
}

// CollapseAll folds CollapseBorders over all candidates. With no
// candidates it returns the empty (none) border.
func CollapseAll(candidates ...EdgeBorder) EdgeBorder {
	if len(candidates) == 0 {
		return EdgeBorder{Source: SourceTable} // empty edge: no border
	}
	winner := candidates[0]
	for _, c := range candidates[1:] {
		winner = CollapseBorders(winner, c)
	}
	return winner
}
