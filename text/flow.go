package text

import (
	"sort"

	"github.com/gogpu/uicore"
)

// OverflowBehavior decides what happens to content that exceeds a flow
// area's block constraint.
type OverflowBehavior uint8

const (
	// OverflowVisible keeps laying out past the constraint.
	OverflowVisible OverflowBehavior = iota
	// OverflowHidden lays out past the constraint; the renderer clips.
	OverflowHidden
	// OverflowScroll lays out past the constraint; the host scrolls.
	OverflowScroll
	// OverflowAuto behaves like scroll when content overflows.
	OverflowAuto
	// OverflowBreak stops at the constraint and reports a remainder
	// for the next fragment in the flow chain.
	OverflowBreak
)

var overflowNames = [...]string{
	OverflowVisible: "visible",
	OverflowHidden:  "hidden",
	OverflowScroll:  "scroll",
	OverflowAuto:    "auto",
	OverflowBreak:   "break",
}

func (o OverflowBehavior) String() string {
	if int(o) < len(overflowNames) {
		return overflowNames[o]
	}
	return "unknown"
}

// FlowArea is one region text flows through: an inline x block
// constraint minus exclusion rectangles.
type FlowArea struct {
	// Width is the inline-axis constraint; <= 0 means unconstrained.
	Width float64
	// Height is the block-axis constraint; 0 means unbounded.
	Height float64
	// Exclusions are rectangles (in area coordinates) lines must not
	// intersect.
	Exclusions []uicore.Rect
	// Overflow applies when Height is exhausted.
	Overflow OverflowBehavior
}

// unconstrainedWidth stands in for a missing inline constraint.
const unconstrainedWidth = 1e9

func (a *FlowArea) width() float64 {
	if a.Width <= 0 {
		return unconstrainedWidth
	}
	return a.Width
}

// segmentAt returns the widest free segment of the line band
// [y, y+lineH) after subtracting exclusions. ok is false when
// exclusions cover the whole band.
func (a *FlowArea) segmentAt(y, lineH float64) (x, w float64, ok bool) {
	full := a.width()
	band := uicore.Rect{X: 0, Y: y, W: full, H: lineH}

	// Collect the blocked x-intervals of this band.
	type iv struct{ lo, hi float64 }
	var blocked []iv
	for _, ex := range a.Exclusions {
		if !ex.Intersects(band) {
			continue
		}
		blocked = append(blocked, iv{lo: ex.X, hi: ex.MaxX()})
	}
	if len(blocked) == 0 {
		return 0, full, true
	}
	sort.Slice(blocked, func(i, j int) bool { return blocked[i].lo < blocked[j].lo })

	// Walk the gaps, keeping the widest.
	bestW := 0.0
	bestX := 0.0
	cursor := 0.0
	for _, b := range blocked {
		if b.lo > cursor && b.lo-cursor > bestW {
			bestW = b.lo - cursor
			bestX = cursor
		}
		if b.hi > cursor {
			cursor = b.hi
		}
	}
	if full > cursor && full-cursor > bestW {
		bestW = full - cursor
		bestX = cursor
	}
	if bestW <= 0 {
		return 0, 0, false
	}
	return bestX, bestW, true
}

// FlowFragment is one link in a fragmentation chain.
type FlowFragment struct {
	ID   uint32
	Area FlowArea
}

// FragmentResult pairs a fragment id with the layout it received.
type FragmentResult struct {
	ID uint32
	Result
}
