package text

import (
	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/style"
)

// ItemType discriminates inline content items.
type ItemType uint8

const (
	// ItemText is a styled text run.
	ItemText ItemType = iota
	// ItemImage is an inline replaced box with intrinsic size.
	ItemImage
	// ItemShape is an opaque inline-block placeholder measured by the
	// caller (nested layout results flow through here).
	ItemShape
	// ItemSpace is an explicit spacing item.
	ItemSpace
	// ItemLineBreak forces a hard break.
	ItemLineBreak
)

var itemTypeNames = [...]string{
	ItemText:      "text",
	ItemImage:     "image",
	ItemShape:     "shape",
	ItemSpace:     "space",
	ItemLineBreak: "line-break",
}

func (t ItemType) String() string {
	if int(t) < len(itemTypeNames) {
		return itemTypeNames[t]
	}
	return "unknown"
}

// RunStyle carries the font selection and spacing of a text run.
type RunStyle struct {
	Families []string
	Size     float64 // pixels per em
	Weight   int
	Style    style.FontStyle
	Stretch  style.FontStretch
	Lang     string

	LetterSpacing float64
	WordSpacing   float64

	// CombineDigits packs runs of up to N digits into one upright
	// horizontal cell in vertical flow (tate-chu-yoko); zero disables.
	CombineDigits int
}

// InlineItem is one piece of inline content.
type InlineItem struct {
	Type ItemType

	// Text and Style apply to ItemText.
	Text  string
	Style RunStyle

	// Size is the intrinsic size of ItemImage / ItemShape.
	Size uicore.Size

	// Baseline is the distance from the top of an image/shape to its
	// alignment baseline; zero aligns the bottom edge to the baseline.
	Baseline float64

	// Space behavior for ItemSpace.
	Breaking bool // a break opportunity
	Stretchy bool // participates in justification
	Width    float64
}

// TextItem builds a text run item.
func TextItem(s string, rs RunStyle) InlineItem {
	return InlineItem{Type: ItemText, Text: s, Style: rs}
}

// ImageItem builds an inline image item.
func ImageItem(size uicore.Size) InlineItem {
	return InlineItem{Type: ItemImage, Size: size}
}

// ShapeItem builds an inline placeholder with a precomputed size.
func ShapeItem(size uicore.Size, baseline float64) InlineItem {
	return InlineItem{Type: ItemShape, Size: size, Baseline: baseline}
}

// SpaceItem builds an explicit space.
func SpaceItem(width float64, breaking, stretchy bool) InlineItem {
	return InlineItem{Type: ItemSpace, Width: width, Breaking: breaking, Stretchy: stretchy}
}

// BreakItem builds a forced line break.
func BreakItem() InlineItem { return InlineItem{Type: ItemLineBreak} }

// runeCount returns the number of runes the item contributes to the
// flattened logical text (non-text items count as one object rune).
func (it *InlineItem) runeCount() int {
	if it.Type == ItemText {
		n := 0
		for range it.Text {
			n++
		}
		return n
	}
	return 1
}

// TotalRunes sums the logical rune length of an item sequence.
func TotalRunes(items []InlineItem) int {
	n := 0
	for i := range items {
		n += items[i].runeCount()
	}
	return n
}
