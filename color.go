package uicore

import "fmt"

// Color is an 8-bit sRGB color with straight (non-premultiplied) alpha.
type Color struct {
	R, G, B, A uint8
}

// RGB returns a fully opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// RGBA returns a color with explicit alpha.
func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Common colors.
var (
	ColorTransparent = Color{}
	ColorBlack       = RGB(0, 0, 0)
	ColorWhite       = RGB(255, 255, 255)
)

// IsOpaque reports whether the color is fully opaque.
func (c Color) IsOpaque() bool { return c.A == 255 }

// IsTransparent reports whether the color is fully transparent.
func (c Color) IsTransparent() bool { return c.A == 0 }

// String returns the color as a #rrggbbaa hex string.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
