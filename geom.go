package uicore

import "math"

// Point represents a 2D point or vector in logical pixels.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Distance returns the distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Size represents a 2D extent in logical pixels.
type Size struct {
	Width, Height float64
}

// IsEmpty reports whether the size has no area.
func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Rect is an axis-aligned rectangle given by its top-left origin and
// its size. The coordinate space has the origin at the document root,
// X increasing right and Y increasing down.
type Rect struct {
	X, Y, W, H float64
}

// RectFromPoints returns the rectangle spanning two corner points.
func RectFromPoints(a, b Point) Rect {
	x0, x1 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y0, y1 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// MaxX returns the right edge of the rectangle.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge of the rectangle.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the extent of the rectangle.
func (r Rect) Size() Size { return Size{Width: r.W, Height: r.H} }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether the point lies inside the rectangle.
// The top and left edges are inclusive, bottom and right exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

// ContainsRect reports whether r fully encloses q.
func (r Rect) ContainsRect(q Rect) bool {
	if q.IsEmpty() {
		return true
	}
	return q.X >= r.X && q.Y >= r.Y && q.MaxX() <= r.MaxX() && q.MaxY() <= r.MaxY()
}

// Intersects reports whether the two rectangles overlap with positive area.
func (r Rect) Intersects(q Rect) bool {
	return r.X < q.MaxX() && q.X < r.MaxX() && r.Y < q.MaxY() && q.Y < r.MaxY()
}

// Intersect returns the overlapping region of two rectangles.
// The zero Rect is returned when they do not overlap.
func (r Rect) Intersect(q Rect) Rect {
	x0 := math.Max(r.X, q.X)
	y0 := math.Max(r.Y, q.Y)
	x1 := math.Min(r.MaxX(), q.MaxX())
	y1 := math.Min(r.MaxY(), q.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Union returns the smallest rectangle containing both r and q.
// Empty rectangles are ignored.
func (r Rect) Union(q Rect) Rect {
	if r.IsEmpty() {
		return q
	}
	if q.IsEmpty() {
		return r
	}
	x0 := math.Min(r.X, q.X)
	y0 := math.Min(r.Y, q.Y)
	x1 := math.Max(r.MaxX(), q.MaxX())
	y1 := math.Max(r.MaxY(), q.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Translate returns the rectangle shifted by the vector d.
func (r Rect) Translate(d Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, W: r.W, H: r.H}
}

// Inflate returns the rectangle grown by dx on the left and right and
// by dy on the top and bottom. Negative values shrink it.
func (r Rect) Inflate(dx, dy float64) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, W: r.W + 2*dx, H: r.H + 2*dy}
}

// Insets stores per-edge distances in physical orientation
// (top, right, bottom, left). Used for margins, padding and border widths.
type Insets struct {
	Top, Right, Bottom, Left float64
}

// Horizontal returns the sum of the left and right insets.
func (in Insets) Horizontal() float64 { return in.Left + in.Right }

// Vertical returns the sum of the top and bottom insets.
func (in Insets) Vertical() float64 { return in.Top + in.Bottom }

// Shrink returns r reduced by the insets on each side.
func (r Rect) Shrink(in Insets) Rect {
	return Rect{
		X: r.X + in.Left,
		Y: r.Y + in.Top,
		W: r.W - in.Horizontal(),
		H: r.H - in.Vertical(),
	}
}

// Grow returns r expanded by the insets on each side.
func (r Rect) Grow(in Insets) Rect {
	return Rect{
		X: r.X - in.Left,
		Y: r.Y - in.Top,
		W: r.W + in.Horizontal(),
		H: r.H + in.Vertical(),
	}
}
