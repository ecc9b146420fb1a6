package shapes

import (
	"fmt"
	"math"
)

// spanFunc receives one horizontal run of covered pixels, x0..x1 inclusive.
type spanFunc func(y, x0, x1 int)

// rasterize calls fn for every row of pixels covered by s, clipped to a
// width x height canvas. Rendering and mask building both go through here so
// an image and its masks always agree pixel for pixel.
func rasterize(s Shape, width, height int, fn spanFunc) {
	emit := func(y, x0, x1 int) {
		if y < 0 || y >= height {
			return
		}
		x0 = max(x0, 0)
		x1 = min(x1, width-1)
		if x0 <= x1 {
			fn(y, x0, x1)
		}
	}

	switch s.Kind {
	case Square:
		y0, y1 := rowRange(s.Y-s.Size, s.Y+s.Size, height)
		for y := y0; y <= y1; y++ {
			emit(y, s.X-s.Size, s.X+s.Size)
		}
	case Circle:
		r2 := s.Size * s.Size
		y0, y1 := rowRange(s.Y-s.Size, s.Y+s.Size, height)
		for y := y0; y <= y1; y++ {
			dy := y - s.Y
			dx := isqrt(r2 - dy*dy)
			emit(y, s.X-dx, s.X+dx)
		}
	case Triangle:
		rasterizeTriangle(s, height, emit)
	default:
		panic(fmt.Sprintf("shapes: unhandled kind %d", int(s.Kind)))
	}
}

// rasterizeTriangle fills the triangle with apex (x, y-s) and base corners
// (x -/+ s/sin60, y+s), truncated to integers. A pixel is covered when its
// center lies inside the closed triangle; edge positions are computed with
// exact rational arithmetic.
func rasterizeTriangle(s Shape, height int, emit spanFunc) {
	half := triangleHalfBase(s.Size)
	ax, ay := s.X, s.Y-s.Size
	by := s.Y + s.Size
	lx := int(float64(s.X) - half)
	rx := int(float64(s.X) + half)

	den := by - ay
	if den == 0 {
		emit(ay, lx, rx)
		return
	}
	y0, y1 := rowRange(ay, by, height)
	for y := y0; y <= y1; y++ {
		dy := y - ay
		left := ceilDiv(ax*den+(lx-ax)*dy, den)
		right := floorDiv(ax*den+(rx-ax)*dy, den)
		emit(y, left, right)
	}
}

// rowRange clips the rows y0..y1 to a canvas of the given height. The result
// is empty (y0 > y1) when nothing is visible.
func rowRange(y0, y1, height int) (int, int) {
	return max(y0, 0), min(y1, height-1)
}

// isqrt returns the largest r with r*r <= n, or -1 for negative n.
func isqrt(n int) int {
	if n < 0 {
		return -1
	}
	r := int(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
