package shapes

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = Color{R: 200, G: 10, B: 10}
	blue  = Color{R: 10, G: 10, B: 200}
	green = Color{R: 10, G: 200, B: 10}
	gray  = Color{R: 128, G: 128, B: 128}
)

// pixel returns the color at (x, y) of a rendered image.
func pixel(t *testing.T, spec ImageSpec, x, y int) Color {
	t.Helper()
	img := spec.Render()
	i := img.PixOffset(x, y)
	return Color{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]}
}

func countCovered(s Shape, width, height int) int {
	n := 0
	rasterize(s, width, height, func(y, x0, x1 int) {
		n += x1 - x0 + 1
	})
	return n
}

func TestRasterize_Square(t *testing.T) {
	s := Shape{Kind: Square, X: 10, Y: 10, Size: 3}
	assert.Equal(t, 7*7, countCovered(s, 32, 32))
}

func TestRasterize_Circle(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, 1},
		{1, 5},
		{2, 13},
		{3, 29},
	}
	for _, tt := range tests {
		s := Shape{Kind: Circle, X: 10, Y: 10, Size: tt.size}
		assert.Equal(t, tt.want, countCovered(s, 32, 32), "radius %d", tt.size)
	}
}

func TestRasterize_TriangleRows(t *testing.T) {
	s := Shape{Kind: Triangle, X: 50, Y: 50, Size: 20}
	half := triangleHalfBase(20) // ~23.09
	wantLeft := int(50 - half)
	wantRight := int(50 + half)

	rows := map[int][2]int{}
	rasterize(s, 100, 100, func(y, x0, x1 int) {
		rows[y] = [2]int{x0, x1}
	})

	require.Len(t, rows, 41)
	assert.Equal(t, [2]int{50, 50}, rows[30], "apex row is a single pixel")
	assert.Equal(t, [2]int{wantLeft, wantRight}, rows[70], "base row spans the truncated corners")

	// Rows widen monotonically from apex to base.
	for y := 31; y <= 70; y++ {
		assert.LessOrEqual(t, rows[y][0], rows[y-1][0], "row %d left edge", y)
		assert.GreaterOrEqual(t, rows[y][1], rows[y-1][1], "row %d right edge", y)
	}
}

func TestRasterize_ClipsToCanvas(t *testing.T) {
	s := Shape{Kind: Square, X: 0, Y: 0, Size: 5}
	assert.Equal(t, 6*6, countCovered(s, 32, 32))
}

func TestRasterize_HugeShapeVisitsOnlyCanvasRows(t *testing.T) {
	for _, k := range Kinds {
		s := Shape{Kind: k, X: 16, Y: 16, Size: 1 << 20}
		rows := 0
		covered := 0
		rasterize(s, 32, 32, func(y, x0, x1 int) {
			rows++
			covered += x1 - x0 + 1
		})
		assert.Equal(t, 32, rows, "%s rows", k)
		assert.Equal(t, 32*32, covered, "%s covers the whole canvas", k)
	}
}

func TestRasterize_OffCanvas(t *testing.T) {
	for _, k := range Kinds {
		assert.Zero(t, countCovered(Shape{Kind: k, X: 16, Y: 1000, Size: 5}, 32, 32), "%s below", k)
		assert.Zero(t, countCovered(Shape{Kind: k, X: 16, Y: -1000, Size: 5}, 32, 32), "%s above", k)
	}
}

func TestIsqrt(t *testing.T) {
	for n := 0; n < 2000; n++ {
		r := isqrt(n)
		assert.LessOrEqual(t, r*r, n)
		assert.Greater(t, (r+1)*(r+1), n)
	}
	assert.Equal(t, -1, isqrt(-4))
}

func TestFloorCeilDiv(t *testing.T) {
	tests := []struct{ a, b, floor, ceil int }{
		{7, 2, 3, 4},
		{-7, 2, -4, -3},
		{6, 3, 2, 2},
		{-6, 3, -2, -2},
		{0, 5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.floor, floorDiv(tt.a, tt.b), "floorDiv(%d,%d)", tt.a, tt.b)
		assert.Equal(t, tt.ceil, ceilDiv(tt.a, tt.b), "ceilDiv(%d,%d)", tt.a, tt.b)
	}
}

func TestRender_Background(t *testing.T) {
	img := Render(16, 24, gray, nil)
	require.Equal(t, 24, img.Bounds().Dx())
	require.Equal(t, 16, img.Bounds().Dy())
	for i := 0; i < len(img.Pix); i += 4 {
		require.Equal(t, []uint8{128, 128, 128, 255}, img.Pix[i:i+4])
	}
}

func TestRender_LaterShapeOccludes(t *testing.T) {
	spec := twoSquares()

	assert.Equal(t, red, pixel(t, spec, 40, 40), "first square only")
	assert.Equal(t, blue, pixel(t, spec, 60, 60), "overlap shows later square")
	assert.Equal(t, blue, pixel(t, spec, 80, 80), "second square only")
	assert.Equal(t, gray, pixel(t, spec, 100, 20), "background")
}

func TestRender_Deterministic(t *testing.T) {
	spec := ImageSpec{Height: 128, Width: 128, Background: gray, Shapes: []Shape{
		{Kind: Triangle, Color: red, X: 60, Y: 60, Size: 30},
		{Kind: Circle, Color: green, X: 80, Y: 40, Size: 21},
	}}
	a := spec.Render()
	b := spec.Render()
	assert.True(t, bytes.Equal(a.Pix, b.Pix))
}

func TestRender_EmptyCanvas(t *testing.T) {
	img := Render(0, 10, gray, []Shape{{Kind: Square, X: 1, Y: 1, Size: 1}})
	assert.Empty(t, img.Pix)
}

// twoSquares returns a 128x128 spec with a red square under a blue one.
// Red covers [30,70]^2, blue covers [50,90]^2, overlap [50,70]^2.
func twoSquares() ImageSpec {
	return ImageSpec{
		Height:     128,
		Width:      128,
		Background: gray,
		Shapes: []Shape{
			{Kind: Square, Color: red, X: 50, Y: 50, Size: 20},
			{Kind: Square, Color: blue, X: 70, Y: 70, Size: 20},
		},
	}
}
