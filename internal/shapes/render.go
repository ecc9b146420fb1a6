package shapes

import (
	"image"
)

// ImageSpec is the recipe for one sample: canvas size, background and the
// shapes in draw order.
type ImageSpec struct {
	Height     int     `json:"height" yaml:"height"`
	Width      int     `json:"width" yaml:"width"`
	Background Color   `json:"background" yaml:"background"`
	Shapes     []Shape `json:"shapes" yaml:"shapes"`
}

// Render draws the spec. See the package-level Render.
func (s ImageSpec) Render() *image.RGBA {
	return Render(s.Height, s.Width, s.Background, s.Shapes)
}

// Masks builds the image's instance masks. See BuildMasks.
func (s ImageSpec) Masks() *MaskStack {
	return BuildMasks(s.Height, s.Width, s.Shapes)
}

// Render fills a height x width canvas with bg and draws shapes in order,
// so each shape hides whatever was drawn before it. Fills are hard-edged and
// fully opaque.
func Render(height, width int, bg Color, shapes []Shape) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return img
	}
	fillRow(img, 0, 0, width-1, bg)
	for y := 1; y < height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+4*width], img.Pix[:4*width])
	}

	for _, s := range shapes {
		rasterize(s, width, height, func(y, x0, x1 int) {
			fillRow(img, y, x0, x1, s.Color)
		})
	}
	return img
}

func fillRow(img *image.RGBA, y, x0, x1 int, c Color) {
	row := img.Pix[y*img.Stride:]
	for x := x0; x <= x1; x++ {
		i := 4 * x
		row[i] = c.R
		row[i+1] = c.G
		row[i+2] = c.B
		row[i+3] = 0xff
	}
}
