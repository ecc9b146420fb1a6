package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex string   `json:"hex"` // "#RRGGBB"
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`
}

// DescribeColor reports an 8-bit RGB color as hex, RGB and HSL.
func DescribeColor(r, g, b uint8) ColorResult {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	return ColorResult{
		Hex: strings.ToUpper(c.Hex()),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Coordinates are 0-based with origin at top-left. An error is returned when
// (x, y) is outside the image bounds.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if !image.Pt(x, y).In(bounds) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	result := DescribeColor(c.R, c.G, c.B)
	return &result, nil
}

// LabeledPoint represents a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	X     int
	Y     int
	Label string
}

// LabeledColorResult combines a color sample with its location, its label and
// the instance covering it.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`

	// Instance is the index of the visible shape at (X, Y), or -1 for
	// background. It is only set by SampleSpecColors.
	Instance *int `json:"instance,omitempty"`
}

// MultiColorResult contains color samples from multiple points, in input
// order.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"`
}

// SampleColorsMulti extracts colors at multiple pixel coordinates in a single
// call. If any coordinate is out of bounds, no partial results are returned.
func SampleColorsMulti(img image.Image, points []LabeledPoint) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		c, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *c,
		})
	}

	return &MultiColorResult{Samples: results}, nil
}

// SampleSpecColors samples a rendered sample and annotates every point with
// the visible instance that owns it according to the sample's masks.
func SampleSpecColors(r *Rendered, points []LabeledPoint) (*MultiColorResult, error) {
	result, err := SampleColorsMulti(r.Image, points)
	if err != nil {
		return nil, err
	}
	bounds := r.Image.Bounds()
	owners, _ := r.Masks.Owners(bounds.Dx(), bounds.Dy())
	for i := range result.Samples {
		s := &result.Samples[i]
		owner := owners[s.Y*bounds.Dx()+s.X]
		s.Instance = &owner
	}
	return result, nil
}

// ShapeColor is the declared color of one shape in a sample.
type ShapeColor struct {
	Index int         `json:"index"`
	Kind  string      `json:"kind"`
	Color ColorResult `json:"color"`
}

// PaletteResult lists the background and shape colors of a sample.
type PaletteResult struct {
	Background ColorResult  `json:"background"`
	Shapes     []ShapeColor `json:"shapes"`
}

// SpecPalette describes the colors a sample was drawn with.
func SpecPalette(spec shapes.ImageSpec) *PaletteResult {
	bg := spec.Background
	out := &PaletteResult{
		Background: DescribeColor(bg.R, bg.G, bg.B),
		Shapes:     make([]ShapeColor, len(spec.Shapes)),
	}
	for i, s := range spec.Shapes {
		out.Shapes[i] = ShapeColor{
			Index: i,
			Kind:  s.Kind.String(),
			Color: DescribeColor(s.Color.R, s.Color.G, s.Color.B),
		}
	}
	return out
}
