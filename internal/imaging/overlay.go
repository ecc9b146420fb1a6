package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

const maskAlpha = 0.5

// DisplayOptions controls what DisplayInstances draws.
type DisplayOptions struct {
	ShowMasks  bool
	ShowBoxes  bool
	ShowLabels bool

	// GridSpacing draws a coordinate grid every N pixels when positive.
	GridSpacing int
	// GridColor is a hex color like "#FF0000". Empty or invalid values fall
	// back to red.
	GridColor string
}

// DefaultDisplayOptions shows masks, boxes and labels without a grid.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{ShowMasks: true, ShowBoxes: true, ShowLabels: true}
}

// RandomColors returns n visually distinct colors with evenly spaced hues at
// full saturation and value. The result is deterministic for a given n.
func RandomColors(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		r, g, b := colorful.Hsv(360*float64(i)/float64(n), 1, 1).RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// DisplayInstances draws every instance of stack over img: a translucent mask
// tint, the mask contour, the bounding box and a "class score" label.
//
// scores may be nil; when present it must have one entry per instance.
// classNames is indexed by class ID.
func DisplayInstances(img image.Image, stack *shapes.MaskStack, classNames []string, scores []float64, opts DisplayOptions) (*image.RGBA, error) {
	n := stack.Len()
	if scores != nil && len(scores) != n {
		return nil, fmt.Errorf("got %d scores for %d instances", len(scores), n)
	}

	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)

	if n == 0 {
		if opts.GridSpacing > 0 {
			drawGrid(out, opts.GridSpacing, opts.GridColor)
		}
		return out, nil
	}

	colors := RandomColors(n)
	boxes := stack.Boxes()
	for i, m := range stack.Masks {
		c := colors[i]
		if opts.ShowMasks {
			applyMask(out, m, c, maskAlpha)
			for _, p := range contour(m) {
				out.SetRGBA(p.X, p.Y, c)
			}
		}
		if opts.ShowBoxes && !boxes[i].IsZero() {
			drawBox(out, boxes[i], c)
		}
	}

	if opts.ShowLabels {
		for i := range stack.Masks {
			if boxes[i].IsZero() {
				continue
			}
			label := className(classNames, stack.ClassIDs[i])
			if scores != nil {
				label = fmt.Sprintf("%s %.3f", label, scores[i])
			}
			drawLabel(out, boxes[i].Left, boxes[i].Top+2, label, color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 160})
		}
	}

	if opts.GridSpacing > 0 {
		drawGrid(out, opts.GridSpacing, opts.GridColor)
	}
	return out, nil
}

// TopMasksResult is a strip with the source image followed by one tile per
// class, each showing the union of that class's masks.
type TopMasksResult struct {
	Image   *image.NRGBA
	Classes []string
}

// DisplayTopMasks shows the union mask of the limit classes covering the most
// pixels, largest first. Classes with the same area are ordered by class ID.
func DisplayTopMasks(img image.Image, stack *shapes.MaskStack, classNames []string, limit int) *TopMasksResult {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	type classArea struct {
		id   int32
		mask *shapes.Mask
		area int
	}
	byClass := map[int32]*classArea{}
	for i, m := range stack.Masks {
		id := stack.ClassIDs[i]
		ca, ok := byClass[id]
		if !ok {
			ca = &classArea{id: id, mask: shapes.NewMask(w, h)}
			byClass[id] = ca
		}
		for j, on := range m.Pix {
			if on {
				ca.mask.Pix[j] = true
			}
		}
	}
	classes := make([]*classArea, 0, len(byClass))
	for _, ca := range byClass {
		ca.area = ca.mask.Count()
		classes = append(classes, ca)
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].area != classes[j].area {
			return classes[i].area > classes[j].area
		}
		return classes[i].id < classes[j].id
	})
	if limit >= 0 && len(classes) > limit {
		classes = classes[:limit]
	}

	const gap = 4
	strip := imaging.New(w+len(classes)*(w+gap), h, color.White)
	strip = imaging.Paste(strip, img, image.Pt(0, 0))

	names := make([]string, len(classes))
	for i, ca := range classes {
		names[i] = className(classNames, ca.id)
		x := (i + 1) * (w + gap)
		strip = imaging.Paste(strip, ca.mask.Gray(), image.Pt(x, 0))
		drawLabel(strip, x+1, 1, names[i], color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 160})
	}
	return &TopMasksResult{Image: strip, Classes: names}
}

func className(names []string, id int32) string {
	if id >= 0 && int(id) < len(names) {
		return names[id]
	}
	return fmt.Sprintf("class %d", id)
}

// applyMask blends c into img where m is set.
func applyMask(img *image.RGBA, m *shapes.Mask, c color.RGBA, alpha float64) {
	tint, _ := colorful.MakeColor(c)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.At(x, y) {
				continue
			}
			base, _ := colorful.MakeColor(img.RGBAAt(x, y))
			r, g, b := base.BlendRgb(tint, alpha).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
}

// contour returns the mask pixels that disappear under a one-pixel erosion.
func contour(m *shapes.Mask) []image.Point {
	eroded := effect.Erode(m.Gray(), 1)
	var pts []image.Point
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.At(x, y) {
				continue
			}
			if r, _, _, _ := eroded.At(x, y).RGBA(); r < 0x8000 {
				pts = append(pts, image.Pt(x, y))
			}
		}
	}
	return pts
}

// drawBox outlines b with a dashed line.
func drawBox(img *image.RGBA, b shapes.Box, c color.RGBA) {
	bounds := img.Bounds()
	set := func(x, y int) {
		if image.Pt(x, y).In(bounds) {
			img.SetRGBA(x, y, c)
		}
	}
	const dash = 3
	for x := b.Left; x < b.Right; x++ {
		if (x-b.Left)/dash%2 == 0 {
			set(x, b.Top)
			set(x, b.Bottom-1)
		}
	}
	for y := b.Top; y < b.Bottom; y++ {
		if (y-b.Top)/dash%2 == 0 {
			set(b.Left, y)
			set(b.Right-1, y)
		}
	}
}

func drawGrid(img *image.RGBA, spacing int, hex string) {
	gridColor := color.RGBA{255, 0, 0, 255}
	if c, err := colorful.Hex(hex); err == nil {
		r, g, b := c.RGB255()
		gridColor = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	bounds := img.Bounds()
	for x := spacing; x < bounds.Dx(); x += spacing {
		for y := 0; y < bounds.Dy(); y++ {
			img.SetRGBA(x, y, gridColor)
		}
	}
	for y := spacing; y < bounds.Dy(); y += spacing {
		for x := 0; x < bounds.Dx(); x++ {
			img.SetRGBA(x, y, gridColor)
		}
	}
}

// drawLabel writes text with its top-left corner at (x, y) on a filled
// background box. Parts falling outside img are clipped.
func drawLabel(img draw.Image, x, y int, text string, fg, bg color.RGBA) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	metrics := face.Metrics()
	width := font.MeasureString(face, text).Ceil()
	height := metrics.Height.Ceil()

	box := image.Rect(x-1, y-1, x+width+1, y+height).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + metrics.Ascent.Ceil())},
	}
	d.DrawString(text)
}
