package shapes

import (
	"image"
	"image/color"
)

// Mask is a binary height x width image marking the pixels of one instance.
type Mask struct {
	Width  int
	Height int
	Pix    []bool // row-major, len Width*Height
}

// NewMask returns an all-false mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is set. Out-of-range coordinates are unset.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks or clears (x, y).
func (m *Mask) Set(x, y int, v bool) {
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Empty reports whether no pixel is set.
func (m *Mask) Empty() bool {
	for _, v := range m.Pix {
		if v {
			return false
		}
	}
	return true
}

// Box returns the tight bounding box of the set pixels as
// (y1, x1, y2, x2) with y2 and x2 exclusive. An empty mask yields the zero Box.
func (m *Mask) Box() Box {
	top, left := m.Height, m.Width
	bottom, right := -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if !v {
				continue
			}
			top = min(top, y)
			bottom = max(bottom, y)
			left = min(left, x)
			right = max(right, x)
		}
	}
	if bottom < 0 {
		return Box{}
	}
	return Box{Top: top, Left: left, Bottom: bottom + 1, Right: right + 1}
}

// Gray returns the mask as an 8-bit image, 255 where set.
func (m *Mask) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v {
			img.Pix[i] = 0xff
		}
	}
	return img
}

// MaskFromImage thresholds img into a mask: any pixel brighter than half
// intensity is set.
func MaskFromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			m.Pix[y*m.Width+x] = g.Y >= 0x80
		}
	}
	return m
}

// MaskStack holds one mask per instance and the matching class IDs.
type MaskStack struct {
	Masks    []*Mask
	ClassIDs []int32
}

// Len returns the number of instances.
func (s *MaskStack) Len() int {
	return len(s.Masks)
}

// Boxes returns the bounding box of every mask, as Mask.Box does.
func (s *MaskStack) Boxes() []Box {
	boxes := make([]Box, len(s.Masks))
	for i, m := range s.Masks {
		boxes[i] = m.Box()
	}
	return boxes
}

// Owners returns, for each pixel, the index of the instance owning it or -1.
// It also reports how many pixels are claimed by more than one mask, which is
// always 0 for stacks built by BuildMasks.
func (s *MaskStack) Owners(width, height int) (owners []int, conflicts int) {
	owners = make([]int, width*height)
	for i := range owners {
		owners[i] = -1
	}
	for k, m := range s.Masks {
		for i, v := range m.Pix {
			if !v {
				continue
			}
			if owners[i] >= 0 {
				conflicts++
				continue
			}
			owners[i] = k
		}
	}
	return owners, conflicts
}

// ShapeMask rasterizes the full silhouette of s, clipped to the canvas.
func ShapeMask(height, width int, s Shape) *Mask {
	m := NewMask(width, height)
	rasterize(s, width, height, func(y, x0, x1 int) {
		row := m.Pix[y*width:]
		for x := x0; x <= x1; x++ {
			row[x] = true
		}
	})
	return m
}

// BuildMasks rasterizes each shape into its own mask and resolves occlusion.
//
// Shapes are walked from the last drawn to the first. The last shape keeps its
// full silhouette; every earlier shape loses the pixels covered by any shape
// drawn after it. Each pixel therefore belongs to at most one instance, the
// one visible on top, and a fully covered shape ends with an empty mask.
func BuildMasks(height, width int, shapes []Shape) *MaskStack {
	stack := &MaskStack{
		Masks:    make([]*Mask, len(shapes)),
		ClassIDs: make([]int32, len(shapes)),
	}
	for i, s := range shapes {
		stack.Masks[i] = ShapeMask(height, width, s)
		stack.ClassIDs[i] = s.Kind.ClassID()
	}

	if len(shapes) < 2 {
		return stack
	}
	visible := make([]bool, width*height)
	for i, v := range stack.Masks[len(shapes)-1].Pix {
		visible[i] = !v
	}
	for k := len(shapes) - 2; k >= 0; k-- {
		pix := stack.Masks[k].Pix
		for i := range pix {
			pix[i] = pix[i] && visible[i]
			visible[i] = visible[i] && !pix[i]
		}
	}
	return stack
}
