package shapes

import (
	"image"
)

// VerifyResult reports how well a rendered image and its masks agree.
type VerifyResult struct {
	// TotalPixels is Width*Height.
	TotalPixels int `json:"total_pixels"`

	// ForegroundPixels counts pixels whose color differs from the background.
	ForegroundPixels int `json:"foreground_pixels"`

	// MaskedPixels counts pixels owned by some instance.
	MaskedPixels int `json:"masked_pixels"`

	// OverlapPixels counts pixels claimed by more than one mask.
	OverlapPixels int `json:"overlap_pixels"`

	// Mismatched counts pixels that are masked but background-colored, or
	// colored but unmasked. Nonzero only when a shape color equals the
	// background color.
	Mismatched int `json:"mismatched"`

	// BackgroundCollisions lists the indices of shapes whose color equals the
	// background, which explains any Mismatched pixels.
	BackgroundCollisions []int `json:"background_collisions,omitempty"`

	// OutOfBounds lists shapes that reach past the canvas edge.
	OutOfBounds []int `json:"out_of_bounds,omitempty"`

	// Consistent is true when there are no overlaps and no mismatches.
	Consistent bool `json:"consistent"`
}

// Verify renders spec and checks mask exclusivity and that the union of masks
// equals the set of non-background pixels.
func Verify(spec ImageSpec) *VerifyResult {
	img := spec.Render()
	stack := spec.Masks()
	return Compare(img, stack, spec)
}

// Compare checks an already rendered image and mask stack against spec.
func Compare(img *image.RGBA, stack *MaskStack, spec ImageSpec) *VerifyResult {
	w, h := spec.Width, spec.Height
	owners, conflicts := stack.Owners(w, h)
	bg := spec.Background

	res := &VerifyResult{TotalPixels: w * h, OverlapPixels: conflicts}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			colored := img.Pix[i] != bg.R || img.Pix[i+1] != bg.G || img.Pix[i+2] != bg.B
			masked := owners[y*w+x] >= 0
			if colored {
				res.ForegroundPixels++
			}
			if masked {
				res.MaskedPixels++
			}
			if colored != masked {
				res.Mismatched++
			}
		}
	}

	for i, s := range spec.Shapes {
		if s.Color == bg {
			res.BackgroundCollisions = append(res.BackgroundCollisions, i)
		}
		ex, ey := s.Extent()
		if s.X-ex < 0 || s.Y-ey < 0 || s.X+ex >= w || s.Y+ey >= h {
			res.OutOfBounds = append(res.OutOfBounds, i)
		}
	}

	res.Consistent = res.OverlapPixels == 0 && res.Mismatched == 0
	return res
}
