package shapes

import (
	"math/rand/v2"
)

// Source supplies random integers. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// IntN returns a uniform integer in [0, n). n is always positive.
	IntN(n int) int
}

// NewSource returns a deterministic PCG-backed source for the given seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sampler draws random shapes and backgrounds within Params bounds.
//
// A Sampler is not safe for concurrent use; Dataset serializes access to it.
type Sampler struct {
	params Params
	src    Source
}

// NewSampler validates p and returns a sampler drawing from src.
func NewSampler(p Params, src Source) (*Sampler, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Sampler{params: p, src: src}, nil
}

// between returns a uniform integer in [lo, hi].
func (s *Sampler) between(lo, hi int) int {
	return lo + s.src.IntN(hi-lo+1)
}

// Color returns a uniform random RGB color.
func (s *Sampler) Color() Color {
	return Color{
		R: uint8(s.src.IntN(256)),
		G: uint8(s.src.IntN(256)),
		B: uint8(s.src.IntN(256)),
	}
}

// Count returns the number of shapes to sample for one image.
func (s *Sampler) Count() int {
	return s.between(s.params.MinShapes, s.params.MaxShapes)
}

// Shape returns a random shape that lies entirely within the image.
//
// Draw order is kind, color, size, y, x. The center range starts from the
// margin and narrows further when the shape reaches past it, so squares and
// circles of size s keep s pixels of clearance and triangles keep their wider
// base on the canvas.
func (s *Sampler) Shape() Shape {
	p := s.params
	kind := Kinds[s.src.IntN(len(Kinds))]
	c := s.Color()
	size := s.between(p.Margin, p.MaxSize())

	reachY := max(p.Margin, size)
	reachX := max(p.Margin, extent(kind, size))
	y := s.between(reachY, p.Height-reachY-1)
	x := s.between(reachX, p.Width-reachX-1)

	return Shape{Kind: kind, Color: c, X: x, Y: y, Size: size}
}

// Image draws a background color and a filtered list of shapes.
func (s *Sampler) Image() ImageSpec {
	bg := s.Color()
	n := s.Count()
	candidates := make([]Shape, n)
	boxes := make([]Box, n)
	for i := range candidates {
		candidates[i] = s.Shape()
		boxes[i] = candidates[i].Box()
	}

	keep := NonMaxSuppression(boxes, s.params.Priority.Scores(boxes), s.params.IoUThreshold)
	kept := make([]Shape, 0, len(keep))
	for _, i := range keep {
		kept = append(kept, candidates[i])
	}
	return ImageSpec{
		Height:     s.params.Height,
		Width:      s.params.Width,
		Background: bg,
		Shapes:     kept,
	}
}
