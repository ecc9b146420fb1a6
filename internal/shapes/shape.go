package shapes

import (
	"fmt"
	"math"
)

// Kind identifies the geometry of a shape.
type Kind int

const (
	Square Kind = iota + 1
	Circle
	Triangle
)

// Kinds lists every shape kind in class-ID order.
var Kinds = []Kind{Square, Circle, Triangle}

// String returns the class name of the kind.
func (k Kind) String() string {
	switch k {
	case Square:
		return "square"
	case Circle:
		return "circle"
	case Triangle:
		return "triangle"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	return k >= Square && k <= Triangle
}

// ClassID returns the class index used in mask stacks. Background is 0.
func (k Kind) ClassID() int32 {
	return int32(k)
}

// ParseKind maps a class name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown shape kind %q", name)
}

// MarshalText encodes the kind as its class name.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Square, Circle, Triangle:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("cannot marshal %s", k)
	}
}

// UnmarshalText decodes a class name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Color is an opaque 8-bit RGB color.
type Color struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// Hex returns the color as "#RRGGBB".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Shape is one sampled object: its kind, color, center and half-extent.
type Shape struct {
	Kind  Kind  `json:"kind" yaml:"kind"`
	Color Color `json:"color" yaml:"color"`
	X     int   `json:"x" yaml:"x"`
	Y     int   `json:"y" yaml:"y"`
	Size  int   `json:"size" yaml:"size"`
}

// Box returns the shape's bounding box used for overlap filtering.
func (s Shape) Box() Box {
	return Box{Top: s.Y - s.Size, Left: s.X - s.Size, Bottom: s.Y + s.Size, Right: s.X + s.Size}
}

// Extent returns how far the shape reaches from its center along each axis,
// as (horizontal, vertical). Triangles are wider than their size because the
// base corners sit at x ± s/sin(60°).
func (s Shape) Extent() (int, int) {
	return extent(s.Kind, s.Size), s.Size
}

// String describes the shape for logs and image references.
func (s Shape) String() string {
	return fmt.Sprintf("%s %s at (%d,%d) size %d", s.Color.Hex(), s.Kind, s.X, s.Y, s.Size)
}

// sin60 is written with Sqrt rather than Sin so the value is bit-exact on
// every platform.
var sin60 = math.Sqrt(3) / 2

// triangleHalfBase returns s/sin(60°), the distance from the apex column to
// either base corner.
func triangleHalfBase(s int) float64 {
	return float64(s) / sin60
}

func extent(k Kind, s int) int {
	switch k {
	case Square, Circle:
		return s
	case Triangle:
		return int(math.Ceil(triangleHalfBase(s)))
	default:
		panic(fmt.Sprintf("shapes: unhandled kind %d", int(k)))
	}
}

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	Top    int `json:"top" yaml:"top"`
	Left   int `json:"left" yaml:"left"`
	Bottom int `json:"bottom" yaml:"bottom"`
	Right  int `json:"right" yaml:"right"`
}

// Area returns (Bottom-Top)*(Right-Left), or 0 for an inverted box.
func (b Box) Area() int {
	h := b.Bottom - b.Top
	w := b.Right - b.Left
	if h <= 0 || w <= 0 {
		return 0
	}
	return h * w
}

// IsZero reports whether every coordinate is 0.
func (b Box) IsZero() bool {
	return b == Box{}
}
