package shapes

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when Params cannot produce a valid sample.
	ErrInvalidConfig = errors.New("invalid shapes configuration")

	// ErrUnknownImage is returned for a sample ID the dataset never generated.
	ErrUnknownImage = errors.New("unknown image id")
)

// Default generation parameters.
const (
	DefaultHeight       = 128
	DefaultWidth        = 128
	DefaultMinShapes    = 1
	DefaultMaxShapes    = 4
	DefaultMargin       = 20
	DefaultSizeDivisor  = 4
	DefaultIoUThreshold = 0.3
)

// MaxImageSide bounds Height and Width.
const MaxImageSide = 4096

// Params controls sample generation.
type Params struct {
	// Height and Width are the image dimensions in pixels.
	Height int `json:"height" yaml:"height"`
	Width  int `json:"width" yaml:"width"`

	// MinShapes and MaxShapes bound the number of shapes sampled per image
	// before overlap filtering. Both are inclusive.
	MinShapes int `json:"min_shapes" yaml:"min_shapes"`
	MaxShapes int `json:"max_shapes" yaml:"max_shapes"`

	// Margin is the minimum distance from a shape's center to the image edge,
	// and also the smallest shape size.
	Margin int `json:"margin" yaml:"margin"`

	// SizeDivisor caps shape size at Height/SizeDivisor.
	SizeDivisor int `json:"size_divisor" yaml:"size_divisor"`

	// IoUThreshold is the overlap above which a lower-priority shape is dropped.
	IoUThreshold float64 `json:"iou_threshold" yaml:"iou_threshold"`

	// Priority decides which of two overlapping shapes survives.
	Priority Priority `json:"priority" yaml:"priority"`
}

// DefaultParams returns the reference configuration for the given image size.
func DefaultParams(height, width int) Params {
	return Params{
		Height:       height,
		Width:        width,
		MinShapes:    DefaultMinShapes,
		MaxShapes:    DefaultMaxShapes,
		Margin:       DefaultMargin,
		SizeDivisor:  DefaultSizeDivisor,
		IoUThreshold: DefaultIoUThreshold,
		Priority:     PriorityFirstSampled,
	}
}

// MaxSize returns the largest size the sampler can draw.
func (p Params) MaxSize() int {
	return p.Height / p.SizeDivisor
}

// Validate checks that every sampling range is non-empty.
func (p Params) Validate() error {
	switch {
	case p.Height <= 0 || p.Width <= 0:
		return fmt.Errorf("%w: image size %dx%d must be positive", ErrInvalidConfig, p.Width, p.Height)
	case p.Height > MaxImageSide || p.Width > MaxImageSide:
		return fmt.Errorf("%w: image size %dx%d exceeds %d px per side", ErrInvalidConfig, p.Width, p.Height, MaxImageSide)
	case p.MinShapes < 1:
		return fmt.Errorf("%w: min_shapes %d must be at least 1", ErrInvalidConfig, p.MinShapes)
	case p.MaxShapes < p.MinShapes:
		return fmt.Errorf("%w: max_shapes %d is below min_shapes %d", ErrInvalidConfig, p.MaxShapes, p.MinShapes)
	case p.Margin < 0:
		return fmt.Errorf("%w: margin %d must not be negative", ErrInvalidConfig, p.Margin)
	case p.SizeDivisor < 1:
		return fmt.Errorf("%w: size_divisor %d must be at least 1", ErrInvalidConfig, p.SizeDivisor)
	case p.IoUThreshold < 0 || p.IoUThreshold > 1:
		return fmt.Errorf("%w: iou_threshold %g outside [0,1]", ErrInvalidConfig, p.IoUThreshold)
	}
	if !p.Priority.valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidConfig, p.Priority)
	}
	if p.MaxSize() < p.Margin {
		return fmt.Errorf("%w: height/%d = %d is below margin %d, no size can be sampled",
			ErrInvalidConfig, p.SizeDivisor, p.MaxSize(), p.Margin)
	}

	// The widest shape is a triangle of maximum size; it must fit with its
	// center range non-empty on both axes.
	reachX := max(p.Margin, extent(Triangle, p.MaxSize()))
	reachY := max(p.Margin, p.MaxSize())
	if p.Width < 2*reachX+1 {
		return fmt.Errorf("%w: width %d cannot hold a shape reaching %d px from its center",
			ErrInvalidConfig, p.Width, reachX)
	}
	if p.Height < 2*reachY+1 {
		return fmt.Errorf("%w: height %d cannot hold a shape reaching %d px from its center",
			ErrInvalidConfig, p.Height, reachY)
	}
	return nil
}
