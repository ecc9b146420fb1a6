package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

// EncodeResult contains a PNG image ready to hand to an MCP client.
type EncodeResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as base64 PNG, resized by scale first when scale is
// positive and not 1.
func EncodePNG(img image.Image, scale float64) (*EncodeResult, error) {
	out := Scale(img, scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodeResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Scale resizes img by factor with nearest-neighbor sampling. A factor of 1
// or below/equal to 0 returns img unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor == 1.0 || factor <= 0 {
		return img
	}
	w := max(int(float64(img.Bounds().Dx())*factor), 1)
	h := max(int(float64(img.Bounds().Dy())*factor), 1)
	return imaging.Resize(img, w, h, imaging.NearestNeighbor)
}

// Crop extracts a rectangular region from an image and encodes it.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*EncodeResult, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return EncodePNG(imaging.Crop(img, image.Rect(x1, y1, x2, y2)), scale)
}

// EncodeMask encodes a mask as a grayscale PNG, white where set.
func EncodeMask(m *shapes.Mask, scale float64) (*EncodeResult, error) {
	return EncodePNG(m.Gray(), scale)
}

// DecodeMask parses a base64 PNG (optionally a data URL) into a mask. The
// image must be width x height.
func DecodeMask(b64 string, width, height int) (*shapes.Mask, error) {
	if i := strings.Index(b64, ","); i != -1 && strings.HasPrefix(b64, "data:") {
		b64 = b64[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 mask: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode mask image: %w", err)
	}
	if img.Bounds().Dx() != width || img.Bounds().Dy() != height {
		return nil, fmt.Errorf("mask is %dx%d, expected %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), width, height)
	}
	return shapes.MaskFromImage(img), nil
}
