package imaging

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

func decodeResult(t *testing.T, r *EncodeResult) *bytes.Reader {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	return bytes.NewReader(data)
}

func TestEncodePNG(t *testing.T) {
	img := createPatternImage(100, 80)

	result, err := EncodePNG(img, 1.0)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if result.Width != 100 || result.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	decoded, err := png.Decode(decodeResult(t, result))
	if err != nil {
		t.Fatalf("result is not a PNG: %v", err)
	}
	r, g, b, _ := decoded.At(10, 10).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("top-left pixel: got (%d,%d,%d), want red", r>>8, g>>8, b>>8)
	}
}

func TestEncodePNG_ScaleKeepsHardEdges(t *testing.T) {
	img := createPatternImage(10, 10)

	result, err := EncodePNG(img, 3.0)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if result.Width != 30 || result.Height != 30 {
		t.Fatalf("scaled dimensions: got %dx%d, want 30x30", result.Width, result.Height)
	}

	decoded, _ := png.Decode(decodeResult(t, result))
	allowed := map[color.RGBA]bool{
		{255, 0, 0, 255}:     true,
		{0, 255, 0, 255}:     true,
		{0, 0, 255, 255}:     true,
		{255, 255, 255, 255}: true,
	}
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			r, g, b, a := decoded.At(x, y).RGBA()
			c := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
			if !allowed[c] {
				t.Fatalf("pixel (%d,%d) = %v is a blended color", x, y, c)
			}
		}
	}
}

func TestScale_NoOp(t *testing.T) {
	img := createPatternImage(10, 10)
	for _, f := range []float64{1.0, 0, -2} {
		if Scale(img, f) != img {
			t.Errorf("Scale(%v) should return the input unchanged", f)
		}
	}
}

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := Crop(img, 0, 0, 50, 50, 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
}

func TestCrop_WithScale(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	result, err := Crop(img, 0, 0, 50, 50, 2.0)
	if err != nil {
		t.Fatalf("Crop with scale failed: %v", err)
	}
	if result.Width != 100 || result.Height != 100 {
		t.Errorf("scaled dimensions: got %dx%d, want 100x100", result.Width, result.Height)
	}
}

func TestCrop_InvalidRegions(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	tests := []struct {
		name           string
		x1, y1, x2, y2 int
		wantErr        string
	}{
		{"outside bounds", 0, 0, 150, 50, "outside image bounds"},
		{"negative", -5, 0, 50, 50, "outside image bounds"},
		{"inverted", 50, 50, 10, 10, "invalid crop region"},
		{"empty", 10, 10, 10, 20, "invalid crop region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Crop(img, tt.x1, tt.y1, tt.x2, tt.y2, 1.0)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeMask(t *testing.T) {
	m := shapes.NewMask(20, 10)
	for x := 3; x < 9; x++ {
		m.Set(x, 4, true)
	}

	enc, err := EncodeMask(m, 1.0)
	if err != nil {
		t.Fatalf("EncodeMask failed: %v", err)
	}

	back, err := DecodeMask("data:image/png;base64,"+enc.ImageBase64, 20, 10)
	if err != nil {
		t.Fatalf("DecodeMask failed: %v", err)
	}
	if back.Count() != 6 || !back.At(3, 4) || back.At(9, 4) {
		t.Errorf("decoded mask differs: count %d", back.Count())
	}

	if _, err := DecodeMask(enc.ImageBase64, 10, 10); err == nil {
		t.Error("expected size mismatch error")
	}
	if _, err := DecodeMask("not base64!", 20, 10); err == nil {
		t.Error("expected base64 error")
	}
}
