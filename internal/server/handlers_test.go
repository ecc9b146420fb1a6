package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shapegen-mcp/internal/imaging"
	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

// callTool runs one tools/call request and returns the text payload, or the
// JSON-RPC error.
func callTool(t *testing.T, s *Server, name string, args interface{}) (string, *MCPError) {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	require.NoError(t, err)

	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	require.NotNil(t, resp)
	if resp.Error != nil {
		return "", resp.Error
	}
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok, "result should be a map")
	content, ok := result["content"].([]map[string]interface{})
	require.True(t, ok, "content should be a slice")
	require.Len(t, content, 1)
	return content[0]["text"].(string), nil
}

// mustCall is callTool for calls expected to succeed, decoding into T.
func mustCall[T any](t *testing.T, s *Server, name string, args interface{}) T {
	t.Helper()
	text, rpcErr := callTool(t, s, name, args)
	require.Nil(t, rpcErr, "tool %s failed: %+v", name, rpcErr)
	var out T
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func decodePNGSize(t *testing.T, b64 string) (int, int) {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

// knownSpec has three shapes that do not touch each other.
func knownSpec() shapes.ImageSpec {
	return shapes.ImageSpec{
		Height:     128,
		Width:      128,
		Background: shapes.Color{R: 10, G: 20, B: 30},
		Shapes: []shapes.Shape{
			{Kind: shapes.Square, Color: shapes.Color{R: 200}, X: 30, Y: 30, Size: 10},
			{Kind: shapes.Circle, Color: shapes.Color{G: 200}, X: 90, Y: 40, Size: 15},
			{Kind: shapes.Triangle, Color: shapes.Color{B: 200}, X: 60, Y: 95, Size: 14},
		},
	}
}

// knownDataset registers a dataset whose sample 0 is knownSpec.
func knownDataset(t *testing.T, s *Server) string {
	t.Helper()
	e, err := s.registry.Create("known", shapes.DefaultParams(128, 128), 1)
	require.NoError(t, err)
	id, err := e.Dataset.Add(knownSpec())
	require.NoError(t, err)
	require.Equal(t, 0, id)
	return e.ID
}

type generateResponse struct {
	DatasetID string        `json:"dataset_id"`
	Name      string        `json:"name"`
	Count     int           `json:"count"`
	Seed      uint64        `json:"seed"`
	Params    shapes.Params `json:"params"`
	ImageIDs  []int         `json:"image_ids"`
}

func TestHandleGenerate(t *testing.T) {
	s := New(nil)

	res := mustCall[generateResponse](t, s, "shapes_generate", map[string]interface{}{
		"count": 3, "seed": 7, "name": "toy", "width": 160, "priority": "largest",
	})
	assert.NotEmpty(t, res.DatasetID)
	assert.Equal(t, "toy", res.Name)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, uint64(7), res.Seed)
	assert.Equal(t, []int{0, 1, 2}, res.ImageIDs)
	assert.Equal(t, 160, res.Params.Width)
	assert.Equal(t, 128, res.Params.Height, "omitted parameters come from the config")
	assert.Equal(t, shapes.PriorityLargest, res.Params.Priority)

	more := mustCall[generateResponse](t, s, "shapes_generate", map[string]interface{}{
		"dataset_id": res.DatasetID, "count": 2,
	})
	assert.Equal(t, res.DatasetID, more.DatasetID)
	assert.Equal(t, []int{3, 4}, more.ImageIDs)
	assert.Equal(t, 5, more.Count)
}

func TestHandleGenerate_Defaults(t *testing.T) {
	s := New(nil)
	res := mustCall[generateResponse](t, s, "shapes_generate", nil)
	assert.Equal(t, []int{0}, res.ImageIDs)
	assert.Equal(t, shapes.DefaultParams(128, 128), res.Params)
}

func TestHandleGenerate_SameSeedSameSamples(t *testing.T) {
	s := New(nil)
	args := map[string]interface{}{"count": 4, "seed": 11}
	a := mustCall[generateResponse](t, s, "shapes_generate", args)
	b := mustCall[generateResponse](t, s, "shapes_generate", args)
	require.NotEqual(t, a.DatasetID, b.DatasetID)

	for id := 0; id < 4; id++ {
		ra := mustCall[referenceResult](t, s, "shapes_image_reference", map[string]interface{}{"dataset_id": a.DatasetID, "image_id": id})
		rb := mustCall[referenceResult](t, s, "shapes_image_reference", map[string]interface{}{"dataset_id": b.DatasetID, "image_id": id})
		assert.Equal(t, ra, rb, "image %d", id)
	}
}

func TestHandleGenerate_InvalidArguments(t *testing.T) {
	s := New(nil)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"zero count", map[string]interface{}{"count": 0}},
		{"huge count", map[string]interface{}{"count": maxGenerateCount + 1}},
		{"image too small", map[string]interface{}{"height": 30}},
		{"image too large", map[string]interface{}{"height": 100000, "width": 100000}},
		{"one side too large", map[string]interface{}{"width": shapes.MaxImageSide + 1}},
		{"bad priority", map[string]interface{}{"priority": "random"}},
		{"bad threshold", map[string]interface{}{"iou_threshold": 1.5}},
		{"unknown dataset", map[string]interface{}{"dataset_id": "0b5c2f5e-6f3e-4a1b-9a43-5c0f7f1d2e3a"}},
		{"wrong type", map[string]interface{}{"count": "three"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rpcErr := callTool(t, s, "shapes_generate", tt.args)
			require.NotNil(t, rpcErr)
			assert.Equal(t, codeInvalidParams, rpcErr.Code)
		})
	}
	assert.Empty(t, s.registry.List(), "failed calls must not register datasets")
}

func TestHandleListAndDrop(t *testing.T) {
	s := New(nil)
	a := mustCall[generateResponse](t, s, "shapes_generate", map[string]interface{}{"count": 1})
	b := mustCall[generateResponse](t, s, "shapes_generate", map[string]interface{}{"count": 2})

	list := mustCall[listDatasetsResult](t, s, "shapes_list_datasets", nil)
	require.Equal(t, 2, list.Count)

	// Warm the cache so the drop has something to evict.
	mustCall[map[string]interface{}](t, s, "shapes_verify", map[string]interface{}{"dataset_id": a.DatasetID, "image_id": 0})
	require.Equal(t, 1, s.cache.Len())

	mustCall[map[string]interface{}](t, s, "shapes_drop_dataset", map[string]interface{}{"dataset_id": a.DatasetID})
	assert.Zero(t, s.cache.Len())

	list = mustCall[listDatasetsResult](t, s, "shapes_list_datasets", nil)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, b.DatasetID, list.Datasets[0].ID)

	_, rpcErr := callTool(t, s, "shapes_drop_dataset", map[string]interface{}{"dataset_id": a.DatasetID})
	require.NotNil(t, rpcErr)
	assert.Equal(t, codeInvalidParams, rpcErr.Code)
}

func TestHandleDatasetInfo(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	info := mustCall[datasetInfoResult](t, s, "shapes_dataset_info", map[string]interface{}{"dataset_id": dsID})
	assert.Equal(t, []int{0}, info.ImageIDs)
	assert.Equal(t, []string{"BG", "square", "circle", "triangle"}, info.ClassNames)
	assert.Len(t, info.Classes, 4)
	assert.Equal(t, "known", info.Name)
}

func TestHandleSampleTools_UnknownIDs(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"unknown image", map[string]interface{}{"dataset_id": dsID, "image_id": 5}},
		{"negative image", map[string]interface{}{"dataset_id": dsID, "image_id": -1}},
		{"missing image", map[string]interface{}{"dataset_id": dsID}},
		{"malformed dataset", map[string]interface{}{"dataset_id": "nope", "image_id": 0}},
	}

	for _, tool := range []string{"shapes_load_image", "shapes_load_mask", "shapes_image_reference", "shapes_verify"} {
		for _, tt := range tests {
			t.Run(tool+"/"+tt.name, func(t *testing.T) {
				_, rpcErr := callTool(t, s, tool, tt.args)
				require.NotNil(t, rpcErr)
				assert.Equal(t, codeInvalidParams, rpcErr.Code)
			})
		}
	}
}

func TestHandleLoadImage(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	res := mustCall[imaging.EncodeResult](t, s, "shapes_load_image", map[string]interface{}{"dataset_id": dsID, "image_id": 0})
	w, h := decodePNGSize(t, res.ImageBase64)
	assert.Equal(t, 128, w)
	assert.Equal(t, 128, h)
	assert.Equal(t, "image/png", res.MimeType)

	scaled := mustCall[imaging.EncodeResult](t, s, "shapes_load_image", map[string]interface{}{"dataset_id": dsID, "image_id": 0, "scale": 2})
	assert.Equal(t, 256, scaled.Width)

	crop := mustCall[imaging.EncodeResult](t, s, "shapes_load_image", map[string]interface{}{
		"dataset_id": dsID, "image_id": 0, "x1": 20, "y1": 20, "x2": 41, "y2": 41,
	})
	assert.Equal(t, 21, crop.Width)
	assert.Equal(t, 21, crop.Height)

	_, rpcErr := callTool(t, s, "shapes_load_image", map[string]interface{}{
		"dataset_id": dsID, "image_id": 0, "x1": 0, "y1": 0, "x2": 500, "y2": 10,
	})
	require.NotNil(t, rpcErr)
	assert.Equal(t, codeToolFailed, rpcErr.Code)
}

func TestHandleLoadMask(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	res := mustCall[loadMaskResult](t, s, "shapes_load_mask", map[string]interface{}{"dataset_id": dsID, "image_id": 0})
	assert.Equal(t, []int32{1, 2, 3}, res.ClassIDs)
	require.Len(t, res.Masks, 3)

	square := res.Masks[0]
	assert.Equal(t, "square", square.ClassName)
	assert.Equal(t, 21*21, square.Pixels)
	assert.Equal(t, shapes.Box{Top: 20, Left: 20, Bottom: 41, Right: 41}, square.Box)
	require.NotEmpty(t, square.ImageBase64)

	m, err := imaging.DecodeMask(square.ImageBase64, 128, 128)
	require.NoError(t, err)
	assert.Equal(t, 21*21, m.Count())

	bare := mustCall[loadMaskResult](t, s, "shapes_load_mask", map[string]interface{}{
		"dataset_id": dsID, "image_id": 0, "include_images": false,
	})
	for _, mi := range bare.Masks {
		assert.Empty(t, mi.ImageBase64)
	}
	assert.Empty(t, bare.MimeType)
}

func TestHandleImageReference(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	ref := mustCall[referenceResult](t, s, "shapes_image_reference", map[string]interface{}{"dataset_id": dsID, "image_id": 0})
	assert.Equal(t, "shapes", ref.Source)
	assert.Equal(t, "#0A141E", ref.Background)
	require.Len(t, ref.Shapes, 3)
	assert.Equal(t, "circle", ref.Shapes[1].Kind)
	assert.Equal(t, "#00C800", ref.Shapes[1].Color)
	assert.True(t, ref.Shapes[2].Visible)
	assert.Contains(t, ref.Text, "#C80000 square at (30,30) size 10")
}

func TestHandleDisplayTools(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	inst := mustCall[imaging.EncodeResult](t, s, "shapes_display_instances", map[string]interface{}{
		"dataset_id": dsID, "image_id": 0, "grid_spacing": 32, "scale": 2,
	})
	w, h := decodePNGSize(t, inst.ImageBase64)
	assert.Equal(t, 256, w)
	assert.Equal(t, 256, h)

	_, rpcErr := callTool(t, s, "shapes_display_instances", map[string]interface{}{
		"dataset_id": dsID, "image_id": 0, "grid_spacing": -1,
	})
	require.NotNil(t, rpcErr)
	assert.Equal(t, codeInvalidParams, rpcErr.Code)

	type topMasks struct {
		Classes []string `json:"classes"`
		Width   int      `json:"width"`
	}
	top := mustCall[topMasks](t, s, "shapes_display_top_masks", map[string]interface{}{"dataset_id": dsID, "image_id": 0, "limit": 2})
	require.Len(t, top.Classes, 2)
	assert.Equal(t, "circle", top.Classes[0], "the circle covers the most pixels")
	assert.Equal(t, 128+2*(128+4), top.Width)
}

func TestHandleSampleColor(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	type sample struct {
		Label    string              `json:"label"`
		Color    imaging.ColorResult `json:"color"`
		Instance *int                `json:"instance"`
	}
	res := mustCall[struct {
		Samples []sample               `json:"samples"`
		Palette *imaging.PaletteResult `json:"palette"`
	}](t, s, "shapes_sample_color", map[string]interface{}{
		"dataset_id": dsID,
		"image_id":   0,
		"points": []map[string]interface{}{
			{"x": 30, "y": 30, "label": "square"},
			{"x": 90, "y": 40, "label": "circle"},
			{"x": 5, "y": 5, "label": "background"},
		},
	})

	require.Len(t, res.Samples, 3)
	wantHex := []string{"#C80000", "#00C800", "#0A141E"}
	wantInstance := []int{0, 1, -1}
	for i, smp := range res.Samples {
		assert.Equal(t, wantHex[i], smp.Color.Hex, smp.Label)
		require.NotNil(t, smp.Instance, smp.Label)
		assert.Equal(t, wantInstance[i], *smp.Instance, smp.Label)
	}
	require.NotNil(t, res.Palette)
	assert.Len(t, res.Palette.Shapes, 3)

	_, rpcErr := callTool(t, s, "shapes_sample_color", map[string]interface{}{"dataset_id": dsID, "image_id": 0})
	require.NotNil(t, rpcErr, "points are required")
	_, rpcErr = callTool(t, s, "shapes_sample_color", map[string]interface{}{
		"dataset_id": dsID, "image_id": 0, "points": []map[string]interface{}{{"x": 200, "y": 0}},
	})
	require.NotNil(t, rpcErr)
	assert.Equal(t, codeInvalidParams, rpcErr.Code)
}

func TestHandleVerify(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	res := mustCall[shapes.VerifyResult](t, s, "shapes_verify", map[string]interface{}{"dataset_id": dsID, "image_id": 0})
	assert.True(t, res.Consistent)
	assert.Zero(t, res.OverlapPixels)
	assert.Zero(t, res.Mismatched)
	assert.Equal(t, res.ForegroundPixels, res.MaskedPixels)
	assert.Equal(t, 128*128, res.TotalPixels)
}

func TestHandleVerify_GeneratedSamples(t *testing.T) {
	s := New(nil)
	gen := mustCall[generateResponse](t, s, "shapes_generate", map[string]interface{}{"count": 10, "seed": 3})
	for _, id := range gen.ImageIDs {
		res := mustCall[shapes.VerifyResult](t, s, "shapes_verify", map[string]interface{}{"dataset_id": gen.DatasetID, "image_id": id})
		assert.Zero(t, res.OverlapPixels, "image %d", id)
		assert.Empty(t, res.OutOfBounds, "image %d", id)
	}
}

func TestHandleEvaluate_ShapePredictions(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	var preds []map[string]interface{}
	for i, sh := range knownSpec().Shapes {
		preds = append(preds, map[string]interface{}{
			"score": 0.9 - 0.1*float64(i),
			"shape": map[string]interface{}{"kind": sh.Kind.String(), "x": sh.X, "y": sh.Y, "size": sh.Size},
		})
	}

	res := mustCall[evaluateResult](t, s, "shapes_evaluate", map[string]interface{}{
		"dataset_id": dsID,
		"samples":    []map[string]interface{}{{"image_id": 0, "predictions": preds}},
	})
	require.Len(t, res.Samples, 1)
	assert.InDelta(t, 1.0, res.Samples[0].AP, 1e-9)
	assert.InDelta(t, 1.0, res.Samples[0].APRange, 1e-9)
	assert.InDelta(t, 1.0, res.MeanAP, 1e-9)
	assert.InDelta(t, 1.0, res.Samples[0].BoxRecall, 1e-9)
	assert.Equal(t, 0.5, res.IoUThreshold)
	assert.Equal(t, []int{0, 1, 2}, res.Samples[0].GTMatch)
}

func TestHandleEvaluate_MaskPrediction(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	gt := knownSpec().Masks()
	enc, err := imaging.EncodeMask(gt.Masks[0], 1)
	require.NoError(t, err)

	res := mustCall[evaluateResult](t, s, "shapes_evaluate", map[string]interface{}{
		"dataset_id": dsID,
		"samples": []map[string]interface{}{{
			"image_id": 0,
			"predictions": []map[string]interface{}{
				{"class": "square", "score": 0.8, "mask": enc.ImageBase64},
			},
		}},
	})
	assert.InDelta(t, 1.0/3.0, res.Samples[0].AP, 1e-9)
	assert.InDelta(t, 1.0/3.0, res.Samples[0].BoxRecall, 1e-9)
	assert.Equal(t, []int{0, -1, -1}, res.Samples[0].GTMatch)
}

func TestHandleEvaluate_InvalidPredictions(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	small, err := imaging.EncodeMask(shapes.NewMask(16, 16), 1)
	require.NoError(t, err)

	tests := []struct {
		name string
		pred map[string]interface{}
	}{
		{"neither mask nor shape", map[string]interface{}{"class": "square", "score": 1}},
		{"both mask and shape", map[string]interface{}{"class": "square", "score": 1, "mask": small.ImageBase64,
			"shape": map[string]interface{}{"kind": "square", "x": 1, "y": 1, "size": 1}}},
		{"unknown class", map[string]interface{}{"class": "hexagon", "score": 1,
			"shape": map[string]interface{}{"kind": "square", "x": 30, "y": 30, "size": 10}}},
		{"wrong mask size", map[string]interface{}{"class": "square", "score": 1, "mask": small.ImageBase64}},
		{"zero size", map[string]interface{}{"score": 1,
			"shape": map[string]interface{}{"kind": "circle", "x": 30, "y": 30, "size": 0}}},
		{"huge size", map[string]interface{}{"score": 1,
			"shape": map[string]interface{}{"kind": "square", "x": 30, "y": 30, "size": int64(1) << 34}}},
		{"huge circle", map[string]interface{}{"score": 1,
			"shape": map[string]interface{}{"kind": "circle", "x": 30, "y": 30, "size": int64(5e9)}}},
		{"off canvas", map[string]interface{}{"score": 1,
			"shape": map[string]interface{}{"kind": "triangle", "x": 30, "y": 5000, "size": 20}}},
		{"left of canvas", map[string]interface{}{"score": 1,
			"shape": map[string]interface{}{"kind": "square", "x": -50, "y": 30, "size": 20}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rpcErr := callTool(t, s, "shapes_evaluate", map[string]interface{}{
				"dataset_id": dsID,
				"samples":    []map[string]interface{}{{"image_id": 0, "predictions": []map[string]interface{}{tt.pred}}},
			})
			require.NotNil(t, rpcErr)
			assert.Equal(t, codeInvalidParams, rpcErr.Code)
		})
	}

	_, rpcErr := callTool(t, s, "shapes_evaluate", map[string]interface{}{"dataset_id": dsID})
	require.NotNil(t, rpcErr, "samples are required")
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := New(nil)
	_, rpcErr := callTool(t, s, "shapes_teleport", nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, codeToolFailed, rpcErr.Code)
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(nil)
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestHandleEvaluate_ShapeReachingPastEdge(t *testing.T) {
	s := New(nil)
	dsID := knownDataset(t, s)

	// The largest accepted size covers the whole image; it must be scored, not rejected.
	res := mustCall[evaluateResult](t, s, "shapes_evaluate", map[string]interface{}{
		"dataset_id": dsID,
		"samples": []map[string]interface{}{{
			"image_id": 0,
			"predictions": []map[string]interface{}{
				{"score": 0.5, "shape": map[string]interface{}{"kind": "circle", "x": 0, "y": 0, "size": 128}},
			},
		}},
	})
	require.Len(t, res.Samples, 1)
	assert.Zero(t, res.Samples[0].AP, "a canvas-sized prediction overlaps no instance enough")
}
