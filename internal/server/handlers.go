package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/shapegen-mcp/internal/detection"
	"github.com/ironsheep/shapegen-mcp/internal/imaging"
	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

// maxGenerateCount bounds a single shapes_generate call.
const maxGenerateCount = 10000

var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "shapes_generate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments, unknown datasets and unknown images return code -32602; any
// other tool failure returns -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		code, message := toolError(err)
		s.log.Info("tool call failed", zap.String("tool", params.Name), zap.Int("code", code), zap.Error(err))
		return s.errorResponse(req.ID, code, message, err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// toolError maps a tool error to a JSON-RPC code and message.
func toolError(err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidArgs),
		errors.Is(err, shapes.ErrInvalidConfig),
		errors.Is(err, shapes.ErrUnknownImage),
		errors.Is(err, ErrUnknownDataset),
		errors.Is(err, detection.ErrMismatchedInput):
		return codeInvalidParams, "Invalid params"
	default:
		return codeToolFailed, "Tool execution failed"
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Dataset Management
	case "shapes_generate":
		return s.handleGenerate(args)
	case "shapes_list_datasets":
		return s.handleListDatasets(args)
	case "shapes_dataset_info":
		return s.handleDatasetInfo(args)
	case "shapes_drop_dataset":
		return s.handleDropDataset(args)

	// Sample Access
	case "shapes_load_image":
		return s.handleLoadImage(args)
	case "shapes_load_mask":
		return s.handleLoadMask(args)
	case "shapes_image_reference":
		return s.handleImageReference(args)

	// Visualization
	case "shapes_display_instances":
		return s.handleDisplayInstances(args)
	case "shapes_display_top_masks":
		return s.handleDisplayTopMasks(args)

	// Analysis
	case "shapes_sample_color":
		return s.handleSampleColor(args)
	case "shapes_verify":
		return s.handleVerify(args)
	case "shapes_evaluate":
		return s.handleEvaluate(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

func scaleOrDefault(scale float64) float64 {
	if scale == 0 {
		return 1.0
	}
	return scale
}

// === Dataset Management Handlers ===

type generateArgs struct {
	DatasetID    string   `json:"dataset_id"`
	Name         string   `json:"name"`
	Count        *int     `json:"count"`
	Height       *int     `json:"height"`
	Width        *int     `json:"width"`
	MinShapes    *int     `json:"min_shapes"`
	MaxShapes    *int     `json:"max_shapes"`
	Margin       *int     `json:"margin"`
	SizeDivisor  *int     `json:"size_divisor"`
	IoUThreshold *float64 `json:"iou_threshold"`
	Priority     *string  `json:"priority"`
	Seed         *uint64  `json:"seed"`
}

// params overlays the arguments that were given on base.
func (a *generateArgs) params(base shapes.Params) shapes.Params {
	p := base
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setInt(&p.Height, a.Height)
	setInt(&p.Width, a.Width)
	setInt(&p.MinShapes, a.MinShapes)
	setInt(&p.MaxShapes, a.MaxShapes)
	setInt(&p.Margin, a.Margin)
	setInt(&p.SizeDivisor, a.SizeDivisor)
	if a.IoUThreshold != nil {
		p.IoUThreshold = *a.IoUThreshold
	}
	if a.Priority != nil {
		p.Priority = shapes.Priority(*a.Priority)
	}
	return p
}

type generateResult struct {
	DatasetInfo
	ImageIDs []int `json:"image_ids"`
}

func (s *Server) handleGenerate(args json.RawMessage) (interface{}, error) {
	var a generateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	count := 1
	if a.Count != nil {
		count = *a.Count
	}
	if count < 1 || count > maxGenerateCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d, got %d", errInvalidArgs, maxGenerateCount, count)
	}

	var entry *DatasetEntry
	if a.DatasetID != "" {
		e, err := s.registry.Get(a.DatasetID)
		if err != nil {
			return nil, err
		}
		entry = e
	} else {
		seed := s.cfg.Dataset.Seed
		if a.Seed != nil {
			seed = *a.Seed
		}
		e, err := s.registry.Create(a.Name, a.params(s.cfg.Dataset.Params()), seed)
		if err != nil {
			return nil, err
		}
		entry = e
	}

	ids := entry.Dataset.Generate(count)
	s.log.Info("generated samples",
		zap.String("dataset_id", entry.ID),
		zap.Int("count", count),
		zap.Int("total", entry.Dataset.Len()))

	return &generateResult{DatasetInfo: entry.Info(), ImageIDs: ids}, nil
}

type listDatasetsResult struct {
	Datasets []DatasetInfo `json:"datasets"`
	Count    int           `json:"count"`
}

func (s *Server) handleListDatasets(args json.RawMessage) (interface{}, error) {
	entries := s.registry.List()
	out := &listDatasetsResult{Datasets: make([]DatasetInfo, len(entries)), Count: len(entries)}
	for i, e := range entries {
		out.Datasets[i] = e.Info()
	}
	return out, nil
}

type datasetArgs struct {
	DatasetID string `json:"dataset_id"`
}

type datasetInfoResult struct {
	DatasetInfo
	ImageIDs   []int              `json:"image_ids"`
	ClassNames []string           `json:"class_names"`
	Classes    []shapes.ClassInfo `json:"classes"`
}

func (s *Server) handleDatasetInfo(args json.RawMessage) (interface{}, error) {
	var a datasetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	e, err := s.registry.Get(a.DatasetID)
	if err != nil {
		return nil, err
	}
	return &datasetInfoResult{
		DatasetInfo: e.Info(),
		ImageIDs:    e.Dataset.ImageIDs(),
		ClassNames:  shapes.ClassNames(),
		Classes:     shapes.Classes(),
	}, nil
}

func (s *Server) handleDropDataset(args json.RawMessage) (interface{}, error) {
	var a datasetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.registry.Drop(a.DatasetID); err != nil {
		return nil, err
	}
	s.cache.EvictDataset(a.DatasetID)
	s.log.Info("dropped dataset", zap.String("dataset_id", a.DatasetID))
	return map[string]interface{}{"dataset_id": a.DatasetID, "dropped": true}, nil
}

// === Sample Access Handlers ===

type sampleArgs struct {
	DatasetID string `json:"dataset_id"`
	ImageID   *int   `json:"image_id"`
}

// sample resolves a dataset and image ID to the dataset entry and the
// rendered sample.
func (s *Server) sample(a sampleArgs) (*DatasetEntry, int, *imaging.Rendered, error) {
	if a.ImageID == nil {
		return nil, 0, nil, fmt.Errorf("%w: image_id is required", errInvalidArgs)
	}
	e, err := s.registry.Get(a.DatasetID)
	if err != nil {
		return nil, 0, nil, err
	}
	r, err := s.cache.Load(e.ID, *a.ImageID, e.Dataset)
	if err != nil {
		return nil, 0, nil, err
	}
	return e, *a.ImageID, r, nil
}

type loadImageArgs struct {
	sampleArgs
	Scale float64 `json:"scale"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
}

func (s *Server) handleLoadImage(args json.RawMessage) (interface{}, error) {
	var a loadImageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, _, r, err := s.sample(a.sampleArgs)
	if err != nil {
		return nil, err
	}
	scale := scaleOrDefault(a.Scale)
	if a.X2 != 0 || a.Y2 != 0 {
		return imaging.Crop(r.Image, a.X1, a.Y1, a.X2, a.Y2, scale)
	}
	return imaging.EncodePNG(r.Image, scale)
}

type loadMaskArgs struct {
	sampleArgs
	Scale         float64 `json:"scale"`
	IncludeImages *bool   `json:"include_images"`
}

type maskInfo struct {
	Index       int        `json:"index"`
	ClassID     int32      `json:"class_id"`
	ClassName   string     `json:"class_name"`
	Box         shapes.Box `json:"box"`
	Pixels      int        `json:"pixels"`
	ImageBase64 string     `json:"image_base64,omitempty"`
}

type loadMaskResult struct {
	ImageID  int        `json:"image_id"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	ClassIDs []int32    `json:"class_ids"`
	Masks    []maskInfo `json:"masks"`
	MimeType string     `json:"mime_type,omitempty"`
}

func (s *Server) handleLoadMask(args json.RawMessage) (interface{}, error) {
	var a loadMaskArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, id, r, err := s.sample(a.sampleArgs)
	if err != nil {
		return nil, err
	}
	includeImages := a.IncludeImages == nil || *a.IncludeImages
	names := shapes.ClassNames()

	bounds := r.Image.Bounds()
	out := &loadMaskResult{
		ImageID:  id,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		ClassIDs: r.Masks.ClassIDs,
		Masks:    make([]maskInfo, r.Masks.Len()),
	}
	boxes := r.Masks.Boxes()
	for i, m := range r.Masks.Masks {
		info := maskInfo{
			Index:     i,
			ClassID:   r.Masks.ClassIDs[i],
			ClassName: names[r.Masks.ClassIDs[i]],
			Box:       boxes[i],
			Pixels:    m.Count(),
		}
		if includeImages {
			enc, err := imaging.EncodeMask(m, scaleOrDefault(a.Scale))
			if err != nil {
				return nil, err
			}
			info.ImageBase64 = enc.ImageBase64
			out.MimeType = enc.MimeType
		}
		out.Masks[i] = info
	}
	return out, nil
}

type referenceShape struct {
	Index   int        `json:"index"`
	Kind    string     `json:"kind"`
	Color   string     `json:"color"`
	X       int        `json:"x"`
	Y       int        `json:"y"`
	Size    int        `json:"size"`
	Box     shapes.Box `json:"box"`
	Visible bool       `json:"visible"`
}

type referenceResult struct {
	Source     string           `json:"source"`
	ImageID    int              `json:"image_id"`
	Background string           `json:"background"`
	Shapes     []referenceShape `json:"shapes"`
	Text       string           `json:"text"`
}

func (s *Server) handleImageReference(args json.RawMessage) (interface{}, error) {
	var a sampleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	e, id, r, err := s.sample(a)
	if err != nil {
		return nil, err
	}
	spec, err := e.Dataset.Spec(id)
	if err != nil {
		return nil, err
	}
	list, err := e.Dataset.ImageReference(id)
	if err != nil {
		return nil, err
	}

	out := &referenceResult{
		Source:     shapes.SourceName,
		ImageID:    id,
		Background: spec.Background.Hex(),
		Shapes:     make([]referenceShape, len(list)),
	}
	lines := make([]string, len(list))
	for i, sh := range list {
		out.Shapes[i] = referenceShape{
			Index:   i,
			Kind:    sh.Kind.String(),
			Color:   sh.Color.Hex(),
			X:       sh.X,
			Y:       sh.Y,
			Size:    sh.Size,
			Box:     sh.Box(),
			Visible: !r.Masks.Masks[i].Empty(),
		}
		lines[i] = sh.String()
	}
	out.Text = strings.Join(lines, "\n")
	return out, nil
}

// === Visualization Handlers ===

type displayInstancesArgs struct {
	sampleArgs
	Scale       float64 `json:"scale"`
	ShowMasks   *bool   `json:"show_masks"`
	ShowBoxes   *bool   `json:"show_boxes"`
	ShowLabels  *bool   `json:"show_labels"`
	GridSpacing int     `json:"grid_spacing"`
	GridColor   string  `json:"grid_color"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (s *Server) handleDisplayInstances(args json.RawMessage) (interface{}, error) {
	var a displayInstancesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.GridSpacing < 0 {
		return nil, fmt.Errorf("%w: grid_spacing must not be negative", errInvalidArgs)
	}
	_, _, r, err := s.sample(a.sampleArgs)
	if err != nil {
		return nil, err
	}
	opts := imaging.DefaultDisplayOptions()
	opts.ShowMasks = boolOr(a.ShowMasks, opts.ShowMasks)
	opts.ShowBoxes = boolOr(a.ShowBoxes, opts.ShowBoxes)
	opts.ShowLabels = boolOr(a.ShowLabels, opts.ShowLabels)
	opts.GridSpacing = a.GridSpacing
	opts.GridColor = a.GridColor
	out, err := imaging.DisplayInstances(r.Image, r.Masks, shapes.ClassNames(), nil, opts)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(out, scaleOrDefault(a.Scale))
}

type displayTopMasksArgs struct {
	sampleArgs
	Scale float64 `json:"scale"`
	Limit *int    `json:"limit"`
}

type topMasksResult struct {
	Classes []string `json:"classes"`
	*imaging.EncodeResult
}

func (s *Server) handleDisplayTopMasks(args json.RawMessage) (interface{}, error) {
	var a displayTopMasksArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	limit := 4
	if a.Limit != nil {
		limit = *a.Limit
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", errInvalidArgs)
	}
	_, _, r, err := s.sample(a.sampleArgs)
	if err != nil {
		return nil, err
	}
	top := imaging.DisplayTopMasks(r.Image, r.Masks, shapes.ClassNames(), limit)
	enc, err := imaging.EncodePNG(top.Image, scaleOrDefault(a.Scale))
	if err != nil {
		return nil, err
	}
	return &topMasksResult{Classes: top.Classes, EncodeResult: enc}, nil
}

// === Analysis Handlers ===

type pointArg struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label"`
}

type sampleColorArgs struct {
	sampleArgs
	Points []pointArg `json:"points"`
}

type sampleColorResult struct {
	*imaging.MultiColorResult
	Palette *imaging.PaletteResult `json:"palette"`
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, fmt.Errorf("%w: at least one point is required", errInvalidArgs)
	}
	e, id, r, err := s.sample(a.sampleArgs)
	if err != nil {
		return nil, err
	}
	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	samples, err := imaging.SampleSpecColors(r, points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	spec, err := e.Dataset.Spec(id)
	if err != nil {
		return nil, err
	}
	return &sampleColorResult{MultiColorResult: samples, Palette: imaging.SpecPalette(spec)}, nil
}

func (s *Server) handleVerify(args json.RawMessage) (interface{}, error) {
	var a sampleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	e, id, r, err := s.sample(a)
	if err != nil {
		return nil, err
	}
	spec, err := e.Dataset.Spec(id)
	if err != nil {
		return nil, err
	}
	return shapes.Compare(r.Image, r.Masks, spec), nil
}

type shapeArg struct {
	Kind string `json:"kind"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Size int    `json:"size"`
}

type predictionArg struct {
	Class string    `json:"class"`
	Score float64   `json:"score"`
	Mask  string    `json:"mask"`
	Shape *shapeArg `json:"shape"`
}

type evaluateSampleArg struct {
	ImageID     int             `json:"image_id"`
	Predictions []predictionArg `json:"predictions"`
}

type evaluateArgs struct {
	DatasetID    string              `json:"dataset_id"`
	IoUThreshold *float64            `json:"iou_threshold"`
	Samples      []evaluateSampleArg `json:"samples"`
}

type sampleScore struct {
	ImageID    int       `json:"image_id"`
	AP         float64   `json:"ap"`
	APRange    float64   `json:"ap_50_95"`
	BoxRecall  float64   `json:"box_recall"`
	GTMatch    []int     `json:"gt_match"`
	PredMatch  []int     `json:"pred_match"`
	Precisions []float64 `json:"precisions"`
	Recalls    []float64 `json:"recalls"`
}

type evaluateResult struct {
	IoUThreshold float64       `json:"iou_threshold"`
	Samples      []sampleScore `json:"samples"`
	MeanAP       float64       `json:"mean_ap"`
	MeanAPRange  float64       `json:"mean_ap_50_95"`
}

// predictions converts the JSON predictions of one sample into masks on a
// width x height canvas.
func predictions(args []predictionArg, width, height int) (*detection.Predictions, error) {
	p := &detection.Predictions{
		Masks:    make([]*shapes.Mask, len(args)),
		ClassIDs: make([]int32, len(args)),
		Scores:   make([]float64, len(args)),
	}
	for i, a := range args {
		if (a.Mask == "") == (a.Shape == nil) {
			return nil, fmt.Errorf("%w: prediction %d needs exactly one of mask or shape", errInvalidArgs, i)
		}

		className := a.Class
		if className == "" && a.Shape != nil {
			className = a.Shape.Kind
		}
		kind, err := shapes.ParseKind(className)
		if err != nil {
			return nil, fmt.Errorf("%w: prediction %d: %v", errInvalidArgs, i, err)
		}

		var m *shapes.Mask
		if a.Shape != nil {
			shapeKind, err := shapes.ParseKind(a.Shape.Kind)
			if err != nil {
				return nil, fmt.Errorf("%w: prediction %d: %v", errInvalidArgs, i, err)
			}
			if a.Shape.Size <= 0 || a.Shape.Size > max(width, height) {
				return nil, fmt.Errorf("%w: prediction %d: size must be in [1,%d], got %d",
					errInvalidArgs, i, max(width, height), a.Shape.Size)
			}
			sh := shapes.Shape{Kind: shapeKind, X: a.Shape.X, Y: a.Shape.Y, Size: a.Shape.Size}
			if !onCanvas(sh, width, height) {
				return nil, fmt.Errorf("%w: prediction %d: %s lies outside the %dx%d image",
					errInvalidArgs, i, sh, width, height)
			}
			m = shapes.ShapeMask(height, width, sh)
		} else {
			m, err = imaging.DecodeMask(a.Mask, width, height)
			if err != nil {
				return nil, fmt.Errorf("%w: prediction %d: %v", errInvalidArgs, i, err)
			}
		}

		p.Masks[i] = m
		p.ClassIDs[i] = kind.ClassID()
		p.Scores[i] = a.Score
	}
	return p, nil
}

func maskBoxes(masks []*shapes.Mask) []shapes.Box {
	out := make([]shapes.Box, len(masks))
	for i, m := range masks {
		out[i] = m.Box()
	}
	return out
}

// visibleBoxes returns the boxes of the ground-truth instances that are not
// fully hidden.
func visibleBoxes(stack *shapes.MaskStack) []shapes.Box {
	var out []shapes.Box
	for _, b := range stack.Boxes() {
		if !b.IsZero() {
			out = append(out, b)
		}
	}
	return out
}

// onCanvas reports whether any part of sh can fall on a width x height image.
func onCanvas(sh shapes.Shape, width, height int) bool {
	ex, ey := sh.Extent()
	return sh.X+ex >= 0 && sh.X-ex < width && sh.Y+ey >= 0 && sh.Y-ey < height
}

func (s *Server) handleEvaluate(args json.RawMessage) (interface{}, error) {
	var a evaluateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	threshold := detection.DefaultIoUThreshold
	if a.IoUThreshold != nil {
		threshold = *a.IoUThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: iou_threshold must be in [0,1], got %v", errInvalidArgs, threshold)
	}
	if len(a.Samples) == 0 {
		return nil, fmt.Errorf("%w: at least one sample is required", errInvalidArgs)
	}

	e, err := s.registry.Get(a.DatasetID)
	if err != nil {
		return nil, err
	}

	out := &evaluateResult{IoUThreshold: threshold, Samples: make([]sampleScore, len(a.Samples))}
	aps := make([]float64, len(a.Samples))
	ranges := make([]float64, len(a.Samples))
	for i, sa := range a.Samples {
		r, err := s.cache.Load(e.ID, sa.ImageID, e.Dataset)
		if err != nil {
			return nil, err
		}
		bounds := r.Image.Bounds()
		pred, err := predictions(sa.Predictions, bounds.Dx(), bounds.Dy())
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", sa.ImageID, err)
		}

		res, err := detection.ComputeAP(r.Masks, pred, threshold)
		if err != nil {
			return nil, err
		}
		apRange, err := detection.ComputeAPRange(r.Masks, pred, nil)
		if err != nil {
			return nil, err
		}

		recall, _ := detection.ComputeRecall(maskBoxes(pred.Masks), visibleBoxes(r.Masks), threshold)

		aps[i], ranges[i] = res.AP, apRange
		out.Samples[i] = sampleScore{
			ImageID:    sa.ImageID,
			AP:         res.AP,
			APRange:    apRange,
			BoxRecall:  recall,
			GTMatch:    res.Matches.GTMatch,
			PredMatch:  res.Matches.PredMatch,
			Precisions: res.Precisions,
			Recalls:    res.Recalls,
		}
	}
	out.MeanAP = detection.MeanAP(aps)
	out.MeanAPRange = detection.MeanAP(ranges)

	s.log.Debug("evaluated predictions",
		zap.String("dataset_id", e.ID),
		zap.Int("samples", len(a.Samples)),
		zap.Float64("mean_ap", out.MeanAP))
	return out, nil
}
