package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func datasetIDProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Dataset ID returned by shapes_generate",
	}
}

func imageIDProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Sample ID within the dataset (0-based)",
	}
}

func scaleProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Optional scale factor (e.g., 4.0 to enlarge small samples). Nearest-neighbor, so edges stay hard. Default 1.0",
		"default":     1.0,
	}
}

// sampleSchema is the schema of tools that address one sample, plus extra
// properties.
func sampleSchema(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"dataset_id": datasetIDProp(),
		"image_id":   imageIDProp(),
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   []string{"dataset_id", "image_id"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Dataset Management
		{
			Name:        "shapes_generate",
			Description: "Generate synthetic images of squares, circles and triangles with instance masks. Creates a new dataset, or appends to an existing one when dataset_id is given. Omitted parameters use the server configuration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dataset_id": map[string]interface{}{
						"type":        "string",
						"description": "Optional existing dataset to append to. Generation parameters are ignored when set.",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Optional human-readable dataset name",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of samples to generate. Default 1",
						"default":     1,
						"minimum":     1,
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Image height in pixels",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Image width in pixels",
					},
					"min_shapes": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum shapes sampled per image (before overlap filtering)",
					},
					"max_shapes": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum shapes sampled per image (before overlap filtering)",
					},
					"margin": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum shape size and minimum distance of a center from the edge",
					},
					"size_divisor": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum shape size is height / size_divisor",
					},
					"iou_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Shapes overlapping a higher-priority shape by more than this IoU are dropped",
					},
					"priority": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"first-sampled", "last-sampled", "largest"},
						"description": "Which of two overlapping shapes survives",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed. The same seed and parameters reproduce the same dataset",
					},
				},
			},
		},
		{
			Name:        "shapes_list_datasets",
			Description: "List the datasets held by the server with their sample counts and parameters.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "shapes_dataset_info",
			Description: "Get a dataset's parameters, sample IDs and class names.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dataset_id": datasetIDProp(),
				},
				"required": []string{"dataset_id"},
			},
		},
		{
			Name:        "shapes_drop_dataset",
			Description: "Delete a dataset and free its cached renders.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dataset_id": datasetIDProp(),
				},
				"required": []string{"dataset_id"},
			},
		},

		// Sample Access
		{
			Name:        "shapes_load_image",
			Description: "Render a sample and return it as base64-encoded PNG. Optionally crop to a region (x2/y2 exclusive).",
			InputSchema: sampleSchema(map[string]interface{}{
				"scale": scaleProp(),
				"x1":    map[string]interface{}{"type": "integer", "description": "Left edge of an optional crop"},
				"y1":    map[string]interface{}{"type": "integer", "description": "Top edge of an optional crop"},
				"x2":    map[string]interface{}{"type": "integer", "description": "Right edge of an optional crop (exclusive)"},
				"y2":    map[string]interface{}{"type": "integer", "description": "Bottom edge of an optional crop (exclusive)"},
			}),
		},
		{
			Name:        "shapes_load_mask",
			Description: "Get the instance masks of a sample: class IDs, bounding boxes, pixel counts and (optionally) one PNG per mask. Each pixel belongs to at most one instance, the shape visible on top.",
			InputSchema: sampleSchema(map[string]interface{}{
				"scale": scaleProp(),
				"include_images": map[string]interface{}{
					"type":        "boolean",
					"description": "Include a base64 PNG per mask. Default true",
					"default":     true,
				},
			}),
		},
		{
			Name:        "shapes_image_reference",
			Description: "Describe the shapes of a sample in drawing order: kind, color, center and size.",
			InputSchema: sampleSchema(nil),
		},

		// Visualization
		{
			Name:        "shapes_display_instances",
			Description: "Draw a sample's instances over the image: translucent mask tint with outline, dashed box and class label.",
			InputSchema: sampleSchema(map[string]interface{}{
				"scale":       scaleProp(),
				"show_masks":  map[string]interface{}{"type": "boolean", "default": true},
				"show_boxes":  map[string]interface{}{"type": "boolean", "default": true},
				"show_labels": map[string]interface{}{"type": "boolean", "default": true},
				"grid_spacing": map[string]interface{}{
					"type":        "integer",
					"description": "Optional coordinate grid spacing in pixels",
				},
				"grid_color": map[string]interface{}{
					"type":        "string",
					"description": "Grid color as hex. Default #FF0000",
				},
			}),
		},
		{
			Name:        "shapes_display_top_masks",
			Description: "Show the image next to the union mask of each class, largest class first.",
			InputSchema: sampleSchema(map[string]interface{}{
				"scale": scaleProp(),
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of classes to show. Default 4",
					"default":     4,
				},
			}),
		},

		// Analysis
		{
			Name:        "shapes_sample_color",
			Description: "Get the exact color at one or more pixels of a sample and which instance is visible there (-1 for background). Also returns the sample's palette.",
			InputSchema: sampleSchema(map[string]interface{}{
				"points": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x":     map[string]interface{}{"type": "integer"},
							"y":     map[string]interface{}{"type": "integer"},
							"label": map[string]interface{}{"type": "string"},
						},
						"required": []string{"x", "y"},
					},
					"description": "Pixels to sample",
				},
			}),
		},
		{
			Name:        "shapes_verify",
			Description: "Check that a sample's masks are exclusive and that their union equals the non-background pixels of the rendered image.",
			InputSchema: sampleSchema(nil),
		},
		{
			Name:        "shapes_evaluate",
			Description: "Score predicted instances against ground truth. Returns per-sample average precision at the IoU threshold, the 0.50:0.95 AP, box recall, and the mean over samples.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dataset_id": datasetIDProp(),
					"iou_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Mask IoU needed for a match. Default 0.5",
						"default":     0.5,
					},
					"samples": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"image_id": imageIDProp(),
								"predictions": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"class": map[string]interface{}{
												"type": "string",
												"enum": []string{"square", "circle", "triangle"},
											},
											"score": map[string]interface{}{"type": "number"},
											"mask": map[string]interface{}{
												"type":        "string",
												"description": "Base64 PNG mask the size of the image (white = instance)",
											},
											"shape": map[string]interface{}{
												"type":        "object",
												"description": "Alternative to mask: a shape rasterized like the generator does",
												"properties": map[string]interface{}{
													"kind": map[string]interface{}{"type": "string"},
													"x":    map[string]interface{}{"type": "integer"},
													"y":    map[string]interface{}{"type": "integer"},
													"size": map[string]interface{}{"type": "integer"},
												},
												"required": []string{"kind", "x", "y", "size"},
											},
										},
										"required": []string{"score"},
									},
								},
							},
							"required": []string{"image_id", "predictions"},
						},
					},
				},
				"required": []string{"dataset_id", "samples"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
