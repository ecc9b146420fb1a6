// Package server implements the MCP (Model Context Protocol) server for the
// synthetic shapes dataset.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Dataset Management:
//   - shapes_generate: Create a dataset (or append to one) and generate samples
//   - shapes_list_datasets: List datasets held by the server
//   - shapes_dataset_info: Parameters, sample IDs and class names
//   - shapes_drop_dataset: Delete a dataset
//
// Sample Access:
//   - shapes_load_image: Rendered sample as PNG, optionally cropped
//   - shapes_load_mask: Instance masks with class IDs and boxes
//   - shapes_image_reference: The shapes a sample was drawn from
//
// Visualization:
//   - shapes_display_instances: Masks, boxes and labels over the image
//   - shapes_display_top_masks: Per-class union masks
//
// Analysis:
//   - shapes_sample_color: Pixel colors and the instance visible there
//   - shapes_verify: Mask exclusivity and mask/render agreement
//   - shapes_evaluate: Average precision of predictions against ground truth
//
// # Datasets
//
// Datasets live in memory for the lifetime of the process and are addressed
// by a random UUID. Only each sample's recipe is stored; rendered images and
// masks are kept in a bounded LRU cache (server.cache_size in the
// configuration) and recomputed on a miss.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for bad arguments, unknown datasets and unknown image IDs;
//     -32000 for any other tool failure
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    logger.L().Fatal("server error", zap.Error(err))
//	}
package server
