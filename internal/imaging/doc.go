// Package imaging turns rendered samples into things a client can look at.
//
// It implements PNG encoding (with optional cropping and scaling), color
// reporting for single pixels and shape colors, instance overlays in the
// style of Mask R-CNN's display_instances, per-class mask previews, and a
// bounded cache of rendered samples.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Thread Safety
//
// RenderCache is safe for concurrent use. The drawing functions never modify
// their input images and can be called concurrently.
//
// # Color Representation
//
// Colors are returned in multiple formats:
//   - Hex: 6-character format "#RRGGBB"
//   - RGB: 8-bit components (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//
// # Scaling
//
// Scaled output uses nearest-neighbor sampling so shape edges and binary
// masks stay hard after resizing.
package imaging
