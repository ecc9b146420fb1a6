// Package shapes generates the synthetic "shapes" instance-segmentation dataset.
//
// Every sample is a small image with a random background color and one to a
// few filled squares, circles and triangles. The package stores only the
// recipe for each sample (an ImageSpec) and renders pixels and instance masks
// from it on demand, so a dataset of any size costs a few bytes per sample.
//
// # Pipeline
//
// Generating one sample runs four steps:
//
//  1. Sampling: Sampler draws a background color, a shape count and each
//     shape's kind, color, size and center.
//  2. Overlap filtering: NonMaxSuppression drops shapes whose bounding box
//     overlaps an already kept shape by more than Params.IoUThreshold.
//  3. Rendering: Render rasterizes the kept shapes in draw order, so later
//     shapes hide earlier ones.
//  4. Mask compositing: BuildMasks rasterizes each shape into its own mask and
//     removes the pixels hidden by shapes drawn after it.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner.
// X grows rightward and Y grows downward. A shape's bounding box is
// (top, left, bottom, right) = (y-s, x-s, y+s, x+s).
//
// # Determinism
//
// All randomness comes from the Source passed to NewDataset. The same seed
// produces the same specs, and the same spec always renders to the same
// bytes: fills are hard-edged and computed with integer arithmetic.
//
// # Thread Safety
//
// Dataset is safe for concurrent use. Render, BuildMasks, NonMaxSuppression
// and IoU are pure functions. A Sampler is not safe for concurrent use.
package shapes
