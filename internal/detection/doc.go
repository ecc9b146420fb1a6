// Package detection scores instance predictions against generated ground
// truth.
//
// It follows the evaluation used with the Mask R-CNN shapes sample: mask IoU
// between every prediction and every ground-truth instance, greedy matching
// of predictions in descending score order, and VOC-style average precision
// computed from the resulting precision/recall curve.
//
// # Matching
//
// Predictions are visited from the highest score to the lowest. Each one
// takes the unmatched ground-truth instance with the highest IoU, provided the
// IoU reaches the threshold and the class IDs agree. A ground-truth instance
// is matched at most once.
//
// Ground-truth instances with empty masks (shapes fully hidden by later
// shapes) are ignored, as are predictions with empty masks.
//
// # Average Precision
//
// Precision is made monotonically decreasing from the right before the area
// under the precision/recall curve is summed at every point where recall
// changes. With no ground truth and no predictions the AP is 1; with no
// ground truth but some predictions it is 0.
//
// # Coordinate System
//
// Boxes are shapes.Box values: inclusive top-left, exclusive bottom-right.
package detection
