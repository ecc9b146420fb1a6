package detection

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

// DefaultIoUThreshold is the mask IoU a prediction needs to count as a match.
const DefaultIoUThreshold = 0.5

// ErrMismatchedInput reports predictions whose fields disagree in length or
// whose masks do not match the ground-truth size.
var ErrMismatchedInput = errors.New("mismatched evaluation input")

// Predictions are scored instance masks produced by a model (or a person)
// for one sample.
type Predictions struct {
	Masks    []*shapes.Mask
	ClassIDs []int32
	Scores   []float64
}

// Len returns the number of predicted instances.
func (p *Predictions) Len() int {
	return len(p.Masks)
}

func (p *Predictions) validate() error {
	if len(p.ClassIDs) != len(p.Masks) || len(p.Scores) != len(p.Masks) {
		return fmt.Errorf("%w: %d masks, %d class ids, %d scores",
			ErrMismatchedInput, len(p.Masks), len(p.ClassIDs), len(p.Scores))
	}
	return nil
}

// MatchResult is the outcome of matching predictions to ground truth.
type MatchResult struct {
	// Order lists prediction indices by descending score.
	Order []int `json:"order"`
	// GTMatch holds, per ground-truth instance, the matched prediction index
	// or -1.
	GTMatch []int `json:"gt_match"`
	// PredMatch holds, per prediction, the matched ground-truth index or -1.
	PredMatch []int `json:"pred_match"`
	// Overlaps[i][j] is the mask IoU of prediction i and ground truth j.
	Overlaps [][]float64 `json:"overlaps"`
}

// APResult holds the average precision of one sample and the curve it was
// computed from.
type APResult struct {
	AP         float64      `json:"ap"`
	Precisions []float64    `json:"precisions"`
	Recalls    []float64    `json:"recalls"`
	Matches    *MatchResult `json:"matches"`
}

// ComputeOverlaps returns the IoU of every pair of boxes, boxes1 along the
// rows.
func ComputeOverlaps(boxes1, boxes2 []shapes.Box) [][]float64 {
	overlaps := make([][]float64, len(boxes1))
	for i, a := range boxes1 {
		overlaps[i] = make([]float64, len(boxes2))
		for j, b := range boxes2 {
			overlaps[i][j] = shapes.IoU(a, b)
		}
	}
	return overlaps
}

// ComputeOverlapsMasks returns the IoU of every pair of masks, masks1 along
// the rows. All masks must have the same size. Pairs involving an empty mask
// have IoU 0.
func ComputeOverlapsMasks(masks1, masks2 []*shapes.Mask) ([][]float64, error) {
	var w, h int
	for i, m := range append(append([]*shapes.Mask{}, masks1...), masks2...) {
		if i == 0 {
			w, h = m.Width, m.Height
			continue
		}
		if m.Width != w || m.Height != h {
			return nil, fmt.Errorf("%w: mask %d is %dx%d, expected %dx%d",
				ErrMismatchedInput, i, m.Width, m.Height, w, h)
		}
	}

	areas1 := maskAreas(masks1)
	areas2 := maskAreas(masks2)
	overlaps := make([][]float64, len(masks1))
	for i, a := range masks1 {
		overlaps[i] = make([]float64, len(masks2))
		if areas1[i] == 0 {
			continue
		}
		for j, b := range masks2 {
			if areas2[j] == 0 {
				continue
			}
			inter := 0
			for k, on := range a.Pix {
				if on && b.Pix[k] {
					inter++
				}
			}
			overlaps[i][j] = float64(inter) / float64(areas1[i]+areas2[j]-inter)
		}
	}
	return overlaps, nil
}

func maskAreas(masks []*shapes.Mask) []int {
	areas := make([]int, len(masks))
	for i, m := range masks {
		areas[i] = m.Count()
	}
	return areas
}

// ComputeMatches greedily matches predictions to ground-truth instances.
//
// Parameters:
//   - gt: Ground-truth masks and class IDs of one sample.
//   - pred: Predicted masks, class IDs and scores for the same sample.
//   - iouThreshold: Minimum mask IoU for a match. Typical: 0.5.
//   - scoreThreshold: Candidate ground-truth instances whose IoU with the
//     prediction falls below this are not considered at all. Typical: 0.
//
// Returns:
//   - *MatchResult: Match indices in both directions plus the IoU matrix.
//   - error: ErrMismatchedInput if pred is inconsistent or mask sizes differ.
//
// # Algorithm
//
//  1. Drop empty masks on both sides (they can never match)
//  2. Sort predictions by descending score, ties by index
//  3. For each prediction, walk unmatched ground truth by descending IoU
//  4. Stop at the first candidate below iouThreshold; match the first
//     candidate with the same class
func ComputeMatches(gt *shapes.MaskStack, pred *Predictions, iouThreshold, scoreThreshold float64) (*MatchResult, error) {
	if err := pred.validate(); err != nil {
		return nil, err
	}
	if len(gt.ClassIDs) != len(gt.Masks) {
		return nil, fmt.Errorf("%w: %d ground-truth masks, %d class ids",
			ErrMismatchedInput, len(gt.Masks), len(gt.ClassIDs))
	}

	overlaps, err := ComputeOverlapsMasks(pred.Masks, gt.Masks)
	if err != nil {
		return nil, err
	}

	gtEmpty := make([]bool, gt.Len())
	for j, m := range gt.Masks {
		gtEmpty[j] = m.Empty()
	}

	order := make([]int, 0, pred.Len())
	for i, m := range pred.Masks {
		if !m.Empty() {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pred.Scores[order[a]] > pred.Scores[order[b]]
	})

	result := &MatchResult{
		Order:     order,
		GTMatch:   filled(gt.Len(), -1),
		PredMatch: filled(pred.Len(), -1),
		Overlaps:  overlaps,
	}

	for _, i := range order {
		candidates := make([]int, 0, gt.Len())
		for j := range gt.Masks {
			if !gtEmpty[j] && overlaps[i][j] >= scoreThreshold {
				candidates = append(candidates, j)
			}
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			return overlaps[i][candidates[a]] > overlaps[i][candidates[b]]
		})

		for _, j := range candidates {
			if result.GTMatch[j] > -1 {
				continue
			}
			if overlaps[i][j] < iouThreshold {
				break
			}
			if pred.ClassIDs[i] == gt.ClassIDs[j] {
				result.GTMatch[j] = i
				result.PredMatch[i] = j
				break
			}
		}
	}
	return result, nil
}

func filled(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// ComputeAP computes the average precision of pred against gt at one IoU
// threshold.
func ComputeAP(gt *shapes.MaskStack, pred *Predictions, iouThreshold float64) (*APResult, error) {
	matches, err := ComputeMatches(gt, pred, iouThreshold, 0)
	if err != nil {
		return nil, err
	}

	positives := 0
	for _, m := range gt.Masks {
		if !m.Empty() {
			positives++
		}
	}

	n := len(matches.Order)
	precisions := make([]float64, n+2)
	recalls := make([]float64, n+2)
	hits := 0
	for k, i := range matches.Order {
		if matches.PredMatch[i] > -1 {
			hits++
		}
		precisions[k+1] = float64(hits) / float64(k+1)
		if positives > 0 {
			recalls[k+1] = float64(hits) / float64(positives)
		}
	}
	recalls[n+1] = 1

	result := &APResult{Precisions: precisions, Recalls: recalls, Matches: matches}
	if positives == 0 {
		if n == 0 {
			result.AP = 1
		}
		return result, nil
	}

	for k := len(precisions) - 2; k >= 0; k-- {
		precisions[k] = max(precisions[k], precisions[k+1])
	}
	for k := 1; k < len(recalls); k++ {
		if recalls[k] != recalls[k-1] {
			result.AP += (recalls[k] - recalls[k-1]) * precisions[k]
		}
	}
	return result, nil
}

// DefaultAPRange returns the COCO-style IoU thresholds 0.50, 0.55, ..., 0.95.
func DefaultAPRange() []float64 {
	out := make([]float64, 10)
	for i := range out {
		out[i] = 0.5 + 0.05*float64(i)
	}
	return out
}

// ComputeAPRange averages ComputeAP over several IoU thresholds. A nil
// thresholds slice uses DefaultAPRange.
func ComputeAPRange(gt *shapes.MaskStack, pred *Predictions, thresholds []float64) (float64, error) {
	if thresholds == nil {
		thresholds = DefaultAPRange()
	}
	aps := make([]float64, 0, len(thresholds))
	for _, t := range thresholds {
		r, err := ComputeAP(gt, pred, t)
		if err != nil {
			return 0, err
		}
		aps = append(aps, r.AP)
	}
	return MeanAP(aps), nil
}

// MeanAP returns the mean of per-sample APs, or 0 for an empty slice.
func MeanAP(aps []float64) float64 {
	if len(aps) == 0 {
		return 0
	}
	sum := 0.0
	for _, ap := range aps {
		sum += ap
	}
	return sum / float64(len(aps))
}

// ComputeRecall reports the fraction of ground-truth boxes whose best IoU
// with any predicted box reaches iouThreshold, along with the indices of
// those ground-truth boxes.
func ComputeRecall(predBoxes, gtBoxes []shapes.Box, iouThreshold float64) (float64, []int) {
	if len(gtBoxes) == 0 {
		return 0, nil
	}
	overlaps := ComputeOverlaps(gtBoxes, predBoxes)
	var positive []int
	for j, row := range overlaps {
		best := 0.0
		for _, v := range row {
			best = max(best, v)
		}
		if best >= iouThreshold && len(row) > 0 {
			positive = append(positive, j)
		}
	}
	return float64(len(positive)) / float64(len(gtBoxes)), positive
}
