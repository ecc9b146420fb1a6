package shapes

import (
	"sort"
)

// Priority selects which shape wins when two sampled shapes overlap.
type Priority string

const (
	// PriorityFirstSampled keeps the earlier sampled shape.
	PriorityFirstSampled Priority = "first-sampled"

	// PriorityLastSampled keeps the later sampled shape. This is what passing
	// the insertion index as a score to a descending-score NMS produces.
	PriorityLastSampled Priority = "last-sampled"

	// PriorityLargest keeps the shape with the larger bounding box.
	PriorityLargest Priority = "largest"
)

// Priorities lists the supported policies.
var Priorities = []Priority{PriorityFirstSampled, PriorityLastSampled, PriorityLargest}

func (p Priority) valid() bool {
	for _, q := range Priorities {
		if p == q {
			return true
		}
	}
	return false
}

// Scores converts the policy into per-box NMS scores. Higher wins.
func (p Priority) Scores(boxes []Box) []float64 {
	scores := make([]float64, len(boxes))
	for i, b := range boxes {
		switch p {
		case PriorityLastSampled:
			scores[i] = float64(i)
		case PriorityLargest:
			scores[i] = float64(b.Area())
		default:
			scores[i] = float64(len(boxes) - i)
		}
	}
	return scores
}

// IoU returns the intersection-over-union of two boxes. A zero union yields 0.
func IoU(a, b Box) float64 {
	top := max(a.Top, b.Top)
	left := max(a.Left, b.Left)
	bottom := min(a.Bottom, b.Bottom)
	right := min(a.Right, b.Right)
	inter := max(bottom-top, 0) * max(right-left, 0)

	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// NonMaxSuppression performs greedy non-max suppression.
//
// It repeatedly keeps the highest scoring remaining box and discards every
// remaining box whose IoU with it exceeds threshold. Equal scores go to the
// lower index. The kept indices are returned in ascending order.
//
// scores must have the same length as boxes.
func NonMaxSuppression(boxes []Box, scores []float64, threshold float64) []int {
	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	keep := make([]int, 0, len(boxes))
	for len(order) > 0 {
		best := order[0]
		keep = append(keep, best)

		rest := order[:0]
		for _, j := range order[1:] {
			if IoU(boxes[best], boxes[j]) <= threshold {
				rest = append(rest, j)
			}
		}
		order = rest
	}

	sort.Ints(keep)
	return keep
}
