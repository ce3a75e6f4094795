package conformal

import (
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// IntervalMetrics summarises how an interval behaves against the true RUL.
type IntervalMetrics struct {
	// Coverage is the fraction of steps with Lower <= truth <= Upper.
	Coverage float64 `json:"coverage"`
	// AvgWidth is the mean of Upper - Lower.
	AvgWidth float64 `json:"avg_width"`
	// IndexDiff is the distance in steps between the first lower bound
	// at or below zero and the first true RUL at or below zero.
	IndexDiff int `json:"index_diff"`
}

// Evaluate scores iv against the true RUL sequence.
func Evaluate(iv Interval, truth []float64) (IntervalMetrics, error) {
	n := len(truth)
	if n == 0 {
		return IntervalMetrics{}, errors.NewInsufficientDataError("Evaluate", "", 1, 0)
	}
	if len(iv.Lower) != n {
		return IntervalMetrics{}, errors.NewShapeMismatchError("Evaluate", n, len(iv.Lower))
	}
	if len(iv.Upper) != n {
		return IntervalMetrics{}, errors.NewShapeMismatchError("Evaluate", n, len(iv.Upper))
	}
	if err := errors.CheckFinite("Evaluate", truth); err != nil {
		return IntervalMetrics{}, err
	}

	var covered int
	var width float64
	for i, y := range truth {
		if iv.Lower[i] <= y && y <= iv.Upper[i] {
			covered++
		}
		width += iv.Upper[i] - iv.Lower[i]
	}

	return IntervalMetrics{
		Coverage:  float64(covered) / float64(n),
		AvgWidth:  width / float64(n),
		IndexDiff: IndexDifference(iv.Lower, truth),
	}, nil
}

// IndexDifference returns |first i with lower[i] <= 0 - first i with truth[i] <= 0|.
// When a sequence never reaches zero its last index is used.
func IndexDifference(lower, truth []float64) int {
	d := firstNonPositive(lower) - firstNonPositive(truth)
	if d < 0 {
		return -d
	}
	return d
}

func firstNonPositive(x []float64) int {
	for i, v := range x {
		if v <= 0 {
			return i
		}
	}
	return len(x) - 1
}
