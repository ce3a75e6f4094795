package conformal

import (
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// Interval is a one-sided prediction interval per forecast step.
// Upper is the regulated forecast. Lower is non-negative, never above Upper,
// and never increases from one step to the next.
type Interval struct {
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// Len returns the number of steps.
func (iv Interval) Len() int {
	return len(iv.Upper)
}

// Width returns Upper - Lower per step.
func (iv Interval) Width() []float64 {
	w := make([]float64, len(iv.Upper))
	for i := range w {
		w[i] = iv.Upper[i] - iv.Lower[i]
	}
	return w
}

// Regulate returns a copy of pred made non-increasing (running minimum) and
// clipped at zero. RUL forecasts regulated this way are the valid input of Apply.
func Regulate(pred []float64) []float64 {
	out := make([]float64, len(pred))
	copy(out, pred)
	for i := 1; i < len(out); i++ {
		if out[i] > out[i-1] {
			out[i] = out[i-1]
		}
	}
	for i, v := range out {
		if v < 0 {
			out[i] = 0
		}
	}
	return out
}

// Apply builds the prediction interval for a regulated forecast.
//
// lower[i] = pred[i] - margin, clipped at zero, then clamped to lower[i-1]
// when it would rise above it. upper is a copy of pred.
//
// Errors:
//   - ShapeMismatchError when a per-step margin does not match len(pred)
//   - InvalidConfigError for a negative margin
//   - ValueError for a negative prediction (call Regulate first)
//   - NumericalInstabilityError for NaN or ±Inf in pred or the margin
func Apply(pred []float64, m Margin) (Interval, error) {
	if m.Steps != nil && len(m.Steps) != len(pred) {
		return Interval{}, errors.NewShapeMismatchError("Apply", len(pred), len(m.Steps))
	}
	if err := checkMargin("Apply", m); err != nil {
		return Interval{}, err
	}
	if err := errors.CheckFinite("Apply", pred); err != nil {
		return Interval{}, err
	}
	for i, p := range pred {
		if p < 0 {
			return Interval{}, errors.NewValueErrorf("Apply",
				"prediction %d is negative (%g); regulate predictions before applying a margin", i, p)
		}
	}

	lower := make([]float64, len(pred))
	upper := make([]float64, len(pred))
	copy(upper, pred)

	for i, p := range pred {
		l := p - m.At(i)
		if l < 0 {
			l = 0
		}
		if i > 0 && l > lower[i-1] {
			l = lower[i-1]
		}
		lower[i] = l
	}

	return Interval{Lower: lower, Upper: upper}, nil
}
