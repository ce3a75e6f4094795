package conformal

import (
	"math"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
	"github.com/YuminosukeSato/rulconform/pkg/log"
)

// Margin is the amount subtracted from a regulated point forecast to obtain
// the interval lower bound. A non-nil Steps holds one margin per forecast step
// and takes precedence over Value.
type Margin struct {
	Mode  Mode      `json:"mode,omitempty"`
	Value float64   `json:"value"`
	Steps []float64 `json:"steps,omitempty"`
}

// Scalar returns a margin applied uniformly to every step.
func Scalar(v float64) Margin {
	return Margin{Value: v}
}

// PerStep returns a margin with one value per forecast step.
// values is copied.
func PerStep(values []float64) Margin {
	steps := make([]float64, len(values))
	copy(steps, values)
	return Margin{Steps: steps}
}

// IsPerStep reports whether m carries per-step values.
func (m Margin) IsPerStep() bool {
	return m.Steps != nil
}

// At returns the margin for step i.
func (m Margin) At(i int) float64 {
	if m.Steps != nil {
		return m.Steps[i]
	}
	return m.Value
}

// Fit computes a conformal margin from calibration residuals
// (true RUL minus regulated predicted RUL). residuals is not modified.
//
// Errors:
//   - InvalidConfigError for α outside (0,1), τ <= 0, B <= 0 or scale <= 0
//   - InsufficientDataError for an empty residual set, or fewer than two
//     residuals in bootstrap, parametric and ensemble modes
//   - NumericalInstabilityError when a residual is NaN or ±Inf
func Fit(residuals []float64, opts ...Option) (Margin, error) {
	o := newOptions(opts)
	if err := o.validate(); err != nil {
		return Margin{}, err
	}
	mode, _ := ParseMode(string(o.mode))
	if err := errors.CheckFinite("Fit", residuals); err != nil {
		return Margin{}, err
	}

	v, err := fitMode(mode, residuals, o)
	if err != nil {
		return Margin{}, err
	}
	v *= o.scale

	log.GetLoggerWithName("conformal").Debug("margin fitted",
		log.OperationKey, log.OperationFit,
		log.ModeKey, string(mode),
		log.AlphaKey, o.alpha,
		log.ResidualsKey, len(residuals),
		log.ScaleKey, o.scale,
		log.MarginKey, v,
	)

	return Margin{Mode: mode, Value: v}, nil
}

func fitMode(mode Mode, residuals []float64, o options) (float64, error) {
	switch mode {
	case ModeNaive:
		return naiveMargin(residuals, o.alpha)
	case ModeWeighted:
		return weightedMargin(residuals, o.alpha, o.tauFor(len(residuals)), o.rule)
	case ModeBootstrap:
		return bootstrapMargin(residuals, o.alpha, o.resamples, o.seed, o.workers)
	case ModeParametric:
		return parametricMargin(residuals, o.alpha)
	case ModeEnsemble:
		return ensembleMargin(residuals, o)
	default:
		return 0, errors.Wrapf(errors.ErrUnknownMode, "%q", mode)
	}
}

// naiveMargin is the (1-α)-quantile of |residuals|.
func naiveMargin(residuals []float64, alpha float64) (float64, error) {
	if len(residuals) == 0 {
		return 0, errors.NewInsufficientDataError("Fit", string(ModeNaive), 1, 0)
	}
	return quantileSorted(sortedAbs(residuals), 1-alpha), nil
}

// ensembleMargin is the median of the naive, weighted and bootstrap margins.
func ensembleMargin(residuals []float64, o options) (float64, error) {
	if len(residuals) < 2 {
		return 0, errors.NewInsufficientDataError("Fit", string(ModeEnsemble), 2, len(residuals))
	}
	naive, err := naiveMargin(residuals, o.alpha)
	if err != nil {
		return 0, err
	}
	weighted, err := weightedMargin(residuals, o.alpha, o.tauFor(len(residuals)), o.rule)
	if err != nil {
		return 0, err
	}
	boot, err := bootstrapMargin(residuals, o.alpha, o.resamples, o.seed, o.workers)
	if err != nil {
		return 0, err
	}
	return median([]float64{naive, weighted, boot}), nil
}

func checkMargin(op string, m Margin) error {
	if m.Steps != nil {
		if err := errors.CheckFinite(op, m.Steps); err != nil {
			return err
		}
		for _, v := range m.Steps {
			if v < 0 {
				return errors.NewInvalidConfigError("margin", "must be non-negative", v)
			}
		}
		return nil
	}
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return errors.CheckScalar(op, m.Value)
	}
	if m.Value < 0 {
		return errors.NewInvalidConfigError("margin", "must be non-negative", m.Value)
	}
	return nil
}
