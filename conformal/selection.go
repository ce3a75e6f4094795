package conformal

import (
	"math"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// Candidate is a fitted margin together with its calibration-set metrics.
type Candidate struct {
	Mode    Mode            `json:"mode"`
	Margin  Margin          `json:"margin"`
	Metrics IntervalMetrics `json:"metrics"`
}

// CompareModes fits one margin per mode on residuals and scores each on the
// regulated forecast pred against truth. Options apply to every mode except
// WithMode, which is overridden.
func CompareModes(residuals, pred, truth []float64, modes []Mode, opts ...Option) ([]Candidate, error) {
	if len(modes) == 0 {
		modes = Modes
	}
	cands := make([]Candidate, 0, len(modes))
	for _, mode := range modes {
		m, err := Fit(residuals, append(opts[:len(opts):len(opts)], WithMode(mode))...)
		if err != nil {
			return nil, errors.Wrapf(err, "fit %s margin", mode)
		}
		iv, err := Apply(pred, m)
		if err != nil {
			return nil, errors.Wrapf(err, "apply %s margin", mode)
		}
		metrics, err := Evaluate(iv, truth)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluate %s margin", mode)
		}
		cands = append(cands, Candidate{Mode: m.Mode, Margin: m, Metrics: metrics})
	}
	return cands, nil
}

// SelectForTarget returns the narrowest candidate whose coverage reaches
// target. When none does, the candidate whose coverage is closest to target
// is returned and a CoverageWarning is raised through errors.Warn.
func SelectForTarget(cands []Candidate, target float64) (Candidate, error) {
	if len(cands) == 0 {
		return Candidate{}, errors.NewInsufficientDataError("SelectForTarget", "", 1, 0)
	}

	best := -1
	for i, c := range cands {
		if c.Metrics.Coverage < target {
			continue
		}
		if best < 0 || c.Metrics.AvgWidth < cands[best].Metrics.AvgWidth {
			best = i
		}
	}
	if best >= 0 {
		return cands[best], nil
	}

	closest := 0
	for i, c := range cands {
		if math.Abs(c.Metrics.Coverage-target) < math.Abs(cands[closest].Metrics.Coverage-target) {
			closest = i
		}
	}
	chosen := cands[closest]
	errors.Warn(errors.NewCoverageWarning(target, chosen.Metrics.Coverage, string(chosen.Mode)))
	return chosen, nil
}

// SelectHighestCoverage returns the candidate with the highest coverage,
// preferring the narrower one on ties.
func SelectHighestCoverage(cands []Candidate) (Candidate, error) {
	if len(cands) == 0 {
		return Candidate{}, errors.NewInsufficientDataError("SelectHighestCoverage", "", 1, 0)
	}
	best := 0
	for i, c := range cands[1:] {
		b := cands[best].Metrics
		if c.Metrics.Coverage > b.Coverage ||
			(c.Metrics.Coverage == b.Coverage && c.Metrics.AvgWidth < b.AvgWidth) {
			best = i + 1
		}
	}
	return cands[best], nil
}

// EnsembleMargin returns the median of the candidates' scalar margins.
func EnsembleMargin(cands []Candidate) (Margin, error) {
	if len(cands) == 0 {
		return Margin{}, errors.NewInsufficientDataError("EnsembleMargin", "", 1, 0)
	}
	values := make([]float64, len(cands))
	for i, c := range cands {
		values[i] = c.Margin.Value
	}
	return Margin{Mode: ModeEnsemble, Value: median(values)}, nil
}
