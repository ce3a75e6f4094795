package conformal

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// parametricMargin is z_{1-α} times the sample standard deviation of the
// signed residuals, clipped at zero.
func parametricMargin(residuals []float64, alpha float64) (float64, error) {
	if len(residuals) < 2 {
		return 0, errors.NewInsufficientDataError("Fit", string(ModeParametric), 2, len(residuals))
	}
	sigma := stat.StdDev(residuals, nil)
	z := distuv.UnitNormal.Quantile(1 - alpha)
	return math.Max(0, z*sigma), nil
}
