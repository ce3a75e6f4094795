package conformal

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// DefaultTau returns the decay constant used when none is configured: n/5,
// so the most recent fifth of the calibration set carries weight e times
// the residual one fifth earlier.
func DefaultTau(n int) float64 {
	if n <= 0 {
		return 1
	}
	return float64(n) / 5.0
}

// ExponentialWeights returns w_i ∝ exp(i/τ) for i = 0..n-1, normalised to
// sum to 1. The most recent observation (index n-1) has the largest weight.
func ExponentialWeights(n int, tau float64) []float64 {
	logW := make([]float64, n)
	for i := range logW {
		// shifting by (n-1)/τ cancels in the normalisation and keeps exp bounded
		logW[i] = float64(i-(n-1)) / tau
	}
	return errors.Softmax(logW)
}

// weightedMargin is the weighted (1-α)-quantile of |residuals| with
// exponential recency weights.
func weightedMargin(residuals []float64, alpha, tau float64, rule WeightedRule) (float64, error) {
	n := len(residuals)
	if n == 0 {
		return 0, errors.NewInsufficientDataError("Fit", string(ModeWeighted), 1, 0)
	}
	if !(tau > 0) {
		return 0, errors.NewInvalidConfigError("tau", "must be positive", tau)
	}
	return WeightedQuantile(absValues(residuals), ExponentialWeights(n, tau), 1-alpha, rule)
}

// WeightedQuantile returns the weighted q-quantile of x.
//
// x is sorted ascending with ties kept in their original order, so among
// equal values the older observation comes first. Neither x nor weights is
// modified.
//
// With WeightedInterpolated, C_k is the total weight of the items strictly
// before sorted item k and the plotting position of item k is
// p_k = C_k / C_{n-1}. The quantile interpolates linearly between the two
// items whose positions bracket q. For equal weights p_k = k/(n-1), which is
// the type-7 rule used by the naive margin.
// When the weight sits almost entirely on a few items the interpolation can
// still land inside a gap that carries little weight: for five residuals of
// 10 followed by five of 1 with τ = 1, about 99% of the weight is on 1 yet
// the 0.8-quantile is about 7.2.
//
// With WeightedStep, the result is the smallest item whose cumulative weight
// reaches q of the total (1 in the example above). Use it to reproduce a
// searchsorted-style weighted quantile.
func WeightedQuantile(x, weights []float64, q float64, rule WeightedRule) (result float64, err error) {
	n := len(x)
	if n == 0 {
		return 0, errors.NewInsufficientDataError("WeightedQuantile", "", 1, 0)
	}
	if len(weights) != n {
		return 0, errors.NewShapeMismatchError("WeightedQuantile", n, len(weights))
	}
	if !(q >= 0 && q <= 1) {
		return 0, errors.NewInvalidConfigError("q", "must be in [0, 1]", q)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

	xs := make([]float64, n)
	ws := make([]float64, n)
	for k, i := range order {
		xs[k] = x[i]
		ws[k] = weights[i]
	}

	if rule == WeightedStep {
		// stat.Quantile panics on malformed input
		defer errors.Recover(&err, "WeightedQuantile")
		return stat.Quantile(q, stat.Empirical, xs, ws), nil
	}
	return interpolatedQuantile(xs, ws, q), nil
}

func interpolatedQuantile(xs, ws []float64, q float64) float64 {
	n := len(xs)
	if n == 1 {
		return xs[0]
	}

	var total float64
	for _, w := range ws[:n-1] {
		total += w
	}
	if total <= 0 {
		return xs[n-1]
	}

	var cum, prev float64
	for k := 0; k < n; k++ {
		p := cum / total
		if p >= q {
			if k == 0 || p == prev {
				return xs[k]
			}
			frac := (q - prev) / (p - prev)
			return xs[k-1] + frac*(xs[k]-xs[k-1])
		}
		prev = p
		cum += ws[k]
	}
	return xs[n-1]
}
