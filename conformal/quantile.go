package conformal

import (
	"math"
	"sort"
)

// quantileSorted returns the p-quantile of ascending x, interpolating
// linearly between order statistics at rank h = (n-1)p
// (Hyndman and Fan definition 7). x must not be empty.
func quantileSorted(x []float64, p float64) float64 {
	n := len(x)
	if n == 1 {
		return x[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return x[n-1]
	}
	if lo < 0 {
		return x[0]
	}
	frac := h - float64(lo)
	return x[lo] + frac*(x[lo+1]-x[lo])
}

// Quantile returns the type-7 p-quantile of x without modifying it.
func Quantile(x []float64, p float64) float64 {
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p)
}

// median of a non-empty slice, type-7 so an even length averages the middle pair.
func median(x []float64) float64 {
	return Quantile(x, 0.5)
}

// absValues returns |x| in a new slice, preserving order.
func absValues(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}

// sortedAbs returns |x| sorted ascending.
func sortedAbs(x []float64) []float64 {
	out := absValues(x)
	sort.Float64s(out)
	return out
}
