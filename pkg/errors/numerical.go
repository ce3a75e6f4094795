package errors

import (
	"math"
)

// CheckFinite checks if values contain NaN or Inf
// and returns an error naming the first offending index.
func CheckFinite(operation string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, collectUnstable(values), i)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, 0)
	}
	return nil
}

// collectUnstable gathers at most 10 non-finite values for the error message.
func collectUnstable(values []float64) []float64 {
	var unstable []float64
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			unstable = append(unstable, v)
			if len(unstable) >= 10 {
				break
			}
		}
	}
	return unstable
}

// LogSumExp computes log(sum(exp(values))) in a numerically stable way.
func LogSumExp(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}

	maxVal := values[0]
	for _, v := range values[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	// If max is -Inf, all values are -Inf
	if math.IsInf(maxVal, -1) {
		return math.Inf(-1)
	}

	sum := 0.0
	for _, v := range values {
		sum += math.Exp(v - maxVal)
	}

	return maxVal + math.Log(sum)
}

// Softmax turns log-weights into weights that sum to 1.
// Large log-weights do not overflow because the log-sum-exp is subtracted first.
func Softmax(logWeights []float64) []float64 {
	out := make([]float64, len(logWeights))
	if len(logWeights) == 0 {
		return out
	}
	lse := LogSumExp(logWeights)
	for i, l := range logWeights {
		out[i] = math.Exp(l - lse)
	}
	return out
}
