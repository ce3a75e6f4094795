package model

// MarginFitter is implemented by calibrators that learn a conformal margin
// from calibration residuals (true RUL minus regulated predicted RUL).
type MarginFitter interface {
	// Fit computes and stores the margin.
	Fit(residuals []float64) error

	// IsFitted reports whether Fit has succeeded.
	IsFitted() bool
}

// IntervalPredictor turns regulated point forecasts into one-sided intervals.
type IntervalPredictor interface {
	// PredictBounds returns the lower and upper bounds for each prediction.
	PredictBounds(pred []float64) (lower, upper []float64, err error)
}

// Calibrated combines fitting and interval prediction.
type Calibrated interface {
	MarginFitter
	IntervalPredictor
}
