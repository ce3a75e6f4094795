// Package conformal computes conformal margins for Remaining Useful Life
// forecasts and turns regulated point forecasts into one-sided prediction
// intervals.
//
// A margin is fitted on calibration residuals (true RUL minus regulated
// predicted RUL):
//
//	m, err := conformal.Fit(residuals,
//	    conformal.WithMode(conformal.ModeWeighted),
//	    conformal.WithAlpha(0.05),
//	)
//
// and applied to a forecast that has already been made non-increasing and
// non-negative with Regulate:
//
//	iv, err := conformal.Apply(conformal.Regulate(pred), m)
//
// The interval upper bound is the forecast itself. The lower bound is the
// forecast minus the margin, clipped at zero and never increasing along the
// trajectory.
package conformal
