// Package rulconform puts distribution-free lower bounds under
// remaining-useful-life (RUL) forecasts of turbofan engines.
//
// A forecaster predicts, cycle by cycle, how many cycles an engine has left.
// rulconform calibrates a non-negative margin from the residuals of that
// forecaster on held-out engines and turns every later forecast p into the
// interval [max(0, p - margin), p]. With an exchangeable calibration set the
// interval contains the true RUL with probability about 1 - α.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/rulconform/conformal"
//	)
//
//	func main() {
//	    residuals := []float64{1, 2, 3, 4, 5}
//
//	    m, err := conformal.Fit(residuals, conformal.WithAlpha(0.1))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    iv, err := conformal.Apply([]float64{50}, m)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(iv.Lower, iv.Upper) // [45.4] [50]
//	}
//
// # Margin modes
//
//   - naive: the (1-α)-quantile of |residuals|
//   - weighted: the same quantile with recent residuals weighted exponentially more
//   - bootstrap: the median of the quantiles of B resamples, reproducible from a seed
//   - parametric: z(1-α) times the standard deviation of the signed residuals
//   - ensemble: the median of the naive, weighted and bootstrap margins
//
// # Packages
//
//   - conformal: margins, intervals, regulation, interval metrics and mode selection
//   - dataset: prediction tables from CSV, XLSX and DuckDB, grouped per engine unit
//   - evaluation: the calibrate-then-test pipeline over a fleet of units
//   - metrics: RMSE, MAE, R² and the asymmetric S-score of the forecasts
//   - report: per-unit CSV tables and interval charts
//   - store: calibration runs persisted with gorm on sqlite or PostgreSQL
//   - config: defaults, YAML and RULCONF_* environment settings
//   - core/model: calibrator state and gob persistence
//   - core/parallel: the worker pool used by the bootstrap
//   - pkg/errors, pkg/log: structured errors and zerolog logging
//
// The rulconf command in cmd/rulconf exposes the same workflow on the
// command line.
package rulconform
