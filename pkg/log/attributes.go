// Package log defines standard attribute keys for conformal calibration.
//
// Keys follow a dotted hierarchy ("conformal.mode", "data.units") so log
// lines from the CLI, the evaluation pipeline and the store can be filtered
// the same way.

package log

// Operation context
const (
	// ComponentKey identifies which package emitted the record.
	// Examples: "conformal", "evaluation", "store", "cli"
	ComponentKey = "component"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "apply", "evaluate", "select"
	OperationKey = "operation"

	// RunIDKey carries the uuid of a calibration run.
	RunIDKey = "run.id"

	// SourceKey is the path or DSN the predictions were read from.
	SourceKey = "data.source"
)

// Data shape
const (
	// ResidualsKey is the size of the calibration residual set.
	ResidualsKey = "data.residuals"

	// UnitsKey is the number of engine units involved.
	UnitsKey = "data.units"

	// CalibrationUnitsKey is the number of units used for calibration.
	CalibrationUnitsKey = "data.calibration_units"

	// TestUnitsKey is the number of held-out units.
	TestUnitsKey = "data.test_units"

	// UnitKey identifies a single engine unit.
	UnitKey = "data.unit"

	// PredsKey is the number of predictions in a trajectory.
	PredsKey = "preds.count"
)

// Conformal configuration
const (
	ModeKey      = "conformal.mode"
	AlphaKey     = "conformal.alpha"
	TauKey       = "conformal.tau"
	ResamplesKey = "conformal.resamples"
	SeedKey      = "conformal.seed"
	ScaleKey     = "conformal.scale"
	MethodKey    = "conformal.method"
	WorkersKey   = "conformal.workers"
)

// Outcomes
const (
	MarginKey    = "result.margin"
	CoverageKey  = "result.coverage"
	TargetKey    = "result.target_coverage"
	WidthKey     = "result.avg_width"
	IndexDiffKey = "result.index_diff"
	SScoreKey    = "result.s_score"
	RMSEKey      = "result.rmse"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving the issue.
	// Example: "increase the number of calibration units"
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit      = "fit"
	OperationApply    = "apply"
	OperationEvaluate = "evaluate"
	OperationSelect   = "select"

	ErrorInsufficientData = "INSUFFICIENT_DATA"
	ErrorInvalidConfig    = "INVALID_CONFIG"
	ErrorShapeMismatch    = "SHAPE_MISMATCH"
)
