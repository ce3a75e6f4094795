// Package evaluation runs the calibrate-then-test workflow over a fleet of
// engine units: residuals are taken from the calibration units, candidate
// margins are scored there, and the chosen margin is applied to every
// held-out unit.
package evaluation

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/rulconform/config"
	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/dataset"
	"github.com/YuminosukeSato/rulconform/metrics"
	"github.com/YuminosukeSato/rulconform/monitor"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
	"github.com/YuminosukeSato/rulconform/pkg/log"
)

// CandidateModes are scored on the calibration units by default.
var CandidateModes = []conformal.Mode{
	conformal.ModeParametric,
	conformal.ModeWeighted,
	conformal.ModeBootstrap,
	conformal.ModeNaive,
}

// ComplexModes are the candidates whose median is the complex margin.
var ComplexModes = []conformal.Mode{
	conformal.ModeParametric,
	conformal.ModeWeighted,
	conformal.ModeBootstrap,
}

// UnitResult is the interval quality on one test unit.
type UnitResult struct {
	Unit           int     `json:"unit_id"`
	NumPredictions int     `json:"num_predictions"`
	Margin         float64 `json:"margin"`
	Coverage       float64 `json:"coverage"`
	AvgWidth       float64 `json:"avg_width"`
	IndexDiff      int     `json:"index_diff"`
}

// Report is the outcome of one pipeline run.
type Report struct {
	RunID            uuid.UUID             `json:"run_id"`
	Method           string                `json:"method"`
	Alpha            float64               `json:"alpha"`
	Target           float64               `json:"target_coverage"`
	Margin           conformal.Margin      `json:"margin"`
	Candidates       []conformal.Candidate `json:"candidates"`
	CalibrationUnits []int                 `json:"calibration_units"`
	TestUnits        []int                 `json:"test_units"`
	Units            []UnitResult          `json:"units"`
	CreatedAt        time.Time             `json:"created_at"`

	// Coverage and AvgWidth are pooled over every test prediction.
	Coverage float64         `json:"coverage"`
	AvgWidth float64         `json:"avg_width"`
	Metrics  metrics.Summary `json:"metrics"`

	// Monitor is the coverage monitor state after every test prediction
	// was observed in unit then cycle order.
	Monitor monitor.Status `json:"monitor"`
}

// Pipeline holds the settings of an evaluation run.
type Pipeline struct {
	Conformal           config.Conformal
	CalibrationFraction float64
	Modes               []conformal.Mode

	logger log.Logger
}

// New creates a Pipeline from a validated configuration.
func New(cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		Conformal:           cfg.Conformal,
		CalibrationFraction: cfg.Data.CalibrationFraction,
		Modes:               CandidateModes,
		logger:              log.GetLoggerWithName("evaluation"),
	}, nil
}

// Run evaluates records end to end.
func (p *Pipeline) Run(ctx context.Context, records []dataset.Record) (*Report, error) {
	start := time.Now()
	runID := uuid.New()
	logger := p.logger
	if logger == nil {
		logger = log.GetLoggerWithName("evaluation")
	}
	logger = logger.With(log.RunIDKey, runID.String())

	opts, err := p.Conformal.Options()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewInsufficientDataError("Pipeline.Run", "", 1, 0)
	}

	trajs := dataset.GroupByUnit(records)
	cal, test, err := dataset.SplitUnits(trajs, p.CalibrationFraction)
	if err != nil {
		return nil, errors.Wrap(err, "split units")
	}
	residuals := dataset.Residuals(cal)
	logger.Info("units split",
		log.UnitsKey, len(trajs),
		log.CalibrationUnitsKey, len(cal),
		log.TestUnitsKey, len(test),
		log.ResidualsKey, len(residuals),
	)

	modes := p.Modes
	if len(modes) == 0 {
		modes = CandidateModes
	}
	cands := make([]conformal.Candidate, 0, len(modes))
	for _, mode := range modes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := conformal.Fit(residuals, append(opts[:len(opts):len(opts)], conformal.WithMode(mode))...)
		if err != nil {
			return nil, errors.Wrapf(err, "fit %s margin", mode)
		}
		_, pooled, err := evaluateUnits(ctx, cal, m, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "score %s margin", mode)
		}
		cands = append(cands, conformal.Candidate{Mode: m.Mode, Margin: m, Metrics: pooled})
		logger.Debug("candidate scored",
			log.ModeKey, string(mode),
			log.MarginKey, m.Value,
			log.CoverageKey, pooled.Coverage,
			log.WidthKey, pooled.AvgWidth,
		)
	}

	margin, err := p.selectMargin(cands)
	if err != nil {
		return nil, err
	}
	logger.Info("margin selected",
		log.MethodKey, p.Conformal.Method,
		log.ModeKey, string(margin.Mode),
		log.MarginKey, margin.Value,
	)

	mon := monitor.New()
	units, pooled, err := evaluateUnits(ctx, test, margin, mon)
	if err != nil {
		return nil, errors.Wrap(err, "evaluate test units")
	}
	status := mon.Stats()
	if status.Drifts > 0 {
		logger.Warn("coverage drift on test units, recalibration advised",
			log.CoverageKey, pooled.Coverage,
			"monitor.drifts", status.Drifts,
			"monitor.last_drift_at", status.LastDriftAt,
		)
	}

	truth, regulated := dataset.Flatten(test)
	summary, err := metrics.Summarize(truth, regulated)
	if err != nil {
		return nil, errors.Wrap(err, "summarize test predictions")
	}

	report := &Report{
		RunID:            runID,
		Method:           p.Conformal.Method,
		Alpha:            p.Conformal.Alpha,
		Target:           p.Conformal.Target(),
		Margin:           margin,
		Candidates:       cands,
		CalibrationUnits: unitIDs(cal),
		TestUnits:        unitIDs(test),
		Units:            units,
		Coverage:         pooled.Coverage,
		AvgWidth:         pooled.AvgWidth,
		Metrics:          summary,
		Monitor:          status,
		CreatedAt:        start.UTC(),
	}
	logger.Info("evaluation finished",
		log.CoverageKey, report.Coverage,
		log.WidthKey, report.AvgWidth,
		log.RMSEKey, summary.RMSE,
		log.SScoreKey, summary.SScore,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (p *Pipeline) selectMargin(cands []conformal.Candidate) (conformal.Margin, error) {
	switch p.Conformal.Method {
	case config.MethodComplex:
		return conformal.EnsembleMargin(filterModes(cands, ComplexModes))
	case config.MethodBest:
		c, err := conformal.SelectHighestCoverage(cands)
		return c.Margin, err
	default:
		c, err := conformal.SelectForTarget(cands, p.Conformal.Target())
		return c.Margin, err
	}
}

// evaluateUnits applies margin to the regulated forecast of every trajectory.
// The pooled metrics weight each unit by its number of predictions; the
// pooled IndexDiff is the rounded mean over units. mon, when set, observes
// every step.
func evaluateUnits(ctx context.Context, trajs []dataset.Trajectory, margin conformal.Margin, mon *monitor.CoverageMonitor) ([]UnitResult, conformal.IntervalMetrics, error) {
	results := make([]UnitResult, 0, len(trajs))
	var covered, width, indexDiff float64
	var total int
	for _, t := range trajs {
		if err := ctx.Err(); err != nil {
			return nil, conformal.IntervalMetrics{}, err
		}
		iv, err := conformal.Apply(t.Regulated(), margin)
		if err != nil {
			return nil, conformal.IntervalMetrics{}, errors.Wrapf(err, "unit %d", t.Unit)
		}
		m, err := conformal.Evaluate(iv, t.TrueRUL)
		if err != nil {
			return nil, conformal.IntervalMetrics{}, errors.Wrapf(err, "unit %d", t.Unit)
		}
		if mon != nil {
			if _, err := mon.ObserveInterval(iv, t.TrueRUL); err != nil {
				return nil, conformal.IntervalMetrics{}, errors.Wrapf(err, "unit %d", t.Unit)
			}
		}
		n := t.Len()
		results = append(results, UnitResult{
			Unit:           t.Unit,
			NumPredictions: n,
			Margin:         margin.Value,
			Coverage:       m.Coverage,
			AvgWidth:       m.AvgWidth,
			IndexDiff:      m.IndexDiff,
		})
		covered += m.Coverage * float64(n)
		width += m.AvgWidth * float64(n)
		indexDiff += float64(m.IndexDiff)
		total += n
	}
	if total == 0 {
		return nil, conformal.IntervalMetrics{}, errors.NewInsufficientDataError("evaluateUnits", "", 1, 0)
	}
	return results, conformal.IntervalMetrics{
		Coverage:  covered / float64(total),
		AvgWidth:  width / float64(total),
		IndexDiff: int(math.Round(indexDiff / float64(len(trajs)))),
	}, nil
}

func unitIDs(trajs []dataset.Trajectory) []int {
	ids := make([]int, len(trajs))
	for i, t := range trajs {
		ids[i] = t.Unit
	}
	return ids
}

func filterModes(cands []conformal.Candidate, modes []conformal.Mode) []conformal.Candidate {
	var out []conformal.Candidate
	for _, c := range cands {
		for _, m := range modes {
			if c.Mode == m {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
