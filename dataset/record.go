// Package dataset loads RUL predictions, groups them into per-unit
// trajectories and derives calibration residuals.
package dataset

import (
	"sort"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// DefaultCalibrationFraction is the share of units used for calibration.
const DefaultCalibrationFraction = 0.8

// Record is one prediction for one engine unit at one cycle.
type Record struct {
	Unit    int     `json:"unit"`
	Cycle   int     `json:"cycle"`
	TrueRUL float64 `json:"true_rul"`
	PredRUL float64 `json:"pred_rul"`
}

// Trajectory holds the predictions of a single unit ordered by cycle.
type Trajectory struct {
	Unit    int
	Cycles  []int
	TrueRUL []float64
	PredRUL []float64
}

// Len returns the number of cycles.
func (t Trajectory) Len() int {
	return len(t.Cycles)
}

// Regulated returns the predictions made non-increasing and non-negative.
func (t Trajectory) Regulated() []float64 {
	return conformal.Regulate(t.PredRUL)
}

// Truncate returns the prefix of t up to and including the first cycle
// whose regulated prediction reaches zero.
func (t Trajectory) Truncate() Trajectory {
	reg := t.Regulated()
	end := len(reg)
	for i, v := range reg {
		if v <= 0 {
			end = i + 1
			break
		}
	}
	return Trajectory{
		Unit:    t.Unit,
		Cycles:  t.Cycles[:end],
		TrueRUL: t.TrueRUL[:end],
		PredRUL: t.PredRUL[:end],
	}
}

// GroupByUnit groups records into trajectories sorted by unit, each sorted by cycle.
func GroupByUnit(records []Record) []Trajectory {
	byUnit := make(map[int][]Record)
	for _, r := range records {
		byUnit[r.Unit] = append(byUnit[r.Unit], r)
	}

	units := make([]int, 0, len(byUnit))
	for u := range byUnit {
		units = append(units, u)
	}
	sort.Ints(units)

	trajs := make([]Trajectory, 0, len(units))
	for _, u := range units {
		rs := byUnit[u]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Cycle < rs[j].Cycle })

		t := Trajectory{
			Unit:    u,
			Cycles:  make([]int, len(rs)),
			TrueRUL: make([]float64, len(rs)),
			PredRUL: make([]float64, len(rs)),
		}
		for i, r := range rs {
			t.Cycles[i] = r.Cycle
			t.TrueRUL[i] = r.TrueRUL
			t.PredRUL[i] = r.PredRUL
		}
		trajs = append(trajs, t)
	}
	return trajs
}

// SplitUnits returns the first int(fraction*len(trajs)) trajectories for
// calibration and the remainder for testing. Both sides must be non-empty.
func SplitUnits(trajs []Trajectory, fraction float64) (calibration, test []Trajectory, err error) {
	if !(fraction > 0 && fraction < 1) {
		return nil, nil, errors.NewInvalidConfigError("calibration_fraction", "must be in (0, 1)", fraction)
	}
	n := int(fraction * float64(len(trajs)))
	if n == 0 {
		return nil, nil, errors.NewInsufficientDataError("SplitUnits", "", 1, 0)
	}
	if n == len(trajs) {
		return nil, nil, errors.NewInsufficientDataError("SplitUnits", "", n+1, len(trajs))
	}
	return trajs[:n], trajs[n:], nil
}

// Residuals concatenates true RUL minus regulated predicted RUL over trajs,
// in unit then cycle order.
func Residuals(trajs []Trajectory) []float64 {
	var out []float64
	for _, t := range trajs {
		reg := t.Regulated()
		for i, y := range t.TrueRUL {
			out = append(out, y-reg[i])
		}
	}
	return out
}

// Flatten concatenates the true RUL and regulated predictions of trajs.
func Flatten(trajs []Trajectory) (truth, regulated []float64) {
	for _, t := range trajs {
		truth = append(truth, t.TrueRUL...)
		regulated = append(regulated, t.Regulated()...)
	}
	return truth, regulated
}
