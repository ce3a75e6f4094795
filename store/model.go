package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/evaluation"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// CalibrationRun is a persisted evaluation report.
// Candidates and Units hold JSON documents.
type CalibrationRun struct {
	ID         uuid.UUID `gorm:"primaryKey;type:text"`
	CreatedAt  time.Time `gorm:"index"`
	Source     string    `gorm:"size:512"`
	Method     string    `gorm:"not null"`
	Mode       string    `gorm:"not null"`
	Alpha      float64   `gorm:"not null"`
	Margin     float64   `gorm:"not null"`
	Coverage   float64   `gorm:"not null"`
	AvgWidth   float64   `gorm:"not null"`
	RMSE       float64   `gorm:"column:rmse"`
	SScore     float64   `gorm:"column:s_score"`
	NumUnits   int       `gorm:"not null"`
	Candidates []byte    `gorm:"column:candidates"`
	Units      []byte    `gorm:"column:units"`
}

// NewCalibrationRun converts a report read from source into a storable run.
func NewCalibrationRun(report *evaluation.Report, source string) (*CalibrationRun, error) {
	if report == nil {
		return nil, errors.NewValueError("NewCalibrationRun", "nil report")
	}
	cands, err := json.Marshal(report.Candidates)
	if err != nil {
		return nil, errors.Wrap(err, "encode candidates")
	}
	units, err := json.Marshal(report.Units)
	if err != nil {
		return nil, errors.Wrap(err, "encode unit results")
	}
	return &CalibrationRun{
		ID:         report.RunID,
		CreatedAt:  report.CreatedAt,
		Source:     source,
		Method:     report.Method,
		Mode:       string(report.Margin.Mode),
		Alpha:      report.Alpha,
		Margin:     report.Margin.Value,
		Coverage:   report.Coverage,
		AvgWidth:   report.AvgWidth,
		RMSE:       report.Metrics.RMSE,
		SScore:     report.Metrics.SScore,
		NumUnits:   len(report.Units),
		Candidates: cands,
		Units:      units,
	}, nil
}

// FittedMargin returns the stored scalar margin.
func (r CalibrationRun) FittedMargin() conformal.Margin {
	return conformal.Margin{Mode: conformal.Mode(r.Mode), Value: r.Margin}
}

// CandidateList decodes the candidate margins scored for this run.
func (r CalibrationRun) CandidateList() ([]conformal.Candidate, error) {
	var cands []conformal.Candidate
	if len(r.Candidates) == 0 {
		return cands, nil
	}
	if err := json.Unmarshal(r.Candidates, &cands); err != nil {
		return nil, errors.Wrapf(err, "decode candidates of run %s", r.ID)
	}
	return cands, nil
}

// UnitResults decodes the per-unit metrics of this run.
func (r CalibrationRun) UnitResults() ([]evaluation.UnitResult, error) {
	var units []evaluation.UnitResult
	if len(r.Units) == 0 {
		return units, nil
	}
	if err := json.Unmarshal(r.Units, &units); err != nil {
		return nil, errors.Wrapf(err, "decode units of run %s", r.ID)
	}
	return units, nil
}
