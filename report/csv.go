// Package report writes evaluation results as CSV tables and charts.
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/YuminosukeSato/rulconform/evaluation"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// UnitColumns is the header written by WriteUnitCSV.
var UnitColumns = []string{"unit_id", "num_predictions", "margin", "coverage", "avg_width", "index_diff"}

// WriteUnitCSV writes one row per unit result.
func WriteUnitCSV(w io.Writer, results []evaluation.UnitResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(UnitColumns); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Unit),
			strconv.Itoa(r.NumPredictions),
			formatFloat(r.Margin),
			formatFloat(r.Coverage),
			formatFloat(r.AvgWidth),
			strconv.Itoa(r.IndexDiff),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write unit %d", r.Unit)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
