package dataset

import (
	"context"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// Source loads prediction records.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
}

// Open chooses a Source from the file extension: .csv, .xlsx, or
// .duckdb/.db. table names the DuckDB table and sheet the worksheet;
// empty values select the defaults.
func Open(path, table, sheet string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return &CSVSource{Path: path}, nil
	case ".xlsx":
		return &XLSXSource{Path: path, Sheet: sheet}, nil
	case ".duckdb", ".db":
		return &DuckDBSource{DSN: path, Table: table}, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedSource, "%s", path)
	}
}

const (
	colUnit = iota
	colCycle
	colTrue
	colPred
)

var columnAliases = map[string]int{
	"unit":          colUnit,
	"unit_nr":       colUnit,
	"unit_id":       colUnit,
	"cycle":         colCycle,
	"time_cycles":   colCycle,
	"time":          colCycle,
	"true_rul":      colTrue,
	"rul":           colTrue,
	"y_true":        colTrue,
	"actual":        colTrue,
	"pred_rul":      colPred,
	"prediction":    colPred,
	"predicted_rul": colPred,
	"y_pred":        colPred,
}

var columnNames = [...]string{"unit", "cycle", "true_rul", "pred_rul"}

// buildColumnMap maps each required column to its position in header.
func buildColumnMap(op string, header []string) ([4]int, error) {
	idx := [4]int{-1, -1, -1, -1}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if c, ok := columnAliases[key]; ok && idx[c] < 0 {
			idx[c] = i
		}
	}
	for c, i := range idx {
		if i < 0 {
			return idx, errors.NewValueErrorf(op, "missing column %q", columnNames[c])
		}
	}
	return idx, nil
}

// parseRows converts a header row followed by data rows into records.
// Blank rows are skipped.
func parseRows(op string, rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, errors.NewValueError(op, "no header row")
	}
	cols, err := buildColumnMap(op, rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		line := i + 2
		cell := func(c int) string {
			if cols[c] < len(row) {
				return strings.TrimSpace(row[cols[c]])
			}
			return ""
		}

		var r Record
		if r.Unit, err = parseInt(cell(colUnit)); err != nil {
			return nil, errors.NewValueErrorf(op, "row %d column %q: %v", line, columnNames[colUnit], err)
		}
		if r.Cycle, err = parseInt(cell(colCycle)); err != nil {
			return nil, errors.NewValueErrorf(op, "row %d column %q: %v", line, columnNames[colCycle], err)
		}
		if r.TrueRUL, err = parseFloat(cell(colTrue)); err != nil {
			return nil, errors.NewValueErrorf(op, "row %d column %q: %v", line, columnNames[colTrue], err)
		}
		if r.PredRUL, err = parseFloat(cell(colPred)); err != nil {
			return nil, errors.NewValueErrorf(op, "row %d column %q: %v", line, columnNames[colPred], err)
		}
		records = append(records, r)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Newf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Newf("%q is not finite", s)
	}
	return v, nil
}

// parseInt accepts integral floats such as "3.0", which spreadsheets produce.
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, errors.Newf("%q is not an integer", s)
	}
	return int(v), nil
}
