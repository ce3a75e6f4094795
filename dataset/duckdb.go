package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// DefaultTable is the DuckDB table read when none is configured.
const DefaultTable = "predictions"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DuckDBSource reads records from a DuckDB table with the columns
// unit, cycle, true_rul and pred_rul.
type DuckDBSource struct {
	DSN   string
	Table string
}

// Load implements Source.
func (s *DuckDBSource) Load(ctx context.Context) ([]Record, error) {
	table := s.Table
	if table == "" {
		table = DefaultTable
	}
	if !identifier.MatchString(table) {
		return nil, errors.NewInvalidConfigError("table", "must be a plain SQL identifier", table)
	}

	db, err := sql.Open("duckdb", s.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "open duckdb %s", s.DSN)
	}
	defer db.Close()

	query := fmt.Sprintf(`SELECT unit, cycle, true_rul, pred_rul FROM %s ORDER BY unit, cycle`, table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", table)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Unit, &r.Cycle, &r.TrueRUL, &r.PredRUL); err != nil {
			return nil, errors.Wrap(err, "scan prediction row")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate prediction rows")
	}
	return records, nil
}
