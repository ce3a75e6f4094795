package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// CSVSource reads records from a CSV file with a header row.
type CSVSource struct {
	Path string
}

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.Path)
	}
	defer f.Close()

	return ReadCSV(ctx, f)
}

// ReadCSV reads records from CSV data with a header row.
func ReadCSV(ctx context.Context, r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv")
		}
		rows = append(rows, row)
	}
	return parseRows("CSVSource.Load", rows)
}

// ReadFloats reads a column of numbers separated by newlines, commas or
// whitespace. A non-numeric first token is treated as a header and skipped.
func ReadFloats(r io.Reader) ([]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read values")
	}
	fields := strings.FieldsFunc(string(data), func(c rune) bool {
		return c == ',' || c == ';' || c == ' ' || c == '\t' || c == '\n' || c == '\r'
	})

	out := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := parseFloat(f)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, errors.NewValueErrorf("ReadFloats", "value %d: %v", i+1, err)
		}
		out = append(out, v)
	}
	return out, nil
}
