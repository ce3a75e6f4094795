package dataset

import (
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// XLSXSource reads records from a worksheet of an Excel workbook.
// An empty Sheet selects the first worksheet.
type XLSXSource struct {
	Path  string
	Sheet string
}

// Load implements Source.
func (s *XLSXSource) Load(ctx context.Context) ([]Record, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.Path)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewValueError("XLSXSource.Load", "workbook has no sheets")
		}
		sheet = sheets[0]
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheet)
	}
	return parseRows("XLSXSource.Load", rows)
}
