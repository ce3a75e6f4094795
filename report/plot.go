package report

import (
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/dataset"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

var (
	actualColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	predColor   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	bandColor   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x40}
)

// チャートのサイズ
const (
	chartHeight = 4 * vg.Inch
	unitWidth   = 8 * vg.Inch
	fleetWidth  = 14 * vg.Inch
)

// PlotUnit draws the true RUL (dashed), the regulated prediction and the
// interval band of a single unit, saving it to path. The image format
// follows the extension: .png, .svg or .pdf.
func PlotUnit(path string, traj dataset.Trajectory, iv conformal.Interval, title string) error {
	if err := checkFormat(path); err != nil {
		return err
	}
	if iv.Len() != traj.Len() {
		return errors.NewShapeMismatchError("PlotUnit", traj.Len(), iv.Len())
	}
	if traj.Len() == 0 {
		return errors.NewInsufficientDataError("PlotUnit", "", 1, 0)
	}

	p := newPlot(title)
	xs := make([]float64, traj.Len())
	for i, c := range traj.Cycles {
		xs[i] = float64(c)
	}
	p.X.Label.Text = "Cycle"
	if err := addSegment(p, xs, traj.TrueRUL, iv, true); err != nil {
		return err
	}
	return errors.Wrapf(p.Save(unitWidth, chartHeight, path), "save %s", path)
}

// PlotUnits lays the units out one after another on the x axis with gap
// empty steps between them. Each unit is cut at its first zero
// prediction and given the interval from margin.
func PlotUnits(path string, trajs []dataset.Trajectory, margin conformal.Margin, gap int) error {
	if err := checkFormat(path); err != nil {
		return err
	}
	if len(trajs) == 0 {
		return errors.NewInsufficientDataError("PlotUnits", "", 1, 0)
	}
	if gap < 0 {
		return errors.NewInvalidConfigError("gap", "must not be negative", gap)
	}

	p := newPlot("Conformal intervals by unit")
	p.X.Label.Text = "Step (units concatenated)"

	offset := 0
	for i, t := range trajs {
		t = t.Truncate()
		iv, err := conformal.Apply(t.Regulated(), margin)
		if err != nil {
			return errors.Wrapf(err, "unit %d", t.Unit)
		}
		xs := make([]float64, t.Len())
		for j := range xs {
			xs[j] = float64(offset + j)
		}
		if err := addSegment(p, xs, t.TrueRUL, iv, i == 0); err != nil {
			return errors.Wrapf(err, "unit %d", t.Unit)
		}
		offset += t.Len() + gap
	}
	return errors.Wrapf(p.Save(fleetWidth, chartHeight, path), "save %s", path)
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "RUL"
	p.Y.Min = 0
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

// addSegment adds the band, the prediction and the truth for one unit.
// Legend entries are added only when legend is set.
func addSegment(p *plot.Plot, xs, truth []float64, iv conformal.Interval, legend bool) error {
	n := len(xs)
	band := make(plotter.XYs, 0, 2*n)
	pred := make(plotter.XYs, n)
	actual := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		band = append(band, plotter.XY{X: xs[i], Y: iv.Upper[i]})
		pred[i] = plotter.XY{X: xs[i], Y: iv.Upper[i]}
		actual[i] = plotter.XY{X: xs[i], Y: truth[i]}
	}
	for i := n - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: xs[i], Y: iv.Lower[i]})
	}

	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return errors.Wrap(err, "interval band")
	}
	poly.Color = bandColor
	poly.LineStyle.Width = 0

	predLine, err := plotter.NewLine(pred)
	if err != nil {
		return errors.Wrap(err, "prediction line")
	}
	predLine.Color = predColor
	predLine.Width = vg.Points(1.5)

	actualLine, err := plotter.NewLine(actual)
	if err != nil {
		return errors.Wrap(err, "actual line")
	}
	actualLine.Color = actualColor
	actualLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(poly, predLine, actualLine)
	if legend {
		p.Legend.Add("interval", poly)
		p.Legend.Add("predicted", predLine)
		p.Legend.Add("actual", actualLine)
	}
	return nil
}

func checkFormat(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".svg", ".pdf":
		return nil
	default:
		return errors.NewValueErrorf("report", "unsupported chart format %q, use .png, .svg or .pdf", filepath.Ext(path))
	}
}
