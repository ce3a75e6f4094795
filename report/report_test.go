package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/dataset"
	"github.com/YuminosukeSato/rulconform/evaluation"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

func TestWriteUnitCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteUnitCSV(&buf, []evaluation.UnitResult{
		{Unit: 7, NumPredictions: 120, Margin: 12.5, Coverage: 0.95, AvgWidth: 11.25, IndexDiff: 3},
		{Unit: 9, NumPredictions: 80, Margin: 12.5, Coverage: 1, AvgWidth: 10, IndexDiff: 0},
	})
	if err != nil {
		t.Fatalf("WriteUnitCSV: %v", err)
	}

	want := "unit_id,num_predictions,margin,coverage,avg_width,index_diff\n" +
		"7,120,12.5,0.95,11.25,3\n" +
		"9,80,12.5,1,10,0\n"
	if got := buf.String(); got != want {
		t.Errorf("csv =\n%s\nwant\n%s", got, want)
	}
}

func trajectory(unit int) dataset.Trajectory {
	tr := dataset.Trajectory{Unit: unit}
	for c := 0; c < 20; c++ {
		tr.Cycles = append(tr.Cycles, c+1)
		tr.TrueRUL = append(tr.TrueRUL, float64(19-c))
		tr.PredRUL = append(tr.PredRUL, float64(21-c))
	}
	return tr
}

func assertNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Errorf("%s is empty", path)
	}
}

func TestPlotUnit(t *testing.T) {
	tr := trajectory(1)
	iv, err := conformal.Apply(tr.Regulated(), conformal.Scalar(3))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for _, name := range []string{"unit.png", "unit.svg", "unit.pdf"} {
		path := filepath.Join(t.TempDir(), name)
		if err := PlotUnit(path, tr, iv, "Unit 1"); err != nil {
			t.Fatalf("PlotUnit(%s): %v", name, err)
		}
		assertNonEmptyFile(t, path)
	}
}

func TestPlotUnitErrors(t *testing.T) {
	tr := trajectory(1)
	iv, _ := conformal.Apply(tr.Regulated()[:5], conformal.Scalar(3))

	err := PlotUnit(filepath.Join(t.TempDir(), "unit.png"), tr, iv, "Unit 1")
	var shapeErr *errors.ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Errorf("got %v, want ShapeMismatchError", err)
	}

	err = PlotUnit(filepath.Join(t.TempDir(), "unit.bmp"), tr, iv, "Unit 1")
	var valErr *errors.ValueError
	if !errors.As(err, &valErr) {
		t.Errorf("got %v, want ValueError", err)
	}
}

func TestPlotUnits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.png")
	trajs := []dataset.Trajectory{trajectory(1), trajectory(2), trajectory(3)}
	if err := PlotUnits(path, trajs, conformal.Scalar(2.5), 5); err != nil {
		t.Fatalf("PlotUnits: %v", err)
	}
	assertNonEmptyFile(t, path)

	if err := PlotUnits(path, nil, conformal.Scalar(1), 5); err == nil {
		t.Error("expected an error for no trajectories")
	}
	if err := PlotUnits(path, trajs, conformal.Scalar(1), -1); err == nil {
		t.Error("expected an error for a negative gap")
	}
}
