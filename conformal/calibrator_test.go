package conformal

import (
	"bytes"
	"math"
	"testing"

	"github.com/YuminosukeSato/rulconform/core/model"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

func TestCalibratorNotFitted(t *testing.T) {
	c := NewCalibrator()

	_, err := c.Predict([]float64{10})
	var notFitted *errors.NotFittedError
	if !errors.As(err, &notFitted) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}
	if _, err := c.FittedMargin(); err == nil {
		t.Error("FittedMargin should fail before Fit")
	}
}

func TestCalibratorFitPredict(t *testing.T) {
	c := NewCalibrator(WithAlpha(0.1))
	if err := c.Fit([]float64{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !c.IsFitted() {
		t.Fatal("calibrator should be fitted")
	}

	lower, upper, err := c.PredictBounds([]float64{50, 40})
	if err != nil {
		t.Fatalf("PredictBounds: %v", err)
	}
	if math.Abs(lower[0]-45.4) > tolerance || upper[1] != 40 {
		t.Errorf("bounds = %v / %v", lower, upper)
	}
}

func TestCalibratorFailedFitKeepsState(t *testing.T) {
	c := NewCalibrator(WithAlpha(0.1))
	if err := c.Fit([]float64{1, 2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}
	if err := c.Fit(nil); err == nil {
		t.Fatal("expected error for empty residuals")
	}
	m, err := c.FittedMargin()
	if err != nil || math.Abs(m.Value-4.6) > tolerance {
		t.Errorf("margin after failed refit = %v, %v", m, err)
	}
}

func TestCalibratorSetMargin(t *testing.T) {
	c := NewCalibrator()
	if err := c.SetMargin(Scalar(-1)); err == nil {
		t.Error("SetMargin should reject a negative margin")
	}
	if err := c.SetMargin(Scalar(3)); err != nil {
		t.Fatalf("SetMargin: %v", err)
	}
	iv, err := c.Predict([]float64{10})
	if err != nil || iv.Lower[0] != 7 {
		t.Errorf("Predict = %+v, %v", iv, err)
	}
}

func TestCalibratorPersistence(t *testing.T) {
	c := NewCalibrator(WithMode(ModeWeighted), WithAlpha(0.2))
	if err := c.Fit(randomResiduals(30, 2)); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	var buf bytes.Buffer
	if err := model.SaveModelToWriter(c, &buf); err != nil {
		t.Fatalf("SaveModelToWriter: %v", err)
	}

	loaded := &Calibrator{}
	if err := model.LoadModelFromReader(loaded, &buf); err != nil {
		t.Fatalf("LoadModelFromReader: %v", err)
	}
	if !loaded.IsFitted() {
		t.Fatal("loaded calibrator should be fitted")
	}
	if loaded.Margin.Value != c.Margin.Value || loaded.Margin.Mode != ModeWeighted {
		t.Errorf("loaded margin %+v, want %+v", loaded.Margin, c.Margin)
	}
	if loaded.Settings.Alpha != 0.2 || loaded.Settings.Mode != ModeWeighted {
		t.Errorf("Settings = %+v, want weighted with alpha 0.2", loaded.Settings)
	}
}

func TestLoadedCalibratorRefitsWithSavedSettings(t *testing.T) {
	c := NewCalibrator(WithMode(ModeBootstrap), WithAlpha(0.2), WithResamples(60), WithSeed(9), WithTau(3))
	var buf bytes.Buffer
	if err := model.SaveModelToWriter(c, &buf); err != nil {
		t.Fatalf("SaveModelToWriter: %v", err)
	}
	loaded := &Calibrator{}
	if err := model.LoadModelFromReader(loaded, &buf); err != nil {
		t.Fatalf("LoadModelFromReader: %v", err)
	}

	r := randomResiduals(40, 5)
	if err := loaded.Fit(r); err != nil {
		t.Fatalf("Fit after load: %v", err)
	}
	want, err := Fit(r, WithMode(ModeBootstrap), WithAlpha(0.2), WithResamples(60), WithSeed(9))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if loaded.Margin.Value != want.Value || loaded.Margin.Mode != want.Mode {
		t.Errorf("refit margin %+v, want %+v", loaded.Margin, want)
	}
	if loaded.Settings.Tau != 3 {
		t.Errorf("Tau = %v, want 3", loaded.Settings.Tau)
	}
}
