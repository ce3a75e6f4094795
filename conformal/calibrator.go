package conformal

import (
	"github.com/YuminosukeSato/rulconform/core/model"
)

// Calibrator keeps a fitted margin so the same calibration can be applied
// to many forecasts, saved with model.SaveModel and loaded again.
// Settings travel with it, so a loaded calibrator refits with the same mode and α.
type Calibrator struct {
	State    *model.StateManager
	Margin   Margin
	Settings Settings
}

var _ model.Calibrated = (*Calibrator)(nil)

// NewCalibrator creates an unfitted Calibrator. opts are passed to Fit.
func NewCalibrator(opts ...Option) *Calibrator {
	return &Calibrator{
		State:    model.NewStateManager(),
		Settings: newOptions(opts).settings(),
	}
}

// Fit computes the margin from residuals and stores it.
// On error the previous fitted state is kept.
func (c *Calibrator) Fit(residuals []float64) error {
	settings := c.Settings
	if settings == (Settings{}) {
		settings = newOptions(nil).settings()
	}
	m, err := Fit(residuals, settings.Options()...)
	if err != nil {
		return err
	}
	if c.State == nil {
		c.State = model.NewStateManager()
	}
	c.Margin = m
	c.State.SetFitted(len(residuals))
	return nil
}

// SetMargin marks the calibrator fitted with a margin computed elsewhere,
// for example one read back from the run store.
func (c *Calibrator) SetMargin(m Margin) error {
	if err := checkMargin("SetMargin", m); err != nil {
		return err
	}
	c.Margin = m
	c.State.SetFitted(0)
	return nil
}

// IsFitted reports whether a margin is available.
func (c *Calibrator) IsFitted() bool {
	return c.State != nil && c.State.IsFitted()
}

// FittedMargin returns the stored margin.
func (c *Calibrator) FittedMargin() (Margin, error) {
	if err := c.requireFitted("FittedMargin"); err != nil {
		return Margin{}, err
	}
	return c.Margin, nil
}

// Predict applies the stored margin to a regulated forecast.
func (c *Calibrator) Predict(pred []float64) (Interval, error) {
	if err := c.requireFitted("Predict"); err != nil {
		return Interval{}, err
	}
	return Apply(pred, c.Margin)
}

// PredictBounds is Predict returning the bounds separately.
func (c *Calibrator) PredictBounds(pred []float64) (lower, upper []float64, err error) {
	iv, err := c.Predict(pred)
	if err != nil {
		return nil, nil, err
	}
	return iv.Lower, iv.Upper, nil
}

func (c *Calibrator) requireFitted(method string) error {
	if c.State == nil {
		c.State = model.NewStateManager()
	}
	return c.State.RequireFitted("Calibrator", method)
}
