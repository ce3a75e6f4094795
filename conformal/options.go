package conformal

import (
	"strings"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// Mode selects the margin strategy.
type Mode string

const (
	// ModeNaive uses the (1-α)-quantile of the absolute residuals.
	ModeNaive Mode = "naive"
	// ModeWeighted weights recent residuals exponentially more.
	ModeWeighted Mode = "weighted"
	// ModeBootstrap takes the median of bootstrap-resampled quantiles.
	ModeBootstrap Mode = "bootstrap"
	// ModeParametric assumes normally distributed signed residuals.
	ModeParametric Mode = "parametric"
	// ModeEnsemble is the median of the naive, weighted and bootstrap margins.
	ModeEnsemble Mode = "ensemble"
)

// Modes lists every supported mode in evaluation order.
var Modes = []Mode{ModeNaive, ModeWeighted, ModeBootstrap, ModeParametric, ModeEnsemble}

// ParseMode converts a case-insensitive mode name into a Mode.
// "complex" is accepted as an alias of ensemble.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNaive, ModeWeighted, ModeBootstrap, ModeParametric, ModeEnsemble:
		return m, nil
	case "complex":
		return ModeEnsemble, nil
	default:
		return "", errors.Wrapf(errors.ErrUnknownMode, "%q", s)
	}
}

// WeightedRule selects how the weighted quantile resolves ranks that fall
// between two sorted residuals.
type WeightedRule int

const (
	// WeightedInterpolated interpolates linearly between weighted plotting
	// positions. With equal weights it equals the naive quantile.
	WeightedInterpolated WeightedRule = iota
	// WeightedStep returns the smallest residual whose cumulative weight
	// reaches 1-α.
	WeightedStep
)

func (r WeightedRule) String() string {
	if r == WeightedStep {
		return "step"
	}
	return "interpolated"
}

const (
	DefaultAlpha     = 0.05
	DefaultResamples = 200
	DefaultSeed      = 42
)

type options struct {
	mode      Mode
	alpha     float64
	tau       float64
	tauSet    bool
	resamples int
	seed      uint64
	scale     float64
	workers   int
	rule      WeightedRule
}

// Option configures Fit, CompareModes and Calibrator.
type Option func(*options)

// WithMode selects the margin strategy. Default is naive.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithAlpha sets the nominal miscoverage α. Default is 0.05.
func WithAlpha(alpha float64) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}

// WithTau sets the decay constant of the weighted mode.
// Without it DefaultTau(len(residuals)) is used.
func WithTau(tau float64) Option {
	return func(o *options) {
		o.tau = tau
		o.tauSet = true
	}
}

// WithResamples sets the number of bootstrap resamples B. Default is 200.
func WithResamples(b int) Option {
	return func(o *options) {
		o.resamples = b
	}
}

// WithSeed sets the bootstrap seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithScale multiplies the fitted margin by factor. Default is 1.
func WithScale(factor float64) Option {
	return func(o *options) {
		o.scale = factor
	}
}

// WithWorkers bounds the goroutines used for bootstrap resampling.
// Zero means one per CPU. The result does not depend on it.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithWeightedRule selects the weighted quantile rule.
func WithWeightedRule(r WeightedRule) Option {
	return func(o *options) {
		o.rule = r
	}
}

// Settings is the stored form of the Fit options, kept by a Calibrator so
// that a loaded calibrator refits the way it was configured.
type Settings struct {
	Mode      Mode
	Alpha     float64
	Tau       float64 // 0: DefaultTau(len(residuals))
	Resamples int
	Seed      uint64
	Scale     float64
	Workers   int
	Rule      WeightedRule
}

// Options turns s back into Fit options. Zero Mode, Alpha, Resamples and
// Scale keep their defaults.
func (s Settings) Options() []Option {
	opts := []Option{WithSeed(s.Seed), WithWorkers(s.Workers), WithWeightedRule(s.Rule)}
	if s.Mode != "" {
		opts = append(opts, WithMode(s.Mode))
	}
	if s.Alpha != 0 {
		opts = append(opts, WithAlpha(s.Alpha))
	}
	if s.Tau != 0 {
		opts = append(opts, WithTau(s.Tau))
	}
	if s.Resamples != 0 {
		opts = append(opts, WithResamples(s.Resamples))
	}
	if s.Scale != 0 {
		opts = append(opts, WithScale(s.Scale))
	}
	return opts
}

func (o options) settings() Settings {
	s := Settings{
		Mode:      o.mode,
		Alpha:     o.alpha,
		Resamples: o.resamples,
		Seed:      o.seed,
		Scale:     o.scale,
		Workers:   o.workers,
		Rule:      o.rule,
	}
	if o.tauSet {
		s.Tau = o.tau
	}
	return s
}

func newOptions(opts []Option) options {
	o := options{
		mode:      ModeNaive,
		alpha:     DefaultAlpha,
		resamples: DefaultResamples,
		seed:      DefaultSeed,
		scale:     1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) validate() error {
	if _, err := ParseMode(string(o.mode)); err != nil {
		return err
	}
	if !(o.alpha > 0 && o.alpha < 1) {
		return errors.NewInvalidConfigError("alpha", "must be in (0, 1)", o.alpha)
	}
	if o.tauSet && !(o.tau > 0) {
		return errors.NewInvalidConfigError("tau", "must be positive", o.tau)
	}
	if o.resamples <= 0 {
		return errors.NewInvalidConfigError("resamples", "must be positive", o.resamples)
	}
	if !(o.scale > 0) {
		return errors.NewInvalidConfigError("scale", "must be positive", o.scale)
	}
	if o.workers < 0 {
		return errors.NewInvalidConfigError("workers", "must not be negative", o.workers)
	}
	return nil
}

// tauFor returns the configured τ or the default for n residuals.
func (o options) tauFor(n int) float64 {
	if o.tauSet {
		return o.tau
	}
	return DefaultTau(n)
}
