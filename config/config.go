// Package config loads rulconform settings from defaults, an optional YAML
// file and RULCONF_* environment variables, in that order of precedence.
package config

import (
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"sigs.k8s.io/yaml"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// EnvPrefix prefixes every environment variable, e.g. RULCONF_CONFORMAL_ALPHA.
const EnvPrefix = "RULCONF"

// Selection methods used by the evaluation pipeline.
const (
	MethodTarget  = "target"
	MethodBest    = "best"
	MethodComplex = "complex"
)

// Config は rulconform 全体の設定です。
// 環境変数のキーはフィールド名から導出されます (例: RULCONF_CONFORMAL_WEIGHTED_RULE, RULCONF_DB_HOSTNAME)。
type Config struct {
	Conformal Conformal `json:"conformal"`
	Data      Data      `json:"data"`
	Database  Database  `json:"database" envconfig:"DB"`
	Log       Log       `json:"log"`
}

type Conformal struct {
	Alpha float64 `json:"alpha"`
	Mode  string  `json:"mode"`
	// Tau of 0 selects n/5 for n calibration residuals.
	Tau          float64 `json:"tau"`
	Resamples    int     `json:"resamples"`
	Seed         uint64  `json:"seed"`
	Scale        float64 `json:"scale"`
	Workers      int     `json:"workers"`
	WeightedRule string  `json:"weightedRule" split_words:"true"`
	Method       string  `json:"method"`
	// TargetCoverage of 0 means 1-Alpha.
	TargetCoverage float64 `json:"targetCoverage" split_words:"true"`
}

type Data struct {
	CalibrationFraction float64 `json:"calibrationFraction" split_words:"true"`
	Table               string  `json:"table"`
	Sheet               string  `json:"sheet"`
}

type Database struct {
	Type     string `json:"type"`
	Hostname string `json:"hostname"`
	Port     string `json:"port"`
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Log struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Conformal: Conformal{
			Alpha:        conformal.DefaultAlpha,
			Mode:         string(conformal.ModeNaive),
			Resamples:    conformal.DefaultResamples,
			Seed:         conformal.DefaultSeed,
			Scale:        1,
			WeightedRule: conformal.WeightedInterpolated.String(),
			Method:       MethodTarget,
		},
		Data: Data{
			CalibrationFraction: 0.8,
			Table:               "predictions",
		},
		Database: Database{
			Type:     "sqlite",
			Hostname: "localhost",
			Port:     "5432",
			Name:     "rulconform.db",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then the environment, and validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its allowed range.
func (c *Config) Validate() error {
	if _, err := c.Conformal.Options(); err != nil {
		return err
	}
	switch c.Conformal.Method {
	case MethodTarget, MethodBest, MethodComplex:
	default:
		return errors.NewInvalidConfigError("method", "must be one of target, best, complex", c.Conformal.Method)
	}
	if c.Conformal.TargetCoverage < 0 || c.Conformal.TargetCoverage > 1 {
		return errors.NewInvalidConfigError("targetCoverage", "must be in [0, 1]", c.Conformal.TargetCoverage)
	}
	if !(c.Data.CalibrationFraction > 0 && c.Data.CalibrationFraction < 1) {
		return errors.NewInvalidConfigError("calibrationFraction", "must be in (0, 1)", c.Data.CalibrationFraction)
	}
	switch c.Database.Type {
	case "sqlite", "pgsql":
	default:
		return errors.NewInvalidConfigError("database.type", "must be sqlite or pgsql", c.Database.Type)
	}
	return nil
}

// Target returns the coverage the target method aims for.
func (c Conformal) Target() float64 {
	if c.TargetCoverage > 0 {
		return c.TargetCoverage
	}
	return 1 - c.Alpha
}

// Options converts the section into conformal options, validating it.
func (c Conformal) Options() ([]conformal.Option, error) {
	mode, err := conformal.ParseMode(c.Mode)
	if err != nil {
		return nil, errors.NewInvalidConfigError("mode", err.Error(), c.Mode)
	}
	if !(c.Alpha > 0 && c.Alpha < 1) {
		return nil, errors.NewInvalidConfigError("alpha", "must be in (0, 1)", c.Alpha)
	}
	if c.Tau < 0 {
		return nil, errors.NewInvalidConfigError("tau", "must be positive, or 0 for the default", c.Tau)
	}
	if c.Resamples <= 0 {
		return nil, errors.NewInvalidConfigError("resamples", "must be positive", c.Resamples)
	}
	if !(c.Scale > 0) {
		return nil, errors.NewInvalidConfigError("scale", "must be positive", c.Scale)
	}
	if c.Workers < 0 {
		return nil, errors.NewInvalidConfigError("workers", "must not be negative", c.Workers)
	}

	var rule conformal.WeightedRule
	switch strings.ToLower(c.WeightedRule) {
	case "", "interpolated":
		rule = conformal.WeightedInterpolated
	case "step":
		rule = conformal.WeightedStep
	default:
		return nil, errors.NewInvalidConfigError("weightedRule", "must be interpolated or step", c.WeightedRule)
	}

	opts := []conformal.Option{
		conformal.WithMode(mode),
		conformal.WithAlpha(c.Alpha),
		conformal.WithResamples(c.Resamples),
		conformal.WithSeed(c.Seed),
		conformal.WithScale(c.Scale),
		conformal.WithWorkers(c.Workers),
		conformal.WithWeightedRule(rule),
	}
	if c.Tau > 0 {
		opts = append(opts, conformal.WithTau(c.Tau))
	}
	return opts, nil
}
