package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rulconf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 0.05, cfg.Conformal.Alpha)
	require.Equal(t, "naive", cfg.Conformal.Mode)
	require.Equal(t, 200, cfg.Conformal.Resamples)
	require.Equal(t, uint64(42), cfg.Conformal.Seed)
	require.Equal(t, 0.8, cfg.Data.CalibrationFraction)
	require.Equal(t, "sqlite", cfg.Database.Type)
	require.InDelta(t, 0.95, cfg.Conformal.Target(), 1e-12)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default().Conformal, cfg.Conformal)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
conformal:
  alpha: 0.1
  mode: weighted
  tau: 4
  method: best
data:
  calibrationFraction: 0.7
database:
  name: runs.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.1, cfg.Conformal.Alpha)
	require.Equal(t, "weighted", cfg.Conformal.Mode)
	require.Equal(t, 4.0, cfg.Conformal.Tau)
	require.Equal(t, MethodBest, cfg.Conformal.Method)
	require.Equal(t, 0.7, cfg.Data.CalibrationFraction)
	require.Equal(t, "runs.db", cfg.Database.Name)
	// untouched fields keep their defaults
	require.Equal(t, 200, cfg.Conformal.Resamples)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestEnvironmentOverridesYAML(t *testing.T) {
	path := writeFile(t, "conformal:\n  alpha: 0.1\n")
	t.Setenv("RULCONF_CONFORMAL_ALPHA", "0.2")
	t.Setenv("RULCONF_CONFORMAL_RESAMPLES", "50")
	t.Setenv("RULCONF_DB_TYPE", "pgsql")
	t.Setenv("RULCONF_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.2, cfg.Conformal.Alpha)
	require.Equal(t, 50, cfg.Conformal.Resamples)
	require.Equal(t, "pgsql", cfg.Database.Type)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "conformal: [unclosed"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "conformal:\n  alpha: 1.5\n"))
	var cfgErr *errors.InvalidConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "alpha", cfgErr.ParamName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{"unknown mode", func(c *Config) { c.Conformal.Mode = "magic" }, "mode"},
		{"alpha zero", func(c *Config) { c.Conformal.Alpha = 0 }, "alpha"},
		{"negative tau", func(c *Config) { c.Conformal.Tau = -1 }, "tau"},
		{"zero resamples", func(c *Config) { c.Conformal.Resamples = 0 }, "resamples"},
		{"zero scale", func(c *Config) { c.Conformal.Scale = 0 }, "scale"},
		{"negative workers", func(c *Config) { c.Conformal.Workers = -2 }, "workers"},
		{"bad rule", func(c *Config) { c.Conformal.WeightedRule = "cubic" }, "weightedRule"},
		{"bad method", func(c *Config) { c.Conformal.Method = "worst" }, "method"},
		{"bad target", func(c *Config) { c.Conformal.TargetCoverage = 2 }, "targetCoverage"},
		{"bad fraction", func(c *Config) { c.Data.CalibrationFraction = 1 }, "calibrationFraction"},
		{"bad database", func(c *Config) { c.Database.Type = "oracle" }, "database.type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cfgErr *errors.InvalidConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			require.Equal(t, tt.param, cfgErr.ParamName)
		})
	}
}

func TestOptionsDriveFit(t *testing.T) {
	c := Default().Conformal
	c.Alpha = 0.1
	opts, err := c.Options()
	require.NoError(t, err)

	m, err := conformal.Fit([]float64{1, 2, 3, 4, 5}, opts...)
	require.NoError(t, err)
	require.InDelta(t, 4.6, m.Value, 1e-12)

	c.Mode = "complex"
	opts, err = c.Options()
	require.NoError(t, err)
	m, err = conformal.Fit([]float64{1, 2, 3, 4, 5}, opts...)
	require.NoError(t, err)
	require.Equal(t, conformal.ModeEnsemble, m.Mode)
}

func TestTargetCoverageOverride(t *testing.T) {
	c := Default().Conformal
	c.TargetCoverage = 0.9
	require.Equal(t, 0.9, c.Target())
}
