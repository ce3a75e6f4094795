package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/dataset"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

// coverageText colours a coverage green when it reaches target.
func coverageText(coverage, target float64) string {
	if coverage >= target {
		return color.New(color.Bold, color.FgGreen).Sprintf("%.3f", coverage)
	}
	return color.New(color.Bold, color.FgRed).Sprintf("%.3f", coverage)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readFloatsFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return dataset.ReadFloats(f)
}

func (a *app) loadRecords(cmd *cobra.Command, path string) ([]dataset.Record, error) {
	src, err := dataset.Open(path, a.cfg.Data.Table, a.cfg.Data.Sheet)
	if err != nil {
		return nil, err
	}
	return src.Load(cmd.Context())
}

// conformalOptions returns the configured options with the --mode and
// --alpha flags of cmd applied on top.
func (a *app) conformalOptions(cmd *cobra.Command) ([]conformal.Option, error) {
	c := a.cfg.Conformal
	if f := cmd.Flags().Lookup("mode"); f != nil && f.Changed {
		c.Mode = f.Value.String()
	}
	if cmd.Flags().Changed("alpha") {
		alpha, err := cmd.Flags().GetFloat64("alpha")
		if err != nil {
			return nil, err
		}
		c.Alpha = alpha
	}
	return c.Options()
}

func addModeFlags(fs *pflag.FlagSet) {
	fs.String("mode", "", "margin mode (naive, weighted, bootstrap, parametric, ensemble)")
	fs.Float64("alpha", conformal.DefaultAlpha, "nominal miscoverage level")
}
