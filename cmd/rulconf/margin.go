package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/core/model"
	"github.com/YuminosukeSato/rulconform/dataset"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
	"github.com/YuminosukeSato/rulconform/pkg/log"
)

func (a *app) newMarginCommand() *cobra.Command {
	var residualsPath, inputPath, calibratorPath string
	var compare bool

	cmd := &cobra.Command{
		Use:     "margin",
		GroupID: gCalibrate,
		Short:   "Fit a conformal margin from residuals",
		Long: `Fit a conformal margin from calibration residuals (true RUL minus regulated
predicted RUL). Residuals are read from --residuals, or derived from every unit
of a prediction table given with --input. The margin is printed as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			residuals, err := a.residuals(cmd, residualsPath, inputPath)
			if err != nil {
				return err
			}
			opts, err := a.conformalOptions(cmd)
			if err != nil {
				return err
			}

			logger := log.GetLoggerWithName("cli").With(log.OperationKey, log.OperationFit)
			if compare {
				return a.compareModes(cmd, residuals, inputPath, opts)
			}

			cal := conformal.NewCalibrator(opts...)
			if err := cal.Fit(residuals); err != nil {
				return err
			}
			logger.Info("margin fitted",
				log.ModeKey, string(cal.Margin.Mode),
				log.ResidualsKey, len(residuals),
				log.MarginKey, cal.Margin.Value,
			)

			if calibratorPath != "" {
				if err := model.SaveModel(cal, calibratorPath); err != nil {
					return err
				}
				logger.Info("calibrator saved", log.SourceKey, calibratorPath)
			}
			return writeJSON(cmd.OutOrStdout(), cal.Margin)
		},
	}

	cmd.Flags().StringVar(&residualsPath, "residuals", "", "file of residuals, one number per line or comma separated")
	cmd.Flags().StringVar(&inputPath, "input", "", "prediction table (.csv, .xlsx, .duckdb)")
	cmd.Flags().StringVar(&calibratorPath, "save-calibrator", "", "write the fitted calibrator to this file")
	cmd.Flags().BoolVar(&compare, "compare", false, "score every mode on the --input predictions and print the candidates")
	cmd.MarkFlagsMutuallyExclusive("residuals", "input")
	cmd.MarkFlagsOneRequired("residuals", "input")
	addModeFlags(cmd.Flags())
	return cmd
}

func (a *app) residuals(cmd *cobra.Command, residualsPath, inputPath string) ([]float64, error) {
	if residualsPath != "" {
		return readFloatsFile(residualsPath)
	}
	records, err := a.loadRecords(cmd, inputPath)
	if err != nil {
		return nil, err
	}
	return dataset.Residuals(dataset.GroupByUnit(records)), nil
}

// compareModes fits every mode once and scores it unit by unit on the
// input table, so the running minimum of one unit does not leak into the next.
func (a *app) compareModes(cmd *cobra.Command, residuals []float64, inputPath string, opts []conformal.Option) error {
	if inputPath == "" {
		return errors.NewValueError("margin", "--compare needs --input")
	}
	records, err := a.loadRecords(cmd, inputPath)
	if err != nil {
		return err
	}
	trajs := dataset.GroupByUnit(records)

	cands := make([]conformal.Candidate, 0, len(conformal.Modes))
	for _, mode := range conformal.Modes {
		m, err := conformal.Fit(residuals, append(opts[:len(opts):len(opts)], conformal.WithMode(mode))...)
		if err != nil {
			return errors.Wrapf(err, "fit %s margin", mode)
		}
		c := conformal.Candidate{Mode: mode, Margin: m}
		var covered, width float64
		var total int
		for _, t := range trajs {
			iv, err := conformal.Apply(t.Regulated(), m)
			if err != nil {
				return errors.Wrapf(err, "unit %d", t.Unit)
			}
			metrics, err := conformal.Evaluate(iv, t.TrueRUL)
			if err != nil {
				return errors.Wrapf(err, "unit %d", t.Unit)
			}
			covered += metrics.Coverage * float64(t.Len())
			width += metrics.AvgWidth * float64(t.Len())
			total += t.Len()
		}
		if total > 0 {
			c.Metrics.Coverage = covered / float64(total)
			c.Metrics.AvgWidth = width / float64(total)
		}
		cands = append(cands, c)
	}

	target := a.cfg.Conformal.Target()
	info := cmd.ErrOrStderr()
	fmt.Fprintln(info, bold("Candidate margins (target coverage %.3f):", target))
	for _, c := range cands {
		fmt.Fprintf(info, "  %-11s margin %s  coverage %s  width %.3f\n",
			c.Mode, bold("%8.3f", c.Margin.Value), coverageText(c.Metrics.Coverage, target), c.Metrics.AvgWidth)
	}
	best, err := conformal.SelectForTarget(cands, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(info, "Selected: %s\n", bold("%s", best.Mode))
	return writeJSON(cmd.OutOrStdout(), best.Margin)
}
