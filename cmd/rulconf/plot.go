package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/dataset"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
	"github.com/YuminosukeSato/rulconform/pkg/log"
	"github.com/YuminosukeSato/rulconform/report"
	"github.com/YuminosukeSato/rulconform/store"
)

func (a *app) newPlotCommand() *cobra.Command {
	var inputPath, outPath string
	var unit int
	var margin float64

	cmd := &cobra.Command{
		Use:     "plot",
		GroupID: gCalibrate,
		Short:   "Chart the interval of a single unit",
		Long: `Chart the true RUL, the regulated prediction and the interval band of one unit.
The margin is taken from --margin, else from the latest stored run, else fitted
on the residuals of every other unit in the input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.loadRecords(cmd, inputPath)
			if err != nil {
				return err
			}
			var target *dataset.Trajectory
			var others []dataset.Trajectory
			for _, t := range dataset.GroupByUnit(records) {
				if t.Unit == unit {
					target = &t
					continue
				}
				others = append(others, t)
			}
			if target == nil {
				return errors.NewValueErrorf("plot", "unit %d not found in %s", unit, inputPath)
			}

			var m conformal.Margin
			if cmd.Flags().Changed("margin") {
				m = conformal.Scalar(margin)
			} else if m, err = a.marginFor(cmd, others); err != nil {
				return err
			}

			iv, err := conformal.Apply(target.Regulated(), m)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Unit %d (margin %.2f)", unit, m.Value)
			if err := report.PlotUnit(outPath, *target, iv, title); err != nil {
				return err
			}
			log.GetLoggerWithName("cli").Info("chart written", log.SourceKey, outPath, log.UnitKey, unit, log.MarginKey, m.Value)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "prediction table (.csv, .xlsx, .duckdb)")
	cmd.Flags().IntVar(&unit, "unit", 0, "unit to chart")
	cmd.Flags().StringVar(&outPath, "out", "unit.png", "output chart (.png, .svg, .pdf)")
	cmd.Flags().Float64Var(&margin, "margin", 0, "margin to use instead of a stored or fitted one")
	addModeFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("unit")
	return cmd
}

// marginFor returns the margin of the latest stored run, or fits one on
// the residuals of others when there is no run. A missing sqlite file is
// left uncreated.
func (a *app) marginFor(cmd *cobra.Command, others []dataset.Trajectory) (conformal.Margin, error) {
	if store.Exists(a.cfg.Database) {
		s, err := store.Open(a.cfg.Database)
		if err == nil {
			defer s.Close()
			run, err := s.Latest(cmd.Context())
			if err == nil {
				return run.FittedMargin(), nil
			}
			if !errors.Is(err, store.ErrRecordNotFound) {
				return conformal.Margin{}, err
			}
		} else {
			log.GetLoggerWithName("cli").Warn("run store unavailable, fitting a margin", log.ErrAttrKey, err.Error())
		}
	}

	opts, err := a.conformalOptions(cmd)
	if err != nil {
		return conformal.Margin{}, err
	}
	return conformal.Fit(dataset.Residuals(others), opts...)
}
