package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/rulconform/dataset"
	"github.com/YuminosukeSato/rulconform/evaluation"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
	"github.com/YuminosukeSato/rulconform/pkg/log"
	"github.com/YuminosukeSato/rulconform/report"
	"github.com/YuminosukeSato/rulconform/store"
)

// unitGap separates consecutive units on the fleet chart.
const unitGap = 10

func (a *app) newEvaluateCommand() *cobra.Command {
	var inputPath, outPath, plotDir, method string
	var save, asJSON bool

	cmd := &cobra.Command{
		Use:     "evaluate",
		GroupID: gCalibrate,
		Short:   "Calibrate on some units and evaluate intervals on the rest",
		Long: `Split the units of a prediction table into calibration and test sets, pick a
margin from the calibration units and report coverage, width and index
difference for every test unit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if method != "" {
				a.cfg.Conformal.Method = method
			}
			records, err := a.loadRecords(cmd, inputPath)
			if err != nil {
				return err
			}
			p, err := evaluation.New(a.cfg)
			if err != nil {
				return err
			}
			rep, err := p.Run(cmd.Context(), records)
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
			} else {
				printReport(cmd, rep)
			}

			if outPath != "" {
				if err := writeUnitCSV(outPath, rep); err != nil {
					return err
				}
			}
			if plotDir != "" {
				if err := plotTestUnits(plotDir, records, rep); err != nil {
					return err
				}
			}
			if save {
				if err := a.saveRun(cmd, rep, inputPath); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "prediction table (.csv, .xlsx, .duckdb)")
	cmd.Flags().StringVar(&outPath, "out", "", "write per-unit results to this CSV file")
	cmd.Flags().StringVar(&plotDir, "plot", "", "write charts of the test units to this directory")
	cmd.Flags().StringVar(&method, "method", "", "margin selection method (target, best, complex)")
	cmd.Flags().BoolVar(&save, "save", false, "store the run in the configured database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func printReport(cmd *cobra.Command, rep *evaluation.Report) {
	out := cmd.OutOrStdout()
	fprintf := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(out, format, args...)
	}

	fprintf("%s\n", bold("Candidates:"))
	for _, c := range rep.Candidates {
		fprintf("  %-11s margin %8.3f  coverage %s  width %.3f\n",
			c.Mode, c.Margin.Value, coverageText(c.Metrics.Coverage, rep.Target), c.Metrics.AvgWidth)
	}
	fprintf("Method %s selected %s with margin %s\n\n",
		bold("%s", rep.Method), bold("%s", rep.Margin.Mode), bold("%.3f", rep.Margin.Value))

	fprintf("%s\n", bold("%-8s %8s %10s %10s %10s", "unit", "preds", "coverage", "width", "idx diff"))
	for _, u := range rep.Units {
		fprintf("%-8d %8d %10s %10.3f %10d\n",
			u.Unit, u.NumPredictions, coverageText(u.Coverage, rep.Target), u.AvgWidth, u.IndexDiff)
	}
	fprintf("\nPooled coverage %s, average width %.3f\n", coverageText(rep.Coverage, rep.Target), rep.AvgWidth)
	fprintf("RMSE %.3f  MAE %.3f  R2 %.3f  S-score %.1f\n",
		rep.Metrics.RMSE, rep.Metrics.MAE, rep.Metrics.R2, rep.Metrics.SScore)
}

func writeUnitCSV(path string, rep *evaluation.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return report.WriteUnitCSV(f, rep.Units)
}

func plotTestUnits(dir string, records []dataset.Record, rep *evaluation.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	test := make(map[int]bool, len(rep.TestUnits))
	for _, u := range rep.TestUnits {
		test[u] = true
	}
	var trajs []dataset.Trajectory
	for _, t := range dataset.GroupByUnit(records) {
		if test[t.Unit] {
			trajs = append(trajs, t)
		}
	}
	path := filepath.Join(dir, "test_units.png")
	if err := report.PlotUnits(path, trajs, rep.Margin, unitGap); err != nil {
		return err
	}
	log.GetLoggerWithName("cli").Info("chart written", log.SourceKey, path, log.UnitsKey, len(trajs))
	return nil
}

func (a *app) saveRun(cmd *cobra.Command, rep *evaluation.Report, source string) error {
	s, err := store.Open(a.cfg.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := store.NewCalibrationRun(rep, source)
	if err != nil {
		return err
	}
	if err := s.Create(cmd.Context(), run); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", bold("%s", run.ID))
	return nil
}
