package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/core/model"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

func (a *app) newIntervalCommand() *cobra.Command {
	var margin float64
	var predictionsPath, calibratorPath string
	var regulate bool

	cmd := &cobra.Command{
		Use:     "interval",
		GroupID: gCalibrate,
		Short:   "Turn a forecast into a conformal interval",
		Long: `Apply a margin to a forecast and print {"lower": [...], "upper": [...]}.
The margin comes from --margin or from a calibrator saved by 'rulconf margin --save-calibrator'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pred, err := readFloatsFile(predictionsPath)
			if err != nil {
				return err
			}
			if regulate {
				pred = conformal.Regulate(pred)
			}

			cal := conformal.NewCalibrator()
			switch {
			case calibratorPath != "":
				if err := model.LoadModel(cal, calibratorPath); err != nil {
					return err
				}
			case cmd.Flags().Changed("margin"):
				if err := cal.SetMargin(conformal.Scalar(margin)); err != nil {
					return err
				}
			default:
				return errors.NewValueError("interval", "either --margin or --calibrator is required")
			}

			iv, err := cal.Predict(pred)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), iv)
		},
	}

	cmd.Flags().Float64Var(&margin, "margin", 0, "non-negative margin")
	cmd.Flags().StringVar(&calibratorPath, "calibrator", "", "calibrator file written by 'rulconf margin'")
	cmd.Flags().StringVar(&predictionsPath, "predictions", "", "file of predicted RUL values")
	cmd.Flags().BoolVar(&regulate, "regulate", false, "make the forecast non-increasing and non-negative first")
	cmd.MarkFlagsMutuallyExclusive("margin", "calibrator")
	_ = cmd.MarkFlagRequired("predictions")
	return cmd
}
