package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/rulconform/config"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
	"github.com/YuminosukeSato/rulconform/pkg/log"
	"github.com/YuminosukeSato/rulconform/store"
)

var (
	gCalibrate = "Calibration:"
	gRuns      = "Runs:"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func handleCmdError(err error) {
	var cfgErr *errors.InvalidConfigError
	var dataErr *errors.InsufficientDataError
	switch {
	case errors.As(err, &cfgErr):
		fmt.Fprintf(os.Stderr, "\nCheck parameter %q in the config file, RULCONF_* variables or flags.\n", cfgErr.ParamName)
	case errors.As(err, &dataErr):
		fmt.Fprintln(os.Stderr, "\nNot enough predictions. Use more units or a mode that needs fewer residuals.")
	case errors.Is(err, store.ErrRecordNotFound):
		fmt.Fprintln(os.Stderr, "\nNo stored calibration run. Run 'rulconf evaluate --save' first.")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "rulconf",
		Short: "rulconf puts conformal lower bounds under remaining-useful-life forecasts",
		Long: `rulconf calibrates a margin from the residuals of a RUL forecaster and
turns point forecasts into intervals [max(0, prediction - margin), prediction].`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			level := cfg.Log.Level
			if cmd.Flags().Changed("log-level") {
				level = a.logLevel
			}
			return log.SetupLogger(level, cmd.ErrOrStderr(), cfg.Log.Pretty)
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&a.logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	globalFlags.StringVar(&a.configPath, "config", "", "YAML config file path")

	cmd.AddGroup(
		&cobra.Group{ID: gCalibrate, Title: gCalibrate},
		&cobra.Group{ID: gRuns, Title: gRuns},
	)

	cmd.AddCommand(
		a.newMarginCommand(),
		a.newIntervalCommand(),
		a.newEvaluateCommand(),
		a.newPlotCommand(),
		a.newRunsCommand(),
	)

	return cmd
}
