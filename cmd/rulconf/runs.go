package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
	"github.com/YuminosukeSato/rulconform/store"
)

func (a *app) newRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "runs",
		GroupID: gRuns,
		Short:   "Inspect stored calibration runs",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := store.Open(a.cfg.Database)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, bold("%-36s  %-20s  %-8s  %-10s  %8s  %8s", "id", "created", "method", "mode", "margin", "coverage"))
			for _, r := range runs {
				fmt.Fprintf(out, "%-36s  %-20s  %-8s  %-10s  %8.3f  %8.3f\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Method, r.Mode, r.Margin, r.Coverage)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of runs, 0 for all")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return errors.NewValueErrorf("runs show", "invalid run id %q: %v", args[0], err)
			}
			s, err := store.Open(a.cfg.Database)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			cands, err := run.CandidateList()
			if err != nil {
				return err
			}
			units, err := run.UnitResults()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"id":         run.ID,
				"created_at": run.CreatedAt,
				"source":     run.Source,
				"method":     run.Method,
				"margin":     run.FittedMargin(),
				"alpha":      run.Alpha,
				"coverage":   run.Coverage,
				"avg_width":  run.AvgWidth,
				"rmse":       run.RMSE,
				"s_score":    run.SScore,
				"candidates": cands,
				"units":      units,
			})
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
