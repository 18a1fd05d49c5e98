package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"battery-dispatch/internal/analysis"
	"battery-dispatch/internal/runner"

	"github.com/spf13/cobra"
)

func frontierCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frontier",
		Short: "Sweep the risk weight and report predicted cost against CVaR",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			betas, err := cmd.Flags().GetFloat64Slice("betas")
			if err != nil {
				return err
			}
			points, err := (&runner.Runner{Logger: a.logger}).Frontier(cmd.Context(), cfg, betas)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "beta      predicted_cost  cvar        efficient")
			for _, p := range points {
				fmt.Fprintf(w, "%-8.3f  %14.4f  %10.4f  %v\n", p.Beta, p.PredictedCost, p.CVaR, p.Efficient)
			}
			if path := a.v.GetString("out"); path != "" {
				return writeFrontierCSV(path, points)
			}
			return nil
		},
	}
	addModelFlags(cmd)
	cmd.Flags().Float64Slice("betas", []float64{0, 0.5, 1, 2, 5, 10}, "risk weights to solve")
	cmd.Flags().StringP("out", "o", "", "optional CSV path")
	return cmd
}

func writeFrontierCSV(path string, points []analysis.FrontierPoint) error {
	return writeFile(path, func(w io.Writer) error { return writeFrontier(w, points) })
}

func writeFrontier(w io.Writer, points []analysis.FrontierPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"beta", "predicted_cost", "cvar", "efficient"}); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{
			strconv.FormatFloat(p.Beta, 'f', -1, 64),
			strconv.FormatFloat(p.PredictedCost, 'f', 6, 64),
			strconv.FormatFloat(p.CVaR, 'f', 6, 64),
			strconv.FormatBool(p.Efficient),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
