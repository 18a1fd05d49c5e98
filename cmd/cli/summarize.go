package main

import (
	"fmt"
	"strings"

	"battery-dispatch/internal/analysis"
	"battery-dispatch/internal/solution"

	"github.com/spf13/cobra"
)

func summarizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize [solution.csv]",
		Short: "Read a solution table and report VaR, CVaR and the scenario cost distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := solution.ReadFile(args[0])
			if err != nil {
				return err
			}
			alpha := a.v.GetFloat64("alpha")
			s, err := solution.Extract(rows, alpha)
			if err != nil {
				return err
			}
			d := analysis.Describe(s.ScenarioCosts, alpha)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Objective=%.4f PredictedCost=%.4f ActualCost=%.4f\n", s.Objective, s.PredictedCost, s.ActualCost)
			fmt.Fprintf(w, "VaR=%.4f CVaR=%.4f\n", s.VaR, s.CVaR)
			fmt.Fprintf(w, "scenarios=%d min=%.4f mean=%.4f p95=%.4f max=%.4f\n", d.Count, d.Min, d.Mean, d.P95, d.Max)

			bins := analysis.Histogram(s.ScenarioCosts, a.v.GetInt("bins"))
			peak := 0
			for _, b := range bins {
				peak = max(peak, b.Count)
			}
			for _, b := range bins {
				bar := ""
				if peak > 0 {
					bar = strings.Repeat("#", b.Count*40/peak)
				}
				fmt.Fprintf(w, "[%10.4f, %10.4f) %4d %s\n", b.Lo, b.Hi, b.Count, bar)
			}
			return nil
		},
	}
	cmd.Flags().Float64("alpha", 0.95, "confidence level used when the table has no z/cvar rows")
	cmd.Flags().Int("bins", 20, "histogram bins")
	return cmd
}
