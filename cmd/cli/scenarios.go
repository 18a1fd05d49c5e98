package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"battery-dispatch/internal/dispatch"

	"github.com/spf13/cobra"
)

func scenariosCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Sample the price/load scenarios of a config without solving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			dc, err := cfg.ToDispatch()
			if err != nil {
				return err
			}
			sc := dispatch.SampleScenarios(dc)

			if p := a.v.GetString("out"); p != "" {
				return writeFile(p, func(w io.Writer) error { return writeScenarios(w, sc) })
			}
			return writeScenarios(cmd.OutOrStdout(), sc)
		},
	}
	addModelFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "CSV path (default stdout)")
	return cmd
}

// writeScenarios writes long-format rows: kind,scenario,hour,value.
func writeScenarios(w io.Writer, sc dispatch.Scenarios) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"kind", "scenario", "hour", "value"}); err != nil {
		return err
	}
	write := func(kind string, k int, series []float64) error {
		for t, v := range series {
			rec := []string{kind, strconv.Itoa(k), strconv.Itoa(t), strconv.FormatFloat(v, 'f', -1, 64)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	}
	for k, row := range sc.Price {
		if err := write("price", k, row); err != nil {
			return err
		}
	}
	for k, row := range sc.Load {
		if err := write("load_w", k, row); err != nil {
			return err
		}
	}
	if err := write("actual_price", 0, sc.ActualPrice); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write scenarios: %w", err)
	}
	return nil
}
