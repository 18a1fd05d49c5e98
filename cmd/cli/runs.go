package main

import (
	"encoding/json"
	"fmt"

	"battery-dispatch/internal/solution"
	"battery-dispatch/internal/store"

	"github.com/spf13/cobra"
)

func runsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored runs",
	}
	cmd.PersistentFlags().String("db", "", "sqlite file path or postgres DSN (required)")
	cmd.PersistentFlags().String("db-driver", store.DriverSQLite, "database driver (sqlite or postgres)")

	open := func() (*store.Store, error) {
		dsn := a.v.GetString("db")
		if dsn == "" {
			return nil, fmt.Errorf("--db is required")
		}
		return store.Open(a.v.GetString("db-driver"), dsn)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := open()
			if err != nil {
				return err
			}
			defer st.Close()
			runs, err := st.ListRuns(cmd.Context(), a.v.GetInt("limit"))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %s  %-16s objective=%.4f predicted=%.4f cvar=%.4f beta=%.2f\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Label, r.Objective, r.PredictedCost, r.CVaR, r.Beta)
			}
			return nil
		},
	}
	list.Flags().Int("limit", 20, "maximum runs to list (0 for all)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open()
			if err != nil {
				return err
			}
			defer st.Close()
			run, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}

	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored solution table to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open()
			if err != nil {
				return err
			}
			defer st.Close()
			rows, err := st.SolutionRows(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p := a.v.GetString("out"); p != "" {
				return solution.WriteFile(p, rows)
			}
			return solution.WriteCSV(cmd.OutOrStdout(), rows)
		},
	}
	export.Flags().StringP("out", "o", "", "CSV path (default stdout)")

	cmd.AddCommand(list, show, export)
	return cmd
}
