package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"battery-dispatch/internal/publish"
	"battery-dispatch/internal/runner"
	"battery-dispatch/internal/settlement"
	"battery-dispatch/internal/solution"
	"battery-dispatch/internal/store"

	"github.com/spf13/cobra"
)

func solveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Build and solve the dispatch model, writing the solution table and ledger",
		Example: `  dispatch solve -c examples/config.yaml --out results/solution.csv
  DISPATCH_BETA=0 dispatch solve -c examples/config.yaml --db results/runs.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			v := a.v
			r := &runner.Runner{Logger: a.logger}

			if dsn := v.GetString("db"); dsn != "" {
				st, err := store.Open(v.GetString("db-driver"), dsn)
				if err != nil {
					return err
				}
				defer st.Close()
				r.Store = st
			}
			if broker := v.GetString("mqtt-broker"); broker != "" {
				opts := publish.Options{
					Broker:   broker,
					ClientID: v.GetString("mqtt-client-id"),
					Username: v.GetString("mqtt-username"),
					Password: v.GetString("mqtt-password"),
					Topic:    v.GetString("mqtt-topic"),
					QoS:      1,
					Retain:   true,
					Timeout:  10 * time.Second,
				}
				client, err := publish.Connect(opts, a.logger)
				if err != nil {
					return err
				}
				defer client.Disconnect(250)
				r.Publisher = publish.NewPublisher(client, opts, a.logger)
			}

			out, err := r.Solve(cmd.Context(), cfg, v.GetString("label"))
			if err != nil {
				return err
			}

			if p := v.GetString("out"); p != "" {
				if err := solution.WriteFile(p, out.Rows); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d solution rows to %s\n", len(out.Rows), p)
			}
			if p := v.GetString("ledger"); p != "" {
				if err := settlement.WriteLedgerCSV(p, out.Ledger.Ledger); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d ledger rows to %s\n", len(out.Ledger.Ledger), p)
			}
			if v.GetBool("json") {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Result)
			}
			printOutcome(cmd.OutOrStdout(), out)
			return nil
		},
	}
	addModelFlags(cmd)
	f := cmd.Flags()
	f.StringP("out", "o", "results/solution.csv", "solution table CSV path (empty to skip)")
	f.String("ledger", "results/ledger.csv", "settlement ledger CSV path (empty to skip)")
	f.String("label", "", "label stored with the run")
	f.Bool("json", false, "print the full result as JSON")
	f.String("db", "", "store the run: sqlite file path or postgres DSN")
	f.String("db-driver", store.DriverSQLite, "database driver (sqlite or postgres)")
	f.String("mqtt-broker", "", "publish the schedule to this broker, e.g. tcp://localhost:1883")
	f.String("mqtt-topic", "dispatch", "MQTT topic prefix")
	f.String("mqtt-client-id", "battery-dispatch", "MQTT client id")
	f.String("mqtt-username", "", "MQTT username")
	f.String("mqtt-password", "", "MQTT password")
	return cmd
}

func printOutcome(w io.Writer, out *runner.Outcome) {
	res := out.Result
	if out.RunID != "" {
		fmt.Fprintf(w, "Run %s\n", out.RunID)
	}
	fmt.Fprintf(w, "Objective=%.4f PredictedCost=%.4f ActualCost=%.4f Deviation=%.4f\n",
		res.Objective, res.PredictedCost, res.ActualCost, out.Ledger.Deviation)
	mode := "optimized"
	if !res.RiskOptimized {
		mode = "empirical"
	}
	fmt.Fprintf(w, "alpha=%.3f beta=%.3f VaR=%.4f CVaR=%.4f (%s) over %d scenarios in %s\n",
		res.Alpha, res.Beta, res.VaR, res.CVaR, mode, len(res.ScenarioCosts), out.Elapsed.Round(time.Millisecond))
	fmt.Fprintln(w, "hour  action       storage_kw  net_demand_kw  price")
	for _, p := range res.Periods {
		fmt.Fprintf(w, "%4d  %-11s  %10.3f  %13.3f  %.4f\n",
			p.Hour, p.Action(), p.StorageKW(), p.NetDemandKW, p.PredictedPrice)
	}
}
