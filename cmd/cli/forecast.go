package main

import (
	"fmt"
	"os"

	"battery-dispatch/internal/data"
	"battery-dispatch/internal/model"

	"github.com/spf13/cobra"
)

func forecastCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Build forecast files from market data",
	}

	gs := &cobra.Command{
		Use:   "gridstatus",
		Short: "Average Grid Status LMPs by hour into a price forecast",
		Example: `  GRIDSTATUS_API_KEY=... dispatch forecast gridstatus --dataset caiso_lmp_day_ahead_hourly \
    --location TH_NP15_GEN-APND --start 2024-06-01 --end 2024-06-08 --out examples/forecast.json
  dispatch forecast gridstatus --from-file sample_data.json --out examples/forecast.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := a.v
			var resp *data.LMPResponse
			var err error
			if p := v.GetString("from-file"); p != "" {
				resp, err = data.LoadGridStatusJSON(p)
			} else {
				key := v.GetString("api-key")
				if key == "" {
					key = os.Getenv("GRIDSTATUS_API_KEY")
				}
				client := data.NewGridStatusClient(key, v.GetString("base-url"), a.logger)
				resp, err = client.QueryLocationByString(cmd.Context(),
					v.GetString("dataset"), v.GetString("location"), v.GetString("start"), v.GetString("end"))
			}
			if err != nil {
				return err
			}

			prices, err := data.HourlyPriceProfile(resp.Data, v.GetInt("periods"))
			if err != nil {
				return err
			}
			f := data.ForecastFromPrices(prices, v.GetFloat64("load-w"))
			out := v.GetString("out")
			if err := data.WriteForecastJSON(out, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d-period forecast from %d intervals to %s\n", len(prices), len(resp.Data), out)
			return nil
		},
	}
	f := gs.Flags()
	f.String("from-file", "", "read a saved Grid Status JSON response instead of calling the API")
	f.String("api-key", "", "Grid Status API key (default $GRIDSTATUS_API_KEY)")
	f.String("base-url", "", "Grid Status API base URL")
	f.String("dataset", "caiso_lmp_day_ahead_hourly", "dataset id")
	f.String("location", "", "location id")
	f.String("start", "", "start date YYYY-MM-DD")
	f.String("end", "", "end date YYYY-MM-DD")
	f.Int("periods", model.DefaultPeriods, "forecast periods per day")
	f.Float64("load-w", 0, "flat predicted load in W")
	f.StringP("out", "o", "forecast.json", "output forecast JSON")

	cmd.AddCommand(gs)
	return cmd
}
