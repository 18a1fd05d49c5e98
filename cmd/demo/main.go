package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"

	"battery-dispatch/internal/config"
	"battery-dispatch/internal/dispatch"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/settlement"
	"battery-dispatch/internal/solver"
)

// Demo:
// - Build a synthetic day with a cheap midday and an evening peak
// - Solve one storage unit against sampled scenarios, risk-neutral and risk-averse
// - Print the committed schedules side by side to show how beta moves energy
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional; replaces the synthetic day)")
	beta := flag.Float64("beta", 5, "Risk weight of the risk-averse solve")
	seed := flag.Uint64("seed", 42, "Scenario seed")
	outCSV := flag.String("out", "", "Optional path to write the risk-averse ledger CSV")
	flag.Parse()

	cfg := syntheticConfig(*seed)
	if *cfgPath != "" {
		c, err := config.Load(*cfgPath)
		if err != nil {
			fail(err)
		}
		dc, err := c.ToDispatch()
		if err != nil {
			fail(err)
		}
		cfg = dc
	}

	neutral := cfg
	neutral.Beta = 0
	averse := cfg
	averse.Beta = *beta

	s := solver.New(nil)
	resNeutral := solveOrDie(neutral, s)
	resAverse := solveOrDie(averse, s)

	fmt.Printf("%-5s %-9s %-24s %-24s\n", "hour", "price", "beta=0", fmt.Sprintf("beta=%g", *beta))
	for t := range resNeutral.Periods {
		a, b := resNeutral.Periods[t], resAverse.Periods[t]
		fmt.Printf("%-5d %-9.4f %-11s %+10.2f kW  %-11s %+10.2f kW\n",
			t, a.PredictedPrice, a.Action(), a.StorageKW(), b.Action(), b.StorageKW())
	}
	fmt.Println()
	fmt.Printf("beta=0:  predicted=%.4f CVaR=%.4f\n", resNeutral.PredictedCost, resNeutral.CVaR)
	fmt.Printf("beta=%g: predicted=%.4f CVaR=%.4f\n", *beta, resAverse.PredictedCost, resAverse.CVaR)

	if *outCSV != "" {
		ledger, err := settlement.New().Run(resAverse)
		if err != nil {
			fail(err)
		}
		if err := settlement.WriteLedgerCSV(*outCSV, ledger.Ledger); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(ledger.Ledger), *outCSV)
	}
}

func syntheticConfig(seed uint64) dispatch.Config {
	n := model.DefaultPeriods
	f := model.Forecast{
		PredictedLoadW: make([]float64, n),
		PredictedPrice: make([]float64, n),
	}
	for t := 0; t < n; t++ {
		h := float64(t)
		// solar trough around 13:00, peak around 19:00
		f.PredictedPrice[t] = 0.18 - 0.08*math.Exp(-math.Pow(h-13, 2)/8) + 0.20*math.Exp(-math.Pow(h-19, 2)/3)
		f.PredictedLoadW[t] = 1200 + 800*math.Exp(-math.Pow(h-19, 2)/6)
	}
	return dispatch.Config{
		Units: []model.StorageUnit{{
			Name:                "home",
			CapacityKWh:         13.5,
			PowerKW:             5,
			MinSOC:              0.1,
			MaxSOC:              1,
			ChargeEfficiency:    0.95,
			DischargeEfficiency: 0.95,
		}},
		Periods:        n,
		Forecast:       f,
		Gradient:       0.002,
		Alpha:          0.95,
		Uncertainty:    0.15,
		PriceScenarios: 10,
		LoadScenarios:  5,
		SampleLoad:     true,
		Seed:           seed,
	}
}

func solveOrDie(cfg dispatch.Config, s dispatch.Solver) *dispatch.Result {
	m, err := dispatch.New(cfg)
	if err != nil {
		fail(err)
	}
	res, err := m.Solve(context.Background(), s)
	if err != nil {
		fail(err)
	}
	return res
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
