package dispatch

import (
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/scenario"
)

// Scenarios are the sampled inputs frozen into a model at build time.
type Scenarios struct {
	Price scenario.Matrix
	// Load is nil when only prices are sampled.
	Load scenario.Matrix
	// ActualPrice is the realized trajectory used for settlement.
	ActualPrice []float64
}

// SampleScenarios draws every random input of a build from cfg.Seed. Price,
// load and realized-price draws use independent streams.
func SampleScenarios(cfg Config) Scenarios {
	u := cfg.Band()
	sc := Scenarios{
		Price: scenario.NewGenerator(cfg.Seed, scenario.StreamPrice).
			Matrix(cfg.Forecast.PredictedPrice, u, cfg.PriceScenarios),
	}
	if cfg.SampleLoad {
		sc.Load = scenario.NewGenerator(cfg.Seed, scenario.StreamLoad).
			Matrix(cfg.Forecast.PredictedLoadW, u, cfg.LoadScenarios)
	}
	if len(cfg.Forecast.ActualPrice) > 0 {
		sc.ActualPrice = append([]float64(nil), cfg.Forecast.ActualPrice...)
	} else {
		sc.ActualPrice = scenario.NewGenerator(cfg.Seed, scenario.StreamActual).
			Trajectory(cfg.Forecast.PredictedPrice, u)
	}
	return sc
}

func (s Scenarios) check(cfg Config) error {
	n := cfg.Horizon().Periods
	if s.Price.Rows() != cfg.PriceScenarios || s.Price.Periods() != n {
		return model.Configf("scenarios.price", "shape %dx%d, want %dx%d",
			s.Price.Rows(), s.Price.Periods(), cfg.PriceScenarios, n)
	}
	if cfg.SampleLoad && (s.Load.Rows() != cfg.LoadScenarios || s.Load.Periods() != n) {
		return model.Configf("scenarios.load", "shape %dx%d, want %dx%d",
			s.Load.Rows(), s.Load.Periods(), cfg.LoadScenarios, n)
	}
	if !cfg.SampleLoad && s.Load != nil {
		return model.Configf("scenarios.load", "load scenarios given but load sampling is off")
	}
	if len(s.ActualPrice) != n {
		return model.Configf("scenarios.actual_price", "has %d values, want %d", len(s.ActualPrice), n)
	}
	return nil
}

func (s Scenarios) clone() Scenarios {
	return Scenarios{
		Price:       s.Price.Clone(),
		Load:        s.Load.Clone(),
		ActualPrice: append([]float64(nil), s.ActualPrice...),
	}
}
