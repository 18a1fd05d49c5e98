// Package dispatch builds and solves the day-ahead storage dispatch model:
// storage dynamics, the grid schedule, scenario costs with a CVaR risk term,
// and the risk-weighted objective.
package dispatch

import (
	"fmt"
	"math"

	"battery-dispatch/internal/model"
	"battery-dispatch/internal/scenario"
)

// Size limits. The solver works on a dense tableau whose size grows with
// the product of rows and columns, so these keep one build within a few
// hundred megabytes.
const (
	MaxScenarioPairs = 1000
	MaxUnitPeriods   = 1000
)

// Config is the immutable input of one model build.
type Config struct {
	Units    []model.StorageUnit
	Periods  int // 0 means model.DefaultPeriods
	Forecast model.Forecast

	// Gradient is the price impact per kW of scheduled demand.
	Gradient float64

	// Alpha is the CVaR confidence level, Beta the risk weight.
	Alpha float64
	Beta  float64

	Uncertainty    float64
	Regime         scenario.Regime
	PriceScenarios int
	LoadScenarios  int
	// SampleLoad draws load scenarios in addition to price scenarios.
	SampleLoad bool
	Seed       uint64

	// ExclusiveChargeDischarge forbids charging and discharging a unit in the
	// same period. It turns the model into a MILP.
	ExclusiveChargeDischarge bool
}

func (c Config) Horizon() model.Horizon {
	if c.Periods == 0 {
		return model.Horizon{Periods: model.DefaultPeriods}
	}
	return model.Horizon{Periods: c.Periods}
}

// Band is the uncertainty actually applied to the scenarios.
func (c Config) Band() float64 {
	return c.Regime.Band(c.Uncertainty)
}

// RiskEnabled reports whether the CVaR block enters the model.
func (c Config) RiskEnabled() bool { return c.Beta > 0 }

// ScenarioCount is the number of equally likely scenarios the CVaR averages over.
func (c Config) ScenarioCount() int {
	if c.SampleLoad {
		return c.PriceScenarios * c.LoadScenarios
	}
	return c.PriceScenarios
}

// Validate rejects out-of-domain parameters with a *model.ConfigurationError.
func (c Config) Validate() error {
	h, err := model.NewHorizon(c.Horizon().Periods)
	if err != nil {
		return err
	}
	if len(c.Units) == 0 {
		return model.Configf("units", "at least one storage unit is required")
	}
	for i, u := range c.Units {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("units[%d] %q: %w", i, u.Name, err)
		}
	}
	if err := c.Forecast.Validate(h); err != nil {
		return err
	}
	switch {
	case !finite(c.Gradient) || c.Gradient < 0:
		return model.Configf("gradient", "must be >= 0, got %g", c.Gradient)
	case !(c.Alpha > 0 && c.Alpha < 1):
		return model.Configf("alpha", "must be in (0, 1), got %g", c.Alpha)
	case !finite(c.Beta) || c.Beta < 0:
		return model.Configf("beta", "must be >= 0, got %g", c.Beta)
	case !finite(c.Uncertainty) || c.Uncertainty < 0 || c.Uncertainty >= 1:
		return model.Configf("uncertainty", "must be in [0, 1), got %g", c.Uncertainty)
	case c.Regime != "" && c.Regime != scenario.RegimeFixed && c.Regime != scenario.RegimeParameterized:
		return model.Configf("regime", "unknown regime %q", c.Regime)
	case c.PriceScenarios < 1:
		return model.Configf("price_scenarios", "must be >= 1, got %d", c.PriceScenarios)
	case c.SampleLoad && c.LoadScenarios < 1:
		return model.Configf("load_scenarios", "must be >= 1 when load sampling is on, got %d", c.LoadScenarios)
	case c.PriceScenarios > MaxScenarioPairs || (c.SampleLoad && c.LoadScenarios > MaxScenarioPairs) ||
		c.ScenarioCount() > MaxScenarioPairs:
		return model.Configf("scenarios", "price x load scenarios exceed the limit of %d", MaxScenarioPairs)
	case h.Periods > MaxUnitPeriods || h.Periods*len(c.Units) > MaxUnitPeriods:
		return model.Configf("units", "%d periods x %d units exceed the limit of %d",
			h.Periods, len(c.Units), MaxUnitPeriods)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
