package dispatch

import (
	"context"
	"errors"
	"math"
	"testing"

	"battery-dispatch/internal/linprog"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/scenario"
	"battery-dispatch/internal/solution"
	"battery-dispatch/internal/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func testUnit() model.StorageUnit {
	return model.StorageUnit{
		Name:                "main",
		CapacityKWh:         100,
		PowerKW:             25,
		MinSOC:              0.2,
		MaxSOC:              0.9,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
	}
}

// peakForecast is cheap for the first half of the day and expensive after.
func peakForecast(n int) model.Forecast {
	f := model.Flat(n, 1000, 0.1)
	for t := n / 2; t < n; t++ {
		f.PredictedPrice[t] = 0.3
	}
	return f
}

func testConfig() Config {
	return Config{
		Units:          []model.StorageUnit{testUnit()},
		Periods:        model.DefaultPeriods,
		Forecast:       peakForecast(model.DefaultPeriods),
		Gradient:       0.001,
		Alpha:          0.95,
		Beta:           1,
		Uncertainty:    0.05,
		Regime:         scenario.RegimeParameterized,
		PriceScenarios: 2,
		LoadScenarios:  2,
		SampleLoad:     true,
		Seed:           1,
	}
}

func solve(t *testing.T, cfg Config) (*Model, *Result) {
	t.Helper()
	m, err := New(cfg)
	require.NoError(t, err)
	res, err := m.Solve(context.Background(), solver.New(nil))
	require.NoError(t, err)
	return m, res
}

func TestValidateRejectsOutOfDomain(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no units", func(c *Config) { c.Units = nil }},
		{"bad unit", func(c *Config) { c.Units[0].CapacityKWh = -1 }},
		{"alpha one", func(c *Config) { c.Alpha = 1 }},
		{"alpha zero", func(c *Config) { c.Alpha = 0 }},
		{"negative beta", func(c *Config) { c.Beta = -0.1 }},
		{"negative gradient", func(c *Config) { c.Gradient = -1 }},
		{"uncertainty one", func(c *Config) { c.Uncertainty = 1 }},
		{"no price scenarios", func(c *Config) { c.PriceScenarios = 0 }},
		{"no load scenarios", func(c *Config) { c.LoadScenarios = 0 }},
		{"short forecast", func(c *Config) { c.Forecast = peakForecast(12) }},
		{"one period", func(c *Config) { c.Periods = 1 }},
		{"unknown regime", func(c *Config) { c.Regime = "gaussian" }},
		{"too many scenario pairs", func(c *Config) { c.PriceScenarios, c.LoadScenarios = 40, 40 }},
		{"too many price scenarios", func(c *Config) { c.SampleLoad, c.PriceScenarios = false, MaxScenarioPairs + 1 }},
		{"too many unit periods", func(c *Config) {
			for len(c.Units)*c.Periods <= MaxUnitPeriods {
				c.Units = append(c.Units, testUnit())
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Units = []model.StorageUnit{testUnit()}
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrConfiguration), err.Error())
		})
	}
}

func TestBoundsFollowUnitParameters(t *testing.T) {
	m, err := New(testConfig())
	require.NoError(t, err)
	assert.Equal(t, StateBuilt, m.State())

	seen := map[string]int{}
	for _, v := range m.Problem().Vars() {
		switch v.Name {
		case varSOC:
			assert.Equal(t, 20.0, v.Lower)
			assert.Equal(t, 90.0, v.Upper)
		case varCharge, varDischarge:
			assert.Equal(t, 0.0, v.Lower)
			assert.Equal(t, 25.0, v.Upper)
		}
		seen[v.Name]++
	}
	assert.Equal(t, 24, seen[varSOC])
	assert.Equal(t, 24, seen[varNetDemand])
	assert.Equal(t, 4, seen[solution.VarExcess])
	assert.Equal(t, 1, seen[solution.VarVaR])
	assert.Equal(t, 1, seen[solution.VarCVaR])
}

func TestSolvedModelKeepsUnitLimits(t *testing.T) {
	cfg := testConfig()
	second := testUnit()
	second.Name = "second"
	second.CapacityKWh = 40
	second.ChargeEfficiency = 0.9
	second.DischargeEfficiency = 0.9
	cfg.Units = append(cfg.Units, second)

	m, res := solve(t, cfg)
	assert.Equal(t, StateSolved, m.State())
	assert.True(t, m.Problem().Feasible(m.solution.Values, 1e-5))

	last := res.Periods[len(res.Periods)-1]
	for i, u := range cfg.Units {
		assert.InDelta(t, u.TerminalEnergyKWh(), last.Units[i].EnergyKWh, tol, "closure for %s", u.Name)
	}
	for _, p := range res.Periods {
		for i, u := range cfg.Units {
			d := p.Units[i]
			assert.GreaterOrEqual(t, d.EnergyKWh, u.MinEnergyKWh()-tol)
			assert.LessOrEqual(t, d.EnergyKWh, u.MaxEnergyKWh()+tol)
			assert.GreaterOrEqual(t, d.ChargeKW, -tol)
			assert.LessOrEqual(t, d.DischargeKW, u.PowerKW+tol)
		}
		assert.InDelta(t, p.PredictedPrice+cfg.Gradient*p.NetDemandKW, p.MarketPrice, tol)
	}

	require.True(t, res.RiskOptimized)
	assert.GreaterOrEqual(t, res.CVaR, res.VaR-tol)
	for _, sc := range res.ScenarioCosts {
		assert.GreaterOrEqual(t, sc.Excess, -tol)
		assert.GreaterOrEqual(t, sc.Excess, sc.Cost-res.VaR-tol)
	}
	assert.InDelta(t, res.PredictedCost+cfg.Beta*res.CVaR, res.Objective, tol)
}

func TestFlatSeriesRespectsUnitBounds(t *testing.T) {
	cfg := testConfig()
	cfg.Forecast = model.Flat(model.DefaultPeriods, 1000, 0.2)
	m, _ := solve(t, cfg)

	seen := map[string]int{}
	for j, v := range m.Problem().Vars() {
		value := m.solution.Values[j]
		switch v.Name {
		case varCharge, varDischarge:
			assert.GreaterOrEqual(t, value, -tol, v.Label())
			assert.LessOrEqual(t, value, 25+tol, v.Label())
		case varSOC:
			assert.GreaterOrEqual(t, value, 20-tol, v.Label())
			assert.LessOrEqual(t, value, 90+tol, v.Label())
		default:
			continue
		}
		seen[v.Name]++
	}
	assert.Equal(t, 24, seen[varCharge])
	assert.Equal(t, 24, seen[varDischarge])
	assert.Equal(t, 24, seen[varSOC])
}

func TestCVaRAtSeveralConfidenceLevels(t *testing.T) {
	for _, alpha := range []float64{0.5, 0.9, 0.99} {
		cfg := testConfig()
		cfg.Alpha = alpha
		_, res := solve(t, cfg)
		assert.GreaterOrEqual(t, res.CVaR, res.VaR-tol, "alpha=%g", alpha)

		costs := res.Costs()
		mean, worst := 0.0, math.Inf(-1)
		for _, c := range costs {
			mean += c / float64(len(costs))
			worst = math.Max(worst, c)
		}
		assert.GreaterOrEqual(t, res.CVaR, mean-tol, "alpha=%g", alpha)
		assert.LessOrEqual(t, res.CVaR, worst+tol, "alpha=%g", alpha)
	}
}

func TestZeroRiskWeightIsExpectedCostModel(t *testing.T) {
	cfg := testConfig()
	cfg.Beta = 0
	m, res := solve(t, cfg)

	for _, v := range m.Problem().Vars() {
		assert.NotEqual(t, solution.VarCVaR, v.Name)
		assert.NotEqual(t, solution.VarVaR, v.Name)
	}
	assert.False(t, res.RiskOptimized)
	assert.InDelta(t, res.PredictedCost, res.Objective, tol)

	risky := testConfig()
	risky.Beta = 5
	_, riskyRes := solve(t, risky)
	assert.LessOrEqual(t, res.PredictedCost, riskyRes.PredictedCost+tol)
}

func TestZeroUncertaintyCollapsesScenarios(t *testing.T) {
	cfg := testConfig()
	cfg.Uncertainty = 0
	m, res := solve(t, cfg)

	sc := m.Scenarios()
	assert.True(t, sc.Price.Identical())
	assert.True(t, sc.Load.Identical())
	assert.Equal(t, cfg.Forecast.PredictedPrice, sc.Price[0])
	assert.Equal(t, cfg.Forecast.PredictedPrice, sc.ActualPrice)

	for _, c := range res.Costs() {
		assert.InDelta(t, res.PredictedCost, c, tol)
	}
	assert.InDelta(t, res.PredictedCost, res.CVaR, tol)
	assert.InDelta(t, res.PredictedCost, res.ActualCost, tol)
}

func TestFixedRegimeIgnoresConfiguredUncertainty(t *testing.T) {
	cfg := testConfig()
	cfg.Uncertainty = 0
	cfg.Regime = scenario.RegimeFixed
	sc := SampleScenarios(cfg)
	assert.False(t, sc.Price.Identical())
}

func TestCVaRHandExample(t *testing.T) {
	p := linprog.NewProblem()
	costs := make([]scenarioCost, 0, 4)
	k := 0
	for s1 := 0; s1 < 2; s1++ {
		for s2 := 0; s2 < 2; s2++ {
			k++
			costs = append(costs, scenarioCost{price: s1, load: s2, expr: linprog.NewExpr(float64(10 * k))})
		}
	}
	rt := addCVaR(p, costs, 0.5)
	var obj linprog.Expr
	obj.Add(rt.cvar, 1)
	p.SetObjective(obj)

	sol, err := solver.New(nil).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 35, sol.Value(rt.cvar), 1e-6)
	z := sol.Value(rt.valueAtRisk)
	assert.GreaterOrEqual(t, z, 20-1e-6)
	assert.LessOrEqual(t, z, 30+1e-6)
}

func TestCVaRDivisorIsScenarioCount(t *testing.T) {
	cfg := testConfig()
	cfg.PriceScenarios = 3
	cfg.LoadScenarios = 2
	cfg.Alpha = 0.8
	m, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, 6, cfg.ScenarioCount())

	var def linprog.Constraint
	for _, c := range m.Problem().Constraints() {
		if c.Name == "cvar" {
			def = c
		}
	}
	want := -1 / ((1 - 0.8) * 6)
	n := 0
	for v, coef := range def.Expr.Coefficients() {
		if m.Problem().Var(v).Name == solution.VarExcess {
			assert.InDelta(t, want, coef, 1e-12)
			n++
		}
	}
	assert.Equal(t, 6, n)

	priceOnly := testConfig()
	priceOnly.SampleLoad = false
	priceOnly.PriceScenarios = 5
	assert.Equal(t, 5, priceOnly.ScenarioCount())
}

func TestPriceOnlyScenarios(t *testing.T) {
	cfg := testConfig()
	cfg.SampleLoad = false
	cfg.PriceScenarios = 3
	m, res := solve(t, cfg)
	assert.Nil(t, m.Scenarios().Load)
	require.Len(t, res.ScenarioCosts, 3)
	for _, sc := range res.ScenarioCosts {
		assert.Equal(t, -1, sc.LoadScenario)
	}
}

func TestArbitrageLowersPredictedCost(t *testing.T) {
	cfg := testConfig()
	cfg.Beta = 0
	cfg.Gradient = 0
	cfg.Units[0].ChargeEfficiency = 0.9
	cfg.Units[0].DischargeEfficiency = 0.9
	_, res := solve(t, cfg)

	baseline := 0.0
	for t2, p := range cfg.Forecast.PredictedPrice {
		baseline += p * cfg.Forecast.PredictedLoadW[t2] / 1000
	}
	assert.Less(t, res.PredictedCost, baseline-1)

	charged, discharged := 0.0, 0.0
	for _, p := range res.Periods {
		if p.Hour < 12 {
			charged += p.Units[0].ChargeKW
		} else {
			discharged += p.Units[0].DischargeKW
		}
	}
	assert.Greater(t, charged, 0.0)
	assert.Greater(t, discharged, 0.0)

	discharging := 0
	for _, p := range res.Periods[12:] {
		if p.Action() == model.ActionDischarging {
			discharging++
		}
	}
	assert.Greater(t, discharging, 0)
}

func TestExclusiveChargeDischarge(t *testing.T) {
	cfg := testConfig()
	cfg.Periods = 4
	cfg.Forecast = model.Forecast{
		PredictedLoadW: []float64{500, 500, 500, 500},
		PredictedPrice: []float64{0.1, -0.05, 0.3, 0.2},
	}
	cfg.Beta = 0
	cfg.SampleLoad = false
	cfg.PriceScenarios = 1
	cfg.ExclusiveChargeDischarge = true
	cfg.Units[0].ChargeEfficiency = 0.95
	cfg.Units[0].DischargeEfficiency = 0.95

	m, res := solve(t, cfg)
	assert.True(t, m.Problem().HasIntegers())
	for _, p := range res.Periods {
		d := p.Units[0]
		assert.InDelta(t, 0, d.ChargeKW*d.DischargeKW, 1e-6, "hour %d", p.Hour)
	}
	assert.InDelta(t, cfg.Units[0].TerminalEnergyKWh(), res.Periods[3].Units[0].EnergyKWh, tol)
}

func TestResultRequiresSolve(t *testing.T) {
	m, err := New(testConfig())
	require.NoError(t, err)
	_, err = m.Result()
	assert.ErrorIs(t, err, ErrNotSolved)
	_, err = m.SolutionRows()
	assert.ErrorIs(t, err, ErrNotSolved)
}

type failingSolver struct{ err error }

func (f failingSolver) Solve(context.Context, *linprog.Problem) (*linprog.Solution, error) {
	return nil, f.err
}

func TestSolveErrorsAreDistinguishable(t *testing.T) {
	for _, status := range []linprog.Status{linprog.StatusInfeasible, linprog.StatusUnbounded, linprog.StatusUnavailable} {
		m, err := New(testConfig())
		require.NoError(t, err)
		_, err = m.Solve(context.Background(), failingSolver{err: &linprog.SolveError{Status: status}})
		require.Error(t, err)
		assert.Equal(t, StateBuilt, m.State())

		assert.Equal(t, status == linprog.StatusInfeasible, errors.Is(err, linprog.ErrInfeasible))
		assert.Equal(t, status == linprog.StatusUnbounded, errors.Is(err, linprog.ErrUnbounded))
		assert.Equal(t, status == linprog.StatusUnavailable, errors.Is(err, linprog.ErrSolverUnavailable))
		assert.False(t, errors.Is(err, model.ErrConfiguration))
	}
}

func TestSamplingIsReproducible(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)
	b, err := New(testConfig())
	require.NoError(t, err)
	assert.Equal(t, a.Scenarios(), b.Scenarios())

	other := testConfig()
	other.Seed = 2
	c, err := New(other)
	require.NoError(t, err)
	assert.NotEqual(t, a.Scenarios().Price, c.Scenarios().Price)
}

func TestBuildRejectsMismatchedScenarios(t *testing.T) {
	cfg := testConfig()
	sc := SampleScenarios(cfg)
	sc.Price = sc.Price[:1]
	_, err := Build(cfg, sc)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestBuildRejectsLoadScenariosWhenSamplingIsOff(t *testing.T) {
	cfg := testConfig()
	sc := SampleScenarios(cfg)
	cfg.SampleLoad = false
	_, err := Build(cfg, sc)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	sc.Load = nil
	m, err := Build(cfg, sc)
	require.NoError(t, err)
	excess := 0
	for _, v := range m.Problem().Vars() {
		if v.Name == solution.VarExcess {
			excess++
		}
	}
	assert.Equal(t, cfg.ScenarioCount(), excess)
}

func TestSolutionRowsRoundTripThroughExtract(t *testing.T) {
	cfg := testConfig()
	m, res := solve(t, cfg)
	rows, err := m.SolutionRows()
	require.NoError(t, err)

	s, err := solution.Extract(rows, cfg.Alpha)
	require.NoError(t, err)
	assert.True(t, s.RiskOptimized)
	assert.InDelta(t, res.VaR, s.VaR, 1e-12)
	assert.InDelta(t, res.CVaR, s.CVaR, 1e-12)
	assert.Len(t, s.ScenarioCosts, cfg.ScenarioCount())
	assert.InDelta(t, res.ActualCost, s.ActualCost, 1e-12)
	assert.False(t, math.IsNaN(s.Objective))
}
