package dispatch

import (
	"battery-dispatch/internal/analysis"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/solution"
)

// UnitDispatch is one unit's schedule in one period.
type UnitDispatch struct {
	Name        string  `json:"name"`
	ChargeKW    float64 `json:"charge_kw"`
	DischargeKW float64 `json:"discharge_kw"`
	EnergyKWh   float64 `json:"energy_kwh"`
}

// Period is the committed schedule for one hour.
type Period struct {
	Hour            int            `json:"hour"`
	PredictedPrice  float64        `json:"predicted_price"`
	ActualPrice     float64        `json:"actual_price"`
	MarketPrice     float64        `json:"market_price"`
	PredictedLoadKW float64        `json:"predicted_load_kw"`
	NetDemandKW     float64        `json:"net_demand_kw"`
	Units           []UnitDispatch `json:"units"`
}

// StorageKW is the units' combined grid-side flow; positive means charging.
func (p Period) StorageKW() float64 {
	return p.NetDemandKW - p.PredictedLoadKW
}

func (p Period) Action() model.Action {
	return model.ActionFromNetKW(p.StorageKW())
}

// ScenarioCost is the schedule's cost under one scenario. LoadScenario is -1
// when loads are not sampled. Excess is the CVaR shortfall variable and is
// zero when the risk block is absent.
type ScenarioCost struct {
	PriceScenario int     `json:"price_scenario"`
	LoadScenario  int     `json:"load_scenario"`
	Cost          float64 `json:"cost"`
	Excess        float64 `json:"excess"`
}

// Result is the read-out of a solved model.
type Result struct {
	Periods       []Period       `json:"periods"`
	Objective     float64        `json:"objective"`
	PredictedCost float64        `json:"predicted_cost"`
	ActualCost    float64        `json:"actual_cost"`
	VaR           float64        `json:"var"`
	CVaR          float64        `json:"cvar"`
	Alpha         float64        `json:"alpha"`
	Beta          float64        `json:"beta"`
	// RiskOptimized is false when VaR and CVaR were computed empirically
	// because the risk weight was zero.
	RiskOptimized bool           `json:"risk_optimized"`
	ScenarioCosts []ScenarioCost `json:"scenario_costs"`
	Nodes         int            `json:"nodes"`
}

// Costs returns the scenario costs in scenario order.
func (r *Result) Costs() []float64 {
	out := make([]float64, len(r.ScenarioCosts))
	for k, sc := range r.ScenarioCosts {
		out[k] = sc.Cost
	}
	return out
}

// Result reads the solved values back into domain terms.
func (m *Model) Result() (*Result, error) {
	if m.state != StateSolved {
		return nil, ErrNotSolved
	}
	sol := m.solution
	f := m.cfg.Forecast

	res := &Result{
		Objective:     sol.Eval(m.objective),
		PredictedCost: sol.Eval(m.predictedCost),
		ActualCost:    sol.Eval(m.actualCost),
		Alpha:         m.cfg.Alpha,
		Beta:          m.cfg.Beta,
		RiskOptimized: m.risk != nil,
		Nodes:         sol.Nodes,
	}

	res.Periods = make([]Period, m.horizon.Periods)
	for t := range res.Periods {
		p := Period{
			Hour:            t,
			PredictedPrice:  f.PredictedPrice[t],
			ActualPrice:     m.scen.ActualPrice[t],
			MarketPrice:     sol.Value(m.marketPrice[t]),
			PredictedLoadKW: f.PredictedLoadW[t] / 1000,
			NetDemandKW:     sol.Value(m.netDemand[t]),
			Units:           make([]UnitDispatch, len(m.cfg.Units)),
		}
		for i, u := range m.cfg.Units {
			p.Units[i] = UnitDispatch{
				Name:        u.Name,
				ChargeKW:    sol.Value(m.charge[t][i]),
				DischargeKW: sol.Value(m.discharge[t][i]),
				EnergyKWh:   sol.Value(m.soc[t][i]),
			}
		}
		res.Periods[t] = p
	}

	res.ScenarioCosts = make([]ScenarioCost, len(m.scenarioCosts))
	for k, sc := range m.scenarioCosts {
		res.ScenarioCosts[k] = ScenarioCost{
			PriceScenario: sc.price,
			LoadScenario:  sc.load,
			Cost:          sol.Eval(sc.expr),
		}
		if m.risk != nil {
			res.ScenarioCosts[k].Excess = sol.Value(m.risk.excess[k])
		}
	}

	if m.risk != nil {
		res.VaR = sol.Value(m.risk.valueAtRisk)
		res.CVaR = sol.Value(m.risk.cvar)
	} else {
		res.VaR, res.CVaR = analysis.TailRisk(res.Costs(), m.cfg.Alpha)
	}
	return res, nil
}

// SolutionRows lists every variable of the solved model followed by the
// derived cost rows, in the layout solution.WriteCSV expects.
func (m *Model) SolutionRows() ([]solution.Row, error) {
	if m.state != StateSolved {
		return nil, ErrNotSolved
	}
	sol := m.solution
	vars := m.problem.Vars()
	rows := make([]solution.Row, 0, len(vars)+len(m.scenarioCosts)+3)
	for j, v := range vars {
		rows = append(rows, solution.Row{Variable: v.Name, Index: v.Index, Value: sol.Values[j]})
	}
	for _, sc := range m.scenarioCosts {
		rows = append(rows, solution.Row{Variable: solution.RowScenarioCost, Index: sc.index(), Value: sol.Eval(sc.expr)})
	}
	rows = append(rows,
		solution.Row{Variable: solution.RowPredictedCost, Value: sol.Eval(m.predictedCost)},
		solution.Row{Variable: solution.RowActualCost, Value: sol.Eval(m.actualCost)},
		solution.Row{Variable: solution.RowObjective, Value: sol.Eval(m.objective)},
	)
	return rows, nil
}
