package dispatch

import (
	"math"

	"battery-dispatch/internal/linprog"
	"battery-dispatch/internal/solution"
)

// scenarioCost is the cost of the schedule under one (price, load) scenario.
// load is -1 when loads are not sampled.
type scenarioCost struct {
	price int
	load  int
	expr  linprog.Expr
}

func (s scenarioCost) index() []int {
	if s.load < 0 {
		return []int{s.price}
	}
	return []int{s.price, s.load}
}

type riskTerms struct {
	valueAtRisk linprog.VarID
	cvar        linprog.VarID
	excess      []linprog.VarID
}

// addCostAndRisk builds the predicted, realized and per-scenario cost
// expressions, then the CVaR block when the risk weight is positive.
func (m *Model) addCostAndRisk() {
	n := m.horizon.Periods
	for t := 0; t < n; t++ {
		m.predictedCost.Add(m.netDemand[t], m.cfg.Forecast.PredictedPrice[t])
		m.actualCost.Add(m.netDemand[t], m.scen.ActualPrice[t])
	}

	for s1, prices := range m.scen.Price {
		if !m.cfg.SampleLoad {
			var e linprog.Expr
			for t := 0; t < n; t++ {
				e.Add(m.netDemand[t], prices[t])
			}
			m.scenarioCosts = append(m.scenarioCosts, scenarioCost{price: s1, load: -1, expr: e})
			continue
		}
		for s2, loads := range m.scen.Load {
			var e linprog.Expr
			for t := 0; t < n; t++ {
				e.AddConst(prices[t] * loads[t] / 1000)
				e.AddExpr(m.batteryNet(t), prices[t])
			}
			m.scenarioCosts = append(m.scenarioCosts, scenarioCost{price: s1, load: s2, expr: e})
		}
	}

	if m.cfg.RiskEnabled() {
		rt := addCVaR(m.problem, m.scenarioCosts, m.cfg.Alpha)
		m.risk = &rt
	}
}

// addCVaR adds the Rockafellar-Uryasev linearisation over equally likely
// scenarios:
//
//	cost[k] - z - y[k] <= 0,  y[k] >= 0
//	cvar = z + 1/(1-alpha) * 1/N * sum_k y[k]
//
// with N the exact number of scenarios.
func addCVaR(p *linprog.Problem, costs []scenarioCost, alpha float64) riskTerms {
	rt := riskTerms{
		valueAtRisk: p.AddFreeVar(solution.VarVaR),
		excess:      make([]linprog.VarID, len(costs)),
	}
	for k, sc := range costs {
		y := p.AddVar(solution.VarExcess, 0, math.Inf(1), sc.index()...)
		rt.excess[k] = y

		var e linprog.Expr
		e.AddExpr(sc.expr, 1).Add(rt.valueAtRisk, -1).Add(y, -1)
		p.AddConstraint("cvar_excess", e, linprog.LessEq, 0, sc.index()...)
	}

	rt.cvar = p.AddFreeVar(solution.VarCVaR)
	weight := 1 / ((1 - alpha) * float64(len(costs)))
	var def linprog.Expr
	def.Add(rt.cvar, 1).Add(rt.valueAtRisk, -1)
	for _, y := range rt.excess {
		def.Add(y, -weight)
	}
	p.AddConstraint("cvar", def, linprog.Equal, 0)
	return rt
}
