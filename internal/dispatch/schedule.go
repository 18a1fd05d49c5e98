package dispatch

import "battery-dispatch/internal/linprog"

// addScheduling defines the scheduled grid demand and the price it implies:
//
//	u_sch[t]     = load[t]/1000 + sum_i (c[t,i] - eta_d*d[t,i])
//	p_pm_pred[t] = price[t] + gradient*u_sch[t]
func (m *Model) addScheduling() {
	p := m.problem
	n := m.horizon.Periods
	f := m.cfg.Forecast

	m.netDemand = make([]linprog.VarID, n)
	m.marketPrice = make([]linprog.VarID, n)
	for t := 0; t < n; t++ {
		u := p.AddFreeVar(varNetDemand, t)
		m.netDemand[t] = u

		var e linprog.Expr
		e.Add(u, 1).AddExpr(m.batteryNet(t), -1)
		p.AddConstraint("schedule", e, linprog.Equal, f.PredictedLoadW[t]/1000, t)
	}
	for t := 0; t < n; t++ {
		pm := p.AddFreeVar(varMarketPrice, t)
		m.marketPrice[t] = pm

		var e linprog.Expr
		e.Add(pm, 1).Add(m.netDemand[t], -m.cfg.Gradient)
		p.AddConstraint("market_price", e, linprog.Equal, f.PredictedPrice[t], t)
	}
}
