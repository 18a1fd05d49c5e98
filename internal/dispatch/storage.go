package dispatch

import (
	"battery-dispatch/internal/linprog"
)

// Variable and constraint names as they appear in the solution table.
const (
	varSOC         = "x"
	varCharge      = "c"
	varDischarge   = "d"
	varOnOff       = "b"
	varNetDemand   = "u_sch"
	varMarketPrice = "p_pm_pred"
)

// addStorageDynamics adds the per-unit energy state, charge and discharge
// variables, the cyclic state-of-charge recurrence and the end-of-day closure.
func (m *Model) addStorageDynamics() {
	p := m.problem
	n := m.horizon.Periods
	units := m.cfg.Units

	m.soc = make([][]linprog.VarID, n)
	m.charge = make([][]linprog.VarID, n)
	m.discharge = make([][]linprog.VarID, n)
	for t := 0; t < n; t++ {
		m.soc[t] = make([]linprog.VarID, len(units))
		m.charge[t] = make([]linprog.VarID, len(units))
		m.discharge[t] = make([]linprog.VarID, len(units))
		for i, u := range units {
			m.soc[t][i] = p.AddVar(varSOC, u.MinEnergyKWh(), u.MaxEnergyKWh(), t, i)
			m.charge[t][i] = p.AddVar(varCharge, 0, u.PowerKW, t, i)
			m.discharge[t][i] = p.AddVar(varDischarge, 0, u.PowerKW, t, i)
		}
	}

	for t := 0; t < n; t++ {
		prev := m.horizon.Prev(t)
		for i, u := range units {
			// x[t] - x[prev] - eta_c*c[t] + d[t] = 0
			var e linprog.Expr
			e.Add(m.soc[t][i], 1).
				Add(m.soc[prev][i], -1).
				Add(m.charge[t][i], -u.ChargeEfficiency).
				Add(m.discharge[t][i], 1)
			p.AddConstraint("soc", e, linprog.Equal, 0, t, i)
		}
	}

	last := m.horizon.Last()
	for i, u := range units {
		var e linprog.Expr
		e.Add(m.soc[last][i], 1)
		p.AddConstraint("closure", e, linprog.Equal, u.TerminalEnergyKWh(), i)
	}

	if m.cfg.ExclusiveChargeDischarge {
		m.addExclusivity()
	}
}

// addExclusivity lets each unit either charge or discharge in a period:
// c <= P*b and d <= P*(1-b) with binary b.
func (m *Model) addExclusivity() {
	p := m.problem
	m.onOff = make([][]linprog.VarID, m.horizon.Periods)
	for t := range m.onOff {
		m.onOff[t] = make([]linprog.VarID, len(m.cfg.Units))
		for i, u := range m.cfg.Units {
			b := p.AddBinary(varOnOff, t, i)
			m.onOff[t][i] = b

			var charging linprog.Expr
			charging.Add(m.charge[t][i], 1).Add(b, -u.PowerKW)
			p.AddConstraint("charge_mode", charging, linprog.LessEq, 0, t, i)

			var discharging linprog.Expr
			discharging.Add(m.discharge[t][i], 1).Add(b, u.PowerKW)
			p.AddConstraint("discharge_mode", discharging, linprog.LessEq, u.PowerKW, t, i)
		}
	}
}

// batteryNet is sum_i (c[t,i] - eta_d*d[t,i]), the units' grid-side flow in kW.
func (m *Model) batteryNet(t int) linprog.Expr {
	var e linprog.Expr
	for i, u := range m.cfg.Units {
		e.Add(m.charge[t][i], 1).Add(m.discharge[t][i], -u.DischargeEfficiency)
	}
	return e
}
