package dispatch

import "battery-dispatch/internal/linprog"

// assembleObjective sets min sum_t u_sch[t]*price[t] + beta*cvar. With the
// risk block absent the objective is the expected-cost baseline.
func (m *Model) assembleObjective() {
	var obj linprog.Expr
	obj.AddExpr(m.predictedCost, 1)
	if m.risk != nil {
		obj.Add(m.risk.cvar, m.cfg.Beta)
	}
	m.objective = obj
	m.problem.SetObjective(obj)
}
