package solution

import (
	"fmt"

	"battery-dispatch/internal/analysis"
)

// Summary is what downstream reporting needs from a solution table.
type Summary struct {
	VaR  float64
	CVaR float64
	// RiskOptimized is false when the table had no z/cvar rows and the tail
	// measures were computed from the scenario costs.
	RiskOptimized bool
	ScenarioCosts []float64
	PredictedCost float64
	ActualCost    float64
	Objective     float64
}

// Extract pulls VaR, CVaR and the scenario costs out of a solution table.
// alpha is only used when the table carries no risk rows.
func Extract(rows []Row, alpha float64) (Summary, error) {
	var s Summary
	for _, r := range Filter(rows, RowScenarioCost) {
		s.ScenarioCosts = append(s.ScenarioCosts, r.Value)
	}
	if len(s.ScenarioCosts) == 0 {
		return Summary{}, fmt.Errorf("solution table has no %s rows", RowScenarioCost)
	}

	z, hasZ := Find(rows, VarVaR)
	cvar, hasCVaR := Find(rows, VarCVaR)
	switch {
	case hasZ && hasCVaR:
		s.VaR, s.CVaR, s.RiskOptimized = z.Value, cvar.Value, true
	case hasZ != hasCVaR:
		return Summary{}, fmt.Errorf("solution table has only one of %s and %s", VarVaR, VarCVaR)
	default:
		s.VaR, s.CVaR = analysis.TailRisk(s.ScenarioCosts, alpha)
	}

	if r, ok := Find(rows, RowPredictedCost); ok {
		s.PredictedCost = r.Value
	}
	if r, ok := Find(rows, RowActualCost); ok {
		s.ActualCost = r.Value
	}
	if r, ok := Find(rows, RowObjective); ok {
		s.Objective = r.Value
	}
	return s, nil
}
