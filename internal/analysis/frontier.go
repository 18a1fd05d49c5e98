package analysis

import "sort"

// FrontierPoint is one solve of a risk-weight sweep.
type FrontierPoint struct {
	Beta          float64 `json:"beta"`
	PredictedCost float64 `json:"predicted_cost"`
	CVaR          float64 `json:"cvar"`
	// Efficient is set when no other point has both lower predicted cost and
	// lower CVaR.
	Efficient bool `json:"efficient"`
}

// Frontier sorts points by beta ascending and flags the efficient ones.
func Frontier(points []FrontierPoint) []FrontierPoint {
	out := append([]FrontierPoint(nil), points...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Beta < out[j].Beta
	})
	for i := range out {
		out[i].Efficient = true
		for j := range out {
			if i != j && dominates(out[j], out[i]) {
				out[i].Efficient = false
				break
			}
		}
	}
	return out
}

func dominates(a, b FrontierPoint) bool {
	const eps = 1e-9
	noWorse := a.PredictedCost <= b.PredictedCost+eps && a.CVaR <= b.CVaR+eps
	better := a.PredictedCost < b.PredictedCost-eps || a.CVaR < b.CVaR-eps
	return noWorse && better
}
