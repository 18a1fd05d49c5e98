package dispatch

import (
	"context"
	"fmt"

	"battery-dispatch/internal/analysis"
)

// SweepBeta solves cfg once per risk weight against one shared scenario set
// and returns the risk/cost frontier ordered by beta.
func SweepBeta(ctx context.Context, cfg Config, betas []float64, s Solver) ([]analysis.FrontierPoint, error) {
	if len(betas) == 0 {
		return nil, fmt.Errorf("no risk weights to sweep")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sc := SampleScenarios(cfg)

	points := make([]analysis.FrontierPoint, 0, len(betas))
	for _, beta := range betas {
		c := cfg
		c.Beta = beta
		m, err := Build(c, sc)
		if err != nil {
			return nil, fmt.Errorf("beta %g: %w", beta, err)
		}
		res, err := m.Solve(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("beta %g: %w", beta, err)
		}
		points = append(points, analysis.FrontierPoint{
			Beta:          beta,
			PredictedCost: res.PredictedCost,
			CVaR:          res.CVaR,
		})
	}
	return analysis.Frontier(points), nil
}
