package dispatch

import (
	"context"
	"testing"

	"battery-dispatch/internal/model"
	"battery-dispatch/internal/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepBeta(t *testing.T) {
	cfg := testConfig()
	cfg.Periods = 6
	cfg.Forecast = peakForecast(6)
	cfg.Uncertainty = 0.2

	points, err := SweepBeta(context.Background(), cfg, []float64{10, 0, 1}, solver.New(nil))
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, 0.0, points[0].Beta)
	assert.Equal(t, 10.0, points[2].Beta)
	// more weight on the tail never buys a worse tail
	assert.LessOrEqual(t, points[2].CVaR, points[0].CVaR+tol)
	assert.LessOrEqual(t, points[0].PredictedCost, points[2].PredictedCost+tol)
}

func TestSweepBetaRejectsBadInput(t *testing.T) {
	_, err := SweepBeta(context.Background(), testConfig(), nil, solver.New(nil))
	assert.Error(t, err)

	cfg := testConfig()
	_, err = SweepBeta(context.Background(), cfg, []float64{-1}, solver.New(nil))
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
