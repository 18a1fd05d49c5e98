package data

import (
	"fmt"

	"battery-dispatch/internal/model"
)

// HourlyPriceProfile averages LMPs by local hour of day, weighting each
// interval by its duration, and converts $/MWh to $/kWh. Hours without data
// take the mean of all intervals.
func HourlyPriceProfile(intervals []LMPInterval, periods int) ([]float64, error) {
	if len(intervals) == 0 {
		return nil, fmt.Errorf("no intervals")
	}
	if periods < 1 || periods > 24 {
		return nil, fmt.Errorf("periods must be in [1, 24], got %d", periods)
	}
	sum := make([]float64, periods)
	weight := make([]float64, periods)
	allSum, allWeight := 0.0, 0.0
	for _, it := range intervals {
		w := it.DurationHours()
		if w <= 0 {
			w = 1
		}
		allSum += it.LMP * w
		allWeight += w
		h := it.IntervalStartLocal.Hour() * periods / 24
		sum[h] += it.LMP * w
		weight[h] += w
	}
	out := make([]float64, periods)
	for h := range out {
		if weight[h] > 0 {
			out[h] = sum[h] / weight[h] / 1000
		} else {
			out[h] = allSum / allWeight / 1000
		}
	}
	return out, nil
}

// ForecastFromPrices pairs a price profile with a flat load.
func ForecastFromPrices(prices []float64, loadW float64) model.Forecast {
	f := model.Flat(len(prices), loadW, 0)
	copy(f.PredictedPrice, prices)
	return f
}
