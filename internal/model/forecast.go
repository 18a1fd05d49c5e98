package model

import "math"

// Forecast carries the day-ahead series the model is built from.
// Load is in W (the schedule converts it to kW); prices are per kWh.
// ActualPrice is optional: when empty a realized trajectory is sampled.
type Forecast struct {
	PredictedLoadW []float64 `json:"predicted_load_w" yaml:"predicted_load_w"`
	PredictedPrice []float64 `json:"predicted_price" yaml:"predicted_price"`
	ActualPrice    []float64 `json:"actual_price,omitempty" yaml:"actual_price,omitempty"`
}

// Validate checks the series against a horizon.
func (f Forecast) Validate(h Horizon) error {
	if len(f.PredictedLoadW) != h.Periods {
		return Configf("predicted_load_w", "has %d values, want %d", len(f.PredictedLoadW), h.Periods)
	}
	if len(f.PredictedPrice) != h.Periods {
		return Configf("predicted_price", "has %d values, want %d", len(f.PredictedPrice), h.Periods)
	}
	if n := len(f.ActualPrice); n != 0 && n != h.Periods {
		return Configf("actual_price", "has %d values, want 0 or %d", n, h.Periods)
	}
	for name, series := range map[string][]float64{
		"predicted_load_w": f.PredictedLoadW,
		"predicted_price":  f.PredictedPrice,
		"actual_price":     f.ActualPrice,
	} {
		for t, v := range series {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Configf(name, "value at period %d is not finite", t)
			}
		}
	}
	return nil
}

// Flat returns a forecast with constant load and price over n periods.
func Flat(n int, loadW, price float64) Forecast {
	f := Forecast{
		PredictedLoadW: make([]float64, n),
		PredictedPrice: make([]float64, n),
	}
	for t := 0; t < n; t++ {
		f.PredictedLoadW[t] = loadW
		f.PredictedPrice[t] = price
	}
	return f
}
