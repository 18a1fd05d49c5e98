package model

// DefaultPeriods is one day of hourly periods.
const DefaultPeriods = 24

// Horizon is the cyclic set of scheduling periods 0..Periods-1.
type Horizon struct {
	Periods int
}

func NewHorizon(periods int) (Horizon, error) {
	if periods < 2 {
		return Horizon{}, Configf("horizon", "must have at least 2 periods, got %d", periods)
	}
	return Horizon{Periods: periods}, nil
}

// Prev returns the period before t, wrapping 0 to the last period.
func (h Horizon) Prev(t int) int {
	if t == 0 {
		return h.Periods - 1
	}
	return t - 1
}

func (h Horizon) Last() int { return h.Periods - 1 }
