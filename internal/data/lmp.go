package data

import "time"

// LMPResponse matches the JSON shape returned by the Grid Status location query.
type LMPResponse struct {
	StatusCode int           `json:"status_code"`
	Data       []LMPInterval `json:"data"`
}

// LMPInterval is one interval row from a Grid Status LMP dataset.
// Prices are in $/MWh.
type LMPInterval struct {
	IntervalStartLocal time.Time `json:"interval_start_local"`
	IntervalStartUTC   time.Time `json:"interval_start_utc"`
	IntervalEndUTC     time.Time `json:"interval_end_utc"`

	Market   string  `json:"market"`
	Location string  `json:"location"`
	LMP      float64 `json:"lmp"`
}

func (i LMPInterval) DurationHours() float64 {
	return i.IntervalEndUTC.Sub(i.IntervalStartUTC).Hours()
}
