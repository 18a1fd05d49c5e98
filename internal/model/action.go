package model

// Action is a human-friendly operating mode for a period.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// actionEpsilonKW absorbs solver round-off around zero net flow.
const actionEpsilonKW = 1e-6

// ActionFromNetKW labels a period by the units' combined grid-side flow.
// Convention: positive kW = charging (drawn from the grid), negative kW = discharging.
func ActionFromNetKW(netKW float64) Action {
	switch {
	case netKW > actionEpsilonKW:
		return ActionCharging
	case netKW < -actionEpsilonKW:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
