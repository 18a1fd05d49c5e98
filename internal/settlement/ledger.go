package settlement

import "battery-dispatch/internal/model"

// LedgerRow is one period of the settled day-ahead schedule.
// This is the primary artifact for "what the committed schedule cost".
type LedgerRow struct {
	Hour int `json:"hour"`

	Action model.Action `json:"action"`

	PredictedPrice float64 `json:"predicted_price"`
	ActualPrice    float64 `json:"actual_price"`
	MarketPrice    float64 `json:"market_price"`

	LoadKW      float64 `json:"load_kw"`
	ChargeKW    float64 `json:"charge_kw"`
	DischargeKW float64 `json:"discharge_kw"`
	NetDemandKW float64 `json:"net_demand_kw"`
	EnergyKWh   float64 `json:"energy_kwh"`

	PredictedCost float64 `json:"predicted_cost"`
	ActualCost    float64 `json:"actual_cost"`
	CumActualCost float64 `json:"cum_actual_cost"`
}

type Result struct {
	Ledger             []LedgerRow
	TotalPredictedCost float64
	TotalActualCost    float64
	// Deviation is actual minus predicted cost.
	Deviation float64
}
