package models

import (
	"battery-dispatch/internal/analysis"
	"battery-dispatch/internal/dispatch"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/settlement"
)

// SolveResponse represents the response from a dispatch solve
type SolveResponse struct {
	RunID   string       `json:"run_id,omitempty"`
	Status  string       `json:"status"`
	Summary SolveSummary `json:"summary"`

	Schedule      []dispatch.Period       `json:"schedule"`
	Distribution  analysis.Distribution   `json:"distribution"`
	Histogram     []analysis.Bin          `json:"histogram"`
	ScenarioCosts []dispatch.ScenarioCost `json:"scenario_costs,omitempty"`
	Ledger        []settlement.LedgerRow  `json:"ledger,omitempty"`
	Solution      []SolutionRow           `json:"solution,omitempty"`
}

// SolveSummary contains the headline numbers of a solve
type SolveSummary struct {
	Objective     float64 `json:"objective"`
	PredictedCost float64 `json:"predicted_cost"`
	ActualCost    float64 `json:"actual_cost"`
	Deviation     float64 `json:"deviation"` // actual minus predicted
	VaR           float64 `json:"var"`
	CVaR          float64 `json:"cvar"`
	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	RiskOptimized bool    `json:"risk_optimized"`
	Scenarios     int     `json:"scenarios"`
	Nodes         int     `json:"nodes"`
	ElapsedMS     int64   `json:"elapsed_ms"`
}

// SolutionRow is one line of the solution table
type SolutionRow struct {
	Variable string  `json:"variable"`
	Index    []int   `json:"index,omitempty"`
	Value    float64 `json:"value"`
}

// FrontierResponse lists the swept points ordered by beta
type FrontierResponse struct {
	Points []analysis.FrontierPoint `json:"points"`
}

// ForecastResponse carries a forecast ready to paste into a config
type ForecastResponse struct {
	Forecast  model.Forecast `json:"forecast"`
	Intervals int            `json:"intervals"`
}

// UnitPresetInfo represents information about a storage unit preset
type UnitPresetInfo struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	File  string      `json:"file"`
	Units []UnitSpecs `json:"units"`
}

// UnitSpecs contains storage unit specifications
type UnitSpecs struct {
	Name        string  `json:"name"`
	CapacityKWh float64 `json:"capacity_kwh"`
	PowerKW     float64 `json:"power_kw"`
}

// DatasetInfo represents information about a Grid Status dataset
type DatasetInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Market     string `json:"market"`
	Resolution string `json:"resolution"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
