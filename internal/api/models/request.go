package models

import "battery-dispatch/internal/config"

// SolveRequest represents the request body for solving a dispatch model
type SolveRequest struct {
	Label   string        `json:"label,omitempty"`
	Config  config.Config `json:"config" binding:"required"`
	Options SolveOptions  `json:"options,omitempty"`
}

// SolveOptions select the optional parts of the response
type SolveOptions struct {
	IncludeLedger    bool `json:"include_ledger,omitempty"`
	IncludeSolution  bool `json:"include_solution,omitempty"`
	IncludeScenarios bool `json:"include_scenarios,omitempty"`
}

// FrontierRequest sweeps the risk weight over Betas
type FrontierRequest struct {
	Config config.Config `json:"config" binding:"required"`
	Betas  []float64     `json:"betas" binding:"required,min=1"`
}

// ForecastRequest builds a price forecast from Grid Status day-ahead LMPs
type ForecastRequest struct {
	APIKey     string  `json:"api_key" binding:"required"` // Grid Status API key
	DatasetID  string  `json:"dataset_id" binding:"required"`
	LocationID string  `json:"location_id" binding:"required"`
	StartDate  string  `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate    string  `json:"end_date" binding:"required"`   // YYYY-MM-DD
	Periods    int     `json:"periods,omitempty"`             // default: 24
	LoadW      float64 `json:"load_w,omitempty"`
}

// RunsQuery lists stored runs
type RunsQuery struct {
	Limit int `form:"limit,omitempty"` // default: 20
}
