// Package settlement replays a committed day-ahead schedule against the
// realized prices.
package settlement

import (
	"fmt"

	"battery-dispatch/internal/dispatch"
	"battery-dispatch/internal/model"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

// Run settles every period of res at its actual price. Periods last one hour,
// so kW and kWh per period coincide.
func (e *Engine) Run(res *dispatch.Result) (*Result, error) {
	if res == nil {
		return nil, fmt.Errorf("result is nil")
	}
	if len(res.Periods) == 0 {
		return nil, fmt.Errorf("no periods")
	}

	ledger := make([]LedgerRow, 0, len(res.Periods))
	out := &Result{}
	cum := 0.0
	for _, p := range res.Periods {
		row := LedgerRow{
			Hour:           p.Hour,
			Action:         model.ActionFromNetKW(p.StorageKW()),
			PredictedPrice: p.PredictedPrice,
			ActualPrice:    p.ActualPrice,
			MarketPrice:    p.MarketPrice,
			LoadKW:         p.PredictedLoadKW,
			NetDemandKW:    p.NetDemandKW,
			PredictedCost:  p.NetDemandKW * p.PredictedPrice,
			ActualCost:     p.NetDemandKW * p.ActualPrice,
		}
		for _, u := range p.Units {
			row.ChargeKW += u.ChargeKW
			row.DischargeKW += u.DischargeKW
			row.EnergyKWh += u.EnergyKWh
		}
		cum += row.ActualCost
		row.CumActualCost = cum

		out.TotalPredictedCost += row.PredictedCost
		ledger = append(ledger, row)
	}

	out.Ledger = ledger
	out.TotalActualCost = cum
	out.Deviation = out.TotalActualCost - out.TotalPredictedCost
	return out, nil
}
