package settlement

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// WriteLedgerCSV writes the ledger to path, creating parent directories.
func WriteLedgerCSV(path string, ledger []LedgerRow) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteLedger(f, ledger)
}

func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)

	header := []string{
		"hour",
		"action",
		"predicted_price",
		"actual_price",
		"market_price",
		"load_kw",
		"charge_kw",
		"discharge_kw",
		"net_demand_kw",
		"energy_kwh",
		"predicted_cost",
		"actual_cost",
		"cum_actual_cost",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Hour),
			string(r.Action),
			fmtFloat(r.PredictedPrice),
			fmtFloat(r.ActualPrice),
			fmtFloat(r.MarketPrice),
			fmtFloat(r.LoadKW),
			fmtFloat(r.ChargeKW),
			fmtFloat(r.DischargeKW),
			fmtFloat(r.NetDemandKW),
			fmtFloat(r.EnergyKWh),
			fmtFloat(r.PredictedCost),
			fmtFloat(r.ActualCost),
			fmtFloat(r.CumActualCost),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
