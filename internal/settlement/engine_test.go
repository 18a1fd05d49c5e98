package settlement

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"battery-dispatch/internal/dispatch"
	"battery-dispatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() *dispatch.Result {
	return &dispatch.Result{
		Periods: []dispatch.Period{
			{
				Hour: 0, PredictedPrice: 0.1, ActualPrice: 0.12, MarketPrice: 0.1,
				PredictedLoadKW: 1, NetDemandKW: 26,
				Units: []dispatch.UnitDispatch{{Name: "main", ChargeKW: 25, EnergyKWh: 45}},
			},
			{
				Hour: 1, PredictedPrice: 0.3, ActualPrice: 0.25, MarketPrice: 0.3,
				PredictedLoadKW: 1, NetDemandKW: -24,
				Units: []dispatch.UnitDispatch{{Name: "main", DischargeKW: 25, EnergyKWh: 20}},
			},
			{
				Hour: 2, PredictedPrice: 0.2, ActualPrice: 0.2, MarketPrice: 0.2,
				PredictedLoadKW: 1, NetDemandKW: 1,
				Units: []dispatch.UnitDispatch{{Name: "main", EnergyKWh: 20}},
			},
		},
	}
}

func TestEngineRun(t *testing.T) {
	res, err := New().Run(fixture())
	require.NoError(t, err)
	require.Len(t, res.Ledger, 3)

	assert.Equal(t, model.ActionCharging, res.Ledger[0].Action)
	assert.Equal(t, model.ActionDischarging, res.Ledger[1].Action)
	assert.Equal(t, model.ActionIdle, res.Ledger[2].Action)

	assert.InDelta(t, 26*0.1-24*0.3+0.2, res.TotalPredictedCost, 1e-12)
	assert.InDelta(t, 26*0.12-24*0.25+0.2, res.TotalActualCost, 1e-12)
	assert.InDelta(t, res.TotalActualCost, res.Ledger[2].CumActualCost, 1e-12)
	assert.InDelta(t, res.TotalActualCost-res.TotalPredictedCost, res.Deviation, 1e-12)
}

func TestEngineRunRejectsEmpty(t *testing.T) {
	_, err := New().Run(nil)
	assert.Error(t, err)
	_, err = New().Run(&dispatch.Result{})
	assert.Error(t, err)
}

func TestWriteLedgerCSV(t *testing.T) {
	res, err := New().Run(fixture())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "results", "ledger.csv")
	require.NoError(t, WriteLedgerCSV(path, res.Ledger))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "hour", records[0][0])
	assert.Equal(t, "CHARGING", records[1][1])
	assert.Equal(t, "-24.000000", records[2][8])
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriteLedgerReportsWriteError(t *testing.T) {
	res, err := New().Run(fixture())
	require.NoError(t, err)

	diskFull := errors.New("disk full")
	assert.ErrorIs(t, WriteLedger(failingWriter{err: diskFull}, res.Ledger), diskFull)
}
