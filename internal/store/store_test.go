package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"battery-dispatch/internal/dispatch"
	"battery-dispatch/internal/solution"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	res := &dispatch.Result{
		Objective: 12.5, PredictedCost: 10, ActualCost: 11, VaR: 2, CVaR: 2.5,
		Alpha: 0.95, Beta: 1, Nodes: 1,
		ScenarioCosts: []dispatch.ScenarioCost{{Cost: 1}, {Cost: 2}},
	}
	run, err := NewRun("test", map[string]int{"periods": 4}, res)
	require.NoError(t, err)
	rows := []solution.Row{
		{Variable: "x", Index: []int{0, 0}, Value: 10},
		{Variable: "u_sch", Index: []int{3}, Value: -2.5},
		{Variable: solution.VarVaR, Value: 2},
	}
	require.NoError(t, s.SaveRun(ctx, run, rows))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "test", got.Label)
	assert.Equal(t, 2, got.Scenarios)
	assert.InDelta(t, 2.5, got.CVaR, 1e-12)
	assert.JSONEq(t, `{"periods":4}`, string(got.Config))
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Millisecond)

	gotRows, err := s.SolutionRows(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, rows[0], gotRows[0])
	assert.Equal(t, rows[1], gotRows[1])
	assert.Empty(t, gotRows[2].Index)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, label := range []string{"a", "b", "c"} {
		run, err := NewRun(label, nil, &dispatch.Result{})
		require.NoError(t, err)
		run.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.SaveRun(ctx, run, nil))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].Label)
	assert.Equal(t, "b", runs[1].Label)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMissingRun(t *testing.T) {
	s := openTemp(t)
	_, err := s.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.SolutionRows(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))
	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))

	_, err := Open("mysql", "")
	assert.Error(t, err)
}
