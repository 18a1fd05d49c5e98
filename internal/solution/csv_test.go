package solution

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Row {
	return []Row{
		{Variable: "x", Index: []int{23, 0}, Value: 20},
		{Variable: "u_sch", Index: []int{5}, Value: -1.25},
		{Variable: VarVaR, Value: 25},
		{Variable: VarCVaR, Value: 35},
		{Variable: RowScenarioCost, Index: []int{0, 0}, Value: 10},
		{Variable: RowScenarioCost, Index: []int{0, 1}, Value: 20},
		{Variable: RowScenarioCost, Index: []int{1, 0}, Value: 30},
		{Variable: RowScenarioCost, Index: []int{1, 1}, Value: 40},
		{Variable: RowPredictedCost, Value: 24.5},
	}
}

func TestWriteCSVLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "variable,index_1,index_2,value", lines[0])
	assert.Equal(t, "x,23,0,20", lines[1])
	assert.Equal(t, "u_sch,5,,-1.25", lines[2])
	assert.Equal(t, "z,,,25", lines[3])
}

func TestReadCSVAndExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "solution.csv")
	require.NoError(t, WriteFile(path, sampleRows()))

	rows, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)

	s, err := Extract(rows, 0.5)
	require.NoError(t, err)
	assert.True(t, s.RiskOptimized)
	assert.Equal(t, 25.0, s.VaR)
	assert.Equal(t, 35.0, s.CVaR)
	assert.Equal(t, []float64{10, 20, 30, 40}, s.ScenarioCosts)
	assert.Equal(t, 24.5, s.PredictedCost)
}

func TestExtractWithoutRiskRows(t *testing.T) {
	var rows []Row
	for _, r := range sampleRows() {
		if r.Variable != VarVaR && r.Variable != VarCVaR {
			rows = append(rows, r)
		}
	}
	s, err := Extract(rows, 0.5)
	require.NoError(t, err)
	assert.False(t, s.RiskOptimized)
	assert.InDelta(t, 20, s.VaR, 1e-9)
	assert.InDelta(t, 35, s.CVaR, 1e-9)
}

func TestExtractErrors(t *testing.T) {
	_, err := Extract([]Row{{Variable: "x", Value: 1}}, 0.5)
	assert.Error(t, err)

	_, err = Extract([]Row{
		{Variable: RowScenarioCost, Index: []int{0}, Value: 1},
		{Variable: VarVaR, Value: 1},
	}, 0.5)
	assert.Error(t, err)
}

func TestReadCSVRejectsBadInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("name,a,b,c\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("variable,index_1,index_2,value\nx,a,,1\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("variable,index_1,index_2,value\nx,1,,nope\n"))
	assert.Error(t, err)
}

func TestWriteCSVRejectsDeepIndex(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Row{{Variable: "w", Index: []int{1, 2, 3}}})
	assert.Error(t, err)
}
