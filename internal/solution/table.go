// Package solution reads and writes the tabular solution of a dispatch model:
// one row per variable index plus derived cost rows.
package solution

// Names the extractor relies on.
const (
	VarVaR    = "z"
	VarCVaR   = "cvar"
	VarExcess = "y"

	RowScenarioCost  = "scenario_cost"
	RowPredictedCost = "predicted_cost"
	RowActualCost    = "actual_cost"
	RowObjective     = "objective"
)

// MaxIndex is the number of index columns in the table.
const MaxIndex = 2

// Row is one line of the solution table.
type Row struct {
	Variable string
	Index    []int
	Value    float64
}

// Find returns the first row named variable.
func Find(rows []Row, variable string) (Row, bool) {
	for _, r := range rows {
		if r.Variable == variable {
			return r, true
		}
	}
	return Row{}, false
}

// Filter returns all rows named variable, in table order.
func Filter(rows []Row, variable string) []Row {
	var out []Row
	for _, r := range rows {
		if r.Variable == variable {
			out = append(out, r)
		}
	}
	return out
}
