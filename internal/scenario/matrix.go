package scenario

// Matrix holds one trajectory per row; columns are periods.
type Matrix [][]float64

func (m Matrix) Rows() int { return len(m) }

func (m Matrix) Periods() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Identical reports whether every row equals the first.
func (m Matrix) Identical() bool {
	for _, row := range m[min(1, len(m)):] {
		for t, v := range row {
			if v != m[0][t] {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy so callers cannot mutate frozen scenarios.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for s, row := range m {
		out[s] = append([]float64(nil), row...)
	}
	return out
}
