package solver

import (
	"math"

	"battery-dispatch/internal/linprog"

	"gonum.org/v1/gonum/mat"
)

// column maps one structural variable onto standard-form columns:
// x = offset + sum(sign * col).
type column struct {
	offset float64
	cols   []int
	signs  []float64
}

// standardForm is min c'x s.t. Ax = b, x >= 0, built from a linprog.Problem
// with the given bound overrides.
type standardForm struct {
	c        []float64
	a        [][]float64
	b        []float64
	constant float64
	mapping  []column
	nCols    int
	// removed columns are fixed at zero and never handed to the simplex.
	keep []int
}

// buildStandardForm shifts finite lower bounds to zero, mirrors variables that
// only have an upper bound, splits free variables, and adds slack columns for
// upper bounds and inequality rows. Rows whose coefficients vanish are checked
// and dropped; empty columns are fixed at zero when that is optimal.
func buildStandardForm(p *linprog.Problem, lower, upper []float64, tol float64) (*standardForm, error) {
	vars := p.Vars()
	sf := &standardForm{mapping: make([]column, len(vars))}

	newCol := func() int {
		sf.nCols++
		return sf.nCols - 1
	}

	type boundRow struct {
		col int
		rhs float64
	}
	var upperRows []boundRow
	for j := range vars {
		lo, hi := lower[j], upper[j]
		switch {
		case !math.IsInf(lo, -1):
			col := newCol()
			sf.mapping[j] = column{offset: lo, cols: []int{col}, signs: []float64{1}}
			if !math.IsInf(hi, 1) {
				upperRows = append(upperRows, boundRow{col: col, rhs: hi - lo})
			}
		case !math.IsInf(hi, 1):
			col := newCol()
			sf.mapping[j] = column{offset: hi, cols: []int{col}, signs: []float64{-1}}
		default:
			pos, neg := newCol(), newCol()
			sf.mapping[j] = column{cols: []int{pos, neg}, signs: []float64{1, -1}}
		}
	}

	type row struct {
		coefs map[int]float64
		sense linprog.Sense
		rhs   float64
	}
	rows := make([]row, 0, len(upperRows)+len(p.Constraints()))
	for _, ur := range upperRows {
		rows = append(rows, row{coefs: map[int]float64{ur.col: 1}, sense: linprog.LessEq, rhs: ur.rhs})
	}
	for _, con := range p.Constraints() {
		r := row{coefs: map[int]float64{}, sense: con.Sense, rhs: con.RHS - con.Expr.Constant}
		for v, a := range con.Expr.Coefficients() {
			m := sf.mapping[v]
			r.rhs -= a * m.offset
			for k, col := range m.cols {
				r.coefs[col] += a * m.signs[k]
			}
		}
		nonzero := false
		for _, a := range r.coefs {
			if a != 0 {
				nonzero = true
				break
			}
		}
		if !nonzero {
			if !emptyRowHolds(r.sense, r.rhs, tol) {
				return nil, linprog.ErrInfeasible
			}
			continue
		}
		rows = append(rows, r)
	}

	sf.constant = p.Objective().Constant
	for v, a := range p.Objective().Coefficients() {
		sf.constant += a * sf.mapping[v].offset
	}

	// Slacks for inequality rows.
	slack := make([]int, len(rows))
	for i, r := range rows {
		slack[i] = -1
		if r.sense != linprog.Equal {
			slack[i] = newCol()
		}
	}

	cost := make([]float64, sf.nCols)
	for v, a := range p.Objective().Coefficients() {
		m := sf.mapping[v]
		for k, col := range m.cols {
			cost[col] += a * m.signs[k]
		}
	}

	used := make([]bool, sf.nCols)
	dense := make([][]float64, len(rows))
	sf.b = make([]float64, len(rows))
	for i, r := range rows {
		line := make([]float64, sf.nCols)
		for col, a := range r.coefs {
			line[col] = a
		}
		switch r.sense {
		case linprog.LessEq:
			line[slack[i]] = 1
		case linprog.GreaterEq:
			line[slack[i]] = -1
		}
		rhs := r.rhs
		if rhs < 0 {
			for k := range line {
				line[k] = -line[k]
			}
			rhs = -rhs
		}
		for k, a := range line {
			if a != 0 {
				used[k] = true
			}
		}
		dense[i] = line
		sf.b[i] = rhs
	}

	for col := 0; col < sf.nCols; col++ {
		if used[col] {
			sf.keep = append(sf.keep, col)
			continue
		}
		if cost[col] < 0 {
			return nil, linprog.ErrUnbounded
		}
	}

	sf.c = make([]float64, len(sf.keep))
	sf.a = make([][]float64, len(dense))
	for k, col := range sf.keep {
		sf.c[k] = cost[col]
	}
	for i, line := range dense {
		packed := make([]float64, len(sf.keep))
		for k, col := range sf.keep {
			packed[k] = line[col]
		}
		sf.a[i] = packed
	}
	return sf, nil
}

func emptyRowHolds(sense linprog.Sense, rhs, tol float64) bool {
	switch sense {
	case linprog.LessEq:
		return rhs >= -tol
	case linprog.GreaterEq:
		return rhs <= tol
	}
	return math.Abs(rhs) <= tol
}

func (sf *standardForm) matrix() *mat.Dense {
	m := mat.NewDense(len(sf.a), len(sf.keep), nil)
	for i, line := range sf.a {
		m.SetRow(i, line)
	}
	return m
}

// recover maps a standard-form solution back onto the structural variables.
func (sf *standardForm) recover(x []float64) []float64 {
	full := make([]float64, sf.nCols)
	for k, col := range sf.keep {
		full[col] = x[k]
	}
	out := make([]float64, len(sf.mapping))
	for j, m := range sf.mapping {
		v := m.offset
		for k, col := range m.cols {
			v += m.signs[k] * full[col]
		}
		out[j] = v
	}
	return out
}
