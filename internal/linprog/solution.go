package linprog

import "math"

// Solution is an optimal assignment returned by a solver.
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
	// Nodes is the number of relaxations solved (1 for a pure LP).
	Nodes int
}

func (s *Solution) Value(id VarID) float64 { return s.Values[id] }

func (s *Solution) Eval(e Expr) float64 { return e.Eval(s.Values) }

// Feasible reports whether values satisfy every bound and constraint of p
// within tol. Useful for checking solver output.
func (p *Problem) Feasible(values []float64, tol float64) bool {
	if len(values) != len(p.vars) {
		return false
	}
	for i, v := range p.vars {
		x := values[i]
		if x < v.Lower-tol || x > v.Upper+tol {
			return false
		}
		if v.Integer && math.Abs(x-math.Round(x)) > tol {
			return false
		}
	}
	for _, c := range p.constraints {
		lhs := c.Expr.Eval(values)
		switch c.Sense {
		case LessEq:
			if lhs > c.RHS+tol {
				return false
			}
		case GreaterEq:
			if lhs < c.RHS-tol {
				return false
			}
		case Equal:
			if math.Abs(lhs-c.RHS) > tol {
				return false
			}
		}
	}
	return true
}
