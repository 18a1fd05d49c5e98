package linprog

// Term is coef * variable.
type Term struct {
	Var  VarID
	Coef float64
}

// Expr is a linear expression sum(terms) + Constant.
// The zero value is the empty expression.
type Expr struct {
	Terms    []Term
	Constant float64
}

// NewExpr starts an expression from a constant.
func NewExpr(constant float64) Expr { return Expr{Constant: constant} }

// Add appends coef * v.
func (e *Expr) Add(v VarID, coef float64) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// AddConst shifts the constant part.
func (e *Expr) AddConst(c float64) *Expr {
	e.Constant += c
	return e
}

// AddExpr appends scale * o.
func (e *Expr) AddExpr(o Expr, scale float64) *Expr {
	for _, t := range o.Terms {
		e.Terms = append(e.Terms, Term{Var: t.Var, Coef: scale * t.Coef})
	}
	e.Constant += scale * o.Constant
	return e
}

// Coefficients merges repeated variables into one coefficient each.
func (e Expr) Coefficients() map[VarID]float64 {
	out := make(map[VarID]float64, len(e.Terms))
	for _, t := range e.Terms {
		out[t.Var] += t.Coef
	}
	return out
}

// Eval evaluates the expression at values, indexed by VarID.
func (e Expr) Eval(values []float64) float64 {
	sum := e.Constant
	for _, t := range e.Terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}
