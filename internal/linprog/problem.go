// Package linprog is a small algebraic modelling layer for linear and mixed
// integer programs: named, indexed variables with bounds, linear expressions,
// constraints and a minimisation objective.
package linprog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VarID identifies a variable inside its Problem.
type VarID int

// Var describes one decision variable. Lower may be -Inf and Upper +Inf.
type Var struct {
	Name    string
	Index   []int
	Lower   float64
	Upper   float64
	Integer bool
}

// Label renders the variable as name[i,j].
func (v Var) Label() string { return label(v.Name, v.Index) }

// Sense is the relation of a constraint's expression to its right-hand side.
type Sense int

const (
	LessEq Sense = iota
	Equal
	GreaterEq
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case Equal:
		return "=="
	case GreaterEq:
		return ">="
	}
	return "?"
}

// Constraint is Expr (Sense) RHS. Any constant inside Expr is moved to the
// right-hand side when the problem is solved.
type Constraint struct {
	Name  string
	Index []int
	Expr  Expr
	Sense Sense
	RHS   float64
}

func (c Constraint) Label() string { return label(c.Name, c.Index) }

// Problem is a minimisation problem under construction.
type Problem struct {
	vars        []Var
	constraints []Constraint
	objective   Expr
}

func NewProblem() *Problem { return &Problem{} }

// AddVar registers a continuous variable with bounds [lower, upper].
func (p *Problem) AddVar(name string, lower, upper float64, index ...int) VarID {
	if lower > upper {
		panic(fmt.Sprintf("linprog: %s has lower bound %g above upper bound %g", label(name, index), lower, upper))
	}
	p.vars = append(p.vars, Var{Name: name, Index: index, Lower: lower, Upper: upper})
	return VarID(len(p.vars) - 1)
}

// AddFreeVar registers an unbounded continuous variable.
func (p *Problem) AddFreeVar(name string, index ...int) VarID {
	return p.AddVar(name, math.Inf(-1), math.Inf(1), index...)
}

// AddBinary registers an integer variable restricted to {0, 1}.
func (p *Problem) AddBinary(name string, index ...int) VarID {
	return p.AddInteger(name, 0, 1, index...)
}

// AddInteger registers an integer variable with bounds [lower, upper].
func (p *Problem) AddInteger(name string, lower, upper float64, index ...int) VarID {
	id := p.AddVar(name, lower, upper, index...)
	p.vars[id].Integer = true
	return id
}

// AddConstraint appends expr (sense) rhs.
func (p *Problem) AddConstraint(name string, expr Expr, sense Sense, rhs float64, index ...int) {
	p.constraints = append(p.constraints, Constraint{Name: name, Index: index, Expr: expr, Sense: sense, RHS: rhs})
}

// SetObjective replaces the expression to minimise.
func (p *Problem) SetObjective(e Expr) { p.objective = e }

func (p *Problem) Objective() Expr { return p.objective }

func (p *Problem) NumVars() int { return len(p.vars) }

func (p *Problem) Var(id VarID) Var { return p.vars[id] }

// Vars returns the variables in registration order.
func (p *Problem) Vars() []Var { return p.vars }

func (p *Problem) Constraints() []Constraint { return p.constraints }

// HasIntegers reports whether any variable is integer-restricted.
func (p *Problem) HasIntegers() bool {
	for _, v := range p.vars {
		if v.Integer {
			return true
		}
	}
	return false
}

func label(name string, index []int) string {
	if len(index) == 0 {
		return name
	}
	parts := make([]string, len(index))
	for i, v := range index {
		parts[i] = strconv.Itoa(v)
	}
	return name + "[" + strings.Join(parts, ",") + "]"
}
