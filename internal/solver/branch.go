package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"battery-dispatch/internal/linprog"
)

type node struct {
	lower, upper []float64
}

// branchAndBound explores relaxations depth first, branching on the most
// fractional integer variable and pruning nodes that cannot beat the
// incumbent.
func (s *Simplex) branchAndBound(ctx context.Context, p *linprog.Problem) (*linprog.Solution, error) {
	lower, upper := bounds(p)
	for j, v := range p.Vars() {
		if v.Integer {
			lower[j] = math.Ceil(lower[j] - integrality)
			upper[j] = math.Floor(upper[j] + integrality)
		}
	}

	stack := []node{{lower: lower, upper: upper}}
	best := math.Inf(1)
	var incumbent []float64
	nodes := 0

	for len(stack) > 0 {
		if nodes >= s.maxNodes() {
			return nil, &linprog.SolveError{
				Status: linprog.StatusUnavailable,
				Err:    fmt.Errorf("%w after %d nodes", ErrNodeLimit, nodes),
			}
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		if infeasibleBounds(n) {
			continue
		}
		values, obj, err := s.relax(ctx, p, n.lower, n.upper)
		switch {
		case errors.Is(err, linprog.ErrInfeasible):
			continue
		case err != nil:
			return nil, err
		}
		if incumbent != nil && obj >= best-s.tol()*math.Max(1, math.Abs(best)) {
			continue
		}

		j := mostFractional(p, values)
		if j < 0 {
			best, incumbent = obj, values
			continue
		}

		v := values[j]
		down := node{lower: n.lower, upper: append([]float64(nil), n.upper...)}
		down.upper[j] = math.Floor(v)
		up := node{lower: append([]float64(nil), n.lower...), upper: n.upper}
		up.lower[j] = math.Ceil(v)
		// Explore the nearer side first.
		if v-math.Floor(v) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	if incumbent == nil {
		return nil, &linprog.SolveError{Status: linprog.StatusInfeasible}
	}
	for j, v := range p.Vars() {
		if v.Integer {
			incumbent[j] = math.Round(incumbent[j])
		}
	}
	return &linprog.Solution{
		Status:    linprog.StatusOptimal,
		Values:    incumbent,
		Objective: p.Objective().Eval(incumbent),
		Nodes:     nodes,
	}, nil
}

func infeasibleBounds(n node) bool {
	for j := range n.lower {
		if n.lower[j] > n.upper[j] {
			return true
		}
	}
	return false
}

func mostFractional(p *linprog.Problem, values []float64) int {
	best, bestDist := -1, integrality
	for j, v := range p.Vars() {
		if !v.Integer {
			continue
		}
		frac := values[j] - math.Floor(values[j])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}
