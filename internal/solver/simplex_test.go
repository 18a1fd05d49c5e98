package solver

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"battery-dispatch/internal/linprog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

func TestSolveLP(t *testing.T) {
	p := linprog.NewProblem()
	x := p.AddVar("x", 0, math.Inf(1))
	y := p.AddVar("y", 0, math.Inf(1))

	var c1, c2, obj linprog.Expr
	c1.Add(x, 1).Add(y, 2)
	c2.Add(x, 3).Add(y, 1)
	p.AddConstraint("c1", c1, linprog.LessEq, 4)
	p.AddConstraint("c2", c2, linprog.LessEq, 6)
	obj.Add(x, -1).Add(y, -1)
	p.SetObjective(obj)

	sol, err := New(nil).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, linprog.StatusOptimal, sol.Status)
	assert.InDelta(t, 1.6, sol.Value(x), 1e-6)
	assert.InDelta(t, 1.2, sol.Value(y), 1e-6)
	assert.InDelta(t, -2.8, sol.Objective, 1e-6)
	assert.True(t, p.Feasible(sol.Values, 1e-6))
}

func TestSolveShiftedBoundsAndEquality(t *testing.T) {
	p := linprog.NewProblem()
	x := p.AddVar("x", 2, 10)
	y := p.AddVar("y", 0, 5)

	var sum, obj linprog.Expr
	sum.Add(x, 1).Add(y, 1)
	p.AddConstraint("sum", sum, linprog.Equal, 7)
	obj.Add(x, 2).Add(y, 1).AddConst(1)
	p.SetObjective(obj)

	sol, err := New(nil).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 2, sol.Value(x), 1e-6)
	assert.InDelta(t, 5, sol.Value(y), 1e-6)
	assert.InDelta(t, 10, sol.Objective, 1e-6)
}

func TestSolveFreeAndUpperOnlyVariables(t *testing.T) {
	p := linprog.NewProblem()
	z := p.AddFreeVar("z")
	w := p.AddVar("w", math.Inf(-1), 4)

	var floor, obj linprog.Expr
	floor.Add(z, 1).Add(w, -1)
	p.AddConstraint("floor", floor, linprog.GreaterEq, -3)
	obj.Add(z, 1).Add(w, -2)
	p.SetObjective(obj)

	sol, err := New(nil).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 4, sol.Value(w), 1e-6)
	assert.InDelta(t, 1, sol.Value(z), 1e-6)
	assert.InDelta(t, -7, sol.Objective, 1e-6)
}

func TestSolveInfeasible(t *testing.T) {
	p := linprog.NewProblem()
	x := p.AddVar("x", 0, 1)
	var e linprog.Expr
	e.Add(x, 1)
	p.AddConstraint("floor", e, linprog.GreaterEq, 2)
	p.SetObjective(e)

	_, err := New(nil).Solve(context.Background(), p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, linprog.ErrInfeasible))
	assert.False(t, errors.Is(err, linprog.ErrSolverUnavailable))
}

func TestSolveEmptyRowInfeasible(t *testing.T) {
	p := linprog.NewProblem()
	x := p.AddVar("x", 0, 1)
	var zero, obj linprog.Expr
	zero.Add(x, 0)
	p.AddConstraint("impossible", zero, linprog.LessEq, -1)
	obj.Add(x, 1)
	p.SetObjective(obj)

	_, err := New(nil).Solve(context.Background(), p)
	assert.ErrorIs(t, err, linprog.ErrInfeasible)
}

func TestSolveUnbounded(t *testing.T) {
	p := linprog.NewProblem()
	x := p.AddFreeVar("x")
	var e linprog.Expr
	e.Add(x, 1)
	p.AddConstraint("cap", e, linprog.LessEq, 5)
	p.SetObjective(e)

	_, err := New(nil).Solve(context.Background(), p)
	assert.ErrorIs(t, err, linprog.ErrUnbounded)
}

func TestSolveUnconstrainedNegativeCostIsUnbounded(t *testing.T) {
	p := linprog.NewProblem()
	x := p.AddVar("x", 0, math.Inf(1))
	var obj linprog.Expr
	obj.Add(x, -1)
	p.SetObjective(obj)

	_, err := New(nil).Solve(context.Background(), p)
	assert.ErrorIs(t, err, linprog.ErrUnbounded)
}

func TestBranchAndBound(t *testing.T) {
	p := linprog.NewProblem()
	a := p.AddInteger("a", 0, 10)
	b := p.AddInteger("b", 0, 10)

	var c1, c2, obj linprog.Expr
	c1.Add(a, 6).Add(b, 4)
	c2.Add(a, 1).Add(b, 2)
	p.AddConstraint("c1", c1, linprog.LessEq, 24)
	p.AddConstraint("c2", c2, linprog.LessEq, 6)
	obj.Add(a, -5).Add(b, -4)
	p.SetObjective(obj)

	sol, err := New(nil).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 4.0, sol.Value(a))
	assert.Equal(t, 0.0, sol.Value(b))
	assert.InDelta(t, -20, sol.Objective, 1e-6)
	assert.Greater(t, sol.Nodes, 1)
}

func TestBranchAndBoundNodeLimit(t *testing.T) {
	p := linprog.NewProblem()
	a := p.AddInteger("a", 0, 10)
	b := p.AddInteger("b", 0, 10)
	var c1, c2, obj linprog.Expr
	c1.Add(a, 6).Add(b, 4)
	c2.Add(a, 1).Add(b, 2)
	p.AddConstraint("c1", c1, linprog.LessEq, 24)
	p.AddConstraint("c2", c2, linprog.LessEq, 6)
	obj.Add(a, -5).Add(b, -4)
	p.SetObjective(obj)

	s := &Simplex{MaxNodes: 1}
	_, err := s.Solve(context.Background(), p)
	assert.ErrorIs(t, err, linprog.ErrSolverUnavailable)
	assert.ErrorIs(t, err, ErrNodeLimit)
}

func TestBranchAndBoundInfeasible(t *testing.T) {
	p := linprog.NewProblem()
	b := p.AddBinary("b")
	var half linprog.Expr
	half.Add(b, 2)
	p.AddConstraint("odd", half, linprog.Equal, 1)
	p.SetObjective(half)

	_, err := New(nil).Solve(context.Background(), p)
	assert.ErrorIs(t, err, linprog.ErrInfeasible)
}

func TestSolveCancelled(t *testing.T) {
	p := linprog.NewProblem()
	x := p.AddVar("x", 0, 1)
	var e linprog.Expr
	e.Add(x, 1)
	p.AddConstraint("cap", e, linprog.LessEq, 1)
	p.SetObjective(e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Solve(ctx, p)
	assert.ErrorIs(t, err, linprog.ErrSolverUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolveMapsNumericalFailure(t *testing.T) {
	orig := simplexSolve
	defer func() { simplexSolve = orig }()
	simplexSolve = func([]float64, mat.Matrix, []float64, float64) (float64, []float64, error) {
		return math.NaN(), nil, lp.ErrSingular
	}

	p := linprog.NewProblem()
	x := p.AddVar("x", 0, 1)
	var e linprog.Expr
	e.Add(x, 1)
	p.AddConstraint("cap", e, linprog.LessEq, 1)
	p.SetObjective(e)

	_, err := New(nil).Solve(context.Background(), p)
	assert.ErrorIs(t, err, linprog.ErrSolverUnavailable)
	assert.ErrorIs(t, err, lp.ErrSingular)
}

func TestTimedOutSolveTracksBackgroundWork(t *testing.T) {
	orig := simplexSolve
	defer func() { simplexSolve = orig }()
	var running atomic.Int32
	release := make(chan struct{})
	simplexSolve = func(c []float64, a mat.Matrix, b []float64, tol float64) (float64, []float64, error) {
		running.Add(1)
		defer running.Add(-1)
		<-release
		return orig(c, a, b, tol)
	}

	p := linprog.NewProblem()
	x := p.AddVar("x", 0, 1)
	var e linprog.Expr
	e.Add(x, 1)
	p.AddConstraint("cap", e, linprog.LessEq, 1)
	p.SetObjective(e)

	s := &Simplex{Timeout: 20 * time.Millisecond}
	_, err := s.Solve(context.Background(), p)
	assert.ErrorIs(t, err, linprog.ErrSolverUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Eventually(t, func() bool { return running.Load() == 1 }, time.Second, time.Millisecond)

	waited := make(chan struct{})
	go func() {
		s.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		t.Fatal("Wait returned while the simplex was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the simplex finished")
	}
	assert.Equal(t, int32(0), running.Load())
}

func TestSolveSkipsSimplexWhenCancelled(t *testing.T) {
	orig := simplexSolve
	defer func() { simplexSolve = orig }()
	calls := 0
	simplexSolve = func(c []float64, a mat.Matrix, b []float64, tol float64) (float64, []float64, error) {
		calls++
		return orig(c, a, b, tol)
	}

	p := linprog.NewProblem()
	x := p.AddVar("x", 0, 1)
	y := p.AddBinary("y")
	var e linprog.Expr
	e.Add(x, 1).Add(y, 1)
	p.AddConstraint("cap", e, linprog.LessEq, 1)
	p.SetObjective(e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(nil)
	_, err := s.Solve(ctx, p)
	assert.ErrorIs(t, err, linprog.ErrSolverUnavailable)
	s.Wait()
	assert.Zero(t, calls)
}
