// Package solver solves linprog problems in-process with the gonum simplex
// method, adding depth-first branch-and-bound when integer variables are
// present.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"battery-dispatch/internal/linprog"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	DefaultTolerance = 1e-7
	DefaultMaxNodes  = 10000
	// integrality is how far from an integer a relaxed value may sit and
	// still count as integral.
	integrality = 1e-6
)

// ErrNodeLimit is returned (wrapped as unavailable) when branch-and-bound
// runs out of nodes.
var ErrNodeLimit = errors.New("branch-and-bound node limit reached")

// simplexSolve points to the function used for every relaxation. Tests
// override it to simulate solver failures.
var simplexSolve = func(c []float64, a mat.Matrix, b []float64, tol float64) (float64, []float64, error) {
	return lp.Simplex(c, a, b, tol, nil)
}

// Simplex is the default solver. The zero value is usable; a Simplex must
// not be copied after first use.
//
// gonum's simplex cannot be interrupted. When ctx is done or the timeout
// elapses Solve returns at once, but the relaxation already handed to gonum
// keeps computing in its goroutine until it finishes. Wait blocks until all
// such work has ended.
type Simplex struct {
	// Tolerance passed to the simplex method; 0 means DefaultTolerance.
	Tolerance float64
	// Timeout bounds one Solve call; 0 means no timeout beyond ctx.
	Timeout time.Duration
	// MaxNodes bounds branch-and-bound; 0 means DefaultMaxNodes.
	MaxNodes int
	Logger   *zap.Logger

	inflight sync.WaitGroup
}

func New(logger *zap.Logger) *Simplex {
	return &Simplex{Logger: logger}
}

func (s *Simplex) tol() float64 {
	if s.Tolerance > 0 {
		return s.Tolerance
	}
	return DefaultTolerance
}

func (s *Simplex) maxNodes() int {
	if s.MaxNodes > 0 {
		return s.MaxNodes
	}
	return DefaultMaxNodes
}

// Wait blocks until every simplex call started by s has returned, including
// calls abandoned by a timed-out or cancelled Solve.
func (s *Simplex) Wait() { s.inflight.Wait() }

func unavailable(err error) error {
	return &linprog.SolveError{Status: linprog.StatusUnavailable, Err: err}
}

func (s *Simplex) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

// Solve minimises p. It blocks until the solver finishes, ctx is done or the
// timeout elapses. Failures are *linprog.SolveError values.
func (s *Simplex) Solve(ctx context.Context, p *linprog.Problem) (*linprog.Solution, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	var (
		sol *linprog.Solution
		err error
	)
	if p.HasIntegers() {
		sol, err = s.branchAndBound(ctx, p)
	} else {
		lower, upper := bounds(p)
		var values []float64
		var obj float64
		values, obj, err = s.relax(ctx, p, lower, upper)
		if err == nil {
			sol = &linprog.Solution{Status: linprog.StatusOptimal, Values: values, Objective: obj, Nodes: 1}
		}
	}
	if err != nil {
		s.logger().Warn("solve failed",
			zap.Int("vars", p.NumVars()),
			zap.Int("constraints", len(p.Constraints())),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}
	s.logger().Debug("solve finished",
		zap.Int("vars", p.NumVars()),
		zap.Int("constraints", len(p.Constraints())),
		zap.Int("nodes", sol.Nodes),
		zap.Float64("objective", sol.Objective),
		zap.Duration("elapsed", time.Since(start)))
	return sol, nil
}

type relaxResult struct {
	obj float64
	x   []float64
	err error
}

// relax solves the continuous relaxation of p under the given bounds.
func (s *Simplex) relax(ctx context.Context, p *linprog.Problem, lower, upper []float64) ([]float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, unavailable(err)
	}
	sf, err := buildStandardForm(p, lower, upper, s.tol())
	if err != nil {
		return nil, 0, classify(err)
	}
	if len(sf.keep) == 0 {
		values := sf.recover(nil)
		return values, sf.constant, nil
	}
	if len(sf.a) > len(sf.keep) {
		return nil, 0, unavailable(fmt.Errorf("%d rows exceed %d columns", len(sf.a), len(sf.keep)))
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, unavailable(err)
	}
	a := sf.matrix()
	if err := ctx.Err(); err != nil {
		return nil, 0, unavailable(err)
	}

	done := make(chan relaxResult, 1)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				done <- relaxResult{err: fmt.Errorf("simplex panicked: %v", r)}
			}
		}()
		obj, x, err := simplexSolve(sf.c, a, sf.b, s.tol())
		done <- relaxResult{obj: obj, x: x, err: err}
	}()

	select {
	case <-ctx.Done():
		s.logger().Warn("simplex abandoned, still running in background",
			zap.Int("rows", len(sf.a)),
			zap.Int("cols", len(sf.keep)))
		return nil, 0, unavailable(ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, 0, classify(res.err)
		}
		values := sf.recover(res.x)
		for j := range values {
			values[j] = clamp(values[j], lower[j], upper[j])
		}
		return values, res.obj + sf.constant, nil
	}
}

func classify(err error) error {
	var se *linprog.SolveError
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, lp.ErrInfeasible), errors.Is(err, linprog.ErrInfeasible):
		return &linprog.SolveError{Status: linprog.StatusInfeasible}
	case errors.Is(err, lp.ErrUnbounded), errors.Is(err, linprog.ErrUnbounded):
		return &linprog.SolveError{Status: linprog.StatusUnbounded}
	}
	return unavailable(err)
}

func bounds(p *linprog.Problem) ([]float64, []float64) {
	vars := p.Vars()
	lower := make([]float64, len(vars))
	upper := make([]float64, len(vars))
	for j, v := range vars {
		lower[j], upper[j] = v.Lower, v.Upper
	}
	return lower, upper
}

// clamp removes numeric drift across a bound.
func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
