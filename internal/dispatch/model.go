package dispatch

import (
	"context"
	"errors"
	"fmt"

	"battery-dispatch/internal/linprog"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/scenario"
)

// State is the lifecycle of a Model.
type State int

const (
	// StateBuilt means variables and constraints exist but no solution does.
	StateBuilt State = iota
	// StateSolved means a solver returned an optimal assignment.
	StateSolved
)

func (s State) String() string {
	if s == StateSolved {
		return "solved"
	}
	return "built"
}

// ErrNotSolved is returned when results are read from a model that has not
// been solved successfully.
var ErrNotSolved = errors.New("model has not been solved")

// Solver is the external optimiser a Model hands its problem to.
type Solver interface {
	Solve(ctx context.Context, p *linprog.Problem) (*linprog.Solution, error)
}

// Model is one built dispatch problem with its scenarios frozen in.
// A Model is not safe for concurrent use.
type Model struct {
	cfg     Config
	horizon model.Horizon
	scen    Scenarios
	problem *linprog.Problem

	soc, charge, discharge [][]linprog.VarID // [t][i]
	onOff                  [][]linprog.VarID
	netDemand              []linprog.VarID
	marketPrice            []linprog.VarID
	risk                   *riskTerms

	predictedCost linprog.Expr
	actualCost    linprog.Expr
	scenarioCosts []scenarioCost
	objective     linprog.Expr

	state    State
	solution *linprog.Solution
}

// New validates cfg, samples its scenarios and builds the model.
func New(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Build(cfg, SampleScenarios(cfg))
}

// Build assembles the model from cfg and already sampled scenarios. It is a
// pure function of its inputs.
func Build(cfg Config, sc Scenarios) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := sc.check(cfg); err != nil {
		return nil, err
	}
	if cfg.Regime == "" {
		cfg.Regime = scenario.RegimeParameterized
	}
	cfg.Units = append([]model.StorageUnit(nil), cfg.Units...)

	m := &Model{
		cfg:     cfg,
		horizon: cfg.Horizon(),
		scen:    sc.clone(),
		problem: linprog.NewProblem(),
	}
	m.addStorageDynamics()
	m.addScheduling()
	m.addCostAndRisk()
	m.assembleObjective()
	return m, nil
}

func (m *Model) Config() Config { return m.cfg }

func (m *Model) State() State { return m.state }

// Scenarios returns a copy of the frozen scenario data.
func (m *Model) Scenarios() Scenarios { return m.scen.clone() }

// Problem exposes the underlying program, e.g. for inspection or export.
func (m *Model) Problem() *linprog.Problem { return m.problem }

// Solve hands the problem to s and, on success, moves the model to
// StateSolved. On failure the model keeps its previous state and the error
// wraps the solver's (see linprog.ErrInfeasible and friends).
func (m *Model) Solve(ctx context.Context, s Solver) (*Result, error) {
	sol, err := s.Solve(ctx, m.problem)
	if err != nil {
		return nil, fmt.Errorf("solve dispatch model: %w", err)
	}
	if len(sol.Values) != m.problem.NumVars() {
		return nil, fmt.Errorf("solve dispatch model: %w", &linprog.SolveError{
			Status: linprog.StatusUnavailable,
			Err:    fmt.Errorf("solver returned %d values for %d variables", len(sol.Values), m.problem.NumVars()),
		})
	}
	m.solution = sol
	m.state = StateSolved
	return m.Result()
}
