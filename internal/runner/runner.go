// Package runner executes a configured dispatch run end to end: build,
// solve, settle, and optionally persist and publish.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"battery-dispatch/internal/analysis"
	"battery-dispatch/internal/config"
	"battery-dispatch/internal/dispatch"
	"battery-dispatch/internal/linprog"
	"battery-dispatch/internal/metrics"
	"battery-dispatch/internal/publish"
	"battery-dispatch/internal/settlement"
	"battery-dispatch/internal/solution"
	"battery-dispatch/internal/solver"
	"battery-dispatch/internal/store"

	"go.uber.org/zap"
)

const (
	// HistogramBins is the bin count of the reported cost histogram.
	HistogramBins = 20
	// DefaultMaxConcurrentSolves is used when MaxConcurrentSolves is 0.
	DefaultMaxConcurrentSolves = 2
)

// Runner holds the optional sinks of a run. Nil fields are skipped.
//
// At most MaxConcurrentSolves builds and solves run at once. A slot is held
// until the solver's background work has ended, so solves abandoned on
// timeout still count against the limit.
type Runner struct {
	Store               *store.Store
	Publisher           *publish.Publisher
	Metrics             *metrics.Metrics
	Logger              *zap.Logger
	MaxConcurrentSolves int

	once  sync.Once
	slots chan struct{}
}

// Outcome is everything a run produced.
type Outcome struct {
	RunID        string
	Result       *dispatch.Result
	Rows         []solution.Row
	Ledger       *settlement.Result
	Distribution analysis.Distribution
	Histogram    []analysis.Bin
	Elapsed      time.Duration
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}

// acquire waits for a solve slot or for ctx to end.
func (r *Runner) acquire(ctx context.Context) error {
	r.once.Do(func() {
		n := r.MaxConcurrentSolves
		if n <= 0 {
			n = DefaultMaxConcurrentSolves
		}
		r.slots = make(chan struct{}, n)
	})
	select {
	case r.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return &linprog.SolveError{
			Status: linprog.StatusUnavailable,
			Err:    fmt.Errorf("waiting for a solve slot: %w", ctx.Err()),
		}
	}
}

// release frees the slot once sv has no simplex call left running.
func (r *Runner) release(sv *solver.Simplex) {
	go func() {
		sv.Wait()
		<-r.slots
	}()
}

// Solver builds the simplex solver described by cfg.
func (r *Runner) Solver(cfg *config.Config) *solver.Simplex {
	return &solver.Simplex{
		Tolerance: cfg.Solver.Tolerance,
		Timeout:   cfg.Solver.Timeout(),
		MaxNodes:  cfg.Solver.MaxNodes,
		Logger:    r.logger(),
	}
}

// Solve runs cfg, which must already have defaults applied. Configuration
// problems return *model.ConfigurationError; solver failures wrap the
// linprog sentinels.
func (r *Runner) Solve(ctx context.Context, cfg *config.Config, label string) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dc, err := cfg.ToDispatch()
	if err != nil {
		return nil, err
	}
	log := r.logger().With(zap.String("label", label))

	if err := r.acquire(ctx); err != nil {
		log.Warn("no solve slot", zap.Error(err))
		return nil, err
	}
	sv := r.Solver(cfg)
	defer r.release(sv)

	start := time.Now()
	m, err := dispatch.New(dc)
	if err != nil {
		return nil, err
	}
	res, err := m.Solve(ctx, sv)
	elapsed := time.Since(start)
	r.Metrics.Observe(string(linprog.StatusOf(err)), elapsed, res)
	if err != nil {
		log.Warn("dispatch solve failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, err
	}
	log.Info("dispatch solved",
		zap.Float64("objective", res.Objective),
		zap.Float64("predicted_cost", res.PredictedCost),
		zap.Float64("cvar", res.CVaR),
		zap.Int("scenarios", len(res.ScenarioCosts)),
		zap.Duration("elapsed", elapsed))

	rows, err := m.SolutionRows()
	if err != nil {
		return nil, err
	}
	ledger, err := settlement.New().Run(res)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	costs := res.Costs()
	out := &Outcome{
		Result:       res,
		Rows:         rows,
		Ledger:       ledger,
		Distribution: analysis.Describe(costs, res.Alpha),
		Histogram:    analysis.Histogram(costs, HistogramBins),
		Elapsed:      elapsed,
	}

	if r.Store != nil {
		run, err := store.NewRun(label, cfg, res)
		if err != nil {
			return nil, err
		}
		if err := r.Store.SaveRun(ctx, run, rows); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		out.RunID = run.ID
		log.Info("run stored", zap.String("run_id", run.ID))
	}
	if r.Publisher != nil {
		if err := r.Publisher.PublishSchedule(ctx, out.RunID, res); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Frontier sweeps the risk weight over betas with cfg's scenarios.
func (r *Runner) Frontier(ctx context.Context, cfg *config.Config, betas []float64) ([]analysis.FrontierPoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dc, err := cfg.ToDispatch()
	if err != nil {
		return nil, err
	}
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	sv := r.Solver(cfg)
	defer r.release(sv)

	start := time.Now()
	points, err := dispatch.SweepBeta(ctx, dc, betas, sv)
	r.logger().Info("frontier swept",
		zap.Int("points", len(points)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return points, err
}
