package linprog

import (
	"errors"
	"fmt"
)

var (
	// ErrInfeasible means no assignment satisfies every constraint.
	ErrInfeasible = errors.New("model is infeasible")
	// ErrUnbounded means the objective decreases without limit.
	ErrUnbounded = errors.New("model is unbounded")
	// ErrSolverUnavailable covers a solver that could not produce an answer:
	// missing, timed out, cancelled, over its node limit or numerically broken.
	ErrSolverUnavailable = errors.New("solver unavailable")
)

// Status is the terminal state reported by a solver.
type Status string

const (
	StatusOptimal     Status = "optimal"
	StatusInfeasible  Status = "infeasible"
	StatusUnbounded   Status = "unbounded"
	StatusUnavailable Status = "unavailable"
)

// SolveError carries the solver status together with the underlying cause.
// errors.Is matches both the status sentinel and the cause.
type SolveError struct {
	Status Status
	Err    error
}

func (e *SolveError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("solve failed: %s", e.Status)
	}
	return fmt.Sprintf("solve failed (%s): %v", e.Status, e.Err)
}

func (e *SolveError) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *SolveError) sentinel() error {
	switch e.Status {
	case StatusInfeasible:
		return ErrInfeasible
	case StatusUnbounded:
		return ErrUnbounded
	}
	return ErrSolverUnavailable
}

// StatusOf reports the status an error maps to. A nil error is optimal and an
// error unrelated to solving is unavailable.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOptimal
	case errors.Is(err, ErrInfeasible):
		return StatusInfeasible
	case errors.Is(err, ErrUnbounded):
		return StatusUnbounded
	}
	return StatusUnavailable
}
