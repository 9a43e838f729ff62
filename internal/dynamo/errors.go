package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrDivisionByZero indicates the body reached the central mass, or its
	// speed vanished while a correction term divides by it.
	ErrDivisionByZero = errors.New("dynamo: division by zero (degenerate position or speed)")

	// ErrNonFinite indicates a step produced a NaN or Inf component.
	ErrNonFinite = errors.New("dynamo: non-finite state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownStepper indicates a stepper name with no registered implementation.
	ErrUnknownStepper = errors.New("dynamo: unknown stepper")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
