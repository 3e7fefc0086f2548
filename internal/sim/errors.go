package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates NaN or Inf in a state vector.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrDegenerateConfiguration indicates a zero denominator in the
	// equations of motion for the current angles and parameters.
	ErrDegenerateConfiguration = errors.New("sim: degenerate configuration")

	// ErrParameterBounds indicates a non-finite parameter value.
	ErrParameterBounds = errors.New("sim: parameter out of valid bounds")

	// ErrUnknownParam indicates a parameter name the model does not have.
	ErrUnknownParam = errors.New("sim: unknown parameter")

	// ErrDimensionMismatch indicates a state vector of the wrong length.
	ErrDimensionMismatch = errors.New("sim: dimension mismatch between state and system")
)

// SimulationError wraps a step failure with the frame it happened on.
type SimulationError struct {
	Frame   int
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Frame, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
