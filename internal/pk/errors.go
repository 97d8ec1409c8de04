package pk

import (
	"errors"
	"fmt"
)

// Domain errors for the simulation core.
var (
	// ErrValidation indicates malformed parameters or input data.
	ErrValidation = errors.New("pk: invalid parameters")

	// ErrNumerical indicates the ODE solver failed to converge.
	ErrNumerical = errors.New("pk: solver did not converge")
)

// ValidationError reports a parameter or dataset field that failed
// validation. It unwraps to [ErrValidation].
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pk: invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NumericalError wraps a solver failure with step context. It unwraps
// to [ErrNumerical]. A NumericalError means no usable series was
// produced; the solver never returns a truncated one.
type NumericalError struct {
	Time    float64
	Step    float64
	Message string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("pk: solver failure at t=%.4f (step %.3e): %s", e.Time, e.Step, e.Message)
}

func (e *NumericalError) Unwrap() error { return ErrNumerical }
