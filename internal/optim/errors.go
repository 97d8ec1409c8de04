package optim

import "errors"

// Domain errors for fitting and sweeps.
var (
	// ErrOptimization indicates every objective evaluation failed.
	ErrOptimization = errors.New("optim: optimization failed")

	// ErrBounds indicates inconsistent parameter bounds (min > max).
	ErrBounds = errors.New("optim: inconsistent bounds")

	// ErrDataAlignment indicates experimental and simulated time axes
	// cannot be reconciled.
	ErrDataAlignment = errors.New("optim: cannot align time axes")
)
