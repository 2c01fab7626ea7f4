package dynamo

import "errors"

// Domain errors shared across the simulation packages.
var (
	// ErrDimensionMismatch indicates mismatched state/action dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrZeroScale indicates a normalization vector with a zero entry.
	ErrZeroScale = errors.New("dynamo: normalization scale must be non-zero")

	// ErrInvalidStep indicates a non-positive discretization step.
	ErrInvalidStep = errors.New("dynamo: time step must be positive")

	// ErrInvalidHorizon indicates a simulation horizon too short to define a trajectory.
	ErrInvalidHorizon = errors.New("dynamo: horizon too short")

	// ErrNegativeTolerance indicates a negative convergence tolerance.
	ErrNegativeTolerance = errors.New("dynamo: tolerance must be non-negative")

	// ErrUnknownParam indicates a parameter name the system does not expose.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")
)
