package physics

import (
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Gravity is the default gravitational acceleration in m/s².
const Gravity = 9.81

// VectorField is a closed-form physical model.
type VectorField interface {
	dynamo.System
	dynamo.Configurable

	// Name is the system tag used by configuration files.
	Name() string

	// Clone returns an independent copy with the same parameters.
	Clone() VectorField

	// Jacobian returns the continuous-time linearization (A, B) about the
	// origin in physical units. B is nil when ActionDim is zero.
	Jacobian() (A, B *mat.Dense)
}

func action(u dynamo.Control, i int) float64 {
	if i < len(u) {
		return u[i]
	}
	return 0
}
