package physics

import (
	"fmt"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// EulerRigidBody integrates Euler's rotation equations for a rigid body with
// principal moments of inertia J1, J2, J3 and a torque on every axis.
// State: [ω1, ω2, ω3], action: [τ1, τ2, τ3].
type EulerRigidBody struct {
	J1, J2, J3 float64
}

func NewEulerRigidBody(j1, j2, j3 float64) *EulerRigidBody {
	return &EulerRigidBody{J1: j1, J2: j2, J3: j3}
}

func (e *EulerRigidBody) Name() string { return "euler_equation_3d" }

func (e *EulerRigidBody) Clone() VectorField {
	c := *e
	return &c
}

func (e *EulerRigidBody) StateDim() int  { return 3 }
func (e *EulerRigidBody) ActionDim() int { return 3 }

func (e *EulerRigidBody) ODE(s dynamo.State, u dynamo.Control) dynamo.State {
	w1, w2, w3 := s[0], s[1], s[2]
	dW1 := (e.J2-e.J3)/e.J1*w2*w3 + action(u, 0)/e.J1
	dW2 := (e.J3-e.J1)/e.J2*w3*w1 + action(u, 1)/e.J2
	dW3 := (e.J1-e.J2)/e.J3*w1*w2 + action(u, 2)/e.J3
	return dynamo.State{dW1, dW2, dW3}
}

// Jacobian: the gyroscopic terms are bilinear, so A vanishes at rest.
func (e *EulerRigidBody) Jacobian() (*mat.Dense, *mat.Dense) {
	A := mat.NewDense(3, 3, nil)
	B := mat.NewDiagDense(3, []float64{1 / e.J1, 1 / e.J2, 1 / e.J3})
	return A, mat.DenseCopyOf(B)
}

// Energy is the rotational kinetic energy.
func (e *EulerRigidBody) Energy(s dynamo.State) float64 {
	w1, w2, w3 := s[0], s[1], s[2]
	return 0.5 * (e.J1*w1*w1 + e.J2*w2*w2 + e.J3*w3*w3)
}

func (e *EulerRigidBody) GetParams() map[string]float64 {
	return map[string]float64{"J1": e.J1, "J2": e.J2, "J3": e.J3}
}

func (e *EulerRigidBody) SetParam(n string, v float64) error {
	switch n {
	case "J1":
		e.J1 = v
	case "J2":
		e.J2 = v
	case "J3":
		e.J3 = v
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, n)
	}
	return nil
}
