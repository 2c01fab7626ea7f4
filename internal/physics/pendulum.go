package physics

import (
	"fmt"
	"math"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// InvertedPendulum is a point mass on a massless rod, linearized about the
// upright position. State: [angle, angular velocity], action: [torque].
type InvertedPendulum struct {
	Mass     float64
	Length   float64
	Friction float64
	Gravity  float64
}

func NewInvertedPendulum(mass, length, friction float64) *InvertedPendulum {
	return &InvertedPendulum{
		Mass:     mass,
		Length:   length,
		Friction: friction,
		Gravity:  Gravity,
	}
}

func (p *InvertedPendulum) Name() string { return "pendulum" }

func (p *InvertedPendulum) Clone() VectorField {
	c := *p
	return &c
}

func (p *InvertedPendulum) StateDim() int {
	return 2
}

func (p *InvertedPendulum) ActionDim() int {
	return 1
}

// Inertia returns m * L².
func (p *InvertedPendulum) Inertia() float64 {
	return p.Mass * p.Length * p.Length
}

func (p *InvertedPendulum) ODE(x dynamo.State, u dynamo.Control) dynamo.State {
	theta := x[0]
	omega := x[1]

	inertia := p.Inertia()
	alpha := p.Gravity/p.Length*math.Sin(theta) + action(u, 0)/inertia - p.Friction/inertia*omega

	return dynamo.State{omega, alpha}
}

func (p *InvertedPendulum) Jacobian() (*mat.Dense, *mat.Dense) {
	inertia := p.Inertia()
	A := mat.NewDense(2, 2, []float64{
		0, 1,
		p.Gravity / p.Length, -p.Friction / inertia,
	})
	B := mat.NewDense(2, 1, []float64{0, 1 / inertia})
	return A, B
}

// Energy is the mechanical energy measured from the upright position.
func (p *InvertedPendulum) Energy(x dynamo.State) float64 {
	v := p.Length * x[1]
	ke := 0.5 * p.Mass * v * v
	pe := p.Mass * p.Gravity * p.Length * (math.Cos(x[0]) - 1.0)
	return ke + pe
}

func (p *InvertedPendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":     p.Mass,
		"length":   p.Length,
		"friction": p.Friction,
		"gravity":  p.Gravity,
	}
}

func (p *InvertedPendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		p.Mass = value
	case "length":
		p.Length = value
	case "friction":
		p.Friction = value
	case "gravity":
		p.Gravity = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
