package physics

import (
	"fmt"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Duffing implements a damped oscillator with cubic stiffness driven by an
// external force. State: [position, velocity], action: [force].
type Duffing struct {
	Mass, KLinear, KNonlinear, Damping float64
}

func NewDuffing(mass, kLinear, kNonlinear, damping float64) *Duffing {
	return &Duffing{Mass: mass, KLinear: kLinear, KNonlinear: kNonlinear, Damping: damping}
}

func (d *Duffing) Name() string { return "duffing" }

func (d *Duffing) Clone() VectorField {
	c := *d
	return &c
}

func (d *Duffing) StateDim() int  { return 2 }
func (d *Duffing) ActionDim() int { return 1 }

func (d *Duffing) ODE(s dynamo.State, u dynamo.Control) dynamo.State {
	x, v := s[0], s[1]
	acc := (-d.Damping*v - d.KLinear*x - d.KNonlinear*x*x*x + action(u, 0)) / d.Mass
	return dynamo.State{v, acc}
}

func (d *Duffing) Jacobian() (*mat.Dense, *mat.Dense) {
	A := mat.NewDense(2, 2, []float64{
		0, 1,
		-d.KLinear / d.Mass, -d.Damping / d.Mass,
	})
	B := mat.NewDense(2, 1, []float64{0, 1 / d.Mass})
	return A, B
}

func (d *Duffing) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	return 0.5*d.Mass*v*v + 0.5*d.KLinear*x*x + 0.25*d.KNonlinear*x*x*x*x
}

func (d *Duffing) GetParams() map[string]float64 {
	return map[string]float64{"mass": d.Mass, "k_linear": d.KLinear, "k_nonlinear": d.KNonlinear, "damping": d.Damping}
}

func (d *Duffing) SetParam(n string, v float64) error {
	switch n {
	case "mass":
		d.Mass = v
	case "k_linear":
		d.KLinear = v
	case "k_nonlinear":
		d.KNonlinear = v
	case "damping":
		d.Damping = v
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, n)
	}
	return nil
}
