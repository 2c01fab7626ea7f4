package physics

import (
	"fmt"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// VanDerPol implements the Van der Pol oscillator in reverse time, which
// turns the limit cycle into the boundary of the origin's region of
// attraction.
// State: [x, y]
// Equations:
//
//	dx/dt = -y
//	dy/dt = x + μ(x² - 1)y
type VanDerPol struct {
	Damping float64 // μ
}

func NewVanDerPol(damping float64) *VanDerPol {
	return &VanDerPol{Damping: damping}
}

func (v *VanDerPol) Name() string { return "van_der_pol" }

func (v *VanDerPol) Clone() VectorField {
	c := *v
	return &c
}

func (v *VanDerPol) StateDim() int  { return 2 }
func (v *VanDerPol) ActionDim() int { return 0 }

func (v *VanDerPol) ODE(state dynamo.State, _ dynamo.Control) dynamo.State {
	x, y := state[0], state[1]

	dx := -y
	dy := x + v.Damping*(x*x-1)*y

	return dynamo.State{dx, dy}
}

func (v *VanDerPol) Jacobian() (*mat.Dense, *mat.Dense) {
	return mat.NewDense(2, 2, []float64{0, -1, 1, -v.Damping}), nil
}

// GetParams implements dynamo.Configurable
func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{
		"damping": v.Damping,
	}
}

// SetParam implements dynamo.Configurable
func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "damping" {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	v.Damping = value
	return nil
}
