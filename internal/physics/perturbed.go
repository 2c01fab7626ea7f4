package physics

import (
	"fmt"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Perturbed is an autonomous planar polynomial system whose region of
// attraction shrinks and shifts with the constant offset Delta:
//
//	dx1/dt = -x2 - 3/2 x1² - 1/2 x1³ + δ
//	dx2/dt = 3 x1 - x2 - x2²
//
// The origin is an equilibrium only for δ = 0.
type Perturbed struct {
	Delta float64
}

func NewPerturbed(delta float64) *Perturbed {
	return &Perturbed{Delta: delta}
}

func (p *Perturbed) Name() string { return "perturbed" }

func (p *Perturbed) Clone() VectorField {
	c := *p
	return &c
}

func (p *Perturbed) StateDim() int  { return 2 }
func (p *Perturbed) ActionDim() int { return 0 }

func (p *Perturbed) ODE(x dynamo.State, _ dynamo.Control) dynamo.State {
	x1, x2 := x[0], x[1]
	return dynamo.State{
		-x2 - 1.5*x1*x1 - 0.5*x1*x1*x1 + p.Delta,
		3*x1 - x2 - x2*x2,
	}
}

func (p *Perturbed) Jacobian() (*mat.Dense, *mat.Dense) {
	return mat.NewDense(2, 2, []float64{0, -1, 3, -1}), nil
}

func (p *Perturbed) GetParams() map[string]float64 {
	return map[string]float64{"delta": p.Delta}
}

func (p *Perturbed) SetParam(name string, value float64) error {
	if name != "delta" {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	p.Delta = value
	return nil
}
