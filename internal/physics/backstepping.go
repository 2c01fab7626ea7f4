package physics

import (
	"fmt"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Backstepping3D is a third-order strict-feedback system:
//
//	dx1/dt = a x2
//	dx2/dt = b x3
//	dx3/dt = c x1² + d u
type Backstepping3D struct {
	A, B, C, D float64
}

func NewBackstepping3D(a, b, c, d float64) *Backstepping3D {
	return &Backstepping3D{A: a, B: b, C: c, D: d}
}

func (s *Backstepping3D) Name() string { return "backstepping_3d" }

func (s *Backstepping3D) Clone() VectorField {
	c := *s
	return &c
}

func (s *Backstepping3D) StateDim() int  { return 3 }
func (s *Backstepping3D) ActionDim() int { return 1 }

func (s *Backstepping3D) ODE(x dynamo.State, u dynamo.Control) dynamo.State {
	return dynamo.State{
		s.A * x[1],
		s.B * x[2],
		s.C*x[0]*x[0] + s.D*action(u, 0),
	}
}

// Jacobian about the origin, where the quadratic term has zero slope.
func (s *Backstepping3D) Jacobian() (*mat.Dense, *mat.Dense) {
	A := mat.NewDense(3, 3, []float64{
		0, s.A, 0,
		0, 0, s.B,
		0, 0, 0,
	})
	B := mat.NewDense(3, 1, []float64{0, 0, s.D})
	return A, B
}

func (s *Backstepping3D) GetParams() map[string]float64 {
	return map[string]float64{"a": s.A, "b": s.B, "c": s.C, "d": s.D}
}

func (s *Backstepping3D) SetParam(n string, v float64) error {
	switch n {
	case "a":
		s.A = v
	case "b":
		s.B = v
	case "c":
		s.C = v
	case "d":
		s.D = v
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, n)
	}
	return nil
}
