package integrators

import "github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"

// InnerSteps is the number of explicit Euler sub-steps taken per
// discretization interval.
const InnerSteps = 10

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, dt float64) dynamo.State {
	return x.Add(dyn.ODE(x, u).Scale(dt))
}

// Substep advances x by dt using n equal Euler steps with u held constant.
func (e *Euler) Substep(dyn dynamo.System, x dynamo.State, u dynamo.Control, dt float64, n int) dynamo.State {
	h := dt / float64(n)
	for i := 0; i < n; i++ {
		x = e.Step(dyn, x, u, h)
	}
	return x
}
