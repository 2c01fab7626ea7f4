package roa

import (
	"fmt"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Trajectories holds a batch × dim × horizon array as one batch × dim
// matrix per time index.
type Trajectories struct {
	steps []*mat.Dense
}

func newTrajectories(horizon int) *Trajectories {
	return &Trajectories{steps: make([]*mat.Dense, 0, horizon)}
}

func (t *Trajectories) append(m *mat.Dense) {
	t.steps = append(t.steps, mat.DenseCopyOf(m))
}

// Len returns the number of time indices.
func (t *Trajectories) Len() int { return len(t.steps) }

// Dims returns batch size, state dimension and number of time indices.
func (t *Trajectories) Dims() (batch, dim, horizon int) {
	if len(t.steps) == 0 {
		return 0, 0, 0
	}
	batch, dim = t.steps[0].Dims()
	return batch, dim, len(t.steps)
}

// At returns the batch at time index step. The matrix must not be modified.
func (t *Trajectories) At(step int) *mat.Dense {
	return t.steps[step]
}

// Value returns entry (i, j) at time index step.
func (t *Trajectories) Value(i, j, step int) float64 {
	return t.steps[step].At(i, j)
}

// Point returns the trajectory of the i-th initial state.
func (t *Trajectories) Point(i int) []dynamo.State {
	out := make([]dynamo.State, len(t.steps))
	for k, m := range t.steps {
		out[k] = dynamo.Row(m, i)
	}
	return out
}

// Component returns state coordinate j of point i over time.
func (t *Trajectories) Component(i, j int) []float64 {
	out := make([]float64, len(t.steps))
	for k, m := range t.steps {
		out[k] = m.At(i, j)
	}
	return out
}

// Final returns the last batch.
func (t *Trajectories) Final() *mat.Dense {
	if len(t.steps) == 0 {
		return nil
	}
	return t.steps[len(t.steps)-1]
}

// GenerateTrajectories simulates horizon steps of closedLoop from states and
// returns the visited states at t = 0..horizon-1 together with the
// finite-difference velocities (x[t+1]-x[t])/dt at the same indices.
func GenerateTrajectories(states *mat.Dense, closedLoop ClosedLoop, dt float64, horizon int) (*Trajectories, *Trajectories, error) {
	if horizon < 1 {
		return nil, nil, fmt.Errorf("horizon %d: %w", horizon, dynamo.ErrInvalidHorizon)
	}
	if dt <= 0 {
		return nil, nil, fmt.Errorf("dt %g: %w", dt, dynamo.ErrInvalidStep)
	}

	traj := newTrajectories(horizon)
	grad := newTrajectories(horizon)
	x := mat.DenseCopyOf(states)
	for t := 1; t <= horizon; t++ {
		next, err := closedLoop(x)
		if err != nil {
			return nil, nil, fmt.Errorf("step %d: %w", t, err)
		}
		if !sameShape(x, next) {
			return nil, nil, fmt.Errorf("step %d: %w", t, shapeError(x, next))
		}
		var g mat.Dense
		g.Sub(next, x)
		g.Scale(1/dt, &g)

		traj.steps = append(traj.steps, x)
		grad.steps = append(grad.steps, &g)
		x = mat.DenseCopyOf(next)
	}
	return traj, grad, nil
}
