package roa

import (
	"fmt"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Points is a read-only collection of initial states, one per row.
type Points interface {
	AllPoints() *mat.Dense
	NumPoints() int
	Dim() int
}

type matrixPoints struct {
	m *mat.Dense
}

// Matrix adapts a raw batch matrix to Points.
func Matrix(m *mat.Dense) Points {
	return matrixPoints{m: m}
}

func (p matrixPoints) AllPoints() *mat.Dense { return p.m }

func (p matrixPoints) NumPoints() int {
	r, _ := p.m.Dims()
	return r
}

func (p matrixPoints) Dim() int {
	_, c := p.m.Dims()
	return c
}

// ClosedLoop maps a batch of states to the batch of next states.
type ClosedLoop func(*mat.Dense) (*mat.Dense, error)

// VectorField maps a batch of states to their time derivatives.
type VectorField func(*mat.Dense) (*mat.Dense, error)

type Options struct {
	// Horizon is the number of time indices, including the initial state.
	Horizon int
	// Tol bounds the terminal distance of a stable point.
	Tol float64
	// Equilibrium defaults to the origin.
	Equilibrium dynamo.State
	// KeepTrajectories stores every visited state in the result.
	KeepTrajectories bool
}

func DefaultOptions() Options {
	return Options{
		Horizon: 100,
		Tol:     1e-3,
	}
}

func (o Options) validate(dim int) error {
	if o.Horizon < 2 {
		return fmt.Errorf("horizon %d: %w", o.Horizon, dynamo.ErrInvalidHorizon)
	}
	if o.Tol < 0 {
		return fmt.Errorf("tol %g: %w", o.Tol, dynamo.ErrNegativeTolerance)
	}
	if o.Equilibrium != nil && len(o.Equilibrium) != dim {
		return fmt.Errorf("equilibrium has %d entries, points have %d: %w", len(o.Equilibrium), dim, dynamo.ErrDimensionMismatch)
	}
	return nil
}

type Result struct {
	Labels []bool
	// Trajectories is nil unless Options.KeepTrajectories was set.
	Trajectories *Trajectories
}

// Fraction returns the share of points labeled stable.
func (r *Result) Fraction() float64 {
	if len(r.Labels) == 0 {
		return 0
	}
	return float64(r.Count()) / float64(len(r.Labels))
}

// Count returns the number of points labeled stable.
func (r *Result) Count() int {
	n := 0
	for _, ok := range r.Labels {
		if ok {
			n++
		}
	}
	return n
}

// Compute labels each point stable when the state reached after
// Horizon-1 applications of closedLoop lies within Tol of the equilibrium.
func Compute(points Points, closedLoop ClosedLoop, opts Options) (*Result, error) {
	sim, err := simulate(points, closedLoop, opts)
	if err != nil {
		return nil, err
	}
	eq := opts.Equilibrium
	if eq == nil {
		eq = make(dynamo.State, points.Dim())
	}
	return &Result{
		Labels:       labelWithin(sim.last, func(int) dynamo.State { return eq }, opts.Tol),
		Trajectories: sim.traj,
	}, nil
}

// ComputeSteadyState labels each point stable when its last two states lie
// within Tol of each other. This detects arrival at any fixed point, not
// necessarily the equilibrium, so slowly converging points may be labeled
// unstable and slow oscillations near a fixed point may be labeled stable.
// Opts.Equilibrium is ignored.
func ComputeSteadyState(points Points, closedLoop ClosedLoop, opts Options) (*Result, error) {
	sim, err := simulate(points, closedLoop, opts)
	if err != nil {
		return nil, err
	}
	return &Result{
		Labels:       labelWithin(sim.last, func(i int) dynamo.State { return dynamo.Row(sim.prev, i) }, opts.Tol),
		Trajectories: sim.traj,
	}, nil
}

// ComputeContinuous is Compute for a continuous-time closed loop: every step
// is the explicit Euler update x + dt*f(x).
func ComputeContinuous(points Points, field VectorField, dt float64, opts Options) (*Result, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dt %g: %w", dt, dynamo.ErrInvalidStep)
	}
	return Compute(points, EulerStep(field, dt), opts)
}

// EulerStep turns a vector field into the discrete map x -> x + dt*f(x).
func EulerStep(field VectorField, dt float64) ClosedLoop {
	return func(x *mat.Dense) (*mat.Dense, error) {
		dx, err := field(x)
		if err != nil {
			return nil, err
		}
		if !sameShape(x, dx) {
			return nil, shapeError(x, dx)
		}
		var next mat.Dense
		next.Scale(dt, dx)
		next.Add(&next, x)
		return &next, nil
	}
}

type simulation struct {
	prev, last *mat.Dense
	traj       *Trajectories
}

func simulate(points Points, closedLoop ClosedLoop, opts Options) (*simulation, error) {
	if err := opts.validate(points.Dim()); err != nil {
		return nil, err
	}
	x := mat.DenseCopyOf(points.AllPoints())

	var traj *Trajectories
	if opts.KeepTrajectories {
		traj = newTrajectories(opts.Horizon)
		traj.append(x)
	}

	var prev *mat.Dense
	for t := 1; t < opts.Horizon; t++ {
		next, err := closedLoop(x)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}
		if !sameShape(x, next) {
			return nil, fmt.Errorf("step %d: %w", t, shapeError(x, next))
		}
		if traj != nil {
			traj.append(next)
		}
		prev, x = x, next
	}
	return &simulation{prev: prev, last: x, traj: traj}, nil
}

func labelWithin(end *mat.Dense, ref func(i int) dynamo.State, tol float64) []bool {
	n, c := end.Dims()
	if n == 0 {
		return nil
	}
	diff := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		diff.SetRow(i, dynamo.Row(end, i).Sub(ref(i)))
	}
	norms := dynamo.RowNorms(diff)
	labels := make([]bool, n)
	for i, d := range norms {
		labels[i] = d <= tol
	}
	return labels
}

func sameShape(a, b mat.Matrix) bool {
	if b == nil {
		return false
	}
	if d, ok := b.(*mat.Dense); ok && d == nil {
		return false
	}
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	return ra == rb && ca == cb
}

func shapeError(in, out mat.Matrix) error {
	ri, ci := in.Dims()
	if d, ok := out.(*mat.Dense); out == nil || (ok && d == nil) {
		return fmt.Errorf("closed loop returned nothing for %dx%d input: %w", ri, ci, dynamo.ErrDimensionMismatch)
	}
	ro, co := out.Dims()
	return fmt.Errorf("closed loop mapped %dx%d to %dx%d: %w", ri, ci, ro, co, dynamo.ErrDimensionMismatch)
}
