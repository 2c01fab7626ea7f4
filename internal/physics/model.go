package physics

import (
	"fmt"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/integrators"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/linsys"
	"gonum.org/v1/gonum/mat"
)

// minRowsPerWorker keeps tiny batches on the calling goroutine.
const minRowsPerWorker = 64

// Model is the discrete-time, optionally normalized view of a vector field.
// It is immutable once constructed and safe for concurrent use.
type Model struct {
	field   VectorField
	dt      float64
	norm    *dynamo.Normalization
	backend dynamo.Backend
	euler   *integrators.Euler
}

// NewModel wraps a copy of field with sampling time dt. norm may be nil;
// otherwise its scale vectors must match the field's state and action
// dimensions.
func NewModel(field VectorField, dt float64, norm *dynamo.Normalization, backend dynamo.Backend) (*Model, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("%s: %w (dt=%g)", field.Name(), dynamo.ErrInvalidStep, dt)
	}
	if norm != nil {
		if len(norm.StateScale()) != field.StateDim() || len(norm.ActionScale()) != field.ActionDim() {
			return nil, fmt.Errorf("%s: normalization is (%d, %d), system is (%d, %d): %w",
				field.Name(), len(norm.StateScale()), len(norm.ActionScale()),
				field.StateDim(), field.ActionDim(), dynamo.ErrDimensionMismatch)
		}
	}
	return &Model{
		field:   field.Clone(),
		dt:      dt,
		norm:    norm,
		backend: backend,
		euler:   integrators.NewEuler(),
	}, nil
}

func (m *Model) Name() string                         { return m.field.Name() }
func (m *Model) Field() VectorField                   { return m.field.Clone() }
func (m *Model) Dt() float64                          { return m.dt }
func (m *Model) Normalization() *dynamo.Normalization { return m.norm }
func (m *Model) StateDim() int                        { return m.field.StateDim() }
func (m *Model) ActionDim() int                       { return m.field.ActionDim() }

// Normalize maps physical batches to working units. action may be nil.
func (m *Model) Normalize(state, action *mat.Dense) (*mat.Dense, *mat.Dense) {
	return m.norm.Normalize(state, action)
}

// Denormalize maps working-unit batches to physical units. action may be nil.
func (m *Model) Denormalize(state, action *mat.Dense) (*mat.Dense, *mat.Dense) {
	return m.norm.Denormalize(state, action)
}

// ODE evaluates the physical vector field row by row on unnormalized batches.
func (m *Model) ODE(state, action *mat.Dense) (*mat.Dense, error) {
	if err := m.checkDims(state, action); err != nil {
		return nil, err
	}
	return m.mapRows(state, action, func(x dynamo.State, u dynamo.Control) dynamo.State {
		return m.field.ODE(x, u)
	}), nil
}

// ODENormalized evaluates the vector field on normalized inputs and returns
// the derivative in normalized state units.
func (m *Model) ODENormalized(state, action *mat.Dense) (*mat.Dense, error) {
	if err := m.checkDims(state, action); err != nil {
		return nil, err
	}
	x, u := m.Denormalize(state, action)
	dx, err := m.ODE(x, u)
	if err != nil {
		return nil, err
	}
	dxn, _ := m.Normalize(dx, nil)
	return dxn, nil
}

// Step advances normalized states by one sampling interval under the
// normalized actions, using integrators.InnerSteps Euler sub-steps.
func (m *Model) Step(state, action *mat.Dense) (*mat.Dense, error) {
	if err := m.checkDims(state, action); err != nil {
		return nil, err
	}
	x, u := m.Denormalize(state, action)
	next := m.mapRows(x, u, func(x dynamo.State, u dynamo.Control) dynamo.State {
		return m.euler.Substep(m.field, x, u, m.dt, integrators.InnerSteps)
	})
	out, _ := m.Normalize(next, nil)
	return out, nil
}

// Eval is Step on the column-wise concatenation [state, action].
func (m *Model) Eval(stateAction *mat.Dense) (*mat.Dense, error) {
	_, c := stateAction.Dims()
	if c != m.StateDim()+m.ActionDim() {
		return nil, fmt.Errorf("%s: input has %d columns, want %d: %w",
			m.Name(), c, m.StateDim()+m.ActionDim(), dynamo.ErrDimensionMismatch)
	}
	state, action := dynamo.SplitCols(stateAction, m.StateDim())
	return m.Step(state, action)
}

// LinearizeCT returns the continuous-time linearization about the origin,
// expressed in normalized coordinates when a normalization is configured.
func (m *Model) LinearizeCT() (*mat.Dense, *mat.Dense) {
	A, B := m.field.Jacobian()
	return linsys.Transform(A, B, m.norm)
}

// Linearize returns the zero-order-hold discretization of LinearizeCT with
// the model's sampling time.
func (m *Model) Linearize() (*mat.Dense, *mat.Dense, error) {
	A, B := m.LinearizeCT()
	return linsys.Discretize(A, B, m.dt)
}

func (m *Model) checkDims(state, action *mat.Dense) error {
	r, c := state.Dims()
	if c != m.StateDim() {
		return fmt.Errorf("%s: state has %d columns, want %d: %w", m.Name(), c, m.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if action == nil {
		if m.ActionDim() != 0 {
			return fmt.Errorf("%s: missing action batch: %w", m.Name(), dynamo.ErrDimensionMismatch)
		}
		return nil
	}
	ra, ca := action.Dims()
	if ra != r || ca != m.ActionDim() {
		return fmt.Errorf("%s: action is %dx%d, want %dx%d: %w", m.Name(), ra, ca, r, m.ActionDim(), dynamo.ErrDimensionMismatch)
	}
	return nil
}

func (m *Model) mapRows(state, action *mat.Dense, fn func(dynamo.State, dynamo.Control) dynamo.State) *mat.Dense {
	r, c := state.Dims()
	out := mat.NewDense(r, c, nil)
	dynamo.ParallelFor(r, m.backend.Workers, minRowsPerWorker, func(start, end int) {
		for i := start; i < end; i++ {
			var u dynamo.Control
			if action != nil {
				u = dynamo.Control(dynamo.Row(action, i))
			}
			out.SetRow(i, fn(dynamo.Row(state, i), u))
		}
	})
	return out
}
