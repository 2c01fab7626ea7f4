package dynamo

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Normalization is a pair of diagonal scalings such that
// x = diag(State) * x_norm and u = diag(Action) * u_norm.
// A nil *Normalization leaves everything in physical units.
type Normalization struct {
	state, action       []float64
	invState, invAction []float64
}

// NewNormalization copies the scale vectors and precomputes their inverses.
// action may be empty for autonomous systems.
func NewNormalization(state, action []float64) (*Normalization, error) {
	n := &Normalization{
		state:  append([]float64(nil), state...),
		action: append([]float64(nil), action...),
	}
	var err error
	if n.invState, err = invert(state); err != nil {
		return nil, fmt.Errorf("state scale: %w", err)
	}
	if n.invAction, err = invert(action); err != nil {
		return nil, fmt.Errorf("action scale: %w", err)
	}
	return n, nil
}

func invert(v []float64) ([]float64, error) {
	out := make([]float64, len(v))
	for i, x := range v {
		if x == 0 {
			return nil, fmt.Errorf("%w: entry %d", ErrZeroScale, i)
		}
		out[i] = 1 / x
	}
	return out, nil
}

func (n *Normalization) StateScale() []float64  { return append([]float64(nil), n.state...) }
func (n *Normalization) ActionScale() []float64 { return append([]float64(nil), n.action...) }

// Tx returns diag(state scale).
func (n *Normalization) Tx() *mat.Dense { return diag(n.state) }

// TxInv returns diag(1 / state scale).
func (n *Normalization) TxInv() *mat.Dense { return diag(n.invState) }

// Tu returns diag(action scale), or nil when there is no action.
func (n *Normalization) Tu() *mat.Dense { return diag(n.action) }

// Normalize maps physical state and action batches to working units.
// action may be nil.
func (n *Normalization) Normalize(state, action *mat.Dense) (*mat.Dense, *mat.Dense) {
	if n == nil {
		return state, action
	}
	return scaleCols(state, n.invState), scaleCols(action, n.invAction)
}

// Denormalize maps working-unit batches back to physical units.
func (n *Normalization) Denormalize(state, action *mat.Dense) (*mat.Dense, *mat.Dense) {
	if n == nil {
		return state, action
	}
	return scaleCols(state, n.state), scaleCols(action, n.action)
}

func scaleCols(m *mat.Dense, scale []float64) *mat.Dense {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	if c != len(scale) {
		panic(ErrDimensionMismatch)
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 { return v * scale[j] }, m)
	return out
}

func diag(v []float64) *mat.Dense {
	if len(v) == 0 {
		return nil
	}
	out := mat.NewDense(len(v), len(v), nil)
	for i, x := range v {
		out.Set(i, i, x)
	}
	return out
}
