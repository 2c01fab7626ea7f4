package dynamo

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

type Control []float64

// System is a time-invariant continuous vector field dx/dt = f(x, u)
// expressed in physical units.
type System interface {
	ODE(x State, u Control) State
	StateDim() int
	ActionDim() int
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Backend carries the numeric execution settings that used to be global
// device/dtype state. Arithmetic is always float64.
type Backend struct {
	Workers int `yaml:"workers"`
}

func DefaultBackend() Backend {
	return Backend{Workers: 4}
}

// Row copies row i of m into a State.
func Row(m mat.Matrix, i int) State {
	_, c := m.Dims()
	s := make(State, c)
	for j := range s {
		s[j] = m.At(i, j)
	}
	return s
}

// FromStates stacks states into a batch matrix, one row per state.
func FromStates(states []State) *mat.Dense {
	if len(states) == 0 {
		return nil
	}
	dim := len(states[0])
	data := make([]float64, 0, len(states)*dim)
	for _, s := range states {
		data = append(data, s[:dim]...)
	}
	return mat.NewDense(len(states), dim, data)
}

// HStack concatenates a and b column-wise. A nil b returns a copy of a.
func HStack(a, b mat.Matrix) *mat.Dense {
	ra, ca := a.Dims()
	if d, ok := b.(*mat.Dense); b == nil || (ok && d == nil) {
		return mat.DenseCopyOf(a)
	}
	rb, cb := b.Dims()
	if ra != rb {
		panic(ErrDimensionMismatch)
	}
	out := mat.NewDense(ra, ca+cb, nil)
	out.Slice(0, ra, 0, ca).(*mat.Dense).Copy(a)
	out.Slice(0, ra, ca, ca+cb).(*mat.Dense).Copy(b)
	return out
}

// SplitCols splits m into its first n columns and the rest. The second
// result is nil when m has exactly n columns.
func SplitCols(m *mat.Dense, n int) (*mat.Dense, *mat.Dense) {
	r, c := m.Dims()
	left := mat.DenseCopyOf(m.Slice(0, r, 0, n))
	if c == n {
		return left, nil
	}
	return left, mat.DenseCopyOf(m.Slice(0, r, n, c))
}

// RowNorms returns the Euclidean norm of every row of m.
func RowNorms(m mat.Matrix) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = Row(m, i).Norm()
	}
	return out
}
