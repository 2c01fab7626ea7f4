package lyapunov

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type Activation string

const (
	Tanh   Activation = "tanh"
	ReLU   Activation = "relu"
	Linear Activation = "linear"
)

func ParseActivation(name string) (Activation, error) {
	switch a := Activation(name); a {
	case Tanh, ReLU, Linear:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownActivation, name)
}

func (a Activation) apply(v float64) float64 {
	switch a {
	case Tanh:
		return math.Tanh(v)
	case ReLU:
		return math.Max(0, v)
	}
	return v
}

// PDLayer is a bias-free layer whose kernel [GᵀG + εI; G2] has full column
// rank, so with an activation that vanishes only at zero the layer maps
// non-zero inputs to non-zero outputs.
type PDLayer struct {
	G          *mat.Dense
	G2         *mat.Dense // nil when the layer does not widen
	Eps        float64
	Activation Activation
}

// Kernel returns the (out × in) weight matrix.
func (l *PDLayer) Kernel() *mat.Dense {
	_, in := l.G.Dims()
	var gtg mat.Dense
	gtg.Mul(l.G.T(), l.G)
	for i := 0; i < in; i++ {
		gtg.Set(i, i, gtg.At(i, i)+l.Eps)
	}
	if l.G2 == nil {
		return &gtg
	}
	extra, _ := l.G2.Dims()
	w := mat.NewDense(in+extra, in, nil)
	w.Slice(0, in, 0, in).(*mat.Dense).Copy(&gtg)
	w.Slice(in, in+extra, 0, in).(*mat.Dense).Copy(l.G2)
	return w
}

func (l *PDLayer) Forward(x *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Mul(x, l.Kernel().T())
	out.Apply(func(_, _ int, v float64) float64 { return l.Activation.apply(v) }, &out)
	return &out
}

// DenseLayer is an unconstrained affine layer followed by an activation.
type DenseLayer struct {
	W          *mat.Dense // out × in
	B          []float64
	Activation Activation
}

func (l *DenseLayer) Forward(x *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Mul(x, l.W.T())
	out.Apply(func(_, j int, v float64) float64 { return l.Activation.apply(v + l.B[j]) }, &out)
	return &out
}

func squaredRowNorms(m *mat.Dense) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	for i := range out {
		row := m.RawRowView(i)
		out[i] = mat.Dot(mat.NewVecDense(len(row), row), mat.NewVecDense(len(row), row))
	}
	return out
}
