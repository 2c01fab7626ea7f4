package lyapunov

import (
	"fmt"
	"math"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/roa"
	"gonum.org/v1/gonum/mat"
)

// Decreasing reports, for every row of x, whether V(f(x)) < V(x) under one
// step of closedLoop.
func Decreasing(v Evaluator, closedLoop roa.ClosedLoop, x *mat.Dense) ([]bool, error) {
	next, err := closedLoop(x)
	if err != nil {
		return nil, err
	}
	r, c := x.Dims()
	if next == nil {
		return nil, fmt.Errorf("closed loop returned nothing: %w", dynamo.ErrDimensionMismatch)
	}
	if rn, cn := next.Dims(); rn != r || cn != c {
		return nil, fmt.Errorf("closed loop mapped %dx%d to %dx%d: %w", r, c, rn, cn, dynamo.ErrDimensionMismatch)
	}
	before := v.Eval(x)
	after := v.Eval(next)
	out := make([]bool, r)
	for i := range out {
		out[i] = after[i] < before[i]
	}
	return out, nil
}

// InnerLevel returns the largest c such that every point with V < c is
// labeled stable: the smallest value of V over the unstable points. It is
// +Inf when every point is stable.
func InnerLevel(values []float64, labels []bool) float64 {
	c := math.Inf(1)
	for i, ok := range labels {
		if !ok && values[i] < c {
			c = values[i]
		}
	}
	return c
}

// Sublevel labels the points with V(x) < c.
func Sublevel(values []float64, c float64) []bool {
	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = v < c
	}
	return out
}
