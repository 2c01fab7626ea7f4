// Package linsys holds the linear state-space helpers used to linearize the
// dynamics models: zero-order-hold discretization and the diagonal
// similarity transform into normalized coordinates.
package linsys

import (
	"fmt"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Discretize converts dx/dt = A x + B u into x[k+1] = Ad x[k] + Bd u[k]
// assuming u is held constant over each sampling interval dt.
//
// It exponentiates the augmented matrix
//
//	[A B]
//	[0 0] * dt
//
// so that Ad and Bd are read directly from its top blocks. This stays valid
// when A is singular. A nil B yields a nil Bd.
func Discretize(A, B *mat.Dense, dt float64) (*mat.Dense, *mat.Dense, error) {
	if dt <= 0 {
		return nil, nil, fmt.Errorf("discretize: %w (dt=%g)", dynamo.ErrInvalidStep, dt)
	}
	n, c := A.Dims()
	if n != c {
		return nil, nil, fmt.Errorf("discretize: state matrix is %dx%d: %w", n, c, dynamo.ErrDimensionMismatch)
	}

	m := 0
	if B != nil {
		rb, cb := B.Dims()
		if rb != n {
			return nil, nil, fmt.Errorf("discretize: input matrix has %d rows, want %d: %w", rb, n, dynamo.ErrDimensionMismatch)
		}
		m = cb
	}

	aug := mat.NewDense(n+m, n+m, nil)
	aug.Slice(0, n, 0, n).(*mat.Dense).Scale(dt, A)
	if B != nil {
		aug.Slice(0, n, n, n+m).(*mat.Dense).Scale(dt, B)
	}

	var expM mat.Dense
	expM.Exp(aug)

	Ad := mat.DenseCopyOf(expM.Slice(0, n, 0, n))
	if B == nil {
		return Ad, nil, nil
	}
	return Ad, mat.DenseCopyOf(expM.Slice(0, n, n, n+m)), nil
}

// Transform expresses (A, B) in normalized coordinates:
// A' = Tx⁻¹ A Tx and B' = Tx⁻¹ B Tu. A nil normalization returns copies.
func Transform(A, B *mat.Dense, norm *dynamo.Normalization) (*mat.Dense, *mat.Dense) {
	if norm == nil {
		return mat.DenseCopyOf(A), copyOrNil(B)
	}

	var At mat.Dense
	At.Product(norm.TxInv(), A, norm.Tx())
	if B == nil {
		return &At, nil
	}

	var Bt mat.Dense
	if tu := norm.Tu(); tu != nil {
		Bt.Product(norm.TxInv(), B, tu)
	} else {
		Bt.Mul(norm.TxInv(), B)
	}
	return &At, &Bt
}

func copyOrNil(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	return mat.DenseCopyOf(m)
}
