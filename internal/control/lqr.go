package control

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrRiccatiDiverged indicates the discrete Riccati iteration did not converge.
	ErrRiccatiDiverged = errors.New("control: riccati iteration did not converge")

	// ErrSingular indicates R + BᵀPB could not be inverted.
	ErrSingular = errors.New("control: singular input weighting")
)

const (
	riccatiMaxIter = 100000
	riccatiTol     = 1e-10
)

type LQR struct {
	K      *mat.Dense
	Target dynamo.State
}

// NewLQR builds u = -K (x - target). A nil target is the origin.
func NewLQR(k *mat.Dense, target dynamo.State) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) ActionDim() int {
	r, _ := l.K.Dims()
	return r
}

func (l *LQR) Act(states *mat.Dense) *mat.Dense {
	x := states
	if len(l.Target) > 0 {
		e := mat.DenseCopyOf(states)
		e.Apply(func(_, j int, v float64) float64 { return v - l.Target[j] }, e)
		x = e
	}
	var u mat.Dense
	u.Mul(x, l.K.T())
	u.Scale(-1, &u)
	return &u
}

// DLQR solves the discrete-time algebraic Riccati equation
//
//	P = Q + AᵀPA - AᵀPB (R + BᵀPB)⁻¹ BᵀPA
//
// by fixed-point iteration and returns the optimal gain
// K = (R + BᵀPB)⁻¹ BᵀPA together with P.
func DLQR(A, B, Q, R *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	if B == nil {
		return nil, nil, fmt.Errorf("dlqr: system has no inputs: %w", dynamo.ErrDimensionMismatch)
	}
	n, _ := A.Dims()
	rb, m := B.Dims()
	if rq, cq := Q.Dims(); rq != n || cq != n || rb != n {
		return nil, nil, fmt.Errorf("dlqr: Q is %dx%d, B has %d rows, want %d: %w", rq, cq, rb, n, dynamo.ErrDimensionMismatch)
	}
	if rr, cr := R.Dims(); rr != m || cr != m {
		return nil, nil, fmt.Errorf("dlqr: R is %dx%d, want %dx%d: %w", rr, cr, m, m, dynamo.ErrDimensionMismatch)
	}

	P := mat.DenseCopyOf(Q)
	K := mat.NewDense(m, n, nil)
	for iter := 0; iter < riccatiMaxIter; iter++ {
		var err error
		K, err = gain(A, B, R, P)
		if err != nil {
			return nil, nil, err
		}

		// P' = Q + Aᵀ P (A - B K)
		var bk, acl, next mat.Dense
		bk.Mul(B, K)
		acl.Sub(A, &bk)
		next.Product(A.T(), P, &acl)
		next.Add(&next, Q)

		var diff mat.Dense
		diff.Sub(&next, P)
		delta := mat.Norm(&diff, 1)
		P = &next
		if delta <= riccatiTol*(1+mat.Norm(P, 1)) {
			K, err = gain(A, B, R, P)
			if err != nil {
				return nil, nil, err
			}
			return K, P, nil
		}
	}
	return nil, nil, ErrRiccatiDiverged
}

func gain(A, B, R, P *mat.Dense) (*mat.Dense, error) {
	var btp, s, btpa, inv mat.Dense
	btp.Mul(B.T(), P)
	s.Mul(&btp, B)
	s.Add(&s, R)
	btpa.Mul(&btp, A)
	if err := inv.Inverse(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	var k mat.Dense
	k.Mul(&inv, &btpa)
	return &k, nil
}

// DiagonalWeights builds diag(w), defaulting to the identity of size n when
// w is empty.
func DiagonalWeights(w []float64, n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		v := 1.0
		if i < len(w) {
			v = w[i]
		}
		out.Set(i, i, v)
	}
	return out
}

// SpectralRadius returns the largest eigenvalue magnitude of A.
func SpectralRadius(A mat.Matrix) float64 {
	var eig mat.Eigen
	if !eig.Factorize(A, mat.EigenNone) {
		return 0
	}
	rho := 0.0
	for _, v := range eig.Values(nil) {
		if a := cmplx.Abs(v); a > rho {
			rho = a
		}
	}
	return rho
}
