// Package features expands planar states into polynomial features.
package features

import (
	"errors"
	"fmt"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// ErrUnsupportedDegree indicates a polynomial degree outside the supported range.
var ErrUnsupportedDegree = errors.New("features: unsupported monomial degree")

const (
	MaxDegree         = 4
	MaxJacobianDegree = 3
)

// monomial is x^px * y^py.
type monomial struct{ px, py int }

// ordered by degree, then by decreasing power of x
func basis(deg int) []monomial {
	var out []monomial
	for d := 1; d <= deg; d++ {
		for py := 0; py <= d; py++ {
			out = append(out, monomial{px: d - py, py: py})
		}
	}
	return out
}

// NumFeatures returns the number of monomials of degree 1..deg in two variables.
func NumFeatures(deg int) int {
	return deg*(deg+3)/2
}

func pow(v float64, n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= v
	}
	return r
}

func checkInput(x *mat.Dense) error {
	if _, c := x.Dims(); c != 2 {
		return fmt.Errorf("monomials need 2 columns, got %d: %w", c, dynamo.ErrDimensionMismatch)
	}
	return nil
}

// Monomials maps every row [x, y] to [x, y, x², xy, y², x³, x²y, ...] up to
// degree deg (1..4).
func Monomials(x *mat.Dense, deg int) (*mat.Dense, error) {
	if deg < 1 || deg > MaxDegree {
		return nil, fmt.Errorf("degree %d: %w", deg, ErrUnsupportedDegree)
	}
	if err := checkInput(x); err != nil {
		return nil, err
	}
	terms := basis(deg)
	r, _ := x.Dims()
	out := mat.NewDense(r, len(terms), nil)
	for i := 0; i < r; i++ {
		a, b := x.At(i, 0), x.At(i, 1)
		for k, m := range terms {
			out.Set(i, k, pow(a, m.px)*pow(b, m.py))
		}
	}
	return out, nil
}

// MonomialJacobian returns, for every row, the (features × 2) matrix of
// partial derivatives of Monomials(x, deg) with deg in 1..3.
func MonomialJacobian(x *mat.Dense, deg int) ([]*mat.Dense, error) {
	if deg < 1 || deg > MaxJacobianDegree {
		return nil, fmt.Errorf("jacobian degree %d: %w", deg, ErrUnsupportedDegree)
	}
	if err := checkInput(x); err != nil {
		return nil, err
	}
	terms := basis(deg)
	r, _ := x.Dims()
	out := make([]*mat.Dense, r)
	for i := range out {
		a, b := x.At(i, 0), x.At(i, 1)
		jac := mat.NewDense(len(terms), 2, nil)
		for k, m := range terms {
			if m.px > 0 {
				jac.Set(k, 0, float64(m.px)*pow(a, m.px-1)*pow(b, m.py))
			}
			if m.py > 0 {
				jac.Set(k, 1, float64(m.py)*pow(a, m.px)*pow(b, m.py-1))
			}
		}
		out[i] = jac
	}
	return out, nil
}
