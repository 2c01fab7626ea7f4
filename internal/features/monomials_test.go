package features

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMonomialsDegreeTwo(t *testing.T) {
	z, err := Monomials(mat.NewDense(1, 2, []float64{1, 2}), 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 1, 2, 4}
	if got := z.RawRowView(0); !floatsEqual(got, want) {
		t.Errorf("Monomials([1 2], 2) = %v, want %v", got, want)
	}
}

func TestMonomialsDegreeFour(t *testing.T) {
	z, err := Monomials(mat.NewDense(1, 2, []float64{2, 3}), 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{
		2, 3,
		4, 6, 9,
		8, 12, 18, 27,
		16, 24, 36, 54, 81,
	}
	if got := z.RawRowView(0); !floatsEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	for d := 1; d <= MaxDegree; d++ {
		z, _ := Monomials(mat.NewDense(3, 2, nil), d)
		if _, c := z.Dims(); c != NumFeatures(d) {
			t.Errorf("degree %d: %d features, want %d", d, c, NumFeatures(d))
		}
	}
}

func TestMonomialJacobianMatchesFiniteDifference(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 2, -0.5, 0.3})
	const h = 1e-6
	for deg := 1; deg <= MaxJacobianDegree; deg++ {
		jacs, err := MonomialJacobian(x, deg)
		if err != nil {
			t.Fatal(err)
		}
		for i, jac := range jacs {
			for j := 0; j < 2; j++ {
				plus := mat.DenseCopyOf(x.Slice(i, i+1, 0, 2))
				minus := mat.DenseCopyOf(plus)
				plus.Set(0, j, plus.At(0, j)+h)
				minus.Set(0, j, minus.At(0, j)-h)
				zp, _ := Monomials(plus, deg)
				zm, _ := Monomials(minus, deg)
				for k := 0; k < NumFeatures(deg); k++ {
					fd := (zp.At(0, k) - zm.At(0, k)) / (2 * h)
					if math.Abs(fd-jac.At(k, j)) > 1e-6 {
						t.Errorf("deg %d row %d: d feature %d / d x%d = %f, want %f", deg, i, k, j, jac.At(k, j), fd)
					}
				}
			}
		}
	}
}

func TestMonomialJacobianAtOneTwo(t *testing.T) {
	jacs, _ := MonomialJacobian(mat.NewDense(1, 2, []float64{1, 2}), 2)
	want := mat.NewDense(5, 2, []float64{
		1, 0,
		0, 1,
		2, 0,
		2, 1,
		0, 4,
	})
	if !mat.Equal(jacs[0], want) {
		t.Errorf("jacobian = %v", mat.Formatted(jacs[0]))
	}
}

func TestUnsupportedDegree(t *testing.T) {
	x := mat.NewDense(1, 2, nil)
	for _, d := range []int{0, 5} {
		if _, err := Monomials(x, d); !errors.Is(err, ErrUnsupportedDegree) {
			t.Errorf("Monomials deg %d: %v", d, err)
		}
	}
	if _, err := MonomialJacobian(x, 4); !errors.Is(err, ErrUnsupportedDegree) {
		t.Errorf("MonomialJacobian deg 4: %v", err)
	}
	if _, err := Monomials(mat.NewDense(1, 3, nil), 2); err == nil {
		t.Error("expected error for 3-D input")
	}
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			return false
		}
	}
	return true
}
