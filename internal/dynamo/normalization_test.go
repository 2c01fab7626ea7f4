package dynamo

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNormalizationRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		state  []float64
		action []float64
	}{
		{"pendulum", []float64{3.14, 8.0}, []float64{2.5}},
		{"cartpole", []float64{10, 3.14, 5, 6}, []float64{20}},
		{"euler", []float64{1, 2, 3}, []float64{0.5, 0.25, 4}},
		{"negative", []float64{-2, 0.1}, []float64{-1}},
		{"autonomous", []float64{2, 3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNormalization(tt.state, tt.action)
			if err != nil {
				t.Fatalf("NewNormalization: %v", err)
			}

			dim := len(tt.state)
			x := mat.NewDense(3, dim, nil)
			x.Apply(func(i, j int, _ float64) float64 { return float64(i+1) * 0.7 * float64(j-1) }, x)

			var u *mat.Dense
			if len(tt.action) > 0 {
				u = mat.NewDense(3, len(tt.action), nil)
				u.Apply(func(i, j int, _ float64) float64 { return float64(i) - 0.3*float64(j) }, u)
			}

			xn, un := n.Normalize(x, u)
			xb, ub := n.Denormalize(xn, un)
			if !mat.EqualApprox(xb, x, 1e-12) {
				t.Errorf("denormalize(normalize(x)) != x")
			}
			if u != nil && !mat.EqualApprox(ub, u, 1e-12) {
				t.Errorf("denormalize(normalize(u)) != u")
			}

			xd, ud := n.Denormalize(x, u)
			xf, uf := n.Normalize(xd, ud)
			if !mat.EqualApprox(xf, x, 1e-12) {
				t.Errorf("normalize(denormalize(x)) != x")
			}
			if u != nil && !mat.EqualApprox(uf, u, 1e-12) {
				t.Errorf("normalize(denormalize(u)) != u")
			}
		})
	}
}

func TestNormalizationNilIsIdentity(t *testing.T) {
	var n *Normalization
	x := mat.NewDense(1, 2, []float64{1, 2})
	xn, un := n.Normalize(x, nil)
	if xn != x || un != nil {
		t.Error("nil normalization should pass inputs through")
	}
}

func TestNormalizationZeroScale(t *testing.T) {
	if _, err := NewNormalization([]float64{1, 0}, []float64{1}); !errors.Is(err, ErrZeroScale) {
		t.Errorf("expected ErrZeroScale for state, got %v", err)
	}
	if _, err := NewNormalization([]float64{1, 1}, []float64{0}); !errors.Is(err, ErrZeroScale) {
		t.Errorf("expected ErrZeroScale for action, got %v", err)
	}
}

func TestNormalizationImmutable(t *testing.T) {
	scale := []float64{2, 4}
	n, err := NewNormalization(scale, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	scale[0] = 100
	if n.StateScale()[0] != 2 {
		t.Error("normalization should copy its scale vectors")
	}
	if n.TxInv().At(1, 1) != 0.25 {
		t.Errorf("TxInv(1,1) = %v, want 0.25", n.TxInv().At(1, 1))
	}
}
