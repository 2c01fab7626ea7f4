package control

import (
	"errors"
	"math"
	"testing"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/physics"
	"gonum.org/v1/gonum/mat"
)

func TestLQRAct(t *testing.T) {
	k := mat.NewDense(1, 2, []float64{2, 3})
	lqr := NewLQR(k, nil)

	u := lqr.Act(mat.NewDense(2, 2, []float64{1, 1, -1, 2}))
	if u.At(0, 0) != -5 || u.At(1, 0) != -4 {
		t.Errorf("unexpected actions %v", mat.Formatted(u))
	}

	target := NewLQR(k, dynamo.State{1, 1})
	u = target.Act(mat.NewDense(1, 2, []float64{1, 1}))
	if u.At(0, 0) != 0 {
		t.Errorf("expected zero action at target, got %f", u.At(0, 0))
	}

	single := Compute(lqr, dynamo.State{1, 0})
	if len(single) != 1 || single[0] != -2 {
		t.Errorf("Compute = %v", single)
	}
}

func TestNone(t *testing.T) {
	n := NewNone(3)
	u := n.Act(mat.NewDense(4, 2, nil))
	if r, c := u.Dims(); r != 4 || c != 3 {
		t.Errorf("dims %dx%d", r, c)
	}
	if NewNone(0).Act(mat.NewDense(1, 2, nil)) != nil {
		t.Error("zero-dimensional policy should return nil")
	}
	if len(Compute(NewNone(0), dynamo.State{1, 2})) != 0 {
		t.Error("expected empty control")
	}
}

func TestDLQRStabilizesPendulum(t *testing.T) {
	model, err := physics.NewModel(physics.NewInvertedPendulum(0.15, 0.5, 0.1), 0.01, nil, dynamo.DefaultBackend())
	if err != nil {
		t.Fatal(err)
	}
	A, B, err := model.Linearize()
	if err != nil {
		t.Fatal(err)
	}
	if SpectralRadius(A) <= 1 {
		t.Fatalf("open loop should be unstable, spectral radius %f", SpectralRadius(A))
	}

	K, P, err := DLQR(A, B, DiagonalWeights([]float64{1, 0.1}, 2), DiagonalWeights(nil, 1))
	if err != nil {
		t.Fatalf("dlqr: %v", err)
	}

	var bk, acl mat.Dense
	bk.Mul(B, K)
	acl.Sub(A, &bk)
	if rho := SpectralRadius(&acl); rho >= 1 {
		t.Errorf("closed loop spectral radius %f, want < 1", rho)
	}
	if !mat.EqualApprox(P, P.T(), 1e-8) {
		t.Error("riccati solution should be symmetric")
	}
}

func TestDLQRScalar(t *testing.T) {
	// x+ = x + u, Q = R = 1: P = (1 + sqrt(5)) / 2, K = P / (1 + P)
	A := mat.NewDense(1, 1, []float64{1})
	B := mat.NewDense(1, 1, []float64{1})
	K, P, err := DLQR(A, B, DiagonalWeights(nil, 1), DiagonalWeights(nil, 1))
	if err != nil {
		t.Fatal(err)
	}
	phi := (1 + math.Sqrt(5)) / 2
	if math.Abs(P.At(0, 0)-phi) > 1e-8 {
		t.Errorf("P = %f, want %f", P.At(0, 0), phi)
	}
	if math.Abs(K.At(0, 0)-phi/(1+phi)) > 1e-8 {
		t.Errorf("K = %f", K.At(0, 0))
	}
}

func TestDLQRErrors(t *testing.T) {
	A := mat.NewDense(2, 2, nil)
	if _, _, err := DLQR(A, nil, DiagonalWeights(nil, 2), DiagonalWeights(nil, 1)); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	B := mat.NewDense(2, 1, []float64{0, 1})
	if _, _, err := DLQR(A, B, DiagonalWeights(nil, 3), DiagonalWeights(nil, 1)); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for Q, got %v", err)
	}
}

func TestClosedLoop(t *testing.T) {
	model, err := physics.NewModel(physics.NewInvertedPendulum(0.15, 0.5, 0.1), 0.01, nil, dynamo.DefaultBackend())
	if err != nil {
		t.Fatal(err)
	}
	step := ClosedLoop(model, NewNone(1))
	x := mat.NewDense(1, 2, []float64{0, 0})
	next, err := step(x)
	if err != nil {
		t.Fatal(err)
	}
	if next.At(0, 0) != 0 || next.At(0, 1) != 0 {
		t.Error("upright equilibrium should be preserved without control")
	}
}

func TestClosedLoopMatchesStep(t *testing.T) {
	tests := []struct {
		name   string
		field  physics.VectorField
		policy Policy
		x      []float64
	}{
		{"lqr pendulum", physics.NewInvertedPendulum(0.15, 0.5, 0.1), NewLQR(mat.NewDense(1, 2, []float64{1.5, 0.4}), nil), []float64{0.2, -0.1, -0.3, 0.05}},
		{"autonomous van der pol", physics.NewVanDerPol(1), NewNone(0), []float64{0.5, 0.5, -1, 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := physics.NewModel(tt.field, 0.01, nil, dynamo.DefaultBackend())
			if err != nil {
				t.Fatal(err)
			}
			x := mat.NewDense(2, 2, tt.x)
			got, err := ClosedLoop(model, tt.policy)(x)
			if err != nil {
				t.Fatal(err)
			}
			want, err := model.Step(x, tt.policy.Act(x))
			if err != nil {
				t.Fatal(err)
			}
			if !mat.EqualApprox(got, want, 1e-12) {
				t.Errorf("closed loop = %v, want %v", mat.Formatted(got), mat.Formatted(want))
			}
		})
	}
}
