package dynamo

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}
}

func TestHStackSplitCols(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	u := mat.NewDense(2, 1, []float64{5, 6})

	xu := HStack(x, u)
	if r, c := xu.Dims(); r != 2 || c != 3 {
		t.Fatalf("HStack dims = %dx%d, want 2x3", r, c)
	}
	if xu.At(1, 2) != 6 {
		t.Errorf("HStack(1,2) = %v, want 6", xu.At(1, 2))
	}

	left, right := SplitCols(xu, 2)
	if !mat.Equal(left, x) || !mat.Equal(right, u) {
		t.Errorf("SplitCols did not invert HStack: %v %v", mat.Formatted(left), mat.Formatted(right))
	}

	left, right = SplitCols(x, 2)
	if right != nil {
		t.Error("expected nil remainder when splitting at full width")
	}
	if !mat.Equal(left, x) {
		t.Error("expected copy of the input")
	}
}

func TestFromStatesAndRow(t *testing.T) {
	m := FromStates([]State{{1, 2}, {3, 4}, {5, 6}})
	if r, c := m.Dims(); r != 3 || c != 2 {
		t.Fatalf("dims = %dx%d, want 3x2", r, c)
	}
	row := Row(m, 2)
	if row[0] != 5 || row[1] != 6 {
		t.Errorf("Row(2) = %v", row)
	}
	norms := RowNorms(mat.NewDense(2, 2, []float64{3, 4, 0, 0}))
	if norms[0] != 5 || norms[1] != 0 {
		t.Errorf("RowNorms = %v", norms)
	}
}
