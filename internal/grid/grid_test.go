package grid

import (
	"errors"
	"math"
	"testing"
)

func TestGridWorldPoints(t *testing.T) {
	g, err := New([][2]float64{{-1, 1}, {0, 2}}, []int{3, 5})
	if err != nil {
		t.Fatal(err)
	}
	if g.NumPoints() != 15 || g.Dim() != 2 {
		t.Fatalf("got %d points in %d dims", g.NumPoints(), g.Dim())
	}

	all := g.AllPoints()
	if r, c := all.Dims(); r != 15 || c != 2 {
		t.Fatalf("AllPoints dims = %dx%d", r, c)
	}
	// last dimension varies fastest
	if all.At(0, 0) != -1 || all.At(0, 1) != 0 || all.At(1, 1) != 0.5 || all.At(5, 0) != 0 {
		t.Errorf("unexpected ordering: first rows %v %v, row 5 %v", all.RawRowView(0), all.RawRowView(1), all.RawRowView(5))
	}
	if last := all.RawRowView(14); last[0] != 1 || last[1] != 2 {
		t.Errorf("last point = %v, want [1 2]", last)
	}

	u := g.UnitLengths()
	if math.Abs(u[0]-1) > 1e-12 || math.Abs(u[1]-0.5) > 1e-12 {
		t.Errorf("unit lengths = %v", u)
	}
}

func TestGridWorldIndex(t *testing.T) {
	g, _ := Symmetric([]float64{1, 1}, []int{11, 11})
	for _, idx := range []int{0, 7, 60, 120} {
		got, err := g.Index(g.Point(idx))
		if err != nil {
			t.Fatal(err)
		}
		if got != idx {
			t.Errorf("Index(Point(%d)) = %d", idx, got)
		}
	}
	if idx, _ := g.Index([]float64{5, 5}); idx != 120 {
		t.Errorf("clipped index = %d, want 120", idx)
	}
}

func TestGridWorldValidation(t *testing.T) {
	tests := []struct {
		name   string
		limits [][2]float64
		points []int
	}{
		{"empty", nil, nil},
		{"length mismatch", [][2]float64{{0, 1}}, []int{2, 2}},
		{"too few points", [][2]float64{{0, 1}}, []int{1}},
		{"reversed limits", [][2]float64{{1, 0}}, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.limits, tt.points); !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}
}
