// Package grid discretizes a box of states into a regular lattice.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidGrid indicates inconsistent limits or point counts.
var ErrInvalidGrid = errors.New("grid: invalid discretization")

// GridWorld is a regular lattice over the box spanned by limits. Points are
// enumerated with the last dimension varying fastest.
type GridWorld struct {
	limits    [][2]float64
	numPoints []int
	unit      []float64
	offsets   []int
	all       *mat.Dense
}

// New builds a lattice with numPoints[i] points (>= 2) spanning limits[i].
func New(limits [][2]float64, numPoints []int) (*GridWorld, error) {
	if len(limits) == 0 || len(limits) != len(numPoints) {
		return nil, fmt.Errorf("%d limits for %d point counts: %w", len(limits), len(numPoints), ErrInvalidGrid)
	}
	g := &GridWorld{
		limits:    append([][2]float64(nil), limits...),
		numPoints: append([]int(nil), numPoints...),
		unit:      make([]float64, len(limits)),
		offsets:   make([]int, len(limits)),
	}
	for i, lim := range limits {
		if numPoints[i] < 2 {
			return nil, fmt.Errorf("dimension %d has %d points: %w", i, numPoints[i], ErrInvalidGrid)
		}
		if !(lim[1] > lim[0]) {
			return nil, fmt.Errorf("dimension %d has limits [%g, %g]: %w", i, lim[0], lim[1], ErrInvalidGrid)
		}
		g.unit[i] = (lim[1] - lim[0]) / float64(numPoints[i]-1)
	}
	stride := 1
	for i := len(limits) - 1; i >= 0; i-- {
		g.offsets[i] = stride
		stride *= numPoints[i]
	}
	return g, nil
}

// Symmetric builds a lattice over [-l, l] in every dimension.
func Symmetric(half []float64, numPoints []int) (*GridWorld, error) {
	limits := make([][2]float64, len(half))
	for i, l := range half {
		limits[i] = [2]float64{-math.Abs(l), math.Abs(l)}
	}
	return New(limits, numPoints)
}

func (g *GridWorld) Dim() int { return len(g.limits) }

func (g *GridWorld) NumPoints() int {
	n := 1
	for _, p := range g.numPoints {
		n *= p
	}
	return n
}

// Shape returns the number of points per dimension.
func (g *GridWorld) Shape() []int { return append([]int(nil), g.numPoints...) }

func (g *GridWorld) Limits() [][2]float64 { return append([][2]float64(nil), g.limits...) }

// UnitLengths returns the spacing between neighbouring points per dimension.
func (g *GridWorld) UnitLengths() []float64 { return append([]float64(nil), g.unit...) }

// Point returns the state at flat index idx.
func (g *GridWorld) Point(idx int) dynamo.State {
	s := make(dynamo.State, g.Dim())
	for i := range s {
		k := (idx / g.offsets[i]) % g.numPoints[i]
		s[i] = g.limits[i][0] + float64(k)*g.unit[i]
	}
	return s
}

// AllPoints returns every lattice point, one per row. The matrix is built
// once and shared; callers must not modify it.
func (g *GridWorld) AllPoints() *mat.Dense {
	if g.all != nil {
		return g.all
	}
	n, d := g.NumPoints(), g.Dim()
	all := mat.NewDense(n, d, nil)
	for idx := 0; idx < n; idx++ {
		all.SetRow(idx, g.Point(idx))
	}
	g.all = all
	return all
}

// Index returns the flat index of the lattice point nearest to s, clipping
// states outside the box onto its boundary.
func (g *GridWorld) Index(s dynamo.State) (int, error) {
	if len(s) != g.Dim() {
		return 0, fmt.Errorf("state has %d entries, grid has %d: %w", len(s), g.Dim(), dynamo.ErrDimensionMismatch)
	}
	idx := 0
	for i, v := range s {
		k := int(math.Round((v - g.limits[i][0]) / g.unit[i]))
		k = max(0, min(k, g.numPoints[i]-1))
		idx += k * g.offsets[i]
	}
	return idx, nil
}
