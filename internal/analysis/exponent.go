package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/roa"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidPerturbation = errors.New("analysis: perturbation must be positive")
	ErrDiverged            = errors.New("analysis: trajectory diverged")
)

// Exponent estimates the largest Lyapunov exponent of a closed-loop map
// started at x0 by trajectory separation. A neighbour is kept at relative
// distance d0 from the reference trajectory and renormalized after every
// step:
//
//	λ ≈ 1/(steps·dt) · Σ ln(|δx_k| / |δx_{k-1}|)
//
// where |δx_{k-1}| = d0·max(1, |x_{k-1}|). A negative value means nearby
// trajectories contract.
// Spectrum perturbs each state dimension separately and returns one
// separation rate per dimension.
func Spectrum(closedLoop roa.ClosedLoop, x0 dynamo.State, dt float64, steps int, d0 float64) ([]float64, error) {
	return separation(closedLoop, x0, dt, steps, d0, len(x0))
}

// separation propagates the reference point and k neighbours as one batch.
// Row 0 is the reference, row i+1 starts displaced by d0 along axis i.
func separation(closedLoop roa.ClosedLoop, x0 dynamo.State, dt float64, steps int, d0 float64, k int) ([]float64, error) {
	switch {
	case steps < 1:
		return nil, fmt.Errorf("%w: %d", dynamo.ErrInvalidHorizon, steps)
	case dt <= 0:
		return nil, fmt.Errorf("%w: %g", dynamo.ErrInvalidStep, dt)
	case d0 <= 0:
		return nil, fmt.Errorf("%w: %g", ErrInvalidPerturbation, d0)
	case len(x0) == 0:
		return nil, fmt.Errorf("empty initial state: %w", dynamo.ErrDimensionMismatch)
	}

	n := len(x0)
	batch := mat.NewDense(k+1, n, nil)
	for i := 0; i <= k; i++ {
		batch.SetRow(i, x0)
	}
	for i := 0; i < k; i++ {
		batch.Set(i+1, i, x0[i]+gap(x0, d0))
	}

	dist := make([]float64, k)
	for i := range dist {
		dist[i] = gap(x0, d0)
	}
	sums := make([]float64, k)
	for s := 0; s < steps; s++ {
		next, err := closedLoop(batch)
		if err != nil {
			return nil, err
		}
		base := dynamo.State(next.RawRowView(0))
		if !base.IsValid() {
			return nil, fmt.Errorf("%w at step %d", ErrDiverged, s)
		}
		// the next neighbour distance tracks the reference magnitude so the
		// difference keeps its significant digits
		target := gap(base, d0)
		for i := 0; i < k; i++ {
			row := next.RawRowView(i + 1)
			diff := dynamo.State(row).Sub(base)
			sep := diff.Norm()
			if math.IsNaN(sep) || math.IsInf(sep, 0) {
				return nil, fmt.Errorf("%w at step %d", ErrDiverged, s)
			}
			if sep == 0 {
				// neighbour collapsed onto the reference; reseed it
				copy(row, base)
				row[i%n] += target
				dist[i] = target
				continue
			}
			sums[i] += math.Log(sep / dist[i])
			copy(row, base.Add(diff.Scale(target/sep)))
			dist[i] = target
		}
		batch = next
	}

	for i := range sums {
		sums[i] /= float64(steps) * dt
	}
	return sums, nil
}

// gap is the neighbour distance used around x.
func gap(x dynamo.State, d0 float64) float64 {
	return d0 * max(1, x.Norm())
}
