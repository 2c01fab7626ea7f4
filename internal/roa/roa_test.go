package roa_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/grid"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/roa"
	"gonum.org/v1/gonum/mat"
)

func identity(x *mat.Dense) (*mat.Dense, error) {
	return mat.DenseCopyOf(x), nil
}

func scaled(k float64) roa.ClosedLoop {
	return func(x *mat.Dense) (*mat.Dense, error) {
		var out mat.Dense
		out.Scale(k, x)
		return &out, nil
	}
}

var _ = Describe("Compute", func() {
	var points *grid.GridWorld

	BeforeEach(func() {
		var err error
		points, err = grid.Symmetric([]float64{2, 2}, []int{5, 5})
		Expect(err).NotTo(HaveOccurred())
	})

	It("labels only the equilibrium under the identity map with zero tolerance", func() {
		res, err := roa.Compute(points, identity, roa.Options{Horizon: 10, Tol: 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Labels).To(HaveLen(25))
		Expect(res.Count()).To(Equal(1))
		Expect(res.Labels[12]).To(BeTrue())
		Expect(res.Trajectories).To(BeNil())
	})

	It("uses a supplied equilibrium", func() {
		opts := roa.Options{Horizon: 3, Tol: 0, Equilibrium: dynamo.State{1, -1}}
		res, err := roa.Compute(points, identity, opts)
		Expect(err).NotTo(HaveOccurred())
		idx, _ := points.Index(dynamo.State{1, -1})
		Expect(res.Count()).To(Equal(1))
		Expect(res.Labels[idx]).To(BeTrue())
	})

	It("labels every point stable under a contraction", func() {
		res, err := roa.Compute(points, scaled(0.5), roa.Options{Horizon: 30, Tol: 1e-6})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Fraction()).To(Equal(1.0))
	})

	It("labels every point but the origin unstable under an expansion", func() {
		res, err := roa.Compute(points, scaled(1.5), roa.Options{Horizon: 20, Tol: 1e-3})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Count()).To(Equal(1))
	})

	It("keeps trajectories when asked", func() {
		res, err := roa.Compute(points, scaled(0.5), roa.Options{Horizon: 4, Tol: 1, KeepTrajectories: true})
		Expect(err).NotTo(HaveOccurred())
		batch, dim, horizon := res.Trajectories.Dims()
		Expect([]int{batch, dim, horizon}).To(Equal([]int{25, 2, 4}))
		Expect(mat.Equal(res.Trajectories.At(0), points.AllPoints())).To(BeTrue())
		Expect(res.Trajectories.Value(0, 0, 3)).To(BeNumerically("~", -2*0.125, 1e-12))
		Expect(res.Trajectories.Component(0, 1)).To(Equal([]float64{-2, -1, -0.5, -0.25}))
	})

	It("does not modify the supplied points", func() {
		before := mat.DenseCopyOf(points.AllPoints())
		_, err := roa.Compute(points, func(x *mat.Dense) (*mat.Dense, error) {
			x.Scale(0, x)
			return x, nil
		}, roa.Options{Horizon: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Equal(before, points.AllPoints())).To(BeTrue())
	})

	DescribeTable("rejects invalid options",
		func(opts roa.Options, want error) {
			_, err := roa.Compute(points, identity, opts)
			Expect(errors.Is(err, want)).To(BeTrue())
		},
		Entry("horizon below two", roa.Options{Horizon: 1}, dynamo.ErrInvalidHorizon),
		Entry("negative tolerance", roa.Options{Horizon: 5, Tol: -1}, dynamo.ErrNegativeTolerance),
		Entry("equilibrium of wrong length", roa.Options{Horizon: 5, Equilibrium: dynamo.State{0}}, dynamo.ErrDimensionMismatch),
	)

	It("rejects a closed loop that changes the batch shape", func() {
		_, err := roa.Compute(points, func(x *mat.Dense) (*mat.Dense, error) {
			return mat.NewDense(1, 2, nil), nil
		}, roa.DefaultOptions())
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("propagates closed loop errors", func() {
		boom := errors.New("boom")
		_, err := roa.Compute(points, func(*mat.Dense) (*mat.Dense, error) { return nil, boom }, roa.DefaultOptions())
		Expect(err).To(MatchError(boom))
	})

	It("accepts a raw matrix", func() {
		m := mat.NewDense(2, 1, []float64{0, 3})
		res, err := roa.Compute(roa.Matrix(m), scaled(0.1), roa.Options{Horizon: 10, Tol: 1e-3})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Labels).To(Equal([]bool{true, true}))
	})
})

var _ = Describe("ComputeSteadyState", func() {
	It("labels points that stop moving, wherever they stop", func() {
		// x -> round toward a lattice of fixed points at +-1
		snap := func(x *mat.Dense) (*mat.Dense, error) {
			var out mat.Dense
			out.Apply(func(_, _ int, v float64) float64 {
				switch {
				case v > 0:
					return 1
				case v < 0:
					return -1
				}
				return 0
			}, x)
			return &out, nil
		}
		pts := roa.Matrix(mat.NewDense(3, 1, []float64{-3, 0, 4}))
		res, err := roa.ComputeSteadyState(pts, snap, roa.Options{Horizon: 3, Tol: 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Labels).To(Equal([]bool{true, true, true}))
	})

	It("labels oscillating points unstable", func() {
		flip := scaled(-1)
		pts := roa.Matrix(mat.NewDense(2, 1, []float64{0, 1}))
		res, err := roa.ComputeSteadyState(pts, flip, roa.Options{Horizon: 5, Tol: 0.5, KeepTrajectories: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Labels).To(Equal([]bool{true, false}))
		Expect(res.Trajectories.Len()).To(Equal(5))
	})
})

var _ = Describe("ComputeContinuous", func() {
	decay := func(x *mat.Dense) (*mat.Dense, error) {
		var out mat.Dense
		out.Scale(-1, x)
		return &out, nil
	}

	It("integrates the vector field with explicit Euler steps", func() {
		pts := roa.Matrix(mat.NewDense(1, 1, []float64{1}))
		res, err := roa.ComputeContinuous(pts, decay, 0.1, roa.Options{Horizon: 3, Tol: 1, KeepTrajectories: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Trajectories.Component(0, 0)).To(HaveLen(3))
		Expect(res.Trajectories.Value(0, 0, 2)).To(BeNumerically("~", 0.81, 1e-12))
		Expect(res.Labels).To(Equal([]bool{true}))
	})

	It("labels decaying states stable for a long horizon", func() {
		g, _ := grid.Symmetric([]float64{1}, []int{21})
		res, err := roa.ComputeContinuous(g, decay, 0.05, roa.Options{Horizon: 400, Tol: 1e-6})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Fraction()).To(Equal(1.0))
	})

	It("rejects a non-positive step", func() {
		pts := roa.Matrix(mat.NewDense(1, 1, []float64{1}))
		_, err := roa.ComputeContinuous(pts, decay, 0, roa.DefaultOptions())
		Expect(err).To(MatchError(dynamo.ErrInvalidStep))
	})
})

var _ = Describe("GenerateTrajectories", func() {
	It("starts at the initial states and differentiates consecutive steps", func() {
		x0 := mat.NewDense(2, 2, []float64{1, 2, -3, 4})
		dt := 0.1
		traj, grad, err := roa.GenerateTrajectories(x0, scaled(0.9), dt, 6)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Len()).To(Equal(6))
		Expect(grad.Len()).To(Equal(6))
		Expect(mat.Equal(traj.At(0), x0)).To(BeTrue())

		for t := 0; t < traj.Len()-1; t++ {
			var want mat.Dense
			want.Sub(traj.At(t+1), traj.At(t))
			want.Scale(1/dt, &want)
			Expect(mat.EqualApprox(grad.At(t), &want, 1e-12)).To(BeTrue(), "step %d", t)
		}

		// final gradient points at the dropped terminal state
		var next mat.Dense
		next.Scale(0.9, traj.Final())
		var want mat.Dense
		want.Sub(&next, traj.Final())
		want.Scale(1/dt, &want)
		Expect(mat.EqualApprox(grad.Final(), &want, 1e-12)).To(BeTrue())
	})

	It("validates its arguments", func() {
		x0 := mat.NewDense(1, 1, []float64{1})
		_, _, err := roa.GenerateTrajectories(x0, identity, 0.1, 0)
		Expect(err).To(MatchError(dynamo.ErrInvalidHorizon))
		_, _, err = roa.GenerateTrajectories(x0, identity, -1, 3)
		Expect(err).To(MatchError(dynamo.ErrInvalidStep))
	})
})
