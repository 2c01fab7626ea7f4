package experiment_test

import (
	"context"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/analysis"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/config"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/control"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/experiment"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/storage"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func smallPendulum() *config.Config {
	cfg := config.GetPreset("pendulum", "lqr")
	cfg.ROA.NumPoints = []int{11, 11}
	cfg.ROA.Horizon = 300
	cfg.Trajectories.Count = 3
	cfg.Trajectories.Horizon = 50
	cfg.Lyapunov = config.LyapunovConfig{
		Enabled:     true,
		Structure:   "sum_of_two",
		LayerDims:   []int{4, 4},
		Activations: []string{"tanh", "tanh"},
		Eps:         1e-3,
		Seed:        1,
	}
	return cfg
}

var _ = Describe("Experiment", func() {
	It("estimates the ROA of the LQR-controlled pendulum", func() {
		exp, err := experiment.New(smallPendulum(), quietLogger())
		Expect(err).NotTo(HaveOccurred())

		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Gain).NotTo(BeNil())
		Expect(res.ROA.Labels).To(HaveLen(121))
		origin, _ := res.Grid.Index(dynamo.State{0, 0})
		Expect(res.ROA.Labels[origin]).To(BeTrue())
		Expect(res.Metrics).To(HaveKey("roa_fraction"))
		Expect(res.Metrics["roa_fraction"]).To(BeNumerically(">", 0))
		Expect(res.Metrics).To(HaveKeyWithValue("origin_stable", 1.0))

		batch, dim, horizon := res.Trajectories.Dims()
		Expect([]int{batch, dim, horizon}).To(Equal([]int{3, 2, 50}))
		Expect(res.Gradients.Len()).To(Equal(50))
		Expect(res.Metrics).To(HaveKey("control_effort"))
		Expect(res.Metrics).To(HaveKey("energy_ratio"))
		Expect(res.Metrics).To(HaveKey("lyapunov_exponent"))

		lambda, err := analysis.Exponent(exp.ClosedLoop(), dynamo.State{0.05, 0}, 0.01, 300, 1e-6)
		Expect(err).NotTo(HaveOccurred())
		Expect(lambda).To(BeNumerically("<", 0))

		Expect(res.Lyapunov).NotTo(BeNil())
		Expect(res.Values).To(HaveLen(121))
		Expect(res.Values[origin]).To(BeNumerically("~", 0, 1e-12))
		Expect(res.Metrics).To(HaveKey("lyapunov_decrease_fraction"))
	})

	It("leaves the upright pendulum unstable without control", func() {
		cfg := smallPendulum()
		cfg.Controller.Type = config.ControllerNone
		cfg.Trajectories.Count = 0
		cfg.Lyapunov.Enabled = false

		exp, err := experiment.New(cfg, quietLogger())
		Expect(err).NotTo(HaveOccurred())
		Expect(exp.Setup()).To(Succeed())
		Expect(exp.Policy()).To(BeAssignableToTypeOf(&control.None{}))

		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Gain).To(BeNil())
		Expect(res.ROA.Count()).To(Equal(1))
		Expect(res.Metrics).To(HaveKeyWithValue("origin_stable", 1.0))
	})

	It("covers the normalized unit box when no limits are given", func() {
		cfg := config.GetPreset("duffing", "lqr")
		cfg.ROA.Limits = nil
		cfg.ROA.NumPoints = []int{7}
		cfg.Trajectories.Count = 0
		cfg.Lyapunov.Enabled = false

		exp, err := experiment.New(cfg, quietLogger())
		Expect(err).NotTo(HaveOccurred())
		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Grid.Limits()).To(Equal([][2]float64{{-1, 1}, {-1, 1}}))
		Expect(res.Grid.Shape()).To(Equal([]int{7, 7}))
		Expect(res.ROA.Labels).To(HaveLen(49))
		Expect(res.Metrics).To(HaveKeyWithValue("origin_stable", 1.0))
	})

	It("runs continuous-time estimation on an autonomous system", func() {
		cfg := config.GetPreset("perturbed", "nominal")
		cfg.ROA.NumPoints = []int{9, 9}
		cfg.ROA.Horizon = 1000
		cfg.ROA.Tol = 1e-2
		cfg.Trajectories.Count = 0

		exp, err := experiment.New(cfg, quietLogger())
		Expect(err).NotTo(HaveOccurred())
		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		origin, _ := res.Grid.Index(dynamo.State{0, 0})
		Expect(res.ROA.Labels[origin]).To(BeTrue())
	})

	It("rejects a grid that does not match the system", func() {
		cfg := smallPendulum()
		cfg.ROA.Limits = [][2]float64{{-1, 1}, {-1, 1}, {-1, 1}}
		cfg.ROA.NumPoints = []int{3, 3, 3}
		exp, err := experiment.New(cfg, quietLogger())
		Expect(err).NotTo(HaveOccurred())
		_, err = exp.Run(context.Background())
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("rejects an invalid configuration before building anything", func() {
		cfg := smallPendulum()
		cfg.ROA.Mode = "backwards"
		_, err := experiment.New(cfg, quietLogger())
		Expect(err).To(MatchError(config.ErrInvalidConfig))
	})

	It("stops after the estimate when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		exp, err := experiment.New(smallPendulum(), quietLogger())
		Expect(err).NotTo(HaveOccurred())
		res, err := exp.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.ROA).NotTo(BeNil())
		Expect(res.Trajectories).To(BeNil())
	})

	It("saves artifacts and a heatmap", func() {
		cfg := smallPendulum()
		cfg.Output.Plot = true
		exp, err := experiment.New(cfg, quietLogger())
		Expect(err).NotTo(HaveOccurred())
		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		store := storage.New(GinkgoT().TempDir())
		Expect(store.Init()).To(Succeed())
		runID, err := exp.Save(store, res)
		Expect(err).NotTo(HaveOccurred())

		meta, err := store.Load(runID)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.System).To(Equal("pendulum"))
		Expect(meta.NumPoints).To(Equal(121))
		Expect(meta.Lyapunov).To(Equal("sum_of_two"))

		d, err := store.LoadArtifacts(runID)
		Expect(err).NotTo(HaveOccurred())
		Expect(d["roa"]).To(Equal(res.ROA.Labels))
		Expect(mat.Equal(d["K"].(*mat.Dense), res.Gain)).To(BeTrue())
		Expect(d).To(HaveKey("lyapunov"))
		traj := d["trajectories"].(*mat.Dense)
		r, _ := traj.Dims()
		Expect(r).To(Equal(3 * 50))
		Expect(d["trajectory_count"]).To(Equal(3))

		_, err = os.Stat(filepath.Join(store.Dir(runID), "roa.png"))
		Expect(err).NotTo(HaveOccurred())
	})
})
