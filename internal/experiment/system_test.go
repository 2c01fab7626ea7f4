package experiment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/config"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/experiment"
	"gonum.org/v1/gonum/mat"
)

var _ = Describe("BuildSystem", func() {
	dims := map[string][2]int{
		"pendulum":          {2, 1},
		"cartpole":          {4, 1},
		"euler_equation_3d": {3, 3},
		"van_der_pol":       {2, 0},
		"duffing":           {2, 1},
		"backstepping_3d":   {3, 1},
		"perturbed":         {2, 0},
	}

	It("knows every system", func() {
		Expect(experiment.ListSystems()).To(HaveLen(len(dims)))
		for _, name := range experiment.ListSystems() {
			Expect(dims).To(HaveKey(name))
		}
	})

	for name, d := range dims {
		It("builds "+name+" from its preset", func() {
			cfg := config.DefaultPreset(name)
			Expect(cfg).NotTo(BeNil())
			model, err := experiment.BuildSystem(cfg.System, cfg.Dt, cfg.Backend)
			Expect(err).NotTo(HaveOccurred())
			Expect(model.Name()).To(Equal(name))
			Expect(model.StateDim()).To(Equal(d[0]))
			Expect(model.ActionDim()).To(Equal(d[1]))

			var action *mat.Dense
			if d[1] > 0 {
				action = mat.NewDense(1, d[1], nil)
			}
			next, err := model.Step(mat.NewDense(1, d[0], nil), action)
			Expect(err).NotTo(HaveOccurred())
			if name != "perturbed" {
				Expect(mat.Norm(next, 2)).To(BeNumerically("~", 0, 1e-12))
			}
		})
	}

	It("applies parameters on top of the defaults", func() {
		model, err := experiment.BuildSystem(config.SystemConfig{
			Type:   "pendulum",
			Params: map[string]float64{"mass": 2},
		}, 0.01, dynamo.DefaultBackend())
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Field().GetParams()).To(HaveKeyWithValue("mass", 2.0))
		Expect(model.Field().GetParams()).To(HaveKeyWithValue("length", 0.5))
	})

	It("rejects an unknown type", func() {
		model, err := experiment.BuildSystem(config.SystemConfig{Type: "triple_pendulum"}, 0.01, dynamo.DefaultBackend())
		Expect(err).To(MatchError(experiment.ErrUnknownSystem))
		Expect(model).To(BeNil())
	})

	It("rejects an unknown parameter", func() {
		_, err := experiment.BuildSystem(config.SystemConfig{
			Type:   "duffing",
			Params: map[string]float64{"stiffness": 1},
		}, 0.01, dynamo.DefaultBackend())
		Expect(err).To(MatchError(dynamo.ErrUnknownParam))
	})

	It("rejects a zero normalization scale", func() {
		_, err := experiment.BuildSystem(config.SystemConfig{
			Type:       "pendulum",
			StateNorm:  []float64{1, 0},
			ActionNorm: []float64{1},
		}, 0.01, dynamo.DefaultBackend())
		Expect(err).To(MatchError(dynamo.ErrZeroScale))
	})

	It("rejects a normalization of the wrong size", func() {
		_, err := experiment.BuildSystem(config.SystemConfig{
			Type:      "cartpole",
			StateNorm: []float64{1, 1},
		}, 0.01, dynamo.DefaultBackend())
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("parses system tags", func() {
		st, err := experiment.ParseSystemType("van_der_pol")
		Expect(err).NotTo(HaveOccurred())
		Expect(st).To(Equal(experiment.VanDerPol))
		Expect(st.String()).To(Equal("van_der_pol"))
	})
})
