package experiment

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/analysis"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/config"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/control"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/grid"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/lyapunov"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/metrics"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/physics"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/roa"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/storage"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/viz"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Experiment estimates the ROA of one configured closed-loop system.
type Experiment struct {
	cfg *config.Config
	log logrus.FieldLogger

	model  *physics.Model
	policy control.Policy
	gain   *mat.Dense
	cost   *mat.Dense
}

// Result collects everything a run produced.
type Result struct {
	System       string
	Grid         *grid.GridWorld
	ROA          *roa.Result
	Gain         *mat.Dense
	Riccati      *mat.Dense
	Trajectories *roa.Trajectories
	Gradients    *roa.Trajectories
	Lyapunov     *lyapunov.Network
	Values       []float64
	Decreasing   []bool
	Metrics      map[string]float64
}

func New(cfg *config.Config, log logrus.FieldLogger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Experiment{
		cfg: cfg,
		log: log.WithField("system", cfg.System.Type),
	}, nil
}

// Setup builds the model and its feedback policy.
func (e *Experiment) Setup() error {
	model, err := BuildSystem(e.cfg.System, e.cfg.Dt, e.cfg.Backend)
	if err != nil {
		return err
	}
	e.model = model

	switch e.cfg.Controller.Type {
	case config.ControllerNone:
		e.policy = control.NewNone(model.ActionDim())
	case config.ControllerLQR:
		if model.ActionDim() == 0 {
			e.log.Warn("system is autonomous, running without a controller")
			e.policy = control.NewNone(0)
			break
		}
		K, P, err := e.lqr()
		if err != nil {
			return err
		}
		e.gain, e.cost = K, P
		e.policy = control.NewLQR(K, nil)
	}
	return nil
}

func (e *Experiment) lqr() (*mat.Dense, *mat.Dense, error) {
	A, B, err := e.model.Linearize()
	if err != nil {
		return nil, nil, fmt.Errorf("linearize: %w", err)
	}
	n, m := e.model.StateDim(), e.model.ActionDim()
	K, P, err := control.DLQR(A, B, control.DiagonalWeights(e.cfg.Controller.Q, n), control.DiagonalWeights(e.cfg.Controller.R, m))
	if err != nil {
		return nil, nil, fmt.Errorf("lqr: %w", err)
	}

	var bk, acl mat.Dense
	bk.Mul(B, K)
	acl.Sub(A, &bk)
	e.log.WithFields(logrus.Fields{
		"open_loop":   control.SpectralRadius(A),
		"closed_loop": control.SpectralRadius(&acl),
	}).Debug("lqr gain computed")
	return K, P, nil
}

func (e *Experiment) Model() *physics.Model  { return e.model }
func (e *Experiment) Policy() control.Policy { return e.policy }

// Gain returns the LQR gain and Riccati solution, nil without a controller.
func (e *Experiment) Gain() (K, P *mat.Dense) { return e.gain, e.cost }

// ClosedLoop is the discrete closed-loop map in normalized coordinates.
func (e *Experiment) ClosedLoop() roa.ClosedLoop {
	return control.ClosedLoop(e.model, e.policy)
}

// VectorField is the continuous closed-loop derivative in normalized coordinates.
func (e *Experiment) VectorField() roa.VectorField {
	return func(x *mat.Dense) (*mat.Dense, error) {
		return e.model.ODENormalized(x, e.policy.Act(x))
	}
}

// Grid builds the initial-state lattice from the ROA settings. Without
// limits it covers the unit box of the normalized state.
func (e *Experiment) Grid() (*grid.GridWorld, error) {
	dim := e.model.StateDim()
	if len(e.cfg.ROA.Limits) == 0 {
		counts := e.cfg.ROA.NumPoints
		switch len(counts) {
		case 0:
			counts = []int{config.DefaultPoints}
			fallthrough
		case 1:
			counts = slices.Repeat(counts, dim)
		}
		return grid.Symmetric(slices.Repeat([]float64{1}, dim), counts)
	}
	if len(e.cfg.ROA.Limits) != dim {
		return nil, fmt.Errorf("grid has %d dimensions, %s has %d: %w",
			len(e.cfg.ROA.Limits), e.model.Name(), dim, dynamo.ErrDimensionMismatch)
	}
	return grid.New(e.cfg.ROA.Limits, e.cfg.ROA.NumPoints)
}

// Run executes the pipeline. Cancellation is checked between stages.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.model == nil {
		if err := e.Setup(); err != nil {
			return nil, err
		}
	}

	g, err := e.Grid()
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"points":  g.NumPoints(),
		"horizon": e.cfg.ROA.Horizon,
		"mode":    e.cfg.ROA.Mode,
	}).Info("estimating region of attraction")

	opts := roa.Options{
		Horizon:          e.cfg.ROA.Horizon,
		Tol:              e.cfg.ROA.Tol,
		KeepTrajectories: e.cfg.ROA.KeepTrajectories,
	}
	var est *roa.Result
	switch e.cfg.ROA.Mode {
	case config.ModeSteady:
		est, err = roa.ComputeSteadyState(g, e.ClosedLoop(), opts)
	case config.ModeContinuous:
		est, err = roa.ComputeContinuous(g, e.VectorField(), e.cfg.Dt, opts)
	default:
		est, err = roa.Compute(g, e.ClosedLoop(), opts)
	}
	if err != nil {
		return nil, fmt.Errorf("roa: %w", err)
	}

	res := &Result{
		System:  e.model.Name(),
		Grid:    g,
		ROA:     est,
		Gain:    e.gain,
		Riccati: e.cost,
		Metrics: map[string]float64{
			"roa_fraction": est.Fraction(),
			"roa_count":    float64(est.Count()),
		},
	}
	origin, err := g.Index(make(dynamo.State, g.Dim()))
	if err != nil {
		return nil, err
	}
	res.Metrics["origin_stable"] = 0
	if est.Labels[origin] {
		res.Metrics["origin_stable"] = 1
	}
	e.log.WithFields(logrus.Fields{
		"fraction":      est.Fraction(),
		"origin_stable": est.Labels[origin],
	}).Info("region of attraction estimated")

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if e.cfg.Trajectories.Count > 0 {
		if err := e.trajectories(res); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if e.cfg.Lyapunov.Enabled {
		if err := e.lyapunov(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// exponentPerturbation is the initial neighbour distance, in normalized
// coordinates, used for Lyapunov exponent estimates.
const exponentPerturbation = 1e-6

// samplePoints picks up to n grid points, spread evenly over the stable set
// when it is non-empty and over the whole grid otherwise.
func samplePoints(g *grid.GridWorld, labels []bool, n int) *mat.Dense {
	idx := make([]int, 0, len(labels))
	for i, ok := range labels {
		if ok {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		for i := range labels {
			idx = append(idx, i)
		}
	}
	n = min(n, len(idx))
	states := make([]dynamo.State, n)
	for k := range states {
		states[k] = g.Point(idx[k*len(idx)/n])
	}
	return dynamo.FromStates(states)
}

func (e *Experiment) trajectories(res *Result) error {
	x0 := samplePoints(res.Grid, res.ROA.Labels, e.cfg.Trajectories.Count)
	traj, grad, err := roa.GenerateTrajectories(x0, e.ClosedLoop(), e.cfg.Dt, e.cfg.Trajectories.Horizon)
	if err != nil {
		return fmt.Errorf("trajectories: %w", err)
	}
	res.Trajectories, res.Gradients = traj, grad

	batch, _, _ := traj.Dims()
	sums := make(map[string]float64)
	for i := 0; i < batch; i++ {
		ms := []metrics.Metric{metrics.NewControlEffort(), metrics.NewBoundedness(1)}
		if en, ok := e.model.Field().(metrics.Energetic); ok {
			ms = append(ms, metrics.NewEnergyDecay(physicalEnergy{en, e.model.Normalization()}))
		}
		xs := traj.Point(i)
		us := make([]dynamo.Control, len(xs))
		for k, x := range xs {
			us[k] = control.Compute(e.policy, x)
		}
		metrics.Observe(ms, xs, us)
		for name, v := range metrics.Values(ms) {
			sums[name] += v
		}
	}
	for name, v := range sums {
		res.Metrics[name] = v / float64(batch)
	}

	lambda, n := 0.0, 0
	for i := 0; i < batch; i++ {
		spec, err := analysis.Spectrum(e.ClosedLoop(), dynamo.Row(x0, i), e.cfg.Dt, e.cfg.Trajectories.Horizon, exponentPerturbation)
		if err != nil {
			e.log.WithError(err).WithField("trajectory", i).Debug("skipping lyapunov exponent")
			continue
		}
		lambda += floats.Max(spec)
		n++
	}
	if n > 0 {
		res.Metrics["lyapunov_exponent"] = lambda / float64(n)
	}
	e.log.WithField("count", batch).Debug("trajectories generated")
	return nil
}

// physicalEnergy evaluates a field's energy on normalized states.
type physicalEnergy struct {
	field metrics.Energetic
	norm  *dynamo.Normalization
}

func (p physicalEnergy) Energy(x dynamo.State) float64 {
	if p.norm != nil {
		x = x.Clone()
		for i, s := range p.norm.StateScale() {
			x[i] *= s
		}
	}
	return p.field.Energy(x)
}

func (e *Experiment) lyapunov(res *Result) error {
	st, err := lyapunov.ParseStructure(e.cfg.Lyapunov.Structure)
	if err != nil {
		return err
	}
	net, err := lyapunov.New(lyapunov.Config{
		InputDim:    e.model.StateDim(),
		LayerDims:   e.cfg.Lyapunov.LayerDims,
		Activations: e.cfg.Lyapunov.Activations,
		Eps:         e.cfg.Lyapunov.Eps,
		Structure:   st,
		Seed:        e.cfg.Lyapunov.Seed,
	}, e.log)
	if err != nil {
		return err
	}

	points := res.Grid.AllPoints()
	dec, err := lyapunov.Decreasing(net, e.ClosedLoop(), points)
	if err != nil {
		return fmt.Errorf("lyapunov: %w", err)
	}
	values := net.Eval(points)
	level := lyapunov.InnerLevel(values, res.ROA.Labels)
	conf := metrics.Compare(lyapunov.Sublevel(values, level), res.ROA.Labels)

	decreasing := 0
	for _, ok := range dec {
		if ok {
			decreasing++
		}
	}
	res.Lyapunov, res.Values, res.Decreasing = net, values, dec
	res.Metrics["lyapunov_decrease_fraction"] = float64(decreasing) / float64(len(dec))
	res.Metrics["lyapunov_level_recall"] = conf.Recall()

	e.log.WithFields(logrus.Fields{
		"structure":  st.String(),
		"decreasing": decreasing,
		"recall":     conf.Recall(),
	}).Info("lyapunov candidate evaluated")
	return nil
}

// Artifacts packs the result into a persisted dictionary.
func (r *Result) Artifacts() storage.Dict {
	d := storage.Dict{
		"system":  r.System,
		"roa":     r.ROA.Labels,
		"points":  r.Grid.AllPoints(),
		"shape":   r.Grid.Shape(),
		"metrics": r.Metrics,
	}
	if r.Gain != nil {
		d["K"] = r.Gain
		d["P"] = r.Riccati
	}
	if r.Trajectories != nil {
		batch, _, _ := r.Trajectories.Dims()
		d["trajectory_count"] = batch
		d["trajectories"] = stack(r.Trajectories)
		d["gradients"] = stack(r.Gradients)
	}
	if r.Lyapunov != nil {
		d["lyapunov"] = r.Lyapunov
		d["lyapunov_values"] = r.Values
		d["decreasing"] = r.Decreasing
	}
	return d
}

// stack flattens trajectories into one (batch*horizon) × dim matrix, time
// varying fastest within each point.
func stack(t *roa.Trajectories) *mat.Dense {
	batch, dim, horizon := t.Dims()
	out := mat.NewDense(batch*horizon, dim, nil)
	for i := 0; i < batch; i++ {
		for k, s := range t.Point(i) {
			out.SetRow(i*horizon+k, s)
		}
	}
	return out
}

// Save stores the result and, for planar grids with plotting enabled, a
// heatmap of the ROA next to it.
func (e *Experiment) Save(store *storage.Store, res *Result) (string, error) {
	meta := storage.RunMetadata{
		System:     res.System,
		Dt:         e.cfg.Dt,
		Horizon:    e.cfg.ROA.Horizon,
		Tol:        e.cfg.ROA.Tol,
		Mode:       e.cfg.ROA.Mode,
		Controller: e.cfg.Controller.Type,
		NumPoints:  res.Grid.NumPoints(),
		Fraction:   res.ROA.Fraction(),
		Metrics:    res.Metrics,
	}
	if res.Lyapunov != nil {
		meta.Lyapunov = res.Lyapunov.Structure.String()
	}
	runID, err := store.Save(&storage.Run{
		Meta:      meta,
		Points:    res.Grid.AllPoints(),
		Labels:    res.ROA.Labels,
		Artifacts: res.Artifacts(),
	})
	if err != nil {
		return "", err
	}
	log := e.log.WithField("run", runID)
	log.Info("run saved")

	if e.cfg.Output.Plot && res.Grid.Dim() == 2 {
		pal, err := viz.BinaryColormap(e.cfg.Output.Color, e.cfg.Output.Alpha)
		if err != nil {
			return runID, err
		}
		var trajs [][]dynamo.State
		if res.Trajectories != nil {
			batch, _, _ := res.Trajectories.Dims()
			for i := 0; i < batch; i++ {
				trajs = append(trajs, res.Trajectories.Point(i))
			}
		}
		path := filepath.Join(store.Dir(runID), "roa.png")
		err = viz.SaveROA(path, res.Grid, res.ROA.Labels, viz.ROAPlot{
			Title:        res.System + " region of attraction",
			XLabel:       "x0",
			YLabel:       "x1",
			Palette:      pal,
			Trajectories: trajs,
		})
		if err != nil {
			return runID, fmt.Errorf("plot: %w", err)
		}
		log.WithField("path", path).Debug("roa heatmap written")
	}
	return runID, nil
}
