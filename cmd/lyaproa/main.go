package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/analysis"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/config"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/experiment"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/grid"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/optim"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/roa"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/storage"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/viz"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	configFile string
	preset     string
	plot       bool
	mode       string
	horizon    int
	points     int
	withLyap   bool
	asJSON     bool
	count      int
	seed       uint64
	sweepArgs  []string
	metricName string
	minimize   bool
	parallel   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "lyaproa",
		Short:         "region of attraction estimation for controlled nonlinear systems",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("data", ".lyaproa", "data directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Int("workers", 0, "worker goroutines (0 keeps the configured value)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "yaml config file (overrides preset)")
	viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.SetEnvPrefix("LYAPROA")
	viper.AutomaticEnv()

	runCmd := &cobra.Command{
		Use:   "run [system]",
		Short: "estimate the region of attraction and save the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runEstimate,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "named preset for the system")
	runCmd.Flags().BoolVar(&plot, "plot", false, "write a heatmap next to the run")
	runCmd.Flags().StringVar(&mode, "mode", "", "roa mode: target, steady, continuous")
	runCmd.Flags().IntVar(&horizon, "horizon", 0, "simulation horizon in steps")
	runCmd.Flags().IntVar(&points, "points", 0, "grid points per dimension")
	runCmd.Flags().BoolVar(&withLyap, "lyapunov", false, "score a Lyapunov network candidate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print the run metadata as JSON")

	linearizeCmd := &cobra.Command{
		Use:   "linearize [system]",
		Short: "print the discrete linearization and LQR gain",
		Args:  cobra.ExactArgs(1),
		RunE:  linearize,
	}
	linearizeCmd.Flags().StringVar(&preset, "preset", "", "named preset for the system")

	trajCmd := &cobra.Command{
		Use:   "trajectories [system]",
		Short: "roll out closed-loop trajectories from random initial states",
		Args:  cobra.ExactArgs(1),
		RunE:  trajectories,
	}
	trajCmd.Flags().StringVar(&preset, "preset", "", "named preset for the system")
	trajCmd.Flags().IntVar(&count, "count", 3, "number of trajectories")
	trajCmd.Flags().IntVar(&horizon, "horizon", 0, "trajectory length in steps")
	trajCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for initial states")

	verifyCmd := &cobra.Command{
		Use:   "verify [system]",
		Short: "check a Lyapunov network candidate against the estimated ROA",
		Args:  cobra.ExactArgs(1),
		RunE:  verify,
	}
	verifyCmd.Flags().StringVar(&preset, "preset", "", "named preset for the system")
	verifyCmd.Flags().IntVar(&points, "points", 0, "grid points per dimension")

	sweepCmd := &cobra.Command{
		Use:   "sweep [system]",
		Short: "rerun the estimate over a grid of system parameters",
		Args:  cobra.ExactArgs(1),
		RunE:  sweep,
	}
	sweepCmd.Flags().StringVar(&preset, "preset", "", "named preset for the system")
	sweepCmd.Flags().StringArrayVar(&sweepArgs, "param", nil, "parameter range name=min:max:n or name=v1,v2 (repeatable)")
	sweepCmd.Flags().StringVar(&metricName, "metric", "roa_fraction", "metric to compare")
	sweepCmd.Flags().BoolVar(&minimize, "minimize", false, "report the smallest value instead of the largest")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 2, "sweep points estimated concurrently")
	sweepCmd.Flags().IntVar(&points, "points", 0, "grid points per dimension")

	systemsCmd := &cobra.Command{
		Use:   "systems",
		Short: "list systems and their presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range experiment.ListSystems() {
				fmt.Printf("%s  %s\n", viz.Title.Render(fmt.Sprintf("%-18s", name)),
					viz.Subtle.Render(strings.Join(config.ListPresets(name), ", ")))
			}
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, showCmd, linearizeCmd, trajCmd, verifyCmd, sweepCmd, systemsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusUnstable.Render("error:"), err)
		os.Exit(1)
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// loadConfig resolves the configuration for a system: the config file when
// given, else the named preset, else the system's first preset.
func loadConfig(system string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(system, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(system))
		}
	default:
		cfg = config.DefaultPreset(system)
		if cfg == nil {
			return nil, fmt.Errorf("%w: %s (available: %v)", experiment.ErrUnknownSystem, system, experiment.ListSystems())
		}
	}
	if cfg.System.Type != system {
		return nil, fmt.Errorf("config describes %s, not %s", cfg.System.Type, system)
	}
	if w := viper.GetInt("workers"); w > 0 {
		cfg.Backend.Workers = w
	}
	if viper.IsSet("log_level") || cfg.LogLevel == "" {
		cfg.LogLevel = viper.GetString("log_level")
	}
	return cfg, nil
}

func setPoints(cfg *config.Config, n int) {
	if n <= 0 {
		return
	}
	if len(cfg.ROA.NumPoints) == 0 {
		cfg.ROA.NumPoints = []int{n}
		return
	}
	for i := range cfg.ROA.NumPoints {
		cfg.ROA.NumPoints[i] = n
	}
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("mode") {
		cfg.ROA.Mode = mode
	}
	if cmd.Flags().Changed("horizon") {
		cfg.ROA.Horizon = horizon
	}
	if cmd.Flags().Changed("plot") {
		cfg.Output.Plot = plot
	}
	if withLyap {
		cfg.Lyapunov.Enabled = true
	}
	setPoints(cfg, points)

	log := newLogger(cfg.LogLevel)
	exp, err := experiment.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	res, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(viper.GetString("data"))
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := exp.Save(st, res)
	if err != nil {
		return err
	}

	fmt.Println(viz.GradientText(res.System+" region of attraction", "#00ffff", "#00ff88"))
	fmt.Println(viz.Metric("run id", runID))
	fmt.Println(viz.Metric("elapsed", elapsed.Round(time.Millisecond)))
	fmt.Println(viz.Metric("grid", fmt.Sprint(res.Grid.Shape())))
	fmt.Printf("%s %s\n", viz.FractionBar(res.ROA.Fraction(), 30), viz.MetricValue.Render(fmt.Sprintf("%.1f%%", 100*res.ROA.Fraction())))
	printMetrics(res.Metrics)

	if res.Grid.Dim() == 2 {
		m, err := viz.ROAMap(res.Grid, res.ROA.Labels, 60, 30)
		if err != nil {
			return err
		}
		fmt.Println(viz.Panel.Render(m))
	}
	return nil
}

func printMetrics(ms map[string]float64) {
	names := make([]string, 0, len(ms))
	for name := range ms {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println(viz.Separator(40))
	for _, name := range names {
		fmt.Println(viz.Metric(name, fmt.Sprintf("%.6f", ms[name])))
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(viper.GetString("data"))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tMODE\tCTRL\tPOINTS\tROA")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.1f%%\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Mode,
			run.Controller,
			run.NumPoints,
			100*run.Fraction,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(viper.GetString("data"))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if asJSON {
		return storage.ExportJSON(os.Stdout, meta)
	}

	fmt.Println(viz.HeaderStyle.Render(meta.ID))
	fmt.Println(viz.Metric("system", meta.System))
	fmt.Println(viz.Metric("saved", meta.Timestamp.Format(time.RFC3339)))
	fmt.Println(viz.Metric("mode", meta.Mode))
	fmt.Println(viz.Metric("controller", meta.Controller))
	fmt.Printf("%s %s\n", viz.FractionBar(meta.Fraction, 30), viz.MetricValue.Render(fmt.Sprintf("%.1f%%", 100*meta.Fraction)))
	printMetrics(meta.Metrics)

	d, err := st.LoadArtifacts(runID)
	if err != nil {
		return err
	}
	if g, labels, err := savedGrid(d); err == nil && g.Dim() == 2 {
		m, err := viz.ROAMap(g, labels, 60, 30)
		if err != nil {
			return err
		}
		fmt.Println(viz.Panel.Render(m))
	}

	traj, ok := d["trajectories"].(*mat.Dense)
	if !ok {
		return nil
	}
	rows, dim := traj.Dims()
	batch, ok := d["trajectory_count"].(int)
	if !ok || batch < 1 {
		batch = 1
	}
	n := rows / batch
	series := make([][]float64, dim)
	for j := range series {
		series[j] = mat.Col(nil, j, traj)[:n]
	}
	fmt.Println(viz.ASCIIPlot("first trajectory, one line per state", 12, 70, series...))
	return nil
}

// savedGrid rebuilds the estimation grid from the stored points and shape.
func savedGrid(d storage.Dict) (*grid.GridWorld, []bool, error) {
	pts, ok := d["points"].(*mat.Dense)
	if !ok {
		return nil, nil, fmt.Errorf("run has no grid points")
	}
	shape, ok := d["shape"].([]int)
	if !ok {
		return nil, nil, fmt.Errorf("run has no grid shape")
	}
	labels, ok := d["roa"].([]bool)
	if !ok {
		return nil, nil, fmt.Errorf("run has no labels")
	}
	r, _ := pts.Dims()
	limits := make([][2]float64, len(shape))
	for j := range limits {
		limits[j] = [2]float64{pts.At(0, j), pts.At(r-1, j)}
	}
	g, err := grid.New(limits, shape)
	return g, labels, err
}

func setup(system string) (*experiment.Experiment, *config.Config, error) {
	cfg, err := loadConfig(system)
	if err != nil {
		return nil, nil, err
	}
	exp, err := experiment.New(cfg, newLogger(cfg.LogLevel))
	if err != nil {
		return nil, nil, err
	}
	if err := exp.Setup(); err != nil {
		return nil, nil, err
	}
	return exp, cfg, nil
}

func linearize(cmd *cobra.Command, args []string) error {
	exp, cfg, err := setup(args[0])
	if err != nil {
		return err
	}
	A, B, err := exp.Model().Linearize()
	if err != nil {
		return err
	}
	fmt.Println(viz.Title.Render(fmt.Sprintf("%s, dt = %g", exp.Model().Name(), cfg.Dt)))
	printMatrix("A", A)
	if B != nil {
		printMatrix("B", B)
	}
	if cfg.Controller.Type == config.ControllerLQR && exp.Model().ActionDim() > 0 {
		K, P := exp.Gain()
		printMatrix("K", K)
		printMatrix("P", P)
	}
	return nil
}

func printMatrix(name string, m mat.Matrix) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	r, c := m.Dims()
	fmt.Println(viz.MetricLabel.Render(name))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			fmt.Fprintf(w, "%.6f\t", m.At(i, j))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

func trajectories(cmd *cobra.Command, args []string) error {
	exp, cfg, err := setup(args[0])
	if err != nil {
		return err
	}
	if count < 1 {
		return fmt.Errorf("count must be positive, got %d", count)
	}
	if cmd.Flags().Changed("horizon") {
		cfg.Trajectories.Horizon = horizon
	}
	if !cmd.Flags().Changed("seed") {
		seed = uint64(time.Now().UnixNano())
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	g, err := exp.Grid()
	if err != nil {
		return err
	}
	x0 := mat.NewDense(count, exp.Model().StateDim(), nil)
	for j, lim := range g.Limits() {
		u := distuv.Uniform{Min: lim[0], Max: lim[1], Src: rng}
		for i := 0; i < count; i++ {
			x0.Set(i, j, u.Rand())
		}
	}

	traj, _, err := roa.GenerateTrajectories(x0, exp.ClosedLoop(), cfg.Dt, cfg.Trajectories.Horizon)
	if err != nil {
		return err
	}

	batch, dim, _ := traj.Dims()
	for j := 0; j < dim; j++ {
		series := make([][]float64, batch)
		for i := range series {
			series[i] = traj.Component(i, j)
		}
		fmt.Println(asciigraph.PlotMany(series,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("x%d, %d trajectories", j, batch)),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Green, asciigraph.Yellow, asciigraph.Red, asciigraph.Blue),
		))
		fmt.Println()
	}

	final := traj.Final()
	for i := 0; i < batch; i++ {
		x := dynamo.State(mat.Row(nil, i, final))
		lambda, err := analysis.Exponent(exp.ClosedLoop(), dynamo.Row(x0, i), cfg.Dt, cfg.Trajectories.Horizon, 1e-6)
		if err != nil {
			fmt.Printf("%s %v\n", viz.Status(x.Norm() <= cfg.ROA.Tol), x)
			continue
		}
		fmt.Printf("%s %v λ=%.4f\n", viz.Status(x.Norm() <= cfg.ROA.Tol), x, lambda)
	}
	return nil
}

func verify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	cfg.Lyapunov.Enabled = true
	cfg.Trajectories.Count = 0
	setPoints(cfg, points)

	exp, err := experiment.New(cfg, newLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	dec := res.Metrics["lyapunov_decrease_fraction"]
	fmt.Println(viz.Title.Render(fmt.Sprintf("%s, %s candidate", res.System, res.Lyapunov.Structure)))
	fmt.Printf("%s %s\n", viz.MetricLabel.Render("decreasing"), viz.FractionBar(dec, 30))
	fmt.Printf("%s %s\n", viz.MetricLabel.Render("roa       "), viz.FractionBar(res.ROA.Fraction(), 30))
	printMetrics(res.Metrics)
	fmt.Println(viz.Status(dec == 1))
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	if len(sweepArgs) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	cfg.Lyapunov.Enabled = false
	cfg.Trajectories.Count = 0
	setPoints(cfg, points)

	names := make([]string, len(sweepArgs))
	values := make([][]float64, len(sweepArgs))
	for i, spec := range sweepArgs {
		names[i], values[i], err = optim.ParseRange(spec)
		if err != nil {
			return err
		}
	}
	sw, err := optim.NewSweep(names, values)
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	samples, err := sw.Run(ctx, optim.SystemParams(cfg, log.WithField("sweep", true)), metricName, parallel)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(metricName))
	series := make([]float64, len(samples))
	for i, sm := range samples {
		for _, name := range names {
			fmt.Fprintf(w, "%g\t", sm.Params[name])
		}
		fmt.Fprintf(w, "%.6f\n", sm.Value)
		series[i] = sm.Value
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(series) > 1 {
		fmt.Println()
		fmt.Println(viz.ASCIIPlot(metricName+" over the sweep", 10, 60, series))
	}
	if best, ok := optim.Best(samples, minimize); ok {
		fmt.Println(viz.Metric("best", fmt.Sprintf("%v -> %.6f", best.Params, best.Value)))
	}
	return nil
}
