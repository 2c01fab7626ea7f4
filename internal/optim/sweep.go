package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/config"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/experiment"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

var ErrInvalidSweep = errors.New("optim: invalid sweep")

// Sweep runs one experiment per point of a parameter grid and records a
// single metric for each.
type Sweep struct {
	names  []string
	values [][]float64
}

// Sample is the metric observed for one parameter combination.
type Sample struct {
	Params map[string]float64
	Value  float64
}

func NewSweep(names []string, values [][]float64) (*Sweep, error) {
	if len(names) == 0 || len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d names for %d value lists", ErrInvalidSweep, len(names), len(values))
	}
	for i, v := range values {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", ErrInvalidSweep, names[i])
		}
	}
	return &Sweep{names: names, values: values}, nil
}

// ParseRange reads "name=min:max:n" into n evenly spaced values, or
// "name=v1,v2,..." into an explicit list.
func ParseRange(spec string) (string, []float64, error) {
	name, rest, ok := strings.Cut(spec, "=")
	if !ok || name == "" || rest == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidSweep, spec)
	}
	if parts := strings.Split(rest, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return "", nil, fmt.Errorf("%w: %q: %v", ErrInvalidSweep, spec, err)
		}
		switch {
		case n < 1:
			return "", nil, fmt.Errorf("%w: %q needs at least one value", ErrInvalidSweep, spec)
		case n == 1:
			return name, []float64{lo}, nil
		}
		return name, floats.Span(make([]float64, n), lo, hi), nil
	}
	var vals []float64
	for _, p := range strings.Split(rest, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %q: %v", ErrInvalidSweep, spec, err)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}

// Combinations enumerates the grid with the last parameter varying fastest.
func (s *Sweep) Combinations() []map[string]float64 {
	var out []map[string]float64
	var walk func(depth int, current map[string]float64)
	walk = func(depth int, current map[string]float64) {
		if depth == len(s.names) {
			out = append(out, current)
			return
		}
		for _, v := range s.values[depth] {
			next := maps.Clone(current)
			next[s.names[depth]] = v
			walk(depth+1, next)
		}
	}
	walk(0, map[string]float64{})
	return out
}

// Run builds and runs the experiment for every combination, at most workers
// at a time, and returns the samples in enumeration order. The first
// failure cancels the remaining runs.
func (s *Sweep) Run(
	ctx context.Context,
	build func(params map[string]float64) (*experiment.Experiment, error),
	metric string,
	workers int,
) ([]Sample, error) {
	combos := s.Combinations()
	samples := make([]Sample, len(combos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, params := range combos {
		g.Go(func() error {
			exp, err := build(params)
			if err != nil {
				return fmt.Errorf("%v: %w", params, err)
			}
			res, err := exp.Run(gctx)
			if err != nil {
				return fmt.Errorf("%v: %w", params, err)
			}
			v, ok := res.Metrics[metric]
			if !ok {
				return fmt.Errorf("%w: run did not report %q", ErrInvalidSweep, metric)
			}
			samples[i] = Sample{Params: params, Value: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

// Best returns the sample with the largest value, or the smallest when
// minimize is set.
func Best(samples []Sample, minimize bool) (Sample, bool) {
	best, found := Sample{Value: math.Inf(1)}, false
	if !minimize {
		best.Value = math.Inf(-1)
	}
	for _, sm := range samples {
		if (minimize && sm.Value < best.Value) || (!minimize && sm.Value > best.Value) {
			best, found = sm, true
		}
	}
	return best, found
}

// SystemParams returns a builder that overrides the system parameters of a
// copy of base for every sweep point.
func SystemParams(base *config.Config, log logrus.FieldLogger) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		maps.Copy(cfg.System.Params, params)
		return experiment.New(cfg, log)
	}
}
