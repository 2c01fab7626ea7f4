package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt      = 0.01
	DefaultHorizon = 500
	DefaultTol     = 1e-3
	DefaultPoints  = 51
)

// ROA modes.
const (
	ModeTarget     = "target"
	ModeSteady     = "steady"
	ModeContinuous = "continuous"
)

// Controller types.
const (
	ControllerLQR  = "lqr"
	ControllerNone = "none"
)

// ErrInvalidConfig indicates a configuration that cannot describe an experiment.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	System       SystemConfig     `yaml:"system"`
	Dt           float64          `yaml:"dt"`
	Backend      dynamo.Backend   `yaml:"backend"`
	Controller   ControllerConfig `yaml:"controller"`
	ROA          ROAConfig        `yaml:"roa"`
	Trajectories TrajectoryConfig `yaml:"trajectories"`
	Lyapunov     LyapunovConfig   `yaml:"lyapunov"`
	Output       OutputConfig     `yaml:"output"`
	LogLevel     string           `yaml:"log_level"`
}

// SystemConfig names a system type and the physical parameters it needs,
// keyed by the names the system's SetParam accepts.
type SystemConfig struct {
	Type       string             `yaml:"type"`
	Params     map[string]float64 `yaml:"params,omitempty"`
	StateNorm  []float64          `yaml:"state_norm,omitempty"`
	ActionNorm []float64          `yaml:"action_norm,omitempty"`
}

// ControllerConfig selects the feedback law. Q and R are the diagonals of
// the LQR weights; empty means identity.
type ControllerConfig struct {
	Type string    `yaml:"type"`
	Q    []float64 `yaml:"q,omitempty"`
	R    []float64 `yaml:"r,omitempty"`
}

// ROAConfig describes the estimation grid and labeling. Empty Limits mean
// the unit box [-1, 1] in every normalized state dimension; NumPoints then
// gives one count per dimension or a single count for all of them.
type ROAConfig struct {
	Mode             string       `yaml:"mode"`
	Horizon          int          `yaml:"horizon"`
	Tol              float64      `yaml:"tol"`
	Limits           [][2]float64 `yaml:"limits,omitempty"`
	NumPoints        []int        `yaml:"num_points,omitempty"`
	KeepTrajectories bool         `yaml:"keep_trajectories"`
}

type TrajectoryConfig struct {
	Count   int `yaml:"count"`
	Horizon int `yaml:"horizon"`
}

type LyapunovConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Structure   string   `yaml:"structure"`
	LayerDims   []int    `yaml:"layer_dims"`
	Activations []string `yaml:"activations"`
	Eps         float64  `yaml:"eps"`
	Seed        uint64   `yaml:"seed"`
}

type OutputConfig struct {
	Dir   string  `yaml:"dir"`
	Plot  bool    `yaml:"plot"`
	Color string  `yaml:"color"`
	Alpha float64 `yaml:"alpha"`
}

func DefaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			Type:       "pendulum",
			Params:     map[string]float64{"mass": 0.15, "length": 0.5, "friction": 0.1},
			StateNorm:  []float64{3.141592653589793, 8},
			ActionNorm: []float64{0.73575},
		},
		Dt:      DefaultDt,
		Backend: dynamo.DefaultBackend(),
		Controller: ControllerConfig{
			Type: ControllerLQR,
			Q:    []float64{1, 1},
			R:    []float64{1},
		},
		ROA: ROAConfig{
			Mode:      ModeTarget,
			Horizon:   DefaultHorizon,
			Tol:       DefaultTol,
			Limits:    [][2]float64{{-1, 1}, {-1, 1}},
			NumPoints: []int{DefaultPoints, DefaultPoints},
		},
		Trajectories: TrajectoryConfig{
			Count:   5,
			Horizon: 200,
		},
		Lyapunov: LyapunovConfig{
			Structure:   "eth",
			LayerDims:   []int{64, 64, 64},
			Activations: []string{"tanh", "tanh", "tanh"},
			Eps:         1e-6,
		},
		Output: OutputConfig{
			Dir:   "runs",
			Color: "green",
			Alpha: 0.6,
		},
		LogLevel: "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		System struct {
			Type string `yaml:"type"`
		} `yaml:"system"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	// Fields the file leaves out fall back to the named system's first
	// preset, so grid and weights have that system's shape. Parameters and
	// normalization come from the file alone; an absent normalization is the
	// identity.
	cfg := DefaultConfig()
	if head.System.Type != "" {
		if p := DefaultPreset(head.System.Type); p != nil {
			cfg = p
		}
		cfg.System = SystemConfig{Type: head.System.Type}
	}
	cfg.System.Params = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.System.Params = make(map[string]float64, len(c.System.Params))
	for k, v := range c.System.Params {
		out.System.Params[k] = v
	}
	out.System.StateNorm = append([]float64(nil), c.System.StateNorm...)
	out.System.ActionNorm = append([]float64(nil), c.System.ActionNorm...)
	out.Controller.Q = append([]float64(nil), c.Controller.Q...)
	out.Controller.R = append([]float64(nil), c.Controller.R...)
	out.ROA.Limits = append([][2]float64(nil), c.ROA.Limits...)
	out.ROA.NumPoints = append([]int(nil), c.ROA.NumPoints...)
	out.Lyapunov.LayerDims = append([]int(nil), c.Lyapunov.LayerDims...)
	out.Lyapunov.Activations = append([]string(nil), c.Lyapunov.Activations...)
	return &out
}

// Validate checks the fields that do not depend on the chosen system.
// System-specific checks happen when the system is built.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	switch c.ROA.Mode {
	case ModeTarget, ModeSteady, ModeContinuous:
	default:
		return fmt.Errorf("%w: unknown roa mode %q", ErrInvalidConfig, c.ROA.Mode)
	}
	switch c.Controller.Type {
	case ControllerLQR, ControllerNone:
	default:
		return fmt.Errorf("%w: unknown controller %q", ErrInvalidConfig, c.Controller.Type)
	}
	if len(c.ROA.Limits) > 0 && len(c.ROA.Limits) != len(c.ROA.NumPoints) {
		return fmt.Errorf("%w: %d grid limits for %d point counts", ErrInvalidConfig, len(c.ROA.Limits), len(c.ROA.NumPoints))
	}
	if c.Backend.Workers < 1 {
		return fmt.Errorf("%w: backend needs at least one worker", ErrInvalidConfig)
	}
	return nil
}
