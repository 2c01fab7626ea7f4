package config

import (
	"math"
	"sort"
)

// Presets holds named configurations per system type, built on top of
// DefaultConfig.
var Presets = map[string]map[string]func() *Config{
	"pendulum": {
		"lqr": func() *Config {
			return DefaultConfig()
		},
		"weak": func() *Config {
			c := DefaultConfig()
			c.Controller.R = []float64{100}
			return c
		},
		"uncontrolled": func() *Config {
			c := DefaultConfig()
			c.Controller.Type = ControllerNone
			c.ROA.Mode = ModeSteady
			return c
		},
	},
	"cartpole": {
		"lqr": func() *Config {
			c := DefaultConfig()
			c.System = SystemConfig{
				Type:       "cartpole",
				Params:     map[string]float64{"pole_mass": 0.1, "cart_mass": 1, "length": 0.5, "friction": 0},
				StateNorm:  []float64{2, math.Pi / 4, 2, math.Pi},
				ActionNorm: []float64{10},
			}
			c.Controller.Q = []float64{1, 1, 1, 1}
			c.ROA.Limits = [][2]float64{{-1, 1}, {-1, 1}, {-1, 1}, {-1, 1}}
			c.ROA.NumPoints = []int{11, 11, 11, 11}
			return c
		},
	},
	"euler_equation_3d": {
		"lqr": func() *Config {
			c := DefaultConfig()
			c.System = SystemConfig{
				Type:       "euler_equation_3d",
				Params:     map[string]float64{"J1": 1, "J2": 2, "J3": 3},
				StateNorm:  []float64{1, 1, 1},
				ActionNorm: []float64{1, 1, 1},
			}
			c.Controller.Q = []float64{1, 1, 1}
			c.Controller.R = []float64{1, 1, 1}
			c.ROA.Limits = [][2]float64{{-1, 1}, {-1, 1}, {-1, 1}}
			c.ROA.NumPoints = []int{21, 21, 21}
			return c
		},
	},
	"van_der_pol": {
		"reverse": func() *Config {
			c := DefaultConfig()
			c.System = SystemConfig{
				Type:   "van_der_pol",
				Params: map[string]float64{"damping": 1},
			}
			c.Controller.Type = ControllerNone
			c.ROA.Limits = [][2]float64{{-3, 3}, {-3, 3}}
			return c
		},
	},
	"duffing": {
		"lqr": func() *Config {
			c := DefaultConfig()
			c.System = SystemConfig{
				Type:       "duffing",
				Params:     map[string]float64{"mass": 1, "k_linear": -1, "k_nonlinear": 1, "damping": 0.1},
				StateNorm:  []float64{2, 2},
				ActionNorm: []float64{5},
			}
			return c
		},
	},
	"backstepping_3d": {
		"lqr": func() *Config {
			c := DefaultConfig()
			c.System = SystemConfig{
				Type:       "backstepping_3d",
				Params:     map[string]float64{"a": 1, "b": 1, "c": 1, "d": 1},
				StateNorm:  []float64{1, 1, 1},
				ActionNorm: []float64{1},
			}
			c.Controller.Q = []float64{1, 1, 1}
			c.ROA.Limits = [][2]float64{{-1, 1}, {-1, 1}, {-1, 1}}
			c.ROA.NumPoints = []int{21, 21, 21}
			return c
		},
	},
	"perturbed": {
		"nominal": func() *Config {
			c := DefaultConfig()
			c.System = SystemConfig{
				Type:   "perturbed",
				Params: map[string]float64{"delta": 0},
			}
			c.Controller.Type = ControllerNone
			c.ROA.Mode = ModeContinuous
			c.ROA.Limits = [][2]float64{{-2, 2}, {-2, 2}}
			return c
		},
	},
}

func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	build, ok := systemPresets[preset]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultPreset returns the first preset of a system, or nil.
func DefaultPreset(system string) *Config {
	names := ListPresets(system)
	if len(names) == 0 {
		return nil
	}
	return GetPreset(system, names[0])
}
