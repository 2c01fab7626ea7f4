package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/config"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/physics"
)

// ErrUnknownSystem indicates a system type tag that is not recognized.
var ErrUnknownSystem = errors.New("experiment: unknown system type")

type SystemType int

const (
	Pendulum SystemType = iota
	CartPole
	EulerRigidBody
	VanDerPol
	Duffing
	Backstepping3D
	Perturbed
)

var systemNames = map[SystemType]string{
	Pendulum:       "pendulum",
	CartPole:       "cartpole",
	EulerRigidBody: "euler_equation_3d",
	VanDerPol:      "van_der_pol",
	Duffing:        "duffing",
	Backstepping3D: "backstepping_3d",
	Perturbed:      "perturbed",
}

// fields builds each system with its default parameters.
var fields = map[SystemType]func() physics.VectorField{
	Pendulum:       func() physics.VectorField { return physics.NewInvertedPendulum(0.15, 0.5, 0.1) },
	CartPole:       func() physics.VectorField { return physics.NewCartPole(0.1, 1, 0.5, 0) },
	EulerRigidBody: func() physics.VectorField { return physics.NewEulerRigidBody(1, 2, 3) },
	VanDerPol:      func() physics.VectorField { return physics.NewVanDerPol(1) },
	Duffing:        func() physics.VectorField { return physics.NewDuffing(1, -1, 1, 0.1) },
	Backstepping3D: func() physics.VectorField { return physics.NewBackstepping3D(1, 1, 1, 1) },
	Perturbed:      func() physics.VectorField { return physics.NewPerturbed(0) },
}

func (s SystemType) String() string {
	if name, ok := systemNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SystemType(%d)", int(s))
}

func ParseSystemType(name string) (SystemType, error) {
	for s, n := range systemNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSystem, name)
}

// ListSystems returns every known system tag in sorted order.
func ListSystems() []string {
	names := make([]string, 0, len(systemNames))
	for _, n := range systemNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewField builds the vector field named by props.Type and applies
// props.Params on top of its defaults.
func NewField(props config.SystemConfig) (physics.VectorField, error) {
	st, err := ParseSystemType(props.Type)
	if err != nil {
		return nil, err
	}
	field := fields[st]()

	keys := make([]string, 0, len(props.Params))
	for k := range props.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := field.SetParam(k, props.Params[k]); err != nil {
			return nil, fmt.Errorf("%s: %w", props.Type, err)
		}
	}
	return field, nil
}

// BuildSystem constructs the discrete-time model described by props. It
// fails without constructing anything on an unknown type, an unknown
// parameter or an inconsistent normalization.
func BuildSystem(props config.SystemConfig, dt float64, backend dynamo.Backend) (*physics.Model, error) {
	field, err := NewField(props)
	if err != nil {
		return nil, err
	}

	var norm *dynamo.Normalization
	if len(props.StateNorm) > 0 || len(props.ActionNorm) > 0 {
		norm, err = dynamo.NewNormalization(props.StateNorm, props.ActionNorm)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", props.Type, err)
		}
	}
	return physics.NewModel(field, dt, norm, backend)
}
