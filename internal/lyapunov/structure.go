package lyapunov

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStructure indicates a network structure tag that is not recognized.
	ErrUnknownStructure = errors.New("lyapunov: unknown network structure")

	// ErrUnknownActivation indicates an activation name that is not recognized.
	ErrUnknownActivation = errors.New("lyapunov: unknown activation")

	// ErrInvalidLayers indicates layer widths or activations that the structure cannot use.
	ErrInvalidLayers = errors.New("lyapunov: invalid layer configuration")
)

type Structure int

const (
	ETH Structure = iota
	Quadratic
	SumOfTwo
	PerturbPosSemi
	PerturbETH
	SumOfTwoPosSemi
	SumOfTwoETH
)

var structureNames = map[Structure]string{
	ETH:             "eth",
	Quadratic:       "quadratic",
	SumOfTwo:        "sum_of_two",
	PerturbPosSemi:  "perturb_pos_semi",
	PerturbETH:      "perturb_eth",
	SumOfTwoPosSemi: "sum_of_two_pos_semi",
	SumOfTwoETH:     "sum_of_two_eth",
}

func (s Structure) String() string {
	if name, ok := structureNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Structure(%d)", int(s))
}

// PositiveDefinite reports whether V(x) > 0 for every x != 0, given a
// positive Eps and activations that vanish only at zero.
func (s Structure) PositiveDefinite() bool {
	return s != PerturbPosSemi
}

// Structures lists every known structure in declaration order.
func Structures() []Structure {
	return []Structure{ETH, Quadratic, SumOfTwo, PerturbPosSemi, PerturbETH, SumOfTwoPosSemi, SumOfTwoETH}
}

func ParseStructure(name string) (Structure, error) {
	for s, n := range structureNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStructure, name)
}

func (s Structure) MarshalText() ([]byte, error) {
	if _, ok := structureNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStructure, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Structure) UnmarshalText(text []byte) error {
	v, err := ParseStructure(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
