package storage

import (
	"encoding/gob"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Dict is an opaque key/value record persisted as a single gob file.
// Values must be gob-encodable; concrete types stored behind interfaces
// have to be registered with Register first.
type Dict map[string]any

func init() {
	Register([]bool{})
	Register([]float64{})
	Register([][]float64{})
	Register([]int{})
	Register([]string{})
	Register(map[string]float64{})
	Register(map[string]string{})
	Register(&mat.Dense{})
}

// Register makes a concrete value type storable in a Dict.
func Register(value any) {
	gob.Register(value)
}

// SaveDict writes d to path, replacing any existing file.
func SaveDict(path string, d Dict) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := gob.NewEncoder(f).Encode(d); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

func LoadDict(path string) (Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var d Dict
	if err := gob.NewDecoder(f).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return d, nil
}
