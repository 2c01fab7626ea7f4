package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

const (
	metadataFile  = "metadata.json"
	artifactsFile = "roa.gob"
	pointsFile    = "points.csv"
)

// ErrRunNotFound indicates a run ID with no stored metadata.
var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	System     string             `json:"system"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Horizon    int                `json:"horizon"`
	Tol        float64            `json:"tol"`
	Mode       string             `json:"mode"`
	Controller string             `json:"controller"`
	Lyapunov   string             `json:"lyapunov,omitempty"`
	NumPoints  int                `json:"num_points"`
	Fraction   float64            `json:"fraction"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Run is what a finished experiment hands to the store.
type Run struct {
	Meta      RunMetadata
	Points    *mat.Dense
	Labels    []bool
	Artifacts Dict
}

// Save assigns the run an ID and writes its metadata, labeled points and
// artifact dictionary under a fresh run directory.
func (s *Store) Save(run *Run) (string, error) {
	runID := fmt.Sprintf("%s_%s", run.Meta.System, uuid.NewString()[:8])
	runDir := s.Dir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := run.Meta
	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if run.Points != nil {
		if err := writePoints(filepath.Join(runDir, pointsFile), run.Points, run.Labels); err != nil {
			return "", err
		}
	}

	if run.Artifacts != nil {
		if err := SaveDict(filepath.Join(runDir, artifactsFile), run.Artifacts); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ExportJSON(f, v)
}

// ExportJSON writes v as indented JSON.
func ExportJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePoints(path string, points *mat.Dense, labels []bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	r, c := points.Dims()
	header := make([]string, 0, c+1)
	for j := 0; j < c; j++ {
		header = append(header, fmt.Sprintf("x%d", j))
	}
	header = append(header, "stable")
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < r; i++ {
		row := make([]string, 0, c+1)
		for _, val := range points.RawRowView(i) {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		row = append(row, strconv.FormatBool(i < len(labels) && labels[i]))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadArtifacts(runID string) (Dict, error) {
	return LoadDict(filepath.Join(s.Dir(runID), artifactsFile))
}

// LoadPoints reads back the labeled initial states of a run.
func (s *Store) LoadPoints(runID string) (*mat.Dense, []bool, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), pointsFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, []bool{}, nil
	}

	dim := len(records[0]) - 1
	data := make([]float64, 0, (len(records)-1)*dim)
	labels := make([]bool, 0, len(records)-1)
	for i, record := range records[1:] {
		for j := 0; j < dim; j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d column %d: %w", i+1, j, err)
			}
			data = append(data, val)
		}
		stable, err := strconv.ParseBool(record[dim])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d label: %w", i+1, err)
		}
		labels = append(labels, stable)
	}
	return mat.NewDense(len(labels), dim, data), labels, nil
}
