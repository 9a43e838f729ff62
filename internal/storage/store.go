package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/precession/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	trailFile      = "trail.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Timestamp     time.Time          `json:"timestamp"`
	Integrator    string             `json:"integrator"`
	Steps         int                `json:"steps"`
	Dt            float64            `json:"dt"`
	Params        map[string]float64 `json:"params"`
	TrailCapacity int                `json:"trail_capacity"`
	TrailCount    int                `json:"trail_count"`
	Metrics       map[string]float64 `json:"metrics"`
	Error         string             `json:"error,omitempty"`
}

// Sample is one recorded point of the physical trajectory.
type Sample struct {
	Step  int
	Time  float64
	State dynamo.State
}

type Run struct {
	Meta    RunMetadata
	Samples []Sample
	// Trail is the drawable prefix of the trail in render space.
	Trail []r3.Vec
}

func (s *Store) Save(run *Run) (string, error) {
	meta := run.Meta
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	// concurrent runs may share a name and a clock tick
	meta.ID = fmt.Sprintf("%s_%s", dirName(meta.Name), uuid.NewString()[:8])
	meta.TrailCount = len(run.Trail)
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	header := []string{"step", "time", "x", "y", "z", "vx", "vy", "vz"}
	rows := make([][]float64, len(run.Samples))
	for i, smp := range run.Samples {
		p, v := smp.State.Position, smp.State.Velocity
		rows[i] = []float64{float64(smp.Step), smp.Time, p.X, p.Y, p.Z, v.X, v.Y, v.Z}
	}
	if err := writeCSV(filepath.Join(runDir, trajectoryFile), header, rows); err != nil {
		return "", err
	}

	rows = make([][]float64, len(run.Trail))
	for i, p := range run.Trail {
		rows[i] = []float64{p.X, p.Y, p.Z}
	}
	if err := writeCSV(filepath.Join(runDir, trailFile), []string{"x", "y", "z"}, rows); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// dirName keeps a run name inside the base directory: separators become
// underscores and dot-only names are replaced.
func dirName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	if strings.Trim(name, ".") == "" {
		return "run"
	}
	return name
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, val := range row {
			record[i] = strconv.FormatFloat(val, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every stored run, oldest first. Directories without
// readable metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) ([]Sample, error) {
	rows, err := readCSV(filepath.Join(s.baseDir, runID, trajectoryFile), 8)
	if err != nil {
		return nil, err
	}
	samples := make([]Sample, len(rows))
	for i, r := range rows {
		samples[i] = Sample{
			Step: int(r[0]),
			Time: r[1],
			State: dynamo.State{
				Position: r3.Vec{X: r[2], Y: r[3], Z: r[4]},
				Velocity: r3.Vec{X: r[5], Y: r[6], Z: r[7]},
			},
		}
	}
	return samples, nil
}

func (s *Store) LoadTrail(runID string) ([]r3.Vec, error) {
	rows, err := readCSV(filepath.Join(s.baseDir, runID, trailFile), 3)
	if err != nil {
		return nil, err
	}
	points := make([]r3.Vec, len(rows))
	for i, r := range rows {
		points[i] = r3.Vec{X: r[0], Y: r[1], Z: r[2]}
	}
	return points, nil
}

func readCSV(path string, fields int) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = fields

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, nil
	}

	rows := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		row := make([]float64, fields)
		for j, field := range record {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", filepath.Base(path), i+2, err)
			}
			row[j] = val
		}
		rows = append(rows, row)
	}
	return rows, nil
}
