// Package storage keeps simulation runs on disk, one directory per run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/fsim/internal/config"
	"github.com/san-kum/fsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	tableCSV     = "table.csv"
	tableJSON    = "table.json"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// TablePath is where Save wrote the JSON form of a run's table.
func (s *Store) TablePath(runID string) string {
	return filepath.Join(s.baseDir, runID, tableJSON)
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Timestamp time.Time          `json:"timestamp"`
	Config    *config.Config     `json:"config"`
	Rows      int                `json:"rows"`
	Columns   []string           `json:"columns"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Save writes a run and returns its ID.
func (s *Store) Save(cfg *config.Config, table *sim.Table, metrics map[string]float64) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Model, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     cfg.Model,
		Timestamp: now,
		Config:    cfg,
		Rows:      table.Len(),
		Columns:   table.Columns(),
		Metrics:   metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, tableJSON), table); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, tableCSV))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := WriteCSV(csvFile, table); err != nil {
		return "", err
	}
	return runID, nil
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

// WriteCSV writes one line per row: the time, then every flattened column
// of the first row. Columns a row lacks are written as NaN.
func WriteCSV(w io.Writer, table *sim.Table) error {
	cw := csv.NewWriter(w)
	cols := table.Columns()

	header := append([]string{"time"}, cols...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range table.Rows() {
		vals := make(map[string]float64)
		for _, c := range r.Sol.Flatten() {
			vals[c.Name] = c.Value
		}

		row := []string{strconv.FormatFloat(r.Time, 'g', -1, 64)}
		for _, name := range cols {
			v, ok := vals[name]
			if !ok {
				v = math.NaN()
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportJSON writes the run metadata and its table as one document.
func ExportJSON(w io.Writer, cfg *config.Config, table *sim.Table) error {
	doc := struct {
		Model  string         `json:"model"`
		Config *config.Config `json:"config"`
		Rows   int            `json:"rows"`
		Table  *sim.Table     `json:"table"`
	}{cfg.Model, cfg, table.Len(), table}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// List returns every readable run, oldest first.
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
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// Columns is a stored table read back from CSV.
type Columns struct {
	Names  []string
	Times  []float64
	Values [][]float64
}

// Series returns the named column, or nil.
func (c *Columns) Series(name string) []float64 {
	for j, n := range c.Names {
		if n != name {
			continue
		}
		out := make([]float64, len(c.Values))
		for i, row := range c.Values {
			out[i] = row[j]
		}
		return out
	}
	return nil
}

func (s *Store) LoadTable(runID string) (*Columns, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, tableCSV))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	out := &Columns{}
	if len(records) == 0 {
		return out, nil
	}
	out.Names = records[0][1:]

	for i := 1; i < len(records); i++ {
		record := records[i]

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s line %d: %w", runID, i+1, err)
		}
		out.Times = append(out.Times, t)

		row := make([]float64, len(record)-1)
		for j := 1; j < len(record); j++ {
			row[j-1], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("run %s line %d: %w", runID, i+1, err)
			}
		}
		out.Values = append(out.Values, row)
	}

	return out, nil
}
