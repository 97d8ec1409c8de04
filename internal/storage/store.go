// Package storage persists simulation runs for the CLI: one directory
// per run with metadata.json and results.csv. The core packages own no
// file format; this is a downstream renderer over sim.Result.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/n1o1-labs/nodyn/internal/pk"
	"github.com/n1o1-labs/nodyn/internal/sim"
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
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Params    pk.Parameters      `json:"parameters"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run directory and returns its ID.
func (s *Store) Save(name string, p pk.Parameters, res *sim.Result, metrics map[string]float64) (string, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: time.Now(),
		Params:    p,
		Metrics:   metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := WriteCSV(filepath.Join(runDir, "results.csv"), res); err != nil {
		return "", err
	}

	return runID, nil
}

// WriteCSV renders a result with the canonical column header order.
func WriteCSV(path string, res *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(sim.Columns); err != nil {
		return err
	}

	cols := res.ColumnData()
	row := make([]string, len(cols))
	for i := 0; i < res.Len(); i++ {
		for j, col := range cols {
			row[j] = strconv.FormatFloat(col[i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// List returns metadata for every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, e.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})

	return runs, nil
}

// LoadResult reads a stored run's results.csv back into a Result.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	return ReadCSV(filepath.Join(s.baseDir, runID, "results.csv"))
}

// ReadCSV parses a results file written by WriteCSV. The header must
// contain every canonical column.
func ReadCSV(path string) (*sim.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("storage: %s has no data rows", path)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	cols := make([][]float64, len(sim.Columns))
	for ci, name := range sim.Columns {
		pos, found := index[name]
		if !found {
			return nil, fmt.Errorf("storage: %s missing column %q", path, name)
		}
		col := make([]float64, 0, len(records)-1)
		for _, rec := range records[1:] {
			v, err := strconv.ParseFloat(rec[pos], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: bad value in column %q: %w", name, err)
			}
			col = append(col, v)
		}
		cols[ci] = col
	}

	return &sim.Result{
		Hours:        cols[0],
		Minutes:      cols[1],
		Plasma:       cols[2],
		Tissue:       cols[3],
		RBC:          cols[4],
		TotalBody:    cols[5],
		BioactiveNO:  cols[6],
		CGMP:         cols[7],
		Vasodilation: cols[8],
	}, nil
}

// ReadSeriesCSV extracts a time column and a value column from an
// arbitrary CSV file, for loading experimental datasets. Column names
// must match the header exactly; the time column must be strictly
// increasing, since every downstream consumer integrates over it.
func ReadSeriesCSV(path, timeColumn, valueColumn string) (times, values []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("storage: %s has no data rows", path)
	}

	tIdx, vIdx := -1, -1
	for i, name := range records[0] {
		switch name {
		case timeColumn:
			tIdx = i
		case valueColumn:
			vIdx = i
		}
	}
	if tIdx < 0 {
		return nil, nil, fmt.Errorf("storage: %s missing time column %q", path, timeColumn)
	}
	if vIdx < 0 {
		return nil, nil, fmt.Errorf("storage: %s missing value column %q", path, valueColumn)
	}

	for _, rec := range records[1:] {
		t, err := strconv.ParseFloat(rec[tIdx], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: bad time value %q: %w", rec[tIdx], err)
		}
		v, err := strconv.ParseFloat(rec[vIdx], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: bad value %q: %w", rec[vIdx], err)
		}
		if n := len(times); n > 0 && t <= times[n-1] {
			return nil, nil, &pk.ValidationError{Field: timeColumn, Message: "time must be strictly increasing"}
		}
		times = append(times, t)
		values = append(values, v)
	}

	return times, values, nil
}
