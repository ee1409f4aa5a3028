// Package storage persists completed runs under a data directory, one
// subdirectory per run with a metadata file and the tab-separated data.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/m-ruiz/polsim/internal/sweep"
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
	ID          string             `json:"id"`
	BuildFile   string             `json:"build_file"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Stepper     string             `json:"stepper"`
	Dt          float64            `json:"dt"`
	Transient   int                `json:"transient"`
	Stationary  int                `json:"stationary"`
	Driving     float64            `json:"driving"`
	Observables map[string]float64 `json:"observables"`
}

// SaveRun writes metadata.json and point.tsv for one completed sweep
// point and returns the run ID.
func (s *Store) SaveRun(buildFile string, set *sweep.Settings, res *sweep.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", filepath.Base(buildFile), time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	obs := make(map[string]float64, len(res.Names))
	for i, name := range res.Names {
		obs[name] = res.Averages[i]
	}

	meta := RunMetadata{
		ID:          runID,
		BuildFile:   buildFile,
		Timestamp:   time.Now(),
		Seed:        set.Seed,
		Stepper:     set.Stepper,
		Dt:          set.Dt,
		Transient:   set.Transient,
		Stationary:  set.Stationary,
		Driving:     res.Driving,
		Observables: obs,
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

	dataFile, err := os.Create(filepath.Join(runDir, "point.tsv"))
	if err != nil {
		return "", err
	}
	defer dataFile.Close()

	if err := sweep.WriteTSV(dataFile, res); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns metadata for every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
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
