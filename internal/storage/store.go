// Package storage keeps simulation runs on disk, one directory per run
// holding metadata.json and states.csv, and exports trajectories as CSV or
// JSON.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/plasmasim/internal/dynamo"
	"github.com/san-kum/plasmasim/internal/reactor"
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

type PlasmaMetadata struct {
	Te float64 `json:"te"`
	Tg float64 `json:"tg"`
	Ne float64 `json:"ne"`
	Ev float64 `json:"ev"`
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Variant      string             `json:"variant"`
	Method       string             `json:"method"`
	Timestamp    time.Time          `json:"timestamp"`
	Plasma       PlasmaMetadata     `json:"plasma"`
	DensityModel string             `json:"density_model"`
	FeedRatio    float64            `json:"feed_ratio"`
	TotalDensity float64            `json:"total_density"`
	Catalyst     float64            `json:"catalyst"`
	Duration     float64            `json:"duration"`
	Samples      int                `json:"samples"`
	Species      []string           `json:"species"`
	Coefficients map[string]float64 `json:"coefficients"`
	Metrics      map[string]float64 `json:"metrics"`
	Steps        int                `json:"steps"`
	Rejected     int                `json:"rejected"`
}

// NewMetadata describes a completed run.
func NewMetadata(req reactor.Request, resp *reactor.Response) RunMetadata {
	coeffs := make(map[string]float64, len(resp.Coefficients))
	for _, c := range resp.Coefficients {
		coeffs[c.Reaction] = c.Value
	}
	meta := RunMetadata{
		Variant:      resp.Variant,
		Method:       resp.Method,
		Timestamp:    time.Now(),
		Plasma:       PlasmaMetadata{Te: resp.Plasma.Te, Tg: resp.Plasma.Tg, Ne: resp.Plasma.Ne, Ev: resp.Plasma.Ev},
		DensityModel: req.Density.Model,
		FeedRatio:    req.FeedRatio,
		TotalDensity: req.TotalDensity,
		Catalyst:     req.Catalyst,
		Duration:     req.Duration,
		Samples:      len(resp.Result.Times),
		Species:      resp.Names(),
		Coefficients: coeffs,
		Metrics:      resp.Result.Metrics,
		Steps:        resp.Result.StepsTaken,
		Rejected:     resp.Result.Rejected,
	}
	if len(resp.Result.Times) > 0 {
		meta.Duration = resp.Result.Times[len(resp.Result.Times)-1]
	}
	return meta
}

// Save writes a run directory and returns its ID.
func (s *Store) Save(req reactor.Request, resp *reactor.Response) (string, error) {
	meta := NewMetadata(req, resp)
	meta.ID = fmt.Sprintf("%s_%d", meta.Variant, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
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

	if err := ExportCSV(filepath.Join(runDir, "states.csv"), meta.Species, resp.Result); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns stored runs, oldest first.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStates reads a stored trajectory back. Times are returned in seconds.
func (s *Store) LoadStates(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}

// LoadResult rebuilds the dynamo.Result of a stored run.
func (s *Store) LoadResult(runID string) (*RunMetadata, *Trajectory, *dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	traj, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, traj, &dynamo.Result{
		States:     traj.States,
		Times:      traj.Times,
		Metrics:    meta.Metrics,
		StepsTaken: meta.Steps,
		Rejected:   meta.Rejected,
	}, nil
}
