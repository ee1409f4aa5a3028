// Package sweep drives long-time trajectories to a stationary regime and
// runs driving-parameter sweeps over them.
//
// A run has two phases: a transient that is integrated and discarded, and
// a stationary phase whose sampled states feed time-averaged observables.
// A sweep evaluates one run per driving value and emits one tab-separated
// line per job, matching the cluster-array workflow where each array task
// computes a single sweep point.
package sweep

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 0.005
	DefaultTransient  = 500000
	DefaultStationary = 1000
	DefaultTolerance  = 1e-6
)

// Settings are the run/sweep parameters, loaded from YAML. The cavity
// graph itself lives in the build file; Settings only say how to drive it.
type Settings struct {
	Stepper    string  `yaml:"stepper"` // any registered integrator: euler | rk4 | dopri5
	Dt         float64 `yaml:"dt"`      // fixed-step size
	AbsTol     float64 `yaml:"abs_tol"`
	RelTol     float64 `yaml:"rel_tol"`
	Transient  int     `yaml:"transient"`
	Stationary int     `yaml:"stationary"`
	Stride     int     `yaml:"stride"` // sample every n-th stationary step
	Seed       int64   `yaml:"seed"`

	// Sweep range and what the swept value drives.
	Start  float64 `yaml:"start"`
	Stop   float64 `yaml:"stop"`
	Steps  int     `yaml:"steps"`
	Target string  `yaml:"target"` // polariton name receiving the sweep
	Mode   string  `yaml:"mode"`   // drive | pump
}

func DefaultSettings() *Settings {
	return &Settings{
		Stepper:    "dopri5",
		Dt:         DefaultDt,
		AbsTol:     DefaultTolerance,
		RelTol:     DefaultTolerance,
		Transient:  DefaultTransient,
		Stationary: DefaultStationary,
		Stride:     1,
		Steps:      1,
		Mode:       "pump",
	}
}

func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

func Save(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
