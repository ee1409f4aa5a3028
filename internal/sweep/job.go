package sweep

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"github.com/m-ruiz/polsim/internal/config"
	"github.com/m-ruiz/polsim/internal/observables"
	"github.com/m-ruiz/polsim/internal/ode"
)

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// Result is one completed sweep point.
type Result struct {
	Driving  float64
	Names    []string
	Averages []float64
}

// RunJob evaluates sweep point index: build the cavity from the build
// file, apply the driving value to the target site, integrate transient
// plus stationary, and average the default observables. rng feeds any
// random expressions in the build file.
func RunJob(buildPath string, s *Settings, index int, rng *rand.Rand) (*Result, error) {
	if index < 0 || index >= s.Steps {
		return nil, fmt.Errorf("sweep: job index %d out of range [0,%d)", index, s.Steps)
	}
	driving := Linspace(s.Start, s.Stop, s.Steps)[index]

	cav, names, err := config.Build(buildPath, rng)
	if err != nil {
		return nil, err
	}

	if s.Target != "" {
		id, err := names.PolaritonID(s.Target)
		if err != nil {
			return nil, err
		}
		site, err := cav.Polariton(id)
		if err != nil {
			return nil, err
		}
		switch s.Mode {
		case "drive":
			site.SetDriving(complex(driving, 0), site.DriveDetuning)
		case "pump", "":
			if site.Reservoir == nil {
				return nil, fmt.Errorf("sweep: target %q has no reservoir to pump", s.Target)
			}
			site.Reservoir.Power = driving
		default:
			return nil, fmt.Errorf("sweep: unknown mode %q (want drive or pump)", s.Mode)
		}
	}

	runner, err := NewRunner(cav, s)
	if err != nil {
		return nil, err
	}

	if err := runner.Transient(s.Transient); err != nil {
		return nil, err
	}

	metrics := observables.Default(cav)
	for _, m := range metrics {
		m.Reset()
	}
	if err := runner.Stationary(s.Stationary, s.Stride, metrics); err != nil {
		return nil, err
	}

	res := &Result{Driving: driving}
	for _, m := range metrics {
		res.Names = append(res.Names, m.Name())
		res.Averages = append(res.Averages, m.Value())
	}
	return res, nil
}

// WriteTSV emits the persisted sweep format: driving value followed by
// the averaged observables, tab-separated, one line per job.
func WriteTSV(w io.Writer, res *Result) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strconv.FormatFloat(res.Driving, 'g', -1, 64))
	for _, v := range res.Averages {
		bw.WriteByte('\t')
		bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

// TrajectoryRecorder dumps every sampled step as `time \t state...`.
type TrajectoryRecorder struct {
	w   *bufio.Writer
	err error
}

func NewTrajectoryRecorder(w io.Writer) *TrajectoryRecorder {
	return &TrajectoryRecorder{w: bufio.NewWriter(w)}
}

func (r *TrajectoryRecorder) OnStep(x ode.State, t float64) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, "%g", t)
	for _, v := range x {
		if r.err != nil {
			return
		}
		_, r.err = fmt.Fprintf(r.w, "\t%g", v)
	}
	if r.err == nil {
		r.err = r.w.WriteByte('\n')
	}
}

// Flush finishes the dump and reports any deferred write error.
func (r *TrajectoryRecorder) Flush() error {
	if r.err != nil {
		return r.err
	}
	return r.w.Flush()
}
