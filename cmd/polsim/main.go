package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/m-ruiz/polsim/internal/analysis"
	"github.com/m-ruiz/polsim/internal/config"
	"github.com/m-ruiz/polsim/internal/integrators"
	"github.com/m-ruiz/polsim/internal/observables"
	"github.com/m-ruiz/polsim/internal/storage"
	"github.com/m-ruiz/polsim/internal/sweep"
	"github.com/m-ruiz/polsim/internal/tui"
)

var (
	dataDir      string
	settingsFile string
	stepper      string
	dt           float64
	absTol       float64
	relTol       float64
	transient    int
	stationary   int
	stride       int
	seed         int64
	trajFile     string
	// sweep range
	sweepSteps int
	sweepIndex int
	sweepStart float64
	sweepStop  float64
	target     string
	mode       string
	outFile    string
	// plotting
	column    int
	sampleDt  float64
	stepsPerF int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "polsim",
		Short: "driven-dissipative polariton network simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".polsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [build-file]",
		Short: "integrate one trajectory to the stationary regime",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrajectory,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&trajFile, "traj", "", "write per-step trajectory dump to file")

	sweepCmd := &cobra.Command{
		Use:   "sweep [build-file]",
		Short: "run a driving-parameter sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 0, "number of sweep points (overrides settings)")
	sweepCmd.Flags().IntVar(&sweepIndex, "index", -1, "single job index, -1 for all points")
	sweepCmd.Flags().Float64Var(&sweepStart, "start", 0, "sweep range start")
	sweepCmd.Flags().Float64Var(&sweepStop, "stop", 0, "sweep range stop")
	sweepCmd.Flags().StringVar(&target, "target", "", "polariton receiving the swept value")
	sweepCmd.Flags().StringVar(&mode, "mode", "", "what the value drives: drive or pump")
	sweepCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	liveCmd := &cobra.Command{
		Use:   "live [build-file]",
		Short: "integrate with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerF, "steps-per-frame", 50, "integration steps per frame")

	plotCmd := &cobra.Command{
		Use:   "plot [traj-file]",
		Short: "plot a trajectory column",
		Args:  cobra.ExactArgs(1),
		RunE:  plotTrajectory,
	}
	plotCmd.Flags().IntVar(&column, "column", 1, "data column to plot (0 is time)")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [traj-file]",
		Short: "power spectrum of a trajectory column",
		Args:  cobra.ExactArgs(1),
		RunE:  plotSpectrum,
	}
	spectrumCmd.Flags().IntVar(&column, "column", 1, "data column to analyze (0 is time)")
	spectrumCmd.Flags().Float64Var(&sampleDt, "sample-dt", 0, "sampling interval (default: inferred from time column)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exampleCmd := &cobra.Command{
		Use:   "example",
		Short: "print a sample build file",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(exampleBuild)
		},
	}

	rootCmd.AddCommand(runCmd, sweepCmd, liveCmd, plotCmd, spectrumCmd, listCmd, exampleCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&settingsFile, "settings", "", "run settings file (yaml)")
	cmd.Flags().StringVar(&stepper, "stepper", "dopri5", "stepper: "+strings.Join(integrators.Names(), ", "))
	cmd.Flags().Float64Var(&dt, "dt", sweep.DefaultDt, "fixed step size")
	cmd.Flags().Float64Var(&absTol, "abs-tol", sweep.DefaultTolerance, "adaptive absolute tolerance")
	cmd.Flags().Float64Var(&relTol, "rel-tol", sweep.DefaultTolerance, "adaptive relative tolerance")
	cmd.Flags().IntVar(&transient, "transient", sweep.DefaultTransient, "transient steps (discarded)")
	cmd.Flags().IntVar(&stationary, "stationary", sweep.DefaultStationary, "stationary steps (sampled)")
	cmd.Flags().IntVar(&stride, "stride", 1, "sample every n-th stationary step")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for build-file expressions")
}

// loadSettings merges the yaml settings file with explicitly set flags;
// flags win.
func loadSettings(cmd *cobra.Command) (*sweep.Settings, error) {
	s := sweep.DefaultSettings()
	if settingsFile != "" {
		loaded, err := sweep.Load(settingsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		s = loaded
	}
	if settingsFile == "" || cmd.Flags().Changed("stepper") {
		s.Stepper = stepper
	}
	if settingsFile == "" || cmd.Flags().Changed("dt") {
		s.Dt = dt
	}
	if settingsFile == "" || cmd.Flags().Changed("abs-tol") {
		s.AbsTol = absTol
	}
	if settingsFile == "" || cmd.Flags().Changed("rel-tol") {
		s.RelTol = relTol
	}
	if settingsFile == "" || cmd.Flags().Changed("transient") {
		s.Transient = transient
	}
	if settingsFile == "" || cmd.Flags().Changed("stationary") {
		s.Stationary = stationary
	}
	if settingsFile == "" || cmd.Flags().Changed("stride") {
		s.Stride = stride
	}
	if cmd.Flags().Changed("seed") || s.Seed == 0 {
		s.Seed = seed
	}
	if cmd.Flags().Changed("steps") {
		s.Steps = sweepSteps
	}
	if cmd.Flags().Changed("start") {
		s.Start = sweepStart
	}
	if cmd.Flags().Changed("stop") {
		s.Stop = sweepStop
	}
	if cmd.Flags().Changed("target") {
		s.Target = target
	}
	if cmd.Flags().Changed("mode") {
		s.Mode = mode
	}
	return s, nil
}

func runTrajectory(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(s.Seed))
	cav, _, err := config.Build(args[0], rng)
	if err != nil {
		return err
	}

	fmt.Printf("loaded %s: %d polaritons, %d phonons, %d reservoirs, dimension %d\n",
		args[0], cav.NumPolaritons(), cav.NumPhonons(), cav.NumReservoirs(), cav.Dim())

	runner, err := sweep.NewRunner(cav, s)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := runner.Transient(s.Transient); err != nil {
		return err
	}

	metrics := observables.Default(cav)

	var rec *sweep.TrajectoryRecorder
	if trajFile != "" {
		f, err := os.Create(trajFile)
		if err != nil {
			return err
		}
		defer f.Close()
		rec = sweep.NewTrajectoryRecorder(f)
	}

	if rec != nil {
		err = runner.Stationary(s.Stationary, s.Stride, metrics, rec)
	} else {
		err = runner.Stationary(s.Stationary, s.Stride, metrics)
	}
	if err != nil {
		return err
	}
	if rec != nil {
		if err := rec.Flush(); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v (t=%.4f, last dt=%.3g)\n", time.Since(start), cav.Time(), cav.TimeStep())
	fmt.Println("\nstationary averages:")
	for _, m := range metrics {
		fmt.Printf("  %s: %.6f\n", m.Name(), m.Value())
	}

	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if s.Steps < 1 {
		return fmt.Errorf("sweep needs --steps >= 1")
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	indices := []int{sweepIndex}
	if sweepIndex < 0 {
		indices = indices[:0]
		for i := 0; i < s.Steps; i++ {
			indices = append(indices, i)
		}
	}

	for _, idx := range indices {
		rng := rand.New(rand.NewSource(s.Seed + int64(idx)))
		res, err := sweep.RunJob(args[0], s, idx, rng)
		if err != nil {
			return err
		}
		if err := sweep.WriteTSV(out, res); err != nil {
			return err
		}
		if _, err := st.SaveRun(args[0], s, res); err != nil {
			return err
		}
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(s.Seed))
	cav, _, err := config.Build(args[0], rng)
	if err != nil {
		return err
	}

	runner, err := sweep.NewRunner(cav, s)
	if err != nil {
		return err
	}

	return tui.Run(runner, stepsPerF)
}

func plotTrajectory(cmd *cobra.Command, args []string) error {
	_, series, err := readColumn(args[0], column)
	if err != nil {
		return err
	}
	if len(series) < 2 {
		return fmt.Errorf("not enough samples to plot")
	}

	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(20),
		asciigraph.Width(78),
		asciigraph.Caption(fmt.Sprintf("%s column %d", args[0], column)),
	))
	return nil
}

func plotSpectrum(cmd *cobra.Command, args []string) error {
	times, series, err := readColumn(args[0], column)
	if err != nil {
		return err
	}
	if len(series) < 4 {
		return fmt.Errorf("not enough samples for a spectrum")
	}

	interval := sampleDt
	if interval <= 0 {
		if len(times) < 2 {
			return fmt.Errorf("cannot infer sampling interval, pass --sample-dt")
		}
		interval = (times[len(times)-1] - times[0]) / float64(len(times)-1)
	}

	freqs, power := analysis.Spectrum(series, interval)
	fmt.Println(asciigraph.Plot(power,
		asciigraph.Height(20),
		asciigraph.Width(78),
		asciigraph.Caption(fmt.Sprintf("power spectrum, df=%.4g", freqs[1]-freqs[0])),
	))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no stored runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBUILD\tSTEPPER\tDRIVING\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4g\t%s\n",
			r.ID, r.BuildFile, r.Stepper, r.Driving, r.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

// readColumn reads a whitespace-separated trajectory dump, returning the
// time column and the requested data column.
func readColumn(path string, col int) ([]float64, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var times, series []float64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if col >= len(fields) {
			return nil, nil, fmt.Errorf("%s:%d: column %d out of range (%d columns)", path, lineNum, col, len(fields))
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %w", path, lineNum, err)
		}
		v, err := strconv.ParseFloat(fields[col], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %w", path, lineNum, err)
		}
		times = append(times, t)
		series = append(series, v)
	}
	return times, series, scanner.Err()
}

const exampleBuild = `# two-site polariton network with non-resonant pumping
[global]
random_seed = 42
time = 0.0

[polariton site_1]
gamma = 1.0
U = 0.0
initial_real = uniform(0.0, 1.0)
initial_imag = uniform(0.0, 1.0)

[polariton site_2]
gamma = 1.0
U = 0.0
initial_real = uniform(0.0, 1.0)
initial_imag = uniform(0.0, 1.0)

[phonon ph]
omega = 20.0
gamma = 0.05
initial_position = uniform(0.0, 10.0)
initial_velocity = uniform(0.0, 200.0)

[reservoir pump_1]
target = site_1
coupling = 1.0
tau = 600
power = 6.0
alpha = 3.25
n0 = uniform(0.1, 0.6)

[coupling up]
from = site_1
to = site_2
phonon = ph
J = 0.0
g = 1.0
delta = 0.0
above = true

[coupling down]
from = site_2
to = site_1
phonon = ph
J = 0.0
g = 1.0
delta = 0.0
above = false

[pairing beat]
phonon = ph
sites = site_1, site_2
g = 1.0
delta = 0.0
`
