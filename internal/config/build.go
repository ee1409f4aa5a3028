package config

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/m-ruiz/polsim/internal/cavity"
)

// Names maps entity names to arena indices. Drivers use it to re-target
// swept parameters (drive amplitude, reservoir power) after loading.
type Names struct {
	polaritons map[string]int
	phonons    map[string]int
}

// PolaritonID resolves a polariton name.
func (n *Names) PolaritonID(name string) (int, error) {
	id, ok := n.polaritons[name]
	if !ok {
		return 0, fmt.Errorf("config: polariton not found: %s", name)
	}
	return id, nil
}

// PhononID resolves a phonon name.
func (n *Names) PhononID(name string) (int, error) {
	id, ok := n.phonons[name]
	if !ok {
		return 0, fmt.Errorf("config: phonon not found: %s", name)
	}
	return id, nil
}

// Build loads the build file at path and constructs the assembly. Random
// expressions are drawn from rng; a `random_seed` entry in [global]
// reseeds it so runs are reproducible from the file alone. No assembly is
// constructed when any name fails to resolve.
func Build(path string, rng *rand.Rand) (*cavity.Cavity, *Names, error) {
	sections, err := ParseFile(path)
	if err != nil {
		return nil, nil, err
	}
	return BuildSections(sections, rng)
}

// BuildSections constructs the assembly from parsed sections. Entities
// are created in declaration order: the order fixes both the name->index
// mapping and the state-vector layout.
func BuildSections(sections []*Section, rng *rand.Rand) (*cavity.Cavity, *Names, error) {
	var global *Section
	for _, s := range sections {
		if s.Type == "global" {
			global = s
			break
		}
	}

	if global != nil {
		if seedStr := global.Get("random_seed", ""); seedStr != "" && seedStr != "auto" {
			seed, err := strconv.ParseInt(seedStr, 10, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("config: invalid random_seed: %s", seedStr)
			}
			rng = rand.New(rand.NewSource(seed))
		}
	}

	names := &Names{
		polaritons: make(map[string]int),
		phonons:    make(map[string]int),
	}
	var polaritons []*cavity.Polariton
	var phonons []*cavity.Phonon

	// Phase 1: sites
	for _, s := range byType(sections, "polariton") {
		gamma, err := evalKey(s, "gamma", 1.0, rng)
		if err != nil {
			return nil, nil, err
		}
		u, err := evalKey(s, "U", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
		p := cavity.NewPolariton(gamma, u)

		re, err := evalKey(s, "initial_real", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
		im, err := evalKey(s, "initial_imag", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
		p.Value = complex(re, im)

		driveRe, err := evalKey(s, "drive_real", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
		driveIm, err := evalKey(s, "drive_imag", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
		driveDet, err := evalKey(s, "drive_detuning", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
		if driveRe != 0 || driveIm != 0 {
			p.SetDriving(complex(driveRe, driveIm), driveDet)
		}

		names.polaritons[s.Name] = len(polaritons)
		polaritons = append(polaritons, p)
	}

	// Phase 2: phonons
	for _, s := range byType(sections, "phonon") {
		omega, err := evalKey(s, "omega", 20.0, rng)
		if err != nil {
			return nil, nil, err
		}
		gamma, err := evalKey(s, "gamma", 0.05, rng)
		if err != nil {
			return nil, nil, err
		}
		ph := cavity.NewPhonon(omega, gamma)

		ph.Position, err = evalKey(s, "initial_position", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
		ph.Velocity, err = evalKey(s, "initial_velocity", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}

		names.phonons[s.Name] = len(phonons)
		phonons = append(phonons, ph)
	}

	// Phase 3: reservoirs
	for _, s := range byType(sections, "reservoir") {
		target := s.Get("target", "")
		id, ok := names.polaritons[target]
		if !ok {
			return nil, nil, fmt.Errorf("config: reservoir target not found: %s", target)
		}

		coupling, err := evalKey(s, "coupling", 1.0, rng)
		if err != nil {
			return nil, nil, err
		}
		tau, err := evalKey(s, "tau", 1.0, rng)
		if err != nil {
			return nil, nil, err
		}
		power, err := evalKey(s, "power", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
		// the file stores alpha^2
		alphaSq, err := evalKey(s, "alpha", 1.0, rng)
		if err != nil {
			return nil, nil, err
		}
		n0, err := evalKey(s, "n0", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}

		polaritons[id].AddReservoir(coupling, tau, power, math.Sqrt(alphaSq), n0)
	}

	// Phase 4: couplings
	for _, s := range byType(sections, "coupling") {
		fromID, ok := names.polaritons[s.Get("from", "")]
		if !ok {
			return nil, nil, fmt.Errorf("config: coupling 'from' not found: %s", s.Get("from", ""))
		}
		toID, ok := names.polaritons[s.Get("to", "")]
		if !ok {
			return nil, nil, fmt.Errorf("config: coupling 'to' not found: %s", s.Get("to", ""))
		}
		phID, ok := names.phonons[s.Get("phonon", "")]
		if !ok {
			return nil, nil, fmt.Errorf("config: coupling phonon not found: %s", s.Get("phonon", ""))
		}

		j, err := evalKey(s, "J", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
		g, err := evalKey(s, "g", 1.0, rng)
		if err != nil {
			return nil, nil, err
		}
		delta, err := evalKey(s, "delta", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
		above := s.GetBool("above", true)

		polaritons[fromID].Connect(toID, phID, j, g, delta, above)
	}

	// Phase 5: pairings
	for _, s := range byType(sections, "pairing") {
		phID, ok := names.phonons[s.Get("phonon", "")]
		if !ok {
			return nil, nil, fmt.Errorf("config: pairing phonon not found: %s", s.Get("phonon", ""))
		}

		sites := strings.SplitN(s.Get("sites", ""), ",", 2)
		if len(sites) != 2 {
			return nil, nil, fmt.Errorf("config: pairing %q: sites must be two comma-separated names", s.Name)
		}
		a := strings.TrimSpace(sites[0])
		b := strings.TrimSpace(sites[1])

		aID, ok := names.polaritons[a]
		if !ok {
			return nil, nil, fmt.Errorf("config: pairing site not found: %s", a)
		}
		bID, ok := names.polaritons[b]
		if !ok {
			return nil, nil, fmt.Errorf("config: pairing site not found: %s", b)
		}

		g, err := evalKey(s, "g", 1.0, rng)
		if err != nil {
			return nil, nil, err
		}
		delta, err := evalKey(s, "delta", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}

		phonons[phID].AddPairing(aID, bID, delta, g)
	}

	t0 := 0.0
	if global != nil {
		var err error
		t0, err = evalKey(global, "time", 0.0, rng)
		if err != nil {
			return nil, nil, err
		}
	}

	cav, err := cavity.New(polaritons, phonons, t0)
	if err != nil {
		return nil, nil, err
	}
	return cav, names, nil
}

func byType(sections []*Section, typ string) []*Section {
	var out []*Section
	for _, s := range sections {
		if s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}
