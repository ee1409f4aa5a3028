package observables

import (
	"math"
	"testing"

	"github.com/m-ruiz/polsim/internal/cavity"
	"github.com/m-ruiz/polsim/internal/ode"
)

func testCavity(t *testing.T) *cavity.Cavity {
	t.Helper()

	a := cavity.NewPolariton(1, 0)
	b := cavity.NewPolariton(1, 0)
	b.AddReservoir(1, 1, 0, 1, 0)
	ph := cavity.NewPhonon(20, 0.05)

	cav, err := cavity.New([]*cavity.Polariton{a, b}, []*cavity.Phonon{ph}, 0)
	if err != nil {
		t.Fatal(err)
	}
	return cav
}

func TestOffsets(t *testing.T) {
	cav := testCavity(t)

	// layout: [re0 im0 re1 im1 pos0 vel0 res0]
	x := ode.State{3, 4, 1, 2, 5, 9, 7}

	m := NewIntensity(cav, 1)
	m.Observe(x, 0)
	if got := m.Value(); got != 1*1+2*2 {
		t.Errorf("intensity of site 1: got %v, want 5", got)
	}

	p := NewPhononSq(cav, 0)
	p.Observe(x, 0)
	if got := p.Value(); got != 25 {
		t.Errorf("phonon squared displacement: got %v, want 25", got)
	}

	r := NewReservoirLevel(cav, 0)
	r.Observe(x, 0)
	if got := r.Value(); got != 7 {
		t.Errorf("reservoir level: got %v, want 7", got)
	}
}

func TestAveragingAndReset(t *testing.T) {
	cav := testCavity(t)
	m := NewIntensity(cav, 0)

	m.Observe(ode.State{1, 0, 0, 0, 0, 0, 0}, 0)
	m.Observe(ode.State{3, 0, 0, 0, 0, 0, 0}, 1)
	if got := m.Value(); math.Abs(got-5.0) > 1e-15 {
		t.Errorf("average of 1 and 9: got %v, want 5", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("value after reset: got %v", m.Value())
	}
}

func TestDefaultSet(t *testing.T) {
	cav := testCavity(t)
	metrics := Default(cav)

	want := []string{"intensity_0", "intensity_1", "phonon_sq_0", "reservoir_0"}
	if len(metrics) != len(want) {
		t.Fatalf("expected %d metrics, got %d", len(want), len(metrics))
	}
	for i, m := range metrics {
		if m.Name() != want[i] {
			t.Errorf("metric %d: got %q, want %q", i, m.Name(), want[i])
		}
	}
}
