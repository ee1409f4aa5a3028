package cavity

import (
	"errors"
	"math"
	"testing"

	"github.com/m-ruiz/polsim/internal/integrators"
	"github.com/m-ruiz/polsim/internal/ode"
)

// twoSite builds the standard two-site testbed: two polaritons coupled
// through one phonon, site 0 pumped by a reservoir.
func twoSite(t *testing.T) *Cavity {
	t.Helper()

	site1 := NewPolariton(1.0, 0.0)
	site2 := NewPolariton(1.0, 0.0)
	site1.Value = complex(0.3, -0.1)
	site2.Value = complex(-0.2, 0.7)
	site1.AddReservoir(1.0, 600, 6.0, math.Sqrt(3.25), 0.25)

	ph := NewPhonon(20.0, 0.05)
	ph.Position = 1.5
	ph.Velocity = -2.0

	site1.Connect(1, 0, 0.0, 1.0, 0.0, true)
	site2.Connect(0, 0, 0.0, 1.0, 0.0, false)
	ph.AddPairing(0, 1, 0.0, 1.0)

	cav, err := New([]*Polariton{site1, site2}, []*Phonon{ph}, 0.0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return cav
}

func TestStateLayout(t *testing.T) {
	cav := twoSite(t)

	// 2 polaritons, 1 phonon, 1 reservoir: 2*2 + 2*1 + 1
	if cav.Dim() != 7 {
		t.Fatalf("expected dimension 7, got %d", cav.Dim())
	}

	x := cav.State()
	want := []float64{0.3, -0.1, -0.2, 0.7, 1.5, -2.0, 0.25}
	for i, v := range want {
		if x[i] != v {
			t.Errorf("state[%d]: got %v, want %v", i, x[i], v)
		}
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	cav := twoSite(t)

	before := cav.State().Clone()
	cav.Unpack(before)
	cav.Pack()

	for i, v := range cav.State() {
		if v != before[i] {
			t.Errorf("state[%d] changed after unpack/pack: %v != %v", i, v, before[i])
		}
	}

	// mutated vector round-trips through the entities as well
	mutated := before.Clone()
	for i := range mutated {
		mutated[i] += float64(i) * 0.01
	}
	cav.Unpack(mutated)
	cav.Pack()
	for i, v := range cav.State() {
		if v != mutated[i] {
			t.Errorf("state[%d]: got %v, want %v", i, v, mutated[i])
		}
	}
}

func TestReservoirPackingOrder(t *testing.T) {
	// reservoirs on sites 0 and 2 only; slots follow site creation order
	a := NewPolariton(1, 0)
	b := NewPolariton(1, 0)
	c := NewPolariton(1, 0)
	a.AddReservoir(1, 1, 0, 1, 0.5)
	c.AddReservoir(1, 1, 0, 1, 0.9)

	cav, err := New([]*Polariton{a, b, c}, nil, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cav.Dim() != 2*3+2 {
		t.Fatalf("expected dimension 8, got %d", cav.Dim())
	}
	x := cav.State()
	if x[6] != 0.5 || x[7] != 0.9 {
		t.Errorf("reservoir slots out of order: got %v, %v", x[6], x[7])
	}
}

func TestDerivePure(t *testing.T) {
	cav := twoSite(t)
	x := cav.State().Clone()

	d1 := cav.Derive(x, 0.37)
	d2 := cav.Derive(x, 0.37)

	for i := range d1 {
		if d1[i] != d2[i] {
			t.Errorf("component %d differs between evaluations: %v != %v", i, d1[i], d2[i])
		}
	}
}

func TestUncoupledPolaritonDerivative(t *testing.T) {
	// J = g = 0 reduces each site to -i*value*(-i*gamma + U*|value|^2);
	// gamma=1, U=0, value=1 gives exactly -1 at t=0.
	site1 := NewPolariton(1.0, 0.0)
	site2 := NewPolariton(1.0, 0.0)
	site1.Value = complex(1, 0)
	site2.Value = complex(1, 0)
	ph := NewPhonon(20.0, 0.05)
	site1.Connect(1, 0, 0.0, 0.0, 0.0, true)
	site2.Connect(0, 0, 0.0, 0.0, 0.0, false)

	cav, err := New([]*Polariton{site1, site2}, []*Phonon{ph}, 0.0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	d := cav.Derive(cav.State(), 0.0)
	if math.Abs(d[0]-(-1.0)) > 1e-15 || math.Abs(d[1]) > 1e-15 {
		t.Errorf("site 1 derivative: got (%v, %v), want (-1, 0)", d[0], d[1])
	}
}

func TestPhononDecoupled(t *testing.T) {
	// zero pairing coupling: accel = -Omega^2*x - Gamma*v
	site1 := NewPolariton(1, 0)
	site2 := NewPolariton(1, 0)
	site1.Value = complex(1, 0)
	site2.Value = complex(1, 0)

	ph := NewPhonon(20.0, 0.05)
	ph.Position = 1.0
	ph.Velocity = 0.0
	ph.AddPairing(0, 1, 0.0, 0.0)

	cav, err := New([]*Polariton{site1, site2}, []*Phonon{ph}, 0.0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	d := cav.Derive(cav.State(), 0.0)
	// phonon occupies components 4 (velocity) and 5 (acceleration)
	if d[4] != 0.0 {
		t.Errorf("position derivative: got %v, want 0", d[4])
	}
	if math.Abs(d[5]-(-400.0)) > 1e-12 {
		t.Errorf("acceleration: got %v, want -400", d[5])
	}
}

func TestReservoirDerivative(t *testing.T) {
	r := &Reservoir{Value: 2.0, Tau: 0.5, Power: 10.0, Alpha: 3.0}
	// tau * (power - value*(1 + alpha^2 * intensity))
	got := r.Derivative(0.25)
	want := 0.5 * (10.0 - 2.0*(1.0+9.0*0.25))
	if math.Abs(got-want) > 1e-15 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLinkSignConvention(t *testing.T) {
	if (Link{Above: true}).sign() != 1.0 {
		t.Error("above link must carry sign +1")
	}
	if (Link{Above: false}).sign() != -1.0 {
		t.Error("below link must carry sign -1")
	}
}

func TestValidationRejectsBadIndices(t *testing.T) {
	p := NewPolariton(1, 0)
	p.Connect(5, 0, 0, 1, 0, true)

	if _, err := New([]*Polariton{p}, []*Phonon{NewPhonon(20, 0.05)}, 0); err == nil {
		t.Fatal("expected error for out-of-range neighbor index")
	}

	ph := NewPhonon(20, 0.05)
	ph.AddPairing(0, 3, 0, 1)
	if _, err := New([]*Polariton{NewPolariton(1, 0)}, []*Phonon{ph}, 0); err == nil {
		t.Fatal("expected error for out-of-range pairing index")
	}
}

func TestGetterBounds(t *testing.T) {
	cav := twoSite(t)

	if _, err := cav.Polariton(2); !errors.Is(err, ode.ErrIndexRange) {
		t.Errorf("expected ErrIndexRange, got %v", err)
	}
	if _, err := cav.Phonon(-1); !errors.Is(err, ode.ErrIndexRange) {
		t.Errorf("expected ErrIndexRange, got %v", err)
	}
	if _, err := cav.Polariton(0); err != nil {
		t.Errorf("unexpected error for valid index: %v", err)
	}
}

func TestFixedStepAdvances(t *testing.T) {
	cav := twoSite(t)

	t0 := cav.Time()
	x0 := cav.State().Clone()
	cav.Step(0.005)

	if cav.Time() != t0+0.005 {
		t.Errorf("time: got %v, want %v", cav.Time(), t0+0.005)
	}
	if cav.TimeStep() != 0.005 {
		t.Errorf("remembered step: got %v, want 0.005", cav.TimeStep())
	}

	moved := false
	for i, v := range cav.State() {
		if v != x0[i] {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("state unchanged after step")
	}

	// entities hold the post-step state
	site, _ := cav.Polariton(0)
	if real(site.Value) != cav.State()[0] || imag(site.Value) != cav.State()[1] {
		t.Error("entities not unpacked after step")
	}
}

func TestStepWithSuppliedStepper(t *testing.T) {
	cav := twoSite(t)

	x0 := cav.State().Clone()
	cav.StepWith(integrators.NewEuler(), 0.002)

	if cav.Time() != 0.002 {
		t.Errorf("time: got %v, want 0.002", cav.Time())
	}
	if cav.TimeStep() != 0.002 {
		t.Errorf("remembered step: got %v, want 0.002", cav.TimeStep())
	}

	moved := false
	for i, v := range cav.State() {
		if v != x0[i] {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("state unchanged after step")
	}
}

func TestAdaptiveStepAdvances(t *testing.T) {
	cav := twoSite(t)

	t0 := cav.Time()
	for i := 0; i < 50; i++ {
		if err := cav.AdaptiveStep(); err != nil {
			t.Fatalf("adaptive step %d failed: %v", i, err)
		}
	}

	if cav.Time() <= t0 {
		t.Error("time did not advance")
	}
	if !cav.State().IsValid() {
		t.Error("adaptive integration produced invalid state")
	}
}
