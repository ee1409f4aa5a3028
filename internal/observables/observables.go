// Package observables provides time-averaged quantities accumulated from
// sampled state vectors during the stationary phase of a run.
package observables

import (
	"fmt"

	"github.com/m-ruiz/polsim/internal/cavity"
	"github.com/m-ruiz/polsim/internal/ode"
)

// Intensity averages |psi|^2 of one polariton site.
type Intensity struct {
	name    string
	offset  int
	total   float64
	samples int
}

func NewIntensity(cav *cavity.Cavity, site int) *Intensity {
	return &Intensity{
		name:   fmt.Sprintf("intensity_%d", site),
		offset: 2 * site,
	}
}

func (m *Intensity) Name() string { return m.name }

func (m *Intensity) Observe(x ode.State, t float64) {
	re, im := x[m.offset], x[m.offset+1]
	m.total += re*re + im*im
	m.samples++
}

func (m *Intensity) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *Intensity) Reset() {
	m.total = 0
	m.samples = 0
}

// PhononSq averages the squared displacement of one phonon mode.
type PhononSq struct {
	name    string
	offset  int
	total   float64
	samples int
}

func NewPhononSq(cav *cavity.Cavity, index int) *PhononSq {
	return &PhononSq{
		name:   fmt.Sprintf("phonon_sq_%d", index),
		offset: 2*cav.NumPolaritons() + 2*index,
	}
}

func (m *PhononSq) Name() string { return m.name }

func (m *PhononSq) Observe(x ode.State, t float64) {
	pos := x[m.offset]
	m.total += pos * pos
	m.samples++
}

func (m *PhononSq) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *PhononSq) Reset() {
	m.total = 0
	m.samples = 0
}

// ReservoirLevel averages the slot-th reservoir scalar (reservoir slots
// follow the creation order of their owning sites).
type ReservoirLevel struct {
	name    string
	offset  int
	total   float64
	samples int
}

func NewReservoirLevel(cav *cavity.Cavity, slot int) *ReservoirLevel {
	return &ReservoirLevel{
		name:   fmt.Sprintf("reservoir_%d", slot),
		offset: 2*cav.NumPolaritons() + 2*cav.NumPhonons() + slot,
	}
}

func (m *ReservoirLevel) Name() string { return m.name }

func (m *ReservoirLevel) Observe(x ode.State, t float64) {
	m.total += x[m.offset]
	m.samples++
}

func (m *ReservoirLevel) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *ReservoirLevel) Reset() {
	m.total = 0
	m.samples = 0
}

// Default builds the standard set for a cavity: one intensity per site,
// one squared displacement per phonon, one level per reservoir. The slice
// order matches the state-vector layout, so sweep output columns are
// stable.
func Default(cav *cavity.Cavity) []ode.Metric {
	var out []ode.Metric
	for i := 0; i < cav.NumPolaritons(); i++ {
		out = append(out, NewIntensity(cav, i))
	}
	for i := 0; i < cav.NumPhonons(); i++ {
		out = append(out, NewPhononSq(cav, i))
	}
	for i := 0; i < cav.NumReservoirs(); i++ {
		out = append(out, NewReservoirLevel(cav, i))
	}
	return out
}
