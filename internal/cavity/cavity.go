package cavity

import (
	"fmt"
	"math/cmplx"

	"github.com/m-ruiz/polsim/internal/integrators"
	"github.com/m-ruiz/polsim/internal/ode"
)

// DefaultTimeStep seeds the adaptive stepper before its first accepted
// step has been remembered.
const DefaultTimeStep = 1e-3

// Cavity owns the entity arena and the flat state vector over it.
//
// The flattening order is fixed and identical for Pack and Unpack:
// polaritons first (re, im pairs, creation order), then phonons
// (position, velocity pairs, creation order), then one scalar per
// reservoir in the order their owning polaritons were created, skipping
// unpumped sites. The vector dimension is 2p + 2m + r and never changes
// after construction.
type Cavity struct {
	polaritons []*Polariton
	phonons    []*Phonon

	state ode.State
	t     float64
	dim   int

	// last accepted adaptive step size, retried on the next call
	usedDt float64

	rk4   *integrators.RK4
	dopri *integrators.DoPri5
}

// New builds the assembly from a fully wired entity graph. Every link and
// pairing index is validated against the arena before any integration can
// begin; a violation is a structural configuration error.
func New(polaritons []*Polariton, phonons []*Phonon, t0 float64) (*Cavity, error) {
	c := &Cavity{
		polaritons: polaritons,
		phonons:    phonons,
		t:          t0,
		usedDt:     DefaultTimeStep,
		rk4:        integrators.NewRK4(),
		dopri:      integrators.NewDoPri5(),
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	n := 2*len(polaritons) + 2*len(phonons)
	for _, p := range polaritons {
		if p.Reservoir != nil {
			n++
		}
	}
	c.dim = n
	c.state = make(ode.State, n)
	c.Pack()

	return c, nil
}

func (c *Cavity) validate() error {
	np, nph := len(c.polaritons), len(c.phonons)
	for i, p := range c.polaritons {
		for j, l := range p.Links {
			if l.Neighbor < 0 || l.Neighbor >= np {
				return fmt.Errorf("cavity: polariton %d link %d: neighbor index %d out of range [0,%d)", i, j, l.Neighbor, np)
			}
			if l.Phonon < 0 || l.Phonon >= nph {
				return fmt.Errorf("cavity: polariton %d link %d: phonon index %d out of range [0,%d)", i, j, l.Phonon, nph)
			}
		}
	}
	for i, ph := range c.phonons {
		for j, pr := range ph.Pairings {
			if pr.A < 0 || pr.A >= np || pr.B < 0 || pr.B >= np {
				return fmt.Errorf("cavity: phonon %d pairing %d: site indices (%d,%d) out of range [0,%d)", i, j, pr.A, pr.B, np)
			}
		}
	}
	return nil
}

// Pack writes every entity's state into the flat vector at its fixed
// offset. Called once at construction and again after any out-of-band
// entity mutation.
func (c *Cavity) Pack() {
	idx := 0
	for _, p := range c.polaritons {
		c.state[idx] = real(p.Value)
		c.state[idx+1] = imag(p.Value)
		idx += 2
	}
	for _, ph := range c.phonons {
		c.state[idx] = ph.Position
		c.state[idx+1] = ph.Velocity
		idx += 2
	}
	for _, p := range c.polaritons {
		if p.Reservoir != nil {
			c.state[idx] = p.Reservoir.Value
			idx++
		}
	}
}

// Unpack writes vector entries back into entity fields, in the exact
// inverse order of Pack.
func (c *Cavity) Unpack(x ode.State) {
	idx := 0
	for _, p := range c.polaritons {
		p.Value = complex(x[idx], x[idx+1])
		idx += 2
	}
	for _, ph := range c.phonons {
		ph.Position = x[idx]
		ph.Velocity = x[idx+1]
		idx += 2
	}
	for _, p := range c.polaritons {
		if p.Reservoir != nil {
			p.Reservoir.Value = x[idx]
			idx++
		}
	}
}

// Derive implements ode.System. It unpacks x into the entities, evaluates
// every entity derivative in pack order, and writes the results at the
// matching offsets. Entity fields hold transient values afterwards; they
// are overwritten on the next unpack, so adaptive steppers may call this
// repeatedly at perturbed states.
func (c *Cavity) Derive(x ode.State, t float64) ode.State {
	c.Unpack(x)
	dxdt := make(ode.State, c.dim)

	idx := 0
	for _, p := range c.polaritons {
		d := c.polaritonDerivative(p, t)
		dxdt[idx] = real(d)
		dxdt[idx+1] = imag(d)
		idx += 2
	}
	for _, ph := range c.phonons {
		dxdt[idx] = ph.Velocity
		dxdt[idx+1] = c.phononSecondDerivative(ph, t)
		idx += 2
	}
	for _, p := range c.polaritons {
		if p.Reservoir != nil {
			inten := real(p.Value * cmplx.Conj(p.Value))
			dxdt[idx] = p.Reservoir.Derivative(inten)
			idx++
		}
	}

	return dxdt
}

// polaritonDerivative evaluates d(psi)/dt for one site:
//
//	-i * [ psi*(-i*gamma + U|psi|^2 + i*g_R*n) + F*e^{i*delta_d*t}
//	       + sum_links (J + g*x_ph) * e^{i*s*(Omega+delta)*t} * psi_nb ]
//
// The per-link phase rotates at the mediating phonon's own frequency plus
// detuning; the sign s is +1 for links above resonance, -1 below.
func (c *Cavity) polaritonDerivative(p *Polariton, t float64) complex128 {
	res := 0.0
	if p.Reservoir != nil {
		res = p.Reservoir.Value
	}
	inten := real(p.Value * cmplx.Conj(p.Value))

	drv := p.Value*complex(p.U*inten, p.ReservoirCoupling*res-p.Gamma) +
		p.DriveAmp*cmplx.Rect(1.0, p.DriveDetuning*t)

	for _, l := range p.Links {
		ph := c.phonons[l.Phonon]
		phase := l.sign() * (ph.Omega + l.Delta) * t
		drv += complex(l.J+l.G*ph.Position, 0) * cmplx.Rect(1.0, phase) *
			c.polaritons[l.Neighbor].Value
	}

	return drv * complex(0, -1)
}

// phononSecondDerivative evaluates the mechanical acceleration: a damped
// harmonic restoring force plus the back-action of each paired polariton
// couple, phase-locked to the mode's own frequency.
func (c *Cavity) phononSecondDerivative(ph *Phonon, t float64) float64 {
	drv := -ph.Omega*ph.Omega*ph.Position - ph.Damping*ph.Velocity

	var backaction complex128
	for _, pr := range ph.Pairings {
		phase := cmplx.Rect(1.0, -(ph.Omega+pr.Delta)*t)
		backaction += complex(pr.G, 0) *
			c.polaritons[pr.A].Value *
			cmplx.Conj(c.polaritons[pr.B].Value) *
			phase
	}

	drv += -2.0 * ph.Omega * ph.Damping * real(backaction)
	return drv
}

// Dim implements ode.System.
func (c *Cavity) Dim() int { return c.dim }

// Step advances state and time by exactly dt with the fixed RK4 stepper.
// Entities hold the post-step state afterwards.
func (c *Cavity) Step(dt float64) {
	c.StepWith(c.rk4, dt)
}

// StepWith advances state and time by exactly dt using the supplied
// fixed stepper.
func (c *Cavity) StepWith(s ode.Stepper, dt float64) {
	newX := s.Step(c, c.state, c.t, dt)
	copy(c.state, newX)
	c.t += dt
	c.usedDt = dt
	c.Unpack(c.state)
}

// AdaptiveStep performs one error-controlled Dormand-Prince step at the
// remembered step size. Rejections are retried internally; repeated calls
// self-tune toward an efficient step size. Fails only when the stepper
// cannot find an acceptable step above its minimum.
func (c *Cavity) AdaptiveStep() error {
	newX, used, next, err := c.dopri.TryStep(c, c.state, c.t, c.usedDt)
	if err != nil {
		return fmt.Errorf("cavity: adaptive step at t=%.6g: %w", c.t, err)
	}
	copy(c.state, newX)
	c.t += used
	c.usedDt = next
	c.Unpack(c.state)
	return nil
}

// SetTolerances overrides the adaptive stepper's absolute and relative
// error tolerances (both default 1e-6).
func (c *Cavity) SetTolerances(abs, rel float64) {
	c.dopri.AbsTol = abs
	c.dopri.RelTol = rel
}

// State returns the flat state vector. The slice is a view into the
// assembly's storage and must not be modified by the caller.
func (c *Cavity) State() ode.State { return c.state }

func (c *Cavity) Time() float64 { return c.t }

// TimeStep returns the last used (fixed) or last accepted (adaptive)
// step size.
func (c *Cavity) TimeStep() float64 { return c.usedDt }

func (c *Cavity) NumPolaritons() int { return len(c.polaritons) }
func (c *Cavity) NumPhonons() int    { return len(c.phonons) }

// NumReservoirs counts pumped sites.
func (c *Cavity) NumReservoirs() int {
	n := 0
	for _, p := range c.polaritons {
		if p.Reservoir != nil {
			n++
		}
	}
	return n
}

// Polariton returns the site at index i.
func (c *Cavity) Polariton(i int) (*Polariton, error) {
	if i < 0 || i >= len(c.polaritons) {
		return nil, fmt.Errorf("cavity: polariton index %d out of range [0,%d): %w", i, len(c.polaritons), ode.ErrIndexRange)
	}
	return c.polaritons[i], nil
}

// Phonon returns the mechanical mode at index i.
func (c *Cavity) Phonon(i int) (*Phonon, error) {
	if i < 0 || i >= len(c.phonons) {
		return nil, fmt.Errorf("cavity: phonon index %d out of range [0,%d): %w", i, len(c.phonons), ode.ErrIndexRange)
	}
	return c.phonons[i], nil
}
