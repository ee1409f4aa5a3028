package cavity

// Link is one directed coupling from a polariton to a neighbor, mediated
// by a phonon mode. Neighbor and Phonon are arena indices into the owning
// Cavity. Above selects the sign of the rotating-frame phase: true means
// the neighbor sits above resonance (+1), false below (-1).
type Link struct {
	Neighbor int
	Phonon   int
	J        float64 // constant coupling
	G        float64 // phonon-mediated coupling
	Delta    float64 // detuning from the phonon resonance
	Above    bool
}

func (l Link) sign() float64 {
	if l.Above {
		return 1.0
	}
	return -1.0
}

// Polariton is a driven-dissipative complex-amplitude mode.
type Polariton struct {
	Value complex128
	Gamma float64 // dissipation rate
	U     float64 // self-interaction (Kerr nonlinearity)

	DriveAmp      complex128
	DriveDetuning float64

	Reservoir         *Reservoir // nil when the site is not pumped
	ReservoirCoupling float64

	Links []Link
}

func NewPolariton(gamma, u float64) *Polariton {
	return &Polariton{Gamma: gamma, U: u}
}

// Connect adds a directed coupling to the polariton at arena index
// neighbor, mediated by the phonon at arena index phonon. Directed:
// connecting A to B does not connect B to A.
func (p *Polariton) Connect(neighbor, phonon int, j, g, delta float64, above bool) {
	p.Links = append(p.Links, Link{
		Neighbor: neighbor,
		Phonon:   phonon,
		J:        j,
		G:        g,
		Delta:    delta,
		Above:    above,
	})
}

// SetDriving sets the resonant drive amplitude and its detuning.
func (p *Polariton) SetDriving(amp complex128, detuning float64) {
	p.DriveAmp = amp
	p.DriveDetuning = detuning
}

// AddReservoir attaches a non-resonant pump reservoir. At most one
// reservoir per site; a second call replaces the first.
func (p *Polariton) AddReservoir(coupling, tau, power, alpha, n0 float64) {
	p.Reservoir = &Reservoir{
		Value:    n0,
		Coupling: coupling,
		Tau:      tau,
		Power:    power,
		Alpha:    alpha,
	}
	p.ReservoirCoupling = coupling
}
