package cavity

// Pairing couples a phonon mode to the coherent beat note of two
// polaritons. A and B are arena indices; the back-action force is
// proportional to Re[psi_A * conj(psi_B)] rotated at the phonon frequency
// plus Delta.
type Pairing struct {
	A, B  int
	Delta float64
	G     float64
}

// Phonon is a damped harmonic mechanical mode.
type Phonon struct {
	Position float64
	Velocity float64
	Omega    float64 // natural frequency
	Damping  float64

	Pairings []Pairing
}

func NewPhonon(omega, damping float64) *Phonon {
	return &Phonon{Omega: omega, Damping: damping}
}

// AddPairing registers the polariton pair (a, b) as a back-action source.
func (ph *Phonon) AddPairing(a, b int, delta, g float64) {
	ph.Pairings = append(ph.Pairings, Pairing{A: a, B: b, Delta: delta, G: g})
}
