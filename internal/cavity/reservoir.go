package cavity

// Reservoir is a slow scalar pump/gain variable owned by exactly one
// polariton. It relaxes toward Power/(1 + Alpha^2 * intensity) with rate
// Tau, where intensity is the owning polariton's |psi|^2.
type Reservoir struct {
	Value    float64
	Coupling float64
	Tau      float64
	Power    float64
	Alpha    float64 // saturation
}

// Derivative returns dn/dt given the owning polariton's intensity.
func (r *Reservoir) Derivative(intensity float64) float64 {
	return r.Tau * (r.Power - r.Value*(1.0+r.Alpha*r.Alpha*intensity))
}
