// Package cavity models a driven-dissipative network of polariton modes
// parametrically coupled to phonon modes, with optional slow reservoir
// (pump/gain) dynamics per site.
//
// Entities live in an arena owned by [Cavity] and reference each other by
// stable integer index, never by pointer:
//
//   - [Polariton]: complex amplitude with local damping, nonlinearity,
//     resonant drive and directed couplings to neighbors mediated by a
//     phonon mode
//   - [Phonon]: damped harmonic oscillator driven by the coherent beat
//     note of the polariton pairs it is paired with
//   - [Reservoir]: slow scalar gain variable feeding one polariton
//
// The assembly flattens all entity state into a single real vector
// (polaritons as re/im pairs, then phonons as position/velocity pairs,
// then one scalar per reservoir, each group in creation order) and exposes
// the ODE vector field over it. Two stepping strategies drive the same
// field: a fixed RK4 step and a Dormand-Prince 5(4) controlled step that
// remembers its last accepted step size across calls.
package cavity
