package ode

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is the ODE vector field dX/dt = f(X, t). Derive must be pure with
// respect to the integrator: calling it twice with the same (x, t) yields
// the same output, and adaptive steppers may evaluate it several times per
// accepted step at perturbed states and times.
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

// Stepper advances a state by exactly dt. It never fails; step-size
// stability is the caller's responsibility.
type Stepper interface {
	Step(sys System, x State, t float64, dt float64) State
}

// AdaptiveStepper attempts a single error-controlled step of size dt.
// Rejected attempts are retried internally at reduced dt; on success it
// returns the accepted state, the step size actually taken, and the step
// size to try next. The returned error is non-nil only when no acceptable
// step exists above the minimum step size.
type AdaptiveStepper interface {
	Stepper
	TryStep(sys System, x State, t, dt float64) (next State, used, dtNext float64, err error)
}

// Metric accumulates a scalar observable over sampled states.
type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

// Observer receives every sampled state, e.g. a trajectory recorder.
type Observer interface {
	OnStep(x State, t float64)
}
