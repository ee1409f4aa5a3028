// Package ode provides core primitives for numerical integration of
// ordinary differential equations.
//
// The package defines the fundamental interfaces and types shared by the
// cavity assembly and the steppers:
//
//   - [State]: flat real vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Stepper]: fixed-step numerical integrator interface
//   - [AdaptiveStepper]: error-controlled integrator interface
//   - [Metric]: time-averaged observable accumulated while sampling
//
// # Example
//
//	cav, _ := cavity.New(sites, phonons, 0.0)
//	for i := 0; i < 1000; i++ {
//		cav.Step(0.005) // advances state and time together
//	}
//
// A stepper can also be driven directly against the raw vector; the
// caller then owns the clock:
//
//	step, _ := integrators.New("rk4")
//	x := step.Step(cav, cav.State(), cav.Time(), 0.005)
//
// # Thread Safety
//
// Systems and steppers are NOT thread-safe. A trajectory is evolved by
// exactly one goroutine; the derivative of one entity may read another
// entity's current value, so the vector field must never be evaluated
// concurrently on the same assembly.
package ode
