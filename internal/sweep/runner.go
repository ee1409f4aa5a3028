package sweep

import (
	"fmt"

	"github.com/m-ruiz/polsim/internal/cavity"
	"github.com/m-ruiz/polsim/internal/integrators"
	"github.com/m-ruiz/polsim/internal/ode"
)

// Runner advances one cavity trajectory, one unit of work per call:
// a fixed step of Dt, or one accepted adaptive step.
type Runner struct {
	cav      *cavity.Cavity
	stepper  ode.Stepper // nil in adaptive mode
	adaptive bool
	dt       float64
}

// NewRunner resolves the stepper name through the integrator registry.
// Adaptive steppers integrate under the settings' tolerances; fixed
// steppers take steps of exactly Dt.
func NewRunner(cav *cavity.Cavity, s *Settings) (*Runner, error) {
	r := &Runner{cav: cav, dt: s.Dt}

	name := s.Stepper
	if name == "" {
		name = "rk4"
	}
	st, err := integrators.New(name)
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}

	if _, ok := st.(ode.AdaptiveStepper); ok {
		r.adaptive = true
		cav.SetTolerances(s.AbsTol, s.RelTol)
	} else {
		r.stepper = st
		if r.dt <= 0 {
			return nil, fmt.Errorf("sweep: dt must be positive for fixed stepping, got %g", r.dt)
		}
	}
	return r, nil
}

func (r *Runner) Cavity() *cavity.Cavity { return r.cav }

// Advance performs one unit of work.
func (r *Runner) Advance() error {
	if r.adaptive {
		return r.cav.AdaptiveStep()
	}
	r.cav.StepWith(r.stepper, r.dt)
	return nil
}

// Transient integrates n units of work, discarding the trajectory.
func (r *Runner) Transient(n int) error {
	for i := 0; i < n; i++ {
		if err := r.Advance(); err != nil {
			return &ode.SimError{Step: i, Time: r.cav.Time(), Wrapped: err}
		}
	}
	return nil
}

// Stationary integrates n units of work, sampling the state every stride
// steps into the metrics and observers. The state is sampled before each
// step, matching the stationary-average convention of the sweep drivers.
func (r *Runner) Stationary(n, stride int, metrics []ode.Metric, observers ...ode.Observer) error {
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < n; i++ {
		if i%stride == 0 {
			x := r.cav.State()
			t := r.cav.Time()
			for _, m := range metrics {
				m.Observe(x, t)
			}
			for _, obs := range observers {
				obs.OnStep(x, t)
			}
		}
		if err := r.Advance(); err != nil {
			return &ode.SimError{Step: i, Time: r.cav.Time(), Wrapped: err}
		}
	}
	return nil
}
