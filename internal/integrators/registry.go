package integrators

import (
	"fmt"

	"github.com/m-ruiz/polsim/internal/ode"
)

// New returns a stepper by name. Names match the CLI and sweep settings.
func New(name string) (ode.Stepper, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "rk4":
		return NewRK4(), nil
	case "dopri5":
		return NewDoPri5(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}

// Names lists the registered stepper names.
func Names() []string {
	return []string{"euler", "rk4", "dopri5"}
}
