package integrators

import (
	"math"

	"github.com/m-ruiz/polsim/internal/ode"
)

// Dormand-Prince 5(4) coefficients
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// DoPri5 is an embedded 4th/5th-order pair with local error control
// against absolute and relative tolerances. TryStep retries rejected
// attempts at reduced step size, so a single call is one accepted step.
type DoPri5 struct {
	AbsTol float64
	RelTol float64
	MinDt  float64

	safety   float64
	minScale float64
	maxScale float64
}

func NewDoPri5() *DoPri5 {
	return &DoPri5{
		AbsTol:   1e-6,
		RelTol:   1e-6,
		MinDt:    1e-14,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 5.0,
	}
}

// Step advances by exactly dt using the 5th-order solution, discarding the
// error estimate. Useful when the step size has been validated externally.
func (r *DoPri5) Step(sys ode.System, x ode.State, t, dt float64) ode.State {
	newX, _ := r.attempt(sys, x, t, dt)
	return newX
}

// TryStep attempts one controlled step of size dt. On excessive local
// error the attempt is rejected and retried at a reduced step size; on
// success it returns the new state, the step size actually taken, and the
// step size to try next call.
func (r *DoPri5) TryStep(sys ode.System, x ode.State, t, dt float64) (ode.State, float64, float64, error) {
	for {
		newX, errRatio := r.attempt(sys, x, t, dt)

		if errRatio <= 1 {
			var dtNext float64
			if errRatio > 0 {
				dtNext = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			} else {
				dtNext = dt * r.maxScale
			}
			return newX, dt, dtNext, nil
		}

		dt *= math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		if dt < r.MinDt {
			return nil, 0, dt, ode.ErrStepTooSmall
		}
	}
}

// attempt performs one embedded step and returns the 5th-order solution
// together with the error measure max_i |err_i| / scale_i, where
// scale_i = atol + rtol*(|x_i| + |dt*k1_i|). A value above 1 means reject.
func (r *DoPri5) attempt(sys ode.System, x ode.State, t, dt float64) (ode.State, float64) {
	n := len(x)

	k1 := sys.Derive(x, t)

	x2 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2 := sys.Derive(x2, t+a2*dt)

	x3 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derive(x3, t+a3*dt)

	x4 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derive(x4, t+a4*dt)

	x5 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derive(x5, t+a5*dt)

	x6 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derive(x6, t+dt)

	xNew := make(ode.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := sys.Derive(xNew, t+dt)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := r.AbsTol + r.RelTol*(math.Abs(x[i])+math.Abs(dt*k1[i]))
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return xNew, errMax
}
