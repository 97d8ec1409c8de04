package integrators

import (
	"math"

	"github.com/n1o1-labs/nodyn/internal/pk"
)

// Dormand-Prince coefficients (RK45)
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

// RK45 is an adaptive Dormand-Prince integrator with an embedded
// 4th-order error estimate. Rejected steps are retried with a smaller
// h, so an accepted step always satisfies the tolerance.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64

	// MaxStep caps the step size (0 means uncapped). Callers with
	// short forcing pulses set this below the pulse width so a pulse
	// can never be stepped over.
	MaxStep float64

	// MinStep is the underflow threshold; shrinking below it aborts
	// the run with a *pk.NumericalError.
	MinStep float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		MinStep:  1e-12,
	}
}

// attempt computes one trial step of size h and the scaled error ratio
// (<= 1 means the step meets tol).
func (r *RK45) attempt(sys pk.System, x pk.State, t, h, tol float64) (pk.State, float64) {
	n := len(x)

	k1 := sys.Derivative(x, t)

	x2 := make(pk.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + h*b21*k1[i]
	}
	k2 := sys.Derivative(x2, t+a2*h)

	x3 := make(pk.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derivative(x3, t+a3*h)

	x4 := make(pk.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derivative(x4, t+a4*h)

	x5 := make(pk.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derivative(x5, t+a5*h)

	x6 := make(pk.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derivative(x6, t+h)

	xNew := make(pk.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := sys.Derivative(xNew, t+h)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(h*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return xNew, errMax / tol
}

// Step advances by h, retrying internally until the error tolerance is
// met. It returns the accepted state, the step size actually taken, and
// the suggested next step size.
func (r *RK45) Step(sys pk.System, x pk.State, t, h, tol float64) (pk.State, float64, float64, error) {
	for {
		xNew, errRatio := r.attempt(sys, x, t, h, tol)

		if !xNew.IsValid() {
			return nil, 0, 0, &pk.NumericalError{Time: t, Step: h, Message: "state is NaN or Inf"}
		}

		if errRatio <= 1 {
			var hNext float64
			if errRatio > 0 {
				hNext = h * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			} else {
				hNext = h * r.maxScale
			}
			if r.MaxStep > 0 && hNext > r.MaxStep {
				hNext = r.MaxStep
			}
			return xNew, h, hNext, nil
		}

		h *= math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		if h < r.MinStep {
			return nil, 0, 0, &pk.NumericalError{Time: t, Step: h, Message: "step size underflow"}
		}
	}
}

// SolveGrid integrates sys from x0 across grid, which must be strictly
// increasing, and returns the state at every grid time. Steps are
// clamped so the solver lands exactly on each grid point. Any failure
// surfaces as a *pk.NumericalError; no partial series is returned.
func (r *RK45) SolveGrid(sys pk.System, x0 pk.State, grid []float64, tol float64) ([]pk.State, error) {
	if len(grid) < 2 {
		return nil, &pk.ValidationError{Field: "grid", Message: "need at least 2 samples"}
	}

	out := make([]pk.State, len(grid))
	out[0] = x0.Clone()

	x := x0.Clone()
	t := grid[0]
	h := grid[1] - grid[0]
	if r.MaxStep > 0 && h > r.MaxStep {
		h = r.MaxStep
	}

	for i := 1; i < len(grid); i++ {
		target := grid[i]
		for t < target {
			trial := h
			hitTarget := false
			if t+trial >= target {
				trial = target - t
				hitTarget = true
			}

			xNew, hUsed, hNext, err := r.Step(sys, x, t, trial, tol)
			if err != nil {
				return nil, err
			}

			x = xNew
			if hitTarget && hUsed == trial {
				t = target
			} else {
				t += hUsed
			}
			h = hNext
		}
		out[i] = x.Clone()
	}

	return out, nil
}
