package integrators

import "github.com/n1o1-labs/nodyn/internal/pk"

// RK4 is the classic fixed-step Runge-Kutta integrator. It has no error
// control; it exists as an accuracy cross-check for the adaptive solver.
type RK4 struct {
	k1, k2, k3, k4 pk.State
	scratch        pk.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(pk.State, n)
		r.k2 = make(pk.State, n)
		r.k3 = make(pk.State, n)
		r.k4 = make(pk.State, n)
		r.scratch = make(pk.State, n)
	}
}

func (r *RK4) Step(sys pk.System, x pk.State, t, dt float64) pk.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, sys.Derivative(x, t))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, sys.Derivative(r.scratch, t+dt*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	copy(r.k3, sys.Derivative(r.scratch, t+dt*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	copy(r.k4, sys.Derivative(r.scratch, t+dt))

	result := make(pk.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}
