package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/n1o1-labs/nodyn/internal/pk"
)

// decay is dx/dt = -x with the closed form x(t) = x0 * e^(-t).
type decay struct{}

func (decay) Derivative(x pk.State, t float64) pk.State {
	return pk.State{-x[0]}
}

// oscillator is the undamped harmonic oscillator dx/dt = v, dv/dt = -x.
type oscillator struct{}

func (oscillator) Derivative(x pk.State, t float64) pk.State {
	return pk.State{x[1], -x[0]}
}

// blowup drives the state to infinity in finite time.
type blowup struct{}

func (blowup) Derivative(x pk.State, t float64) pk.State {
	return pk.State{x[0] * x[0]}
}

func uniformGrid(t0, t1 float64, n int) []float64 {
	grid := make([]float64, n)
	dt := (t1 - t0) / float64(n-1)
	for i := range grid {
		grid[i] = t0 + float64(i)*dt
	}
	grid[n-1] = t1
	return grid
}

func TestRK45ExponentialDecay(t *testing.T) {
	grid := uniformGrid(0, 5, 101)
	states, err := NewRK45().SolveGrid(decay{}, pk.State{1.0}, grid, 1e-8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != len(grid) {
		t.Fatalf("expected %d states, got %d", len(grid), len(states))
	}
	for i, tv := range grid {
		exact := math.Exp(-tv)
		if math.Abs(states[i][0]-exact) > 1e-6 {
			t.Errorf("t=%f: got %g, exact %g", tv, states[i][0], exact)
		}
	}
}

func TestRK45OscillatorEnergy(t *testing.T) {
	grid := uniformGrid(0, 2*math.Pi, 201)
	states, err := NewRK45().SolveGrid(oscillator{}, pk.State{1.0, 0.0}, grid, 1e-9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range states {
		energy := 0.5 * (s[0]*s[0] + s[1]*s[1])
		if math.Abs(energy-0.5) > 1e-5 {
			t.Errorf("step %d: energy drift %g", i, energy-0.5)
		}
	}
	// one full period returns to the initial state
	last := states[len(states)-1]
	if math.Abs(last[0]-1.0) > 1e-5 || math.Abs(last[1]) > 1e-5 {
		t.Errorf("after one period: got (%g, %g), want (1, 0)", last[0], last[1])
	}
}

func TestRK45StepRejection(t *testing.T) {
	// A huge initial step on a fast system must be rejected and retried,
	// not accepted with a large error.
	xNew, hUsed, _, err := NewRK45().Step(decay{}, pk.State{1.0}, 0, 10.0, 1e-8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hUsed >= 10.0 {
		t.Errorf("oversized step was accepted: hUsed = %g", hUsed)
	}
	exact := math.Exp(-hUsed)
	if math.Abs(xNew[0]-exact) > 1e-6 {
		t.Errorf("accepted step inaccurate: got %g, exact %g", xNew[0], exact)
	}
}

func TestRK45Divergence(t *testing.T) {
	// x' = x^2 with x(0)=1 blows up at t=1; the solver must fail rather
	// than return a series.
	grid := uniformGrid(0, 2, 21)
	_, err := NewRK45().SolveGrid(blowup{}, pk.State{1.0}, grid, 1e-6)
	if err == nil {
		t.Fatal("expected a numerical error, got nil")
	}
	if !errors.Is(err, pk.ErrNumerical) {
		t.Errorf("expected ErrNumerical, got %v", err)
	}
}

func TestRK45ShortGrid(t *testing.T) {
	_, err := NewRK45().SolveGrid(decay{}, pk.State{1.0}, []float64{0}, 1e-6)
	if !errors.Is(err, pk.ErrValidation) {
		t.Errorf("expected ErrValidation for a 1-point grid, got %v", err)
	}
}

func TestRK45MaxStepCap(t *testing.T) {
	r := NewRK45()
	r.MaxStep = 0.01
	_, _, hNext, err := r.Step(decay{}, pk.State{1.0}, 0, 0.01, 1e-6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hNext > r.MaxStep {
		t.Errorf("suggested step %g exceeds cap %g", hNext, r.MaxStep)
	}
}

func TestRK4MatchesClosedForm(t *testing.T) {
	r := NewRK4()
	x := pk.State{1.0}
	tv := 0.0
	dt := 0.01
	for i := 0; i < 100; i++ {
		x = r.Step(decay{}, x, tv, dt)
		tv += dt
	}
	exact := math.Exp(-1.0)
	if math.Abs(x[0]-exact) > 1e-8 {
		t.Errorf("got %g, exact %g", x[0], exact)
	}
}
