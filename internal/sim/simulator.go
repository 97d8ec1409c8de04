// Package sim drives the nitrite ODE model over a fixed sample grid and
// assembles the tabular simulation result.
package sim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/n1o1-labs/nodyn/internal/integrators"
	"github.com/n1o1-labs/nodyn/internal/pk"
)

// Tolerance is the relative tolerance for the adaptive solver. It must
// stay tight enough to resolve the five-minute bolus pulses.
const Tolerance = 1e-6

// Simulate runs the three-compartment model for one immutable parameter
// set and returns the full result table. It is a pure function: no
// state is shared between calls, so independent simulations may run
// concurrently.
//
// Parameters are validated first; a solver failure is reported as a
// *pk.NumericalError and never as a truncated series.
func Simulate(p pk.Parameters) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	grid := floats.Span(make([]float64, p.Points), 0, p.TMax)

	model := pk.NewModel(p)

	integ := integrators.NewRK45()
	integ.MaxStep = pk.DoseWindow / 2

	states, err := integ.SolveGrid(model, model.InitialState(), grid, Tolerance)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	return assemble(grid, states), nil
}

// SimulateHypoxia runs the identical simulation with a substituted
// oxygen saturation, which only feeds the RBC scavenging rate. The
// input parameters are not modified.
func SimulateHypoxia(p pk.Parameters, oxygenSaturation float64) (*Result, error) {
	q := p
	q.OxygenSaturation = oxygenSaturation
	return Simulate(q)
}

func assemble(grid []float64, states []pk.State) *Result {
	n := len(grid)
	r := &Result{
		Hours:   make([]float64, n),
		Minutes: make([]float64, n),
		Plasma:  make([]float64, n),
		Tissue:  make([]float64, n),
		RBC:     make([]float64, n),
	}

	for i, x := range states {
		r.Hours[i] = grid[i]
		r.Minutes[i] = grid[i] * 60
		r.Plasma[i] = x[0]
		r.Tissue[i] = x[1]
		r.RBC[i] = x[2]
	}

	r.TotalBody = pk.TotalBody(r.Plasma, r.Tissue, r.RBC)
	r.BioactiveNO = pk.BioactiveNO(r.RBC)
	r.CGMP = pk.CGMP(r.BioactiveNO)
	r.Vasodilation = pk.Vasodilation(r.CGMP)

	return r
}
