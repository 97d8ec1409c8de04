// Package optim fits simulation parameters to experimental data and
// explores the parameter space via sensitivity sweeps and batch grids.
package optim

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/optimize"

	"github.com/n1o1-labs/nodyn/internal/pk"
	"github.com/n1o1-labs/nodyn/internal/sim"
)

// Method selects the minimization algorithm.
type Method int

const (
	// NelderMead is the default: derivative-free simplex search on the
	// bound-transformed objective.
	NelderMead Method = iota
	// LBFGS is a quasi-Newton method using finite-difference gradients.
	LBFGS
)

// Bounds is a box constraint for one parameter.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds returns sane box constraints per parameter name.
func DefaultBounds() map[string]Bounds {
	return map[string]Bounds{
		"baseline":  {0.01, 1.0},
		"peak":      {0.5, 20.0},
		"t_peak":    {0.1, 2.0},
		"half_life": {0.1, 5.0},
		"egfr":      {30.0, 150.0},
		"rbc_count": {2.0e6, 7.0e6},
		"dose":      {5.0, 100.0},
	}
}

// fallbackBounds applies to parameters with no entry in DefaultBounds.
var fallbackBounds = Bounds{0.01, 100.0}

// DefaultFitParams returns the standard free parameters and their
// initial values.
func DefaultFitParams() map[string]float64 {
	return map[string]float64{
		"baseline":  0.2,
		"peak":      4.0,
		"t_peak":    0.5,
		"half_life": 0.5,
	}
}

// DefaultSweepParams returns the fixed parameter set used by
// sensitivity sweeps when no fit has run yet.
func DefaultSweepParams() map[string]float64 {
	return map[string]float64{
		"baseline":  0.2,
		"peak":      4.0,
		"t_peak":    0.5,
		"half_life": 0.5,
		"egfr":      90.0,
		"rbc_count": 4.5e6,
		"dose":      30.0,
	}
}

// Result reports a completed fit.
type Result struct {
	BestParams  map[string]float64
	RMSE        float64
	Success     bool
	Message     string
	Iterations  int
	Evaluations int
	BestFit     *sim.Result
}

// Optimizer fits free parameters of the nitrite model to an
// experimental dataset. The base parameter set is the immutable
// prototype; every objective evaluation builds a fresh value from it,
// so concurrent use of the resulting simulations is safe.
type Optimizer struct {
	Base   pk.Parameters
	Method Method

	lastBest map[string]float64
}

func New(base pk.Parameters) *Optimizer {
	return &Optimizer{Base: base}
}

// applyParams builds a parameter value from the base prototype and a
// name -> value mapping. Unknown names are a validation error.
func applyParams(base pk.Parameters, vals map[string]float64) (pk.Parameters, error) {
	p := base
	for name, v := range vals {
		switch name {
		case "baseline":
			p.Baseline = v
		case "peak":
			p.Peak = v
		case "t_peak":
			p.TPeak = v
		case "half_life":
			p.HalfLife = v
		case "t_max":
			p.TMax = v
		case "egfr":
			p.EGFR = v
		case "rbc_count":
			p.RBCCount = v
		case "dose":
			p.Dose = v
		default:
			return p, &pk.ValidationError{Field: "parameter", Message: "unknown parameter " + name}
		}
	}
	return p, nil
}

// rmse simulates p and scores it against data. Experimental times are
// converted to hours via the declared unit and must fall inside the
// simulated range; simulated plasma values are linearly interpolated
// onto the experimental timestamps.
func rmse(p pk.Parameters, data Dataset) (float64, error) {
	res, err := sim.Simulate(p)
	if err != nil {
		return 0, err
	}

	expHours := data.HoursTimes()
	const slack = 1e-9
	if expHours[0] < -slack || expHours[len(expHours)-1] > p.TMax+slack {
		return 0, fmt.Errorf("%w: experimental time span [%.4g, %.4g] h exceeds simulated [0, %.4g] h",
			ErrDataAlignment, expHours[0], expHours[len(expHours)-1], p.TMax)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(res.Hours, res.Plasma); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDataAlignment, err)
	}

	var sum float64
	for i, t := range expHours {
		t = math.Min(math.Max(t, 0), p.TMax)
		d := pl.Predict(t) - data.Values[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(expHours))), nil
}

// sigmoid-based transform between the unconstrained optimizer space and
// the bounded parameter space.
func toBounded(z float64, b Bounds) float64 {
	return b.Min + (b.Max-b.Min)/(1+math.Exp(-z))
}

func toUnconstrained(v float64, b Bounds) float64 {
	frac := (v - b.Min) / (b.Max - b.Min)
	frac = math.Min(math.Max(frac, 1e-6), 1-1e-6)
	return math.Log(frac / (1 - frac))
}

// Fit minimizes the RMSE between simulation and data over the given
// free parameters. Nil init selects DefaultFitParams; bounds fall back
// to DefaultBounds per parameter. Non-convergence is reported in the
// result (Success=false), not swallowed; only infrastructure failures
// (invalid input, every evaluation failing) return an error.
func (o *Optimizer) Fit(data Dataset, init map[string]float64, bounds map[string]Bounds) (*Result, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	expHours := data.HoursTimes()
	if expHours[0] < 0 || expHours[len(expHours)-1] > o.Base.TMax {
		return nil, fmt.Errorf("%w: experimental time span [%.4g, %.4g] h exceeds simulated [0, %.4g] h",
			ErrDataAlignment, expHours[0], expHours[len(expHours)-1], o.Base.TMax)
	}
	if init == nil {
		init = DefaultFitParams()
	}

	names := make([]string, 0, len(init))
	for name := range init {
		names = append(names, name)
	}
	sort.Strings(names)

	defaults := DefaultBounds()
	box := make([]Bounds, len(names))
	z0 := make([]float64, len(names))
	for i, name := range names {
		b, found := bounds[name]
		if !found {
			if b, found = defaults[name]; !found {
				b = fallbackBounds
			}
		}
		if b.Min > b.Max {
			return nil, fmt.Errorf("%w: %s has min %g > max %g", ErrBounds, name, b.Min, b.Max)
		}
		if init[name] < b.Min || init[name] > b.Max {
			return nil, &pk.ValidationError{
				Field:   name,
				Message: fmt.Sprintf("initial value %g outside bounds [%g, %g]", init[name], b.Min, b.Max),
			}
		}
		box[i] = b
		z0[i] = toUnconstrained(init[name], b)
	}

	evals := 0
	failures := 0
	objective := func(z []float64) float64 {
		evals++
		vals := make(map[string]float64, len(names))
		for i, name := range names {
			vals[name] = toBounded(z[i], box[i])
		}
		p, err := applyParams(o.Base, vals)
		if err != nil {
			failures++
			return math.Inf(1)
		}
		score, err := rmse(p, data)
		if err != nil {
			failures++
			return math.Inf(1)
		}
		return score
	}

	problem := optimize.Problem{Func: objective}
	var method optimize.Method = &optimize.NelderMead{}
	if o.Method == LBFGS {
		problem.Grad = func(grad, z []float64) {
			fd.Gradient(grad, objective, z, nil)
		}
		method = &optimize.LBFGS{}
	}

	res, err := optimize.Minimize(problem, z0, nil, method)
	if res == nil || failures == evals {
		return nil, fmt.Errorf("%w: no objective evaluation succeeded", ErrOptimization)
	}

	best := make(map[string]float64, len(names))
	for i, name := range names {
		best[name] = toBounded(res.X[i], box[i])
	}

	bestParams, perr := applyParams(o.Base, best)
	if perr != nil {
		return nil, perr
	}
	bestFit, serr := sim.Simulate(bestParams)
	if serr != nil {
		return nil, serr
	}

	out := &Result{
		BestParams:  best,
		RMSE:        res.F,
		Success:     err == nil && !math.IsInf(res.F, 1),
		Message:     res.Status.String(),
		Iterations:  res.Stats.MajorIterations,
		Evaluations: res.Stats.FuncEvaluations,
		BestFit:     bestFit,
	}
	if err != nil {
		out.Message = err.Error()
	}

	o.lastBest = best
	return out, nil
}
