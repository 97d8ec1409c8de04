package pk

import "math"

// State is the compartment concentration vector [plasma, tissue, RBC].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is an ODE right-hand side dX/dt = f(X, t).
type System interface {
	Derivative(x State, t float64) State
}

// Formulation selects the dissolution profile of the primary dose.
type Formulation string

const (
	ImmediateRelease Formulation = "immediate-release"
	ExtendedRelease  Formulation = "extended-release"
)

// Dose is a supplemental bolus administered during the run.
type Dose struct {
	Time   float64 // administration time (hours)
	Amount float64 // dose (mg)
}

// Parameters holds everything a simulation run depends on. It is a
// value type: callers construct one, validate it, and pass it by value
// so concurrent runs never share mutable state.
type Parameters struct {
	Baseline float64 // baseline plasma nitrite (µM)
	Peak     float64 // descriptor: expected peak plasma nitrite (µM)
	TPeak    float64 // descriptor: expected time to peak (hours)
	HalfLife float64 // descriptor: expected elimination half-life (hours)
	TMax     float64 // simulation horizon (hours)
	Points   int     // number of samples on [0, TMax]

	EGFR     float64 // estimated glomerular filtration rate (mL/min)
	RBCCount float64 // red blood cell count (cells/µL)
	Dose     float64 // primary dose (mg)

	AdditionalDoses  []Dose
	Formulation      Formulation
	OxygenSaturation float64 // SpO2 in (0, 1]
}

// NewParameters returns the reference parameter set for a 30 mg
// immediate-release lozenge in a healthy adult.
func NewParameters() Parameters {
	return Parameters{
		Baseline:         0.2,
		Peak:             4.0,
		TPeak:            0.5,
		HalfLife:         0.5,
		TMax:             6,
		Points:           360,
		EGFR:             90.0,
		RBCCount:         4.5e6,
		Dose:             30.0,
		Formulation:      ImmediateRelease,
		OxygenSaturation: Normoxia,
	}
}

// Validate checks the construction invariants. It returns a
// *ValidationError for the first violated field and never silently
// substitutes defaults.
func (p Parameters) Validate() error {
	switch {
	case math.IsNaN(p.Baseline) || p.Baseline < 0:
		return &ValidationError{Field: "baseline", Message: "must be >= 0"}
	case math.IsNaN(p.TMax) || p.TMax <= 0:
		return &ValidationError{Field: "t_max", Message: "must be > 0"}
	case p.Points < 2:
		return &ValidationError{Field: "points", Message: "must be >= 2"}
	case math.IsNaN(p.Dose) || p.Dose < 0:
		return &ValidationError{Field: "dose", Message: "must be >= 0"}
	case math.IsNaN(p.EGFR) || p.EGFR < 0:
		return &ValidationError{Field: "egfr", Message: "must be >= 0"}
	case math.IsNaN(p.RBCCount) || p.RBCCount < 0:
		return &ValidationError{Field: "rbc_count", Message: "must be >= 0"}
	case math.IsNaN(p.OxygenSaturation) || p.OxygenSaturation <= 0 || p.OxygenSaturation > 1:
		return &ValidationError{Field: "oxygen_saturation", Message: "must be in (0, 1]"}
	}
	switch p.Formulation {
	case ImmediateRelease, ExtendedRelease:
	default:
		return &ValidationError{Field: "formulation", Message: "unknown formulation " + string(p.Formulation)}
	}
	for _, d := range p.AdditionalDoses {
		if math.IsNaN(d.Time) || d.Time < 0 {
			return &ValidationError{Field: "additional_doses", Message: "dose time must be >= 0"}
		}
		if math.IsNaN(d.Amount) || d.Amount < 0 {
			return &ValidationError{Field: "additional_doses", Message: "dose amount must be >= 0"}
		}
	}
	return nil
}
