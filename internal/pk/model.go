package pk

import "math"

// Rate and schedule constants. Values follow the clinical lozenge model;
// none of them has a published derivation, so they are exported for
// domain-expert review rather than buried in the equations.
const (
	// DoseWindow is the bolus dissolution window (hours), roughly the
	// five minutes a lozenge takes to dissolve.
	DoseWindow = 0.083

	PlasmaToTissueRate = 0.05 // first-order plasma -> tissue (1/h)
	TissueToPlasmaRate = 0.03 // first-order tissue -> plasma (1/h)
	RBCToNORate        = 0.01 // RBC nitrite -> NO conversion (1/h)

	// RenalClearanceCoeff scales eGFR/60 into a plasma clearance rate.
	RenalClearanceCoeff = 0.1

	// BaseScavengingCoeff scales RBC count (per 1e6 cells/µL) into the
	// base scavenging rate.
	BaseScavengingCoeff = 0.02

	// HypoxiaModulation is the fractional slowdown of scavenging at
	// full desaturation.
	HypoxiaModulation = 0.5

	// Normoxia is the default arterial oxygen saturation.
	Normoxia = 0.97

	// Extended-release dissolution: the bolus flux is damped by
	// ExtendedDissolutionFactor and a sustained release of
	// ExtendedReleaseFraction·dose·exp(-t/ExtendedReleaseTau)/4 is
	// added during the first ExtendedReleaseSpan hours.
	ExtendedDissolutionFactor = 0.3
	ExtendedReleaseFraction   = 0.7
	ExtendedReleaseTau        = 2.0
	ExtendedReleaseSpan       = 4.0

	// Initial-condition split: tissue and RBC compartments start at
	// these fractions of the plasma baseline.
	InitTissueFrac = 0.5
	InitRBCFrac    = 0.2
)

// RenalClearanceRate converts eGFR (mL/min) into the first-order plasma
// clearance rate (1/h).
func RenalClearanceRate(egfr float64) float64 {
	return RenalClearanceCoeff * (egfr / 60.0)
}

// ScavengingRate computes the RBC scavenging rate constant from the RBC
// count and oxygen saturation. Scavenging slows under hypoxia, leaving
// more nitrite available for NO conversion.
func ScavengingRate(rbcCount, oxygenSaturation float64) float64 {
	base := BaseScavengingCoeff * (rbcCount / 1.0e6)
	hypoxia := 1 - oxygenSaturation
	return base * (1 - HypoxiaModulation*hypoxia)
}

// Model is the three-compartment nitrite ODE for one parameter set.
// Rate constants are computed once at construction; the model itself is
// read-only after that and safe to share across goroutines.
type Model struct {
	params Parameters
	kClear float64 // renal clearance (plasma only)
	kRBC   float64 // plasma -> RBC scavenging base
}

func NewModel(p Parameters) *Model {
	return &Model{
		params: p,
		kClear: RenalClearanceRate(p.EGFR),
		kRBC:   ScavengingRate(p.RBCCount, p.OxygenSaturation),
	}
}

// InitialState distributes the baseline across compartments.
func (m *Model) InitialState() State {
	b := m.params.Baseline
	return State{b, b * InitTissueFrac, b * InitRBCFrac}
}

// DoseInput returns the total input flux (mg/h into plasma, treated as
// µM/h in this lumped model) at time t. Each bolus is a rectangular
// pulse dose/DoseWindow over [t0, t0+DoseWindow); boluses superpose.
func (m *Model) DoseInput(t float64) float64 {
	primary := m.params.Dose
	if m.params.Formulation == ExtendedRelease {
		primary *= ExtendedDissolutionFactor
	}

	flux := 0.0
	if t >= 0 && t < DoseWindow {
		flux += primary / DoseWindow
	}
	for _, d := range m.params.AdditionalDoses {
		if t >= d.Time && t < d.Time+DoseWindow {
			flux += d.Amount / DoseWindow
		}
	}

	if m.params.Formulation == ExtendedRelease && t < ExtendedReleaseSpan {
		flux += ExtendedReleaseFraction * m.params.Dose * math.Exp(-t/ExtendedReleaseTau) / 4
	}

	return flux
}

// Derivative implements [System] for the compartment vector
// [plasma, tissue, RBC].
func (m *Model) Derivative(x State, t float64) State {
	plasmaToTissue := PlasmaToTissueRate * x[0]
	tissueToPlasma := TissueToPlasmaRate * x[1]

	// Half the scavenging rate moves nitrite into the RBC pool, where
	// conversion to NO proceeds at RBCToNORate.
	plasmaToRBC := m.kRBC * 0.5 * x[0]
	rbcToNO := RBCToNORate * x[2]

	renal := m.kClear * x[0]
	input := m.DoseInput(t)

	return State{
		input + tissueToPlasma - plasmaToTissue - plasmaToRBC - renal,
		plasmaToTissue - tissueToPlasma,
		plasmaToRBC - rbcToNO,
	}
}
