package pk

// Aggregation weights for the derived series. Like the rate constants,
// these are modeling assumptions, not measured values.
const (
	TotalBodyPlasmaWeight = 0.7
	TotalBodyTissueWeight = 0.2
	TotalBodyRBCWeight    = 0.1

	// BioactiveNOFrac is the fraction of RBC-bound nitrite counted as
	// bioactive NO.
	BioactiveNOFrac = 0.5

	// CGMPScale maps the normalized NO signal onto arbitrary cGMP units.
	CGMPScale = 10.0

	// VasodilationBase and VasodilationSpan map normalized cGMP onto a
	// vasodilation percentage: 100% means no dilation above baseline.
	VasodilationBase = 100.0
	VasodilationSpan = 50.0
)

// TotalBody computes the weighted whole-body nitrite series.
func TotalBody(plasma, tissue, rbc []float64) []float64 {
	out := make([]float64, len(plasma))
	for i := range out {
		out[i] = TotalBodyPlasmaWeight*plasma[i] + TotalBodyTissueWeight*tissue[i] + TotalBodyRBCWeight*rbc[i]
	}
	return out
}

// BioactiveNO derives the NO proxy from RBC-bound nitrite.
func BioactiveNO(rbc []float64) []float64 {
	out := make([]float64, len(rbc))
	for i, v := range rbc {
		out[i] = BioactiveNOFrac * v
	}
	return out
}

// CGMP max-normalizes bioactive NO onto [0, CGMPScale]. A flat zero
// input is a legitimate degenerate case (no physiological response) and
// yields an all-zero vector, never NaN.
func CGMP(bioactiveNO []float64) []float64 {
	out := make([]float64, len(bioactiveNO))
	peak := maxOf(bioactiveNO)
	if peak <= 0 {
		return out
	}
	for i, v := range bioactiveNO {
		out[i] = CGMPScale * v / peak
	}
	return out
}

// Vasodilation maps cGMP onto a dilation percentage in
// [VasodilationBase, VasodilationBase+VasodilationSpan]. The zero-max
// degenerate case yields a constant baseline-percentage vector.
func Vasodilation(cgmp []float64) []float64 {
	out := make([]float64, len(cgmp))
	peak := maxOf(cgmp)
	if peak <= 0 {
		for i := range out {
			out[i] = VasodilationBase
		}
		return out
	}
	for i, v := range cgmp {
		out[i] = VasodilationBase + VasodilationSpan*v/peak
	}
	return out
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, v := range xs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
