package sim

// Column identifiers. Downstream CSV export and plotting depend on
// these exact names and on the order of [Columns]; do not reorder.
const (
	ColTimeHours    = "Time (hours)"
	ColTimeMinutes  = "Time (minutes)"
	ColPlasma       = "Plasma NO2- (µM)"
	ColTissue       = "Tissue NO2- (µM)"
	ColRBC          = "RBC NO2- (µM)"
	ColTotalBody    = "Total Body NO2- (µM)"
	ColBioactiveNO  = "Bioactive NO (a.u.)"
	ColCGMP         = "cGMP (a.u.)"
	ColVasodilation = "Vasodilation (%)"
)

// Columns is the canonical column order of a Result.
var Columns = []string{
	ColTimeHours,
	ColTimeMinutes,
	ColPlasma,
	ColTissue,
	ColRBC,
	ColTotalBody,
	ColBioactiveNO,
	ColCGMP,
	ColVasodilation,
}

// Result is the tabular outcome of one simulation run: a fixed-length
// time series with one slice per column. It is created by [Simulate]
// and read-only afterwards.
type Result struct {
	Hours        []float64
	Minutes      []float64
	Plasma       []float64
	Tissue       []float64
	RBC          []float64
	TotalBody    []float64
	BioactiveNO  []float64
	CGMP         []float64
	Vasodilation []float64
}

// Len returns the number of samples.
func (r *Result) Len() int { return len(r.Hours) }

// ColumnData returns all columns in canonical order.
func (r *Result) ColumnData() [][]float64 {
	return [][]float64{
		r.Hours,
		r.Minutes,
		r.Plasma,
		r.Tissue,
		r.RBC,
		r.TotalBody,
		r.BioactiveNO,
		r.CGMP,
		r.Vasodilation,
	}
}

// Column looks a column up by its canonical identifier.
func (r *Result) Column(name string) ([]float64, bool) {
	for i, col := range Columns {
		if col == name {
			return r.ColumnData()[i], true
		}
	}
	return nil, false
}
