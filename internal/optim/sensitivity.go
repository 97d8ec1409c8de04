package optim

import (
	"github.com/n1o1-labs/nodyn/internal/analysis"
	"github.com/n1o1-labs/nodyn/internal/sim"
)

// SensitivityRecord summarizes one simulation of a one-parameter sweep.
type SensitivityRecord struct {
	Parameter  string
	Value      float64
	Peak       float64
	TimeToPeak float64
	AUC        float64
}

// Sensitivity sweeps one named parameter across values, holding all
// others fixed, and returns one record plus the full series per value,
// preserving input order. Nil fixed defaults to the last best-fit set
// when a fit has run, else to DefaultSweepParams.
func (o *Optimizer) Sensitivity(parameter string, values []float64, fixed map[string]float64) ([]SensitivityRecord, []*sim.Result, error) {
	if fixed == nil {
		if o.lastBest != nil {
			fixed = o.lastBest
		} else {
			fixed = DefaultSweepParams()
		}
	}

	records := make([]SensitivityRecord, 0, len(values))
	results := make([]*sim.Result, 0, len(values))

	for _, v := range values {
		vals := make(map[string]float64, len(fixed)+1)
		for k, fv := range fixed {
			vals[k] = fv
		}
		vals[parameter] = v

		p, err := applyParams(o.Base, vals)
		if err != nil {
			return nil, nil, err
		}
		res, err := sim.Simulate(p)
		if err != nil {
			return nil, nil, err
		}

		peak, tPeak, _ := analysis.Peak(res.Hours, res.Plasma)
		records = append(records, SensitivityRecord{
			Parameter:  parameter,
			Value:      v,
			Peak:       peak,
			TimeToPeak: tPeak,
			AUC:        analysis.AUC(res.Hours, res.Plasma),
		})
		results = append(results, res)
	}

	return records, results, nil
}
