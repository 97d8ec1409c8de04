package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/n1o1-labs/nodyn/internal/pk"
	"github.com/n1o1-labs/nodyn/internal/sim"
)

// Peak returns the maximum value of series, the corresponding time, and
// the sample index. Ties resolve to the first occurrence.
func Peak(time, series []float64) (peak, timeToPeak float64, idx int) {
	idx = floats.MaxIdx(series)
	return series[idx], time[idx], idx
}

// AUC computes the trapezoidal area under series over time. Both slices
// must be in consistent units; time must be increasing.
func AUC(time, series []float64) float64 {
	return integrate.Trapezoidal(time, series)
}

// HalfLife returns the elapsed time from the peak to the first post-peak
// sample nearest baseline + (peak-baseline)/2, in the unit of time.
// When baseline is NaN the last post-peak sample stands in for it.
// ok is false when fewer than 3 post-peak samples exist.
func HalfLife(time, series []float64, baseline float64) (halfLife float64, ok bool) {
	peak, _, peakIdx := Peak(time, series)

	post := series[peakIdx:]
	if len(post) < 3 {
		return 0, false
	}

	if math.IsNaN(baseline) {
		baseline = post[len(post)-1]
	}
	half := baseline + (peak-baseline)/2

	best := 0
	bestDiff := math.Abs(post[0] - half)
	for i, v := range post {
		if d := math.Abs(v - half); d < bestDiff {
			bestDiff = d
			best = i
		}
	}

	return time[peakIdx+best] - time[peakIdx], true
}

// Summary is one row of a multi-simulation comparison.
type Summary struct {
	Label       string
	Peak        float64
	TimeToPeak  float64
	AUC         float64
	HalfLife    float64
	HasHalfLife bool
}

// Compare summarizes one column across several simulation results, one
// row per result in input order. Times are in hours.
func Compare(results []*sim.Result, labels []string, column string) ([]Summary, error) {
	if len(results) != len(labels) {
		return nil, &pk.ValidationError{Field: "labels", Message: "length must match simulations"}
	}

	rows := make([]Summary, 0, len(results))
	for i, r := range results {
		series, found := r.Column(column)
		if !found {
			return nil, &pk.ValidationError{Field: "column", Message: "unknown column " + column}
		}

		peak, tPeak, _ := Peak(r.Hours, series)
		hl, hasHL := HalfLife(r.Hours, series, math.NaN())

		rows = append(rows, Summary{
			Label:       labels[i],
			Peak:        peak,
			TimeToPeak:  tPeak,
			AUC:         AUC(r.Hours, series),
			HalfLife:    hl,
			HasHalfLife: hasHL,
		})
	}

	return rows, nil
}
