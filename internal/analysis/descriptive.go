package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/n1o1-labs/nodyn/internal/pk"
	"github.com/n1o1-labs/nodyn/internal/sim"
)

// Descriptive holds per-column summary statistics.
type Descriptive struct {
	N        int
	Mean     float64
	Std      float64
	Min      float64
	Max      float64
	Median   float64
	Skew     float64
	Kurtosis float64
	Variance float64
}

// Describe computes descriptive statistics for one series. Kurtosis is
// excess kurtosis (0 for a normal distribution).
func Describe(series []float64) Descriptive {
	sorted := append([]float64(nil), series...)
	sort.Float64s(sorted)

	return Descriptive{
		N:        len(series),
		Mean:     stat.Mean(series, nil),
		Std:      stat.StdDev(series, nil),
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
		Median:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Skew:     stat.Skew(series, nil),
		Kurtosis: stat.ExKurtosis(series, nil),
		Variance: stat.Variance(series, nil),
	}
}

// DescribeResult computes descriptive statistics for every column of a
// simulation result, keyed by column identifier.
func DescribeResult(r *sim.Result) map[string]Descriptive {
	out := make(map[string]Descriptive, len(sim.Columns))
	for i, name := range sim.Columns {
		out[name] = Describe(r.ColumnData()[i])
	}
	return out
}

// ConfidenceInterval returns the two-sided Student-t confidence
// interval for the mean of series at the given level (e.g. 0.95).
func ConfidenceInterval(series []float64, level float64) (lo, hi float64, err error) {
	n := len(series)
	if n < 2 {
		return 0, 0, &pk.ValidationError{Field: "series", Message: "need at least 2 samples"}
	}
	if level <= 0 || level >= 1 {
		return 0, 0, &pk.ValidationError{Field: "level", Message: "must be in (0, 1)"}
	}

	mean := stat.Mean(series, nil)
	sem := stat.StdDev(series, nil) / math.Sqrt(float64(n))

	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	q := t.Quantile(0.5 + level/2)

	return mean - q*sem, mean + q*sem, nil
}
