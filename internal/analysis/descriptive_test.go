package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/n1o1-labs/nodyn/internal/pk"
	"github.com/n1o1-labs/nodyn/internal/sim"
)

func TestDescribe(t *testing.T) {
	series := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	d := Describe(series)

	if d.N != 8 {
		t.Errorf("N = %d, want 8", d.N)
	}
	if math.Abs(d.Mean-5.0) > 1e-12 {
		t.Errorf("Mean = %f, want 5", d.Mean)
	}
	if math.Abs(d.Variance-32.0/7.0) > 1e-12 {
		t.Errorf("Variance = %f, want %f", d.Variance, 32.0/7.0)
	}
	if math.Abs(d.Std-math.Sqrt(32.0/7.0)) > 1e-12 {
		t.Errorf("Std = %f, want %f", d.Std, math.Sqrt(32.0/7.0))
	}
	if d.Min != 2 || d.Max != 9 {
		t.Errorf("Min/Max = %f/%f, want 2/9", d.Min, d.Max)
	}
	if d.Median != 4 {
		t.Errorf("Median = %f, want 4", d.Median)
	}
}

func TestDescribeDoesNotMutate(t *testing.T) {
	series := []float64{3, 1, 2}
	Describe(series)
	if series[0] != 3 || series[1] != 1 || series[2] != 2 {
		t.Errorf("input was reordered: %v", series)
	}
}

func TestDescribeResult(t *testing.T) {
	r, err := sim.Simulate(pk.NewParameters())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := DescribeResult(r)
	if len(stats) != len(sim.Columns) {
		t.Fatalf("expected %d columns, got %d", len(sim.Columns), len(stats))
	}

	plasma := stats[sim.ColPlasma]
	if plasma.N != r.Len() {
		t.Errorf("plasma N = %d, want %d", plasma.N, r.Len())
	}
	if plasma.Min < 0 || plasma.Max < plasma.Mean || plasma.Mean < plasma.Min {
		t.Errorf("inconsistent plasma stats: min %f, mean %f, max %f", plasma.Min, plasma.Mean, plasma.Max)
	}

	vaso := stats[sim.ColVasodilation]
	if vaso.Min < pk.VasodilationBase || vaso.Max > pk.VasodilationBase+pk.VasodilationSpan {
		t.Errorf("vasodilation outside [%f, %f]: min %f, max %f",
			pk.VasodilationBase, pk.VasodilationBase+pk.VasodilationSpan, vaso.Min, vaso.Max)
	}
}

func TestConfidenceInterval(t *testing.T) {
	series := make([]float64, 100)
	for i := range series {
		series[i] = float64(i + 1)
	}

	lo, hi, err := ConfidenceInterval(series, 0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lo >= hi {
		t.Fatalf("degenerate interval [%f, %f]", lo, hi)
	}
	// mean 50.5, sem ~2.901, t(0.975, 99) ~1.984
	if math.Abs(lo-44.743) > 0.01 || math.Abs(hi-56.257) > 0.01 {
		t.Errorf("interval [%f, %f], want approximately [44.743, 56.257]", lo, hi)
	}
}

func TestConfidenceIntervalErrors(t *testing.T) {
	if _, _, err := ConfidenceInterval([]float64{1}, 0.95); !errors.Is(err, pk.ErrValidation) {
		t.Errorf("single sample: expected ErrValidation, got %v", err)
	}
	if _, _, err := ConfidenceInterval([]float64{1, 2}, 1.5); !errors.Is(err, pk.ErrValidation) {
		t.Errorf("bad level: expected ErrValidation, got %v", err)
	}
}
