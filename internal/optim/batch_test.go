package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/n1o1-labs/nodyn/internal/pk"
)

func TestSensitivityDoseSweep(t *testing.T) {
	opt := New(pk.NewParameters())

	values := []float64{10, 20, 40, 80}
	records, results, err := opt.Sensitivity("dose", values, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != len(values) || len(results) != len(values) {
		t.Fatalf("expected %d records and results, got %d and %d", len(values), len(records), len(results))
	}

	for i, rec := range records {
		if rec.Parameter != "dose" || rec.Value != values[i] {
			t.Errorf("record %d: got %s=%f, want dose=%f", i, rec.Parameter, rec.Value, values[i])
		}
		if i > 0 {
			if rec.Peak <= records[i-1].Peak {
				t.Errorf("peak not increasing with dose: %f <= %f", rec.Peak, records[i-1].Peak)
			}
			if rec.AUC <= records[i-1].AUC {
				t.Errorf("AUC not increasing with dose: %f <= %f", rec.AUC, records[i-1].AUC)
			}
		}
	}
}

func TestSensitivityUnknownParameter(t *testing.T) {
	opt := New(pk.NewParameters())
	_, _, err := opt.Sensitivity("weight", []float64{60, 80}, nil)
	if !errors.Is(err, pk.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestBatchGrid(t *testing.T) {
	opt := New(pk.NewParameters())

	axes := []Axis{
		{Name: "dose", Values: []float64{10, 30, 60}},
		{Name: "egfr", Values: []float64{45, 90}},
	}

	res, err := opt.Batch(context.Background(), axes, BatchOptions{TopK: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Combinations) != 6 {
		t.Fatalf("expected 6 combinations, got %d", len(res.Combinations))
	}
	for _, c := range res.Combinations {
		if c.WindowCoverage < 0 || c.WindowCoverage > 1 {
			t.Errorf("coverage %f outside [0, 1]", c.WindowCoverage)
		}
		if _, found := c.Params["dose"]; !found {
			t.Error("combination missing dose value")
		}
	}

	doseSummaries := res.ByAxis["dose"]
	if len(doseSummaries) != 3 {
		t.Fatalf("expected 3 dose summaries, got %d", len(doseSummaries))
	}
	for _, s := range doseSummaries {
		if s.Count != 2 {
			t.Errorf("dose %f aggregated over %d combinations, want 2", s.Value, s.Count)
		}
	}
	// higher doses keep plasma above the threshold longer
	if doseSummaries[2].MeanCoverage < doseSummaries[0].MeanCoverage {
		t.Errorf("coverage for dose 60 (%f) below dose 10 (%f)",
			doseSummaries[2].MeanCoverage, doseSummaries[0].MeanCoverage)
	}

	if len(res.Top) != 2 {
		t.Fatalf("expected 2 top combinations, got %d", len(res.Top))
	}
	if res.Top[0].WindowCoverage < res.Top[1].WindowCoverage {
		t.Error("top combinations out of order")
	}
}

func TestBatchLiteralThreshold(t *testing.T) {
	opt := New(pk.NewParameters())
	axes := []Axis{{Name: "dose", Values: []float64{10}}}

	// a negative threshold is taken literally, so every sample counts
	res, err := opt.Batch(context.Background(), axes, BatchOptions{Threshold: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cov := res.Combinations[0].WindowCoverage; cov != 1 {
		t.Errorf("coverage = %f, want 1 with a negative threshold", cov)
	}

	// a high threshold that the low dose never reaches yields zero
	res, err = opt.Batch(context.Background(), axes, BatchOptions{Threshold: 1e6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cov := res.Combinations[0].WindowCoverage; cov != 0 {
		t.Errorf("coverage = %f, want 0 above an unreachable threshold", cov)
	}
}

func TestBatchCombinationCap(t *testing.T) {
	opt := New(pk.NewParameters())

	values := make([]float64, 30)
	for i := range values {
		values[i] = float64(i + 1)
	}
	axes := []Axis{
		{Name: "dose", Values: values},
		{Name: "egfr", Values: values},
	}

	_, err := opt.Batch(context.Background(), axes, BatchOptions{MaxCombinations: 500})
	if !errors.Is(err, pk.ErrValidation) {
		t.Errorf("expected ErrValidation for 900 combinations, got %v", err)
	}
}

func TestBatchEmptyAxes(t *testing.T) {
	opt := New(pk.NewParameters())

	if _, err := opt.Batch(context.Background(), nil, BatchOptions{}); !errors.Is(err, pk.ErrValidation) {
		t.Errorf("no axes: expected ErrValidation, got %v", err)
	}
	axes := []Axis{{Name: "dose", Values: nil}}
	if _, err := opt.Batch(context.Background(), axes, BatchOptions{}); !errors.Is(err, pk.ErrValidation) {
		t.Errorf("empty axis: expected ErrValidation, got %v", err)
	}
}

func TestBatchCanceled(t *testing.T) {
	opt := New(pk.NewParameters())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	axes := []Axis{{Name: "dose", Values: []float64{10, 20, 30}}}
	_, err := opt.Batch(ctx, axes, BatchOptions{Workers: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBatchInvalidParameter(t *testing.T) {
	opt := New(pk.NewParameters())

	axes := []Axis{{Name: "bogus", Values: []float64{1}}}
	_, err := opt.Batch(context.Background(), axes, BatchOptions{})
	if !errors.Is(err, pk.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestEnumerateOrder(t *testing.T) {
	axes := []Axis{
		{Name: "a", Values: []float64{1, 2}},
		{Name: "b", Values: []float64{10, 20}},
	}
	combos := enumerate(axes)
	if len(combos) != 4 {
		t.Fatalf("expected 4 combinations, got %d", len(combos))
	}
	// first axis varies slowest
	want := [][2]float64{{1, 10}, {1, 20}, {2, 10}, {2, 20}}
	for i, w := range want {
		if combos[i]["a"] != w[0] || combos[i]["b"] != w[1] {
			t.Errorf("combo %d = %v, want a=%f b=%f", i, combos[i], w[0], w[1])
		}
	}
}
