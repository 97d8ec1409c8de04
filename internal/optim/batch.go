package optim

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/n1o1-labs/nodyn/internal/analysis"
	"github.com/n1o1-labs/nodyn/internal/pk"
	"github.com/n1o1-labs/nodyn/internal/sim"
)

// TherapeuticThreshold is the plasma nitrite concentration (µM) above
// which a sample counts toward therapeutic-window coverage.
const TherapeuticThreshold = 1.0

// Axis is one swept dimension of a batch grid: a model parameter name
// and the ordered values to test.
type Axis struct {
	Name   string
	Values []float64
}

// BatchOptions bounds and tunes a grid run. Zero values select the
// defaults below.
type BatchOptions struct {
	MaxCombinations int // cap on the Cartesian product (default 500)

	// Threshold is the therapeutic threshold in µM; coverage counts
	// samples strictly above it. Zero selects TherapeuticThreshold;
	// pass a negative value to count every sample, since
	// concentrations are non-negative.
	Threshold float64

	TopK    int // best combinations to surface (default 5)
	Workers int // concurrent simulations (default GOMAXPROCS)
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.MaxCombinations == 0 {
		o.MaxCombinations = 500
	}
	if o.Threshold == 0 {
		o.Threshold = TherapeuticThreshold
	}
	if o.TopK == 0 {
		o.TopK = 5
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// Combination is the metric set for one grid point.
type Combination struct {
	Params         map[string]float64
	Peak           float64
	AUC            float64
	HalfLife       float64
	HasHalfLife    bool
	WindowCoverage float64 // fraction of samples above the threshold
}

// AxisSummary aggregates coverage over every combination sharing one
// value of one axis.
type AxisSummary struct {
	Value        float64
	MeanCoverage float64
	Count        int
}

// BatchResult is the outcome of a grid run.
type BatchResult struct {
	Combinations []Combination
	ByAxis       map[string][]AxisSummary
	Top          []Combination
}

// Batch runs a bounded Cartesian sweep over the axes, one simulation
// per combination, in a worker pool. The context cancels or deadlines
// the whole sweep; exceeding the combination cap is a validation error
// so an oversized grid fails fast instead of running for hours.
func (o *Optimizer) Batch(ctx context.Context, axes []Axis, opts BatchOptions) (*BatchResult, error) {
	opts = opts.withDefaults()

	if len(axes) == 0 {
		return nil, &pk.ValidationError{Field: "axes", Message: "need at least one axis"}
	}
	total := 1
	for _, ax := range axes {
		if len(ax.Values) == 0 {
			return nil, &pk.ValidationError{Field: "axes", Message: "axis " + ax.Name + " has no values"}
		}
		total *= len(ax.Values)
	}
	if total > opts.MaxCombinations {
		return nil, &pk.ValidationError{Field: "axes", Message: "combination count exceeds cap"}
	}

	combos := enumerate(axes)

	results := make([]Combination, len(combos))
	errs := make([]error, len(combos))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx], errs[idx] = o.runCombination(combos[idx], opts.Threshold)
			}
		}()
	}

	var ctxErr error
dispatch:
	for i := range combos {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break dispatch
		}
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &BatchResult{
		Combinations: results,
		ByAxis:       aggregate(axes, results),
		Top:          topK(results, opts.TopK),
	}, nil
}

func (o *Optimizer) runCombination(params map[string]float64, threshold float64) (Combination, error) {
	p, err := applyParams(o.Base, params)
	if err != nil {
		return Combination{}, err
	}
	res, err := sim.Simulate(p)
	if err != nil {
		return Combination{}, err
	}

	peak, _, _ := analysis.Peak(res.Hours, res.Plasma)
	hl, hasHL := analysis.HalfLife(res.Hours, res.Plasma, math.NaN())

	above := 0
	for _, v := range res.Plasma {
		if v > threshold {
			above++
		}
	}

	return Combination{
		Params:         params,
		Peak:           peak,
		AUC:            analysis.AUC(res.Hours, res.Plasma),
		HalfLife:       hl,
		HasHalfLife:    hasHL,
		WindowCoverage: float64(above) / float64(res.Len()),
	}, nil
}

// enumerate expands the Cartesian product in row-major order, first
// axis slowest.
func enumerate(axes []Axis) []map[string]float64 {
	combos := []map[string]float64{{}}
	for _, ax := range axes {
		next := make([]map[string]float64, 0, len(combos)*len(ax.Values))
		for _, base := range combos {
			for _, v := range ax.Values {
				c := make(map[string]float64, len(base)+1)
				for k, bv := range base {
					c[k] = bv
				}
				c[ax.Name] = v
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos
}

func aggregate(axes []Axis, combos []Combination) map[string][]AxisSummary {
	out := make(map[string][]AxisSummary, len(axes))
	for _, ax := range axes {
		summaries := make([]AxisSummary, 0, len(ax.Values))
		for _, v := range ax.Values {
			var sum float64
			var count int
			for _, c := range combos {
				if c.Params[ax.Name] == v {
					sum += c.WindowCoverage
					count++
				}
			}
			s := AxisSummary{Value: v, Count: count}
			if count > 0 {
				s.MeanCoverage = sum / float64(count)
			}
			summaries = append(summaries, s)
		}
		out[ax.Name] = summaries
	}
	return out
}

func topK(combos []Combination, k int) []Combination {
	sorted := append([]Combination(nil), combos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].WindowCoverage > sorted[j].WindowCoverage
	})
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}
