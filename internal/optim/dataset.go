package optim

import (
	"math"

	"github.com/n1o1-labs/nodyn/internal/pk"
)

// TimeUnit declares the unit of a dataset's time column. Alignment with
// simulated time is driven by this tag alone; column names are never
// inspected.
type TimeUnit int

const (
	UnitHours TimeUnit = iota
	UnitMinutes
)

func (u TimeUnit) String() string {
	switch u {
	case UnitHours:
		return "hours"
	case UnitMinutes:
		return "minutes"
	default:
		return "unknown"
	}
}

// Dataset is caller-supplied experimental data: observed target
// concentrations at declared times. Read-only input to the optimizer.
type Dataset struct {
	Times  []float64
	Values []float64
	Unit   TimeUnit
}

// Validate checks the dataset shape: matching lengths, at least two
// samples, finite values, and strictly increasing time.
func (d Dataset) Validate() error {
	if len(d.Times) != len(d.Values) {
		return &pk.ValidationError{Field: "dataset", Message: "time and value columns differ in length"}
	}
	if len(d.Times) < 2 {
		return &pk.ValidationError{Field: "dataset", Message: "need at least 2 samples"}
	}
	if d.Unit != UnitHours && d.Unit != UnitMinutes {
		return &pk.ValidationError{Field: "dataset", Message: "time unit must be declared"}
	}
	for i := range d.Times {
		if math.IsNaN(d.Times[i]) || math.IsInf(d.Times[i], 0) {
			return &pk.ValidationError{Field: "dataset", Message: "non-numeric time value"}
		}
		if math.IsNaN(d.Values[i]) || math.IsInf(d.Values[i], 0) {
			return &pk.ValidationError{Field: "dataset", Message: "non-numeric target value"}
		}
		if i > 0 && d.Times[i] <= d.Times[i-1] {
			return &pk.ValidationError{Field: "dataset", Message: "time must be strictly increasing"}
		}
	}
	return nil
}

// HoursTimes returns the time column converted to hours.
func (d Dataset) HoursTimes() []float64 {
	scale := 1.0
	if d.Unit == UnitMinutes {
		scale = 1.0 / 60.0
	}
	out := make([]float64, len(d.Times))
	for i, t := range d.Times {
		out[i] = t * scale
	}
	return out
}
