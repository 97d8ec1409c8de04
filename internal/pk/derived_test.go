package pk

import (
	"math"
	"testing"
)

func TestCGMPNormalization(t *testing.T) {
	no := []float64{0, 1, 4, 2}
	cgmp := CGMP(no)

	if cgmp[2] != CGMPScale {
		t.Errorf("expected peak cGMP %f, got %f", CGMPScale, cgmp[2])
	}
	for i, v := range cgmp {
		if v < 0 || v > CGMPScale {
			t.Errorf("cgmp[%d] = %f outside [0, %f]", i, v, CGMPScale)
		}
	}
	if math.Abs(cgmp[1]-CGMPScale/4) > 1e-12 {
		t.Errorf("expected %f, got %f", CGMPScale/4, cgmp[1])
	}
}

func TestCGMPZeroMax(t *testing.T) {
	cgmp := CGMP([]float64{0, 0, 0})
	for i, v := range cgmp {
		if v != 0 {
			t.Errorf("cgmp[%d] = %f, expected 0 in degenerate case", i, v)
		}
		if math.IsNaN(v) {
			t.Fatal("degenerate case produced NaN")
		}
	}
}

func TestVasodilationRange(t *testing.T) {
	vaso := Vasodilation([]float64{0, 5, 10})

	if vaso[0] != VasodilationBase {
		t.Errorf("expected baseline %f, got %f", VasodilationBase, vaso[0])
	}
	if vaso[2] != VasodilationBase+VasodilationSpan {
		t.Errorf("expected max %f, got %f", VasodilationBase+VasodilationSpan, vaso[2])
	}
	for i, v := range vaso {
		if v < VasodilationBase {
			t.Errorf("vaso[%d] = %f below baseline", i, v)
		}
	}
}

func TestVasodilationZeroMax(t *testing.T) {
	vaso := Vasodilation([]float64{0, 0, 0})
	for i, v := range vaso {
		if v != VasodilationBase {
			t.Errorf("vaso[%d] = %f, expected constant %f in degenerate case", i, v, VasodilationBase)
		}
	}
}

func TestTotalBodyWeights(t *testing.T) {
	total := TotalBody([]float64{1}, []float64{1}, []float64{1})
	want := TotalBodyPlasmaWeight + TotalBodyTissueWeight + TotalBodyRBCWeight
	if math.Abs(total[0]-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, total[0])
	}
}

func TestBioactiveNO(t *testing.T) {
	no := BioactiveNO([]float64{2, 4})
	if no[0] != 2*BioactiveNOFrac || no[1] != 4*BioactiveNOFrac {
		t.Errorf("unexpected bioactive NO %v", no)
	}
}
