package regression

import (
	"math"
	"testing"
)

func TestLinear_Predict(t *testing.T) {
	m, err := NewLinear([]float64{2, -1, 0.5}, 10)
	if err != nil {
		t.Fatalf("new linear: %v", err)
	}
	got, err := m.Predict([]float64{1, 2, 4})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != 12 {
		t.Fatalf("got %v want 12", got)
	}
}

func TestLinear_DimensionMismatch(t *testing.T) {
	m, _ := NewLinear([]float64{1, 2}, 0)
	if _, err := m.Predict([]float64{1}); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestNewLinear_Empty(t *testing.T) {
	if _, err := NewLinear(nil, 0); err == nil {
		t.Fatalf("expected error for empty coefficients")
	}
}

func TestPolynomial_At(t *testing.T) {
	// y = 3 - 2x + x^2
	m, err := NewPolynomial([]float64{3, -2, 1})
	if err != nil {
		t.Fatalf("new polynomial: %v", err)
	}
	if got := m.At(4); got != 11 {
		t.Fatalf("got %v want 11", got)
	}
	got, err := m.Predict([]float64{0})
	if err != nil || got != 3 {
		t.Fatalf("predict at 0: got %v err %v", got, err)
	}
}

func TestPolynomial_SingleInput(t *testing.T) {
	m, _ := NewPolynomial([]float64{1})
	if _, err := m.Predict([]float64{1, 2}); err == nil {
		t.Fatalf("expected single-input error")
	}
}

func TestFitPolynomial_RecoversLine(t *testing.T) {
	xs := []float64{2000, 2005, 2010, 2015, 2020}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 4 + 0.25*x
	}
	m, err := FitPolynomial(xs, ys, 1)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if math.Abs(m.Coefficients[0]-4) > 1e-6 || math.Abs(m.Coefficients[1]-0.25) > 1e-9 {
		t.Fatalf("unexpected coefficients %v", m.Coefficients)
	}
	if math.Abs(m.At(2030)-(4+0.25*2030)) > 1e-6 {
		t.Fatalf("extrapolation off: %v", m.At(2030))
	}
}

func TestFitPolynomial_Quadratic(t *testing.T) {
	xs := []float64{-2, -1, 0, 1, 2, 3}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 1 - x + 2*x*x
	}
	m, err := FitPolynomial(xs, ys, 2)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	want := []float64{1, -1, 2}
	for i, w := range want {
		if math.Abs(m.Coefficients[i]-w) > 1e-8 {
			t.Fatalf("coefficient %d: got %v want %v", i, m.Coefficients[i], w)
		}
	}
}

func TestFitPolynomial_TooFewPoints(t *testing.T) {
	if _, err := FitPolynomial([]float64{1, 2}, []float64{1, 2}, 2); err == nil {
		t.Fatalf("expected error for underdetermined fit")
	}
	if _, err := FitPolynomial([]float64{1}, []float64{1, 2}, 0); err == nil {
		t.Fatalf("expected error for length mismatch")
	}
}
