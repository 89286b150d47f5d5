package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model is a trained regressor evaluated on a fixed-length feature vector.
type Model interface {
	// NumFeatures returns the input dimension the model expects.
	NumFeatures() int
	// Predict evaluates the model on one feature vector.
	Predict(x []float64) (float64, error)
}

// Linear is a least-squares linear model: y = intercept + coefficients . x.
type Linear struct {
	Coefficients []float64
	Intercept    float64
}

// NewLinear validates the coefficient vector and returns the model.
func NewLinear(coefficients []float64, intercept float64) (*Linear, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("regression: linear model needs at least one coefficient")
	}
	return &Linear{Coefficients: coefficients, Intercept: intercept}, nil
}

func (m *Linear) NumFeatures() int { return len(m.Coefficients) }

func (m *Linear) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("regression: expected %d features, got %d", len(m.Coefficients), len(x))
	}
	xv := mat.NewVecDense(len(x), x)
	cv := mat.NewVecDense(len(m.Coefficients), m.Coefficients)
	return m.Intercept + mat.Dot(cv, xv), nil
}

// Polynomial is a univariate trend model: y = c0 + c1*x + c2*x^2 + ...
// Driver trend models are polynomials in the calendar year.
type Polynomial struct {
	Coefficients []float64
}

// NewPolynomial validates the coefficient vector and returns the model.
func NewPolynomial(coefficients []float64) (*Polynomial, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("regression: polynomial needs at least one coefficient")
	}
	return &Polynomial{Coefficients: coefficients}, nil
}

func (m *Polynomial) NumFeatures() int { return 1 }

func (m *Polynomial) Predict(x []float64) (float64, error) {
	if len(x) != 1 {
		return 0, fmt.Errorf("regression: polynomial expects a single input, got %d", len(x))
	}
	return m.At(x[0]), nil
}

// At evaluates the polynomial at v using Horner's scheme.
func (m *Polynomial) At(v float64) float64 {
	y := 0.0
	for i := len(m.Coefficients) - 1; i >= 0; i-- {
		y = y*v + m.Coefficients[i]
	}
	return y
}
