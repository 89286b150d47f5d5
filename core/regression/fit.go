package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FitPolynomial fits a least-squares polynomial of the given degree to the
// sample points. It solves the Vandermonde system via QR factorization. Used
// by artifact tooling and tests; the serving path only evaluates models.
func FitPolynomial(xs, ys []float64, degree int) (*Polynomial, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("regression: %d x values for %d y values", len(xs), len(ys))
	}
	if degree < 0 || len(xs) <= degree {
		return nil, fmt.Errorf("regression: need more than %d points for degree %d", degree, degree)
	}

	a := mat.NewDense(len(xs), degree+1, nil)
	for i, x := range xs {
		v := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	b := mat.NewDense(len(ys), 1, ys)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return nil, fmt.Errorf("regression: solve least squares: %w", err)
	}

	coefficients := make([]float64, degree+1)
	for j := range coefficients {
		coefficients[j] = sol.At(j, 0)
	}
	return &Polynomial{Coefficients: coefficients}, nil
}
