// Package explain attributes CO2 predictions to their input features.
// For a linear model the attribution is exact: each feature contributes
// coefficient * (value - background mean), and the baseline plus the sum of
// contributions equals the prediction.
package explain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/co2cast/co2cast/core/regression"
)

// Explainer decomposes predictions of a linear model relative to a background
// sample fixed at load time. The served baseline is the model output at the
// background feature means, i.e. the average prediction over the training
// background. Instances are immutable and safe for concurrent use.
type Explainer struct {
	model    *regression.Linear
	means    []float64
	baseline float64
}

// New builds an Explainer for the model against the background feature means.
func New(m *regression.Linear, means []float64) (*Explainer, error) {
	if m == nil {
		return nil, fmt.Errorf("explain: nil model")
	}
	if len(means) != m.NumFeatures() {
		return nil, fmt.Errorf("explain: %d background means for %d model features", len(means), m.NumFeatures())
	}
	baseline, err := m.Predict(means)
	if err != nil {
		return nil, fmt.Errorf("explain: baseline: %w", err)
	}
	return &Explainer{model: m, means: means, baseline: baseline}, nil
}

// Baseline returns the expected model output over the background sample.
func (e *Explainer) Baseline() float64 { return e.baseline }

// Explain returns one signed contribution per feature such that
// Baseline() + sum(contributions) equals the model prediction for x.
func (e *Explainer) Explain(x []float64) ([]float64, error) {
	if len(x) != len(e.means) {
		return nil, fmt.Errorf("explain: expected %d features, got %d", len(e.means), len(x))
	}
	contributions := make([]float64, len(x))
	for i := range x {
		contributions[i] = e.model.Coefficients[i] * (x[i] - e.means[i])
	}
	return contributions, nil
}

// Percentages converts contributions into each feature's absolute share of the
// total absolute contribution, in percent. When every contribution is zero the
// shares are all zero rather than dividing by zero.
func Percentages(contributions []float64) []float64 {
	shares := make([]float64, len(contributions))
	total := floats.Norm(contributions, 1)
	if total == 0 {
		return shares
	}
	for i, c := range contributions {
		shares[i] = math.Abs(c) / total * 100
	}
	return shares
}
