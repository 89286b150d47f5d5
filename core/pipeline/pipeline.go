// Package pipeline orchestrates the two-stage prediction: project driver
// values for a year through per-driver trend models, feed them to the CO2
// model, and optionally attribute the prediction to its features.
package pipeline

import (
	"fmt"
	"math"

	"github.com/co2cast/co2cast/core/explain"
	"github.com/co2cast/co2cast/core/logger"
	"github.com/co2cast/co2cast/core/model"
	"github.com/co2cast/co2cast/core/regression"
)

// Pipeline evaluates the loaded models. All fields are set once at
// construction and never mutated, so one Pipeline serves concurrent requests.
type Pipeline struct {
	trends    map[string]regression.Model
	co2       regression.Model
	explainer *explain.Explainer
	log       logger.Logger
}

// New validates that a trend model exists for every configured driver and
// returns the pipeline. The explainer may be nil when attribution is not
// needed (e.g. the plain predict path in tooling).
func New(trends map[string]regression.Model, co2 regression.Model, explainer *explain.Explainer, log logger.Logger) (*Pipeline, error) {
	if co2 == nil {
		return nil, fmt.Errorf("pipeline: nil CO2 model")
	}
	if co2.NumFeatures() != len(model.Features) {
		return nil, fmt.Errorf("pipeline: CO2 model has %d features, drivers declare %d", co2.NumFeatures(), len(model.Features))
	}
	for _, name := range model.Features {
		if _, ok := trends[name]; !ok {
			return nil, fmt.Errorf("pipeline: no trend model for driver %s", name)
		}
	}
	return &Pipeline{trends: trends, co2: co2, explainer: explainer, log: log}, nil
}

// ProjectDrivers evaluates each driver's trend model at the given year.
func (p *Pipeline) ProjectDrivers(year int) (model.Drivers, error) {
	drivers := make(model.Drivers, len(model.Features))
	for _, name := range model.Features {
		v, err := p.trends[name].Predict([]float64{float64(year)})
		if err != nil {
			return nil, fmt.Errorf("project driver %s: %w", name, err)
		}
		drivers[name] = v
	}
	return drivers, nil
}

// PredictCO2 assembles the feature vector in training order and evaluates the
// CO2 model. Every configured driver must be present.
func (p *Pipeline) PredictCO2(drivers model.Drivers) (float64, error) {
	x, missing := drivers.Vector()
	if missing != "" {
		return 0, fmt.Errorf("predict co2: missing driver %s", missing)
	}
	y, err := p.co2.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("predict co2: %w", err)
	}
	return y, nil
}

// Predict runs projection and CO2 prediction for a year and rounds the result
// for the response: prediction and drivers to three decimals.
func (p *Pipeline) Predict(year int) (model.Prediction, error) {
	drivers, err := p.ProjectDrivers(year)
	if err != nil {
		return model.Prediction{}, err
	}
	co2, err := p.PredictCO2(drivers)
	if err != nil {
		return model.Prediction{}, err
	}
	if p.log != nil {
		p.log.Debugw("prediction computed", map[string]any{"year": year, "co2_per_capita": co2})
	}
	rounded := make(model.Drivers, len(drivers))
	for name, v := range drivers {
		rounded[name] = round(v, 3)
	}
	return model.Prediction{Year: year, CO2PerCapita: round(co2, 3), Drivers: rounded}, nil
}

// PredictExplained runs the full pipeline including attribution. Contributions
// are rounded to four decimals, percentages to one, the baseline to three.
func (p *Pipeline) PredictExplained(year int) (model.Prediction, model.Explanation, error) {
	if p.explainer == nil {
		return model.Prediction{}, model.Explanation{}, fmt.Errorf("pipeline: no explainer configured")
	}
	drivers, err := p.ProjectDrivers(year)
	if err != nil {
		return model.Prediction{}, model.Explanation{}, err
	}
	co2, err := p.PredictCO2(drivers)
	if err != nil {
		return model.Prediction{}, model.Explanation{}, err
	}
	x, _ := drivers.Vector()
	contributions, err := p.explainer.Explain(x)
	if err != nil {
		return model.Prediction{}, model.Explanation{}, fmt.Errorf("explain: %w", err)
	}
	percentages := explain.Percentages(contributions)

	contribByName := make(map[string]float64, len(model.Features))
	pctByName := make(map[string]float64, len(model.Features))
	for i, name := range model.Features {
		contribByName[name] = round(contributions[i], 4)
		pctByName[name] = round(percentages[i], 1)
	}

	roundedDrivers := make(model.Drivers, len(drivers))
	for name, v := range drivers {
		roundedDrivers[name] = round(v, 3)
	}
	pred := model.Prediction{Year: year, CO2PerCapita: round(co2, 3), Drivers: roundedDrivers}
	exp := model.Explanation{
		Baseline:       round(p.explainer.Baseline(), 3),
		Contributions:  contribByName,
		Percentages:    pctByName,
		Interpretation: Interpret(contribByName, pctByName),
	}
	return pred, exp, nil
}

func round(f float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(f*scale) / scale
}
