// Package predictions exposes the prediction pipeline over JSON endpoints.
package predictions

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/co2cast/co2cast/core/logger"
	coremetrics "github.com/co2cast/co2cast/core/metrics"
	"github.com/co2cast/co2cast/core/model"
	"github.com/co2cast/co2cast/core/pipeline"
)

// Validation failures, one per case so clients get a specific reason.
var (
	ErrMissingYear    = errors.New("missing 'year' in request")
	ErrYearNotInteger = errors.New("'year' must be an integer")
	ErrYearOutOfRange = errors.New("year out of supported range")
)

type predictResponse struct {
	Year                  int                `json:"year"`
	PredictedCO2PerCapita float64            `json:"predicted_co2_per_capita"`
	ProjectedDrivers      map[string]float64 `json:"projected_drivers"`
}

type explanationBody struct {
	Contributions  map[string]float64 `json:"contributions"`
	Percentages    map[string]float64 `json:"percentages"`
	Interpretation string             `json:"interpretation"`
}

type explainResponse struct {
	predictResponse
	Baseline    float64         `json:"baseline"`
	Explanation explanationBody `json:"explanation"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewPredictHandler returns the POST /predict handler.
func NewPredictHandler(p *pipeline.Pipeline, sink coremetrics.Sink, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		year, err := parseYear(r)
		if err != nil {
			writeValidationError(w, sink, err, false)
			return
		}
		pred, err := p.Predict(year)
		if err != nil {
			writePredictionError(w, sink, log, year, err, false)
			return
		}
		log.Debugw("prediction served", map[string]any{
			"request_id": uuid.NewString(),
			"year":       year,
			"co2":        pred.CO2PerCapita,
		})
		record(sink, coremetrics.PredictionEvent{
			Year:         year,
			CO2PerCapita: pred.CO2PerCapita,
			Outcome:      coremetrics.OutcomeOK,
			Duration:     time.Since(start),
			Timestamp:    start,
		})
		writeJSON(w, http.StatusOK, predictResponse{
			Year:                  pred.Year,
			PredictedCO2PerCapita: pred.CO2PerCapita,
			ProjectedDrivers:      pred.Drivers,
		})
	})
}

// NewExplainHandler returns the POST /predict/explain handler. The response is
// a superset of the predict response, adding baseline and explanation.
func NewExplainHandler(p *pipeline.Pipeline, sink coremetrics.Sink, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		year, err := parseYear(r)
		if err != nil {
			writeValidationError(w, sink, err, true)
			return
		}
		pred, exp, err := p.PredictExplained(year)
		if err != nil {
			writePredictionError(w, sink, log, year, err, true)
			return
		}
		log.Debugw("explained prediction served", map[string]any{
			"request_id": uuid.NewString(),
			"year":       year,
			"co2":        pred.CO2PerCapita,
			"baseline":   exp.Baseline,
		})
		record(sink, coremetrics.PredictionEvent{
			Year:         year,
			CO2PerCapita: pred.CO2PerCapita,
			Explained:    true,
			Outcome:      coremetrics.OutcomeOK,
			Duration:     time.Since(start),
			Timestamp:    start,
		})
		writeJSON(w, http.StatusOK, explainResponse{
			predictResponse: predictResponse{
				Year:                  pred.Year,
				PredictedCO2PerCapita: pred.CO2PerCapita,
				ProjectedDrivers:      pred.Drivers,
			},
			Baseline: exp.Baseline,
			Explanation: explanationBody{
				Contributions:  exp.Contributions,
				Percentages:    exp.Percentages,
				Interpretation: exp.Interpretation,
			},
		})
	})
}

// parseYear validates the request body before any model is invoked. The three
// failure cases are reported separately: absent year, non-integer year, and
// out-of-range year.
func parseYear(r *http.Request) (int, error) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		return 0, ErrMissingYear
	}
	raw, ok := body["year"]
	if !ok {
		return 0, ErrMissingYear
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, ErrYearNotInteger
	}
	year := int(f)
	if !model.YearInRange(year) {
		return 0, ErrYearOutOfRange
	}
	return year, nil
}

func writeValidationError(w http.ResponseWriter, sink coremetrics.Sink, err error, explained bool) {
	record(sink, coremetrics.PredictionEvent{
		Explained: explained,
		Outcome:   coremetrics.OutcomeValidationError,
		Timestamp: time.Now(),
	})
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func writePredictionError(w http.ResponseWriter, sink coremetrics.Sink, log logger.Logger, year int, err error, explained bool) {
	log.Errorf("prediction failed for year %d: %v", year, err)
	record(sink, coremetrics.PredictionEvent{
		Year:      year,
		Explained: explained,
		Outcome:   coremetrics.OutcomePredictionError,
		Timestamp: time.Now(),
	})
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Prediction failed: " + err.Error()})
}

func record(sink coremetrics.Sink, event coremetrics.PredictionEvent) {
	if sink == nil {
		return
	}
	_ = sink.RecordPrediction([]coremetrics.PredictionEvent{event})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
