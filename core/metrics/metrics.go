package metrics

import "time"

// Outcome labels for served prediction requests.
const (
	OutcomeOK              = "ok"
	OutcomeValidationError = "validation_error"
	OutcomePredictionError = "prediction_error"
)

// PredictionEvent describes one handled prediction request for observability
// sinks. CO2PerCapita is meaningful only when Outcome is OutcomeOK.
type PredictionEvent struct {
	Year         int
	CO2PerCapita float64
	Explained    bool
	Outcome      string
	Duration     time.Duration
	Timestamp    time.Time
}

// Sink records prediction events for observability purposes.
type Sink interface {
	RecordPrediction(events []PredictionEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction([]PredictionEvent) error { return nil }
