package metrics

import coremetrics "github.com/co2cast/co2cast/core/metrics"

// MultiSink fans prediction events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards the events to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordPrediction(events []coremetrics.PredictionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPrediction(events); err != nil {
			return err
		}
	}
	return nil
}
