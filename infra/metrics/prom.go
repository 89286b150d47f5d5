package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/co2cast/co2cast/core/metrics"
)

// PromSink records prediction events in Prometheus metrics.
type PromSink struct {
	events  *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewPromSink registers prediction metrics on the provided Prometheus
// registerer. If reg is nil, the default registerer is used. If the
// collectors are already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "co2cast_predictions_total",
		Help: "Total number of handled prediction requests",
	}, []string{"outcome", "explained"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "co2cast_prediction_duration_seconds",
		Help:    "Time spent computing one prediction",
		Buckets: prometheus.DefBuckets,
	}, []string{"explained"})

	if err := reg.Register(events); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			events = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{events: events, latency: latency}, nil
}

// RecordPrediction increments the counter and latency histogram per event.
func (s *PromSink) RecordPrediction(events []coremetrics.PredictionEvent) error {
	for _, e := range events {
		explained := strconv.FormatBool(e.Explained)
		s.events.WithLabelValues(e.Outcome, explained).Inc()
		if e.Outcome == coremetrics.OutcomeOK {
			s.latency.WithLabelValues(explained).Observe(e.Duration.Seconds())
		}
	}
	return nil
}
