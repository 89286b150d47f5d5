package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/co2cast/co2cast/api"
	"github.com/co2cast/co2cast/config"
	coremetrics "github.com/co2cast/co2cast/core/metrics"
	"github.com/co2cast/co2cast/core/pipeline"
	"github.com/co2cast/co2cast/infra/logger"
	"github.com/co2cast/co2cast/infra/metrics"
	"github.com/co2cast/co2cast/infra/store"
)

// Service owns the loaded models and the HTTP server. Models are loaded once
// in New and shared read-only by every request for the process lifetime.
type Service struct {
	Pipeline *pipeline.Pipeline

	cfg     *config.Config
	handler http.Handler
	log     logger.Logger
	influx  *metrics.InfluxSink
}

// New loads the model artifacts and wires the pipeline, sinks and router.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("service")

	artifacts, err := store.Load(cfg.Models.Dir)
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	logg.Infof("loaded %d trend models and CO2 model from %s", len(artifacts.Trends), cfg.Models.Dir)

	pipe, err := pipeline.New(artifacts.Trends, artifacts.CO2, artifacts.Explainer, logger.New("pipeline"))
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	svc := &Service{Pipeline: pipe, cfg: cfg, log: logg}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		if is, ok := sink.(*metrics.InfluxSink); ok {
			svc.influx = is
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	svc.handler = api.NewRouter(pipe, sink, logger.New("api"), api.RouterConfig{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		StaticDir:      cfg.HTTP.StaticDir,
		Metrics:        cfg.Metrics.PrometheusEnabled,
	})
	return svc, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: s.handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("server shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.influx != nil {
		s.influx.Close()
	}
	return nil
}
