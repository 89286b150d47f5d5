// Package api assembles the HTTP surface: prediction endpoints, health,
// Prometheus metrics and the static frontend.
package api

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/co2cast/co2cast/api/predictions"
	"github.com/co2cast/co2cast/core/logger"
	coremetrics "github.com/co2cast/co2cast/core/metrics"
	"github.com/co2cast/co2cast/core/pipeline"
)

// RouterConfig controls the assembled routes.
type RouterConfig struct {
	// AllowedOrigins is the CORS allow-list; responses must be consumable by
	// browser frontends served from other origins.
	AllowedOrigins []string
	// StaticDir is served at the site root; empty disables static serving.
	StaticDir string
	// Metrics mounts the Prometheus handler at /metrics.
	Metrics bool
}

// NewRouter builds the service router. The recoverer converts panics anywhere
// below into 500 responses so a failing request never takes down the process.
func NewRouter(p *pipeline.Pipeline, sink coremetrics.Sink, log logger.Logger, cfg RouterConfig) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Method(http.MethodPost, "/predict", predictions.NewPredictHandler(p, sink, log))
	r.Method(http.MethodPost, "/predict/explain", predictions.NewExplainHandler(p, sink, log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","models_loaded":true}` + "\n"))
	})

	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	if cfg.StaticDir != "" {
		dir := cfg.StaticDir
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.ServeFile(w, req, filepath.Join(dir, "index.html"))
		})
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	return r
}
