package config

import "fmt"

// MetricsConfig enables observability sinks. Prometheus metrics are mounted
// on the main router at /metrics; InfluxDB is written to directly.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// Validate checks mandatory fields for enabled sinks.
func (c MetricsConfig) Validate() error {
	if c.InfluxEnabled {
		if c.InfluxURL == "" {
			return fmt.Errorf("influx_url is required when influx is enabled")
		}
		if c.InfluxOrg == "" || c.InfluxBucket == "" {
			return fmt.Errorf("influx_org and influx_bucket are required when influx is enabled")
		}
	}
	return nil
}
