package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the root service configuration.
type Config struct {
	HTTP    HTTPConfig    `json:"http"`
	Models  ModelsConfig  `json:"models"`
	Metrics MetricsConfig `json:"metrics"`
	Logging LoggingConfig `json:"logging"`
}

// HTTPConfig controls the API server.
type HTTPConfig struct {
	// Addr is the listen address, host optional.
	Addr string `json:"addr"`
	// StaticDir is served at the site root; empty disables static serving.
	StaticDir string `json:"static_dir"`
	// AllowedOrigins is the CORS allow-list. Defaults to a wildcard so
	// browser frontends on other origins can call the API.
	AllowedOrigins []string `json:"allowed_origins"`
}

// ModelsConfig locates the pre-trained artifacts.
type ModelsConfig struct {
	// Dir contains driver_models.json, co2_model.json and explainer.json.
	Dir string `json:"dir"`
}

// Load reads the configuration file (yaml or json by extension) and applies
// CC_-prefixed environment overrides, then defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. CC_HTTP__ADDR=:9000
	if err := k.Load(env.Provider("CC_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "cc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.HTTP.SetDefaults()
	cfg.Models.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.StaticDir == "" {
		c.StaticDir = "web"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// SetDefaults applies sane defaults.
func (c *ModelsConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "models"
	}
}
