// Package store loads the pre-trained model artifacts from disk. Artifacts
// are plain JSON documents written by the training side; they are read once
// at startup and never reloaded.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/co2cast/co2cast/core/explain"
	"github.com/co2cast/co2cast/core/model"
	"github.com/co2cast/co2cast/core/regression"
)

// Artifact file names inside the models directory.
const (
	DriverModelsFile = "driver_models.json"
	CO2ModelFile     = "co2_model.json"
	ExplainerFile    = "explainer.json"
)

// Artifacts holds every model loaded at startup. Instances are immutable once
// returned and safe for concurrent readers.
type Artifacts struct {
	Trends    map[string]regression.Model
	CO2       *regression.Linear
	Explainer *explain.Explainer
}

type trendArtifact struct {
	Type         string    `json:"type"`
	Coefficients []float64 `json:"coefficients"`
}

type co2Artifact struct {
	Type         string    `json:"type"`
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

type explainerArtifact struct {
	Features     []string  `json:"features"`
	FeatureMeans []float64 `json:"feature_means"`
	Samples      int       `json:"samples"`
}

// Load reads the three artifacts from dir and validates them against the
// configured feature set. The CO2 artifact must declare the features in
// exactly the training order; any mismatch fails the load instead of serving
// silently wrong predictions.
func Load(dir string) (*Artifacts, error) {
	trends, err := loadTrends(filepath.Join(dir, DriverModelsFile))
	if err != nil {
		return nil, err
	}
	co2, err := loadCO2(filepath.Join(dir, CO2ModelFile))
	if err != nil {
		return nil, err
	}
	expl, err := loadExplainer(filepath.Join(dir, ExplainerFile), co2)
	if err != nil {
		return nil, err
	}
	return &Artifacts{Trends: trends, CO2: co2, Explainer: expl}, nil
}

func loadTrends(path string) (map[string]regression.Model, error) {
	var raw map[string]trendArtifact
	if err := decodeFile(path, &raw); err != nil {
		return nil, err
	}
	trends := make(map[string]regression.Model, len(raw))
	for name, art := range raw {
		if art.Type != "polynomial" {
			return nil, fmt.Errorf("store: driver %s: unsupported model type %q", name, art.Type)
		}
		m, err := regression.NewPolynomial(art.Coefficients)
		if err != nil {
			return nil, fmt.Errorf("store: driver %s: %w", name, err)
		}
		trends[name] = m
	}
	for _, name := range model.Features {
		if _, ok := trends[name]; !ok {
			return nil, fmt.Errorf("store: %s: no trend model for driver %s", path, name)
		}
	}
	return trends, nil
}

func loadCO2(path string) (*regression.Linear, error) {
	var art co2Artifact
	if err := decodeFile(path, &art); err != nil {
		return nil, err
	}
	if art.Type != "linear" {
		return nil, fmt.Errorf("store: %s: unsupported model type %q", path, art.Type)
	}
	if err := checkFeatureOrder(art.Features); err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	if len(art.Coefficients) != len(art.Features) {
		return nil, fmt.Errorf("store: %s: %d coefficients for %d features", path, len(art.Coefficients), len(art.Features))
	}
	return regression.NewLinear(art.Coefficients, art.Intercept)
}

func loadExplainer(path string, co2 *regression.Linear) (*explain.Explainer, error) {
	var art explainerArtifact
	if err := decodeFile(path, &art); err != nil {
		return nil, err
	}
	if err := checkFeatureOrder(art.Features); err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	if art.Samples <= 0 {
		return nil, fmt.Errorf("store: %s: background sample size %d", path, art.Samples)
	}
	e, err := explain.New(co2, art.FeatureMeans)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	return e, nil
}

// checkFeatureOrder enforces that an artifact was trained on exactly the
// configured feature set, in the same order.
func checkFeatureOrder(features []string) error {
	if len(features) != len(model.Features) {
		return fmt.Errorf("declares %d features, expected %d", len(features), len(model.Features))
	}
	for i, name := range model.Features {
		if features[i] != name {
			return fmt.Errorf("feature %d is %q, expected %q", i, features[i], name)
		}
	}
	return nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: parse %s: %w", path, err)
	}
	return nil
}
