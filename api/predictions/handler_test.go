package predictions

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/co2cast/co2cast/core/explain"
	"github.com/co2cast/co2cast/core/model"
	"github.com/co2cast/co2cast/core/pipeline"
	"github.com/co2cast/co2cast/core/regression"
	"github.com/co2cast/co2cast/infra/logger"
)

type countingModel struct {
	inner regression.Model
	calls *int
}

func (c countingModel) NumFeatures() int { return c.inner.NumFeatures() }

func (c countingModel) Predict(x []float64) (float64, error) {
	*c.calls++
	return c.inner.Predict(x)
}

type failingModel struct{}

func (failingModel) NumFeatures() int { return len(model.Features) }

func (failingModel) Predict([]float64) (float64, error) {
	return 0, errors.New("co2 model exploded")
}

// testPipeline builds a pipeline over small deterministic models and returns
// a counter incremented on every model invocation.
func testPipeline(t *testing.T) (*pipeline.Pipeline, *int) {
	t.Helper()
	var calls int
	coeffs := map[string][]float64{
		"energy_per_capita":        {-380000, 200},
		"fossil_energy_per_capita": {-270000, 143},
		"renewables_share_energy":  {-700, 0.355},
		"energy_per_gdp":           {8.5, -0.00365},
	}
	trends := make(map[string]regression.Model, len(coeffs))
	for name, c := range coeffs {
		m, err := regression.NewPolynomial(c)
		if err != nil {
			t.Fatalf("trend %s: %v", name, err)
		}
		trends[name] = countingModel{inner: m, calls: &calls}
	}
	co2, err := regression.NewLinear([]float64{0.00005, 0.00018, -0.03, 0.5}, 0.3)
	if err != nil {
		t.Fatalf("co2 model: %v", err)
	}
	e, err := explain.New(co2, []float64{21000, 17500, 13.5, 1.3})
	if err != nil {
		t.Fatalf("explainer: %v", err)
	}
	p, err := pipeline.New(trends, countingModel{inner: co2, calls: &calls}, e, nil)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return p, &calls
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rr, req)
	return rr
}

func TestPredict_OK(t *testing.T) {
	p, _ := testPipeline(t)
	h := NewPredictHandler(p, nil, logger.NopLogger{})
	rr := post(t, h, `{"year": 2020}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Year             int                `json:"year"`
		CO2              float64            `json:"predicted_co2_per_capita"`
		ProjectedDrivers map[string]float64 `json:"projected_drivers"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Year != 2020 {
		t.Fatalf("year echo: %d", out.Year)
	}
	if math.IsNaN(out.CO2) || math.IsInf(out.CO2, 0) {
		t.Fatalf("prediction not finite: %v", out.CO2)
	}
	if len(out.ProjectedDrivers) != len(model.Features) {
		t.Fatalf("driver keys: %v", out.ProjectedDrivers)
	}
	for _, name := range model.Features {
		v, ok := out.ProjectedDrivers[name]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("driver %s missing or not finite", name)
		}
	}
}

func TestPredict_Idempotent(t *testing.T) {
	p, _ := testPipeline(t)
	h := NewPredictHandler(p, nil, logger.NopLogger{})
	first := post(t, h, `{"year": 2042}`)
	second := post(t, h, `{"year": 2042}`)
	if first.Body.String() != second.Body.String() {
		t.Fatalf("responses differ:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestPredict_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing year", `{}`, ErrMissingYear.Error()},
		{"empty body", ``, ErrMissingYear.Error()},
		{"null body", `null`, ErrMissingYear.Error()},
		{"string year", `{"year": "2020"}`, ErrYearNotInteger.Error()},
		{"fractional year", `{"year": 2020.5}`, ErrYearNotInteger.Error()},
		{"boolean year", `{"year": true}`, ErrYearNotInteger.Error()},
		{"below range", `{"year": 1800}`, ErrYearOutOfRange.Error()},
		{"above range", `{"year": 2101}`, ErrYearOutOfRange.Error()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, calls := testPipeline(t)
			h := NewPredictHandler(p, nil, logger.NopLogger{})
			rr := post(t, h, c.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status %d", rr.Code)
			}
			var out struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Error != c.want {
				t.Fatalf("error %q, want %q", out.Error, c.want)
			}
			if *calls != 0 {
				t.Fatalf("models invoked %d times on invalid input", *calls)
			}
		})
	}
}

func TestPredict_BoundaryYears(t *testing.T) {
	p, _ := testPipeline(t)
	h := NewPredictHandler(p, nil, logger.NopLogger{})
	for _, body := range []string{`{"year": 1965}`, `{"year": 2100}`} {
		if rr := post(t, h, body); rr.Code != http.StatusOK {
			t.Fatalf("boundary year rejected: %s -> %d", body, rr.Code)
		}
	}
}

func TestPredict_ModelFailure(t *testing.T) {
	trends := map[string]regression.Model{}
	for _, name := range model.Features {
		m, _ := regression.NewPolynomial([]float64{1})
		trends[name] = m
	}
	p, err := pipeline.New(trends, failingModel{}, nil, nil)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	h := NewPredictHandler(p, nil, logger.NopLogger{})
	rr := post(t, h, `{"year": 2020}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rr.Code)
	}
	var out struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(out.Error, "Prediction failed: ") {
		t.Fatalf("envelope missing: %q", out.Error)
	}
}

func TestExplain_OK(t *testing.T) {
	p, _ := testPipeline(t)
	h := NewExplainHandler(p, nil, logger.NopLogger{})
	rr := post(t, h, `{"year": 2020}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Year        int                `json:"year"`
		CO2         float64            `json:"predicted_co2_per_capita"`
		Baseline    float64            `json:"baseline"`
		Explanation struct {
			Contributions  map[string]float64 `json:"contributions"`
			Percentages    map[string]float64 `json:"percentages"`
			Interpretation string             `json:"interpretation"`
		} `json:"explanation"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	sum := out.Baseline
	for _, c := range out.Explanation.Contributions {
		sum += c
	}
	if math.Abs(sum-out.CO2) > 1e-2 {
		t.Fatalf("additivity: baseline+contributions=%v prediction=%v", sum, out.CO2)
	}

	pctSum := 0.0
	for _, pct := range out.Explanation.Percentages {
		pctSum += pct
	}
	if math.Abs(pctSum-100) > 0.5 {
		t.Fatalf("percentages sum to %v", pctSum)
	}

	text := out.Explanation.Interpretation
	if !strings.Contains(text, "emissions") || !strings.Contains(text, "% impact)") {
		t.Fatalf("unexpected interpretation %q", text)
	}
}

func TestExplain_ValidationShortCircuits(t *testing.T) {
	p, calls := testPipeline(t)
	h := NewExplainHandler(p, nil, logger.NopLogger{})
	rr := post(t, h, `{"year": 1800}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rr.Code)
	}
	if *calls != 0 {
		t.Fatalf("models invoked on invalid input")
	}
}
