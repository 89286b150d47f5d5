package model

// Features lists the energy-driver variables the CO2 model was trained on, in
// training order. Projection, feature-vector assembly and attribution all
// index into this list; it is the only place the feature set is declared.
var Features = []string{
	"energy_per_capita",
	"fossil_energy_per_capita",
	"renewables_share_energy",
	"energy_per_gdp",
}

// Supported year range for predictions. Years outside the range are rejected
// before any model is invoked.
const (
	MinYear = 1965
	MaxYear = 2100
)

// YearInRange reports whether a year falls inside the supported range.
func YearInRange(year int) bool {
	return year >= MinYear && year <= MaxYear
}

// Drivers maps a driver name to its projected value for one year.
type Drivers map[string]float64

// Vector assembles the feature vector in Features order. The second return
// value names the first missing driver, empty when all are present.
func (d Drivers) Vector() ([]float64, string) {
	x := make([]float64, len(Features))
	for i, name := range Features {
		v, ok := d[name]
		if !ok {
			return nil, name
		}
		x[i] = v
	}
	return x, ""
}

// Prediction is the result of one predict request.
type Prediction struct {
	Year         int
	CO2PerCapita float64
	Drivers      Drivers
}

// Explanation decomposes a prediction into per-driver contributions relative
// to a baseline value.
type Explanation struct {
	Baseline       float64
	Contributions  map[string]float64
	Percentages    map[string]float64
	Interpretation string
}
