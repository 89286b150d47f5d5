package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Interpret renders a short human-readable summary of the two strongest
// contributions, strongest first. A strictly positive contribution reads
// "increases"; zero and negative read "decreases".
func Interpret(contributions, percentages map[string]float64) string {
	names := make([]string, 0, len(contributions))
	for name := range contributions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ai := math.Abs(contributions[names[i]])
		aj := math.Abs(contributions[names[j]])
		if ai != aj {
			return ai > aj
		}
		return names[i] < names[j]
	})
	if len(names) > 2 {
		names = names[:2]
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		direction := "decreases"
		if contributions[name] > 0 {
			direction = "increases"
		}
		parts = append(parts, fmt.Sprintf("%s %s emissions (%.1f%% impact)", readableName(name), direction, percentages[name]))
	}
	return strings.Join(parts, "; ")
}

// readableName turns a driver identifier into display form:
// "renewables_share_energy" becomes "Renewables Share Energy".
func readableName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
