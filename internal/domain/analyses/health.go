package analyses

import (
	"math"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
)

// Health is the codebase health score (0-100) and its letter grade.
type Health struct {
	Score float64 `json:"score"`
	Grade string  `json:"grade"`
}

// Penalty weights per issue severity; info findings are free.
const (
	weightCritical = 10.0
	weightHigh     = 5.0
	weightMedium   = 2.0
	weightLow      = 0.5
)

// ComputeHealth scores issue density per thousand lines, with a floor of one KLOC.
func ComputeHealth(c issues.SeverityCounts, loc int) Health {
	penalty := weightCritical*float64(c.Critical) +
		weightHigh*float64(c.High) +
		weightMedium*float64(c.Medium) +
		weightLow*float64(c.Low)
	kloc := math.Max(float64(loc)/1000, 1)
	score := 100 - penalty/kloc
	score = math.Max(0, math.Min(100, score))
	score = math.Round(score*10) / 10
	return Health{Score: score, Grade: grade(score)}
}

func grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
