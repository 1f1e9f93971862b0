package analyses

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
)

func TestComputeHealth(t *testing.T) {
	cases := []struct {
		name   string
		counts issues.SeverityCounts
		loc    int
		score  float64
		grade  string
	}{
		{"clean", issues.SeverityCounts{}, 5000, 100, "A"},
		{"small codebase uses one kloc floor", issues.SeverityCounts{High: 2}, 200, 90, "A"},
		{"density per kloc", issues.SeverityCounts{Critical: 1, Medium: 5, Low: 4}, 2000, 89, "B"},
		{"info is free", issues.SeverityCounts{Info: 40}, 1000, 100, "A"},
		{"clamped at zero", issues.SeverityCounts{Critical: 50}, 1000, 0, "F"},
		{"rounded to one decimal", issues.SeverityCounts{Low: 1}, 3000, 99.8, "A"},
		{"grade D", issues.SeverityCounts{Critical: 3, High: 2}, 1000, 60, "D"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := ComputeHealth(tc.counts, tc.loc)
			assert.InDelta(t, tc.score, h.Score, 0.0001)
			assert.Equal(t, tc.grade, h.Grade)
		})
	}
}
