package heuristic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/ai"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/insights"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/ai/prompt"
)

func TestCompleteFromBrief(t *testing.T) {
	b := insights.Brief{
		AnalysisID: "a1",
		Source:     "./demo",
		Health:     analyses.Health{Score: 72, Grade: "C"},
		Counts:     issues.SeverityCounts{Critical: 1, Low: 2, Total: 3},
		Categories: map[string]int{"syntax": 1, "dead-code": 2},
		TopFiles:   []issues.FileCount{{File: "main.go", Count: 3}},
		DeadCode:   2,
	}
	p, err := prompt.Builder{}.Build(b)
	require.NoError(t, err)

	c := New()
	assert.Equal(t, "heuristic", c.Provider())
	raw, err := c.Complete(context.Background(), p)
	require.NoError(t, err)

	s, err := prompt.ParseSuggestion(raw)
	require.NoError(t, err)
	assert.Equal(t, "a1", s.AnalysisID)
	require.Len(t, s.Findings, 3)
	assert.Equal(t, "critical", s.Findings[0].Severity)
	assert.Equal(t, "low", s.Findings[1].Severity)
	assert.Contains(t, s.Findings[2].Summary, "main.go")
	assert.Contains(t, s.Advice, "Immediate action")
}

func TestSuggestCleanBrief(t *testing.T) {
	s := Suggest(insights.Brief{AnalysisID: "ok"})
	require.Len(t, s.Findings, 1)
	assert.Equal(t, "info", s.Findings[0].Severity)
}

func TestCompleteWithoutBrief(t *testing.T) {
	_, err := New().Complete(context.Background(), ai.Prompt{User: "hello"})
	assert.ErrorIs(t, err, prompt.ErrNoBrief)
}
