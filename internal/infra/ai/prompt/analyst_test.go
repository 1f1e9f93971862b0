package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/insights"
)

func TestBriefRoundTripsThroughUserPrompt(t *testing.T) {
	b := insights.Brief{AnalysisID: "a1", Source: "github.com/acme/api", DeadCode: 4, Categories: map[string]int{"lint": 2}}
	p, err := Builder{}.Build(b)
	require.NoError(t, err)
	assert.Contains(t, p.System, "single JSON object")
	assert.Contains(t, p.User, "analysis a1 of github.com/acme/api")

	got, err := ParseBrief(p.User)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestParseSuggestion(t *testing.T) {
	s, err := ParseSuggestion(`{"analysis_id":"a","findings":[{"title":"x","severity":"HIGH"}],"advice":"y"}`)
	require.NoError(t, err)
	assert.Equal(t, "high", s.Findings[0].Severity)

	_, err = ParseSuggestion(`{"findings":[{"summary":"no title"}]}`)
	assert.Error(t, err)
	_, err = ParseSuggestion("not json")
	assert.Error(t, err)
}
