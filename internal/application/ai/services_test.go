package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysesapp "github.com/Zeeeepa/graph-sitter-sub004/internal/application/analyses"
	domainai "github.com/Zeeeepa/graph-sitter-sub004/internal/domain/ai"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/insights"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/ai/heuristic"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/ai/prompt"
)

type stubDashboards map[analyses.ID]*analysesapp.Dashboard

func (s stubDashboards) Dashboard(ctx context.Context, tenant string, id analyses.ID) (*analysesapp.Dashboard, error) {
	d, ok := s[id]
	if !ok {
		return nil, analyses.ErrNotFound
	}
	return d, nil
}

type memInsights struct{ list []*insights.Insight }

func (m *memInsights) Save(ctx context.Context, in *insights.Insight) error {
	m.list = append(m.list, in)
	return nil
}

func (m *memInsights) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*insights.Insight, error) {
	return m.list, nil
}

func (m *memInsights) LatestByAnalysis(ctx context.Context, tenant, analysisID string) (*insights.Insight, error) {
	for i := len(m.list) - 1; i >= 0; i-- {
		if m.list[i].AnalysisID == analysisID {
			return m.list[i], nil
		}
	}
	return nil, insights.ErrNotFound
}

type failingClient struct{}

func (failingClient) Complete(ctx context.Context, p domainai.Prompt) (string, error) {
	return "", domainai.ErrQuotaExceeded
}

func (failingClient) Provider() string { return "failing" }

func dashboards() stubDashboards {
	return stubDashboards{
		"ok": {
			Analysis:   &analyses.Analysis{ID: "ok", Source: "./demo", Status: analyses.StatusSuccess},
			Health:     analyses.Health{Score: 95, Grade: "A"},
			Counts:     issues.SeverityCounts{Low: 2, Total: 2},
			Categories: map[string]int{"dead-code": 2},
			DeadCode:   2,
			Issues:     []*issues.Issue{{Rule: "dead-code", Severity: issues.SeverityLow, File: "a.go", Line: 3}},
		},
		"failed": {Analysis: &analyses.Analysis{ID: "failed", Status: analyses.StatusFailed}},
	}
}

func validate(raw string) error {
	_, err := prompt.ParseSuggestion(raw)
	return err
}

func TestExplainStoresInsight(t *testing.T) {
	ctx := context.Background()
	repo := &memInsights{}
	svc := NewService(heuristic.New(), dashboards(), prompt.Builder{}, repo, validate, nil)

	in, err := svc.Explain(ctx, "acme", "ok")
	require.NoError(t, err)
	assert.Equal(t, "heuristic", in.Provider)
	assert.Equal(t, "ok", in.AnalysisID)
	assert.Contains(t, in.Result, "Unused code")

	latest, err := svc.Latest(ctx, "acme", "ok")
	require.NoError(t, err)
	assert.Equal(t, in.ID, latest.ID)

	list, err := svc.List(ctx, "acme", 1, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestExplainErrors(t *testing.T) {
	ctx := context.Background()
	_, err := NewService(nil, dashboards(), prompt.Builder{}, &memInsights{}, nil, nil).Explain(ctx, "acme", "ok")
	assert.ErrorIs(t, err, domainai.ErrDisabled)

	svc := NewService(heuristic.New(), dashboards(), prompt.Builder{}, &memInsights{}, nil, nil)
	_, err = svc.Explain(ctx, "acme", "missing")
	assert.ErrorIs(t, err, analyses.ErrNotFound)
	_, err = svc.Explain(ctx, "acme", "failed")
	assert.ErrorIs(t, err, analyses.ErrInvalidRequest)

	_, err = NewService(failingClient{}, dashboards(), prompt.Builder{}, &memInsights{}, nil, nil).Explain(ctx, "acme", "ok")
	assert.True(t, errors.Is(err, domainai.ErrQuotaExceeded))
}

func TestBriefOfCapsIssues(t *testing.T) {
	d := dashboards()["ok"]
	for i := 0; i < 15; i++ {
		d.Issues = append(d.Issues, &issues.Issue{Rule: "x"})
	}
	b := BriefOf(d)
	assert.Len(t, b.TopIssues, briefIssues)
	assert.Equal(t, "./demo", b.Source)
}
