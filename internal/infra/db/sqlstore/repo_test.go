package sqlstore_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/insights"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/db/sqlite"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/db/sqlstore"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Connect(ctx, sqlite.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(ctx, db, sqlite.Dialect))
	// idempotent
	require.NoError(t, sqlstore.Migrate(ctx, db, sqlite.Dialect))
	return db
}

func TestAnalysisRepository(t *testing.T) {
	ctx := context.Background()
	repo := sqlstore.NewAnalysisRepository(openDB(t), sqlite.Dialect)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.Get(ctx, "acme", "missing")
	assert.ErrorIs(t, err, analyses.ErrNotFound)

	for i, src := range []string{"github.com/acme/api", "github.com/acme/web", "/srv/100%_local"} {
		a := &analyses.Analysis{
			ID:          analyses.ID([]string{"a1", "a2", "a3"}[i]),
			TenantID:    "acme",
			Source:      src,
			Branch:      "main",
			Status:      analyses.StatusSuccess,
			TriggeredAt: base.Add(time.Duration(i) * time.Hour),
			Counts:      issues.SeverityCounts{Critical: i, High: 1, Medium: 2, Total: i + 3},
			Health:      analyses.Health{Score: 80 + float64(i)*5, Grade: "B"},
			Metadata:    map[string]any{"run": float64(i)},
		}
		require.NoError(t, repo.Save(ctx, a))
	}
	require.NoError(t, repo.Save(ctx, &analyses.Analysis{ID: "other", TenantID: "globex", Source: "x", Status: analyses.StatusFailed, TriggeredAt: base}))

	got, err := repo.Get(ctx, "acme", "a2")
	require.NoError(t, err)
	assert.Equal(t, "github.com/acme/web", got.Source)
	assert.Equal(t, base.Add(time.Hour), got.TriggeredAt)
	assert.Equal(t, 1, got.Counts.Critical)
	assert.Equal(t, 85.0, got.Health.Score)
	assert.Equal(t, map[string]any{"run": 1.0}, got.Metadata)

	// upsert keeps the row and refreshes mutable columns
	got.Status = analyses.StatusFailed
	got.Error = "boom"
	require.NoError(t, repo.Save(ctx, got))
	again, err := repo.Get(ctx, "acme", "a2")
	require.NoError(t, err)
	assert.Equal(t, analyses.StatusFailed, again.Status)
	assert.Equal(t, "boom", again.Error)

	latest, err := repo.Latest(ctx, "acme", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, analyses.ID("a3"), latest[0].ID)

	page, err := repo.Paginate(ctx, "acme", analyses.Filter{Source: "acme"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, analyses.ID("a2"), page.Data[0].ID)

	page, err = repo.Paginate(ctx, "acme", analyses.Filter{Source: "100%_"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = repo.Paginate(ctx, "acme", analyses.Filter{Status: "failed"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	sum, err := repo.Summary(ctx, "acme", base.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalAnalyses)
	assert.Equal(t, 3, sum.Critical)
	assert.Equal(t, 3, sum.High)
	assert.Equal(t, 6, sum.Medium)
	assert.Equal(t, 85.0, sum.AverageHealth)
}

func TestIssueRepository(t *testing.T) {
	ctx := context.Background()
	repo := sqlstore.NewIssueRepository(openDB(t), sqlite.Dialect)

	list := []*issues.Issue{
		{TenantID: "acme", AnalysisID: "a1", Rule: "dead-code", Category: "dead-code", Severity: issues.SeverityLow, File: "b.go", Line: 3},
		{TenantID: "acme", AnalysisID: "a1", Rule: "syntax", Category: "syntax", Severity: issues.SeverityCritical, File: "a.go", Line: 1, Message: "bad"},
		{TenantID: "acme", AnalysisID: "a1", Rule: "complexity", Category: "lint", Severity: issues.SeverityMedium, File: "b.go", Line: 9},
		{TenantID: "acme", AnalysisID: "a2", Rule: "syntax", Category: "syntax", Severity: issues.SeverityCritical, File: "c.go"},
	}
	require.NoError(t, repo.SaveBatch(ctx, list))
	for _, is := range list {
		assert.NotEmpty(t, is.ID)
	}

	page, err := repo.Paginate(ctx, "acme", "a1", issues.Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Data, 3)
	assert.Equal(t, issues.SeverityCritical, page.Data[0].Severity)
	assert.Equal(t, "bad", page.Data[0].Message)
	assert.Equal(t, issues.SeverityLow, page.Data[2].Severity)

	page, err = repo.Paginate(ctx, "acme", "a1", issues.Filter{File: "b.go", Severity: "medium"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "complexity", page.Data[0].Rule)

	top, err := repo.TopFiles(ctx, "acme", "a1", 5)
	require.NoError(t, err)
	assert.Equal(t, []issues.FileCount{{File: "b.go", Count: 2}, {File: "a.go", Count: 1}}, top)

	require.NoError(t, repo.ReplaceByAnalysis(ctx, "acme", "a1", nil))
	page, err = repo.Paginate(ctx, "acme", "a1", issues.Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Data)

	page, err = repo.Paginate(ctx, "acme", "a2", issues.Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestIssueReplaceByAnalysis(t *testing.T) {
	ctx := context.Background()
	repo := sqlstore.NewIssueRepository(openDB(t), sqlite.Dialect)

	require.NoError(t, repo.SaveBatch(ctx, []*issues.Issue{
		{TenantID: "acme", AnalysisID: "a1", Rule: "syntax", Category: "syntax", Severity: issues.SeverityCritical, File: "a.go"},
		{TenantID: "acme", AnalysisID: "a1", Rule: "dead-code", Category: "dead-code", Severity: issues.SeverityLow, File: "b.go"},
	}))

	require.NoError(t, repo.ReplaceByAnalysis(ctx, "acme", "a1", []*issues.Issue{
		{TenantID: "acme", AnalysisID: "a1", Rule: "complexity", Category: "lint", Severity: issues.SeverityMedium, File: "c.go"},
	}))
	page, err := repo.Paginate(ctx, "acme", "a1", issues.Filter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "complexity", page.Data[0].Rule)

	// a duplicate id fails the insert after the delete ran
	dup := []*issues.Issue{
		{ID: "dup", TenantID: "acme", AnalysisID: "a1", Rule: "syntax", Category: "syntax", Severity: issues.SeverityHigh, File: "d.go"},
		{ID: "dup", TenantID: "acme", AnalysisID: "a1", Rule: "syntax", Category: "syntax", Severity: issues.SeverityHigh, File: "e.go"},
	}
	require.Error(t, repo.ReplaceByAnalysis(ctx, "acme", "a1", dup))
	page, err = repo.Paginate(ctx, "acme", "a1", issues.Filter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "complexity", page.Data[0].Rule)
}

func TestInsightRepository(t *testing.T) {
	ctx := context.Background()
	repo := sqlstore.NewInsightRepository(openDB(t), sqlite.Dialect)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.LatestByAnalysis(ctx, "acme", "a1")
	assert.ErrorIs(t, err, insights.ErrNotFound)

	require.NoError(t, repo.Save(ctx, &insights.Insight{ID: "i1", TenantID: "acme", AnalysisID: "a1", Provider: "heuristic", CreatedAt: base}))
	require.NoError(t, repo.Save(ctx, &insights.Insight{ID: "i2", TenantID: "acme", AnalysisID: "a1", Provider: "openai", Result: `{"summary":"ok"}`, CreatedAt: base.Add(time.Minute)}))

	latest, err := repo.LatestByAnalysis(ctx, "acme", "a1")
	require.NoError(t, err)
	assert.Equal(t, insights.ID("i2"), latest.ID)
	assert.JSONEq(t, `{"summary":"ok"}`, latest.Result)

	list, err := repo.Paginate(ctx, "acme", 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "{}", list[1].Result)
}
