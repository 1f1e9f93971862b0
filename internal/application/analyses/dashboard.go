package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
	domain "github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/tracker"
)

const (
	dashboardIssues  = 10
	dashboardFiles   = 5
	publishedURLKey  = "published_url"
	publishIssueRows = 10
)

// Dashboard is the one-screen view of an analysis.
type Dashboard struct {
	Analysis   *domain.Analysis      `json:"analysis"`
	Health     domain.Health         `json:"health"`
	Counts     issues.SeverityCounts `json:"counts"`
	Categories map[string]int        `json:"categories"`
	TopFiles   []issues.FileCount    `json:"top_files"`
	DeadCode   int                   `json:"dead_code"`
	Metrics    *analysis.Metrics     `json:"metrics,omitempty"`
	Issues     []*issues.Issue       `json:"issues"`
}

// Dashboard aggregates the analysis record, its issues and the snapshot breakdown.
func (s *Service) Dashboard(ctx context.Context, tenant string, id domain.ID) (*Dashboard, error) {
	a, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		Analysis:   a,
		Health:     a.Health,
		Counts:     a.Counts,
		Categories: map[string]int{},
		DeadCode:   a.DeadCode,
		Issues:     []*issues.Issue{},
	}
	if a.Status != domain.StatusSuccess {
		return d, nil
	}

	switch snap, err := s.Snapshot(ctx, tenant, id); {
	case err == nil:
		for _, is := range snap.Report().Issues {
			d.Categories[is.Category]++
		}
		m := snap.Metrics
		d.Metrics = &m
	case errors.Is(err, domain.ErrSnapshotUnavailable):
		s.log().Warn("dashboard without snapshot", "id", id, "error", err)
	default:
		return nil, err
	}

	if d.TopFiles, err = s.IssueRepo.TopFiles(ctx, tenant, string(id), dashboardFiles); err != nil {
		return nil, fmt.Errorf("top files: %w", err)
	}
	page, err := s.IssueRepo.Paginate(ctx, tenant, string(id), issues.Filter{}, 1, dashboardIssues)
	if err != nil {
		return nil, fmt.Errorf("top issues: %w", err)
	}
	d.Issues = page.Data
	return d, nil
}

// Publish opens one tracker issue summarising an analysis and returns its URL.
func (s *Service) Publish(ctx context.Context, tenant string, id domain.ID, repo string) (string, error) {
	if s.Tracker == nil {
		return "", tracker.ErrNotConfigured
	}
	if !strings.Contains(strings.Trim(repo, "/"), "/") {
		return "", fmt.Errorf("%w: repo must be owner/name", domain.ErrInvalidRequest)
	}
	a, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return "", err
	}
	if a.Status != domain.StatusSuccess {
		return "", fmt.Errorf("%w: analysis %s is %s", domain.ErrInvalidRequest, id, a.Status)
	}
	page, err := s.IssueRepo.Paginate(ctx, tenant, string(id), issues.Filter{}, 1, publishIssueRows)
	if err != nil {
		return "", fmt.Errorf("list issues: %w", err)
	}

	title := fmt.Sprintf("Code health %s (%.1f) for %s", a.Health.Grade, a.Health.Score, a.Source)
	url, err := s.Tracker.CreateIssue(ctx, repo, title, publishBody(a, page.Data), []string{"graph-sitter", "code-health"})
	if err != nil {
		return "", fmt.Errorf("create tracker issue: %w", err)
	}

	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	a.Metadata[publishedURLKey] = url
	if err := s.Repo.Save(ctx, a); err != nil {
		s.log().Warn("failed to record published url", "id", id, "error", err)
	}
	return url, nil
}

func publishBody(a *domain.Analysis, top []*issues.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis `%s` of `%s`", a.ID, a.Source)
	if a.CommitSHA != "" {
		fmt.Fprintf(&b, " at `%s`", a.CommitSHA)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "| critical | high | medium | low | info |\n|---|---|---|---|---|\n| %d | %d | %d | %d | %d |\n\n",
		a.Counts.Critical, a.Counts.High, a.Counts.Medium, a.Counts.Low, a.Counts.Info)
	fmt.Fprintf(&b, "%d files, %d lines, %d unused symbols.\n", a.Files, a.LOC, a.DeadCode)
	if len(top) > 0 {
		b.WriteString("\n### Top findings\n\n")
		for _, is := range top {
			fmt.Fprintf(&b, "- **%s** `%s` %s:%d %s\n", is.Severity, is.Rule, is.File, is.Line, is.Message)
		}
	}
	return b.String()
}
