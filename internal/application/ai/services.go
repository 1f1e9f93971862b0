package ai

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/application"
	analysesapp "github.com/Zeeeepa/graph-sitter-sub004/internal/application/analyses"
	domainai "github.com/Zeeeepa/graph-sitter-sub004/internal/domain/ai"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/insights"
)

const briefIssues = 10

// Dashboards is the slice of the analyses service the AI service reads from.
type Dashboards interface {
	Dashboard(ctx context.Context, tenant string, id analyses.ID) (*analysesapp.Dashboard, error)
}

// PromptBuilder renders a brief into a provider prompt.
type PromptBuilder interface {
	Build(b insights.Brief) (domainai.Prompt, error)
}

// Validator checks a provider answer before it is stored.
type Validator func(raw string) error

type Service struct {
	client     domainai.Client
	dashboards Dashboards
	prompts    PromptBuilder
	repo       insights.Repository
	validate   Validator
	clock      application.Clock
	logger     hclog.Logger
}

// NewService wires the AI use-cases; client may be nil when AI is disabled.
func NewService(client domainai.Client, dashboards Dashboards, prompts PromptBuilder, repo insights.Repository, validate Validator, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{
		client:     client,
		dashboards: dashboards,
		prompts:    prompts,
		repo:       repo,
		validate:   validate,
		clock:      application.SystemClock{},
		logger:     logger,
	}
}

// Explain asks the provider to interpret an analysis dashboard and stores the insight.
func (s *Service) Explain(ctx context.Context, tenant string, analysisID analyses.ID) (*insights.Insight, error) {
	if s.client == nil {
		return nil, domainai.ErrDisabled
	}
	d, err := s.dashboards.Dashboard(ctx, tenant, analysisID)
	if err != nil {
		return nil, err
	}
	if d.Analysis.Status != analyses.StatusSuccess {
		return nil, fmt.Errorf("%w: analysis %s is %s", analyses.ErrInvalidRequest, analysisID, d.Analysis.Status)
	}
	p, err := s.prompts.Build(BriefOf(d))
	if err != nil {
		return nil, err
	}
	raw, err := s.client.Complete(ctx, p)
	if err != nil {
		return nil, err
	}
	if s.validate != nil {
		if err := s.validate(raw); err != nil {
			return nil, fmt.Errorf("%s answer rejected: %w", s.client.Provider(), err)
		}
	}
	in := &insights.Insight{
		ID:         insights.ID(uuid.New().String()),
		TenantID:   tenant,
		AnalysisID: string(analysisID),
		Provider:   s.client.Provider(),
		Result:     raw,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.Save(ctx, in); err != nil {
		return nil, fmt.Errorf("save insight: %w", err)
	}
	s.logger.Info("insight stored", "tenant", tenant, "analysis", analysisID, "provider", in.Provider)
	return in, nil
}

func (s *Service) List(ctx context.Context, tenant string, page, pageSize int) ([]*insights.Insight, error) {
	return s.repo.Paginate(ctx, tenant, page, pageSize)
}

func (s *Service) Latest(ctx context.Context, tenant string, analysisID analyses.ID) (*insights.Insight, error) {
	return s.repo.LatestByAnalysis(ctx, tenant, string(analysisID))
}

// BriefOf condenses a dashboard into the provider payload.
func BriefOf(d *analysesapp.Dashboard) insights.Brief {
	b := insights.Brief{
		AnalysisID: string(d.Analysis.ID),
		Source:     d.Analysis.Source,
		Branch:     d.Analysis.Branch,
		Health:     d.Health,
		Counts:     d.Counts,
		Categories: d.Categories,
		TopFiles:   d.TopFiles,
		DeadCode:   d.DeadCode,
		LOC:        d.Analysis.LOC,
	}
	for i, is := range d.Issues {
		if i == briefIssues {
			break
		}
		b.TopIssues = append(b.TopIssues, insights.BriefIssue{
			Rule:     is.Rule,
			Severity: string(is.Severity),
			Message:  is.Message,
			File:     is.File,
			Line:     is.Line,
		})
	}
	return b
}
