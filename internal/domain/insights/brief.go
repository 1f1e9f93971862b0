package insights

import (
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
)

// Brief is the dashboard digest handed to an AI provider.
type Brief struct {
	AnalysisID string                `json:"analysis_id"`
	Source     string                `json:"source"`
	Branch     string                `json:"branch,omitempty"`
	Health     analyses.Health       `json:"health"`
	Counts     issues.SeverityCounts `json:"counts"`
	Categories map[string]int        `json:"categories"`
	TopFiles   []issues.FileCount    `json:"top_files"`
	DeadCode   int                   `json:"dead_code"`
	LOC        int                   `json:"loc"`
	TopIssues  []BriefIssue          `json:"top_issues"`
}

type BriefIssue struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Suggestion is the JSON document every provider must answer with.
type Suggestion struct {
	AnalysisID string    `json:"analysis_id"`
	Findings   []Finding `json:"findings"`
	Advice     string    `json:"advice"`
}

type Finding struct {
	Title          string `json:"title"`
	Severity       string `json:"severity"`
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
}
