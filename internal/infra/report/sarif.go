package report

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
)

const (
	toolName = "graph-sitter"
	toolURI  = "https://github.com/Zeeeepa/graph-sitter"
)

// WriteSARIF renders the report issues as a SARIF 2.1.0 log with a single run.
func WriteSARIF(w io.Writer, r analysis.Report) error {
	log, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("create sarif report: %w", err)
	}
	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	for _, is := range r.Issues {
		level := sarifLevel(is.Severity)
		rule := run.AddRule(is.Rule).
			WithDescription(is.Category).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(is.Message)).
			WithLevel(level)
		if is.File != "" {
			region := sarif.NewRegion().WithStartLine(is.Line).WithStartColumn(is.Column)
			if is.EndLine > 0 {
				region = region.WithEndLine(is.EndLine).WithEndColumn(is.EndColumn)
			}
			result = result.WithLocations([]*sarif.Location{
				sarif.NewLocation().WithPhysicalLocation(
					sarif.NewPhysicalLocation().
						WithArtifactLocation(sarif.NewArtifactLocation().WithUri(is.File)).
						WithRegion(region),
				),
			})
		}
		run.AddResult(result)
	}
	log.AddRun(run)
	return log.PrettyWrite(w)
}

func sarifLevel(s issues.Severity) string {
	switch s {
	case issues.SeverityCritical, issues.SeverityHigh:
		return "error"
	case issues.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
