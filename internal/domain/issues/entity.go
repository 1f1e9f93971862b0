package issues

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/diagnostics"
)

// Severity enum
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// RuleDeadCode is the rule id of unreferenced-symbol findings.
const RuleDeadCode = "dead-code"

// Weight orders severities, critical highest.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if sev.Weight() == 0 {
		return "", fmt.Errorf("unknown severity %q (allowed: critical, high, medium, low, info)", s)
	}
	return sev, nil
}

// SeverityCounts value object
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	case SeverityInfo:
		c.Info++
	default:
		return
	}
	c.Total++
}

// AtLeast counts findings of severity min or worse.
func (c SeverityCounts) AtLeast(min Severity) int {
	n := 0
	for _, p := range []struct {
		sev   Severity
		count int
	}{
		{SeverityCritical, c.Critical},
		{SeverityHigh, c.High},
		{SeverityMedium, c.Medium},
		{SeverityLow, c.Low},
		{SeverityInfo, c.Info},
	} {
		if p.sev.Weight() >= min.Weight() {
			n += p.count
		}
	}
	return n
}

// Issue is a persisted finding of one analysis.
type Issue struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	AnalysisID string    `json:"analysis_id"`
	Rule       string    `json:"rule"`
	Category   string    `json:"category"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	File       string    `json:"file,omitempty"`
	Line       int       `json:"line,omitempty"`
	Column     int       `json:"column,omitempty"`
	EndLine    int       `json:"end_line,omitempty"`
	EndColumn  int       `json:"end_column,omitempty"`
	Symbol     string    `json:"symbol,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromDiagnostic maps an LSP-style diagnostic onto the issue severity scale.
func FromDiagnostic(d diagnostics.Diagnostic) Issue {
	return Issue{
		Rule:      d.Code,
		Category:  string(d.Category),
		Severity:  severityOf(d),
		Message:   d.Message,
		File:      d.Position.File,
		Line:      d.Position.Line,
		Column:    d.Position.Column,
		EndLine:   d.Position.EndLine,
		EndColumn: d.Position.EndColumn,
		Symbol:    string(d.Symbol),
	}
}

func severityOf(d diagnostics.Diagnostic) Severity {
	switch d.Severity {
	case diagnostics.SeverityError:
		if d.Category == diagnostics.CategorySyntax {
			return SeverityCritical
		}
		return SeverityHigh
	case diagnostics.SeverityWarning:
		return SeverityMedium
	case diagnostics.SeverityInformation:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

func FromDeadSymbol(s *codebase.Symbol) Issue {
	return Issue{
		Rule:      RuleDeadCode,
		Category:  RuleDeadCode,
		Severity:  SeverityLow,
		Message:   fmt.Sprintf("%s %s is never referenced", s.Kind, s.Name),
		File:      s.Position.File,
		Line:      s.Position.Line,
		Column:    s.Position.Column,
		EndLine:   s.Position.EndLine,
		EndColumn: s.Position.EndColumn,
		Symbol:    string(s.ID),
	}
}

// Count tallies a slice of issues.
func Count(list []Issue) SeverityCounts {
	var c SeverityCounts
	for _, is := range list {
		c.Add(is.Severity)
	}
	return c
}
