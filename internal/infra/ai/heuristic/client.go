// Package heuristic answers AI prompts offline from the dashboard numbers.
package heuristic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/ai"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/insights"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/ai/prompt"
)

const maxFindings = 10

type Client struct{}

func New() *Client { return &Client{} }

func (*Client) Provider() string { return "heuristic" }

func (*Client) Complete(ctx context.Context, p ai.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := prompt.ParseBrief(p.User)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(Suggest(b))
	if err != nil {
		return "", fmt.Errorf("marshal suggestion: %w", err)
	}
	return string(out), nil
}

// Suggest derives findings and advice from a brief without a model.
func Suggest(b insights.Brief) insights.Suggestion {
	out := insights.Suggestion{AnalysisID: b.AnalysisID}
	add := func(sev, title, summary, rec string) {
		out.Findings = append(out.Findings, insights.Finding{
			Title: title, Severity: sev, Summary: summary, Recommendation: rec,
		})
	}

	if n := b.Categories["syntax"]; n > 0 {
		add("critical", "Code does not parse",
			fmt.Sprintf("%d syntax error(s) stop the affected packages from building.", n),
			"Fix the syntax errors first; later diagnostics in the same files may be consequences.")
	}
	if n := b.Categories["security"]; n > 0 {
		add("high", "Hardcoded credentials",
			fmt.Sprintf("%d string literal(s) look like secrets.", n),
			"Rotate the exposed credentials and load them from the environment or a secret manager.")
	}
	if n := b.Categories["type"] + b.Categories["semantic"] + b.Categories["import"]; n > 0 {
		add("high", "Type checking fails",
			fmt.Sprintf("%d type, semantic or import error(s) were reported.", n),
			"Resolve undefined names and mismatched types; run go vet in CI.")
	}
	if b.Counts.Medium > 0 {
		add("medium", "Complex or long functions",
			fmt.Sprintf("%d lint warning(s) flag functions above the complexity or length limits.", b.Counts.Medium),
			"Split large functions and extract branches into well-named helpers.")
	}
	if b.DeadCode > 0 {
		add("low", "Unused code",
			fmt.Sprintf("%d symbol(s) are never referenced.", b.DeadCode),
			"Delete dead symbols or add a test that exercises them.")
	}
	if len(b.TopFiles) > 0 && b.TopFiles[0].Count > 1 {
		top := b.TopFiles[0]
		add("info", "Hotspot file",
			fmt.Sprintf("%s carries %d issues, the most of any file.", top.File, top.Count),
			"Prioritise this file when paying down issues.")
	}
	if len(out.Findings) == 0 {
		add("info", "No significant issues", "The analysis found nothing above informational level.",
			"Keep the analysis in CI to hold the grade.")
	}
	if len(out.Findings) > maxFindings {
		out.Findings = out.Findings[:maxFindings]
	}

	switch {
	case b.Counts.Critical > 0:
		out.Advice = "Immediate action required: the tree does not build cleanly. Fix syntax and type errors, then rerun the analysis."
	case b.Counts.High > 0:
		out.Advice = "Resolve the high severity findings before adding features; they hide real defects."
	case b.Counts.Medium+b.Counts.Low > 0:
		out.Advice = fmt.Sprintf("Health is %s (%.1f). Reduce complexity and remove unused code to improve it.", b.Health.Grade, b.Health.Score)
	default:
		out.Advice = "Maintain good hygiene: keep functions small and documented."
	}
	return out
}
