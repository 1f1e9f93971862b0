package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/ai"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/insights"
)

// briefMarker separates the instructions from the embedded dashboard JSON.
const briefMarker = "DASHBOARD:\n"

// ErrNoBrief is returned when a user prompt carries no dashboard payload.
var ErrNoBrief = errors.New("prompt has no dashboard payload")

// System provides strict directions and schema for JSON output.
func System() string {
	return `You are a senior Go reviewer assessing codebase health. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Use lowercase severity values: critical, high, medium, low, info.
- findings is an array of at most 10 objects, most severe first; every item needs title, severity, summary and recommendation.
- Base every finding on the dashboard data. Do not invent files or symbols that are not listed.
- advice is one short paragraph with the next steps that would raise the health grade.

Schema (example with empty values):
{
  "analysis_id": "<string>",
  "findings": [
    {
      "title": "<string>",
      "severity": "<critical|high|medium|low|info>",
      "summary": "<string>",
      "recommendation": "<string>"
    }
  ],
  "advice": "<string>"
}`
}

// User builds the user message around the dashboard brief.
func User(b insights.Brief) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal brief: %w", err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Review analysis %s of %s and respond with the JSON per schema.\n", b.AnalysisID, b.Source)
	sb.WriteString(briefMarker)
	sb.Write(data)
	return sb.String(), nil
}

// Builder renders prompts for the AI service.
type Builder struct{}

func (Builder) Build(b insights.Brief) (ai.Prompt, error) {
	user, err := User(b)
	if err != nil {
		return ai.Prompt{}, err
	}
	return ai.Prompt{System: System(), User: user}, nil
}

// ParseBrief recovers the brief embedded by User.
func ParseBrief(user string) (insights.Brief, error) {
	_, payload, ok := strings.Cut(user, briefMarker)
	if !ok {
		return insights.Brief{}, ErrNoBrief
	}
	var b insights.Brief
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &b); err != nil {
		return insights.Brief{}, fmt.Errorf("decode brief: %w", err)
	}
	return b, nil
}

// ParseSuggestion validates a provider answer against the schema.
func ParseSuggestion(raw string) (insights.Suggestion, error) {
	var s insights.Suggestion
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return s, fmt.Errorf("provider answer is not valid JSON: %w", err)
	}
	for i, f := range s.Findings {
		if f.Title == "" || f.Severity == "" {
			return s, fmt.Errorf("finding %d lacks title or severity", i)
		}
		s.Findings[i].Severity = strings.ToLower(f.Severity)
	}
	return s, nil
}
