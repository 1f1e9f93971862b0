package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/diagnostics"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
)

var (
	colorCritical = color.New(color.FgRed, color.Bold)
	colorHigh     = color.New(color.FgRed)
	colorMedium   = color.New(color.FgYellow)
	colorLow      = color.New(color.FgCyan)
	colorInfo     = color.New(color.FgBlue)
	colorOK       = color.New(color.FgGreen, color.Bold)
	colorError    = color.New(color.FgRed, color.Bold)
	colorDim      = color.New(color.Faint)
	colorTitle    = color.New(color.Bold)
)

func severityColor(s issues.Severity) *color.Color {
	switch s {
	case issues.SeverityCritical:
		return colorCritical
	case issues.SeverityHigh:
		return colorHigh
	case issues.SeverityMedium:
		return colorMedium
	case issues.SeverityLow:
		return colorLow
	}
	return colorInfo
}

func diagnosticColor(s diagnostics.Severity) *color.Color {
	switch s {
	case diagnostics.SeverityError:
		return colorHigh
	case diagnostics.SeverityWarning:
		return colorMedium
	case diagnostics.SeverityInformation:
		return colorLow
	}
	return colorDim
}

func gradeColor(grade string) *color.Color {
	switch grade {
	case "A", "B":
		return colorOK
	case "C":
		return colorMedium
	}
	return colorCritical
}

func location(p codebase.Position) string {
	if p.File == "" {
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
