package diagnostics

import (
	"sort"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
)

// Severity follows the LSP DiagnosticSeverity names.
type Severity string

const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "information"
	SeverityHint        Severity = "hint"
)

// Rank returns the LSP numeric severity (1 = error ... 4 = hint).
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 1
	case SeverityWarning:
		return 2
	case SeverityInformation:
		return 3
	default:
		return 4
	}
}

// Category enum
type Category string

const (
	CategorySyntax   Category = "syntax"
	CategorySemantic Category = "semantic"
	CategoryType     Category = "type"
	CategoryImport   Category = "import"
	CategoryLint     Category = "lint"
	CategorySecurity Category = "security"
)

// Diagnostic is one problem reported against a source range.
type Diagnostic struct {
	Code     string            `json:"code" msgpack:"code"`
	Category Category          `json:"category" msgpack:"category"`
	Severity Severity          `json:"severity" msgpack:"severity"`
	Message  string            `json:"message" msgpack:"message"`
	Position codebase.Position `json:"position" msgpack:"position"`
	Source   string            `json:"source" msgpack:"source"`
	Symbol   codebase.SymbolID `json:"symbol,omitempty" msgpack:"symbol"`
}

// Summary is the error_summary shape shared by the CLI and the API.
type Summary struct {
	Total      int              `json:"total"`
	BySeverity map[Severity]int `json:"by_severity"`
	ByCategory map[Category]int `json:"by_category"`
	ByFile     map[string]int   `json:"by_file"`
}

func Summarize(ds []Diagnostic) Summary {
	s := Summary{
		Total:      len(ds),
		BySeverity: map[Severity]int{},
		ByCategory: map[Category]int{},
		ByFile:     map[string]int{},
	}
	for _, d := range ds {
		s.BySeverity[d.Severity]++
		s.ByCategory[d.Category]++
		if d.Position.File != "" {
			s.ByFile[d.Position.File]++
		}
	}
	return s
}

// Errors keeps only error-severity diagnostics.
func Errors(ds []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders diagnostics by file, line, column, then code.
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i].Position, ds[j].Position
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return ds[i].Code < ds[j].Code
	})
}
