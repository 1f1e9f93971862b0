package analysis

import (
	"sort"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/diagnostics"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
)

// SnapshotSchema is bumped whenever the persisted Snapshot layout changes.
const SnapshotSchema uint16 = 1

// Snapshot is everything needed to answer queries without re-parsing the tree.
type Snapshot struct {
	Schema      uint16                   `msgpack:"schema"`
	Graph       *codebase.Graph          `msgpack:"graph"`
	Diagnostics []diagnostics.Diagnostic `msgpack:"diagnostics"`
	Metrics     Metrics                  `msgpack:"metrics"`
	DeadCode    codebase.DeadCodeOptions `msgpack:"dead_code"`
}

// Report is the full result of one analysis.
type Report struct {
	Root        string                   `json:"root"`
	Module      string                   `json:"module"`
	Metrics     Metrics                  `json:"metrics"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics"`
	DeadCode    []*codebase.Symbol       `json:"dead_code"`
	Issues      []issues.Issue           `json:"issues"`
	Counts      issues.SeverityCounts    `json:"counts"`
	Health      analyses.Health          `json:"health"`
	Summary     diagnostics.Summary      `json:"error_summary"`
}

func (s *Snapshot) DeadCodeSymbols() []*codebase.Symbol {
	return s.Graph.DeadCode(s.DeadCode)
}

func (s *Snapshot) BlastRadius(q string, depth int) (codebase.BlastRadius, error) {
	sym, err := s.Graph.Resolve(q)
	if err != nil {
		return codebase.BlastRadius{}, err
	}
	return s.Graph.BlastRadius(sym.ID, depth)
}

func (s *Snapshot) ErrorSummary() diagnostics.Summary {
	return diagnostics.Summarize(s.Diagnostics)
}

// Report derives issues, counts and health from the diagnostics and dead code.
func (s *Snapshot) Report() Report {
	dead := s.DeadCodeSymbols()
	list := make([]issues.Issue, 0, len(s.Diagnostics)+len(dead))
	for _, d := range s.Diagnostics {
		list = append(list, issues.FromDiagnostic(d))
	}
	for _, sym := range dead {
		list = append(list, issues.FromDeadSymbol(sym))
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Severity.Weight() != b.Severity.Weight() {
			return a.Severity.Weight() > b.Severity.Weight()
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	counts := issues.Count(list)
	return Report{
		Root:        s.Graph.Root,
		Module:      s.Graph.Module,
		Metrics:     s.Metrics,
		Diagnostics: s.Diagnostics,
		DeadCode:    dead,
		Issues:      list,
		Counts:      counts,
		Health:      analyses.ComputeHealth(counts, s.Metrics.LOC),
		Summary:     s.ErrorSummary(),
	}
}
