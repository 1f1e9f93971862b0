package analysis

import (
	"go/ast"
	"go/token"
	"path/filepath"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/diagnostics"
)

// Codebase is a loaded, type-checked Go source tree.
type Codebase struct {
	Root   string
	Module string

	opts  Options
	fset  *token.FileSet
	files map[string]*sourceFile
	pkgs  []*pkgUnit
	diags []diagnostics.Diagnostic
	snap  *Snapshot
	funcs map[*ast.FuncDecl]codebase.SymbolID
}

func (cb *Codebase) position(pos token.Pos) codebase.Position {
	if !pos.IsValid() {
		return codebase.Position{}
	}
	return cb.relPosition(cb.fset.Position(pos))
}

func (cb *Codebase) relPosition(p token.Position) codebase.Position {
	file := p.Filename
	if rel, err := filepath.Rel(cb.Root, file); err == nil {
		file = filepath.ToSlash(rel)
	}
	return codebase.Position{File: file, Line: p.Line, Column: p.Column}
}

// Graph returns the symbol dependency graph.
func (cb *Codebase) Graph() *codebase.Graph { return cb.snap.Graph }

func (cb *Codebase) Metrics() Metrics { return cb.snap.Metrics }

// Diagnostics returns every diagnostic, sorted by position.
func (cb *Codebase) Diagnostics() []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, len(cb.diags))
	copy(out, cb.diags)
	return out
}

// Errors returns the error-severity diagnostics.
func (cb *Codebase) Errors() []diagnostics.Diagnostic {
	return diagnostics.Errors(cb.diags)
}

func (cb *Codebase) ErrorSummary() diagnostics.Summary {
	return cb.snap.ErrorSummary()
}

// Symbols returns all top-level symbols ordered by file and line.
func (cb *Codebase) Symbols() []*codebase.Symbol {
	return cb.snap.Graph.SortedSymbols()
}

// FindSymbol matches q by id, qualified suffix or bare name.
func (cb *Codebase) FindSymbol(q string) []*codebase.Symbol {
	return cb.snap.Graph.Lookup(q)
}

func (cb *Codebase) DeadCode() []*codebase.Symbol {
	return cb.snap.DeadCodeSymbols()
}

// BlastRadius resolves q to one symbol and returns everything depending on it.
func (cb *Codebase) BlastRadius(q string, depth int) (codebase.BlastRadius, error) {
	return cb.snap.BlastRadius(q, depth)
}

func (cb *Codebase) Report() Report {
	return cb.snap.Report()
}

// Snapshot returns the serialisable part of the codebase.
func (cb *Codebase) Snapshot() *Snapshot {
	return cb.snap
}

// file resolves a path relative to the root, or an absolute path inside it.
func (cb *Codebase) file(name string) (*sourceFile, bool) {
	if filepath.IsAbs(name) {
		if rel, err := filepath.Rel(cb.Root, name); err == nil {
			name = rel
		}
	}
	f, ok := cb.files[filepath.ToSlash(filepath.Clean(name))]
	return f, ok
}
