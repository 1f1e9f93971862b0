package analysis

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/diagnostics"
)

// Lint rule codes.
const (
	RuleComplexity     = "complexity"
	RuleFunctionLength = "function-length"
	RuleTooManyParams  = "too-many-params"
	RuleMissingDoc     = "missing-doc"
	RuleHardcodedSec   = "hardcoded-secret"
)

func lint(cb *Codebase, g *codebase.Graph) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	for d, id := range cb.funcs {
		s := g.Symbols[id]
		if s == nil || d.Body == nil {
			continue
		}
		if s.Complexity > cb.opts.MaxComplexity {
			out = append(out, lintDiag(RuleComplexity, diagnostics.SeverityWarning, s,
				fmt.Sprintf("%s has cyclomatic complexity %d (max %d)", s.Name, s.Complexity, cb.opts.MaxComplexity)))
		}
		if s.Lines > cb.opts.MaxFunctionLines {
			out = append(out, lintDiag(RuleFunctionLength, diagnostics.SeverityWarning, s,
				fmt.Sprintf("%s is %d lines long (max %d)", s.Name, s.Lines, cb.opts.MaxFunctionLines)))
		}
		if n := paramCount(d.Type); n > cb.opts.MaxParams {
			out = append(out, lintDiag(RuleTooManyParams, diagnostics.SeverityInformation, s,
				fmt.Sprintf("%s takes %d parameters (max %d)", s.Name, n, cb.opts.MaxParams)))
		}
	}
	if cb.opts.RequireDocComments {
		for _, s := range g.Symbols {
			if s.Exported && !s.Test && s.Doc == "" {
				out = append(out, lintDiag(RuleMissingDoc, diagnostics.SeverityHint, s,
					fmt.Sprintf("exported %s %s should have a doc comment", s.Kind, s.Name)))
			}
		}
	}
	if cb.opts.SecretScan {
		for _, f := range cb.files {
			if f.ast == nil || f.test {
				continue
			}
			out = append(out, scanSecrets(cb, f)...)
		}
	}
	return out
}

func lintDiag(code string, sev diagnostics.Severity, s *codebase.Symbol, msg string) diagnostics.Diagnostic {
	return diagnostics.Diagnostic{
		Code:     code,
		Category: diagnostics.CategoryLint,
		Severity: sev,
		Message:  msg,
		Position: s.Position,
		Source:   "lint",
		Symbol:   s.ID,
	}
}

func paramCount(ft *ast.FuncType) int {
	if ft == nil || ft.Params == nil {
		return 0
	}
	n := 0
	for _, field := range ft.Params.List {
		if len(field.Names) == 0 {
			n++
			continue
		}
		n += len(field.Names)
	}
	return n
}

// cyclomatic counts decision points plus one.
func cyclomatic(fn *ast.FuncDecl) int {
	c := 1
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt:
			c++
		case *ast.CaseClause:
			if x.List != nil {
				c++
			}
		case *ast.CommClause:
			if x.Comm != nil {
				c++
			}
		case *ast.BinaryExpr:
			if x.Op == token.LAND || x.Op == token.LOR {
				c++
			}
		}
		return true
	})
	return c
}

func scanSecrets(cb *Codebase, f *sourceFile) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	ast.Inspect(f.ast, func(n ast.Node) bool {
		lit, ok := n.(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		value, err := strconv.Unquote(lit.Value)
		if err != nil {
			value = lit.Value
		}
		if d, hit := matchSecret(value); hit {
			end := cb.fset.Position(lit.End())
			pos := cb.position(lit.Pos())
			pos.EndLine, pos.EndColumn = end.Line, end.Column
			out = append(out, diagnostics.Diagnostic{
				Code:     RuleHardcodedSec,
				Category: diagnostics.CategorySecurity,
				Severity: diagnostics.SeverityError,
				Message:  d.title + ": " + d.recommendation,
				Position: pos,
				Source:   "lint",
			})
		}
		return true
	})
	return out
}
