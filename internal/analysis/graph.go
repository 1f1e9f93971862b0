package analysis

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/ast/inspector"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
)

// builder turns type-checked packages into a codebase.Graph.
type builder struct {
	cb    *Codebase
	g     *codebase.Graph
	objs  map[types.Object]codebase.SymbolID
	inits map[string]int
	// owners maps each top-level declaration to the symbols its references are charged to.
	owners map[ast.Node][]codebase.SymbolID
	// decls records FuncDecl symbols for the lint pass.
	decls map[*ast.FuncDecl]codebase.SymbolID
}

func buildGraph(cb *Codebase) *codebase.Graph {
	b := &builder{
		cb:     cb,
		g:      codebase.NewGraph(cb.Module, cb.Root),
		objs:   map[types.Object]codebase.SymbolID{},
		inits:  map[string]int{},
		owners: map[ast.Node][]codebase.SymbolID{},
		decls:  map[*ast.FuncDecl]codebase.SymbolID{},
	}
	for _, p := range cb.pkgs {
		if p.info == nil {
			continue
		}
		for _, f := range p.files {
			b.declare(p, f)
		}
	}
	for _, p := range cb.pkgs {
		if p.info == nil {
			continue
		}
		for _, f := range p.files {
			b.link(p, f)
		}
	}
	cb.funcs = b.decls
	return b.g
}

func (b *builder) declare(p *pkgUnit, f *sourceFile) {
	qual := types.RelativeTo(p.types)
	for _, decl := range f.ast.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			b.declareFunc(p, f, d, qual)
		case *ast.GenDecl:
			if d.Tok == token.IMPORT {
				continue
			}
			for _, spec := range d.Specs {
				doc := specDoc(d, spec)
				switch s := spec.(type) {
				case *ast.TypeSpec:
					id := b.declareType(p, f, s, doc, qual)
					b.owners[s] = []codebase.SymbolID{id}
				case *ast.ValueSpec:
					var owners []codebase.SymbolID
					for _, name := range s.Names {
						if name.Name == "_" {
							continue
						}
						kind := codebase.KindVar
						if d.Tok == token.CONST {
							kind = codebase.KindConst
						}
						id := codebase.SymbolID(p.path + "." + name.Name)
						b.add(p, f, name, id, kind, doc, s, qual)
						owners = append(owners, id)
					}
					b.owners[s] = owners
				}
			}
		}
	}
}

func (b *builder) declareFunc(p *pkgUnit, f *sourceFile, d *ast.FuncDecl, qual types.Qualifier) {
	name := d.Name.Name
	kind := codebase.KindFunction
	var recv string
	id := codebase.SymbolID(p.path + "." + name)
	switch {
	case d.Recv != nil && len(d.Recv.List) > 0:
		kind = codebase.KindMethod
		recv = receiverName(d.Recv.List[0].Type)
		id = codebase.SymbolID(p.path + "." + recv + "." + name)
	case name == "init":
		b.inits[p.path]++
		id = codebase.SymbolID(fmt.Sprintf("%s.init#%d", p.path, b.inits[p.path]))
	case name == "_":
		return
	}
	s := b.add(p, f, d.Name, id, kind, d.Doc.Text(), d, qual)
	s.Receiver = recv
	s.Entry = d.Recv == nil && (name == "init" || (name == "main" && p.name == "main"))
	if d.Body != nil {
		s.Complexity = cyclomatic(d)
	}
	b.owners[d] = []codebase.SymbolID{id}
	b.decls[d] = id
}

func (b *builder) declareType(p *pkgUnit, f *sourceFile, s *ast.TypeSpec, doc string, qual types.Qualifier) codebase.SymbolID {
	id := codebase.SymbolID(p.path + "." + s.Name.Name)
	kind := codebase.KindType
	if _, ok := s.Type.(*ast.InterfaceType); ok {
		kind = codebase.KindInterface
	}
	b.add(p, f, s.Name, id, kind, doc, s, qual)
	if kind == codebase.KindInterface {
		if obj := p.info.Defs[s.Name]; obj != nil {
			if it, ok := obj.Type().Underlying().(*types.Interface); ok {
				for i := 0; i < it.NumMethods(); i++ {
					b.g.InterfaceMethods[it.Method(i).Name()] = true
				}
			}
		}
	}
	return id
}

func (b *builder) add(p *pkgUnit, f *sourceFile, name *ast.Ident, id codebase.SymbolID, kind codebase.SymbolKind, doc string, node ast.Node, qual types.Qualifier) *codebase.Symbol {
	start := b.cb.fset.Position(node.Pos())
	end := b.cb.fset.Position(node.End())
	s := &codebase.Symbol{
		ID:       id,
		Name:     name.Name,
		Kind:     kind,
		Package:  p.path,
		Exported: ast.IsExported(name.Name),
		Test:     f.test,
		Position: b.cb.position(name.Pos()),
		Doc:      strings.TrimSpace(doc),
		Lines:    end.Line - start.Line + 1,
	}
	s.Position.EndLine = end.Line
	s.Position.EndColumn = end.Column
	if obj := p.info.Defs[name]; obj != nil {
		s.Signature = types.ObjectString(obj, qual)
		b.objs[obj] = id
	} else {
		s.Signature = name.Name
	}
	b.g.AddSymbol(s)
	return s
}

// link records reference, call and receiver edges for one file.
func (b *builder) link(p *pkgUnit, f *sourceFile) {
	for _, decl := range f.ast.Decls {
		if d, ok := decl.(*ast.FuncDecl); ok && d.Recv != nil {
			if id, ok := b.decls[d]; ok {
				recv := codebase.SymbolID(p.path + "." + receiverName(d.Recv.List[0].Type))
				b.g.AddEdge(codebase.Edge{From: id, To: recv, Kind: codebase.EdgeReceiver, Position: b.cb.position(d.Name.Pos())})
			}
		}
	}

	ins := inspector.New([]*ast.File{f.ast})
	ins.WithStack([]ast.Node{(*ast.Ident)(nil)}, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push || len(stack) < 3 {
			return true
		}
		ident := n.(*ast.Ident)
		obj := p.info.Uses[ident]
		if obj == nil {
			return true
		}
		if fn, ok := obj.(*types.Func); ok {
			obj = fn.Origin()
		}
		target, ok := b.objs[obj]
		if !ok {
			return true
		}
		owners, skip := b.ownersOf(stack, ident)
		if skip {
			return true
		}
		if len(owners) == 0 {
			b.g.Pin(target)
			return true
		}
		kind := codebase.EdgeReference
		if isCallee(stack) {
			kind = codebase.EdgeCall
		}
		pos := b.cb.position(ident.Pos())
		for _, from := range owners {
			b.g.AddEdge(codebase.Edge{From: from, To: target, Kind: kind, Position: pos})
		}
		return true
	})
}

// ownersOf finds the symbols charged with a reference; skip is set for receiver expressions.
func (b *builder) ownersOf(stack []ast.Node, ident *ast.Ident) ([]codebase.SymbolID, bool) {
	switch d := stack[1].(type) {
	case *ast.FuncDecl:
		if d.Recv != nil && ident.Pos() >= d.Recv.Pos() && ident.End() <= d.Recv.End() {
			return nil, true
		}
		owners, ok := b.owners[d]
		if !ok {
			// blank function: references keep their targets alive
			return nil, false
		}
		return owners, false
	case *ast.GenDecl:
		if d.Tok == token.IMPORT {
			return nil, true
		}
		return b.owners[stack[2]], false
	}
	return nil, true
}

// isCallee reports whether the identifier on top of stack is the function of a call,
// looking through selectors, parens and generic instantiation.
func isCallee(stack []ast.Node) bool {
	k := len(stack) - 1
	node := stack[k]
	for k > 0 {
		switch p := stack[k-1].(type) {
		case *ast.SelectorExpr:
			if p.Sel != node {
				return false
			}
		case *ast.IndexExpr:
			if p.X != node {
				return false
			}
		case *ast.IndexListExpr:
			if p.X != node {
				return false
			}
		case *ast.ParenExpr:
		case *ast.CallExpr:
			return p.Fun == node
		default:
			return false
		}
		node = stack[k-1]
		k--
	}
	return false
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.ParenExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return "?"
}

func specDoc(d *ast.GenDecl, spec ast.Spec) string {
	switch s := spec.(type) {
	case *ast.TypeSpec:
		if s.Doc != nil {
			return s.Doc.Text()
		}
	case *ast.ValueSpec:
		if s.Doc != nil {
			return s.Doc.Text()
		}
	}
	if len(d.Specs) == 1 && d.Doc != nil {
		return d.Doc.Text()
	}
	return ""
}
