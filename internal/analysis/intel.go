package analysis

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
)

var (
	// ErrFileNotFound is returned for a file outside the loaded tree.
	ErrFileNotFound = errors.New("file not in codebase")
	// ErrNoIdentifier is returned when hover finds no identifier under the cursor.
	ErrNoIdentifier = errors.New("no identifier at position")
)

// Hover describes the object under a cursor.
type Hover struct {
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	Signature  string            `json:"signature"`
	Doc        string            `json:"doc,omitempty"`
	Definition codebase.Position `json:"definition"`
	Symbol     codebase.SymbolID `json:"symbol,omitempty"`
}

// Completion is one candidate name at a cursor.
type Completion struct {
	Label  string `json:"label"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// cursor converts a 1-based line and byte column into a position in f.
func (cb *Codebase) cursor(file string, line, col int) (*sourceFile, token.Pos, error) {
	f, ok := cb.file(file)
	if !ok || f.ast == nil || f.pkg == nil {
		return nil, token.NoPos, fmt.Errorf("%w: %s", ErrFileNotFound, file)
	}
	tf := cb.fset.File(f.ast.Pos())
	if tf == nil || line < 1 || line > tf.LineCount() || col < 1 {
		return nil, token.NoPos, fmt.Errorf("position %d:%d is outside %s", line, col, file)
	}
	start := tf.Offset(tf.LineStart(line))
	off := start + col - 1
	if off > tf.Size() {
		off = tf.Size()
	}
	return f, tf.Pos(off), nil
}

// HoverInfo reports the declaration of the identifier at file:line:col.
func (cb *Codebase) HoverInfo(file string, line, col int) (*Hover, error) {
	f, pos, err := cb.cursor(file, line, col)
	if err != nil {
		return nil, err
	}
	path, _ := astutil.PathEnclosingInterval(f.ast, pos, pos)
	if len(path) == 0 {
		return nil, ErrNoIdentifier
	}
	ident, ok := path[0].(*ast.Ident)
	if !ok {
		return nil, ErrNoIdentifier
	}
	info := f.pkg.info
	if info == nil {
		return nil, ErrNoIdentifier
	}
	obj := info.Defs[ident]
	if obj == nil {
		obj = info.Uses[ident]
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: %s has no type information", ErrNoIdentifier, ident.Name)
	}

	h := &Hover{
		Name:       obj.Name(),
		Kind:       objectKind(obj),
		Signature:  types.ObjectString(obj, types.RelativeTo(f.pkg.types)),
		Definition: cb.position(obj.Pos()),
	}
	if id, ok := symbolIDOf(obj); ok {
		if s, found := cb.snap.Graph.Symbol(id); found {
			h.Symbol = s.ID
			h.Doc = s.Doc
		}
	}
	return h, nil
}

// symbolIDOf maps a package-level object or method onto its graph id.
func symbolIDOf(obj types.Object) (codebase.SymbolID, bool) {
	if obj.Pkg() == nil {
		return "", false
	}
	if fn, ok := obj.(*types.Func); ok {
		fn = fn.Origin()
		if sig, ok := fn.Type().(*types.Signature); ok && sig.Recv() != nil {
			t := sig.Recv().Type()
			if p, ok := t.(*types.Pointer); ok {
				t = p.Elem()
			}
			if named, ok := t.(*types.Named); ok {
				return codebase.SymbolID(fn.Pkg().Path() + "." + named.Obj().Name() + "." + fn.Name()), true
			}
			return "", false
		}
	}
	if obj.Parent() != obj.Pkg().Scope() {
		return "", false
	}
	return codebase.SymbolID(obj.Pkg().Path() + "." + obj.Name()), true
}

func objectKind(obj types.Object) string {
	switch o := obj.(type) {
	case *types.Func:
		if sig, ok := o.Type().(*types.Signature); ok && sig.Recv() != nil {
			return "method"
		}
		return "function"
	case *types.Var:
		if o.IsField() {
			return "field"
		}
		return "variable"
	case *types.Const:
		return "constant"
	case *types.TypeName:
		if _, ok := o.Type().Underlying().(*types.Interface); ok {
			return "interface"
		}
		return "type"
	case *types.PkgName:
		return "package"
	case *types.Builtin:
		return "builtin"
	case *types.Label:
		return "label"
	case *types.Nil:
		return "constant"
	}
	return "unknown"
}

// Completions lists names visible at file:line:col that start with the identifier being typed.
func (cb *Codebase) Completions(file string, line, col int) ([]Completion, error) {
	f, pos, err := cb.cursor(file, line, col)
	if err != nil {
		return nil, err
	}
	tf := cb.fset.File(pos)
	off := tf.Offset(pos)
	prefixStart := identStart(f.src, off)
	prefix := string(f.src[prefixStart:off])

	seen := map[string]bool{}
	var out []Completion
	add := func(obj types.Object, q types.Qualifier) {
		name := obj.Name()
		if name == "_" || seen[name] || !strings.HasPrefix(name, prefix) {
			return
		}
		seen[name] = true
		out = append(out, Completion{Label: name, Kind: objectKind(obj), Detail: types.ObjectString(obj, q)})
	}

	p := f.pkg
	if p.types == nil || p.info == nil {
		return nil, nil
	}
	q := types.RelativeTo(p.types)
	scope := p.types.Scope().Innermost(pos)
	if scope == nil {
		scope = p.info.Scopes[f.ast]
	}

	if prefixStart > 0 && f.src[prefixStart-1] == '.' {
		recvEnd := prefixStart - 1
		recv := string(f.src[identStart(f.src, recvEnd):recvEnd])
		if recv == "" || scope == nil {
			return nil, nil
		}
		_, obj := scope.LookupParent(recv, pos)
		for _, m := range members(obj) {
			add(m, q)
		}
	} else {
		for s := scope; s != nil; s = s.Parent() {
			local := s != types.Universe && s != p.types.Scope() && s.Parent() != p.types.Scope()
			names := s.Names()
			for _, name := range names {
				obj := s.Lookup(name)
				// locals are visible only after their declaration
				if local && obj.Pos().IsValid() && obj.Pos() > pos {
					continue
				}
				add(obj, q)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// members returns the exported members of an imported package, or the fields and methods of a value.
func members(obj types.Object) []types.Object {
	if obj == nil {
		return nil
	}
	if pn, ok := obj.(*types.PkgName); ok {
		scope := pn.Imported().Scope()
		var out []types.Object
		for _, name := range scope.Names() {
			if m := scope.Lookup(name); m.Exported() {
				out = append(out, m)
			}
		}
		return out
	}
	t := obj.Type()
	if t == nil {
		return nil
	}
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	var out []types.Object
	if st, ok := t.Underlying().(*types.Struct); ok {
		for i := 0; i < st.NumFields(); i++ {
			out = append(out, st.Field(i))
		}
	}
	mset := types.NewMethodSet(types.NewPointer(t))
	if types.IsInterface(t) {
		mset = types.NewMethodSet(t)
	}
	for i := 0; i < mset.Len(); i++ {
		out = append(out, mset.At(i).Obj())
	}
	return out
}

// identStart scans back from off over identifier characters.
func identStart(src []byte, off int) int {
	if off > len(src) {
		off = len(src)
	}
	i := off
	for i > 0 {
		r, size := utf8.DecodeLastRune(src[:i])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		i -= size
	}
	return i
}
