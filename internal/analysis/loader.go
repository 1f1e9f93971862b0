package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/build"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/diagnostics"
)

// ErrNoGoFiles is returned when the tree contains no Go source to analyse.
var ErrNoGoFiles = errors.New("no Go files found")

var skipDirs = map[string]bool{
	"vendor":       true,
	"testdata":     true,
	"node_modules": true,
}

type sourceFile struct {
	abs  string
	rel  string
	src  []byte
	ast  *ast.File
	test bool
	pkg  *pkgUnit
}

type pkgUnit struct {
	path    string
	name    string
	dir     string
	files   []*sourceFile
	imports map[string]*ast.ImportSpec
	types   *types.Package
	info    *types.Info
	checked bool
}

// Loader parses and type-checks a Go source tree into a Codebase.
type Loader struct {
	opts   Options
	logger hclog.Logger
}

func NewLoader(opts Options, logger hclog.Logger) *Loader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Loader{opts: opts.withDefaults(), logger: logger}
}

// Load analyses the tree rooted at dir.
func (l *Loader) Load(ctx context.Context, dir string) (*Codebase, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	module := modulePath(root)
	paths, err := l.collect(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoGoFiles, root)
	}
	l.logger.Debug("loading codebase", "root", root, "module", module, "files", len(paths))

	cb := &Codebase{
		Root:   root,
		Module: module,
		opts:   l.opts,
		fset:   token.NewFileSet(),
		files:  make(map[string]*sourceFile, len(paths)),
	}

	files, err := l.parseAll(ctx, cb, paths)
	if err != nil {
		return nil, err
	}
	pkgs := groupPackages(module, root, files)
	cb.pkgs = pkgs
	for _, f := range files {
		cb.files[f.rel] = f
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.typeCheck(cb, pkgs)

	g := buildGraph(cb)
	cb.diags = append(cb.diags, lint(cb, g)...)
	diagnostics.Sort(cb.diags)
	cb.snap = &Snapshot{
		Schema:      SnapshotSchema,
		Graph:       g,
		Diagnostics: cb.diags,
		Metrics:     computeMetrics(cb, g),
		DeadCode: codebase.DeadCodeOptions{
			ExportedIsLive: l.opts.ExportedIsLive,
			Transitive:     l.opts.TransitiveDeadCode,
		},
	}
	l.logger.Debug("codebase loaded", "packages", len(pkgs), "symbols", len(g.Symbols), "edges", len(g.Edges), "diagnostics", len(cb.diags))
	return cb, nil
}

func modulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err == nil {
		if mp := modfile.ModulePath(data); mp != "" {
			return mp
		}
	}
	return filepath.Base(root)
}

// collect returns the sorted Go files below root that match the build context.
func (l *Loader) collect(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)
		name := d.Name()
		if d.IsDir() {
			if p == root {
				return nil
			}
			if skipDirs[name] || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || l.excluded(rel, name) {
				return filepath.SkipDir
			}
			// nested modules are analysed on their own
			if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") {
			return nil
		}
		if !l.opts.IncludeTests && strings.HasSuffix(name, "_test.go") {
			return nil
		}
		if l.excluded(rel, name) {
			return nil
		}
		if ok, err := build.Default.MatchFile(filepath.Dir(p), name); err == nil && !ok {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (l *Loader) excluded(rel, name string) bool {
	for _, pat := range l.opts.Exclude {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		if ok, _ := path.Match(pat, name); ok {
			return true
		}
		if strings.HasPrefix(rel, strings.TrimSuffix(pat, "/")+"/") {
			return true
		}
	}
	return false
}

func (l *Loader) parseAll(ctx context.Context, cb *Codebase, paths []string) ([]*sourceFile, error) {
	files := make([]*sourceFile, len(paths))
	synErrs := make([][]diagnostics.Diagnostic, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Jobs)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read %s: %w", p, err)
			}
			f, perr := parser.ParseFile(cb.fset, p, src, parser.ParseComments|parser.AllErrors)
			rel, _ := filepath.Rel(cb.Root, p)
			rel = filepath.ToSlash(rel)
			files[i] = &sourceFile{abs: p, rel: rel, src: src, ast: f, test: strings.HasSuffix(p, "_test.go")}
			synErrs[i] = syntaxDiagnostics(cb, perr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, ds := range synErrs {
		cb.diags = append(cb.diags, ds...)
	}
	return files, nil
}

func syntaxDiagnostics(cb *Codebase, err error) []diagnostics.Diagnostic {
	if err == nil {
		return nil
	}
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return []diagnostics.Diagnostic{{
			Code:     "syntax",
			Category: diagnostics.CategorySyntax,
			Severity: diagnostics.SeverityError,
			Message:  err.Error(),
			Source:   "parser",
		}}
	}
	out := make([]diagnostics.Diagnostic, 0, len(list))
	for _, e := range list {
		out = append(out, diagnostics.Diagnostic{
			Code:     "syntax",
			Category: diagnostics.CategorySyntax,
			Severity: diagnostics.SeverityError,
			Message:  e.Msg,
			Position: cb.relPosition(e.Pos),
			Source:   "parser",
		})
	}
	return out
}

// groupPackages splits files by directory and package clause.
func groupPackages(module, root string, files []*sourceFile) []*pkgUnit {
	byKey := map[string]*pkgUnit{}
	var order []string
	for _, f := range files {
		if f.ast == nil || f.ast.Name == nil || f.ast.Name.Name == "_" {
			continue
		}
		dir := filepath.Dir(f.abs)
		rel, _ := filepath.Rel(root, dir)
		importPath := module
		if rel != "." {
			importPath = module + "/" + filepath.ToSlash(rel)
		}
		name := f.ast.Name.Name
		if f.test && strings.HasSuffix(name, "_test") {
			importPath += "_test"
		}
		key := importPath + "|" + name
		p, ok := byKey[key]
		if !ok {
			p = &pkgUnit{path: importPath, name: name, dir: dir, imports: map[string]*ast.ImportSpec{}}
			byKey[key] = p
			order = append(order, key)
		}
		p.files = append(p.files, f)
		f.pkg = p
		for _, spec := range f.ast.Imports {
			ip, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			if _, seen := p.imports[ip]; !seen {
				p.imports[ip] = spec
			}
		}
	}
	sort.Strings(order)
	out := make([]*pkgUnit, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}

// checkOrder sorts packages so local dependencies come first. Cycles are cut at the back edge.
func checkOrder(pkgs []*pkgUnit) []*pkgUnit {
	byPath := map[string]*pkgUnit{}
	for _, p := range pkgs {
		if _, dup := byPath[p.path]; !dup {
			byPath[p.path] = p
		}
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[*pkgUnit]int{}
	var out []*pkgUnit
	var visit func(p *pkgUnit)
	visit = func(p *pkgUnit) {
		state[p] = visiting
		deps := make([]string, 0, len(p.imports))
		for ip := range p.imports {
			deps = append(deps, ip)
		}
		sort.Strings(deps)
		for _, ip := range deps {
			dep, ok := byPath[ip]
			if !ok || dep == p || state[dep] != unvisited {
				continue
			}
			visit(dep)
		}
		state[p] = done
		out = append(out, p)
	}
	for _, p := range pkgs {
		if state[p] == unvisited {
			visit(p)
		}
	}
	return out
}

func (l *Loader) typeCheck(cb *Codebase, pkgs []*pkgUnit) {
	imp := newLocalImporter(cb.fset, pkgs, l.opts.StdlibImporter)
	for _, p := range checkOrder(pkgs) {
		var astFiles []*ast.File
		for _, f := range p.files {
			astFiles = append(astFiles, f.ast)
		}
		info := &types.Info{
			Types:      map[ast.Expr]types.TypeAndValue{},
			Defs:       map[*ast.Ident]types.Object{},
			Uses:       map[*ast.Ident]types.Object{},
			Selections: map[*ast.SelectorExpr]*types.Selection{},
			Scopes:     map[ast.Node]*types.Scope{},
		}
		conf := types.Config{
			Importer:    imp,
			FakeImportC: true,
			Error: func(err error) {
				var te types.Error
				if errors.As(err, &te) {
					cb.diags = append(cb.diags, typeDiagnostic(cb, te))
				}
			},
		}
		tp, _ := conf.Check(p.path, cb.fset, astFiles, info)
		p.types = tp
		p.info = info
		p.checked = true
		l.logger.Trace("type-checked package", "path", p.path, "files", len(p.files))
	}
}

func typeDiagnostic(cb *Codebase, te types.Error) diagnostics.Diagnostic {
	code, cat := classifyTypeError(te)
	return diagnostics.Diagnostic{
		Code:     code,
		Category: cat,
		Severity: diagnostics.SeverityError,
		Message:  te.Msg,
		Position: cb.position(te.Pos),
		Source:   "types",
	}
}

func classifyTypeError(te types.Error) (string, diagnostics.Category) {
	msg := te.Msg
	switch {
	case strings.Contains(msg, "could not import"), strings.Contains(msg, "import cycle"):
		return "import", diagnostics.CategoryImport
	case strings.Contains(msg, "imported and not used"):
		return "unused-import", diagnostics.CategoryImport
	case strings.Contains(msg, "undefined"):
		return "undefined", diagnostics.CategorySemantic
	case strings.Contains(msg, "redeclared"):
		return "redeclared", diagnostics.CategorySemantic
	case strings.Contains(msg, "declared and not used"), strings.Contains(msg, "declared but not used"):
		return "unused-variable", diagnostics.CategorySemantic
	case strings.Contains(msg, "missing return"):
		return "missing-return", diagnostics.CategorySemantic
	case te.Soft:
		return "semantic", diagnostics.CategorySemantic
	default:
		return "type-mismatch", diagnostics.CategoryType
	}
}

func lineCount(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	n := bytes.Count(src, []byte{'\n'})
	if src[len(src)-1] != '\n' {
		n++
	}
	return n
}
