package analysis

import (
	"errors"
	"fmt"
	"go/importer"
	"go/token"
	"go/types"
)

var errImportCycle = errors.New("import cycle not allowed")

// localImporter resolves packages of the analysed tree first and defers the rest to a fallback.
type localImporter struct {
	local    map[string]*pkgUnit
	fallback types.Importer
}

func newLocalImporter(fset *token.FileSet, pkgs []*pkgUnit, mode string) *localImporter {
	imp := &localImporter{local: make(map[string]*pkgUnit, len(pkgs))}
	for _, p := range pkgs {
		if _, dup := imp.local[p.path]; !dup {
			imp.local[p.path] = p
		}
	}
	if mode == ImporterSource {
		imp.fallback = importer.ForCompiler(fset, "source", nil)
	}
	return imp
}

func (i *localImporter) Import(path string) (*types.Package, error) {
	if p, ok := i.local[path]; ok {
		if !p.checked || p.types == nil {
			return nil, errImportCycle
		}
		return p.types, nil
	}
	if path == "unsafe" {
		return types.Unsafe, nil
	}
	if i.fallback == nil {
		return nil, fmt.Errorf("package %s is outside the analysed tree", path)
	}
	return i.fallback.Import(path)
}
