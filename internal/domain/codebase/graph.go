package codebase

import (
	"fmt"
	"sort"
	"strings"
)

type edgeKey struct {
	from, to SymbolID
	kind     EdgeKind
}

// Graph is the symbol dependency graph of one codebase.
// The exported fields are the persisted form; Reindex rebuilds the lookup indexes.
type Graph struct {
	Module           string               `json:"module" msgpack:"module"`
	Root             string               `json:"root" msgpack:"root"`
	Symbols          map[SymbolID]*Symbol `json:"symbols" msgpack:"symbols"`
	Edges            []Edge               `json:"edges" msgpack:"edges"`
	Pinned           map[SymbolID]bool    `json:"pinned,omitempty" msgpack:"pinned"`
	InterfaceMethods map[string]bool      `json:"interface_methods,omitempty" msgpack:"interface_methods"`

	in   map[SymbolID][]int
	out  map[SymbolID][]int
	seen map[edgeKey]struct{}
}

func NewGraph(module, root string) *Graph {
	g := &Graph{
		Module:           module,
		Root:             root,
		Symbols:          make(map[SymbolID]*Symbol),
		Pinned:           make(map[SymbolID]bool),
		InterfaceMethods: make(map[string]bool),
	}
	g.Reindex()
	return g
}

// Reindex rebuilds the edge indexes, dropping duplicate edges and edges to unknown symbols.
func (g *Graph) Reindex() {
	if g.Symbols == nil {
		g.Symbols = make(map[SymbolID]*Symbol)
	}
	if g.Pinned == nil {
		g.Pinned = make(map[SymbolID]bool)
	}
	if g.InterfaceMethods == nil {
		g.InterfaceMethods = make(map[string]bool)
	}
	edges := g.Edges
	g.Edges = nil
	g.in = make(map[SymbolID][]int)
	g.out = make(map[SymbolID][]int)
	g.seen = make(map[edgeKey]struct{})
	for _, e := range edges {
		g.AddEdge(e)
	}
}

// AddSymbol registers s, replacing any symbol with the same ID.
func (g *Graph) AddSymbol(s *Symbol) {
	g.Symbols[s.ID] = s
}

// AddEdge records e and reports whether it was stored.
func (g *Graph) AddEdge(e Edge) bool {
	if _, ok := g.Symbols[e.From]; !ok {
		return false
	}
	if _, ok := g.Symbols[e.To]; !ok {
		return false
	}
	k := edgeKey{e.From, e.To, e.Kind}
	if _, dup := g.seen[k]; dup {
		return false
	}
	g.seen[k] = struct{}{}
	g.Edges = append(g.Edges, e)
	idx := len(g.Edges) - 1
	g.out[e.From] = append(g.out[e.From], idx)
	g.in[e.To] = append(g.in[e.To], idx)
	return true
}

// Pin marks id as referenced from outside any symbol (e.g. a blank declaration).
func (g *Graph) Pin(id SymbolID) {
	if _, ok := g.Symbols[id]; ok {
		g.Pinned[id] = true
	}
}

func (g *Graph) Symbol(id SymbolID) (*Symbol, bool) {
	s, ok := g.Symbols[id]
	return s, ok
}

// Lookup resolves a query by exact ID, then by ID suffix (Recv.Name or pkg.Name), then by bare name.
func (g *Graph) Lookup(query string) []*Symbol {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if s, ok := g.Symbols[SymbolID(query)]; ok {
		return []*Symbol{s}
	}
	var out []*Symbol
	if strings.Contains(query, ".") {
		suffix := "." + query
		for id, s := range g.Symbols {
			if strings.HasSuffix(string(id), suffix) {
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		for _, s := range g.Symbols {
			if s.Name == query {
				out = append(out, s)
			}
		}
	}
	sortByID(out)
	return out
}

// Resolve narrows a Lookup to exactly one symbol.
func (g *Graph) Resolve(query string) (*Symbol, error) {
	found := g.Lookup(query)
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, query)
	case 1:
		return found[0], nil
	}
	names := make([]string, 0, len(found))
	for _, s := range found {
		names = append(names, string(s.ID))
	}
	return nil, fmt.Errorf("%w: %s matches %s", ErrAmbiguousSymbol, query, strings.Join(names, ", "))
}

// References returns the edges pointing at id.
func (g *Graph) References(id SymbolID) []Edge {
	return g.collect(g.in[id])
}

// Dependencies returns the edges leaving id.
func (g *Graph) Dependencies(id SymbolID) []Edge {
	return g.collect(g.out[id])
}

func (g *Graph) collect(idx []int) []Edge {
	out := make([]Edge, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.Edges[i])
	}
	return out
}

// SortedSymbols returns all symbols ordered by file and line.
func (g *Graph) SortedSymbols() []*Symbol {
	out := make([]*Symbol, 0, len(g.Symbols))
	for _, s := range g.Symbols {
		out = append(out, s)
	}
	sortByPosition(out)
	return out
}

func sortByID(s []*Symbol) {
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}

func sortByPosition(s []*Symbol) {
	sort.Slice(s, func(i, j int) bool {
		a, b := s[i].Position, s[j].Position
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return s[i].ID < s[j].ID
	})
}
