package codebase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sym(id, name string, kind SymbolKind, line int) *Symbol {
	return &Symbol{ID: SymbolID(id), Name: name, Kind: kind, Package: "ex", Position: Position{File: "a.go", Line: line}}
}

func ids(syms []*Symbol) []SymbolID {
	out := make([]SymbolID, 0, len(syms))
	for _, s := range syms {
		out = append(out, s.ID)
	}
	return out
}

// main -> a -> b, c unused, d recursive only, T only used as receiver of m.
func sampleGraph() *Graph {
	g := NewGraph("ex", "/tmp/ex")
	mainSym := sym("ex.main", "main", KindFunction, 1)
	mainSym.Entry = true
	g.AddSymbol(mainSym)
	g.AddSymbol(sym("ex.a", "a", KindFunction, 2))
	g.AddSymbol(sym("ex.b", "b", KindFunction, 3))
	g.AddSymbol(sym("ex.c", "c", KindFunction, 4))
	g.AddSymbol(sym("ex.d", "d", KindFunction, 5))
	g.AddSymbol(sym("ex.T", "T", KindType, 6))
	m := sym("ex.T.m", "m", KindMethod, 7)
	m.Receiver = "T"
	g.AddSymbol(m)

	g.AddEdge(Edge{From: "ex.main", To: "ex.a", Kind: EdgeCall})
	g.AddEdge(Edge{From: "ex.a", To: "ex.b", Kind: EdgeCall})
	g.AddEdge(Edge{From: "ex.d", To: "ex.d", Kind: EdgeCall})
	g.AddEdge(Edge{From: "ex.T.m", To: "ex.T", Kind: EdgeReceiver})
	g.AddEdge(Edge{From: "ex.c", To: "ex.T.m", Kind: EdgeReference})
	return g
}

func TestAddEdgeDropsDuplicatesAndUnknownSymbols(t *testing.T) {
	g := sampleGraph()
	before := len(g.Edges)

	assert.False(t, g.AddEdge(Edge{From: "ex.main", To: "ex.a", Kind: EdgeCall}))
	assert.False(t, g.AddEdge(Edge{From: "ex.main", To: "ex.missing", Kind: EdgeCall}))
	assert.True(t, g.AddEdge(Edge{From: "ex.main", To: "ex.a", Kind: EdgeReference}))
	assert.Len(t, g.Edges, before+1)
}

func TestDeadCodeUnreferenced(t *testing.T) {
	g := sampleGraph()
	dead := g.DeadCode(DeadCodeOptions{})

	// c has no users, d only calls itself, T is only a receiver; m is used by c.
	assert.Equal(t, []SymbolID{"ex.c", "ex.d", "ex.T"}, ids(dead))
}

func TestDeadCodeTransitive(t *testing.T) {
	g := sampleGraph()
	dead := g.DeadCode(DeadCodeOptions{Transitive: true})

	// T.m is only used by the dead c
	assert.Equal(t, []SymbolID{"ex.c", "ex.d", "ex.T", "ex.T.m"}, ids(dead))
}

func TestDeadCodeTransitiveCyclesAndReceivers(t *testing.T) {
	g := NewGraph("m", "")
	mainSym := sym("m.main", "main", KindFunction, 1)
	mainSym.Entry = true
	g.AddSymbol(mainSym)
	g.AddSymbol(sym("m.t", "t", KindType, 2))
	str := sym("m.t.String", "String", KindMethod, 3)
	str.Receiver = "t"
	g.AddSymbol(str)
	g.AddSymbol(sym("m.a", "a", KindFunction, 4))
	g.AddSymbol(sym("m.b", "b", KindFunction, 5))
	g.AddSymbol(sym("m.c", "c", KindFunction, 6))
	g.AddSymbol(sym("m.d", "d", KindFunction, 7))

	g.AddEdge(Edge{From: "m.t.String", To: "m.t", Kind: EdgeReceiver})
	g.AddEdge(Edge{From: "m.a", To: "m.b", Kind: EdgeCall})
	g.AddEdge(Edge{From: "m.b", To: "m.a", Kind: EdgeCall})
	g.AddEdge(Edge{From: "m.c", To: "m.d", Kind: EdgeCall})

	direct := ids(g.DeadCode(DeadCodeOptions{}))
	transitive := ids(g.DeadCode(DeadCodeOptions{Transitive: true}))

	// a receiver edge alone never keeps t alive; the a<->b cycle keeps itself alive
	assert.Equal(t, []SymbolID{"m.t", "m.c"}, direct)
	assert.Equal(t, []SymbolID{"m.t", "m.c", "m.d"}, transitive)
	assert.Subset(t, transitive, direct)
}

func TestDeadCodeTransitiveIsSuperset(t *testing.T) {
	for _, exported := range []bool{false, true} {
		g := sampleGraph()
		opts := DeadCodeOptions{ExportedIsLive: exported}
		direct := ids(g.DeadCode(opts))
		opts.Transitive = true
		assert.Subset(t, ids(g.DeadCode(opts)), direct)
	}
}

func TestDeadCodeRoots(t *testing.T) {
	g := NewGraph("ex", "")
	exp := sym("ex.Exported", "Exported", KindFunction, 1)
	exp.Exported = true
	g.AddSymbol(exp)
	tst := sym("ex.TestX", "TestX", KindFunction, 2)
	tst.Test = true
	g.AddSymbol(tst)
	str := sym("ex.T.String", "String", KindMethod, 3)
	g.AddSymbol(str)
	iface := sym("ex.T.Visit", "Visit", KindMethod, 4)
	g.AddSymbol(iface)
	g.InterfaceMethods["Visit"] = true
	pinned := sym("ex.pinned", "pinned", KindVar, 5)
	g.AddSymbol(pinned)
	g.Pin("ex.pinned")

	assert.Empty(t, g.DeadCode(DeadCodeOptions{ExportedIsLive: true}))
	assert.Equal(t, []SymbolID{"ex.Exported"}, ids(g.DeadCode(DeadCodeOptions{})))
}

func TestBlastRadius(t *testing.T) {
	g := sampleGraph()

	br, err := g.BlastRadius("ex.b", 0)
	require.NoError(t, err)
	require.Len(t, br.Affected, 2)
	assert.Equal(t, SymbolID("ex.a"), br.Affected[0].Symbol.ID)
	assert.Equal(t, 1, br.Affected[0].Depth)
	assert.Equal(t, SymbolID("ex.main"), br.Affected[1].Symbol.ID)
	assert.Equal(t, 2, br.Affected[1].Depth)
	assert.Equal(t, SymbolID("ex.a"), br.Affected[1].Via)
	assert.Equal(t, 2, br.MaxDepth)

	limited, err := g.BlastRadius("ex.b", 1)
	require.NoError(t, err)
	assert.Len(t, limited.Affected, 1)

	// receiver edges propagate a type change to its methods and their users
	viaType, err := g.BlastRadius("ex.T", 0)
	require.NoError(t, err)
	assert.Len(t, viaType.Affected, 2)

	_, err = g.BlastRadius("ex.nope", 0)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestLookup(t *testing.T) {
	g := sampleGraph()

	assert.Equal(t, []SymbolID{"ex.a"}, ids(g.Lookup("ex.a")))
	assert.Equal(t, []SymbolID{"ex.T.m"}, ids(g.Lookup("T.m")))
	assert.Equal(t, []SymbolID{"ex.T.m"}, ids(g.Lookup("m")))
	assert.Empty(t, g.Lookup(""))
}

func TestReindexRestoresIndexes(t *testing.T) {
	g := sampleGraph()
	restored := &Graph{Module: g.Module, Symbols: g.Symbols, Edges: append([]Edge(nil), g.Edges...)}
	restored.Reindex()

	assert.Len(t, restored.References("ex.b"), 1)
	assert.Len(t, restored.Dependencies("ex.main"), 1)
	assert.Equal(t, ids(g.DeadCode(DeadCodeOptions{})), ids(restored.DeadCode(DeadCodeOptions{})))
}

func TestResolve(t *testing.T) {
	g := sampleGraph()
	g.AddSymbol(sym("ex.U.m", "m", KindMethod, 8))

	s, err := g.Resolve("ex.a")
	require.NoError(t, err)
	assert.Equal(t, SymbolID("ex.a"), s.ID)

	_, err = g.Resolve("m")
	assert.ErrorIs(t, err, ErrAmbiguousSymbol)

	_, err = g.Resolve("zzz")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}
