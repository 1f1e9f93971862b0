package codebase

import "errors"

var (
	// ErrSymbolNotFound is returned when a query matches no symbol in the graph.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrAmbiguousSymbol is returned when a query matches several symbols.
	ErrAmbiguousSymbol = errors.New("ambiguous symbol")
)

// SymbolID identifies a top-level declaration: importpath.Name or importpath.Recv.Name.
type SymbolID string

// SymbolKind enum
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindType      SymbolKind = "type"
	KindInterface SymbolKind = "interface"
	KindVar       SymbolKind = "var"
	KindConst     SymbolKind = "const"
)

// EdgeKind enum
type EdgeKind string

const (
	EdgeReference EdgeKind = "reference"
	EdgeCall      EdgeKind = "call"
	// EdgeReceiver links a method to its receiver type. It does not keep the type alive.
	EdgeReceiver EdgeKind = "receiver"
)

// Position is a source range. File is relative to the codebase root.
type Position struct {
	File      string `json:"file" msgpack:"file"`
	Line      int    `json:"line" msgpack:"line"`
	Column    int    `json:"column" msgpack:"column"`
	EndLine   int    `json:"end_line,omitempty" msgpack:"end_line"`
	EndColumn int    `json:"end_column,omitempty" msgpack:"end_column"`
}

// Symbol is a top-level declaration in the codebase.
type Symbol struct {
	ID         SymbolID   `json:"id" msgpack:"id"`
	Name       string     `json:"name" msgpack:"name"`
	Kind       SymbolKind `json:"kind" msgpack:"kind"`
	Package    string     `json:"package" msgpack:"package"`
	Receiver   string     `json:"receiver,omitempty" msgpack:"receiver"`
	Exported   bool       `json:"exported" msgpack:"exported"`
	Test       bool       `json:"test,omitempty" msgpack:"test"`
	Entry      bool       `json:"entry,omitempty" msgpack:"entry"`
	Position   Position   `json:"position" msgpack:"position"`
	Signature  string     `json:"signature,omitempty" msgpack:"signature"`
	Doc        string     `json:"doc,omitempty" msgpack:"doc"`
	Complexity int        `json:"complexity,omitempty" msgpack:"complexity"`
	Lines      int        `json:"lines,omitempty" msgpack:"lines"`
}

// Edge is a dependency From -> To: From uses To.
type Edge struct {
	From     SymbolID `json:"from" msgpack:"from"`
	To       SymbolID `json:"to" msgpack:"to"`
	Kind     EdgeKind `json:"kind" msgpack:"kind"`
	Position Position `json:"position" msgpack:"position"`
}

// Impact is one symbol affected by a change, at its minimum distance from the root.
type Impact struct {
	Symbol *Symbol  `json:"symbol"`
	Depth  int      `json:"depth"`
	Via    SymbolID `json:"via"`
}

// BlastRadius is the set of symbols transitively depending on Root.
type BlastRadius struct {
	Root     *Symbol  `json:"root"`
	Affected []Impact `json:"affected"`
	MaxDepth int      `json:"max_depth"`
}
