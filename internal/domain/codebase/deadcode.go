package codebase

import "strings"

// DeadCodeOptions controls which symbols count as live roots.
type DeadCodeOptions struct {
	// ExportedIsLive treats exported symbols as used (library mode).
	ExportedIsLive bool
	// Transitive also reports symbols used only by dead symbols.
	Transitive bool
}

// wellKnownMethods are satisfied implicitly by stdlib interfaces.
var wellKnownMethods = map[string]bool{
	"String": true, "GoString": true, "Format": true,
	"Error": true, "Unwrap": true, "Is": true, "As": true,
	"MarshalJSON": true, "UnmarshalJSON": true,
	"MarshalText": true, "UnmarshalText": true,
	"MarshalYAML": true, "UnmarshalYAML": true,
	"MarshalBinary": true, "UnmarshalBinary": true,
	"ServeHTTP": true, "Read": true, "Write": true, "Close": true,
	"Len": true, "Less": true, "Swap": true,
	"Scan": true, "Value": true,
}

var testPrefixes = []string{"Test", "Benchmark", "Example", "Fuzz"}

func (g *Graph) isRoot(s *Symbol, opts DeadCodeOptions) bool {
	if s.Entry || g.Pinned[s.ID] {
		return true
	}
	if s.Test && s.Kind == KindFunction {
		for _, p := range testPrefixes {
			if strings.HasPrefix(s.Name, p) {
				return true
			}
		}
	}
	if opts.ExportedIsLive && s.Exported {
		return true
	}
	if s.Kind == KindMethod && (g.InterfaceMethods[s.Name] || wellKnownMethods[s.Name]) {
		return true
	}
	return false
}

// DeadCode returns the symbols nothing else uses, ordered by file and line.
// With Transitive, users that are themselves dead stop counting until no new symbol dies.
func (g *Graph) DeadCode(opts DeadCodeOptions) []*Symbol {
	dead := map[SymbolID]bool{}
	for {
		var round []SymbolID
		for id, s := range g.Symbols {
			if !dead[id] && !g.isRoot(s, opts) && !g.used(id, dead) {
				round = append(round, id)
			}
		}
		for _, id := range round {
			dead[id] = true
		}
		if !opts.Transitive || len(round) == 0 {
			break
		}
	}
	out := make([]*Symbol, 0, len(dead))
	for id := range dead {
		out = append(out, g.Symbols[id])
	}
	sortByPosition(out)
	return out
}

// used reports an incoming reference or call from another symbol not in dead.
// Receiver edges never keep a type alive.
func (g *Graph) used(id SymbolID, dead map[SymbolID]bool) bool {
	for _, i := range g.in[id] {
		e := g.Edges[i]
		if e.Kind != EdgeReceiver && e.From != id && !dead[e.From] {
			return true
		}
	}
	return false
}
