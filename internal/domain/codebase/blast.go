package codebase

import (
	"fmt"
	"sort"
)

// BlastRadius walks dependents of id breadth-first. maxDepth <= 0 means unlimited.
func (g *Graph) BlastRadius(id SymbolID, maxDepth int) (BlastRadius, error) {
	root, ok := g.Symbols[id]
	if !ok {
		return BlastRadius{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, id)
	}

	depth := map[SymbolID]int{id: 0}
	via := map[SymbolID]SymbolID{}
	frontier := []SymbolID{id}
	reached := 0
	for level := 1; len(frontier) > 0 && (maxDepth <= 0 || level <= maxDepth); level++ {
		var next []SymbolID
		for _, cur := range frontier {
			for _, i := range g.in[cur] {
				from := g.Edges[i].From
				if _, seen := depth[from]; seen {
					continue
				}
				depth[from] = level
				via[from] = cur
				next = append(next, from)
			}
		}
		if len(next) > 0 {
			reached = level
		}
		frontier = next
	}

	affected := make([]Impact, 0, len(depth)-1)
	for sid, d := range depth {
		if sid == id {
			continue
		}
		affected = append(affected, Impact{Symbol: g.Symbols[sid], Depth: d, Via: via[sid]})
	}
	sort.Slice(affected, func(i, j int) bool {
		if affected[i].Depth != affected[j].Depth {
			return affected[i].Depth < affected[j].Depth
		}
		return affected[i].Symbol.ID < affected[j].Symbol.ID
	})
	return BlastRadius{Root: root, Affected: affected, MaxDepth: reached}, nil
}
