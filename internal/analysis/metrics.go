package analysis

import (
	"math"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
)

// Metrics summarises the size and shape of a codebase.
type Metrics struct {
	Files         int     `json:"files" msgpack:"files"`
	Packages      int     `json:"packages" msgpack:"packages"`
	LOC           int     `json:"loc" msgpack:"loc"`
	Symbols       int     `json:"symbols" msgpack:"symbols"`
	Edges         int     `json:"edges" msgpack:"edges"`
	Functions     int     `json:"functions" msgpack:"functions"`
	AvgComplexity float64 `json:"avg_complexity" msgpack:"avg_complexity"`
	MaxComplexity int     `json:"max_complexity" msgpack:"max_complexity"`
}

func computeMetrics(cb *Codebase, g *codebase.Graph) Metrics {
	m := Metrics{
		Files:    len(cb.files),
		Packages: len(cb.pkgs),
		Symbols:  len(g.Symbols),
		Edges:    len(g.Edges),
	}
	for _, f := range cb.files {
		m.LOC += lineCount(f.src)
	}
	total := 0
	for _, s := range g.Symbols {
		if s.Kind != codebase.KindFunction && s.Kind != codebase.KindMethod {
			continue
		}
		m.Functions++
		total += s.Complexity
		if s.Complexity > m.MaxComplexity {
			m.MaxComplexity = s.Complexity
		}
	}
	if m.Functions > 0 {
		m.AvgComplexity = math.Round(float64(total)/float64(m.Functions)*100) / 100
	}
	return m
}
