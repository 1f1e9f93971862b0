package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/diagnostics"
)

func sampleSnapshot() *analysis.Snapshot {
	g := codebase.NewGraph("example.com/demo", "/src")
	g.AddSymbol(&codebase.Symbol{ID: "example.com/demo.main", Name: "main", Kind: codebase.KindFunction, Entry: true, Position: codebase.Position{File: "main.go", Line: 3}})
	g.AddSymbol(&codebase.Symbol{ID: "example.com/demo.helper", Name: "helper", Kind: codebase.KindFunction, Position: codebase.Position{File: "main.go", Line: 7}})
	g.AddSymbol(&codebase.Symbol{ID: "example.com/demo.stale", Name: "stale", Kind: codebase.KindFunction, Position: codebase.Position{File: "main.go", Line: 9}})
	g.AddEdge(codebase.Edge{From: "example.com/demo.main", To: "example.com/demo.helper", Kind: codebase.EdgeCall})
	return &analysis.Snapshot{
		Schema: analysis.SnapshotSchema,
		Graph:  g,
		Diagnostics: []diagnostics.Diagnostic{{
			Code:     "syntax",
			Category: diagnostics.CategorySyntax,
			Severity: diagnostics.SeverityError,
			Message:  "expected ';', found 'EOF'",
			Position: codebase.Position{File: "bad.go", Line: 2, Column: 5},
		}},
		Metrics: analysis.Metrics{Files: 2, LOC: 20},
	}
}

func TestSnapshotRoundTripRebuildsIndexes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshot(&buf, sampleSnapshot()))

	got, err := DecodeSnapshot(&buf)
	require.NoError(t, err)
	assert.Len(t, got.Graph.Symbols, 3)
	refs := got.Graph.References("example.com/demo.helper")
	require.Len(t, refs, 1)
	assert.Equal(t, codebase.SymbolID("example.com/demo.main"), refs[0].From)

	dead := got.DeadCodeSymbols()
	require.Len(t, dead, 1)
	assert.Equal(t, "stale", dead[0].Name)
	assert.Equal(t, 1, got.ErrorSummary().Total)
}

func TestDecodeSnapshotRejectsOtherSchema(t *testing.T) {
	s := sampleSnapshot()
	s.Schema = analysis.SnapshotSchema + 1
	data, err := msgpack.Marshal(s)
	require.NoError(t, err)
	_, err = DecodeSnapshot(bytes.NewReader(data))
	assert.ErrorContains(t, err, "schema")
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, sampleSnapshot().Report()))

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]
	assert.Equal(t, "graph-sitter", run.Tool.Driver.Name)
	assert.Len(t, run.Tool.Driver.Rules, 2)
	require.Len(t, run.Results, 2)

	first := run.Results[0]
	assert.Equal(t, "syntax", first.RuleID)
	assert.Equal(t, "error", first.Level)
	assert.Equal(t, "bad.go", first.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 2, first.Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, "dead-code", run.Results[1].RuleID)
	assert.Equal(t, "note", run.Results[1].Level)
}
