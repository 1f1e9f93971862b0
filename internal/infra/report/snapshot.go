package report

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
)

// EncodeSnapshot writes s as msgpack.
func EncodeSnapshot(w io.Writer, s *analysis.Snapshot) error {
	if err := msgpack.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a snapshot and rebuilds its graph indexes.
func DecodeSnapshot(r io.Reader) (*analysis.Snapshot, error) {
	var s analysis.Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Schema != analysis.SnapshotSchema {
		return nil, fmt.Errorf("snapshot schema %d, want %d", s.Schema, analysis.SnapshotSchema)
	}
	if s.Graph == nil {
		return nil, fmt.Errorf("snapshot has no graph")
	}
	s.Graph.Reindex()
	return &s, nil
}

// Codec bundles the artifact encoders behind one value.
type Codec struct{}

func (Codec) WriteSARIF(w io.Writer, r analysis.Report) error { return WriteSARIF(w, r) }

func (Codec) EncodeSnapshot(w io.Writer, s *analysis.Snapshot) error { return EncodeSnapshot(w, s) }

func (Codec) DecodeSnapshot(r io.Reader) (*analysis.Snapshot, error) { return DecodeSnapshot(r) }
