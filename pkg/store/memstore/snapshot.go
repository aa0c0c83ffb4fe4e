package memstore

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/surrealdb/surrealdir/pkg/graph"
)

const snapshotVersion = 1

type snapshot struct {
	Version int          `cbor:"version"`
	Seq     uint64       `cbor:"seq"`
	Nodes   []graph.Node `cbor:"nodes"`
	Edges   []edge       `cbor:"edges"`
}

var snapshotDecMode, _ = cbor.DecOptions{
	DefaultMapType: reflect.TypeOf(map[string]any(nil)),
}.DecMode()

// Save writes the whole graph to w as CBOR.
func (s *Store) Save(w io.Writer) error {
	s.mu.RLock()
	snap := snapshot{Version: snapshotVersion, Seq: s.state.seq}
	for _, n := range s.state.nodes {
		snap.Nodes = append(snap.Nodes, n.Clone())
	}
	for _, e := range s.state.edges {
		snap.Edges = append(snap.Edges, e)
	}
	s.mu.RUnlock()

	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].ID < snap.Nodes[j].ID })
	sort.Slice(snap.Edges, func(i, j int) bool { return snap.Edges[i].Seq < snap.Edges[j].Seq })
	return cbor.NewEncoder(w).Encode(snap)
}

// Load replaces the graph with a snapshot written by Save.
func (s *Store) Load(r io.Reader) error {
	var snap snapshot
	if err := snapshotDecMode.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("memstore: decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("memstore: unsupported snapshot version %d", snap.Version)
	}
	st := newState()
	st.seq = snap.Seq
	for _, n := range snap.Nodes {
		if n.Props == nil {
			n.Props = map[string]any{}
		}
		st.nodes[n.ID] = n
	}
	for _, e := range snap.Edges {
		st.edges[e.ID] = e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return graph.ErrClosed
	}
	s.state = st
	return nil
}

// SaveFile writes a snapshot to path, replacing any previous file.
func (s *Store) SaveFile(path string) error {
	tmp := path + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := s.Save(fh); err != nil {
		fh.Close()
		os.Remove(tmp)
		return err
	}
	if err := fh.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFile reads a snapshot written by SaveFile.
func (s *Store) LoadFile(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	return s.Load(fh)
}
