package testenv

import (
	"bytes"
	"context"
	_ "embed"
	"testing"

	"github.com/surrealdb/surrealdir/pkg/directory"
	"github.com/surrealdb/surrealdir/pkg/graph"
	"github.com/surrealdb/surrealdir/pkg/logger"
	"github.com/surrealdb/surrealdir/pkg/store/memstore"
)

//go:embed testdata/directory.yaml
var directoryYAML []byte

// DirectoryYAML is the standard fixture: 13MELB with Student Support,
// Housing, Careers and Library below it, an orphan Archive and two
// chained collections under Housing.
func DirectoryYAML() []byte { return directoryYAML }

// MemStore returns an in-memory store seeded with the standard fixture.
// Keys are sequential so ids are stable across runs.
func MemStore(t testing.TB) *memstore.Store {
	t.Helper()
	f, err := memstore.ParseFixture(bytes.NewReader(directoryYAML))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	s := memstore.New(memstore.WithKeyFunc(memstore.SequentialKeys()))
	if err := s.Seed(f); err != nil {
		t.Fatalf("failed to seed fixture: %v", err)
	}
	return s
}

// Directory returns a directory over the seeded store, logging through a
// TestLogHandler.
func Directory(t testing.TB) (*directory.Directory, *TestLogHandler) {
	t.Helper()
	h := NewTestLogHandler()
	store := graph.Instrument(MemStore(t), graph.Options{Logger: logger.New(h)})
	dir := directory.New(store, directory.WithLogger(logger.New(h)))
	t.Cleanup(func() { _ = dir.Close(context.Background()) })
	return dir, h
}
