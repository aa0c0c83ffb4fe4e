package directory_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdir/internal/testenv"
	"github.com/surrealdb/surrealdir/pkg/directory"
	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

func TestResolveByID(t *testing.T) {
	ctx, dir := setup(t)
	r, err := dir.Area(ctx, directory.RootID)
	require.NoError(t, err)
	assert.Equal(t, "13MELB", r.Name)

	again, err := dir.Area(ctx, string(r.ID))
	require.NoError(t, err)
	assert.Equal(t, r.Area, again.Area)

	head, _ := housing(t, dir)
	for _, id := range []string{"garbage", "area:missing", string(head.ID)} {
		_, err := dir.Area(ctx, id)
		assert.ErrorIs(t, err, directory.ErrNotFound, id)
	}
	_, err = dir.Collection(ctx, string(r.ID))
	assert.ErrorIs(t, err, directory.ErrNotFound)
	_, err = dir.Contact(ctx, string(head.ID))
	assert.ErrorIs(t, err, directory.ErrNotFound)

	var derr *directory.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, head.ID, derr.ID)
}

func TestContactSearch(t *testing.T) {
	ctx, dir := setup(t)
	tests := []struct {
		query string
		want  []string
	}{
		{query: "ada lov", want: []string{"Ada"}},
		{query: "  TURING ", want: []string{"Alan"}},
		{query: "a", want: []string{"Ada", "Alan"}},
		{query: "ada turing", want: []string{}},
		{query: "dij!", want: []string{"Edsger"}},
		{query: "", want: []string{"Edsger", "Grace", "Barbara", "Ada", "Alan"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			found, err := dir.ContactSearch(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, firstNames(found))
		})
	}
}

func TestBatchContactsByArea(t *testing.T) {
	ctx, dir := setup(t)
	housingArea := at(t, dir, "Student Support", "Housing")
	library := at(t, dir, "Library")

	got, err := dir.BatchContactsByArea(ctx, []string{directory.RootID, string(housingArea.ID), string(library.ID)})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Empty(t, got[root(t, dir).ID])
	require.Len(t, got[housingArea.ID], 1)
	assert.Equal(t, []string{"Ada", "Alan"}, firstNames(got[housingArea.ID][0].Contacts))
	require.Len(t, got[library.ID], 1)
	assert.Equal(t, []string{"Barbara"}, firstNames(got[library.ID][0].Contacts))

	_, err = dir.BatchContactsByArea(ctx, []string{string(library.ID), "area:missing"})
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

type importer struct {
	name string
	err  error
}

func (i importer) Import(_ context.Context, area directory.Area, file io.Reader) (graph.Statement, graph.Params, error) {
	if i.err != nil {
		return graph.Statement{}, nil, i.err
	}
	b, err := io.ReadAll(file)
	if err != nil {
		return graph.Statement{}, nil, err
	}
	return dirql.InsertChild, graph.Params{"parent": area.ID, "name": strings.TrimSpace(string(b))}, nil
}

func TestBulkImport(t *testing.T) {
	ctx := context.Background()
	store := testenv.MemStore(t)

	dir := directory.New(store)
	err := root(t, dir).BulkImport(ctx, strings.NewReader("Imported"))
	assert.ErrorIs(t, err, directory.ErrInvalidOperation)

	dir = directory.New(store, directory.WithImporter(importer{err: errors.New("bad sheet")}))
	err = root(t, dir).BulkImport(ctx, strings.NewReader("Imported"))
	assert.ErrorIs(t, err, directory.ErrValidation)

	dir = directory.New(store, directory.WithImporter(importer{}))
	library := at(t, dir, "Library")
	require.NoError(t, library.BulkImport(ctx, strings.NewReader("Rare Books\n")))
	children, err := library.Children(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rare Books"}, names(children))
}

func TestHandlesMarshalWithoutDirectory(t *testing.T) {
	_, dir := setup(t)
	b, err := json.Marshal(at(t, dir, "Library"))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.Equal(t, "Library", fields["name"])
	assert.NotContains(t, fields, "dir")
	assert.NotContains(t, fields, "is_root")
}

func TestStoreFailure(t *testing.T) {
	ctx := context.Background()
	dir := directory.New(testenv.MemStore(t))
	require.NoError(t, dir.Close(ctx))

	_, err := dir.Root(ctx)
	assert.ErrorIs(t, err, directory.ErrStoreFailure)
	assert.ErrorIs(t, err, graph.ErrClosed)
	assert.NotErrorIs(t, err, directory.ErrNotFound)
}

func TestMutationsAreLogged(t *testing.T) {
	ctx := context.Background()
	dir, logs := testenv.Directory(t)
	_, err := root(t, dir).NewChild(ctx, "Security", nil)
	require.NoError(t, err)
	assert.True(t, logs.Contains("INFO: area created"), logs.Lines())
	assert.True(t, logs.Contains("statement="+dirql.NameInsertChild), logs.Lines())
}
