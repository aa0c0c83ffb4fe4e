package surrealstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdir/internal/testenv"
	"github.com/surrealdb/surrealdir/pkg/directory"
	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

func TestDirectoryOnSurrealDB(t *testing.T) {
	ctx := context.Background()
	dir := directory.New(testenv.SurrealStore(t))

	root, err := dir.Init(ctx, "13MELB", nil)
	require.NoError(t, err)
	support, err := root.NewChild(ctx, "Student Support", nil)
	require.NoError(t, err)
	housing, err := support.NewChild(ctx, "Housing", nil)
	require.NoError(t, err)
	_, err = root.NewChild(ctx, "Library", nil)
	require.NoError(t, err)

	found, err := root.Descend(ctx, "Student Support", "Housing")
	require.NoError(t, err)
	assert.Equal(t, housing.ID, found.ID)

	children, err := root.Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Library", children[0].Name)

	path, err := housing.Path(ctx, nil)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, root.ID, path[0].ID)

	col, err := housing.NewCollection(ctx)
	require.NoError(t, err)
	ada, err := col.NewContact(ctx, directory.ContactFields{"first_name": "Ada", "last_name": "Lovelace", "position": "Housing Officer"})
	require.NoError(t, err)
	_, err = col.NewContact(ctx, directory.ContactFields{"first_name": "Alan", "last_name": "Turing"})
	require.NoError(t, err)

	paths, err := root.Search(ctx, "housing officer")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.NotNil(t, paths[0][len(paths[0])-1].MatchedContact)

	split, err := col.Split(ctx, ada)
	require.NoError(t, err)
	moved, err := split.Contacts(ctx)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, ada.ID, moved[0].ID)

	require.NoError(t, col.Merge(ctx, split))
	merged, err := col.Contacts(ctx)
	require.NoError(t, err)
	assert.Len(t, merged, 2)

	_, err = support.Remove(ctx)
	require.NoError(t, err)
	_, err = dir.Collection(ctx, string(col.ID))
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := testenv.SurrealStore(t)
	dir := directory.New(s)
	root, err := dir.Init(ctx, "13MELB", nil)
	require.NoError(t, err)
	child, err := root.NewChild(ctx, "Housing", nil)
	require.NoError(t, err)

	_, err = s.Transaction(ctx, []graph.Step{
		{Statement: dirql.DetachArea},
		{Statement: graph.Statement{Name: "fail", Text: `THROW "stop"`}},
	}, graph.Params{"area": child.ID})
	require.Error(t, err)

	parent, err := child.Parent(ctx)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, root.ID, parent.ID)
}
