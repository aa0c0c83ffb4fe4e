package directory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdir/pkg/directory"
)

func TestUpdateContact(t *testing.T) {
	ctx, dir := setup(t)
	head, _ := housing(t, dir)
	ada, err := dir.Contact(ctx, string(member(t, head, "Ada").ID))
	require.NoError(t, err)

	require.NoError(t, ada.Update(ctx, map[string]string{
		"phone":     "555 0199",
		"url":       "https://example.org/countess",
		"favourite": "engines",
	}))
	assert.Equal(t, "555 0199", ada.Field("phone"))
	assert.Equal(t, "Lovelace", ada.Field("last_name"))
	assert.Equal(t, "https://example.org/countess", ada.URL)
	assert.Empty(t, ada.Field("favourite"))
	assert.Equal(t, head.ID, ada.Collection)

	again, err := dir.Contact(ctx, string(ada.ID))
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/countess", again.URL)

	require.NoError(t, ada.Update(ctx, map[string]string{"url": ""}))
	assert.Empty(t, ada.URL)

	err = ada.Update(ctx, map[string]string{"email": "ada\x01@example.org"})
	assert.ErrorIs(t, err, directory.ErrValidation)
}

func TestRemoveContact(t *testing.T) {
	ctx, dir := setup(t)
	head, _ := housing(t, dir)
	ada, err := dir.Contact(ctx, string(member(t, head, "Ada").ID))
	require.NoError(t, err)

	res, err := ada.Remove(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.Collection)
	assert.Equal(t, head.ID, res.Collection.ID)
	assert.False(t, res.Success)

	_, err = dir.Contact(ctx, string(ada.ID))
	assert.ErrorIs(t, err, directory.ErrNotFound)
	contacts, err := head.Contacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alan"}, firstNames(contacts))

	alan, err := dir.Contact(ctx, string(contacts[0].ID))
	require.NoError(t, err)
	require.NoError(t, alan.Detach(ctx, head))
	res, err = alan.Remove(ctx)
	require.NoError(t, err)
	assert.Nil(t, res.Collection)
	assert.True(t, res.Success)
}

func TestDetachContactKeepsContact(t *testing.T) {
	ctx, dir := setup(t)
	head, _ := housing(t, dir)
	alan := member(t, head, "Alan")

	out, err := dir.Contacts().Detach(ctx, alan, head)
	require.NoError(t, err)
	assert.Equal(t, alan.ID, out.ID)
	assert.True(t, out.Collection.IsZero())

	found, err := dir.ContactSearch(ctx, "alan")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, alan.ID, found[0].ID)
}
