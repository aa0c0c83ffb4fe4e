package directory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdir/pkg/directory"
)

func pathNames(paths [][]directory.Area) [][]string {
	out := make([][]string, len(paths))
	for i, p := range paths {
		out[i] = names(p)
	}
	return out
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"student", "housing"}, directory.Terms("  Student\tHOUSING "))
	assert.Empty(t, directory.Terms("   "))
}

func TestSearchRanksShortestPathFirst(t *testing.T) {
	ctx, dir := setup(t)
	paths, err := root(t, dir).Search(ctx, "hous")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Student Support", "Housing"},
		{"Student Support", "Careers", "Housing Careers Fair"},
	}, pathNames(paths))

	leaf := paths[0][len(paths[0])-1]
	require.NotNil(t, leaf.MatchedContact, "position match on Housing")
	assert.Equal(t, "Ada", leaf.MatchedContact.Field("first_name"))
}

func TestSearchRanksScoreAboveLength(t *testing.T) {
	ctx, dir := setup(t)
	hub, err := root(t, dir).NewChild(ctx, "Housing Hub", nil)
	require.NoError(t, err)
	annex, err := hub.NewChild(ctx, "Annex", nil)
	require.NoError(t, err)
	_, err = annex.NewChild(ctx, "Housing Desk", nil)
	require.NoError(t, err)

	paths, err := root(t, dir).Search(ctx, "housing")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Housing Hub", "Annex", "Housing Desk"},
		{"Student Support", "Housing"},
		{"Student Support", "Careers", "Housing Careers Fair"},
	}, pathNames(paths))
}

func TestSearchRequiresEveryTerm(t *testing.T) {
	ctx, dir := setup(t)
	paths, err := root(t, dir).Search(ctx, "housing careers")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Student Support", "Careers", "Housing Careers Fair"}}, pathNames(paths))
}

func TestSearchDropsPathsContainedInOthers(t *testing.T) {
	ctx, dir := setup(t)
	paths, err := root(t, dir).Search(ctx, "student housing")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Student Support", "Housing"},
		{"Student Support", "Careers", "Housing Careers Fair"},
	}, pathNames(paths))
	assert.Equal(t, 3, paths[0][0].DescendantContacts, "count carried from the dropped Student Support match")
}

func TestSearchKeepsMatchedContactOfDroppedPath(t *testing.T) {
	ctx, dir := setup(t)
	_, err := at(t, dir, "Student Support", "Housing").NewChild(ctx, "Adviser Desk", nil)
	require.NoError(t, err)

	paths, err := root(t, dir).Search(ctx, "student adviser")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"Student Support", "Housing", "Adviser Desk"}}, pathNames(paths))
	require.NotNil(t, paths[0][0].MatchedContact)
	assert.Equal(t, "Grace", paths[0][0].MatchedContact.Field("first_name"))
}

func TestSearchBelowSubtree(t *testing.T) {
	ctx, dir := setup(t)
	paths, err := at(t, dir, "Student Support").Search(ctx, "fair")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Careers", "Housing Careers Fair"}}, pathNames(paths))

	paths, err = at(t, dir, "Library").Search(ctx, "housing")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestSearchEmptyQuery(t *testing.T) {
	ctx, dir := setup(t)
	paths, err := root(t, dir).Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestSearchEscapesRegexp(t *testing.T) {
	ctx, dir := setup(t)
	_, err := root(t, dir).NewChild(ctx, "C++ (Labs)", nil)
	require.NoError(t, err)

	paths, err := root(t, dir).Search(ctx, "c++")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"C++ (Labs)"}}, pathNames(paths))
}
