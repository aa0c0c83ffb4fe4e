package directory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/surrealdb/surrealdir/internal/testenv"
	"github.com/surrealdb/surrealdir/pkg/directory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setup(t *testing.T) (context.Context, *directory.Directory) {
	t.Helper()
	dir, _ := testenv.Directory(t)
	return context.Background(), dir
}

func root(t *testing.T, dir *directory.Directory) *directory.AreaHandle {
	t.Helper()
	r, err := dir.Root(context.Background())
	require.NoError(t, err)
	return r
}

// at descends from the root along names.
func at(t *testing.T, dir *directory.Directory, names ...string) *directory.AreaHandle {
	t.Helper()
	a, err := root(t, dir).Descend(context.Background(), names...)
	require.NoError(t, err)
	return a
}

func names(areas []directory.Area) []string {
	out := make([]string, len(areas))
	for i, a := range areas {
		out[i] = a.Name
	}
	return out
}

func firstNames(contacts []directory.Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = c.Field("first_name")
	}
	return out
}

func intp(n int) *int { return &n }
