package memstore

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

const fixtureYAML = `
root:
  name: 13MELB
  children:
    - name: Student Support
      children:
        - name: Housing
          collections:
            - key: current
              primary: true
              contacts:
                - first_name: Ada
                  last_name: Lovelace
                  position: Housing Officer
                  url: https://example.org/ada
                  days: [mon, tue]
                - first_name: Alan
                  last_name: Turing
                  position: Manager
              successors:
                - to: next
                  note: restructure
            - key: next
        - name: Careers
    - name: Library
orphans:
  - name: Archive
`

func seeded(t *testing.T) *Store {
	t.Helper()
	f, err := ParseFixture(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	s := New(WithKeyFunc(SequentialKeys()))
	require.NoError(t, s.Seed(f))
	return s
}

func exec(t *testing.T, s *Store, stmt graph.Statement, p graph.Params) []graph.Row {
	t.Helper()
	rows, err := s.Execute(context.Background(), stmt, p)
	require.NoError(t, err)
	return rows
}

func root(t *testing.T, s *Store) graph.Node {
	t.Helper()
	rows := exec(t, s, dirql.RootArea, nil)
	require.Len(t, rows, 1)
	n, ok := rows[0].Node("root")
	require.True(t, ok)
	return n
}

func find(t *testing.T, s *Store, names ...string) graph.Node {
	t.Helper()
	p := dirql.Indexed(graph.Params{"area": root(t, s).ID, "names": names}, "name", names)
	rows := exec(t, s, dirql.Descend(len(names)), p)
	require.Len(t, rows, 1)
	n, _ := rows[0].Node("target")
	return n
}

func TestRootAndOrphans(t *testing.T) {
	s := seeded(t)
	assert.Equal(t, "13MELB", root(t, s).String("name"))

	rows := exec(t, s, dirql.OrphanAreas, nil)
	require.Len(t, rows, 1)
	orphan, _ := rows[0].Node("orphan")
	assert.Equal(t, "Archive", orphan.String("name"))
}

func TestChildrenSortedByName(t *testing.T) {
	s := seeded(t)
	rows := exec(t, s, dirql.Children, graph.Params{"area": find(t, s, "Student Support").ID})
	var names []string
	for _, r := range rows {
		n, _ := r.Node("child")
		names = append(names, n.String("name"))
	}
	assert.Equal(t, []string{"Careers", "Housing"}, names)
}

func TestSubtreeDepthOrder(t *testing.T) {
	s := seeded(t)
	r := root(t, s)
	rows := exec(t, s, dirql.Subtree(-1), graph.Params{"area": r.ID, "depth": -1})
	require.Len(t, rows, 4)
	assert.Equal(t, 1, rows[0].Int("depth"))
	assert.Equal(t, r.ID, rows[0].ID("parent"))
	last, _ := rows[3].Node("child")
	assert.Equal(t, "Housing", last.String("name"))
	assert.Equal(t, 2, rows[3].Int("depth"))

	rows = exec(t, s, dirql.Subtree(1), graph.Params{"area": r.ID, "depth": 1})
	assert.Len(t, rows, 2)
}

func TestAncestorsTaggedWithDistance(t *testing.T) {
	s := seeded(t)
	housing := find(t, s, "Student Support", "Housing")
	rows := exec(t, s, dirql.Ancestors, graph.Params{"areas": []graph.ID{housing.ID}})
	require.Len(t, rows, 3)
	for i, r := range rows {
		assert.Equal(t, i, r.Int("distance"))
		assert.Equal(t, housing.ID, r.ID("target"))
	}
	top, _ := rows[2].Node("node")
	assert.Equal(t, "13MELB", top.String("name"))
}

func TestAttachRejectsSecondParent(t *testing.T) {
	s := seeded(t)
	housing := find(t, s, "Student Support", "Housing")
	_, err := s.Execute(context.Background(), dirql.AttachArea, graph.Params{"area": housing.ID, "parent": root(t, s).ID})
	var serr *graph.StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, dirql.NameAttachArea, serr.Statement)
}

func TestRemoveAreaCascades(t *testing.T) {
	s := seeded(t)
	support := find(t, s, "Student Support")
	housing := find(t, s, "Student Support", "Housing")
	heads := exec(t, s, dirql.HeadCollections, graph.Params{"area": housing.ID})
	require.Len(t, heads, 1)
	collection := heads[0].ID("collection")

	rows := exec(t, s, dirql.RemoveArea, graph.Params{"area": support.ID})
	require.Len(t, rows, 1)
	assert.Equal(t, root(t, s).ID, rows[0].ID("parent"))

	assert.Empty(t, exec(t, s, dirql.Node, graph.Params{"id": housing.ID}))
	assert.Empty(t, exec(t, s, dirql.Node, graph.Params{"id": collection}))
	for _, e := range s.state.edges {
		assert.NotEqual(t, dirql.EdgeHasURL, e.ID.Table())
		assert.NotEqual(t, dirql.EdgeOnlyWorks, e.ID.Table())
		assert.NotEqual(t, dirql.EdgeComesBefore, e.ID.Table())
	}
}

func TestTransactionRollsBack(t *testing.T) {
	s := seeded(t)
	housing := find(t, s, "Student Support", "Housing")
	before := len(s.state.nodes)

	steps := []graph.Step{
		{Statement: dirql.InsertChild},
		{Statement: dirql.AttachArea},
	}
	_, err := s.Transaction(context.Background(), steps, graph.Params{
		"parent": housing.ID, "name": "Temp", "area": housing.ID,
	})
	require.Error(t, err)
	assert.Len(t, s.state.nodes, before)
	assert.Len(t, exec(t, s, dirql.Children, graph.Params{"area": housing.ID}), 0)
}

func TestTransactionBindsSteps(t *testing.T) {
	s := seeded(t)
	housing := find(t, s, "Student Support", "Housing")
	heads := exec(t, s, dirql.HeadCollections, graph.Params{"area": housing.ID})
	source := heads[0].ID("collection")
	members := exec(t, s, dirql.CollectionMembers, graph.Params{"collection": source})
	require.Len(t, members, 2)

	owner := exec(t, s, dirql.CollectionOwner, graph.Params{"collection": source})
	require.Len(t, owner, 1)
	assert.Equal(t, housing.ID, owner[0].ID("area"))

	results, err := s.Transaction(context.Background(), []graph.Step{
		{Statement: dirql.DetachMembers, Bind: dirql.BindMoved},
		{Statement: dirql.CreateFor, Bind: dirql.BindCreated},
		{Statement: dirql.AttachToCreated},
	}, graph.Params{"collection": source, "owner": housing.ID, "contacts": []graph.ID{members[0].ID("contact")}})
	require.NoError(t, err)
	created := results[2][0].ID("collection")

	assert.Len(t, exec(t, s, dirql.CollectionMembers, graph.Params{"collection": source}), 1)
	moved := exec(t, s, dirql.CollectionMembers, graph.Params{"collection": created})
	require.Len(t, moved, 1)
	assert.Equal(t, members[0].ID("contact"), moved[0].ID("contact"))
}

func TestCollectionMembersOrderAndURL(t *testing.T) {
	s := seeded(t)
	housing := find(t, s, "Student Support", "Housing")
	rows := exec(t, s, dirql.ContactsByArea, graph.Params{"area": housing.ID})

	var collections, members, links int
	for _, r := range rows {
		switch {
		case r["successor"] != nil:
			links++
			assert.Equal(t, "restructure", r["note"])
		case r["contact"] != nil:
			members++
		default:
			collections++
		}
	}
	assert.Equal(t, 2, collections)
	assert.Equal(t, 2, members)
	assert.Equal(t, 1, links)

	heads := exec(t, s, dirql.HeadCollections, graph.Params{"area": housing.ID})
	m := exec(t, s, dirql.CollectionMembers, graph.Params{"collection": heads[0].ID("collection")})
	first, _ := m[0].Node("contact")
	assert.Equal(t, "Lovelace", first.String("last_name"))
	u, ok := m[0].Node("url")
	require.True(t, ok)
	assert.Equal(t, "https://example.org/ada", u.String("address"))
}

func TestSearchStatements(t *testing.T) {
	s := seeded(t)
	r := root(t, s)

	rows := exec(t, s, dirql.SearchNames, graph.Params{"area": r.ID, "pattern": `(^|\W)(hous)`})
	require.Len(t, rows, 1)
	target, _ := rows[0].Node("target")
	assert.Equal(t, "Housing", target.String("name"))

	rows = exec(t, s, dirql.SearchPositions, graph.Params{"area": r.ID, "prefix": "housing off"})
	require.Len(t, rows, 1)
	contact, _ := rows[0].Node("contact")
	assert.Equal(t, "Ada", contact.String("first_name"))

	rows = exec(t, s, dirql.ContactCount, graph.Params{"area": r.ID})
	assert.Equal(t, 2, rows[0].Int("contacts"))
}

func TestContactSearchTermsAreANDed(t *testing.T) {
	s := seeded(t)
	p := graph.Params{"terms": []string{"a", "lov"}}
	rows := exec(t, s, dirql.ContactSearch(2), dirql.Indexed(p, "term", []string{"a", "lov"}))
	require.Len(t, rows, 1)
	n, _ := rows[0].Node("contact")
	assert.Equal(t, "Ada", n.String("first_name"))

	rows = exec(t, s, dirql.ContactSearch(0), graph.Params{})
	assert.Len(t, rows, 2)
}

func TestUnknownStatementAndClose(t *testing.T) {
	s := New()
	_, err := s.Execute(context.Background(), graph.Statement{Name: "nope"}, nil)
	assert.ErrorIs(t, err, graph.ErrUnknownStatement)

	require.NoError(t, s.Close(context.Background()))
	_, err = s.Execute(context.Background(), dirql.RootArea, nil)
	assert.ErrorIs(t, err, graph.ErrClosed)
	var se *graph.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, dirql.NameRootArea, se.Statement)
}

func TestRootAreaIsProtected(t *testing.T) {
	s := seeded(t)
	r := root(t, s)

	for _, stmt := range []graph.Statement{dirql.RemoveArea, dirql.DetachArea} {
		_, err := s.Execute(context.Background(), stmt, graph.Params{"area": r.ID})
		assert.ErrorIs(t, err, ErrRootArea, stmt.Name)
	}
	assert.Equal(t, r.ID, root(t, s).ID)
	assert.Len(t, exec(t, s, dirql.Children, graph.Params{"area": r.ID}), 2)
}

func TestCanceledContext(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Execute(ctx, dirql.RootArea, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := seeded(t)
	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	restored := New(WithKeyFunc(func() string { return "x" }))
	require.NoError(t, restored.Load(&buf))
	assert.Len(t, restored.state.nodes, len(s.state.nodes))
	assert.Len(t, restored.state.edges, len(s.state.edges))

	housing := find(t, restored, "Student Support", "Housing")
	assert.Equal(t, find(t, s, "Student Support", "Housing").ID, housing.ID)
	heads := exec(t, restored, dirql.HeadCollections, graph.Params{"area": housing.ID})
	require.Len(t, heads, 1)
	c, _ := heads[0].Node("collection")
	assert.True(t, c.Bool("primary"))
}

func TestParseFixtureErrors(t *testing.T) {
	_, err := ParseFixture(strings.NewReader("orphans: []\n"))
	assert.Error(t, err)

	_, err = ParseFixture(strings.NewReader("root:\n  name: x\n  colour: red\n"))
	assert.Error(t, err)

	f, err := ParseFixture(strings.NewReader("root:\n  name: x\n  collections:\n    - successors: [{to: missing}]\n"))
	require.NoError(t, err)
	assert.Error(t, New().Seed(f))
}
