package surrealstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/surrealdb/surrealdir/pkg/graph"
)

func TestRecordID(t *testing.T) {
	assert.Equal(t, models.NewRecordID("area", int64(42)), recordID("area:42"))
	assert.Equal(t, models.NewRecordID("area", "x7f"), recordID("area:x7f"))

	assert.Equal(t, graph.ID("contact:42"), fromRecordID(models.NewRecordID("contact", uint64(42))))
	assert.Equal(t, graph.ID("contact:ada"), fromRecordID(models.NewRecordID("contact", "ada")))
}

func TestEncodeParams(t *testing.T) {
	assert.Nil(t, encodeParams(nil))

	got := encodeParams(graph.Params{
		"area":   graph.ID("area:root"),
		"areas":  []graph.ID{"area:1", "area:b"},
		"fields": map[string]any{"name": "Housing", "parent": graph.ID("area:2")},
		"moved":  []graph.Row{{"contact": graph.Node{ID: "contact:c", Props: map[string]any{"first_name": "Ada"}}}},
		"depth":  3,
	})

	assert.Equal(t, models.NewRecordID("area", "root"), got["area"])
	assert.Equal(t, []models.RecordID{models.NewRecordID("area", int64(1)), models.NewRecordID("area", "b")}, got["areas"])
	assert.Equal(t, map[string]any{"name": "Housing", "parent": models.NewRecordID("area", int64(2))}, got["fields"])
	assert.Equal(t, []any{
		map[string]any{"contact": map[string]any{"id": models.NewRecordID("contact", "c"), "first_name": "Ada"}},
	}, got["moved"])
	assert.Equal(t, 3, got["depth"])
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{
			name: "record id",
			in:   models.NewRecordID("area", "a1"),
			want: graph.ID("area:a1"),
		},
		{
			name: "record",
			in:   map[string]any{"id": models.NewRecordID("area", "a1"), "name": "Housing", "note": models.None},
			want: graph.Node{ID: "area:a1", Props: map[string]any{"name": "Housing", "note": nil}},
		},
		{
			name: "row of records",
			in: map[any]any{
				"target":   map[string]any{"id": models.NewRecordID("area", "a1"), "name": "Housing"},
				"contacts": uint64(3),
			},
			want: map[string]any{
				"target":   graph.Node{ID: "area:a1", Props: map[string]any{"name": "Housing"}},
				"contacts": uint64(3),
			},
		},
		{
			name: "array",
			in:   []any{models.NewRecordID("area", "a1"), "x"},
			want: []any{graph.ID("area:a1"), "x"},
		},
		{
			name: "none",
			in:   models.None,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalise(tt.in))
		})
	}
}

func TestRows(t *testing.T) {
	assert.Nil(t, rows(nil))
	assert.Nil(t, rows("scalar"))

	single := rows(map[string]any{"contacts": 2})
	require.Len(t, single, 1)
	assert.Equal(t, 2, single[0].Int("contacts"))

	many := rows([]any{
		map[string]any{"root": graph.Node{ID: "area:r"}},
		"skipped",
		graph.Node{ID: "area:c", Props: map[string]any{"name": "Careers"}},
	})
	require.Len(t, many, 2)
	assert.Equal(t, graph.ID("area:r"), many[0].ID("root"))
	assert.Equal(t, graph.ID("area:c"), many[1].ID("id"))
	assert.Equal(t, "Careers", many[1].String("name"))
}

func TestRenderTransaction(t *testing.T) {
	text := RenderTransaction([]graph.Step{
		{Statement: graph.Statement{Name: "owner", Text: "\n  SELECT VALUE out FROM responsible_for WHERE in = $collection;\n"}, Bind: "owner"},
		{Statement: graph.Statement{Name: "create", Text: "CREATE collection;"}},
	})
	assert.Equal(t, "BEGIN TRANSACTION;\n"+
		"LET $s0 = {\nSELECT VALUE out FROM responsible_for WHERE in = $collection;\n};\n"+
		"LET $owner = $s0;\n"+
		"LET $s1 = {\nCREATE collection;\n};\n"+
		"RETURN [$s0, $s1];\n"+
		"COMMIT TRANSACTION;", text)
}
