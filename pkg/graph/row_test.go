package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/surrealdb/surrealdir/pkg/graph"
)

func TestRowAccessors(t *testing.T) {
	area := graph.Node{ID: "area:a", Props: map[string]any{"name": "Housing", "is_root": true}}
	row := graph.Row{
		"target":   area,
		"parent":   graph.ID("area:root"),
		"raw":      "area:b",
		"contacts": uint64(3),
		"distance": float64(2),
		"position": "Coordinator",
	}

	n, ok := row.Node("target")
	assert.True(t, ok)
	assert.Equal(t, "Housing", n.String("name"))
	assert.True(t, n.Bool("is_root"))
	assert.Equal(t, "area", n.Kind())

	_, ok = row.Node("parent")
	assert.False(t, ok)
	_, ok = row.Node("missing")
	assert.False(t, ok)

	assert.Equal(t, graph.ID("area:a"), row.ID("target"))
	assert.Equal(t, graph.ID("area:root"), row.ID("parent"))
	assert.Equal(t, graph.ID("area:b"), row.ID("raw"))
	assert.Equal(t, graph.ID(""), row.ID("missing"))

	assert.Equal(t, 3, row.Int("contacts"))
	assert.Equal(t, 2, row.Int("distance"))
	assert.Equal(t, 0, row.Int("position"))
	assert.Equal(t, "Coordinator", row.String("position"))
}

func TestNodeCloneIsIndependent(t *testing.T) {
	n := graph.Node{ID: "contact:1", Props: map[string]any{"first_name": "Ada"}}
	c := n.Clone()
	c.Props["first_name"] = "Grace"
	assert.Equal(t, "Ada", n.String("first_name"))
}

func TestParamsWithCopies(t *testing.T) {
	p := graph.Params{"a": 1}
	q := p.With("b", 2)
	assert.NotContains(t, p, "b")
	assert.Equal(t, 1, q["a"])
	assert.Equal(t, 2, q["b"])
}
