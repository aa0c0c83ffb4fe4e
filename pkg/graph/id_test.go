package graph_test

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdir/pkg/graph"
)

func TestParseID(t *testing.T) {
	id, err := graph.ParseID("area:k7x")
	require.NoError(t, err)
	assert.Equal(t, "area", id.Table())
	assert.Equal(t, "k7x", id.Key())

	for _, bad := range []string{"", "area", ":k7x", "area:"} {
		_, err := graph.ParseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestIDKeyMayContainColon(t *testing.T) {
	id := graph.NewID("contact", "a:b")
	assert.Equal(t, "contact", id.Table())
	assert.Equal(t, "a:b", id.Key())
}

func TestIDCBOR(t *testing.T) {
	id := graph.NewID("collection", "c1")

	data, err := cbor.Marshal(id)
	require.NoError(t, err)

	var tag cbor.Tag
	require.NoError(t, cbor.Unmarshal(data, &tag))
	assert.Equal(t, uint64(graph.TagRecordID), tag.Number)
	assert.Equal(t, []any{"collection", "c1"}, tag.Content)

	var decoded graph.ID
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestIDCBORRejectsOtherTags(t *testing.T) {
	data, err := cbor.Marshal(cbor.Tag{Number: 9, Content: "x"})
	require.NoError(t, err)

	var decoded graph.ID
	assert.Error(t, cbor.Unmarshal(data, &decoded))
}
