package surrealstore

import (
	"fmt"
	"strconv"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/surrealdb/surrealdir/pkg/graph"
)

// recordID converts an id to the SDK type. Numeric keys become integer
// record ids.
func recordID(id graph.ID) models.RecordID {
	key := id.Key()
	if n, err := strconv.ParseInt(key, 10, 64); err == nil {
		return models.NewRecordID(id.Table(), n)
	}
	return models.NewRecordID(id.Table(), key)
}

func fromRecordID(r models.RecordID) graph.ID {
	return graph.NewID(r.Table, fmt.Sprint(r.ID))
}

func encodeParams(p graph.Params) map[string]any {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = encode(v)
	}
	return out
}

func encode(v any) any {
	switch x := v.(type) {
	case graph.ID:
		return recordID(x)
	case []graph.ID:
		ids := make([]models.RecordID, len(x))
		for i, id := range x {
			ids[i] = recordID(id)
		}
		return ids
	case graph.Node:
		m := make(map[string]any, len(x.Props)+1)
		for k, pv := range x.Props {
			m[k] = encode(pv)
		}
		m["id"] = recordID(x.ID)
		return m
	case *graph.Node:
		if x == nil {
			return nil
		}
		return encode(*x)
	case graph.Row:
		return encode(map[string]any(x))
	case []graph.Row:
		rows := make([]any, len(x))
		for i, r := range x {
			rows[i] = encode(r)
		}
		return rows
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, mv := range x {
			m[k] = encode(mv)
		}
		return m
	}
	return v
}

// normalise turns decoded SurrealDB values into graph values: record ids
// become graph.ID and objects carrying a record id become graph.Node.
func normalise(v any) any {
	switch x := v.(type) {
	case models.RecordID:
		return fromRecordID(x)
	case *models.RecordID:
		if x == nil {
			return nil
		}
		return fromRecordID(*x)
	case map[string]any:
		return object(x)
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, mv := range x {
			m[fmt.Sprint(k)] = mv
		}
		return object(m)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalise(e)
		}
		return out
	case models.CustomNil:
		return nil
	}
	return v
}

func object(m map[string]any) any {
	props := make(map[string]any, len(m))
	for k, v := range m {
		props[k] = normalise(v)
	}
	id, ok := props["id"].(graph.ID)
	if !ok {
		return props
	}
	delete(props, "id")
	return graph.Node{ID: id, Props: props}
}

// rows shapes a statement value as result rows.
func rows(v any) []graph.Row {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]graph.Row, 0, len(x))
		for _, e := range x {
			if r, ok := row(e); ok {
				out = append(out, r)
			}
		}
		return out
	}
	if r, ok := row(v); ok {
		return []graph.Row{r}
	}
	return nil
}

// row reads one row. A record returned as a whole keeps its fields as
// the row variables.
func row(v any) (graph.Row, bool) {
	switch x := v.(type) {
	case map[string]any:
		return graph.Row(x), true
	case graph.Node:
		r := graph.Row{"id": x.ID}
		for k, pv := range x.Props {
			r[k] = pv
		}
		return r, true
	}
	return nil, false
}
