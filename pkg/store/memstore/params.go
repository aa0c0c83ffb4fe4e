package memstore

import (
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdir/pkg/graph"
)

func idParam(p graph.Params, key string) (graph.ID, error) {
	switch v := p[key].(type) {
	case graph.ID:
		if !v.IsZero() {
			return v, nil
		}
	case string:
		if v != "" {
			return graph.ID(v), nil
		}
	case graph.Node:
		return v.ID, nil
	}
	return "", fmt.Errorf("missing record parameter %q", key)
}

func optionalID(p graph.Params, key string) graph.ID {
	id, _ := idParam(p, key)
	return id
}

func idsParam(p graph.Params, key string) []graph.ID {
	switch v := p[key].(type) {
	case []graph.ID:
		return v
	case []string:
		out := make([]graph.ID, len(v))
		for i, s := range v {
			out[i] = graph.ID(s)
		}
		return out
	}
	return nil
}

func stringsParam(p graph.Params, key string) []string {
	v, _ := p[key].([]string)
	return v
}

func stringParam(p graph.Params, key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

func intParam(p graph.Params, key string, def int) int {
	if v, ok := p[key].(int); ok {
		return v
	}
	return def
}

func fieldsParam(p graph.Params, key string) map[string]any {
	switch v := p[key].(type) {
	case map[string]any:
		return v
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out
	}
	return nil
}

// boundID reads the id under column from the first row bound as key.
func boundID(p graph.Params, key, column string) (graph.ID, error) {
	rows := p.Rows(key)
	if len(rows) == 0 || rows[0].ID(column).IsZero() {
		return "", fmt.Errorf("%w: nothing bound to %q", ErrNoRecord, key)
	}
	return rows[0].ID(column), nil
}

func lower(s string) string { return strings.ToLower(s) }
