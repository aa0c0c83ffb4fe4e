package graph

import (
	"fmt"
	"sort"
)

// Node is a stored record: its identity and its properties. Props never
// contains the "id" key.
type Node struct {
	ID    ID             `json:"id" cbor:"id"`
	Props map[string]any `json:"props,omitempty" cbor:"props,omitempty"`
}

// Kind is the table the node belongs to.
func (n Node) Kind() string { return n.ID.Table() }

func (n Node) IsZero() bool { return n.ID.IsZero() }

// String returns the property as a string, or "" if absent.
func (n Node) String(key string) string {
	switch v := n.Props[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool reports whether the property is the boolean true.
func (n Node) Bool(key string) bool {
	v, _ := n.Props[key].(bool)
	return v
}

// Has reports whether the property is set.
func (n Node) Has(key string) bool {
	_, ok := n.Props[key]
	return ok
}

// Clone copies the property map.
func (n Node) Clone() Node {
	props := make(map[string]any, len(n.Props))
	for k, v := range n.Props {
		props[k] = v
	}
	return Node{ID: n.ID, Props: props}
}

// Strings returns the string-valued properties sorted by key.
func (n Node) Strings() map[string]string {
	out := make(map[string]string, len(n.Props))
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := n.Props[k].(string); ok {
			out[k] = s
		}
	}
	return out
}

// Row is one result row keyed by the statement's declared variables.
type Row map[string]any

// Node returns the node bound to name.
func (r Row) Node(name string) (Node, bool) {
	switch v := r[name].(type) {
	case Node:
		return v, !v.IsZero()
	case *Node:
		if v == nil {
			return Node{}, false
		}
		return *v, !v.IsZero()
	}
	return Node{}, false
}

// ID returns the identity bound to name whether it was returned as a
// node, an ID or a plain string.
func (r Row) ID(name string) ID {
	switch v := r[name].(type) {
	case ID:
		return v
	case Node:
		return v.ID
	case *Node:
		if v != nil {
			return v.ID
		}
	case string:
		return ID(v)
	}
	return ""
}

// Int returns the number bound to name, or 0.
func (r Row) Int(name string) int {
	switch v := r[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// String returns the string bound to name, or "".
func (r Row) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Rows returns a bound step result from a parameter set.
func (p Params) Rows(name string) []Row {
	switch v := p[name].(type) {
	case []Row:
		return v
	case Row:
		return []Row{v}
	}
	return nil
}
