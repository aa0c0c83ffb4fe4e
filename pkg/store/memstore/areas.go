package memstore

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

// childAreas returns the children of id ordered by name then id.
func (tx *txn) childAreas(id graph.ID) []graph.Node {
	var out []graph.Node
	for _, e := range tx.from(dirql.EdgeParentOf, id) {
		if n, ok := tx.state.nodes[e.Out]; ok {
			out = append(out, n.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].String("name"), out[j].String("name")
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (tx *txn) parentOf(id graph.ID) (graph.Node, bool) {
	for _, e := range tx.to(dirql.EdgeParentOf, id) {
		if n, ok := tx.state.nodes[e.In]; ok {
			return n.Clone(), true
		}
	}
	return graph.Node{}, false
}

type level struct {
	parent graph.ID
	depth  int
	child  graph.Node
}

// below walks the areas strictly below id breadth first. maxDepth < 0
// means unbounded.
func (tx *txn) below(id graph.ID, maxDepth int) []level {
	seen := map[graph.ID]bool{id: true}
	var out []level
	frontier := []graph.ID{id}
	for depth := 1; len(frontier) > 0 && (maxDepth < 0 || depth <= maxDepth); depth++ {
		var next []level
		for _, p := range frontier {
			for _, c := range tx.childAreas(p) {
				if seen[c.ID] {
					continue
				}
				seen[c.ID] = true
				next = append(next, level{parent: p, depth: depth, child: c})
			}
		}
		sort.SliceStable(next, func(i, j int) bool {
			return next[i].child.String("name") < next[j].child.String("name")
		})
		frontier = frontier[:0]
		for _, l := range next {
			frontier = append(frontier, l.child.ID)
		}
		out = append(out, next...)
	}
	return out
}

// contactsBelow counts contacts in collections owned by areas strictly
// below id.
func (tx *txn) contactsBelow(id graph.ID) int {
	n := 0
	for _, l := range tx.below(id, -1) {
		for _, c := range tx.collectionsOf(l.child.ID) {
			n += len(tx.to(dirql.EdgeInCollection, c))
		}
	}
	return n
}

func rootArea(tx *txn, _ graph.Params) ([]graph.Row, error) {
	var roots []graph.Node
	for id, n := range tx.state.nodes {
		if id.Table() == dirql.TableArea && n.Bool("is_root") {
			roots = append(roots, n)
		}
	}
	if len(roots) == 0 {
		return nil, nil
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })
	return []graph.Row{{"root": roots[0].Clone()}}, nil
}

func orphanAreas(tx *txn, _ graph.Params) ([]graph.Row, error) {
	var out []graph.Node
	for id, n := range tx.state.nodes {
		if id.Table() != dirql.TableArea || n.Bool("is_root") {
			continue
		}
		if _, ok := tx.parentOf(id); !ok {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].String("name"), out[j].String("name")
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	rows := make([]graph.Row, len(out))
	for i, n := range out {
		rows[i] = graph.Row{"orphan": n}
	}
	return rows, nil
}

func descend(tx *txn, p graph.Params) ([]graph.Row, error) {
	start, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	n, ok := tx.state.nodes[start]
	if !ok {
		return nil, nil
	}
	current := []graph.Node{n.Clone()}
	for _, name := range stringsParam(p, "names") {
		var next []graph.Node
		for _, c := range current {
			for _, child := range tx.childAreas(c.ID) {
				if child.String("name") == name {
					next = append(next, child)
				}
			}
		}
		current = next
	}
	rows := make([]graph.Row, len(current))
	for i, c := range current {
		rows[i] = graph.Row{"target": c}
	}
	return rows, nil
}

func parent(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	if n, ok := tx.parentOf(id); ok {
		return []graph.Row{{"parent": n}}, nil
	}
	return nil, nil
}

func children(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	var rows []graph.Row
	for _, c := range tx.childAreas(id) {
		rows = append(rows, graph.Row{"child": c})
	}
	return rows, nil
}

func subtree(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	var rows []graph.Row
	for _, l := range tx.below(id, intParam(p, "depth", -1)) {
		rows = append(rows, graph.Row{"parent": l.parent, "depth": l.depth, "child": l.child})
	}
	return rows, nil
}

func ancestors(tx *txn, p graph.Params) ([]graph.Row, error) {
	var rows []graph.Row
	for _, target := range idsParam(p, "areas") {
		n, ok := tx.state.nodes[target]
		if !ok {
			continue
		}
		seen := map[graph.ID]bool{}
		for distance := 0; ok && !seen[n.ID]; distance++ {
			seen[n.ID] = true
			rows = append(rows, graph.Row{"target": target, "node": n.Clone(), "distance": distance})
			n, ok = tx.parentOf(n.ID)
		}
	}
	return rows, nil
}

func createRoot(tx *txn, p graph.Params) ([]graph.Row, error) {
	if existing, _ := rootArea(tx, p); len(existing) > 0 {
		return nil, errors.New("root area already exists")
	}
	name, _ := stringParam(p, "name")
	props := map[string]any{"name": name, "is_root": true}
	if note, ok := stringParam(p, "note"); ok {
		props["note"] = note
	}
	return []graph.Row{{"root": tx.create(dirql.TableArea, props)}}, nil
}

func insertChild(tx *txn, p graph.Params) ([]graph.Row, error) {
	parentID, err := idParam(p, "parent")
	if err != nil {
		return nil, err
	}
	if _, err := tx.node(parentID, dirql.TableArea); err != nil {
		return nil, err
	}
	name, _ := stringParam(p, "name")
	props := map[string]any{"name": name}
	if note, ok := stringParam(p, "note"); ok {
		props["note"] = note
	}
	created := tx.create(dirql.TableArea, props)
	tx.relate(dirql.EdgeParentOf, parentID, created.ID, nil)
	return []graph.Row{{"area": created}}, nil
}

func detachArea(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	if n, ok := tx.state.nodes[id]; ok && n.Bool("is_root") {
		return nil, ErrRootArea
	}
	var rows []graph.Row
	edges := tx.to(dirql.EdgeParentOf, id)
	for _, e := range edges {
		if n, ok := tx.state.nodes[e.In]; ok {
			rows = append(rows, graph.Row{"parent": n.Clone()})
		}
	}
	tx.unlink(edges)
	return rows, nil
}

func attachArea(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	parentID, err := idParam(p, "parent")
	if err != nil {
		return nil, err
	}
	area, err := tx.node(id, dirql.TableArea)
	if err != nil {
		return nil, err
	}
	if _, err := tx.node(parentID, dirql.TableArea); err != nil {
		return nil, err
	}
	if len(tx.to(dirql.EdgeParentOf, id)) > 0 {
		return nil, fmt.Errorf("index single_parent already contains %s", id)
	}
	tx.relate(dirql.EdgeParentOf, parentID, id, nil)
	return []graph.Row{{"area": area}}, nil
}

func removeArea(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	area, err := tx.node(id, dirql.TableArea)
	if err != nil {
		return nil, err
	}
	if area.Bool("is_root") {
		return nil, ErrRootArea
	}
	var rows []graph.Row
	if n, ok := tx.parentOf(id); ok {
		rows = append(rows, graph.Row{"parent": n})
	}

	areas := []graph.ID{id}
	for _, l := range tx.below(id, -1) {
		areas = append(areas, l.child.ID)
	}
	for _, a := range areas {
		for _, c := range tx.collectionsOf(a) {
			for _, m := range tx.to(dirql.EdgeInCollection, c) {
				tx.unlink(tx.from(dirql.EdgeHasURL, m.In))
				tx.unlink(tx.from(dirql.EdgeOnlyWorks, m.In))
			}
			tx.deleteNode(c)
		}
	}
	for _, a := range areas {
		tx.deleteNode(a)
	}
	return rows, nil
}

func updateArea(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	n, err := tx.merge(id, dirql.TableArea, fieldsParam(p, "fields"))
	if err != nil {
		return nil, err
	}
	return []graph.Row{{"area": n}}, nil
}

// merge sets fields on a stored node and returns the updated copy.
func (tx *txn) merge(id graph.ID, table string, fields map[string]any) (graph.Node, error) {
	n, err := tx.node(id, table)
	if err != nil {
		return graph.Node{}, err
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		if v == nil {
			delete(n.Props, k)
		} else {
			n.Props[k] = v
		}
	}
	tx.state.nodes[id] = n
	return n.Clone(), nil
}

func contactCount(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	return []graph.Row{{"contacts": tx.contactsBelow(id)}}, nil
}

func searchNames(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	pattern, _ := stringParam(p, "pattern")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	var rows []graph.Row
	for _, l := range tx.below(id, -1) {
		if re.MatchString(strings.ToLower(l.child.String("name"))) {
			rows = append(rows, graph.Row{"target": l.child, "contacts": tx.contactsBelow(l.child.ID)})
		}
	}
	return rows, nil
}

func searchPositions(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	prefix, _ := stringParam(p, "prefix")
	var rows []graph.Row
	for _, l := range tx.below(id, -1) {
		count := -1
		for _, c := range tx.collectionsOf(l.child.ID) {
			for _, m := range tx.to(dirql.EdgeInCollection, c) {
				contact, ok := tx.state.nodes[m.In]
				if !ok || !strings.HasPrefix(lower(contact.String("position")), prefix) {
					continue
				}
				if count < 0 {
					count = tx.contactsBelow(l.child.ID)
				}
				rows = append(rows, graph.Row{"target": l.child, "contact": contact.Clone(), "contacts": count})
			}
		}
	}
	return rows, nil
}
