package memstore

import (
	"sort"
	"strings"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

// collectionsOf returns the collections responsible for area in creation
// order.
func (tx *txn) collectionsOf(area graph.ID) []graph.ID {
	var out []graph.ID
	for _, e := range tx.to(dirql.EdgeResponsibleFor, area) {
		out = append(out, e.In)
	}
	return out
}

// memberRows returns a (contact, url) row per member of collection
// ordered by last name then first name.
func (tx *txn) memberRows(collection graph.ID) []graph.Row {
	var members []graph.Node
	for _, e := range tx.to(dirql.EdgeInCollection, collection) {
		if n, ok := tx.state.nodes[e.In]; ok {
			members = append(members, n.Clone())
		}
	}
	sortContacts(members)
	rows := make([]graph.Row, len(members))
	for i, m := range members {
		rows[i] = graph.Row{"contact": m, "url": tx.urlOf(m.ID)}
	}
	return rows
}

func sortContacts(nodes []graph.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if c := strings.Compare(a.String("last_name"), b.String("last_name")); c != 0 {
			return c < 0
		}
		if c := strings.Compare(a.String("first_name"), b.String("first_name")); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

func (tx *txn) newCollectionFor(area graph.ID) (graph.Node, error) {
	if _, err := tx.node(area, dirql.TableArea); err != nil {
		return graph.Node{}, err
	}
	created := tx.create(dirql.TableCollection, map[string]any{"primary": false})
	tx.relate(dirql.EdgeResponsibleFor, created.ID, area, nil)
	return created, nil
}

func (tx *txn) attach(collection graph.ID, moved []graph.Row) ([]graph.Row, error) {
	c, err := tx.node(collection, dirql.TableCollection)
	if err != nil {
		return nil, err
	}
	for _, m := range moved {
		contact := m.ID("contact")
		if _, err := tx.node(contact, dirql.TableContact); err != nil {
			return nil, err
		}
		tx.relate(dirql.EdgeInCollection, contact, collection, nil)
	}
	return []graph.Row{{"collection": c}}, nil
}

func collectionMembers(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "collection")
	if err != nil {
		return nil, err
	}
	return tx.memberRows(id), nil
}

func togglePrimary(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "collection")
	if err != nil {
		return nil, err
	}
	n, err := tx.node(id, dirql.TableCollection)
	if err != nil {
		return nil, err
	}
	n, err = tx.merge(id, dirql.TableCollection, map[string]any{"primary": !n.Bool("primary")})
	if err != nil {
		return nil, err
	}
	return []graph.Row{{"collection": n}}, nil
}

func successors(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "collection")
	if err != nil {
		return nil, err
	}
	var rows []graph.Row
	for _, e := range tx.from(dirql.EdgeComesBefore, id) {
		if n, ok := tx.state.nodes[e.Out]; ok {
			rows = append(rows, graph.Row{"successor": n.Clone(), "note": e.Props["note"]})
		}
	}
	return rows, nil
}

func addSuccessor(tx *txn, p graph.Params) ([]graph.Row, error) {
	pred, err := idParam(p, "pred")
	if err != nil {
		return nil, err
	}
	succ, err := idParam(p, "succ")
	if err != nil {
		return nil, err
	}
	predNode, err := tx.node(pred, dirql.TableCollection)
	if err != nil {
		return nil, err
	}
	if _, err := tx.node(succ, dirql.TableCollection); err != nil {
		return nil, err
	}
	note, _ := stringParam(p, "note")
	tx.relate(dirql.EdgeComesBefore, pred, succ, map[string]any{"note": note})
	return []graph.Row{{"pred": predNode}}, nil
}

func removeSuccessor(tx *txn, p graph.Params) ([]graph.Row, error) {
	pred, err := idParam(p, "pred")
	if err != nil {
		return nil, err
	}
	succ, err := idParam(p, "succ")
	if err != nil {
		return nil, err
	}
	predNode, err := tx.node(pred, dirql.TableCollection)
	if err != nil {
		return nil, err
	}
	tx.unlink(tx.match(dirql.EdgeComesBefore, func(e edge) bool { return e.In == pred && e.Out == succ }))
	return []graph.Row{{"pred": predNode}}, nil
}

func collectionOwner(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "collection")
	if err != nil {
		return nil, err
	}
	var rows []graph.Row
	for _, e := range tx.from(dirql.EdgeResponsibleFor, id) {
		if n, ok := tx.state.nodes[e.Out]; ok {
			rows = append(rows, graph.Row{"area": n.Clone()})
		}
	}
	return rows, nil
}

func detachMembers(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "collection")
	if err != nil {
		return nil, err
	}
	wanted := map[graph.ID]bool{}
	for _, c := range idsParam(p, "contacts") {
		wanted[c] = true
	}
	edges := tx.match(dirql.EdgeInCollection, func(e edge) bool { return e.Out == id && wanted[e.In] })
	var rows []graph.Row
	for _, e := range edges {
		if n, ok := tx.state.nodes[e.In]; ok {
			rows = append(rows, graph.Row{"contact": n.Clone()})
		}
	}
	tx.unlink(edges)
	return rows, nil
}

func createFor(tx *txn, p graph.Params) ([]graph.Row, error) {
	owner, err := idParam(p, "owner")
	if err != nil {
		return nil, err
	}
	created, err := tx.newCollectionFor(owner)
	if err != nil {
		return nil, err
	}
	return []graph.Row{{"collection": created}}, nil
}

func attachMembers(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "collection")
	if err != nil {
		return nil, err
	}
	return tx.attach(id, p.Rows(dirql.BindMoved))
}

func attachToCreated(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := boundID(p, dirql.BindCreated, "collection")
	if err != nil {
		return nil, err
	}
	return tx.attach(id, p.Rows(dirql.BindMoved))
}

func dismantle(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "source")
	if err != nil {
		return nil, err
	}
	if _, err := tx.node(id, dirql.TableCollection); err != nil {
		return nil, err
	}
	var rows []graph.Row
	for _, e := range tx.to(dirql.EdgeInCollection, id) {
		if n, ok := tx.state.nodes[e.In]; ok {
			rows = append(rows, graph.Row{"contact": n.Clone()})
		}
	}
	tx.deleteNode(id)
	return rows, nil
}

func newCollection(tx *txn, p graph.Params) ([]graph.Row, error) {
	area, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	created, err := tx.newCollectionFor(area)
	if err != nil {
		return nil, err
	}
	return []graph.Row{{"collection": created}}, nil
}

func headCollections(tx *txn, p graph.Params) ([]graph.Row, error) {
	area, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	var rows []graph.Row
	for _, c := range tx.collectionsOf(area) {
		if len(tx.to(dirql.EdgeComesBefore, c)) > 0 {
			continue
		}
		if n, ok := tx.state.nodes[c]; ok {
			rows = append(rows, graph.Row{"collection": n.Clone()})
		}
	}
	return rows, nil
}

func contactsByArea(tx *txn, p graph.Params) ([]graph.Row, error) {
	area, err := idParam(p, "area")
	if err != nil {
		return nil, err
	}
	collections := tx.collectionsOf(area)
	var rows []graph.Row
	for _, c := range collections {
		if n, ok := tx.state.nodes[c]; ok {
			rows = append(rows, graph.Row{"collection": n.Clone()})
		}
	}
	for _, c := range collections {
		for _, m := range tx.memberRows(c) {
			m["collection"] = c
			rows = append(rows, m)
		}
	}
	for _, c := range collections {
		for _, e := range tx.from(dirql.EdgeComesBefore, c) {
			rows = append(rows, graph.Row{"collection": c, "successor": e.Out, "note": e.Props["note"]})
		}
	}
	return rows, nil
}
