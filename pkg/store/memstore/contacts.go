package memstore

import (
	"sort"
	"strings"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

func (tx *txn) contactRow(id graph.ID) ([]graph.Row, error) {
	n, err := tx.node(id, dirql.TableContact)
	if err != nil {
		return nil, err
	}
	return []graph.Row{{"contact": n, "url": tx.urlOf(id)}}, nil
}

// setURL replaces the contact's url nodes with a single new one, or
// with none when address is empty.
func (tx *txn) setURL(contact graph.ID, address string) {
	for _, e := range tx.from(dirql.EdgeHasURL, contact) {
		tx.deleteNode(e.Out)
	}
	if address == "" {
		return
	}
	u := tx.create(dirql.TableURL, map[string]any{"address": address})
	tx.relate(dirql.EdgeHasURL, contact, u.ID, nil)
}

func linkContact(tx *txn, p graph.Params) ([]graph.Row, error) {
	contact, err := idParam(p, "contact")
	if err != nil {
		return nil, err
	}
	collection, err := idParam(p, "collection")
	if err != nil {
		return nil, err
	}
	if _, err := tx.node(collection, dirql.TableCollection); err != nil {
		return nil, err
	}
	if _, err := tx.node(contact, dirql.TableContact); err != nil {
		return nil, err
	}
	tx.relate(dirql.EdgeInCollection, contact, collection, nil)
	return tx.contactRow(contact)
}

func createContact(tx *txn, p graph.Params) ([]graph.Row, error) {
	collection, err := idParam(p, "collection")
	if err != nil {
		return nil, err
	}
	if _, err := tx.node(collection, dirql.TableCollection); err != nil {
		return nil, err
	}
	created := tx.create(dirql.TableContact, fieldsParam(p, "fields"))
	tx.relate(dirql.EdgeInCollection, created.ID, collection, nil)
	if url, ok := stringParam(p, "url"); ok {
		tx.setURL(created.ID, url)
	}
	return tx.contactRow(created.ID)
}

func detachContact(tx *txn, p graph.Params) ([]graph.Row, error) {
	contact, err := idParam(p, "contact")
	if err != nil {
		return nil, err
	}
	collection, err := idParam(p, "collection")
	if err != nil {
		return nil, err
	}
	tx.unlink(tx.match(dirql.EdgeInCollection, func(e edge) bool { return e.In == contact && e.Out == collection }))
	return tx.contactRow(contact)
}

func removeContact(tx *txn, p graph.Params) ([]graph.Row, error) {
	contact, err := idParam(p, "contact")
	if err != nil {
		return nil, err
	}
	if _, err := tx.node(contact, dirql.TableContact); err != nil {
		return nil, err
	}
	var rows []graph.Row
	for _, e := range tx.from(dirql.EdgeInCollection, contact) {
		if n, ok := tx.state.nodes[e.Out]; ok {
			rows = append(rows, graph.Row{"collection": n.Clone()})
			break
		}
	}
	for _, e := range tx.from(dirql.EdgeHasURL, contact) {
		tx.deleteNode(e.Out)
	}
	tx.deleteNode(contact)
	return rows, nil
}

func updateContact(tx *txn, p graph.Params) ([]graph.Row, error) {
	contact, err := idParam(p, "contact")
	if err != nil {
		return nil, err
	}
	if _, err := tx.merge(contact, dirql.TableContact, fieldsParam(p, "fields")); err != nil {
		return nil, err
	}
	if url, ok := stringParam(p, "url"); ok {
		tx.setURL(contact, url)
	}
	return tx.contactRow(contact)
}

func contactSearch(tx *txn, p graph.Params) ([]graph.Row, error) {
	terms := stringsParam(p, "terms")
	var matched []graph.Node
	for id, n := range tx.state.nodes {
		if id.Table() != dirql.TableContact {
			continue
		}
		first, last := lower(n.String("first_name")), lower(n.String("last_name"))
		ok := true
		for _, t := range terms {
			if !strings.HasPrefix(first, t) && !strings.HasPrefix(last, t) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, n.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	sortContacts(matched)
	rows := make([]graph.Row, len(matched))
	for i, n := range matched {
		rows[i] = graph.Row{"contact": n, "url": tx.urlOf(n.ID)}
	}
	return rows, nil
}
