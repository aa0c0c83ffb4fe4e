package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

// Collections manages collection membership and succession chains.
type Collections struct {
	engine
}

// ContactSource is what NewContact links: an existing contact or the
// fields of a new one.
type ContactSource interface {
	contactSource()
}

type existingContact struct{ ref Ref }

func (existingContact) contactSource() {}

// ExistingContact links a contact that is already stored.
func ExistingContact(ref Ref) ContactSource { return existingContact{ref: ref} }

// ContactFields creates a new contact from whitelisted fields.
type ContactFields map[string]string

func (ContactFields) contactSource() {}

// Contacts returns the members ordered by last then first name.
func (c *Collections) Contacts(ctx context.Context, collection Ref) ([]Contact, error) {
	const op = "contacts"
	col, err := c.collection(ctx, op, collection)
	if err != nil {
		return nil, err
	}
	return c.members(ctx, op, col.ID)
}

func (c *Collections) members(ctx context.Context, op string, id graph.ID) ([]Contact, error) {
	rows, err := c.exec(ctx, op, id, dirql.CollectionMembers, graph.Params{"collection": id})
	if err != nil {
		return nil, err
	}
	out := make([]Contact, 0, len(rows))
	for _, r := range rows {
		if contact, ok := contactFromRow(r); ok {
			contact.Collection = id
			out = append(out, contact)
		}
	}
	return out, nil
}

// TogglePrimary flips the primary flag of collection.
func (c *Collections) TogglePrimary(ctx context.Context, collection Ref) (Collection, error) {
	const op = "toggle primary"
	id, err := refID(op, collection, dirql.TableCollection)
	if err != nil {
		return Collection{}, err
	}
	if _, err := c.collection(ctx, op, id); err != nil {
		return Collection{}, err
	}
	rows, err := c.exec(ctx, op, id, dirql.TogglePrimary, graph.Params{"collection": id})
	if err != nil {
		return Collection{}, err
	}
	out, ok := firstCollection(rows, "collection")
	if !ok {
		return Collection{}, notFound(op, id)
	}
	return *out, nil
}

// Successors returns the collections one comes_before hop away.
func (c *Collections) Successors(ctx context.Context, collection Ref) ([]Collection, error) {
	const op = "successors"
	col, err := c.collection(ctx, op, collection)
	if err != nil {
		return nil, err
	}
	rows, err := c.exec(ctx, op, col.ID, dirql.Successors, graph.Params{"collection": col.ID})
	if err != nil {
		return nil, err
	}
	out := make([]Collection, 0, len(rows))
	for _, r := range rows {
		if n, ok := r.Node("successor"); ok {
			out = append(out, collectionFromNode(n))
		}
	}
	return out, nil
}

// AddSuccessor links pred to succ. Cycles and multiple predecessors are
// not checked.
func (c *Collections) AddSuccessor(ctx context.Context, pred, succ Ref, note string) (Collection, error) {
	const op = "add successor"
	p, err := c.collection(ctx, op, pred)
	if err != nil {
		return Collection{}, err
	}
	s, err := c.collection(ctx, op, succ)
	if err != nil {
		return Collection{}, err
	}
	if err := validate.Var(note, "max=4096,printable"); err != nil {
		return Collection{}, validation(op, p.ID, err)
	}
	if _, err := c.exec(ctx, op, p.ID, dirql.AddSuccessor, graph.Params{"pred": p.ID, "succ": s.ID, "note": note}); err != nil {
		return Collection{}, err
	}
	c.log.Info("successor added", "pred", p.ID, "succ", s.ID)
	return p, nil
}

// RemoveSuccessor deletes the pred to succ link if there is one.
func (c *Collections) RemoveSuccessor(ctx context.Context, pred, succ Ref) (Collection, error) {
	const op = "remove successor"
	p, err := c.collection(ctx, op, pred)
	if err != nil {
		return Collection{}, err
	}
	succID, err := refID(op, succ, dirql.TableCollection)
	if err != nil {
		return Collection{}, err
	}
	if _, err := c.exec(ctx, op, p.ID, dirql.RemoveSuccessor, graph.Params{"pred": p.ID, "succ": succID}); err != nil {
		return Collection{}, err
	}
	return p, nil
}

// Split moves contacts out of collection into a new collection owned by
// the same area, in one transaction.
func (c *Collections) Split(ctx context.Context, collection Ref, contacts []Ref) (Collection, error) {
	const op = "split"
	col, err := c.collection(ctx, op, collection)
	if err != nil {
		return Collection{}, err
	}
	if len(contacts) == 0 {
		return Collection{}, validation(op, col.ID, errors.New("no contacts to split off"))
	}
	ids := make([]graph.ID, 0, len(contacts))
	for _, ref := range contacts {
		id, err := refID(op, ref, dirql.TableContact)
		if err != nil {
			return Collection{}, err
		}
		ids = append(ids, id)
	}

	current, err := c.members(ctx, op, col.ID)
	if err != nil {
		return Collection{}, err
	}
	member := make(map[graph.ID]bool, len(current))
	for _, m := range current {
		member[m.ID] = true
	}
	for _, id := range ids {
		if !member[id] {
			return Collection{}, validation(op, col.ID, fmt.Errorf("%s is not a member", id))
		}
	}

	owners, err := c.exec(ctx, op, col.ID, dirql.CollectionOwner, graph.Params{"collection": col.ID})
	if err != nil {
		return Collection{}, err
	}
	owner, ok := firstArea(owners, "area")
	if !ok {
		return Collection{}, invalid(op, col.ID, "collection has no owning area")
	}

	results, err := c.steps(ctx, op, col.ID, []graph.Step{
		{Statement: dirql.DetachMembers, Bind: dirql.BindMoved},
		{Statement: dirql.CreateFor, Bind: dirql.BindCreated},
		{Statement: dirql.AttachToCreated},
	}, graph.Params{"collection": col.ID, "owner": owner.ID, "contacts": ids})
	if err != nil {
		return Collection{}, err
	}
	created, ok := firstCollection(results[2], "collection")
	if !ok {
		return Collection{}, &Error{Kind: ErrStoreFailure, Op: op, ID: col.ID, Err: errors.New("no collection created")}
	}
	c.log.Info("collection split", "source", col.ID, "created", created.ID, "contacts", len(ids))
	return *created, nil
}

// Merge moves every member of source into target and deletes source with
// its ownership and succession links, in one transaction.
func (c *Collections) Merge(ctx context.Context, target, source Ref) (Collection, error) {
	const op = "merge"
	t, err := c.collection(ctx, op, target)
	if err != nil {
		return Collection{}, err
	}
	s, err := c.collection(ctx, op, source)
	if err != nil {
		return Collection{}, err
	}
	if t.ID == s.ID {
		return Collection{}, invalid(op, t.ID, "a collection cannot be merged into itself")
	}
	results, err := c.steps(ctx, op, t.ID, []graph.Step{
		{Statement: dirql.Dismantle, Bind: dirql.BindMoved},
		{Statement: dirql.AttachMembers},
	}, graph.Params{"source": s.ID, "collection": t.ID})
	if err != nil {
		return Collection{}, err
	}
	c.log.Info("collections merged", "target", t.ID, "source", s.ID, "contacts", len(results[0]))
	return t, nil
}

// NewContact links an existing contact to collection or creates one from
// fields. An existing contact must not belong to another collection.
func (c *Collections) NewContact(ctx context.Context, collection Ref, src ContactSource) (Contact, error) {
	const op = "new contact"
	col, err := c.collection(ctx, op, collection)
	if err != nil {
		return Contact{}, err
	}

	var rows []graph.Row
	switch v := src.(type) {
	case existingContact:
		existing, err := c.contact(ctx, op, v.ref)
		if err != nil {
			return Contact{}, err
		}
		if existing.Collection != "" {
			return Contact{}, invalid(op, existing.ID, fmt.Sprintf("already in %s", existing.Collection))
		}
		rows, err = c.exec(ctx, op, col.ID, dirql.LinkContact, graph.Params{"contact": existing.ID, "collection": col.ID})
		if err != nil {
			return Contact{}, err
		}
	case ContactFields:
		props, url, dropped, err := contactUpdate(v)
		if err != nil {
			return Contact{}, validation(op, col.ID, err)
		}
		if len(props) == 0 {
			return Contact{}, validation(op, col.ID, errors.New("no contact fields"))
		}
		if len(dropped) > 0 {
			c.log.Debug("ignoring contact fields", "fields", dropped)
		}
		params := graph.Params{"collection": col.ID, "fields": props}
		if url != nil && *url != "" {
			params["url"] = *url
		}
		rows, err = c.exec(ctx, op, col.ID, dirql.CreateContact, params)
		if err != nil {
			return Contact{}, err
		}
	default:
		return Contact{}, validation(op, col.ID, errors.New("missing contact source"))
	}

	if len(rows) == 0 {
		return Contact{}, notFound(op, col.ID)
	}
	contact, ok := contactFromRow(rows[0])
	if !ok {
		return Contact{}, notFound(op, col.ID)
	}
	contact.Collection = col.ID
	return contact, nil
}

// NewCollection creates an empty collection for area. Callers use it when
// the area has no collection; otherwise it adds a second head.
func (c *Collections) NewCollection(ctx context.Context, area Ref) (Collection, error) {
	const op = "new collection"
	a, err := c.area(ctx, op, area)
	if err != nil {
		return Collection{}, err
	}
	rows, err := c.exec(ctx, op, a.ID, dirql.NewCollection, graph.Params{"area": a.ID})
	if err != nil {
		return Collection{}, err
	}
	created, ok := firstCollection(rows, "collection")
	if !ok {
		return Collection{}, notFound(op, a.ID)
	}
	c.log.Info("collection created", "id", created.ID, "area", a.ID)
	return *created, nil
}

// HeadCollections returns the area's collections without a predecessor.
func (c *Collections) HeadCollections(ctx context.Context, area Ref) ([]Collection, error) {
	const op = "collections"
	id, err := refID(op, area, dirql.TableArea)
	if err != nil {
		return nil, err
	}
	rows, err := c.exec(ctx, op, id, dirql.HeadCollections, graph.Params{"area": id})
	if err != nil {
		return nil, err
	}
	out := make([]Collection, 0, len(rows))
	for _, r := range rows {
		if n, ok := r.Node("collection"); ok {
			out = append(out, collectionFromNode(n))
		}
	}
	return out, nil
}

// ContactsByArea returns the area's succession forest: head collections
// at the top level with successors nested below their predecessor.
func (c *Collections) ContactsByArea(ctx context.Context, area Ref) ([]*CollectionEntry, error) {
	const op = "all contacts"
	id, err := refID(op, area, dirql.TableArea)
	if err != nil {
		return nil, err
	}
	rows, err := c.exec(ctx, op, id, dirql.ContactsByArea, graph.Params{"area": id})
	if err != nil {
		return nil, err
	}

	entries := map[graph.ID]*CollectionEntry{}
	var order []graph.ID
	entry := func(cid graph.ID) *CollectionEntry {
		e, ok := entries[cid]
		if !ok {
			e = &CollectionEntry{CollectionID: cid, Contacts: []Contact{}, Successors: []SuccessorEntry{}}
			entries[cid] = e
			order = append(order, cid)
		}
		return e
	}

	type link struct {
		pred graph.ID
		note string
	}
	preds := map[graph.ID]link{}
	var succession []graph.Row
	for _, r := range rows {
		cid := r.ID("collection")
		if cid.IsZero() {
			continue
		}
		switch {
		case r["successor"] != nil:
			succession = append(succession, r)
		case r["contact"] != nil:
			if contact, ok := contactFromRow(r); ok {
				contact.Collection = cid
				e := entry(cid)
				e.Contacts = append(e.Contacts, contact)
			}
		default:
			e := entry(cid)
			if n, ok := r.Node("collection"); ok {
				e.Primary = n.Bool("primary")
			}
		}
	}
	for _, r := range succession {
		pred, succ := r.ID("collection"), r.ID("successor")
		if _, ok := entries[pred]; !ok {
			continue
		}
		if _, ok := entries[succ]; !ok {
			continue
		}
		if _, seen := preds[succ]; !seen {
			note, _ := r["note"].(string)
			preds[succ] = link{pred: pred, note: note}
		}
	}

	out := []*CollectionEntry{}
	for _, cid := range order {
		if l, ok := preds[cid]; ok {
			p := entries[l.pred]
			p.Successors = append(p.Successors, SuccessorEntry{Collection: entries[cid], Note: l.note})
			continue
		}
		out = append(out, entries[cid])
	}
	return out, nil
}
