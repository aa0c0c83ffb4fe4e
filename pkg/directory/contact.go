package directory

import (
	"context"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

// Contacts mutates individual contacts.
type Contacts struct {
	engine
}

// Detach removes contact from collection only.
func (c *Contacts) Detach(ctx context.Context, contact, collection Ref) (Contact, error) {
	const op = "detach contact"
	ct, err := c.contact(ctx, op, contact)
	if err != nil {
		return Contact{}, err
	}
	colID, err := refID(op, collection, dirql.TableCollection)
	if err != nil {
		return Contact{}, err
	}
	rows, err := c.exec(ctx, op, ct.ID, dirql.DetachContact, graph.Params{"contact": ct.ID, "collection": colID})
	if err != nil {
		return Contact{}, err
	}
	out, ok := firstContact(rows)
	if !ok {
		return Contact{}, notFound(op, ct.ID)
	}
	if ct.Collection != colID {
		out.Collection = ct.Collection
	}
	c.log.Info("contact detached", "id", ct.ID, "collection", colID)
	return out, nil
}

// Remove deletes the contact with its membership, url and availability.
func (c *Contacts) Remove(ctx context.Context, contact Ref) (RemoveResult, error) {
	const op = "remove contact"
	ct, err := c.contact(ctx, op, contact)
	if err != nil {
		return RemoveResult{}, err
	}
	rows, err := c.exec(ctx, op, ct.ID, dirql.RemoveContact, graph.Params{"contact": ct.ID})
	if err != nil {
		return RemoveResult{}, err
	}
	c.log.Info("contact removed", "id", ct.ID)
	if col, ok := firstCollection(rows, "collection"); ok {
		return RemoveResult{Collection: col}, nil
	}
	return RemoveResult{Success: true}, nil
}

// Update merges the whitelisted fields into the contact. A "url" field
// replaces the contact's url.
func (c *Contacts) Update(ctx context.Context, contact Ref, fields map[string]string) (Contact, error) {
	const op = "update contact"
	ct, err := c.contact(ctx, op, contact)
	if err != nil {
		return Contact{}, err
	}
	props, url, dropped, err := contactUpdate(fields)
	if err != nil {
		return Contact{}, validation(op, ct.ID, err)
	}
	if len(dropped) > 0 {
		c.log.Debug("ignoring contact fields", "id", ct.ID, "fields", dropped)
	}
	params := graph.Params{"contact": ct.ID, "fields": props}
	if url != nil {
		params["url"] = *url
	}
	rows, err := c.exec(ctx, op, ct.ID, dirql.UpdateContact, params)
	if err != nil {
		return Contact{}, err
	}
	out, ok := firstContact(rows)
	if !ok {
		return Contact{}, notFound(op, ct.ID)
	}
	out.Collection = ct.Collection
	return out, nil
}

func firstContact(rows []graph.Row) (Contact, bool) {
	if len(rows) == 0 {
		return Contact{}, false
	}
	return contactFromRow(rows[0])
}
