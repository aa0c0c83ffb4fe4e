package directory

import (
	"context"
	"io"
)

// AreaHandle is a resolved area bound to its directory. Only the area
// data is encoded to JSON.
type AreaHandle struct {
	Area
	dir *Directory
}

// Parent returns the parent area, or nil for the root and orphans.
func (h *AreaHandle) Parent(ctx context.Context) (*Area, error) {
	return h.dir.hierarchy.Parent(ctx, h.Area)
}

// Children returns the direct children ordered by name.
func (h *AreaHandle) Children(ctx context.Context) ([]Area, error) {
	return h.dir.hierarchy.Children(ctx, h.Area)
}

// Descend follows child names from this area.
func (h *AreaHandle) Descend(ctx context.Context, names ...string) (*AreaHandle, error) {
	a, err := h.dir.hierarchy.Descend(ctx, h.Area, names)
	if err != nil {
		return nil, err
	}
	return h.dir.areaHandle(a), nil
}

// Subtree materialises the areas below this one. A nil maxDepth is
// unlimited.
func (h *AreaHandle) Subtree(ctx context.Context, maxDepth *int) (*Tree, error) {
	return h.dir.hierarchy.Subtree(ctx, h.Area, maxDepth)
}

// Path returns the areas from base (the topmost ancestor when nil) down
// to this area.
func (h *AreaHandle) Path(ctx context.Context, base Ref) ([]Area, error) {
	return h.dir.hierarchy.AncestorPath(ctx, h.Area, base)
}

// Search returns the ranked paths below this area matching query.
func (h *AreaHandle) Search(ctx context.Context, query string) ([][]Area, error) {
	return h.dir.search.Search(ctx, h.Area, query)
}

// Collections returns the head collections.
func (h *AreaHandle) Collections(ctx context.Context) ([]Collection, error) {
	return h.dir.collections.HeadCollections(ctx, h.Area)
}

// AllContacts returns the succession forest of the collections this area
// owns.
func (h *AreaHandle) AllContacts(ctx context.Context) ([]*CollectionEntry, error) {
	return h.dir.collections.ContactsByArea(ctx, h.Area)
}

// DescendantContactCount counts the contacts owned below this area.
func (h *AreaHandle) DescendantContactCount(ctx context.Context) (int, error) {
	return h.dir.hierarchy.DescendantContactCount(ctx, h.Area)
}

// NewChild inserts a child area.
func (h *AreaHandle) NewChild(ctx context.Context, name string, note *string) (*AreaHandle, error) {
	a, err := h.dir.hierarchy.InsertChild(ctx, h.Area, name, note)
	if err != nil {
		return nil, err
	}
	return h.dir.areaHandle(a), nil
}

// Detach cuts the area from its parent and returns the former parent.
func (h *AreaHandle) Detach(ctx context.Context) (*Area, error) {
	return h.dir.hierarchy.Detach(ctx, h.Area)
}

// Remove deletes the area with its subtree and collections.
func (h *AreaHandle) Remove(ctx context.Context) (*Area, error) {
	return h.dir.hierarchy.Remove(ctx, h.Area)
}

// Update applies name and note changes and refreshes the handle.
func (h *AreaHandle) Update(ctx context.Context, fields map[string]string) error {
	a, err := h.dir.hierarchy.Update(ctx, h.Area, fields)
	if err != nil {
		return err
	}
	h.Area = a
	return nil
}

// Reparent moves the area below newParent and refreshes the handle.
func (h *AreaHandle) Reparent(ctx context.Context, newParent Ref) error {
	a, err := h.dir.hierarchy.Reparent(ctx, h.Area, newParent)
	if err != nil {
		return err
	}
	h.Area = a
	return nil
}

// NewCollection creates an empty collection owned by the area.
func (h *AreaHandle) NewCollection(ctx context.Context) (*CollectionHandle, error) {
	c, err := h.dir.collections.NewCollection(ctx, h.Area)
	if err != nil {
		return nil, err
	}
	return &CollectionHandle{Collection: c, dir: h.dir}, nil
}

// BulkImport runs the configured Importer on file below this area.
func (h *AreaHandle) BulkImport(ctx context.Context, file io.Reader) error {
	return h.dir.BulkImport(ctx, h.Area, file)
}

// CollectionHandle is a resolved collection bound to its directory.
type CollectionHandle struct {
	Collection
	dir *Directory
}

// Contacts returns the members ordered by last then first name.
func (h *CollectionHandle) Contacts(ctx context.Context) ([]Contact, error) {
	return h.dir.collections.Contacts(ctx, h.Collection)
}

// TogglePrimary flips the primary flag and refreshes the handle.
func (h *CollectionHandle) TogglePrimary(ctx context.Context) error {
	c, err := h.dir.collections.TogglePrimary(ctx, h.Collection)
	if err != nil {
		return err
	}
	h.Collection = c
	return nil
}

// Successors returns the collections that directly follow this one.
func (h *CollectionHandle) Successors(ctx context.Context) ([]Collection, error) {
	return h.dir.collections.Successors(ctx, h.Collection)
}

// AddSuccessor links succ after this collection with note.
func (h *CollectionHandle) AddSuccessor(ctx context.Context, succ Ref, note string) error {
	_, err := h.dir.collections.AddSuccessor(ctx, h.Collection, succ, note)
	return err
}

// RemoveSuccessor unlinks succ.
func (h *CollectionHandle) RemoveSuccessor(ctx context.Context, succ Ref) error {
	_, err := h.dir.collections.RemoveSuccessor(ctx, h.Collection, succ)
	return err
}

// Split moves contacts into a new collection of the same area and
// returns it.
func (h *CollectionHandle) Split(ctx context.Context, contacts ...Ref) (*CollectionHandle, error) {
	c, err := h.dir.collections.Split(ctx, h.Collection, contacts)
	if err != nil {
		return nil, err
	}
	return &CollectionHandle{Collection: c, dir: h.dir}, nil
}

// Merge moves the members of source into this collection and deletes
// source.
func (h *CollectionHandle) Merge(ctx context.Context, source Ref) error {
	_, err := h.dir.collections.Merge(ctx, h.Collection, source)
	return err
}

// NewContact links an existing contact or creates one from fields.
func (h *CollectionHandle) NewContact(ctx context.Context, src ContactSource) (*ContactHandle, error) {
	c, err := h.dir.collections.NewContact(ctx, h.Collection, src)
	if err != nil {
		return nil, err
	}
	return &ContactHandle{Contact: c, dir: h.dir}, nil
}

// ContactHandle is a resolved contact bound to its directory.
type ContactHandle struct {
	Contact
	dir *Directory
}

// Detach removes the contact from collection and keeps the contact.
func (h *ContactHandle) Detach(ctx context.Context, collection Ref) error {
	c, err := h.dir.contacts.Detach(ctx, h.Contact, collection)
	if err != nil {
		return err
	}
	h.Contact = c
	return nil
}

// Remove deletes the contact.
func (h *ContactHandle) Remove(ctx context.Context) (RemoveResult, error) {
	return h.dir.contacts.Remove(ctx, h.Contact)
}

// Update replaces whitelisted fields and refreshes the handle.
func (h *ContactHandle) Update(ctx context.Context, fields map[string]string) error {
	c, err := h.dir.contacts.Update(ctx, h.Contact, fields)
	if err != nil {
		return err
	}
	h.Contact = c
	return nil
}
