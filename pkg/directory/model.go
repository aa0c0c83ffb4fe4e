package directory

import (
	"github.com/surrealdb/surrealdir/pkg/graph"
)

// Ref names a node either by bare id or by a resolved value. graph.ID,
// Area, Collection, Contact and the handles all satisfy it.
type Ref interface {
	NodeID() graph.ID
}

// Area is a node of the organisational tree.
type Area struct {
	ID     graph.ID `json:"id"`
	Name   string   `json:"name"`
	Note   string   `json:"note,omitempty"`
	IsRoot bool     `json:"is_root,omitempty"`

	// Set on search results only.
	DescendantContacts int      `json:"descendant_contact_count,omitempty"`
	MatchedContact     *Contact `json:"matched_contact,omitempty"`
}

func (a Area) NodeID() graph.ID { return a.ID }

// Collection is a group of contacts owned by an area.
type Collection struct {
	ID      graph.ID `json:"id"`
	Primary bool     `json:"primary"`
}

func (c Collection) NodeID() graph.ID { return c.ID }

// Contact is a person reachable through a collection.
type Contact struct {
	ID     graph.ID          `json:"id"`
	Fields map[string]string `json:"fields"`
	URL    string            `json:"url,omitempty"`

	// Collection is the current membership, when known.
	Collection graph.ID `json:"collection,omitempty"`
}

func (c Contact) NodeID() graph.ID { return c.ID }

// Field returns a contact field or "".
func (c Contact) Field(name string) string { return c.Fields[name] }

// Tree is a materialised subtree.
type Tree struct {
	Area     Area    `json:"area"`
	Children []*Tree `json:"children"`
}

// Walk visits t and its descendants depth first.
func (t *Tree) Walk(fn func(t *Tree, depth int)) {
	t.walk(fn, 0)
}

func (t *Tree) walk(fn func(*Tree, int), depth int) {
	fn(t, depth)
	for _, c := range t.Children {
		c.walk(fn, depth+1)
	}
}

// CollectionEntry is one node of an area's succession forest.
type CollectionEntry struct {
	CollectionID graph.ID         `json:"collection_id"`
	Primary      bool             `json:"primary"`
	Contacts     []Contact        `json:"contacts"`
	Successors   []SuccessorEntry `json:"successors"`
}

// SuccessorEntry links a collection to the one that follows it.
type SuccessorEntry struct {
	Collection *CollectionEntry `json:"collection"`
	Note       string           `json:"note"`
}

// RemoveResult reports the collection a removed contact belonged to, or
// Success when it had none.
type RemoveResult struct {
	Collection *Collection `json:"collection,omitempty"`
	Success    bool        `json:"success,omitempty"`
}

func areaFromNode(n graph.Node) Area {
	return Area{
		ID:     n.ID,
		Name:   n.String("name"),
		Note:   n.String("note"),
		IsRoot: n.Bool("is_root"),
	}
}

func collectionFromNode(n graph.Node) Collection {
	return Collection{ID: n.ID, Primary: n.Bool("primary")}
}

// contactFromRow reads a contact from the row's "contact" and "url"
// variables.
func contactFromRow(r graph.Row) (Contact, bool) {
	n, ok := r.Node("contact")
	if !ok {
		return Contact{}, false
	}
	c := Contact{ID: n.ID, Fields: n.Strings(), Collection: r.ID("collection")}
	if u, ok := r.Node("url"); ok {
		c.URL = u.String("address")
	}
	return c, true
}
