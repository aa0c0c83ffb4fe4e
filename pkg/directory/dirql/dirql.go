// Package dirql is the catalogue of graph statements issued by the
// directory engines.
//
// Each statement has a stable name, SurrealQL text and a documented row
// shape. Stores that do not speak SurrealQL (the in-memory store) dispatch
// on the name and must honour the same parameters and row variables.
//
// Texts may contain several statements; the result of the last one is the
// statement result. Inside a transaction every step runs as a block whose
// value is bound to the step's name.
package dirql

import (
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdir/pkg/graph"
)

// Tables.
const (
	TableArea       = "area"
	TableCollection = "collection"
	TableContact    = "contact"
	TableURL        = "url"
	TableDay        = "day"
)

// Edge tables.
const (
	EdgeParentOf       = "parent_of"
	EdgeResponsibleFor = "responsible_for"
	EdgeComesBefore    = "comes_before"
	EdgeInCollection   = "in_collection"
	EdgeHasURL         = "has_url"
	EdgeOnlyWorks      = "only_works"
)

// Statement names.
const (
	NameSchema            = "schema"
	NameRootArea          = "root_area"
	NameCreateRoot        = "create_root"
	NameNode              = "node"
	NameOrphanAreas       = "orphan_areas"
	NameDescend           = "descend"
	NameParent            = "parent"
	NameChildren          = "children"
	NameSubtree           = "subtree"
	NameAncestors         = "ancestors"
	NameInsertChild       = "insert_child"
	NameDetachArea        = "detach_area"
	NameAttachArea        = "attach_area"
	NameRemoveArea        = "remove_area"
	NameUpdateArea        = "update_area"
	NameContactCount      = "descendant_contact_count"
	NameSearchNames       = "search_names"
	NameSearchPositions   = "search_positions"
	NameCollectionMembers = "collection_contacts"
	NameTogglePrimary     = "toggle_primary"
	NameSuccessors        = "successors"
	NameAddSuccessor      = "add_successor"
	NameRemoveSuccessor   = "remove_successor"
	NameCollectionOwner   = "collection_owner"
	NameDetachMembers     = "detach_members"
	NameCreateFor         = "create_collection_for"
	NameAttachMembers     = "attach_members"
	NameAttachToCreated   = "attach_members_to_created"
	NameDismantle         = "dismantle_collection"
	NameLinkContact       = "link_contact"
	NameCreateContact     = "create_contact"
	NameNewCollection     = "new_collection"
	NameHeadCollections   = "head_collections"
	NameContactsByArea    = "contacts_by_area"
	NameDetachContact     = "detach_contact"
	NameRemoveContact     = "remove_contact"
	NameUpdateContact     = "update_contact"
	NameContactSearch     = "contact_search"
)

// Step binding names shared between split and merge steps.
const (
	BindMoved   = "moved"
	BindCreated = "created"
)

// Schema defines the tables, relation constraints and helper functions.
// Rows: none.
var Schema = graph.Statement{Name: NameSchema, Text: `
DEFINE TABLE IF NOT EXISTS area SCHEMALESS;
DEFINE TABLE IF NOT EXISTS collection SCHEMALESS;
DEFINE TABLE IF NOT EXISTS contact SCHEMALESS;
DEFINE TABLE IF NOT EXISTS url SCHEMALESS;
DEFINE TABLE IF NOT EXISTS day SCHEMALESS;
DEFINE TABLE IF NOT EXISTS parent_of TYPE RELATION IN area OUT area;
DEFINE TABLE IF NOT EXISTS responsible_for TYPE RELATION IN collection OUT area;
DEFINE TABLE IF NOT EXISTS comes_before TYPE RELATION IN collection OUT collection;
DEFINE TABLE IF NOT EXISTS in_collection TYPE RELATION IN contact OUT collection;
DEFINE TABLE IF NOT EXISTS has_url TYPE RELATION IN contact OUT url;
DEFINE TABLE IF NOT EXISTS only_works TYPE RELATION IN contact OUT day;
DEFINE INDEX IF NOT EXISTS area_name ON area FIELDS name;
DEFINE INDEX IF NOT EXISTS single_parent ON parent_of FIELDS out UNIQUE;
DEFINE FUNCTION IF NOT EXISTS fn::below($a: record<area>) {
	RETURN $a.{..+collect}(->parent_of->area);
};
DEFINE FUNCTION IF NOT EXISTS fn::contacts_below($a: record<area>) {
	RETURN (SELECT count() AS n FROM contact
		WHERE ->in_collection->collection->responsible_for->area ANYINSIDE fn::below($a)
		GROUP ALL)[0].n ?? 0;
};
`}

// RootArea. Params: none. Rows: root.
var RootArea = graph.Statement{Name: NameRootArea, Text: `
SELECT id AS root FROM area WHERE is_root = true LIMIT 1 FETCH root;
`}

// CreateRoot creates the area flagged is_root. Params: name, note
// (optional). Rows: root.
var CreateRoot = graph.Statement{Name: NameCreateRoot, Text: `
IF (SELECT VALUE id FROM area WHERE is_root = true LIMIT 1)[0] { THROW "root area already exists" };
LET $created = CREATE ONLY area CONTENT { name: $name, note: $note, is_root: true };
SELECT id AS root FROM $created FETCH root;
`}

// Node resolves any record. Params: id. Rows: node, url and, for
// contacts, collection (id of the current membership).
var Node = graph.Statement{Name: NameNode, Text: `
SELECT id AS node, (->has_url->url)[0] AS url, (->in_collection->collection)[0] AS collection
FROM $id FETCH node, url;
`}

// OrphanAreas. Params: none. Rows: orphan.
var OrphanAreas = graph.Statement{Name: NameOrphanAreas, Text: `
SELECT id AS orphan, name FROM area
WHERE is_root != true AND count(<-parent_of) = 0
ORDER BY name FETCH orphan;
`}

// Descend follows n named levels below $area. Params: area, names and
// name_0..name_n-1. Rows: target.
func Descend(n int) graph.Statement {
	var path strings.Builder
	path.WriteString("$area")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&path, "->parent_of->(area WHERE name = $name_%d)", i)
	}
	return graph.Statement{
		Name: NameDescend,
		Text: fmt.Sprintf("SELECT id AS target FROM %s FETCH target;", path.String()),
	}
}

// Parent. Params: area. Rows: parent.
var Parent = graph.Statement{Name: NameParent, Text: `
SELECT in AS parent FROM parent_of WHERE out = $area FETCH parent;
`}

// Children. Params: area. Rows: child, ordered by name.
var Children = graph.Statement{Name: NameChildren, Text: `
SELECT out AS child, out.name AS name FROM parent_of WHERE in = $area ORDER BY name FETCH child;
`}

// Subtree returns (parent, depth, child) triples below $area ordered by
// depth then child name. maxDepth < 0 means unbounded. Params: area, depth.
// Rows: parent (id), depth, child.
func Subtree(maxDepth int) graph.Statement {
	recurse := "{..+collect}"
	if maxDepth >= 0 {
		recurse = fmt.Sprintf("{1..%d+collect}", maxDepth)
	}
	return graph.Statement{Name: NameSubtree, Text: fmt.Sprintf(`
LET $base = array::len($area.{..+collect}(<-parent_of<-area));
SELECT (<-parent_of<-area)[0] AS parent,
	id AS child,
	array::len(id.{..+collect}(<-parent_of<-area)) - $base AS depth,
	name
FROM array::distinct($area.%s(->parent_of->area))
ORDER BY depth, name
FETCH child;
`, recurse)}
}

// Ancestors returns, for every target, the target itself at distance 0
// and each ancestor up to the true root tagged with its hop distance.
// Params: areas. Rows: target (id), node, distance.
var Ancestors = graph.Statement{Name: NameAncestors, Text: `
RETURN array::flatten(array::map($areas, |$t|
	array::map(array::concat([$t], $t.{..+collect}(<-parent_of<-area)), |$a, $i|
		{ target: $t, node: $a.*, distance: $i })));
`}

// InsertChild. Params: parent, name, note (optional). Rows: area.
var InsertChild = graph.Statement{Name: NameInsertChild, Text: `
LET $created = CREATE ONLY area CONTENT { name: $name, note: $note };
RELATE $parent->parent_of->$created;
SELECT id AS area FROM $created FETCH area;
`}

// DetachArea removes the incoming parent edge. The root is refused.
// Params: area. Rows: parent.
var DetachArea = graph.Statement{Name: NameDetachArea, Text: `
IF $area.is_root { THROW "root area cannot be detached" };
LET $removed = (DELETE parent_of WHERE out = $area RETURN BEFORE);
SELECT id AS parent FROM $removed.in FETCH parent;
`}

// AttachArea. Params: area, parent. Rows: area.
var AttachArea = graph.Statement{Name: NameAttachArea, Text: `
RELATE $parent->parent_of->$area;
SELECT id AS area FROM $area FETCH area;
`}

// RemoveArea deletes the subtree rooted at $area with its collections,
// their succession and membership edges, and the url/availability edges
// of their contacts. The root is refused. Params: area. Rows: parent
// (absent for orphans).
var RemoveArea = graph.Statement{Name: NameRemoveArea, Text: `
IF $area.is_root { THROW "root area cannot be removed" };
LET $parent = (SELECT VALUE in FROM parent_of WHERE out = $area)[0];
LET $areas = array::concat([$area], fn::below($area));
LET $collections = (SELECT VALUE in FROM responsible_for WHERE out INSIDE $areas);
LET $contacts = (SELECT VALUE in FROM in_collection WHERE out INSIDE $collections);
DELETE has_url, only_works WHERE in INSIDE $contacts;
DELETE in_collection WHERE out INSIDE $collections;
DELETE comes_before WHERE in INSIDE $collections OR out INSIDE $collections;
DELETE responsible_for WHERE in INSIDE $collections;
DELETE parent_of WHERE out INSIDE $areas;
DELETE $collections;
DELETE $areas;
RETURN IF $parent THEN [{ parent: $parent.* }] ELSE [] END;
`}

// UpdateArea merges whitelisted fields. Params: area, fields. Rows: area.
var UpdateArea = graph.Statement{Name: NameUpdateArea, Text: `
UPDATE $area MERGE $fields;
SELECT id AS area FROM $area FETCH area;
`}

// ContactCount counts contacts in collections of strict descendants.
// Params: area. Rows: contacts.
var ContactCount = graph.Statement{Name: NameContactCount, Text: `
RETURN [{ contacts: fn::contacts_below($area) }];
`}

// SearchNames matches lowercase area names below $area against $pattern.
// Params: area, pattern. Rows: target, contacts.
var SearchNames = graph.Statement{Name: NameSearchNames, Text: `
SELECT id AS target, fn::contacts_below(id) AS contacts
FROM fn::below($area)
WHERE string::matches(string::lowercase(name), $pattern)
FETCH target;
`}

// SearchPositions finds areas below $area owning a collection with a
// contact whose lowercase position starts with $prefix.
// Params: area, prefix. Rows: target, contact, contacts.
var SearchPositions = graph.Statement{Name: NameSearchPositions, Text: `
LET $below = fn::below($area);
SELECT (out->responsible_for->area)[0] AS target,
	in AS contact,
	fn::contacts_below((out->responsible_for->area)[0]) AS contacts
FROM in_collection
WHERE string::starts_with(string::lowercase(in.position ?? ''), $prefix)
	AND (out->responsible_for->area)[0] INSIDE $below
FETCH target, contact;
`}

// CollectionMembers. Params: collection. Rows: contact, url; ordered by
// last name then first name.
var CollectionMembers = graph.Statement{Name: NameCollectionMembers, Text: `
SELECT in AS contact, (in->has_url->url)[0] AS url, in.last_name AS last_name, in.first_name AS first_name
FROM in_collection WHERE out = $collection
ORDER BY last_name, first_name
FETCH contact, url;
`}

// TogglePrimary. Params: collection. Rows: collection.
var TogglePrimary = graph.Statement{Name: NameTogglePrimary, Text: `
UPDATE $collection SET primary = !(primary ?? false);
SELECT id AS collection FROM $collection FETCH collection;
`}

// Successors. Params: collection. Rows: successor, note.
var Successors = graph.Statement{Name: NameSuccessors, Text: `
SELECT out AS successor, note FROM comes_before WHERE in = $collection FETCH successor;
`}

// AddSuccessor. Params: pred, succ, note. Rows: pred.
var AddSuccessor = graph.Statement{Name: NameAddSuccessor, Text: `
RELATE $pred->comes_before->$succ SET note = $note;
SELECT id AS pred FROM $pred FETCH pred;
`}

// RemoveSuccessor. Params: pred, succ. Rows: pred.
var RemoveSuccessor = graph.Statement{Name: NameRemoveSuccessor, Text: `
DELETE comes_before WHERE in = $pred AND out = $succ;
SELECT id AS pred FROM $pred FETCH pred;
`}

// CollectionOwner. Params: collection. Rows: area.
var CollectionOwner = graph.Statement{Name: NameCollectionOwner, Text: `
SELECT out AS area FROM responsible_for WHERE in = $collection FETCH area;
`}

// DetachMembers removes the membership of the listed contacts.
// Params: collection, contacts. Rows: contact.
var DetachMembers = graph.Statement{Name: NameDetachMembers, Text: `
LET $removed = (DELETE in_collection WHERE out = $collection AND in INSIDE $contacts RETURN BEFORE);
SELECT id AS contact FROM $removed.in FETCH contact;
`}

// CreateFor creates a collection responsible for the area $owner.
// Params: owner. Rows: collection.
var CreateFor = graph.Statement{Name: NameCreateFor, Text: `
LET $created = CREATE ONLY collection CONTENT { primary: false };
RELATE $created->responsible_for->$owner;
SELECT id AS collection FROM $created FETCH collection;
`}

// AttachMembers links bound contacts to $collection.
// Params: collection, moved. Rows: collection.
var AttachMembers = graph.Statement{Name: NameAttachMembers, Text: `
FOR $m IN $moved { RELATE ($m.contact.id)->in_collection->$collection; };
SELECT id AS collection FROM $collection FETCH collection;
`}

// AttachToCreated links bound contacts to the collection bound by a
// previous CreateFor step. Params: created, moved. Rows: collection.
var AttachToCreated = graph.Statement{Name: NameAttachToCreated, Text: `
LET $target = $created[0].collection.id;
FOR $m IN $moved { RELATE ($m.contact.id)->in_collection->$target; };
SELECT id AS collection FROM $target FETCH collection;
`}

// Dismantle deletes $source with its ownership, succession and membership
// edges. Params: source. Rows: contact (former members).
var Dismantle = graph.Statement{Name: NameDismantle, Text: `
LET $members = (SELECT VALUE in FROM in_collection WHERE out = $source);
DELETE in_collection WHERE out = $source;
DELETE comes_before WHERE in = $source OR out = $source;
DELETE responsible_for WHERE in = $source;
DELETE $source;
SELECT id AS contact FROM $members FETCH contact;
`}

// LinkContact. Params: contact, collection. Rows: contact, url.
var LinkContact = graph.Statement{Name: NameLinkContact, Text: `
RELATE $contact->in_collection->$collection;
SELECT id AS contact, (->has_url->url)[0] AS url FROM $contact FETCH contact, url;
`}

// CreateContact. Params: collection, fields, url (optional).
// Rows: contact, url.
var CreateContact = graph.Statement{Name: NameCreateContact, Text: `
LET $created = CREATE ONLY contact CONTENT $fields;
RELATE $created->in_collection->$collection;
IF $url != NONE {
	LET $u = CREATE ONLY url CONTENT { address: $url };
	RELATE $created->has_url->$u;
};
SELECT id AS contact, (->has_url->url)[0] AS url FROM $created FETCH contact, url;
`}

// NewCollection. Params: area. Rows: collection.
var NewCollection = graph.Statement{Name: NameNewCollection, Text: `
LET $created = CREATE ONLY collection CONTENT { primary: false };
RELATE $created->responsible_for->$area;
SELECT id AS collection FROM $created FETCH collection;
`}

// HeadCollections. Params: area. Rows: collection.
var HeadCollections = graph.Statement{Name: NameHeadCollections, Text: `
SELECT in AS collection FROM responsible_for
WHERE out = $area AND count(in<-comes_before) = 0
FETCH collection;
`}

// ContactsByArea returns three kinds of rows for the collections
// responsible for $area: {collection} for every collection,
// {collection, contact, url} per member and {collection, successor, note}
// per succession edge. Params: area.
var ContactsByArea = graph.Statement{Name: NameContactsByArea, Text: `
LET $collections = (SELECT VALUE in FROM responsible_for WHERE out = $area);
RETURN array::concat(
	(SELECT id AS collection FROM $collections FETCH collection),
	(SELECT out AS collection, in AS contact, (in->has_url->url)[0] AS url
		FROM in_collection WHERE out INSIDE $collections
		FETCH collection, contact, url),
	(SELECT in AS collection, out AS successor, note
		FROM comes_before WHERE in INSIDE $collections)
);
`}

// DetachContact. Params: contact, collection. Rows: contact, url.
var DetachContact = graph.Statement{Name: NameDetachContact, Text: `
DELETE in_collection WHERE in = $contact AND out = $collection;
SELECT id AS contact, (->has_url->url)[0] AS url FROM $contact FETCH contact, url;
`}

// RemoveContact deletes the contact with its membership, url and
// availability edges. Params: contact. Rows: collection (absent when the
// contact had no membership).
var RemoveContact = graph.Statement{Name: NameRemoveContact, Text: `
LET $collection = (SELECT VALUE out FROM in_collection WHERE in = $contact)[0];
LET $urls = (SELECT VALUE out FROM has_url WHERE in = $contact);
DELETE in_collection, has_url, only_works WHERE in = $contact;
DELETE $urls;
DELETE $contact;
RETURN IF $collection THEN [{ collection: $collection.* }] ELSE [] END;
`}

// UpdateContact merges fields and replaces the url when given; an empty
// url clears it.
// Params: contact, fields, url (optional). Rows: contact, url.
var UpdateContact = graph.Statement{Name: NameUpdateContact, Text: `
UPDATE $contact MERGE $fields;
IF $url != NONE {
	LET $old = (SELECT VALUE out FROM has_url WHERE in = $contact);
	DELETE has_url WHERE in = $contact;
	DELETE $old;
	IF $url != '' {
		LET $u = CREATE ONLY url CONTENT { address: $url };
		RELATE $contact->has_url->$u;
	};
};
SELECT id AS contact, (->has_url->url)[0] AS url FROM $contact FETCH contact, url;
`}

// ContactSearch matches every term as a prefix of the lowercase first or
// last name. Params: terms and term_0..term_n-1. Rows: contact, url;
// ordered by last name then first name.
func ContactSearch(n int) graph.Statement {
	clauses := make([]string, n)
	for i := range clauses {
		clauses[i] = fmt.Sprintf(
			"(string::starts_with(string::lowercase(first_name ?? ''), $term_%[1]d) OR "+
				"string::starts_with(string::lowercase(last_name ?? ''), $term_%[1]d))", i)
	}
	where := "true"
	if n > 0 {
		where = strings.Join(clauses, " AND ")
	}
	return graph.Statement{Name: NameContactSearch, Text: fmt.Sprintf(`
SELECT id AS contact, (->has_url->url)[0] AS url, last_name, first_name FROM contact
WHERE %s
ORDER BY last_name, first_name
FETCH contact, url;
`, where)}
}

// Indexed expands a list parameter into name_0..name_n-1 entries for the
// statements rendered with positional parameters.
func Indexed(params graph.Params, prefix string, values []string) graph.Params {
	for i, v := range values {
		params[fmt.Sprintf("%s_%d", prefix, i)] = v
	}
	return params
}
