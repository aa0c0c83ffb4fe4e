package memstore

import (
	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

var handlers = map[string]handler{
	dirql.NameSchema: {run: func(*txn, graph.Params) ([]graph.Row, error) { return nil, nil }},

	dirql.NameRootArea:    {run: rootArea},
	dirql.NameCreateRoot:  {write: true, run: createRoot},
	dirql.NameNode:        {run: nodeByID},
	dirql.NameOrphanAreas: {run: orphanAreas},
	dirql.NameDescend:     {run: descend},
	dirql.NameParent:      {run: parent},
	dirql.NameChildren:    {run: children},
	dirql.NameSubtree:     {run: subtree},
	dirql.NameAncestors:   {run: ancestors},
	dirql.NameInsertChild: {write: true, run: insertChild},
	dirql.NameDetachArea:  {write: true, run: detachArea},
	dirql.NameAttachArea:  {write: true, run: attachArea},
	dirql.NameRemoveArea:  {write: true, run: removeArea},
	dirql.NameUpdateArea:  {write: true, run: updateArea},

	dirql.NameContactCount:    {run: contactCount},
	dirql.NameSearchNames:     {run: searchNames},
	dirql.NameSearchPositions: {run: searchPositions},

	dirql.NameCollectionMembers: {run: collectionMembers},
	dirql.NameTogglePrimary:     {write: true, run: togglePrimary},
	dirql.NameSuccessors:        {run: successors},
	dirql.NameAddSuccessor:      {write: true, run: addSuccessor},
	dirql.NameRemoveSuccessor:   {write: true, run: removeSuccessor},
	dirql.NameCollectionOwner:   {run: collectionOwner},
	dirql.NameDetachMembers:     {write: true, run: detachMembers},
	dirql.NameCreateFor:         {write: true, run: createFor},
	dirql.NameAttachMembers:     {write: true, run: attachMembers},
	dirql.NameAttachToCreated:   {write: true, run: attachToCreated},
	dirql.NameDismantle:         {write: true, run: dismantle},

	dirql.NameLinkContact:     {write: true, run: linkContact},
	dirql.NameCreateContact:   {write: true, run: createContact},
	dirql.NameNewCollection:   {write: true, run: newCollection},
	dirql.NameHeadCollections: {run: headCollections},
	dirql.NameContactsByArea:  {run: contactsByArea},
	dirql.NameDetachContact:   {write: true, run: detachContact},
	dirql.NameRemoveContact:   {write: true, run: removeContact},
	dirql.NameUpdateContact:   {write: true, run: updateContact},
	dirql.NameContactSearch:   {run: contactSearch},
}

func nodeByID(tx *txn, p graph.Params) ([]graph.Row, error) {
	id, err := idParam(p, "id")
	if err != nil {
		return nil, err
	}
	n, ok := tx.state.nodes[id]
	if !ok {
		return nil, nil
	}
	row := graph.Row{"node": n.Clone()}
	if id.Table() == dirql.TableContact {
		row["url"] = tx.urlOf(id)
		for _, e := range tx.from(dirql.EdgeInCollection, id) {
			row["collection"] = e.Out
			break
		}
	}
	return []graph.Row{row}, nil
}

// urlOf returns the first url node of a contact, or nil.
func (tx *txn) urlOf(contact graph.ID) any {
	for _, e := range tx.from(dirql.EdgeHasURL, contact) {
		if n, ok := tx.state.nodes[e.Out]; ok {
			return n.Clone()
		}
	}
	return nil
}
