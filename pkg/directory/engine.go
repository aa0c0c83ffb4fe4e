package directory

import (
	"context"
	"errors"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
	"github.com/surrealdb/surrealdir/pkg/logger"
)

// engine is the store access shared by the engines.
type engine struct {
	store graph.Store
	log   logger.Logger
}

func (e *engine) exec(ctx context.Context, op string, id graph.ID, stmt graph.Statement, params graph.Params) ([]graph.Row, error) {
	rows, err := e.store.Execute(ctx, stmt, params)
	if err != nil {
		return nil, storeFailure(op, id, err)
	}
	return rows, nil
}

func (e *engine) steps(ctx context.Context, op string, id graph.ID, steps []graph.Step, params graph.Params) ([][]graph.Row, error) {
	results, err := graph.RunSteps(ctx, e.store, steps, params)
	if err != nil {
		return nil, storeFailure(op, id, err)
	}
	return results, nil
}

// refID checks that ref names a node of table without touching the store.
func refID(op string, ref Ref, table string) (graph.ID, error) {
	if ref == nil {
		return "", validation(op, "", errors.New("missing reference"))
	}
	id := ref.NodeID()
	if id.IsZero() {
		return "", validation(op, "", errors.New("empty id"))
	}
	if id.Table() != table {
		return "", notFound(op, id)
	}
	return id, nil
}

// lookup resolves ref to the row of the Node statement.
func (e *engine) lookup(ctx context.Context, op string, ref Ref, table string) (graph.Row, error) {
	id, err := refID(op, ref, table)
	if err != nil {
		return nil, err
	}
	rows, err := e.exec(ctx, op, id, dirql.Node, graph.Params{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound(op, id)
	}
	return rows[0], nil
}

// area always reloads ref so flags such as IsRoot come from the store.
func (e *engine) area(ctx context.Context, op string, ref Ref) (Area, error) {
	row, err := e.lookup(ctx, op, ref, dirql.TableArea)
	if err != nil {
		return Area{}, err
	}
	n, _ := row.Node("node")
	return areaFromNode(n), nil
}

func (e *engine) collection(ctx context.Context, op string, ref Ref) (Collection, error) {
	row, err := e.lookup(ctx, op, ref, dirql.TableCollection)
	if err != nil {
		return Collection{}, err
	}
	n, _ := row.Node("node")
	return collectionFromNode(n), nil
}

func (e *engine) contact(ctx context.Context, op string, ref Ref) (Contact, error) {
	row, err := e.lookup(ctx, op, ref, dirql.TableContact)
	if err != nil {
		return Contact{}, err
	}
	c, _ := contactFromRow(graph.Row{"contact": row["node"], "url": row["url"], "collection": row["collection"]})
	return c, nil
}

func firstArea(rows []graph.Row, column string) (*Area, bool) {
	if len(rows) == 0 {
		return nil, false
	}
	n, ok := rows[0].Node(column)
	if !ok {
		return nil, false
	}
	a := areaFromNode(n)
	return &a, true
}

func firstCollection(rows []graph.Row, column string) (*Collection, bool) {
	if len(rows) == 0 {
		return nil, false
	}
	n, ok := rows[0].Node(column)
	if !ok {
		return nil, false
	}
	c := collectionFromNode(n)
	return &c, true
}
