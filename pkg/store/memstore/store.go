// Package memstore is an in-memory graph store that executes the dirql
// statement catalogue natively.
//
// Writes run against a copy of the graph that replaces the live graph only
// when the statement, or every step of a transaction, succeeds. Readers
// never observe a half-applied mutation.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/surrealdb/surrealdir/pkg/graph"
	"github.com/surrealdb/surrealdir/pkg/logger"
)

// ErrNoRecord is returned when a statement references a missing record.
var ErrNoRecord = errors.New("no such record")

// ErrRootArea is returned when a statement would detach or remove the root.
var ErrRootArea = errors.New("root area cannot be detached or removed")

type edge struct {
	ID    graph.ID       `cbor:"id"`
	In    graph.ID       `cbor:"in"`
	Out   graph.ID       `cbor:"out"`
	Props map[string]any `cbor:"props,omitempty"`
	Seq   uint64         `cbor:"seq"`
}

type state struct {
	nodes map[graph.ID]graph.Node
	edges map[graph.ID]edge
	seq   uint64
}

func newState() *state {
	return &state{
		nodes: map[graph.ID]graph.Node{},
		edges: map[graph.ID]edge{},
	}
}

func (st *state) clone() *state {
	out := &state{
		nodes: make(map[graph.ID]graph.Node, len(st.nodes)),
		edges: make(map[graph.ID]edge, len(st.edges)),
		seq:   st.seq,
	}
	for id, n := range st.nodes {
		out.nodes[id] = n.Clone()
	}
	for id, e := range st.edges {
		out.edges[id] = e
	}
	return out
}

type handler struct {
	write bool
	run   func(tx *txn, p graph.Params) ([]graph.Row, error)
}

// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	state  *state
	newKey func() string
	log    logger.Logger
	closed bool
}

type Option func(*Store)

// WithLogger sets the logger used for mutation traces.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithKeyFunc replaces the random record key generator.
func WithKeyFunc(f func() string) Option {
	return func(s *Store) { s.newKey = f }
}

// SequentialKeys returns a key generator producing "1", "2", ...
func SequentialKeys() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprint(n)
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		state:  newState(),
		newKey: func() string { return uuid.NewString() },
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Execute(ctx context.Context, stmt graph.Statement, params graph.Params) ([]graph.Row, error) {
	results, err := s.run(ctx, []graph.Step{{Statement: stmt}}, params)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (s *Store) Transaction(ctx context.Context, steps []graph.Step, params graph.Params) ([][]graph.Row, error) {
	return s.run(ctx, steps, params)
}

func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) run(ctx context.Context, steps []graph.Step, params graph.Params) ([][]graph.Row, error) {
	write := false
	for _, step := range steps {
		h, ok := handlers[step.Name]
		if !ok {
			return nil, &graph.StoreError{Statement: step.Name, Err: graph.ErrUnknownStatement}
		}
		write = write || h.write
	}

	if write {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	if s.closed {
		name := ""
		if len(steps) > 0 {
			name = steps[0].Name
		}
		return nil, &graph.StoreError{Statement: name, Err: graph.ErrClosed}
	}

	tx := &txn{state: s.state, newKey: s.newKey}
	if write {
		tx.state = s.state.clone()
	}

	if params == nil {
		params = graph.Params{}
	}
	results := make([][]graph.Row, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, &graph.StoreError{Statement: step.Name, Err: err}
		}
		rows, err := handlers[step.Name].run(tx, params)
		if err != nil {
			return nil, &graph.StoreError{Statement: step.Name, Err: err}
		}
		results = append(results, rows)
		if step.Bind != "" {
			params = params.With(step.Bind, rows)
		}
	}

	if write {
		s.state = tx.state
		s.log.Debug("memstore committed", "steps", len(steps), "nodes", len(tx.state.nodes), "edges", len(tx.state.edges))
	}
	return results, nil
}

// txn is the view a handler mutates.
type txn struct {
	state  *state
	newKey func() string
}

func (tx *txn) node(id graph.ID, table string) (graph.Node, error) {
	n, ok := tx.state.nodes[id]
	if !ok || (table != "" && id.Table() != table) {
		return graph.Node{}, fmt.Errorf("%w: %s", ErrNoRecord, id)
	}
	return n.Clone(), nil
}

func (tx *txn) create(table string, props map[string]any) graph.Node {
	n := graph.Node{ID: graph.NewID(table, tx.newKey()), Props: map[string]any{}}
	for k, v := range props {
		if v != nil {
			n.Props[k] = v
		}
	}
	tx.state.nodes[n.ID] = n
	return n.Clone()
}

func (tx *txn) relate(kind string, in, out graph.ID, props map[string]any) edge {
	tx.state.seq++
	e := edge{ID: graph.NewID(kind, tx.newKey()), In: in, Out: out, Props: props, Seq: tx.state.seq}
	tx.state.edges[e.ID] = e
	return e
}

// deleteNode removes the node and every edge touching it.
func (tx *txn) deleteNode(id graph.ID) {
	delete(tx.state.nodes, id)
	for eid, e := range tx.state.edges {
		if e.In == id || e.Out == id {
			delete(tx.state.edges, eid)
		}
	}
}

// match returns edges of kind accepted by keep, in creation order.
func (tx *txn) match(kind string, keep func(edge) bool) []edge {
	var out []edge
	for id, e := range tx.state.edges {
		if id.Table() == kind && keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (tx *txn) from(kind string, in graph.ID) []edge {
	return tx.match(kind, func(e edge) bool { return e.In == in })
}

func (tx *txn) to(kind string, out graph.ID) []edge {
	return tx.match(kind, func(e edge) bool { return e.Out == out })
}

func (tx *txn) unlink(edges []edge) {
	for _, e := range edges {
		delete(tx.state.edges, e.ID)
	}
}
