package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
	"github.com/surrealdb/surrealdir/pkg/logger"
)

// RootID is the sentinel id that resolves to the root area.
const RootID = "root"

const defaultBatchConcurrency = 8

// Importer turns an uploaded file into one statement that creates the
// areas and contacts it describes below area.
type Importer interface {
	Import(ctx context.Context, area Area, file io.Reader) (graph.Statement, graph.Params, error)
}

// Option configures a Directory.
type Option func(*Directory)

// WithLogger sets the logger mutations are reported to.
func WithLogger(l logger.Logger) Option {
	return func(d *Directory) { d.log = l }
}

// WithImporter sets the collaborator used by BulkImport.
func WithImporter(i Importer) Option {
	return func(d *Directory) { d.importer = i }
}

// WithBatchConcurrency bounds the concurrent lookups of BatchContactsByArea.
func WithBatchConcurrency(n int) Option {
	return func(d *Directory) {
		if n > 0 {
			d.batch = n
		}
	}
}

// Directory is the entry point of the engine. It is safe for concurrent
// use when its store is.
type Directory struct {
	engine
	importer Importer
	batch    int

	hierarchy   *Hierarchy
	search      *Search
	collections *Collections
	contacts    *Contacts
}

// New returns a directory over store. Store errors surface as
// ErrStoreFailure.
func New(store graph.Store, opts ...Option) *Directory {
	d := &Directory{
		engine: engine{store: store, log: logger.Nop()},
		batch:  defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	e := d.engine
	d.hierarchy = &Hierarchy{engine: e}
	d.search = &Search{engine: e, hierarchy: d.hierarchy}
	d.collections = &Collections{engine: e}
	d.contacts = &Contacts{engine: e}
	return d
}

// Engine accessors.
func (d *Directory) Hierarchy() *Hierarchy     { return d.hierarchy }
func (d *Directory) Search() *Search           { return d.search }
func (d *Directory) Collections() *Collections { return d.collections }
func (d *Directory) Contacts() *Contacts       { return d.contacts }

// Close closes the underlying store.
func (d *Directory) Close(ctx context.Context) error {
	return d.store.Close(ctx)
}

// Migrate defines the schema the statements rely on.
func (d *Directory) Migrate(ctx context.Context) error {
	_, err := d.exec(ctx, "migrate", "", dirql.Schema, nil)
	return err
}

// Root resolves the root area.
func (d *Directory) Root(ctx context.Context) (*AreaHandle, error) {
	a, err := d.hierarchy.Root(ctx)
	if err != nil {
		return nil, err
	}
	return d.areaHandle(a), nil
}

// Init creates the root area. It fails with ErrInvalidOperation when the
// directory already has one.
func (d *Directory) Init(ctx context.Context, name string, note *string) (*AreaHandle, error) {
	a, err := d.hierarchy.CreateRoot(ctx, name, note)
	if err != nil {
		return nil, err
	}
	return d.areaHandle(a), nil
}

// Area resolves id, or the root when id is RootID.
func (d *Directory) Area(ctx context.Context, id string) (*AreaHandle, error) {
	if id == RootID {
		return d.Root(ctx)
	}
	gid, err := parseID("area", id)
	if err != nil {
		return nil, err
	}
	a, err := d.area(ctx, "area", gid)
	if err != nil {
		return nil, err
	}
	return d.areaHandle(a), nil
}

// Collection resolves a collection id.
func (d *Directory) Collection(ctx context.Context, id string) (*CollectionHandle, error) {
	gid, err := parseID("collection", id)
	if err != nil {
		return nil, err
	}
	c, err := d.collection(ctx, "collection", gid)
	if err != nil {
		return nil, err
	}
	return &CollectionHandle{Collection: c, dir: d}, nil
}

// Contact resolves a contact id.
func (d *Directory) Contact(ctx context.Context, id string) (*ContactHandle, error) {
	gid, err := parseID("contact", id)
	if err != nil {
		return nil, err
	}
	c, err := d.contact(ctx, "contact", gid)
	if err != nil {
		return nil, err
	}
	return &ContactHandle{Contact: c, dir: d}, nil
}

func parseID(op, id string) (graph.ID, error) {
	gid, err := graph.ParseID(id)
	if err != nil {
		return "", &Error{Kind: ErrNotFound, Op: op, ID: graph.ID(id), Err: err}
	}
	return gid, nil
}

// OrphanAreas returns the non-root areas without a parent.
func (d *Directory) OrphanAreas(ctx context.Context) ([]Area, error) {
	return d.hierarchy.OrphanAreas(ctx)
}

var searchSanitiser = regexp.MustCompile(`[^a-z0-9 -]`)

// ContactSearch finds contacts whose first or last name starts with every
// term of query. An empty query matches every contact.
func (d *Directory) ContactSearch(ctx context.Context, query string) ([]Contact, error) {
	const op = "contact search"
	var terms []string
	for _, t := range Terms(query) {
		if t = searchSanitiser.ReplaceAllString(t, ""); t != "" {
			terms = append(terms, t)
		}
	}
	params := dirql.Indexed(graph.Params{"terms": terms}, "term", terms)
	rows, err := d.exec(ctx, op, "", dirql.ContactSearch(len(terms)), params)
	if err != nil {
		return nil, err
	}
	out := make([]Contact, 0, len(rows))
	for _, r := range rows {
		if c, ok := contactFromRow(r); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// BatchContactsByArea resolves the succession forests of many areas
// concurrently. Any failure aborts the whole batch.
func (d *Directory) BatchContactsByArea(ctx context.Context, ids []string) (map[graph.ID][]*CollectionEntry, error) {
	areas := make([]graph.ID, len(ids))
	for i, id := range ids {
		if id == RootID {
			root, err := d.hierarchy.Root(ctx)
			if err != nil {
				return nil, err
			}
			areas[i] = root.ID
			continue
		}
		gid, err := parseID("batch", id)
		if err != nil {
			return nil, err
		}
		areas[i] = gid
	}

	results := make([][]*CollectionEntry, len(areas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.batch)
	for i, id := range areas {
		g.Go(func() error {
			if _, err := d.area(gctx, "batch", id); err != nil {
				return err
			}
			entries, err := d.collections.ContactsByArea(gctx, id)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[graph.ID][]*CollectionEntry, len(areas))
	for i, id := range areas {
		out[id] = results[i]
	}
	return out, nil
}

// BulkImport hands file to the configured Importer and executes the
// statement it produces.
func (d *Directory) BulkImport(ctx context.Context, area Ref, file io.Reader) error {
	const op = "bulk import"
	a, err := d.area(ctx, op, area)
	if err != nil {
		return err
	}
	if d.importer == nil {
		return invalid(op, a.ID, "no importer configured")
	}
	stmt, params, err := d.importer.Import(ctx, a, file)
	if err != nil {
		return validation(op, a.ID, fmt.Errorf("import: %w", err))
	}
	if strings.TrimSpace(stmt.Text) == "" && stmt.Name == "" {
		return validation(op, a.ID, errors.New("import produced no statement"))
	}
	if _, err := d.exec(ctx, op, a.ID, stmt, params); err != nil {
		return err
	}
	d.log.Info("bulk import applied", "area", a.ID, "statement", stmt.Name)
	return nil
}

func (d *Directory) areaHandle(a Area) *AreaHandle {
	return &AreaHandle{Area: a, dir: d}
}
