package directory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

// Hierarchy owns the area tree: navigation, materialisation and
// structural mutation.
type Hierarchy struct {
	engine
}

// Root returns the area flagged is_root.
func (h *Hierarchy) Root(ctx context.Context) (Area, error) {
	rows, err := h.exec(ctx, "root", "", dirql.RootArea, nil)
	if err != nil {
		return Area{}, err
	}
	root, ok := firstArea(rows, "root")
	if !ok {
		return Area{}, notFound("root", "")
	}
	return *root, nil
}

// CreateRoot creates the root area of an empty directory.
func (h *Hierarchy) CreateRoot(ctx context.Context, name string, note *string) (Area, error) {
	const op = "create root"
	in := areaInput{Name: strings.TrimSpace(name)}
	if note != nil {
		in.Note = *note
	}
	if err := validate.Struct(in); err != nil {
		return Area{}, validation(op, "", err)
	}
	existing, err := h.Root(ctx)
	switch {
	case err == nil:
		return Area{}, invalid(op, existing.ID, "a root area already exists")
	case !errors.Is(err, ErrNotFound):
		return Area{}, err
	}

	params := graph.Params{"name": in.Name}
	if note != nil {
		params["note"] = *note
	}
	rows, err := h.exec(ctx, op, "", dirql.CreateRoot, params)
	if err != nil {
		return Area{}, err
	}
	root, ok := firstArea(rows, "root")
	if !ok {
		return Area{}, notFound(op, "")
	}
	h.log.Info("root area created", "id", root.ID, "name", root.Name)
	return *root, nil
}

// Descend follows names one level at a time starting below area. When a
// level has several children with the same name the store's first row
// wins. An empty path returns area itself.
func (h *Hierarchy) Descend(ctx context.Context, area Ref, names []string) (Area, error) {
	const op = "descend"
	id, err := refID(op, area, dirql.TableArea)
	if err != nil {
		return Area{}, err
	}
	params := dirql.Indexed(graph.Params{"area": id, "names": names}, "name", names)
	rows, err := h.exec(ctx, op, id, dirql.Descend(len(names)), params)
	if err != nil {
		return Area{}, err
	}
	target, ok := firstArea(rows, "target")
	if !ok {
		return Area{}, &Error{Kind: ErrNotFound, Op: op, ID: id, Err: errors.New(strings.Join(names, "/"))}
	}
	return *target, nil
}

// Parent returns nil for the root and for orphans.
func (h *Hierarchy) Parent(ctx context.Context, area Ref) (*Area, error) {
	const op = "parent"
	id, err := refID(op, area, dirql.TableArea)
	if err != nil {
		return nil, err
	}
	rows, err := h.exec(ctx, op, id, dirql.Parent, graph.Params{"area": id})
	if err != nil {
		return nil, err
	}
	parent, _ := firstArea(rows, "parent")
	return parent, nil
}

// Children returns the direct children of area sorted by name.
func (h *Hierarchy) Children(ctx context.Context, area Ref) ([]Area, error) {
	const op = "children"
	id, err := refID(op, area, dirql.TableArea)
	if err != nil {
		return nil, err
	}
	rows, err := h.exec(ctx, op, id, dirql.Children, graph.Params{"area": id})
	if err != nil {
		return nil, err
	}
	out := make([]Area, 0, len(rows))
	for _, r := range rows {
		if n, ok := r.Node("child"); ok {
			out = append(out, areaFromNode(n))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Subtree materialises the areas reachable from area within maxDepth
// hops. A nil maxDepth is unbounded; zero yields area alone.
func (h *Hierarchy) Subtree(ctx context.Context, area Ref, maxDepth *int) (*Tree, error) {
	const op = "subtree"
	top, err := h.area(ctx, op, area)
	if err != nil {
		return nil, err
	}
	depth := -1
	if maxDepth != nil {
		if *maxDepth < 0 {
			return nil, validation(op, top.ID, errors.New("negative depth"))
		}
		depth = *maxDepth
	}
	if depth == 0 {
		return &Tree{Area: top, Children: []*Tree{}}, nil
	}

	rows, err := h.exec(ctx, op, top.ID, dirql.Subtree(depth), graph.Params{"area": top.ID, "depth": depth})
	if err != nil {
		return nil, err
	}

	nodes := map[graph.ID]Area{top.ID: top}
	kids := map[graph.ID][]graph.ID{}
	seen := map[graph.ID]bool{top.ID: true}
	for _, r := range rows {
		child, ok := r.Node("child")
		if !ok || seen[child.ID] {
			continue
		}
		seen[child.ID] = true
		nodes[child.ID] = areaFromNode(child)
		parent := r.ID("parent")
		kids[parent] = append(kids[parent], child.ID)
	}
	return materialise(top.ID, nodes, kids), nil
}

func materialise(id graph.ID, nodes map[graph.ID]Area, kids map[graph.ID][]graph.ID) *Tree {
	t := &Tree{Area: nodes[id], Children: make([]*Tree, 0, len(kids[id]))}
	for _, c := range kids[id] {
		t.Children = append(t.Children, materialise(c, nodes, kids))
	}
	return t
}

// AncestorPath returns the areas from base (or the topmost ancestor when
// base is nil) down to area, both ends included. The result is empty when
// base is not an ancestor of area.
func (h *Hierarchy) AncestorPath(ctx context.Context, area Ref, base Ref) ([]Area, error) {
	const op = "path"
	id, err := refID(op, area, dirql.TableArea)
	if err != nil {
		return nil, err
	}
	var baseID graph.ID
	if base != nil {
		if baseID, err = refID(op, base, dirql.TableArea); err != nil {
			return nil, err
		}
	}
	chains, err := h.ancestors(ctx, op, []graph.ID{id})
	if err != nil {
		return nil, err
	}
	chain, ok := chains[id]
	if !ok {
		return nil, notFound(op, id)
	}
	if baseID != "" {
		cut := -1
		for d, a := range chain {
			if a.ID == baseID {
				cut = d
				break
			}
		}
		if cut < 0 {
			return []Area{}, nil
		}
		chain = chain[:cut+1]
	}
	path := make([]Area, len(chain))
	for d, a := range chain {
		path[len(chain)-1-d] = a
	}
	return path, nil
}

// ancestors returns, per target, its ancestor chain indexed by hop
// distance (0 is the target).
func (h *Hierarchy) ancestors(ctx context.Context, op string, ids []graph.ID) (map[graph.ID][]Area, error) {
	rows, err := h.exec(ctx, op, "", dirql.Ancestors, graph.Params{"areas": ids})
	if err != nil {
		return nil, err
	}
	byDistance := map[graph.ID]map[int]Area{}
	for _, r := range rows {
		n, ok := r.Node("node")
		if !ok {
			continue
		}
		t := r.ID("target")
		if byDistance[t] == nil {
			byDistance[t] = map[int]Area{}
		}
		byDistance[t][r.Int("distance")] = areaFromNode(n)
	}
	out := make(map[graph.ID][]Area, len(byDistance))
	for t, m := range byDistance {
		chain := make([]Area, 0, len(m))
		for d := 0; ; d++ {
			a, ok := m[d]
			if !ok {
				break
			}
			chain = append(chain, a)
		}
		out[t] = chain
	}
	return out, nil
}

// InsertChild creates a named area below parent.
func (h *Hierarchy) InsertChild(ctx context.Context, parent Ref, name string, note *string) (Area, error) {
	const op = "insert child"
	id, err := refID(op, parent, dirql.TableArea)
	if err != nil {
		return Area{}, err
	}
	in := areaInput{Name: strings.TrimSpace(name)}
	if note != nil {
		in.Note = *note
	}
	if err := validate.Struct(in); err != nil {
		return Area{}, validation(op, id, err)
	}
	params := graph.Params{"parent": id, "name": in.Name}
	if note != nil {
		params["note"] = *note
	}
	rows, err := h.exec(ctx, op, id, dirql.InsertChild, params)
	if err != nil {
		return Area{}, err
	}
	created, ok := firstArea(rows, "area")
	if !ok {
		return Area{}, notFound(op, id)
	}
	h.log.Info("area created", "id", created.ID, "parent", id, "name", created.Name)
	return *created, nil
}

// Detach cuts area from its parent and returns the former parent, or nil
// when it had none. The area and its subtree are kept.
func (h *Hierarchy) Detach(ctx context.Context, area Ref) (*Area, error) {
	const op = "detach"
	a, err := h.area(ctx, op, area)
	if err != nil {
		return nil, err
	}
	if a.IsRoot {
		return nil, invalid(op, a.ID, "the root area cannot be detached")
	}
	rows, err := h.exec(ctx, op, a.ID, dirql.DetachArea, graph.Params{"area": a.ID})
	if err != nil {
		return nil, err
	}
	parent, _ := firstArea(rows, "parent")
	h.log.Info("area detached", "id", a.ID)
	return parent, nil
}

// Remove deletes area, its subtree and the collections they own. It
// returns the former parent, nil for an orphan.
func (h *Hierarchy) Remove(ctx context.Context, area Ref) (*Area, error) {
	const op = "remove"
	a, err := h.area(ctx, op, area)
	if err != nil {
		return nil, err
	}
	if a.IsRoot {
		return nil, invalid(op, a.ID, "the root area cannot be removed")
	}
	rows, err := h.exec(ctx, op, a.ID, dirql.RemoveArea, graph.Params{"area": a.ID})
	if err != nil {
		return nil, err
	}
	parent, _ := firstArea(rows, "parent")
	h.log.Info("area removed", "id", a.ID)
	return parent, nil
}

// Reparent moves area below newParent in one transaction.
func (h *Hierarchy) Reparent(ctx context.Context, area Ref, newParent Ref) (Area, error) {
	const op = "reparent"
	a, err := h.area(ctx, op, area)
	if err != nil {
		return Area{}, err
	}
	if a.IsRoot {
		return Area{}, invalid(op, a.ID, "the root area cannot be moved")
	}
	parentID, err := refID(op, newParent, dirql.TableArea)
	if err != nil {
		return Area{}, err
	}
	chains, err := h.ancestors(ctx, op, []graph.ID{parentID})
	if err != nil {
		return Area{}, err
	}
	chain, ok := chains[parentID]
	if !ok {
		return Area{}, notFound(op, parentID)
	}
	for _, anc := range chain {
		if anc.ID == a.ID {
			return Area{}, invalid(op, a.ID, "an area cannot move below itself")
		}
	}

	results, err := h.steps(ctx, op, a.ID, []graph.Step{
		{Statement: dirql.DetachArea},
		{Statement: dirql.AttachArea},
	}, graph.Params{"area": a.ID, "parent": parentID})
	if err != nil {
		return Area{}, err
	}
	moved, ok := firstArea(results[1], "area")
	if !ok {
		return Area{}, notFound(op, a.ID)
	}
	h.log.Info("area moved", "id", a.ID, "parent", parentID)
	return *moved, nil
}

// Update sets name and note. Other keys are ignored.
func (h *Hierarchy) Update(ctx context.Context, area Ref, fields map[string]string) (Area, error) {
	const op = "update area"
	a, err := h.area(ctx, op, area)
	if err != nil {
		return Area{}, err
	}
	in := areaInput{Name: a.Name, Note: a.Note}
	set := map[string]any{}
	if name, ok := fields["name"]; ok {
		in.Name = strings.TrimSpace(name)
		set["name"] = in.Name
	}
	if note, ok := fields["note"]; ok {
		in.Note = note
		set["note"] = note
	}
	if err := validate.Struct(in); err != nil {
		return Area{}, validation(op, a.ID, err)
	}
	if len(set) == 0 {
		return a, nil
	}
	rows, err := h.exec(ctx, op, a.ID, dirql.UpdateArea, graph.Params{"area": a.ID, "fields": set})
	if err != nil {
		return Area{}, err
	}
	updated, ok := firstArea(rows, "area")
	if !ok {
		return Area{}, notFound(op, a.ID)
	}
	return *updated, nil
}

// DescendantContactCount counts contacts in collections owned by areas
// strictly below area.
func (h *Hierarchy) DescendantContactCount(ctx context.Context, area Ref) (int, error) {
	const op = "contact count"
	id, err := refID(op, area, dirql.TableArea)
	if err != nil {
		return 0, err
	}
	rows, err := h.exec(ctx, op, id, dirql.ContactCount, graph.Params{"area": id})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Int("contacts"), nil
}

// OrphanAreas lists areas without a parent that are not the root.
func (h *Hierarchy) OrphanAreas(ctx context.Context) ([]Area, error) {
	rows, err := h.exec(ctx, "orphans", "", dirql.OrphanAreas, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Area, 0, len(rows))
	for _, r := range rows {
		if n, ok := r.Node("orphan"); ok {
			out = append(out, areaFromNode(n))
		}
	}
	return out, nil
}
