package directory

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

// Search finds areas below a search root by name and by the positions of
// the contacts they hold.
type Search struct {
	engine
	hierarchy *Hierarchy
}

var wordSplit = regexp.MustCompile(`\W+`)

// Terms lowercases query, collapses whitespace and splits it into terms.
func Terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// namePattern matches any term at the start of a word.
func namePattern(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return fmt.Sprintf(`(^|\W)(%s)`, strings.Join(quoted, "|"))
}

type candidate struct {
	area  Area
	order int
}

// Search returns ranked paths, each running from just below root down to
// a matched area. Paths are sorted by score, then by length.
func (s *Search) Search(ctx context.Context, root Ref, query string) ([][]Area, error) {
	const op = "search"
	id, err := refID(op, root, dirql.TableArea)
	if err != nil {
		return nil, err
	}
	terms := Terms(query)
	if len(terms) == 0 {
		return [][]Area{}, nil
	}
	if _, err := s.lookup(ctx, op, id, dirql.TableArea); err != nil {
		return nil, err
	}

	candidates, err := s.candidates(ctx, op, id, terms)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return [][]Area{}, nil
	}

	ids := make([]graph.ID, 0, len(candidates))
	for cid := range candidates {
		ids = append(ids, cid)
	}
	sort.Slice(ids, func(i, j int) bool { return candidates[ids[i]].order < candidates[ids[j]].order })

	chains, err := s.hierarchy.ancestors(ctx, op, ids)
	if err != nil {
		return nil, err
	}

	paths := s.assemble(id, ids, candidates, chains)
	return rank(paths, terms), nil
}

func (s *Search) candidates(ctx context.Context, op string, root graph.ID, terms []string) (map[graph.ID]*candidate, error) {
	out := map[graph.ID]*candidate{}
	add := func(n graph.Node, contacts int) *candidate {
		c, ok := out[n.ID]
		if !ok {
			a := areaFromNode(n)
			a.DescendantContacts = contacts
			c = &candidate{area: a, order: len(out)}
			out[n.ID] = c
		}
		return c
	}

	rows, err := s.exec(ctx, op, root, dirql.SearchNames, graph.Params{"area": root, "pattern": namePattern(terms)})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if n, ok := r.Node("target"); ok {
			add(n, r.Int("contacts"))
		}
	}

	rows, err = s.exec(ctx, op, root, dirql.SearchPositions, graph.Params{"area": root, "prefix": strings.Join(terms, " ")})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		n, ok := r.Node("target")
		if !ok {
			continue
		}
		c := add(n, r.Int("contacts"))
		if contact, ok := contactFromRow(r); ok && c.area.MatchedContact == nil {
			c.area.MatchedContact = &contact
		}
	}
	return out, nil
}

// assemble builds one path per candidate. A candidate that appears inside
// another candidate's path loses its own path and its matched contact is
// carried onto the inner node.
func (s *Search) assemble(root graph.ID, ids []graph.ID, candidates map[graph.ID]*candidate, chains map[graph.ID][]Area) [][]Area {
	drop := map[graph.ID]bool{}
	built := map[graph.ID][]Area{}
	for _, id := range ids {
		chain := chains[id]
		path := make([]Area, 0, len(chain))
		for d, a := range chain {
			if a.ID == root {
				break
			}
			if d == 0 {
				a = candidates[id].area
			} else if inner, ok := candidates[a.ID]; ok {
				drop[a.ID] = true
				a.MatchedContact = inner.area.MatchedContact
				a.DescendantContacts = inner.area.DescendantContacts
			}
			path = append(path, a)
		}
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
		built[id] = path
	}

	out := make([][]Area, 0, len(ids))
	for _, id := range ids {
		if !drop[id] && len(built[id]) > 0 {
			out = append(out, built[id])
		}
	}
	return out
}

type scored struct {
	path  []Area
	score int
}

// rank keeps paths whose flattened text contains every term and orders
// them by the number of nodes with a name token equal to a term.
func rank(paths [][]Area, terms []string) [][]Area {
	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[t] = true
	}

	var kept []scored
	for _, path := range paths {
		if !containsAll(flatten(path), terms) {
			continue
		}
		kept = append(kept, scored{path: path, score: score(path, termSet)})
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return len(kept[i].path) < len(kept[j].path)
	})

	out := make([][]Area, len(kept))
	for i, k := range kept {
		out[i] = k.path
	}
	return out
}

func flatten(path []Area) string {
	parts := make([]string, 0, len(path)+1)
	for _, a := range path {
		part := a.Name
		if a.MatchedContact != nil {
			part += " " + a.MatchedContact.Field("position")
		}
		parts = append(parts, part)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAll(s string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}

func score(path []Area, terms map[string]bool) int {
	n := 0
	for _, a := range path {
		for _, tok := range wordSplit.Split(strings.ToLower(a.Name), -1) {
			if terms[tok] {
				n++
				break
			}
		}
	}
	return n
}
