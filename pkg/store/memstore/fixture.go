package memstore

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
)

// Fixture describes a directory to seed into an empty store.
//
//	root:
//	  name: 13MELB
//	  children:
//	    - name: Student Support
//	      collections:
//	        - key: current
//	          primary: true
//	          contacts:
//	            - first_name: Ada
//	              last_name: Lovelace
//	              url: https://example.org/ada
//	              days: [mon, tue]
type Fixture struct {
	Root    FixtureArea   `yaml:"root"`
	Orphans []FixtureArea `yaml:"orphans"`
}

type FixtureArea struct {
	Name        string              `yaml:"name"`
	Note        string              `yaml:"note"`
	Children    []FixtureArea       `yaml:"children"`
	Collections []FixtureCollection `yaml:"collections"`
}

// FixtureCollection keys are local to the fixture and name the target of
// succession links.
type FixtureCollection struct {
	Key        string             `yaml:"key"`
	Primary    bool               `yaml:"primary"`
	Contacts   []FixtureContact   `yaml:"contacts"`
	Successors []FixtureSuccessor `yaml:"successors"`
}

type FixtureSuccessor struct {
	To   string `yaml:"to"`
	Note string `yaml:"note"`
}

type FixtureContact struct {
	URL    string            `yaml:"url"`
	Days   []string          `yaml:"days"`
	Fields map[string]string `yaml:",inline"`
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("memstore: decode fixture: %w", err)
	}
	if f.Root.Name == "" {
		return nil, fmt.Errorf("memstore: fixture has no root name")
	}
	return &f, nil
}

// SeedFile seeds the store from the YAML fixture at path.
func (s *Store) SeedFile(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	f, err := ParseFixture(fh)
	if err != nil {
		return err
	}
	return s.Seed(f)
}

// Seed adds the fixture's areas, collections and contacts to the store
// in one commit.
func (s *Store) Seed(f *Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return graph.ErrClosed
	}
	tx := &txn{state: s.state.clone(), newKey: s.newKey}
	sd := &seeder{tx: tx, keys: map[string]graph.ID{}, days: map[string]graph.ID{}}

	if _, err := sd.area(f.Root, "", true); err != nil {
		return err
	}
	for _, o := range f.Orphans {
		if _, err := sd.area(o, "", false); err != nil {
			return err
		}
	}
	for _, l := range sd.links {
		to, ok := sd.keys[l.to]
		if !ok {
			return fmt.Errorf("memstore: fixture successor %q is not a collection key", l.to)
		}
		tx.relate(dirql.EdgeComesBefore, l.from, to, map[string]any{"note": l.note})
	}

	s.state = tx.state
	s.log.Info("memstore seeded", "nodes", len(tx.state.nodes), "edges", len(tx.state.edges))
	return nil
}

type pendingLink struct {
	from graph.ID
	to   string
	note string
}

type seeder struct {
	tx    *txn
	keys  map[string]graph.ID
	days  map[string]graph.ID
	links []pendingLink
}

func (sd *seeder) area(a FixtureArea, parent graph.ID, root bool) (graph.ID, error) {
	if a.Name == "" {
		return "", fmt.Errorf("memstore: fixture area without name below %s", parent)
	}
	props := map[string]any{"name": a.Name}
	if a.Note != "" {
		props["note"] = a.Note
	}
	if root {
		props["is_root"] = true
	}
	n := sd.tx.create(dirql.TableArea, props)
	if parent != "" {
		sd.tx.relate(dirql.EdgeParentOf, parent, n.ID, nil)
	}
	for _, c := range a.Collections {
		if err := sd.collection(c, n.ID); err != nil {
			return "", err
		}
	}
	for _, child := range a.Children {
		if _, err := sd.area(child, n.ID, false); err != nil {
			return "", err
		}
	}
	return n.ID, nil
}

func (sd *seeder) collection(c FixtureCollection, area graph.ID) error {
	n, err := sd.tx.newCollectionFor(area)
	if err != nil {
		return err
	}
	if c.Primary {
		if _, err := sd.tx.merge(n.ID, dirql.TableCollection, map[string]any{"primary": true}); err != nil {
			return err
		}
	}
	if c.Key != "" {
		if _, dup := sd.keys[c.Key]; dup {
			return fmt.Errorf("memstore: duplicate fixture collection key %q", c.Key)
		}
		sd.keys[c.Key] = n.ID
	}
	for _, s := range c.Successors {
		sd.links = append(sd.links, pendingLink{from: n.ID, to: s.To, note: s.Note})
	}
	for _, fc := range c.Contacts {
		props := make(map[string]any, len(fc.Fields))
		for k, v := range fc.Fields {
			props[k] = v
		}
		contact := sd.tx.create(dirql.TableContact, props)
		sd.tx.relate(dirql.EdgeInCollection, contact.ID, n.ID, nil)
		if fc.URL != "" {
			sd.tx.setURL(contact.ID, fc.URL)
		}
		for _, d := range fc.Days {
			sd.tx.relate(dirql.EdgeOnlyWorks, contact.ID, sd.day(d), nil)
		}
	}
	return nil
}

func (sd *seeder) day(name string) graph.ID {
	if id, ok := sd.days[name]; ok {
		return id
	}
	for id, n := range sd.tx.state.nodes {
		if id.Table() == dirql.TableDay && n.String("name") == name {
			sd.days[name] = id
			return id
		}
	}
	n := sd.tx.create(dirql.TableDay, map[string]any{"name": name})
	sd.days[name] = n.ID
	return n.ID
}
