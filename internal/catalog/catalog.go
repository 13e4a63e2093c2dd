// Package catalog holds the ordered version and section lists and the
// currently active entry of each.
package catalog

import (
	"fmt"

	naverrors "github.com/dgallion1/docnav/internal/errors"
)

// Entry is a version or section.
type Entry struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Catalog is an ordered, immutable list of entries plus one mutable active id.
// It is not safe for concurrent use; the navigation coordinator guards it.
type Catalog struct {
	name    string
	entries []Entry
	index   map[string]int
	active  string
}

// New builds a catalog named name ("version", "section") from entries in
// declared order. The first entry starts active.
func New(name string, entries []Entry) (*Catalog, error) {
	c := &Catalog{
		name:    name,
		entries: make([]Entry, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	copy(c.entries, entries)
	for i, e := range c.entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%s %d: empty id", name, i)
		}
		if _, dup := c.index[e.ID]; dup {
			return nil, fmt.Errorf("%s %q: duplicate id", name, e.ID)
		}
		c.index[e.ID] = i
	}
	if len(c.entries) > 0 {
		c.active = c.entries[0].ID
	}
	return c, nil
}

// Name returns the catalog name used in errors.
func (c *Catalog) Name() string { return c.name }

// Entries returns a copy of the entries in declared order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Get returns the entry with id.
func (c *Catalog) Get(id string) (Entry, bool) {
	i, ok := c.index[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Contains reports whether id is in the catalog.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// First returns the first declared entry.
func (c *Catalog) First() (Entry, bool) {
	if len(c.entries) == 0 {
		return Entry{}, false
	}
	return c.entries[0], true
}

// Active returns the active entry id.
func (c *Catalog) Active() string { return c.active }

// SetActive marks id active. Unknown ids fail with UnknownCatalogEntry and
// leave the active id unchanged.
func (c *Catalog) SetActive(id string) error {
	if !c.Contains(id) {
		return naverrors.UnknownCatalogEntry(c.name, id)
	}
	c.active = id
	return nil
}
