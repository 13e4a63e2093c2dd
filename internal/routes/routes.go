// Package routes compiles the topic tree into the route table served by the
// HTTP router. Everything here is pure: the same tree always yields an equal
// table, so rebuilding after a reload is always safe.
package routes

import (
	"github.com/dgallion1/docnav/internal/catalog"
	"github.com/dgallion1/docnav/internal/topics"
)

// Spec is one path segment and the routes nested below it.
type Spec struct {
	Segment  string `json:"path"`
	Children []Spec `json:"children,omitempty"`
}

// Build compiles nodes, in declared order, into route specs. The input must
// be finite and acyclic; the manifest loader guarantees both.
func Build(nodes []topics.Node) []Spec {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Spec, len(nodes))
	for i, n := range nodes {
		out[i] = Spec{Segment: n.ID, Children: Build(n.Children)}
	}
	return out
}

// Table emits one "{version}/{section}" route per version and section pair,
// in catalog order, whose children are Build of that pair's topics.
func Table(versions, sections []catalog.Entry, tree topics.Tree) []Spec {
	table := make([]Spec, 0, len(versions)*len(sections))
	for _, v := range versions {
		for _, s := range sections {
			table = append(table, Spec{
				Segment:  v.ID + "/" + s.ID,
				Children: Build(tree.Roots(v.ID, s.ID)),
			})
		}
	}
	return table
}

// FromManifest builds the table for m.
func FromManifest(m *topics.Manifest) []Spec {
	return Table(m.Versions, m.Sections, m.Topics)
}

// Paths flattens a table into full paths, depth first in declared order.
// Section-level routes are included.
func Paths(table []Spec) []string {
	var out []string
	var walk func(prefix string, specs []Spec)
	walk = func(prefix string, specs []Spec) {
		for _, s := range specs {
			p := s.Segment
			if prefix != "" {
				p = prefix + "/" + s.Segment
			}
			out = append(out, p)
			walk(p, s.Children)
		}
	}
	walk("", table)
	return out
}

// Equal reports structural equality.
func Equal(a, b []Spec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Segment != b[i].Segment || !Equal(a[i].Children, b[i].Children) {
			return false
		}
	}
	return true
}

// Count returns the number of routes in the table, section routes included.
func Count(table []Spec) int {
	n := len(table)
	for _, s := range table {
		n += Count(s.Children)
	}
	return n
}
