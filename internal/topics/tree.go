// Package topics models the per-version, per-section topic hierarchy and the
// topic/sub-topic selection within it. Nodes are plain data; the tree is
// addressed through its owning maps and slices, never by node pointers.
package topics

// MaxDepth bounds the nesting accepted from a manifest.
const MaxDepth = 8

// Node is a navigable topic. Children keep declared order.
type Node struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tree maps version id to section id to the ordered root topics.
type Tree map[string]map[string][]Node

// Roots returns the root topics for a version/section pair. The returned
// slice is shared with the tree and must not be modified.
func (t Tree) Roots(version, section string) []Node {
	return t[version][section]
}

// HasContent reports whether the pair has at least one topic.
func (t Tree) HasContent(version, section string) bool {
	return len(t.Roots(version, section)) > 0
}

// FindRoot returns the root with id.
func FindRoot(roots []Node, id string) (Node, bool) {
	for _, n := range roots {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Child returns the direct child of n with id.
func Child(n Node, id string) (Node, bool) {
	return FindRoot(n.Children, id)
}

// Clone deep-copies nodes.
func Clone(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Node{ID: n.ID, Label: n.Label, Children: Clone(n.Children)}
	}
	return out
}

// Depth returns the number of levels below and including nodes.
func Depth(nodes []Node) int {
	deepest := 0
	for _, n := range nodes {
		if d := 1 + Depth(n.Children); d > deepest {
			deepest = d
		}
	}
	return deepest
}
