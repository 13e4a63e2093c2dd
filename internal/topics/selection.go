package topics

import (
	naverrors "github.com/dgallion1/docnav/internal/errors"
)

// Selection is the active topic and optional sub-topic within one
// version/section pair. An empty SubTopic means absent.
type Selection struct {
	Topic    string `json:"topic"`
	SubTopic string `json:"sub_topic,omitempty"`
}

// First selects the first root and, when it has children, its first child.
// It reports false when roots is empty.
func First(roots []Node) (Selection, bool) {
	if len(roots) == 0 {
		return Selection{}, false
	}
	sel := Selection{Topic: roots[0].ID}
	if len(roots[0].Children) > 0 {
		sel.SubTopic = roots[0].Children[0].ID
	}
	return sel, true
}

// Resolve validates topic and sub against roots. An omitted sub on a topic
// with children selects its first child.
func Resolve(roots []Node, topic, sub string) (Selection, error) {
	node, ok := FindRoot(roots, topic)
	if !ok {
		return Selection{}, naverrors.UnknownCatalogEntry("topic", topic)
	}
	if sub != "" {
		if _, ok := Child(node, sub); !ok {
			return Selection{}, naverrors.InvalidSubTopic(topic, sub)
		}
		return Selection{Topic: topic, SubTopic: sub}, nil
	}
	sel := Selection{Topic: topic}
	if len(node.Children) > 0 {
		sel.SubTopic = node.Children[0].ID
	}
	return sel, nil
}

// Valid reports whether s satisfies the selection invariant over roots.
func (s Selection) Valid(roots []Node) bool {
	node, ok := FindRoot(roots, s.Topic)
	if !ok {
		return false
	}
	if s.SubTopic == "" {
		return len(node.Children) == 0
	}
	_, ok = Child(node, s.SubTopic)
	return ok
}
