package navigation

import "github.com/dgallion1/docnav/internal/topics"

// Locators lists every selectable page of m in declared order: topics
// without children, and the children of those that have them.
func Locators(m *topics.Manifest) []Locator {
	var out []Locator
	for _, v := range m.Versions {
		for _, s := range m.Sections {
			for _, n := range m.Topics.Roots(v.ID, s.ID) {
				if len(n.Children) == 0 {
					out = append(out, Locator{Version: v.ID, Section: s.ID, Topic: n.ID})
					continue
				}
				for _, c := range n.Children {
					out = append(out, Locator{Version: v.ID, Section: s.ID, Topic: n.ID, SubTopic: c.ID})
				}
			}
		}
	}
	return out
}
