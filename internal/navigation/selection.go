package navigation

import (
	"fmt"
	"strings"

	naverrors "github.com/dgallion1/docnav/internal/errors"
)

// Kind names the level a navigation targets.
type Kind string

const (
	KindVersion Kind = "version"
	KindSection Kind = "section"
	KindTopic   Kind = "topic"
)

// ParseKind accepts "version", "section" or "topic" in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindVersion, KindSection, KindTopic:
		return k, nil
	default:
		return "", fmt.Errorf("unknown navigation kind %q", s)
	}
}

// Selection is the active location in the content hierarchy. An empty
// SubTopic means absent.
type Selection struct {
	Version  string `json:"version"`
	Section  string `json:"section"`
	Topic    string `json:"topic"`
	SubTopic string `json:"sub_topic,omitempty"`
}

// URL renders {version}/{section}/{topic}[/{subTopic}] without a leading slash.
func (s Selection) URL() string {
	u := s.Version + "/" + s.Section + "/" + s.Topic
	if s.SubTopic != "" {
		u += "/" + s.SubTopic
	}
	return u
}

// Locator returns the content locator for the selection.
func (s Selection) Locator() Locator {
	return Locator(s)
}

// ParseURL is the inverse of Selection.URL. Leading and trailing slashes are
// ignored.
func ParseURL(raw string) (Selection, error) {
	trimmed := strings.Trim(raw, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 || len(parts) > 4 {
		return Selection{}, naverrors.MalformedURL(raw)
	}
	for _, p := range parts {
		if p == "" {
			return Selection{}, naverrors.MalformedURL(raw)
		}
	}
	sel := Selection{Version: parts[0], Section: parts[1], Topic: parts[2]}
	if len(parts) == 4 {
		sel.SubTopic = parts[3]
	}
	return sel, nil
}

// Locator addresses one document for the content-fetch collaborator.
type Locator struct {
	Version  string
	Section  string
	Topic    string
	SubTopic string
}

// Path is the slash-separated document path without extension.
func (l Locator) Path() string {
	return Selection(l).URL()
}
