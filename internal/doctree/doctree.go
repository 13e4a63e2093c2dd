// Package doctree is the format-neutral outline of a source document. Parsers
// for non-Markdown sources produce a Document, which is then serialized back
// to Markdown so every format goes through the same renderer.
package doctree

import (
	"strings"
)

// Document is the root of a parsed document.
type Document struct {
	Title    string     // from metadata or filename
	Sections []*Section // top-level sections
}

// Section is a recursive heading section.
type Section struct {
	Heading  string     // empty for untitled leading text
	Body     string     // Markdown body, may be empty for container sections
	Page     int        // source page, 0 if N/A
	Children []*Section // subsections
}

// Heading is one entry of a flattened outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Outline flattens the section headings, depth first. Top-level sections are
// level 1.
func (d *Document) Outline() []Heading {
	var out []Heading
	var walk func(secs []*Section, level int)
	walk = func(secs []*Section, level int) {
		for _, s := range secs {
			if s.Heading != "" {
				out = append(out, Heading{Level: level, Text: s.Heading})
			}
			walk(s.Children, level+1)
		}
	}
	walk(d.Sections, 1)
	return out
}

// Markdown serializes the document. The title becomes an h1 and sections
// nest below it, capped at h6.
func (d *Document) Markdown() string {
	var b strings.Builder
	if d.Title != "" {
		b.WriteString("# " + d.Title + "\n\n")
	}
	var walk func(secs []*Section, level int)
	walk = func(secs []*Section, level int) {
		for _, s := range secs {
			if s.Heading != "" {
				b.WriteString(strings.Repeat("#", min(level, 6)) + " " + s.Heading + "\n\n")
			}
			if body := strings.TrimSpace(s.Body); body != "" {
				b.WriteString(body + "\n\n")
			}
			walk(s.Children, level+1)
		}
	}
	walk(d.Sections, 2)
	return strings.TrimRight(b.String(), "\n") + "\n"
}
