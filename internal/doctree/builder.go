package doctree

import "strings"

// Builder assembles a Document from a stream of headings and text blocks,
// nesting each heading under the nearest preceding heading of lower level.
type Builder struct {
	title string
	root  *Section
	stack []builderEntry
	text  strings.Builder
}

type builderEntry struct {
	sec   *Section
	level int
}

// NewBuilder starts a document titled title.
func NewBuilder(title string) *Builder {
	root := &Section{Heading: title}
	return &Builder{
		title: title,
		root:  root,
		stack: []builderEntry{{sec: root, level: 0}},
	}
}

// Heading opens a section at level (1 = h1).
func (b *Builder) Heading(level int, title string) *Section {
	b.flush()
	sec := &Section{Heading: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].sec
	parent.Children = append(parent.Children, sec)
	b.stack = append(b.stack, builderEntry{sec: sec, level: level})
	return sec
}

// Text appends a block to the current section.
func (b *Builder) Text(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

// Document finishes the build. Text that appears before any heading becomes
// an untitled leading section.
func (b *Builder) Document() *Document {
	b.flush()
	doc := &Document{Title: b.title}
	if b.root.Body != "" {
		doc.Sections = append(doc.Sections, &Section{Body: b.root.Body})
	}
	doc.Sections = append(doc.Sections, b.root.Children...)
	return doc
}

func (b *Builder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].sec
	if top.Body != "" {
		top.Body += "\n\n" + t
	} else {
		top.Body = t
	}
}
