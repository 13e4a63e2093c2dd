// Package content fetches source documents for a navigation locator. Sources
// in formats other than Markdown are converted so the renderer only ever sees
// Markdown.
package content

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/dgallion1/docnav/internal/doctree"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/parser"
)

// Document is a fetched source ready for rendering.
type Document struct {
	Locator  navigation.Locator
	Source   string // file path or URL
	Format   string // source extension, e.g. ".md"
	Markdown []byte
	Outline  *doctree.Document
}

// Fetcher returns the document for a locator, or an error of kind
// ContentNotFound when none exists.
type Fetcher interface {
	Fetch(ctx context.Context, loc navigation.Locator) (*Document, error)
}

func newDocument(loc navigation.Locator, source, name string, data []byte, opts parser.Options) (*Document, error) {
	p, err := parser.ForFile(name, opts)
	if err != nil {
		return nil, err
	}
	outline, err := p.Parse(bytes.NewReader(data), path.Base(name))
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", source, err)
	}
	doc := &Document{
		Locator: loc,
		Source:  source,
		Format:  path.Ext(name),
		Outline: outline,
	}
	if parser.IsMarkdown(name) {
		doc.Markdown = data
	} else {
		doc.Markdown = []byte(outline.Markdown())
	}
	return doc, nil
}

// Missing returns the locators f cannot serve.
func Missing(ctx context.Context, f Fetcher, locs []navigation.Locator) ([]navigation.Locator, error) {
	var missing []navigation.Locator
	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			return missing, err
		}
		if _, err := f.Fetch(ctx, loc); err != nil {
			missing = append(missing, loc)
		}
	}
	return missing, nil
}
