// Package render turns Markdown into page HTML: goldmark with GFM and chroma
// highlighting, then a goquery pass that anchors headings, collects the
// outline and marks external links.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	naverrors "github.com/dgallion1/docnav/internal/errors"
	"github.com/dgallion1/docnav/internal/metrics"
)

// Page is rendered document markup plus what the layout needs from it.
type Page struct {
	Title    string
	HTML     template.HTML
	Headings []Heading
}

// Heading is an anchored heading of the rendered page.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Renderer converts Markdown source into a Page. Failures are NavErrors of
// kind RenderFailed.
type Renderer interface {
	Render(src []byte) (*Page, error)
}

// Options configures a Markdown renderer.
type Options struct {
	HighlightStyle string
	Recorder       metrics.Recorder
}

// Markdown is the goldmark-backed Renderer.
type Markdown struct {
	md  goldmark.Markdown
	rec metrics.Recorder
}

func NewMarkdown(opts Options) *Markdown {
	if opts.HighlightStyle == "" {
		opts.HighlightStyle = "github"
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(highlighting.WithStyle(opts.HighlightStyle)),
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		rec: opts.Recorder,
	}
}

func (m *Markdown) Render(src []byte) (page *Page, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			page, err = nil, naverrors.RenderFailed(fmt.Errorf("panic: %v", r))
		}
		m.rec.ObserveRender(time.Since(start), err == nil)
	}()

	if !utf8.Valid(src) {
		return nil, naverrors.RenderFailed(errors.New("source is not valid UTF-8"))
	}
	var buf bytes.Buffer
	if err := m.md.Convert(src, &buf); err != nil {
		return nil, naverrors.RenderFailed(err)
	}
	return decorate(&buf)
}

// decorate post-processes goldmark output.
func decorate(buf *bytes.Buffer) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(buf)
	if err != nil {
		return nil, naverrors.RenderFailed(err)
	}

	page := &Page{}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		level := int(goquery.NodeName(s)[1] - '0')
		if level == 1 && page.Title == "" {
			page.Title = text
		}
		id, ok := s.Attr("id")
		if !ok || id == "" {
			return
		}
		page.Headings = append(page.Headings, Heading{Level: level, ID: id, Text: text})
		s.AppendHtml(`<a class="anchor" href="#` + template.HTMLEscapeString(id) + `" aria-hidden="true">#</a>`)
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			s.SetAttr("target", "_blank")
			s.SetAttr("rel", "noopener noreferrer")
		}
	})

	body, err := doc.Find("body").Html()
	if err != nil {
		return nil, naverrors.RenderFailed(err)
	}
	page.HTML = template.HTML(body)
	return page, nil
}
