package api

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/dgallion1/docnav/internal/catalog"
	naverrors "github.com/dgallion1/docnav/internal/errors"
	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/render"
	"github.com/dgallion1/docnav/internal/topics"
)

//go:embed templates/page.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

// Page states beyond a normal render.
const (
	stateOK      = "ok"
	stateMissing = "missing"
	stateFailed  = "failed"
)

type pageView struct {
	Title      string
	URL        string
	Error      string
	State      string
	Versions   []navItem
	Sections   []navItem
	Topics     []topicItem
	Breadcrumb []string
	Content    template.HTML
	Outline    []render.Heading
	Source     string
}

type navItem struct {
	ID     string
	Label  string
	Href   string
	Active bool
}

type topicItem struct {
	navItem
	HasActive bool
	Children  []navItem
}

// writePage renders the coordinator's current location. status is the
// response status unless loading the document produces a worse one.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, coord *navigation.Coordinator, errMsg string, status int) {
	sel := coord.Selection()
	v := pageView{
		URL:      "/" + sel.URL(),
		Error:    errMsg,
		Versions: catalogItems(coord.Catalog(navigation.KindVersion), navigation.KindVersion, sel.Version),
		Sections: catalogItems(coord.Catalog(navigation.KindSection), navigation.KindSection, sel.Section),
	}
	v.Topics, v.Breadcrumb = topicItems(coord, sel)
	if len(v.Breadcrumb) > 0 {
		v.Title = v.Breadcrumb[len(v.Breadcrumb)-1]
	}

	if st := s.loadContent(r.Context(), sel, &v); status == http.StatusOK {
		status = st
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, v); err != nil {
		s.serverError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// loadContent fills the document part of v and returns the status it implies.
func (s *Server) loadContent(ctx context.Context, sel navigation.Selection, v *pageView) int {
	doc, err := s.fetcher.Fetch(ctx, sel.Locator())
	if err != nil {
		if naverrors.IsKind(err, naverrors.KindContentNotFound) {
			v.State = stateMissing
			return http.StatusNotFound
		}
		s.log.Error("content fetch failed", logfields.URL(sel.URL()), logfields.Error(err))
		v.State = stateFailed
		return http.StatusBadGateway
	}
	v.Source = doc.Source

	page, err := s.renderer.Render(doc.Markdown)
	if err != nil {
		s.log.Error("render failed", logfields.URL(sel.URL()), logfields.Path(doc.Source), logfields.Error(err))
		v.State = stateFailed
		return naverrors.HTTPStatus(err)
	}
	v.State = stateOK
	v.Content = page.HTML
	v.Outline = page.Headings
	if page.Title != "" {
		v.Title = page.Title
	}
	return http.StatusOK
}

func catalogItems(entries []catalog.Entry, kind navigation.Kind, active string) []navItem {
	out := make([]navItem, len(entries))
	for i, e := range entries {
		out[i] = navItem{
			ID:     e.ID,
			Label:  e.Label,
			Href:   "/nav/" + string(kind) + "/" + url.PathEscape(e.ID),
			Active: e.ID == active,
		}
	}
	return out
}

// topicItems builds the sidebar and the breadcrumb for sel.
func topicItems(coord *navigation.Coordinator, sel navigation.Selection) ([]topicItem, []string) {
	var crumbs []string
	for _, c := range []struct {
		kind navigation.Kind
		id   string
	}{{navigation.KindVersion, sel.Version}, {navigation.KindSection, sel.Section}} {
		for _, e := range coord.Catalog(c.kind) {
			if e.ID == c.id {
				crumbs = append(crumbs, e.Label)
			}
		}
	}

	roots := coord.VisibleTopics()
	items := make([]topicItem, len(roots))
	for i, n := range roots {
		item := topicItem{navItem: navItem{
			ID:     n.ID,
			Label:  n.Label,
			Href:   "/nav/topic/" + url.PathEscape(n.ID),
			Active: n.ID == sel.Topic,
		}}
		if item.Active {
			crumbs = append(crumbs, n.Label)
		}
		for _, child := range n.Children {
			active := item.Active && child.ID == sel.SubTopic
			item.Children = append(item.Children, navItem{
				ID:     child.ID,
				Label:  child.Label,
				Href:   "/nav/topic/" + url.PathEscape(n.ID) + "?" + url.Values{"sub": {child.ID}}.Encode(),
				Active: active,
			})
			if active {
				item.HasActive = true
				crumbs = append(crumbs, child.Label)
			}
		}
		items[i] = item
	}
	return items, crumbs
}

// childLabel is used by the JSON API to describe a selection.
func childLabel(roots []topics.Node, topic, sub string) string {
	n, ok := topics.FindRoot(roots, topic)
	if !ok {
		return ""
	}
	if sub == "" {
		return n.Label
	}
	if c, ok := topics.Child(n, sub); ok {
		return c.Label
	}
	return ""
}
