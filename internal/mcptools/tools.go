// Package mcptools exposes docs navigation to MCP clients: browsing the
// topic tree, moving the selection and reading documents.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dgallion1/docnav/internal/catalog"
	"github.com/dgallion1/docnav/internal/content"
	"github.com/dgallion1/docnav/internal/doctree"
	naverrors "github.com/dgallion1/docnav/internal/errors"
	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/topics"
)

var ListTopicsTool = mcp.NewTool(
	"list_topics",
	mcp.WithDescription(
		"Lists the versions, sections and topic tree of the documentation. "+
			"Defaults to the current version and section. Each topic carries the URL to pass to get_document.",
	),
	mcp.WithString("version", mcp.Description("Optional version id, e.g. 'v1'.")),
	mcp.WithString("section", mcp.Description("Optional section id, e.g. 'user-guide'.")),
)

var NavigateTool = mcp.NewTool(
	"navigate",
	mcp.WithDescription(
		"Moves the current selection. Changing version or section selects the first topic; "+
			"selecting a topic with sub-topics selects its first sub-topic unless sub_value is given.",
	),
	mcp.WithString("kind", mcp.Required(), mcp.Enum("version", "section", "topic")),
	mcp.WithString("value", mcp.Required(), mcp.Description("Id of the version, section or topic.")),
	mcp.WithString("sub_value", mcp.Description("Optional sub-topic id when kind is 'topic'.")),
)

var GetDocumentTool = mcp.NewTool(
	"get_document",
	mcp.WithDescription(
		"Returns the Markdown of a documentation page. Without a url the current page is returned.",
	),
	mcp.WithString("url", mcp.Description("Page URL such as 'v1/user-guide/components/state'.")),
)

// Tools serves one MCP client. The client owns a single selection.
type Tools struct {
	coord    *navigation.Coordinator
	manifest *topics.Manifest
	fetcher  content.Fetcher
	log      *slog.Logger
}

func New(m *topics.Manifest, coord *navigation.Coordinator, fetcher content.Fetcher, log *slog.Logger) *Tools {
	if log == nil {
		log = slog.Default()
	}
	return &Tools{coord: coord, manifest: m, fetcher: fetcher, log: log}
}

// NewServer returns an MCP server with every tool registered.
func NewServer(t *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"docnav",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Browse versioned documentation. Start with list_topics, then get_document."),
	)
	Register(s, t)
	return s
}

// Register adds every tool to s.
func Register(s *server.MCPServer, t *Tools) {
	s.AddTool(ListTopicsTool, t.withToolLogger("list_topics", t.listTopics))
	s.AddTool(NavigateTool, t.withToolLogger("navigate", t.navigate))
	s.AddTool(GetDocumentTool, t.withToolLogger("get_document", t.getDocument))
}

func (t *Tools) withToolLogger(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				t.log.Error("panic in tool execution", "tool", name, "panic", r)
				result = nil
				err = fmt.Errorf("internal error in tool execution: %v", r)
			}
		}()
		t.log.Debug("tool call", "tool", name)
		return handler(ctx, request)
	}
}

type topicEntry struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	URL      string       `json:"url"`
	Children []topicEntry `json:"children,omitempty"`
}

type listTopicsResponse struct {
	Version  string          `json:"version"`
	Section  string          `json:"section"`
	Current  string          `json:"current_url"`
	Versions []catalog.Entry `json:"versions"`
	Sections []catalog.Entry `json:"sections"`
	Topics   []topicEntry    `json:"topics"`
}

func (t *Tools) listTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sel := t.coord.Selection()
	version := request.GetString("version", sel.Version)
	section := request.GetString("section", sel.Section)

	if !containsID(t.manifest.Versions, version) {
		return mcp.NewToolResultError(naverrors.UnknownCatalogEntry("version", version).Error()), nil
	}
	if !containsID(t.manifest.Sections, section) {
		return mcp.NewToolResultError(naverrors.UnknownCatalogEntry("section", section).Error()), nil
	}

	prefix := version + "/" + section
	var entries func(nodes []topics.Node, base string) []topicEntry
	entries = func(nodes []topics.Node, base string) []topicEntry {
		out := make([]topicEntry, 0, len(nodes))
		for _, n := range nodes {
			u := base + "/" + n.ID
			out = append(out, topicEntry{ID: n.ID, Label: n.Label, URL: u, Children: entries(n.Children, u)})
		}
		return out
	}

	return marshalResponse(listTopicsResponse{
		Version:  version,
		Section:  section,
		Current:  sel.URL(),
		Versions: t.manifest.Versions,
		Sections: t.manifest.Sections,
		Topics:   entries(t.manifest.Topics.Roots(version, section), prefix),
	})
}

type navigateResponse struct {
	URL       string               `json:"url"`
	Selection navigation.Selection `json:"selection"`
}

func (t *Tools) navigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawKind, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := navigation.ParseKind(rawKind)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	url, err := t.coord.NavigateTo(ctx, kind, value, request.GetString("sub_value", ""))
	if err != nil {
		t.log.Debug("navigate tool rejected", logfields.Kind(string(kind)), logfields.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return marshalResponse(navigateResponse{URL: url, Selection: t.coord.Selection()})
}

type documentResponse struct {
	URL      string            `json:"url"`
	Source   string            `json:"source"`
	Format   string            `json:"format"`
	Outline  []doctree.Heading `json:"outline"`
	Markdown string            `json:"markdown"`
}

func (t *Tools) getDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sel := t.coord.Selection()
	if raw := request.GetString("url", ""); raw != "" {
		var err error
		sel, err = t.resolve(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	doc, err := t.fetcher.Fetch(ctx, sel.Locator())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp := documentResponse{
		URL:      sel.URL(),
		Source:   doc.Source,
		Format:   doc.Format,
		Markdown: string(doc.Markdown),
	}
	if doc.Outline != nil {
		resp.Outline = doc.Outline.Outline()
	}
	return marshalResponse(resp)
}

// resolve checks raw against the manifest without moving the selection. An
// omitted sub-topic resolves to the first child, as navigation would.
func (t *Tools) resolve(raw string) (navigation.Selection, error) {
	want, err := navigation.ParseURL(raw)
	if err != nil {
		return navigation.Selection{}, err
	}
	if !containsID(t.manifest.Versions, want.Version) {
		return navigation.Selection{}, naverrors.UnknownCatalogEntry("version", want.Version)
	}
	if !containsID(t.manifest.Sections, want.Section) {
		return navigation.Selection{}, naverrors.UnknownCatalogEntry("section", want.Section)
	}
	ts, err := topics.Resolve(t.manifest.Topics.Roots(want.Version, want.Section), want.Topic, want.SubTopic)
	if err != nil {
		return navigation.Selection{}, err
	}
	want.Topic, want.SubTopic = ts.Topic, ts.SubTopic
	return want, nil
}

func containsID(entries []catalog.Entry, id string) bool {
	for _, e := range entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

func marshalResponse(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
