package mcptools

import (
	"context"
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docnav/internal/content"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/parser"
	"github.com/dgallion1/docnav/internal/topics"
)

func newTools(t *testing.T) *Tools {
	t.Helper()
	m, err := topics.LoadManifest("../topics/testdata/manifest.yaml")
	require.NoError(t, err)
	coord, err := navigation.NewCoordinator(m, navigation.Options{})
	require.NoError(t, err)
	fsys := fstest.MapFS{
		"v1/user-guide/overview.md":            {Data: []byte("# Welcome\n\n## Install\n")},
		"v1/user-guide/components/overview.md": {Data: []byte("# Components\n")},
	}
	return New(m, coord, content.NewFSFetcher(fsys, "mem", 0, parser.Options{}, nil, nil), nil)
}

func newCallRequest(name string, args map[string]any) mcp.CallToolRequest {
	if args == nil {
		args = map[string]any{}
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.NotNil(t, result)
	require.False(t, result.IsError, "unexpected tool error: %v", result.Content)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var v T
	require.NoError(t, json.Unmarshal([]byte(text.Text), &v))
	return v
}

func TestListTopics_Current(t *testing.T) {
	tools := newTools(t)
	result, err := tools.listTopics(context.Background(), newCallRequest("list_topics", nil))
	require.NoError(t, err)

	resp := decode[listTopicsResponse](t, result)
	require.Equal(t, "v1", resp.Version)
	require.Equal(t, "user-guide", resp.Section)
	require.Len(t, resp.Topics, 3)
	require.Equal(t, "v1/user-guide/components/state", resp.Topics[2].Children[1].URL)
	require.Len(t, resp.Versions, 2)
}

func TestListTopics_OtherPairAndUnknown(t *testing.T) {
	tools := newTools(t)
	result, err := tools.listTopics(context.Background(), newCallRequest("list_topics", map[string]any{"version": "v2"}))
	require.NoError(t, err)
	resp := decode[listTopicsResponse](t, result)
	require.Equal(t, "overview2", resp.Topics[0].ID)

	result, err = tools.listTopics(context.Background(), newCallRequest("list_topics", map[string]any{"section": "nope"}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestNavigate(t *testing.T) {
	tools := newTools(t)
	result, err := tools.navigate(context.Background(), newCallRequest("navigate", map[string]any{
		"kind":  "version",
		"value": "v2",
	}))
	require.NoError(t, err)
	resp := decode[navigateResponse](t, result)
	require.Equal(t, "v2/user-guide/overview2", resp.URL)
	require.Equal(t, "overview2", resp.Selection.Topic)
}

func TestNavigate_Errors(t *testing.T) {
	tools := newTools(t)
	for _, args := range []map[string]any{
		{"value": "v2"},
		{"kind": "chapter", "value": "x"},
		{"kind": "topic"},
		{"kind": "topic", "value": "missing"},
	} {
		result, err := tools.navigate(context.Background(), newCallRequest("navigate", args))
		require.NoError(t, err)
		require.True(t, result.IsError, "%v", args)
	}
	require.Equal(t, "v1/user-guide/overview", tools.coord.Selection().URL())
}

func TestGetDocument(t *testing.T) {
	tools := newTools(t)

	result, err := tools.getDocument(context.Background(), newCallRequest("get_document", nil))
	require.NoError(t, err)
	doc := decode[documentResponse](t, result)
	require.Equal(t, "v1/user-guide/overview", doc.URL)
	require.Contains(t, doc.Markdown, "# Welcome")
	require.NotEmpty(t, doc.Outline)

	// A parent topic resolves to its first child without moving the selection.
	result, err = tools.getDocument(context.Background(), newCallRequest("get_document", map[string]any{
		"url": "v1/user-guide/components",
	}))
	require.NoError(t, err)
	doc = decode[documentResponse](t, result)
	require.Equal(t, "v1/user-guide/components/overview", doc.URL)
	require.Equal(t, "v1/user-guide/overview", tools.coord.Selection().URL())
}

func TestGetDocument_Errors(t *testing.T) {
	tools := newTools(t)
	for _, u := range []string{"v1", "v9/user-guide/overview", "v1/user-guide/components/nope", "v1/user-guide/components/state"} {
		result, err := tools.getDocument(context.Background(), newCallRequest("get_document", map[string]any{"url": u}))
		require.NoError(t, err)
		require.True(t, result.IsError, u)
	}
}

func TestNewServer_RegistersTools(t *testing.T) {
	s := NewServer(newTools(t), "test")
	tools := s.ListTools()
	require.Contains(t, tools, "list_topics")
	require.Contains(t, tools, "navigate")
	require.Contains(t, tools, "get_document")
}
