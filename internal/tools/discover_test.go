package tools

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/ccastromar/aos-research-team/internal/config"
)

func newMCPServer(t *testing.T, toolNames ...string) *httptest.Server {
	t.Helper()
	s := server.NewMCPServer("docs", "0.0.1", server.WithToolCapabilities(false))
	for _, name := range toolNames {
		s.AddTool(mcp.NewTool(name, mcp.WithDescription("test tool "+name)),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText("ok"), nil
			})
	}
	ts := httptest.NewServer(server.NewStreamableHTTPServer(s))
	t.Cleanup(ts.Close)
	return ts
}

func TestDiscover_HTTPSource(t *testing.T) {
	ts := newMCPServer(t, "search_docs", "fetch_page")

	cat := Discover(context.Background(), []config.ToolSource{
		{Name: "docs", Transport: "http", URL: ts.URL + "/mcp", TimeoutMs: 5000},
	}, time.Second)

	require.Len(t, cat.Sources, 1)
	src := cat.Sources[0]
	require.Empty(t, src.Error)
	require.Equal(t, "http", src.Transport)
	require.Equal(t, []string{"fetch_page", "search_docs"}, src.Tools)
	require.Equal(t, src.Tools, cat.Tools("docs"))
}

func TestDiscover_FailureIsReportedNotFatal(t *testing.T) {
	ts := newMCPServer(t, "search_docs")
	dead := httptest.NewServer(nil)
	deadURL := dead.URL
	dead.Close()

	cat := Discover(context.Background(), []config.ToolSource{
		{Name: "down", URL: deadURL + "/mcp"},
		{Name: "weird", Transport: "carrier-pigeon"},
		{Name: "docs", URL: ts.URL + "/mcp"},
	}, 2*time.Second)

	require.Len(t, cat.Sources, 3)
	require.NotEmpty(t, cat.Sources[0].Error)
	require.Nil(t, cat.Tools("down"))
	require.Contains(t, cat.Sources[1].Error, "unsupported transport")
	require.Equal(t, []string{"search_docs"}, cat.Tools("docs"))
}

func TestDiscover_NoSources(t *testing.T) {
	cat := Discover(context.Background(), nil, time.Second)
	require.Empty(t, cat.Sources)
	require.Nil(t, cat.Tools("anything"))
}

func TestTransportDefaults(t *testing.T) {
	require.Equal(t, TransportStdio, transportOf(config.ToolSource{Command: "npx"}))
	require.Equal(t, TransportHTTP, transportOf(config.ToolSource{URL: "http://x"}))
	require.Equal(t, "npx", targetOf(config.ToolSource{Command: "npx"}))
}

func TestEnvList_AppendsSortedExtras(t *testing.T) {
	env := envList(map[string]string{"B": "2", "A": "1"})
	require.GreaterOrEqual(t, len(env), 2)
	require.Equal(t, []string{"A=1", "B=2"}, env[len(env)-2:])
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Catalog{}))
	require.Equal(t, "No tool sources configured.\n", buf.String())

	buf.Reset()
	require.NoError(t, Render(&buf, Catalog{Sources: []Source{
		{Name: "docs", Transport: "http", Target: "http://h/mcp", Tools: []string{"a", "b"}},
		{Name: "fs", Transport: "stdio", Target: "npx"},
		{Name: "down", Transport: "http", Target: "http://d/mcp", Error: "refused"},
	}}))
	require.Equal(t, "docs (http http://h/mcp): a, b\n"+
		"fs (stdio npx): no tools\n"+
		"down (http http://d/mcp): unavailable: refused\n", buf.String())
}
