package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	rt "runtime"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/ccastromar/aos-research-team/internal/app"
	"github.com/ccastromar/aos-research-team/internal/config"
	mockllm "github.com/ccastromar/aos-research-team/internal/mocks/llm"
	"github.com/ccastromar/aos-research-team/internal/pipeline"
	"github.com/ccastromar/aos-research-team/internal/team"
)

// repoRoot resolves the repository root from this file's location.
func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, _ := rt.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../.."))
}

// definitions copies the shipped agents and tasks into a temp dir and points
// the docs tool source at mcpURL.
func definitions(t *testing.T, mcpURL string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{config.AgentsFile, config.TasksFile} {
		data, err := os.ReadFile(filepath.Join(repoRoot(t), "definitions", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	tools := fmt.Sprintf("tools:\n  - name: docs\n    transport: http\n    url: %s\n    timeout: 5000\n", mcpURL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ToolsFile), []byte(tools), 0o644))
	return dir
}

func startMCP(t *testing.T) *httptest.Server {
	t.Helper()
	s := server.NewMCPServer("docs", "0.0.1", server.WithToolCapabilities(false))
	s.AddTool(mcp.NewTool("search_docs", mcp.WithDescription("Search the documentation")),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("no results"), nil
		})
	ts := httptest.NewServer(server.NewStreamableHTTPServer(s))
	t.Cleanup(ts.Close)
	return ts
}

func startLLM(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mockllm.RegisterHandlers(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newApp(t *testing.T) *httptest.Server {
	t.Helper()
	llmSrv := startLLM(t)
	mcpSrv := startMCP(t)

	env := &config.EnvVars{
		AppEnv:         "test",
		Port:           "0",
		ConfigDir:      definitions(t, mcpSrv.URL+"/mcp"),
		LLMProvider:    "openai",
		LLMBaseURL:     llmSrv.URL + "/v1",
		LLMAPIKey:      "e2e-key",
		LLMModel:       mockllm.DefaultModel,
		LLMTimeout:     5 * time.Second,
		LLMTemperature: 0.2,
		DefaultTopic:   "CrewAI vs LangGraph",
		UIMaxRuns:      5,
		ToolsTimeout:   5 * time.Second,
	}
	a, err := app.NewWithOptions(env, app.Options{
		TeamOptions: []team.Option{team.WithPipelineOptions(pipeline.WithConsole(nil))},
	})
	require.NoError(t, err)

	ts := httptest.NewServer(a.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// TestE2E_UIRun posts the topic form, follows the redirect and checks the run
// page shows the result, every stage and the captured logs.
func TestE2E_UIRun(t *testing.T) {
	ts := newApp(t)

	resp, err := http.Get(ts.URL + "/ui")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "search_docs")
	require.Contains(t, string(body), "Senior Researcher")

	resp, err = http.PostForm(ts.URL+"/ui/run", url.Values{"topic": {"Go generics"}})
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Request.URL.Path, "/ui/runs/"), resp.Request.URL.Path)

	page := string(body)
	require.Contains(t, page, "Crew completed.")
	require.Contains(t, page, "Managing Editor notes:")
	require.Contains(t, page, "Researcher running")
	require.Contains(t, page, "Finalizer running")
}

// TestE2E_APIRunIsRepeatable runs the same topic twice through the API and
// expects identical results and logs of identical shape.
func TestE2E_APIRunIsRepeatable(t *testing.T) {
	ts := newApp(t)

	run := func(topic string) map[string]any {
		resp, err := http.Post(ts.URL+"/api/run", "application/json", strings.NewReader(`{"topic":"`+topic+`"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	first := run("CrewAI vs LangGraph")
	run("something else entirely")
	second := run("CrewAI vs LangGraph")

	require.Equal(t, "ok", first["status"])
	require.Equal(t, first["result"], second["result"])
	require.Equal(t, first["stages"], second["stages"])
	require.Len(t, first["logs"], 4)
	require.Len(t, second["logs"], 4)
	require.NotEqual(t, first["id"], second["id"])

	resp, err := http.Get(ts.URL + "/api/team")
	require.NoError(t, err)
	defer resp.Body.Close()
	var ov team.Overview
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ov))
	require.Len(t, ov.Tools, 1)
	require.Equal(t, []string{"search_docs"}, ov.Tools[0].Tools)
	require.Empty(t, ov.Tools[0].Error)
}
