package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/aos-research-team/internal/config"
	"github.com/ccastromar/aos-research-team/internal/guard"
	"github.com/ccastromar/aos-research-team/internal/llm"
	mockllm "github.com/ccastromar/aos-research-team/internal/mocks/llm"
)

type fakeRunner struct {
	ran bool
	err error
}

func (f *fakeRunner) Run(ctx context.Context) error {
	f.ran = true
	return f.err
}

type fakeTeam struct {
	topic string
}

func (f *fakeTeam) Run(_ context.Context, topic string) (string, []string, error) {
	f.topic = topic
	return "# Result\n", []string{"[INFO] team: Researcher running"}, nil
}

// stubGlobals swaps the package indirections for the duration of a test.
func stubGlobals(t *testing.T) {
	t.Helper()
	oldCtor, oldTeam, oldClient, oldFatalf, oldEnv := appCtor, teamCtor, clientCtor, fatalf, loadEnv
	t.Cleanup(func() {
		appCtor, teamCtor, clientCtor, fatalf, loadEnv = oldCtor, oldTeam, oldClient, oldFatalf, oldEnv
	})
	loadEnv = func() (*config.EnvVars, error) {
		return &config.EnvVars{
			AppEnv:       "test",
			Port:         "9090",
			ConfigDir:    "definitions",
			LLMProvider:  "openai",
			LLMAPIKey:    "k",
			LLMModel:     mockllm.DefaultModel,
			LLMTimeout:   time.Second,
			LogLevel:     "error",
			DefaultTopic: "CrewAI vs LangGraph",
			ToolsTimeout: time.Second,
		}, nil
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestServe_Success(t *testing.T) {
	stubGlobals(t)
	fr := &fakeRunner{}
	var gotPort string
	appCtor = func(env *config.EnvVars) (runner, error) {
		gotPort = env.Port
		return fr, nil
	}
	calledFatal := false
	fatalf = func(format string, v ...any) { calledFatal = true }

	_, err := execute(t, "serve", "--port", "8088")
	require.NoError(t, err)
	require.True(t, fr.ran)
	require.False(t, calledFatal)
	require.Equal(t, "8088", gotPort)
}

func TestServe_FatalOnCtorError(t *testing.T) {
	stubGlobals(t)
	appCtor = func(*config.EnvVars) (runner, error) { return nil, errors.New("boom") }
	calledFatal := false
	fatalf = func(format string, v ...any) { calledFatal = true }

	serve(context.Background(), &config.EnvVars{})
	require.True(t, calledFatal)
}

func TestServe_FatalOnRunError(t *testing.T) {
	stubGlobals(t)
	fr := &fakeRunner{err: errors.New("oops")}
	appCtor = func(*config.EnvVars) (runner, error) { return fr, nil }
	calledFatal := false
	fatalf = func(format string, v ...any) { calledFatal = true }

	serve(context.Background(), &config.EnvVars{})
	require.True(t, calledFatal)
}

func TestRun_PrintsResultThenLogs(t *testing.T) {
	stubGlobals(t)
	ft := &fakeTeam{}
	var gotDir string
	teamCtor = func(env *config.EnvVars) (topicRunner, error) {
		gotDir = env.ConfigDir
		return ft, nil
	}

	out, err := execute(t, "run", "--config", "custom-defs")
	require.NoError(t, err)
	require.Equal(t, "CrewAI vs LangGraph", ft.topic)
	require.Equal(t, "custom-defs", gotDir)
	require.Equal(t, "# Result\n\n--- logs ---\n[INFO] team: Researcher running\n", out)

	_, err = execute(t, "run", "--topic", "Go")
	require.NoError(t, err)
	require.Equal(t, "Go", ft.topic)
}

func TestRun_ValidatesTopic(t *testing.T) {
	stubGlobals(t)
	ft := &fakeTeam{}
	built := false
	teamCtor = func(*config.EnvVars) (topicRunner, error) {
		built = true
		return ft, nil
	}

	_, err := execute(t, "run", "--topic", "   ")
	require.ErrorIs(t, err, guard.ErrEmptyTopic)

	_, err = execute(t, "run", "--topic", "   \x07  ")
	require.ErrorIs(t, err, guard.ErrEmptyTopic)

	_, err = execute(t, "run", "--topic", strings.Repeat("a", guard.MaxTopicRunes+1))
	require.ErrorIs(t, err, guard.ErrTopicTooLong)
	require.False(t, built)
	require.Empty(t, ft.topic)

	_, err = execute(t, "run", "--topic", " Go\tgenerics\x07 ")
	require.NoError(t, err)
	require.Equal(t, "Go generics", ft.topic)
}

func TestRun_SetupError(t *testing.T) {
	stubGlobals(t)
	teamCtor = func(*config.EnvVars) (topicRunner, error) { return nil, config.ErrUnknownAgent }

	_, err := execute(t, "run")
	require.ErrorIs(t, err, config.ErrUnknownAgent)
}

func TestPrintRun_NoLogs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRun(&buf, "done", nil))
	require.Equal(t, "done\n\n--- logs ---\nNo logs captured.\n", buf.String())
}

func TestCheck_SaysHello(t *testing.T) {
	stubGlobals(t)
	mux := http.NewServeMux()
	mockllm.RegisterHandlers(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	clientCtor = func(ep llm.Endpoint, timeout time.Duration) (llm.Client, error) {
		ep.BaseURL = ts.URL + "/v1"
		return llm.New(ep, timeout)
	}

	out, err := execute(t, "check")
	require.NoError(t, err)
	require.Equal(t, "Hello! (mock-llm)\n", out)
}

func TestTools_ListsSources(t *testing.T) {
	stubGlobals(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.AgentsFile), []byte("a:\n  role: A\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.TasksFile), []byte(""), 0o644))

	out, err := execute(t, "tools", "--config", dir)
	require.NoError(t, err)
	require.Equal(t, "No tool sources configured.\n", out)
}
