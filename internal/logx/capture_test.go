package logx

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapture_KeepsOrderAndFormat(t *testing.T) {
	c := NewCapture(WithoutTime())
	log := slog.New(c).With(LoggerKey, "team")

	log.Info("Researcher running")
	log.Error("Researcher failed", "error", errors.New("connection refused"))
	log.Info("Writer running")

	require.Equal(t, []string{
		"[INFO] team: Researcher running",
		`[ERROR] team: Researcher failed error="connection refused"`,
		"[INFO] team: Writer running",
	}, c.Lines())
}

func TestCapture_DefaultsToRootAndInfoLevel(t *testing.T) {
	c := NewCapture(WithoutTime())
	log := slog.New(c)

	log.Debug("hidden")
	log.Warn("visible", "stage", "writer")

	require.Equal(t, []string{"[WARN] root: visible stage=writer"}, c.Lines())
}

func TestCapture_EmptyWhenNothingLogged(t *testing.T) {
	c := NewCapture()
	require.Empty(t, c.Lines())
}

func TestCapture_TimestampPrefix(t *testing.T) {
	c := NewCapture()
	slog.New(c).Info("hello")

	lines := c.Lines()
	require.Len(t, lines, 1)
	require.True(t, strings.HasSuffix(lines[0], " [INFO] root: hello"), lines[0])
	// "2006-01-02 15:04:05.000 "
	require.Len(t, strings.TrimSuffix(lines[0], "[INFO] root: hello"), len(captureTimeFormat)+1)
}

func TestCapture_Groups(t *testing.T) {
	c := NewCapture(WithoutTime())
	log := slog.New(c).With("run", "r1").WithGroup("llm")

	log.Info("call", "model", "gpt", slog.Group("usage", "tokens", 12))

	require.Equal(t, []string{"[INFO] root: call run=r1 llm.model=gpt llm.usage.tokens=12"}, c.Lines())
}

func TestCapture_LinesIsACopy(t *testing.T) {
	c := NewCapture(WithoutTime())
	slog.New(c).Info("one")

	lines := c.Lines()
	lines[0] = "mutated"
	require.Equal(t, "[INFO] root: one", c.Lines()[0])
}

func TestCapture_SeparateRunsDoNotLeak(t *testing.T) {
	var wg sync.WaitGroup
	caps := make([]*Capture, 8)
	for i := range caps {
		caps[i] = NewCapture(WithoutTime())
		wg.Add(1)
		go func(c *Capture, n int) {
			defer wg.Done()
			log := slog.New(c)
			for j := 0; j < 50; j++ {
				log.Info("tick")
			}
		}(caps[i], i)
	}
	wg.Wait()

	for _, c := range caps {
		require.Len(t, c.Lines(), 50)
	}
}

func TestTee_FansOutByLevel(t *testing.T) {
	var console bytes.Buffer
	c := NewCapture(WithoutTime())
	h := Tee(slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelError}), c, nil)
	log := slog.New(h).With(LoggerKey, "team")

	log.Info("only captured")
	log.Error("both")

	require.Equal(t, []string{"[INFO] team: only captured", "[ERROR] team: both"}, c.Lines())
	require.NotContains(t, console.String(), "only captured")
	require.Contains(t, console.String(), "both")
}

func TestFromContext(t *testing.T) {
	require.Equal(t, slog.Default(), FromContext(context.Background()))

	c := NewCapture(WithoutTime())
	l := slog.New(c)
	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("scoped")

	require.Equal(t, []string{"[INFO] root: scoped"}, c.Lines())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("nope"))
}
