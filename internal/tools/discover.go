// Package tools discovers the tools exposed by the MCP sources declared in
// tools.yaml. Stages do not call tools; the catalog is informational.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ccastromar/aos-research-team/internal/config"
	"github.com/ccastromar/aos-research-team/internal/metrics"
)

const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

const clientName = "aos-research-team"

// Source is the discovery outcome for one tool source.
type Source struct {
	Name      string   `json:"name"`
	Transport string   `json:"transport"`
	Target    string   `json:"target"`
	Tools     []string `json:"tools"`
	Error     string   `json:"error,omitempty"`
}

// Catalog lists sources in declaration order.
type Catalog struct {
	Sources []Source `json:"sources"`
}

// Tools returns the tool names of source, or nil when it is unknown or failed.
func (c Catalog) Tools(source string) []string {
	for _, s := range c.Sources {
		if s.Name == source {
			return s.Tools
		}
	}
	return nil
}

// Discover connects to every source, lists its tools and disconnects.
// A source that cannot be reached is reported in its Error field; Discover
// itself never fails.
func Discover(ctx context.Context, sources []config.ToolSource, timeout time.Duration) Catalog {
	cat := Catalog{Sources: make([]Source, 0, len(sources))}
	for _, src := range sources {
		s := Source{Name: src.Name, Transport: transportOf(src), Target: targetOf(src)}

		d := timeout
		if src.TimeoutMs > 0 {
			d = time.Duration(src.TimeoutMs) * time.Millisecond
		}
		names, err := listTools(ctx, src, d)
		if err != nil {
			slog.Warn("tool discovery failed", "component", "Tools", "source", src.Name, "error", err)
			s.Error = err.Error()
		} else {
			s.Tools = names
			slog.Info("tools discovered", "component", "Tools", "source", src.Name, "count", len(names))
		}
		metrics.ToolSources.WithLabelValues(src.Name).Set(float64(len(s.Tools)))
		cat.Sources = append(cat.Sources, s)
	}
	return cat
}

func listTools(ctx context.Context, src config.ToolSource, timeout time.Duration) ([]string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c, err := connect(ctx, src)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: "1.0.0"}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	if _, err := c.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	res, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	names := make([]string, 0, len(res.Tools))
	for _, t := range res.Tools {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names, nil
}

func connect(ctx context.Context, src config.ToolSource) (*client.Client, error) {
	switch transportOf(src) {
	case TransportStdio:
		c, err := client.NewStdioMCPClient(src.Command, envList(src.Env), src.Args...)
		if err != nil {
			return nil, fmt.Errorf("start %s: %w", src.Command, err)
		}
		return c, nil
	case TransportHTTP:
		c, err := client.NewStreamableHttpClient(src.URL)
		if err != nil {
			return nil, fmt.Errorf("create client for %s: %w", src.URL, err)
		}
		if err := c.Start(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("connect %s: %w", src.URL, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", src.Transport)
	}
}

// transportOf defaults to stdio when a command is set and http otherwise.
func transportOf(src config.ToolSource) string {
	if src.Transport != "" {
		return src.Transport
	}
	if src.Command != "" {
		return TransportStdio
	}
	return TransportHTTP
}

func targetOf(src config.ToolSource) string {
	if transportOf(src) == TransportStdio {
		return src.Command
	}
	return src.URL
}

// envList passes the parent environment plus the source's own variables.
func envList(extra map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}
