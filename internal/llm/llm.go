package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrUnknownProvider is returned by New for providers it cannot build.
var ErrUnknownProvider = errors.New("unknown llm provider")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one synchronous completion call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
}

// Completer generates text for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Pinger checks the endpoint is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Client interface {
	Completer
	Pinger
}

// Endpoint identifies where and how an agent talks to its completion service.
type Endpoint struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

// Key identifies endpoints that can share one client. The model is not part of
// it since it travels per request.
func (e Endpoint) Key() string {
	return strings.Join([]string{e.provider(), e.BaseURL, e.APIKey}, "|")
}

func (e Endpoint) provider() string {
	if e.Provider == "" {
		return ProviderOpenAI
	}
	return strings.ToLower(e.Provider)
}

// New builds a client for ep. The timeout bounds every call; there are no retries.
func New(ep Endpoint, timeout time.Duration) (Client, error) {
	switch ep.provider() {
	case ProviderOpenAI:
		return NewOpenAIClient(ep.BaseURL, ep.APIKey, timeout), nil
	case ProviderAnthropic:
		return NewAnthropicClient(ep.BaseURL, ep.APIKey, timeout), nil
	case ProviderOllama:
		c := NewOllamaClient(ep.BaseURL)
		if timeout > 0 {
			c.Timeout = timeout
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, ep.Provider)
	}
}

// SplitSystem separates system messages from the conversation, for providers
// that take the system prompt as a dedicated parameter.
func SplitSystem(msgs []Message) (string, []Message) {
	var sys []string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(sys, "\n\n"), rest
}
