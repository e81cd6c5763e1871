package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ccastromar/aos-research-team/internal/metrics"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicClient implements Client using the Anthropic Messages API.
type AnthropicClient struct {
	BaseURL   string
	APIKey    string
	MaxTokens int64
	client    anthropic.Client
}

var _ Client = (*AnthropicClient)(nil)

func NewAnthropicClient(baseURL, apiKey string, timeout time.Duration) *AnthropicClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &AnthropicClient{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		MaxTokens: defaultAnthropicMaxTokens,
		client:    anthropic.NewClient(opts...),
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("anthropic api key is empty")
	}

	system, rest := SplitSystem(req.Messages)
	msgs := make([]anthropic.MessageParam, 0, len(rest))
	for _, m := range rest {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
			continue
		}
		msgs = append(msgs, anthropic.NewUserMessage(block))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   c.MaxTokens,
		Messages:    msgs,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	var text string
	if err == nil {
		var parts []string
		for _, block := range msg.Content {
			if block.Type == "text" {
				parts = append(parts, block.Text)
			}
		}
		if len(parts) == 0 {
			err = errors.New("anthropic: no text content in response")
		}
		text = strings.Join(parts, "")
	}
	metrics.ObserveLLM(ProviderAnthropic, err, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("anthropic chat failed: %w", err)
	}
	return text, nil
}

func (c *AnthropicClient) Ping(ctx context.Context) error {
	if c.APIKey == "" {
		return errors.New("anthropic api key is empty")
	}
	_, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	metrics.ObservePing(ProviderAnthropic, err)
	if err != nil {
		return fmt.Errorf("anthropic ping failed: %w", err)
	}
	return nil
}
