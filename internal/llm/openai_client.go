package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ccastromar/aos-research-team/internal/metrics"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1/"

// OpenAIClient talks to OpenAI or any OpenAI-compatible gateway.
type OpenAIClient struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	client  openai.Client
}

// Compile-time interface conformance
var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	return &OpenAIClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: timeout,
		client:  openai.NewClient(opts...),
	}
}

// Complete calls chat completions in non-stream mode.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("openai api key is empty")
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	})
	if err == nil && len(resp.Choices) == 0 {
		err = errors.New("openai: empty response")
	}
	metrics.ObserveLLM(ProviderOpenAI, err, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("openai chat failed: %w", err)
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping lists models, which every compatible gateway serves.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	if c.APIKey == "" {
		return errors.New("openai api key is empty")
	}
	_, err := c.client.Models.List(ctx)
	metrics.ObservePing(ProviderOpenAI, err)
	if err != nil {
		return fmt.Errorf("openai ping failed: %w", err)
	}
	return nil
}
