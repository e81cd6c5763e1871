package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ccastromar/aos-research-team/internal/metrics"
)

const defaultOllamaBaseURL = "http://localhost:11434"

type OllamaClient struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Asegura que implementa la interfaz
var _ Client = (*OllamaClient)(nil)

func NewOllamaClient(baseURL string) *OllamaClient {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Timeout:    60 * time.Second,
		HTTPClient: &http.Client{},
	}
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChunk struct {
	Message *Message `json:"message"`
	Done    bool     `json:"done"`
	Error   string   `json:"error"`
}

// Complete streams /api/chat and concatenates the chunks.
func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := c.complete(ctx, req)
	metrics.ObserveLLM(ProviderOllama, err, time.Since(start).Seconds())
	return out, err
}

func (c *OllamaClient) complete(ctx context.Context, req Request) (string, error) {
	data, err := json.Marshal(ollamaChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   true,
		Options:  map[string]any{"temperature": req.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama chat failed: status %d, body: %s", resp.StatusCode, string(b))
	}

	dec := json.NewDecoder(resp.Body)
	var out strings.Builder
	for {
		var chunk ollamaChunk
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("ollama chat: decode chunk: %w", err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("ollama chat failed: %s", chunk.Error)
		}
		if chunk.Message != nil {
			out.WriteString(chunk.Message.Content)
		}
		if chunk.Done {
			break
		}
	}
	return out.String(), nil
}

// Ping checks if Ollama is reachable and responding.
func (c *OllamaClient) Ping(ctx context.Context) error {
	// Ollama health: GET /api/tags
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient().Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("status %d", resp.StatusCode)
		}
	}
	metrics.ObservePing(ProviderOllama, err)
	if err != nil {
		return fmt.Errorf("ollama ping failed: %w", err)
	}
	return nil
}

func (c *OllamaClient) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}
