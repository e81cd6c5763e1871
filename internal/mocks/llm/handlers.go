// Package mockllm serves a tiny OpenAI-compatible API with deterministic
// replies, for local demos and end-to-end tests.
package mockllm

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// FailModel makes chat completions answer 500, to exercise stage failures.
const FailModel = "mock-fail"

// DefaultModel is the only model listed by /v1/models.
const DefaultModel = "mock-gpt"

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/v1/chat/completions", postChatCompletions)
	mux.HandleFunc("/v1/models", getModels)
}

// ChatMessage is one OpenAI chat message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

func postChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	slog.Debug("mock chat", "component", "MockLLM", "model", req.Model, "messages", len(req.Messages))

	if req.Model == FailModel {
		writeError(w, http.StatusInternalServerError, "mock failure requested")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": Reply(req.Messages),
			},
		}},
		"usage": map[string]any{"prompt_tokens": 0, "completion_tokens": 0, "total_tokens": 0},
	})
}

// Reply derives the answer from the prompt only, so equal prompts always get
// equal answers.
func Reply(msgs []ChatMessage) string {
	var role, user string
	for _, m := range msgs {
		switch m.Role {
		case "system":
			if role == "" {
				role = roleOf(m.Content)
			}
		case "user":
			user = m.Content
		}
	}
	if strings.TrimSpace(user) == "Say hello" {
		return "Hello! (mock-llm)"
	}
	if role == "" {
		role = "assistant"
	}
	return role + " notes: " + firstLine(lastParagraph(user))
}

// roleOf extracts <role> from "You are a helpful <role>.".
func roleOf(system string) string {
	line := firstLine(system)
	line = strings.TrimPrefix(line, "You are a helpful ")
	return strings.TrimSuffix(line, ".")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const maxRunes = 120
	if r := []rune(s); len(r) > maxRunes {
		s = string(r[:maxRunes])
	}
	return s
}

func lastParagraph(s string) string {
	parts := strings.Split(strings.TrimSpace(s), "\n\n")
	return parts[len(parts)-1]
}

func getModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data": []map[string]any{{
			"id":       DefaultModel,
			"object":   "model",
			"created":  0,
			"owned_by": "mock",
		}},
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": msg, "type": "mock_error"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
