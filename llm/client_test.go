package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mindmap_backend/core"

	"github.com/sashabaranov/go-openai"
)

func mockCompletion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:      "chatcmpl-test-123",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   "gpt-3.5-turbo",
		Choices: []openai.ChatCompletionChoice{
			{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: content,
				},
				FinishReason: openai.FinishReasonStop,
			},
		},
		Usage: openai.Usage{PromptTokens: 50, CompletionTokens: 10, TotalTokens: 60},
	}
}

// mockOpenAIServer records the last request and replies with content.
func mockOpenAIServer(t *testing.T, content string, got *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("Failed to decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mockCompletion(content))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Complete(t *testing.T) {
	var req openai.ChatCompletionRequest
	server := mockOpenAIServer(t, `["Intro"]`, &req)

	client := NewClient(
		NewOpenAIClient("test-api-key", server.URL+"/v1", nil),
		ClientConfig{Model: "test-model", MaxTokens: 123, Temperature: 0.5},
		nil,
	)

	got, err := client.Complete(context.Background(), "list topics")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `["Intro"]` {
		t.Errorf("Complete() = %q", got)
	}

	if req.Model != "test-model" {
		t.Errorf("model = %q, want test-model", req.Model)
	}
	if req.MaxTokens != 123 {
		t.Errorf("max_tokens = %d, want 123", req.MaxTokens)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(req.Messages))
	}
	if req.Messages[0].Role != openai.ChatMessageRoleSystem || req.Messages[0].Content != SystemPrompt {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if req.Messages[1].Role != openai.ChatMessageRoleUser || req.Messages[1].Content != "list topics" {
		t.Errorf("user message = %+v", req.Messages[1])
	}
}

func TestClient_Complete_EmptyContent(t *testing.T) {
	server := mockOpenAIServer(t, "", nil)
	client := NewClient(NewOpenAIClient("k", server.URL+"/v1", nil), ClientConfig{}, nil)

	got, err := client.Complete(context.Background(), "filter")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "" {
		t.Errorf("Complete() = %q, want empty", got)
	}
}

func TestClient_Complete_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
	}))
	defer server.Close()

	client := NewClient(NewOpenAIClient("bad", server.URL+"/v1", nil), ClientConfig{}, nil)
	_, err := client.Complete(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !core.IsKind(err, core.KindBackendFailure) {
		t.Errorf("kind = %v, want BackendFailure", core.KindOf(err))
	}
}

func TestClient_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(NewOpenAIClient("k", server.URL+"/v1", nil), ClientConfig{}, nil)
	_, err := client.Complete(context.Background(), "hello")
	if !core.IsKind(err, core.KindBackendFailure) {
		t.Errorf("err = %v, want BackendFailure", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(nil, ClientConfig{Temperature: 5}, nil)
	defaults := DefaultClientConfig()

	if client.config.Model != defaults.Model {
		t.Errorf("Model = %q", client.config.Model)
	}
	if client.config.MaxTokens != 2000 {
		t.Errorf("MaxTokens = %d, want 2000", client.config.MaxTokens)
	}
	if client.config.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", client.config.Temperature)
	}
	if client.config.SystemPrompt != SystemPrompt {
		t.Error("SystemPrompt not defaulted")
	}
}

func TestNewFromConfig_UsesProviderEndpoint(t *testing.T) {
	var req openai.ChatCompletionRequest
	server := mockOpenAIServer(t, "ok", &req)

	cfg := &core.Config{
		AIProvider:        core.ProviderGroq,
		GroqModel:         "llama-test",
		BaseLLMURL:        server.URL + "/v1/",
		MaxResponseTokens: 500,
		Temperature:       0.2,
		MaxRetries:        0,
		AITimeout:         5 * time.Second,
	}

	completer := NewFromConfig(cfg, nil)
	got, err := completer.Complete(context.Background(), "ping")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Complete() = %q", got)
	}
	if req.Model != "llama-test" {
		t.Errorf("model = %q, want llama-test", req.Model)
	}
}
