// Package llm sends prompts to an OpenAI-compatible chat completions backend.
//
// Every provider the service supports (OpenAI, Groq, Anthropic's compatibility
// endpoint, or a local server behind BASE_LLM_URL) speaks the same wire
// protocol, so a single go-openai client configured with the right base URL
// serves all of them.
package llm

import (
	"context"
	"net/http"
	"time"

	"mindmap_backend/core"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// SystemPrompt is shared by every request regardless of provider.
const SystemPrompt = "You are a helpful assistant that analyzes documents and creates structured outputs. Always respond with valid JSON when requested."

// Completer turns one prompt into one raw text response.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ClientConfig holds the generation parameters sent with every request.
type ClientConfig struct {
	// Model is the model name passed to the backend
	Model string

	// SystemPrompt is the system message (default: SystemPrompt)
	SystemPrompt string

	// MaxTokens bounds the response length (default: 2000)
	MaxTokens int

	// Temperature controls randomness (default: 0.7)
	Temperature float32
}

// DefaultClientConfig returns the generation defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Model:        "gpt-3.5-turbo",
		SystemPrompt: SystemPrompt,
		MaxTokens:    2000,
		Temperature:  0.7,
	}
}

// Client is a Completer backed by a chat completions endpoint. A Client makes
// exactly one request per call; wrap it with WithRetry for the retry policy.
type Client struct {
	config ClientConfig
	client *openai.Client
	logger *zap.Logger
}

// NewClient wraps an existing go-openai client.
func NewClient(client *openai.Client, config ClientConfig, logger *zap.Logger) *Client {
	defaults := DefaultClientConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = defaults.SystemPrompt
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		config.Temperature = defaults.Temperature
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		client: client,
		logger: logger,
	}
}

// NewOpenAIClient creates a go-openai client for baseURL. An empty apiKey is
// allowed for local servers that do not check credentials.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *openai.Client {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(clientConfig)
}

// NewFromConfig builds the completer used by the service: a Client for the
// selected provider wrapped in the configured retry policy.
func NewFromConfig(cfg *core.Config, logger *zap.Logger) Completer {
	httpClient := core.GetHTTPClient(cfg, cfg.AITimeout)
	client := NewClient(
		NewOpenAIClient(cfg.APIKey(), cfg.BaseURL(), httpClient),
		ClientConfig{
			Model:        cfg.Model(),
			SystemPrompt: SystemPrompt,
			MaxTokens:    cfg.MaxResponseTokens,
			Temperature:  cfg.Temperature,
		},
		logger,
	)
	return WithRetry(client, RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		Delay:      cfg.RetryDelay,
	}, logger)
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// Complete sends prompt as the user message and returns the first choice's
// content. An empty content string is a valid response.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.config.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", core.WrapError(core.KindBackendFailure, err, "completion request failed")
	}
	if len(resp.Choices) == 0 {
		return "", core.NewError(core.KindBackendFailure, "completion response contained no choices")
	}

	c.logger.Debug("completion received",
		zap.String("model", c.config.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}
